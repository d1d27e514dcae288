package models

import "github.com/golang-jwt/jwt/v5"

// TokenRequest asks for a session token bound to an email.
type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenResponse returns the issued token and its lifetime in seconds.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// RegisterRequest creates a directory record on first sign-in.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	PhotoURL string `json:"photo_url"`
}

// RegisterResponse reports whether a new record was created. Re-registering
// an existing email is a success with Created=false.
type RegisterResponse struct {
	Created bool `json:"created"`
}

// JWTClaims is the access token payload. The token binds only the email;
// the role is resolved from the directory on every request so promotions
// take effect without reissuing tokens.
type JWTClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
