package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tunecraft/tunecraft-api/internal/models"
	appErrors "github.com/tunecraft/tunecraft-api/pkg/errors"
	"github.com/tunecraft/tunecraft-api/pkg/response"
)

// RoleResolver maps an authenticated email onto its directory role. The
// token itself carries no role, so promotions apply without reissuing.
type RoleResolver interface {
	RoleOf(ctx context.Context, email string) (models.UserRole, error)
}

// RequireRoles enforces role-based access control for routes. The caller's
// role is resolved from the directory; an unknown email has no elevated role.
func RequireRoles(resolver RoleResolver, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		role, err := resolver.RoleOf(c.Request.Context(), claims.Email)
		if err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
				response.Error(c, appErrors.ErrForbidden)
				c.Abort()
				return
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextRoleKey, role)

		if _, ok := allowed[role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
