package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tunecraft/tunecraft-api/internal/models"
	"github.com/tunecraft/tunecraft-api/internal/service"
	appErrors "github.com/tunecraft/tunecraft-api/pkg/errors"
	"github.com/tunecraft/tunecraft-api/pkg/response"
)

// AuthHandler exposes token issuance.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// IssueToken signs a session token for the given email.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	token, err := h.auth.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token, nil)
}
