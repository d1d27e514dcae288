package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tunecraft/tunecraft-api/internal/models"
	"github.com/tunecraft/tunecraft-api/internal/service"
	appErrors "github.com/tunecraft/tunecraft-api/pkg/errors"
	"github.com/tunecraft/tunecraft-api/pkg/response"
)

// UserHandler exposes user directory endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register creates the directory record on first sign-in. Idempotent.
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Created {
		response.Created(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List returns directory records. Admin only, enforced at the route.
func (h *UserHandler) List(c *gin.Context) {
	var filter models.UserFilter
	if raw := strings.ToUpper(c.Query("role")); raw != "" {
		role := models.UserRole(raw)
		filter.Role = &role
	}
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Promote raises the target user's role. Admin only, enforced at the route.
func (h *UserHandler) Promote(c *gin.Context) {
	var req service.PromoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.Role = models.UserRole(strings.ToUpper(string(req.Role)))

	user, err := h.users.Promote(c.Request.Context(), c.Param("email"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// IsAdmin is the self-scoped admin check; other principals asking about this
// email are forbidden, a non-admin self gets {"admin": false}.
func (h *UserHandler) IsAdmin(c *gin.Context) {
	h.roleCheck(c, models.RoleAdmin, "admin")
}

// IsInstructor mirrors IsAdmin for the instructor role.
func (h *UserHandler) IsInstructor(c *gin.Context) {
	h.roleCheck(c, models.RoleInstructor, "instructor")
}

func (h *UserHandler) roleCheck(c *gin.Context, role models.UserRole, field string) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	has, err := h.users.HasRole(c.Request.Context(), claims.Email, c.Param("email"), role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{field: has}, nil)
}
