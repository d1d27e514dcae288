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

// ClassHandler exposes class catalog endpoints.
type ClassHandler struct {
	classes *service.ClassService
}

// NewClassHandler constructs ClassHandler.
func NewClassHandler(classes *service.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

// ListApproved is the public storefront view: approved classes only.
func (h *ClassHandler) ListApproved(c *gin.Context) {
	filter := parseClassFilter(c)
	filter.Status = models.ClassStatusApproved
	filter.InstructorEmail = ""

	classes, pagination, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// ListAll is the moderation view over every class. Admin only.
func (h *ClassHandler) ListAll(c *gin.Context) {
	classes, pagination, err := h.classes.List(c.Request.Context(), parseClassFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// ListMine returns the calling instructor's own classes.
func (h *ClassHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := parseClassFilter(c)
	filter.InstructorEmail = claims.Email

	classes, pagination, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get returns a single class.
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Popular returns the top classes by enrollment.
func (h *ClassHandler) Popular(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "6"))
	classes, err := h.classes.Popular(c.Request.Context(), n)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Create registers a new pending class for the calling instructor.
func (h *ClassHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	class, err := h.classes.Create(c.Request.Context(), claims.Email, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Approve applies the APPROVED decision. Admin only.
func (h *ClassHandler) Approve(c *gin.Context) {
	h.setStatus(c, models.ClassStatusApproved)
}

// Deny applies the DENIED decision. Admin only.
func (h *ClassHandler) Deny(c *gin.Context) {
	h.setStatus(c, models.ClassStatusDenied)
}

func (h *ClassHandler) setStatus(c *gin.Context, status models.ClassStatus) {
	class, err := h.classes.SetStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Update applies a partial update by the owning instructor.
func (h *ClassHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var update models.ClassUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	class, err := h.classes.UpdateFields(c.Request.Context(), c.Param("id"), claims.Email, update)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Feedback replaces moderation feedback. Admin only.
func (h *ClassHandler) Feedback(c *gin.Context) {
	var req service.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	class, err := h.classes.SetFeedback(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

func parseClassFilter(c *gin.Context) models.ClassFilter {
	var filter models.ClassFilter
	filter.Status = models.ClassStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter
}
