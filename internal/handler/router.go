package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tunecraft/tunecraft-api/internal/middleware"
	"github.com/tunecraft/tunecraft-api/internal/models"
	"github.com/tunecraft/tunecraft-api/internal/service"
)

// Handlers bundles everything Register mounts onto the engine.
type Handlers struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Classes      *ClassHandler
	Reservations *ReservationHandler
	Payments     *PaymentHandler
	Metrics      *MetricsHandler
}

// Register mounts all routes under the API prefix. Authentication runs in
// the JWT middleware; elevated routes additionally resolve and check the
// caller's directory role.
func Register(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService, roles middleware.RoleResolver) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)

	// Public surface: token issuance, registration, the approved storefront.
	api.POST("/auth/token", h.Auth.IssueToken)
	api.POST("/users", h.Users.Register)
	api.GET("/classes", h.Classes.ListApproved)
	api.GET("/classes/popular", h.Classes.Popular)

	authed := api.Group("", middleware.JWT(auth))
	{
		authed.GET("/classes/:id", h.Classes.Get)

		authed.GET("/users/:email/admin", h.Users.IsAdmin)
		authed.GET("/users/:email/instructor", h.Users.IsInstructor)

		authed.POST("/selections", h.Reservations.Select)
		authed.GET("/selections", h.Reservations.ListSelections)
		authed.DELETE("/selections/:id", h.Reservations.Cancel)
		authed.POST("/selections/:id/confirm", h.Reservations.Confirm)
		authed.GET("/enrollments", h.Reservations.ListEnrollments)

		authed.POST("/payments/intent", h.Payments.CreateIntent)
		authed.POST("/payments", h.Payments.Record)
		authed.GET("/payments", h.Payments.History)
		authed.GET("/payments/:id/receipt", h.Payments.Receipt)
	}

	instructors := api.Group("", middleware.JWT(auth), middleware.RequireRoles(roles, models.RoleInstructor, models.RoleAdmin))
	{
		instructors.POST("/classes", h.Classes.Create)
		instructors.PATCH("/classes/:id", h.Classes.Update)
		instructors.GET("/classes/mine", h.Classes.ListMine)
		instructors.GET("/instructors/:email/payments/count", h.Payments.InstructorCount)
	}

	admins := api.Group("", middleware.JWT(auth), middleware.RequireRoles(roles, models.RoleAdmin))
	{
		admins.GET("/users", h.Users.List)
		admins.PATCH("/users/:email/role", h.Users.Promote)
		admins.GET("/classes/all", h.Classes.ListAll)
		admins.PUT("/classes/:id/approve", h.Classes.Approve)
		admins.PUT("/classes/:id/deny", h.Classes.Deny)
		admins.PUT("/classes/:id/feedback", h.Classes.Feedback)
	}
}
