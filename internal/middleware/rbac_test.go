package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tunecraft/tunecraft-api/internal/models"
	"github.com/tunecraft/tunecraft-api/internal/service"
	appErrors "github.com/tunecraft/tunecraft-api/pkg/errors"
)

type staticResolver struct {
	roles map[string]models.UserRole
}

func (r *staticResolver) RoleOf(ctx context.Context, email string) (models.UserRole, error) {
	if role, ok := r.roles[email]; ok {
		return role, nil
	}
	return "", appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

func newProtectedRouter(t *testing.T, resolver RoleResolver, roles ...models.UserRole) (*gin.Engine, *service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth := service.NewAuthService(nil, nil, service.AuthConfig{Secret: "test-secret", Expiration: time.Hour})

	router := gin.New()
	router.GET("/protected", JWT(auth), RequireRoles(resolver, roles...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router, auth
}

func bearerToken(t *testing.T, auth *service.AuthService, email string) string {
	t.Helper()
	resp, err := auth.IssueToken(context.Background(), models.TokenRequest{Email: email})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + resp.Token
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	resolver := &staticResolver{roles: map[string]models.UserRole{"admin@example.com": models.RoleAdmin}}
	router, auth := newProtectedRouter(t, resolver, models.RoleAdmin)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", bearerToken(t, auth, "admin@example.com"))
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRequireRolesRejectsLowerRole(t *testing.T) {
	resolver := &staticResolver{roles: map[string]models.UserRole{"student@example.com": models.RoleStudent}}
	router, auth := newProtectedRouter(t, resolver, models.RoleInstructor, models.RoleAdmin)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", bearerToken(t, auth, "student@example.com"))
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRequireRolesUnknownEmailIsForbidden(t *testing.T) {
	router, auth := newProtectedRouter(t, &staticResolver{}, models.RoleAdmin)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", bearerToken(t, auth, "ghost@example.com"))
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRequireRolesSeesFreshRoleAfterPromotion(t *testing.T) {
	resolver := &staticResolver{roles: map[string]models.UserRole{"user@example.com": models.RoleStudent}}
	router, auth := newProtectedRouter(t, resolver, models.RoleInstructor)
	token := bearerToken(t, auth, "user@example.com")

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", token)
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status before promotion: %d", recorder.Code)
	}

	resolver.roles["user@example.com"] = models.RoleInstructor

	recorder = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", token)
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status after promotion: %d", recorder.Code)
	}
}

func TestJWTMissingHeader(t *testing.T) {
	router, _ := newProtectedRouter(t, &staticResolver{}, models.RoleAdmin)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestJWTMalformedHeader(t *testing.T) {
	router, _ := newProtectedRouter(t, &staticResolver{}, models.RoleAdmin)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc123")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}
