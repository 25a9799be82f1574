package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fleet-tracking-api/config"
	"fleet-tracking-api/models"
	"fleet-tracking-api/services"

	"github.com/gin-gonic/gin"
)

func newTestAuth() *services.AuthService {
	return services.NewAuthService(config.JWTConfig{
		Secret:      "test-secret",
		ExpiryHours: 1,
	})
}

func setupRouter(authService *services.AuthService, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("", RequireAuth(authService))
	if len(roles) > 0 {
		group.Use(RequireRole(roles...))
	}
	group.GET("/protected", func(c *gin.Context) {
		claims := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"email": claims.Email})
	})
	return router
}

func request(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingHeader(t *testing.T) {
	router := setupRouter(newTestAuth())
	if w := request(router, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	router := setupRouter(newTestAuth())
	if w := request(router, "Token abc"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	router := setupRouter(newTestAuth())
	if w := request(router, "Bearer not.a.token"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	authService := newTestAuth()
	router := setupRouter(authService)

	token, err := authService.GenerateToken(models.User{ID: 1, Email: "user@fleet.test", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	w := request(router, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	authService := newTestAuth()

	tests := []struct {
		name     string
		role     string
		required []string
		want     int
	}{
		{"admin allowed", "admin", []string{"admin"}, http.StatusOK},
		{"driver allowed among several", "driver", []string{"driver", "admin"}, http.StatusOK},
		{"user forbidden", "user", []string{"admin"}, http.StatusForbidden},
		{"driver forbidden for admin-only", "driver", []string{"admin"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(authService, tt.required...)
			token, err := authService.GenerateToken(models.User{ID: 1, Email: "someone@fleet.test", Role: tt.role})
			if err != nil {
				t.Fatalf("GenerateToken failed: %v", err)
			}
			if w := request(router, "Bearer "+token); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
