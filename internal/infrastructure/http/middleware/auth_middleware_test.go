package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/lecture-assistant/pkg/jwt"
)

func TestEchoAuth(t *testing.T) {
	manager := jwt.NewManager("secret", time.Hour)
	user := uuid.New()
	token, _ := manager.GenerateAccessToken(user, "", "")
	admin, _ := manager.GenerateAccessToken(user, "", jwt.RoleAdmin)
	expired, _ := jwt.NewManager("secret", -time.Minute).GenerateAccessToken(user, "", "")

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := UserID(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.String(http.StatusOK, id.String())
	}, EchoAuth(manager))
	e.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, EchoAuth(manager), RequireAdmin())

	tests := []struct {
		name   string
		path   string
		header string
		want   int
		msg    string
	}{
		{"missing", "/me", "", http.StatusUnauthorized, "Authentication required"},
		{"invalid", "/me", "Bearer nope", http.StatusUnauthorized, "Invalid authentication token"},
		{"expired", "/me", "Bearer " + expired, http.StatusUnauthorized, "Authentication token has expired"},
		{"valid", "/me", "Bearer " + token, http.StatusOK, ""},
		{"query token", "/me?token=" + token, "", http.StatusOK, ""},
		{"not admin", "/admin", "Bearer " + token, http.StatusForbidden, "Permission denied"},
		{"admin", "/admin", "bearer " + admin, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.msg != "" && !strings.Contains(rec.Body.String(), tt.msg) {
				t.Fatalf("body = %q, want message %q", rec.Body.String(), tt.msg)
			}
			if tt.name == "valid" && rec.Body.String() != user.String() {
				t.Fatalf("user id not propagated: %q", rec.Body.String())
			}
		})
	}
}
