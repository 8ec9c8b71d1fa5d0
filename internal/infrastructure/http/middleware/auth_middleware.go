package middleware

import (
	stdErrors "errors"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/johnquangdev/lecture-assistant/errors"
	"github.com/johnquangdev/lecture-assistant/pkg/jwt"
)

const (
	// UserIDKey holds the authenticated uuid.UUID in the echo context
	UserIDKey = "user_id"
	// ClaimsKey holds the parsed *jwt.Claims in the echo context
	ClaimsKey = "claims"
)

// EchoAuth returns an Echo middleware that validates the bearer JWT and sets
// "user_id" (uuid.UUID) and "claims" (*jwt.Claims) into the Echo context
func EchoAuth(manager *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return httpError(apperrors.ErrUnauthenticated(), nil)
			}

			claims, err := manager.ValidateAccessToken(token)
			if stdErrors.Is(err, jwt.ErrTokenExpired) {
				return httpError(apperrors.ErrTokenExpired(), err)
			}
			if err != nil {
				return httpError(apperrors.ErrInvalidToken(), err)
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, claims.UserID)
			return next(c)
		}
	}
}

// RequireAdmin rejects requests whose token lacks the admin role
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, _ := c.Get(ClaimsKey).(*jwt.Claims)
			if !claims.IsAdmin() {
				return httpError(apperrors.ErrPermissionDenied("admin role required"), nil)
			}
			return next(c)
		}
	}
}

func httpError(appErr apperrors.AppError, cause error) *echo.HTTPError {
	he := echo.NewHTTPError(appErr.HTTPCode, appErr.Message)
	if cause != nil {
		he = he.SetInternal(cause)
	}
	return he
}

// UserID returns the authenticated user set by EchoAuth
func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(UserIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// extractToken reads the Authorization header, falling back to the access_token
// cookie and then the token query parameter used by audio players
func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return c.QueryParam("token")
}
