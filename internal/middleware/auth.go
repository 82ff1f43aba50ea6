package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/barsea/schedpoint/internal/auth"
	"github.com/barsea/schedpoint/internal/models"
)

// UnauthenticatedMessage is the body text of every 401 from the gate.
const UnauthenticatedMessage = "You need to sign in or sign up before continuing."

const (
	userKey  = "schedpoint.user"
	tokenKey = "schedpoint.token"
)

// TokenResolver turns a raw bearer token into the acting user.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// CurrentUser returns the user bound by RequireAuth or OptionalAuth, or nil.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userKey).(*models.User)
	return user
}

// CurrentToken returns the raw token the user was resolved from, or "".
func CurrentToken(c echo.Context) string {
	token, _ := c.Get(tokenKey).(string)
	return token
}

// RequireAuth rejects the request with 401 unless the Authorization header
// carries a token that resolves to a user whose jti still matches.
func RequireAuth(resolver TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err == nil {
				var user *models.User
				user, err = resolver.Resolve(c.Request().Context(), token)
				if err == nil {
					bind(c, user, token)
					return next(c)
				}
			}

			if !isAuthError(err) {
				return err
			}
			slog.Warn("Request rejected by auth gate",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err,
			)
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": UnauthenticatedMessage})
		}
	}
}

// OptionalAuth binds the user if a valid token is present and otherwise lets
// the request through unchanged.
func OptionalAuth(resolver TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err == nil {
				if user, err := resolver.Resolve(c.Request().Context(), token); err == nil {
					bind(c, user, token)
				}
			}
			return next(c)
		}
	}
}

func bind(c echo.Context, user *models.User, token string) {
	c.Set(userKey, user)
	c.Set(tokenKey, token)
}

func isAuthError(err error) bool {
	return errors.Is(err, auth.ErrMissingToken) ||
		errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrRevokedToken)
}
