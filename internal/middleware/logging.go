package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs every request once it has completed: method, route,
// status, duration and the acting user when known.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			var userID int64
			if user := CurrentUser(c); user != nil {
				userID = user.ID
			}

			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"route", c.Path(),
				"status", res.Status,
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"user_id", userID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case res.Status >= 500:
				slog.Error("Request failed", attrs...)
			case res.Status >= 400:
				slog.Warn("Request error", attrs...)
			default:
				slog.Info("Request ok", attrs...)
			}
			return nil
		}
	}
}
