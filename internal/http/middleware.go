package http

import (
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"polyglot/internal/logger"
)

// syncKeyPattern bounds sync keys to URL-safe identifiers.
var syncKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// RequestLoggerMiddleware logs HTTP requests using logger.
func RequestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			result := "ok"
			if status >= 400 {
				result = "failed"
			}
			args := []any{
				"module", "http",
				"action", "request",
				"resource", "http",
				"result", result,
				"method", req.Method,
				"path", req.URL.Path,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_ip", c.RealIP(),
			}

			switch {
			case status >= 500:
				logger.Error("http request", args...)
			case status >= 400:
				logger.Warn("http request", args...)
			default:
				logger.Debug("http request", args...)
			}
			return nil
		}
	}
}

// SyncKeyMiddleware rejects sync routes whose :key is not a URL-safe
// identifier of at most 64 characters.
func SyncKeyMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Param("key")
			if key != "" && !syncKeyPattern.MatchString(key) {
				logger.Warn("sync key rejected",
					"module", "http",
					"action", "request",
					"resource", "sync",
					"result", "failed",
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"remote_ip", c.RealIP(),
				)
				return c.JSON(http.StatusBadRequest, map[string]string{
					"error": "invalid sync key",
				})
			}
			return next(c)
		}
	}
}
