package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/common/logger"
	"github.com/lyzr/dbpatcher/common/ratelimit"
)

// ToolRateLimit bounds how often one client may start the builder or
// installer. Limiter failures let the request through.
func ToolRateLimit(limiter ratelimit.Limiter, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			client := c.RealIP()

			result, err := limiter.Allow(c.Request().Context(), "tool:"+client)
			if err != nil {
				log.Warn("rate limit unavailable, allowing request", "client", client, "error", err)
				return next(c)
			}

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "tool_rate_limit_exceeded",
					"message": "Too many tool runs. Please wait before trying again.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"current_count":       result.CurrentCount,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
