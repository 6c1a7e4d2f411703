package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/service"
)

// RequireSession rejects requests while no database session is open
func RequireSession(sessions *service.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !sessions.Status().Connected {
				return c.JSON(http.StatusPreconditionFailed, map[string]interface{}{
					"error": service.ErrNotConnected.Error(),
				})
			}
			return next(c)
		}
	}
}
