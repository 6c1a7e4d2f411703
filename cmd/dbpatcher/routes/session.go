package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/container"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/handlers"
)

// RegisterSessionRoutes registers the database session routes
func RegisterSessionRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewSessionHandler(c)

	session := e.Group("/api/v1/session")
	{
		session.GET("", h.Status)        // GET /api/v1/session
		session.POST("", h.Connect)      // POST /api/v1/session
		session.DELETE("", h.Disconnect) // DELETE /api/v1/session
	}
}
