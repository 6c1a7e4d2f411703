package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/container"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/handlers"
)

// RegisterSettingsRoutes registers settings routes
func RegisterSettingsRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewSettingsHandler(c)

	settings := e.Group("/api/v1/settings")
	{
		settings.GET("/templates", h.GetTemplates) // GET /api/v1/settings/templates
		settings.PUT("/templates", h.SetTemplates) // PUT /api/v1/settings/templates
	}
}

// RegisterLogRoutes registers the live tool output stream
func RegisterLogRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewLogHandler(c)

	e.GET("/ws/log", h.Stream) // GET /ws/log?operation_id=
}
