package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/container"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/handlers"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/middleware"
)

// RegisterCatalogRoutes registers object lookup routes. They need an open session.
func RegisterCatalogRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewCatalogHandler(c)
	requireSession := middleware.RequireSession(c.SessionService)

	e.GET("/api/v1/schemas", h.ListSchemas, requireSession) // GET /api/v1/schemas

	objects := e.Group("/api/v1/objects")
	objects.Use(requireSession)
	{
		objects.GET("/exists", h.Exists) // GET /api/v1/objects/exists?type=&schema=&name=
		objects.GET("/names", h.Names)   // GET /api/v1/objects/names?type=&schema=
	}
}
