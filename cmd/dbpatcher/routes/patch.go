package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/container"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/handlers"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/middleware"
)

// RegisterPatchRoutes registers patch workflow routes
func RegisterPatchRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewPatchHandler(c)

	var toolRuns []echo.MiddlewareFunc
	if c.ToolLimiter != nil {
		toolRuns = append(toolRuns, middleware.ToolRateLimit(c.ToolLimiter, c.Components.Logger))
	}

	patches := e.Group("/api/v1/patches")
	{
		patches.POST("/items", h.AddItems)               // POST /api/v1/patches/items
		patches.POST("/build", h.Build, toolRuns...)     // POST /api/v1/patches/build
		patches.GET("/open", h.Open)                     // GET /api/v1/patches/open?dir=
		patches.POST("/check", h.Check, toolRuns...)     // POST /api/v1/patches/check
		patches.POST("/install", h.Install, toolRuns...) // POST /api/v1/patches/install
	}
}
