package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/container"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/routes"
	"github.com/lyzr/dbpatcher/common/bootstrap"
	"github.com/lyzr/dbpatcher/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (logger, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "dbpatcher")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap dbpatcher: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}
	defer serviceContainer.Close()

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e)

	// Setup health check
	setupHealthCheck(e, components)

	// Register all routes
	registerRoutes(e, serviceContainer)

	// Start server
	if err := startServer(e, components); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(503, map[string]string{
				"status":  "unhealthy",
				"service": "dbpatcher",
				"error":   err.Error(),
			})
		}
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"service": "dbpatcher",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterSessionRoutes(e, serviceContainer)
	routes.RegisterCatalogRoutes(e, serviceContainer)
	routes.RegisterPatchRoutes(e, serviceContainer)
	routes.RegisterSettingsRoutes(e, serviceContainer)
	routes.RegisterLogRoutes(e, serviceContainer)
}

// startServer serves on the configured port until SIGINT or SIGTERM.
// Requests that run a tool may take up to the tool timeout.
func startServer(e *echo.Echo, components *bootstrap.Components) error {
	cfg := components.Config
	components.Logger.Info("Starting dbpatcher", "port", cfg.Service.Port)

	srv := server.New("dbpatcher", cfg.Service.Port, e, components.Logger,
		server.WithWriteTimeout(cfg.Tools.Timeout+cfg.Tools.WaitDelay+15*time.Second),
	)
	return srv.Start()
}
