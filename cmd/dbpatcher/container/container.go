package container

import (
	"context"

	"github.com/lyzr/dbpatcher/cmd/dbpatcher/service"
	"github.com/lyzr/dbpatcher/common/bootstrap"
	"github.com/lyzr/dbpatcher/common/cache"
	"github.com/lyzr/dbpatcher/common/config"
	"github.com/lyzr/dbpatcher/common/logstream"
	"github.com/lyzr/dbpatcher/common/ratelimit"
	"github.com/lyzr/dbpatcher/common/tools"
)

// Container holds all initialized services (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Hub        *logstream.Hub
	Invoker    *tools.Invoker
	// ToolLimiter is nil when tool runs are not limited
	ToolLimiter ratelimit.Limiter

	// Services
	SessionService *service.SessionService
	CatalogService *service.CatalogService
	PatchService   *service.PatchService

	cancelHub context.CancelFunc
	reports   cache.Cache
	ownsCache bool
}

// NewContainer initializes all services once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	// Check reports must survive between requests even with caching disabled
	reports := components.Cache
	ownsCache := false
	if reports == nil {
		reports = cache.NewMemoryCache(log)
		ownsCache = true
	}

	if err := config.ValidateTemplatesPath(cfg.Tools.TemplatesPath); err != nil {
		log.Warn("templates file not usable, builds will fail until it is set", "error", err)
	}

	invoker := tools.NewInvoker(tools.Options{
		BuilderPath:   cfg.Tools.BuilderPath,
		InstallerPath: cfg.Tools.InstallerPath,
		TemplatesPath: cfg.Tools.TemplatesPath,
		Timeout:       cfg.Tools.Timeout,
		WaitDelay:     cfg.Tools.WaitDelay,
		Logger:        log,
	})

	hub := logstream.NewHub(log)
	hubCtx, cancelHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// Catalog listings are only cached when caching is enabled
	connector := service.PostgresConnector(cfg.Database, components.Cache, cfg.Cache.DefaultTTL, log)

	sessionService := service.NewSessionService(connector, log)
	catalogService := service.NewCatalogService(sessionService, log)
	patchService := service.NewPatchService(
		sessionService,
		invoker,
		hub,
		reports,
		cfg.Cache.DefaultTTL,
		cfg.Staging.Root,
		components.Telemetry,
		log,
	)

	return &Container{
		Components:     components,
		Hub:            hub,
		Invoker:        invoker,
		ToolLimiter:    newToolLimiter(components),
		SessionService: sessionService,
		CatalogService: catalogService,
		PatchService:   patchService,
		cancelHub:      cancelHub,
		reports:        reports,
		ownsCache:      ownsCache,
	}, nil
}

// newToolLimiter shares counters through Redis when a client is available
func newToolLimiter(components *bootstrap.Components) ratelimit.Limiter {
	cfg := components.Config.RateLimit
	if cfg.ToolRuns == 0 {
		return nil
	}

	if components.Redis != nil {
		prefix := components.Config.Service.Name + ":rate_limit:"
		return ratelimit.NewRedisLimiter(components.Redis.GetUnderlying(), prefix, int64(cfg.ToolRuns), cfg.Window, components.Logger)
	}
	return ratelimit.NewMemoryLimiter(int64(cfg.ToolRuns), cfg.Window)
}

// Close disconnects the session and stops the log stream
func (c *Container) Close() {
	c.SessionService.Close()
	c.cancelHub()
	if c.ownsCache {
		_ = c.reports.Close()
	}
}
