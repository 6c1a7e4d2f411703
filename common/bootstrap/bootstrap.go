package bootstrap

import (
	"context"
	"fmt"

	"github.com/lyzr/dbpatcher/common/cache"
	"github.com/lyzr/dbpatcher/common/config"
	"github.com/lyzr/dbpatcher/common/logger"
	"github.com/lyzr/dbpatcher/common/redis"
	"github.com/lyzr/dbpatcher/common/telemetry"
)

// Setup initializes all service components. Database connections are opened
// later, per session, so none is made here.
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
	)

	// 3. Initialize cache (if not skipped)
	if !options.skipCache && components.Config.Cache.Enabled {
		components.Logger.Info("initializing cache",
			"backend", components.Config.Cache.Backend,
			"ttl", components.Config.Cache.DefaultTTL,
		)

		switch components.Config.Cache.Backend {
		case "memory":
			components.Cache = cache.NewMemoryCache(components.Logger)
		case "redis":
			components.Redis, err = redis.New(ctx, redis.Options{
				Addr:     components.Config.RedisAddr(),
				Password: components.Config.Redis.Password,
				DB:       components.Config.Redis.DB,
			}, components.Logger)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to redis: %w", err)
			}
			components.Cache = cache.NewRedisCache(components.Redis, serviceName+":")
		default:
			return nil, fmt.Errorf("unknown cache backend: %s", components.Config.Cache.Backend)
		}

		components.addCleanup(func() error {
			components.Logger.Info("closing cache")
			return components.Cache.Close()
		})
	}

	// 4. Initialize telemetry (if not skipped)
	if !options.skipTelemetry && components.Config.Telemetry.EnablePprof {
		components.Logger.Info("initializing telemetry")
		components.Telemetry = telemetry.New(
			components.Config.Telemetry.PprofPort,
			components.Logger,
		)

		if err := components.Telemetry.Start(ctx); err != nil {
			components.Logger.Warn("failed to start telemetry", "error", err)
			// Don't fail startup if telemetry fails
		}

		components.addCleanup(func() error {
			return components.Telemetry.Stop(context.Background())
		})
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"cache", components.Cache != nil,
		"redis", components.Redis != nil,
		"telemetry", components.Telemetry != nil,
	)

	return components, nil
}

// MustSetup is like Setup but panics on error
// Useful for services that can't recover from initialization failure
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}
