package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Tools     ToolsConfig
	Staging   StagingConfig
	Cache     CacheConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds defaults for catalog connections. Credentials are
// supplied per session.
type DatabaseConfig struct {
	Host           string
	Port           int
	SSLMode        string
	MaxConns       int
	ConnectTimeout time.Duration
}

// ToolsConfig locates the external builder and installer
type ToolsConfig struct {
	BuilderPath   string
	InstallerPath string
	TemplatesPath string
	Timeout       time.Duration
	WaitDelay     time.Duration
}

// StagingConfig holds patch directory settings
type StagingConfig struct {
	// Root is the default directory new patches are built under
	Root string
}

// CacheConfig holds cache settings
type CacheConfig struct {
	Enabled    bool
	Backend    string // "memory" or "redis"
	DefaultTTL time.Duration
}

// RedisConfig holds Redis connection settings, used by the redis cache backend
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RateLimitConfig bounds how often one client may start the external tools.
// ToolRuns of 0 disables the limit.
type RateLimitConfig struct {
	ToolRuns int
	Window   time.Duration
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// ErrTemplatesPath is returned when a templates file fails validation
var ErrTemplatesPath = errors.New("invalid templates file")

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("POSTGRES_HOST", "localhost"),
			Port:           getEnvInt("POSTGRES_PORT", 5432),
			SSLMode:        getEnv("POSTGRES_SSLMODE", "disable"),
			MaxConns:       getEnvInt("POSTGRES_MAX_CONNS", 4),
			ConnectTimeout: getEnvDuration("POSTGRES_CONNECT_TIMEOUT", 5*time.Second),
		},
		Tools: ToolsConfig{
			BuilderPath:   getEnv("BUILDER_PATH", "PatchBuilder_exe"),
			InstallerPath: getEnv("INSTALLER_PATH", "PatchInstaller_exe"),
			TemplatesPath: getEnv("TEMPLATES_PATH", "Templates.ini"),
			Timeout:       getEnvDuration("TOOL_TIMEOUT", 30*time.Second),
			WaitDelay:     getEnvDuration("TOOL_WAIT_DELAY", 5*time.Second),
		},
		Staging: StagingConfig{
			Root: getEnv("PATCH_ROOT", "."),
		},
		Cache: CacheConfig{
			Enabled:    getEnvBool("CACHE_ENABLED", true),
			Backend:    getEnv("CACHE_BACKEND", "memory"),
			DefaultTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			ToolRuns: getEnvInt("RATE_LIMIT_TOOL_RUNS", 20),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.MaxConns < 1 {
		return fmt.Errorf("max_conns must be >= 1")
	}

	if c.Tools.BuilderPath == "" || c.Tools.InstallerPath == "" {
		return fmt.Errorf("builder and installer paths are required")
	}

	if c.Tools.Timeout <= 0 {
		return fmt.Errorf("tool timeout must be positive")
	}

	if c.RateLimit.ToolRuns < 0 {
		return fmt.Errorf("rate limit must be >= 0")
	}
	if c.RateLimit.ToolRuns > 0 && c.RateLimit.Window < time.Second {
		return fmt.Errorf("rate limit window must be at least 1s")
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	return nil
}

// RedisAddr returns the host:port of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// ValidateTemplatesPath checks that path names an existing .ini file
func ValidateTemplatesPath(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".ini") {
		return fmt.Errorf("%w: %s is not an .ini file", ErrTemplatesPath, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTemplatesPath, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrTemplatesPath, path)
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
