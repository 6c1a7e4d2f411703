package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lyzr/dbpatcher/common/config"
	"github.com/lyzr/dbpatcher/common/logger"
	"github.com/lyzr/dbpatcher/common/tools"
)

// ErrInvalidParams is returned when connection parameters are incomplete
var ErrInvalidParams = errors.New("invalid connection parameters")

// ConnParams identifies the database a session connects to
type ConnParams struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// Validate checks that the parameters name a database
func (p ConnParams) Validate() error {
	if p.Host == "" || p.Database == "" || p.User == "" {
		return fmt.Errorf("%w: host, database and user are required", ErrInvalidParams)
	}
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidParams, p.Port)
	}
	return nil
}

// WithDefaults fills host and port from cfg when they are unset
func (p ConnParams) WithDefaults(cfg config.DatabaseConfig) ConnParams {
	if p.Host == "" {
		p.Host = cfg.Host
	}
	if p.Port == 0 {
		p.Port = cfg.Port
	}
	return p
}

// URL builds the postgres connection string
func (p ConnParams) URL(sslMode string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(p.User, p.Password),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:   "/" + p.Database,
	}
	if sslMode != "" {
		u.RawQuery = url.Values{"sslmode": {sslMode}}.Encode()
	}
	return u.String()
}

// ToolConnection returns the address handed to the external tools
func (p ConnParams) ToolConnection() tools.ConnectionInfo {
	return tools.ConnectionInfo{
		Host:     p.Host,
		Port:     p.Port,
		Database: p.Database,
		User:     p.User,
		Password: p.Password,
	}
}

// DB wraps pgxpool with the parameters it was opened with
type DB struct {
	*pgxpool.Pool
	params ConnParams
	log    *logger.Logger
}

// Connect opens a connection pool to the database in params and pings it
func Connect(ctx context.Context, params ConnParams, cfg config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	params = params.WithDefaults(cfg)
	if err := params.Validate(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(params.URL(cfg.SSLMode))
	if err != nil {
		return nil, fmt.Errorf("parse connection parameters: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = 0
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database connected", "host", params.Host, "port", params.Port, "db", params.Database, "user", params.User)

	return &DB{
		Pool:   pool,
		params: params,
		log:    log,
	}, nil
}

// Params returns the parameters the pool was opened with
func (db *DB) Params() ConnParams {
	return db.params
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.log.Info("closing database connection pool", "db", db.params.Database)
	db.Pool.Close()
}

// Health checks database health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return db.Pool.Ping(ctx)
}
