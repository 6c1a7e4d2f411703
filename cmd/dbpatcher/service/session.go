package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lyzr/dbpatcher/cmd/dbpatcher/models"
	"github.com/lyzr/dbpatcher/common/cache"
	"github.com/lyzr/dbpatcher/common/catalog"
	"github.com/lyzr/dbpatcher/common/config"
	"github.com/lyzr/dbpatcher/common/db"
	"github.com/lyzr/dbpatcher/common/logger"
	common "github.com/lyzr/dbpatcher/common/models"
	"github.com/lyzr/dbpatcher/common/tools"
)

// ObjectCatalog answers object lookups for the connected database
type ObjectCatalog interface {
	Exists(ctx context.Context, typ common.ObjectType, schema, name string) bool
	ListSchemas(ctx context.Context) []string
	Names(ctx context.Context, typ common.ObjectType, schema string) []string
}

// Session is an open database connection
type Session struct {
	Params  db.ConnParams
	Catalog ObjectCatalog
	Close   func()
}

// Connector opens a session for params
type Connector func(ctx context.Context, params db.ConnParams) (*Session, error)

// PostgresConnector opens sessions through a pgx pool. Catalog listings are
// cached in c under a per-database prefix; c may be nil.
func PostgresConnector(cfg config.DatabaseConfig, c cache.Cache, ttl time.Duration, log *logger.Logger) Connector {
	return func(ctx context.Context, params db.ConnParams) (*Session, error) {
		conn, err := db.Connect(ctx, params, cfg, log)
		if err != nil {
			return nil, err
		}

		p := conn.Params()
		cat := catalog.New(conn, catalog.Options{
			Cache:     c,
			TTL:       ttl,
			KeyPrefix: fmt.Sprintf("catalog:%s:%d/%s:", p.Host, p.Port, p.Database),
			Logger: log.WithFields(map[string]any{
				"host": p.Host,
				"db":   p.Database,
			}),
		})

		return &Session{Params: p, Catalog: cat, Close: conn.Close}, nil
	}
}

// SessionService holds the single database session
type SessionService struct {
	connect Connector
	log     *logger.Logger

	mu      sync.RWMutex
	current *Session
}

// NewSessionService creates a new session service
func NewSessionService(connect Connector, log *logger.Logger) *SessionService {
	return &SessionService{
		connect: connect,
		log:     log,
	}
}

// Connect opens the session. Only one session may be open at a time.
func (s *SessionService) Connect(ctx context.Context, params db.ConnParams) (*models.SessionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return nil, ErrAlreadyConnected
	}

	session, err := s.connect(ctx, params)
	if err != nil {
		s.log.Warn("connection failed", "host", params.Host, "db", params.Database, "error", err)
		return nil, err
	}

	s.current = session
	s.log.Info("session opened", "host", session.Params.Host, "db", session.Params.Database)

	return statusOf(session), nil
}

// Disconnect closes the session
func (s *SessionService) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return ErrNotConnected
	}

	if s.current.Close != nil {
		s.current.Close()
	}
	s.log.Info("session closed", "db", s.current.Params.Database)
	s.current = nil
	return nil
}

// Status describes the session
func (s *SessionService) Status() *models.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return &models.SessionStatus{}
	}
	return statusOf(s.current)
}

// Catalog returns the catalog of the connected database
func (s *SessionService) Catalog() (ObjectCatalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNotConnected
	}
	return s.current.Catalog, nil
}

// Params returns the parameters of the connected database
func (s *SessionService) Params() (db.ConnParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return db.ConnParams{}, ErrNotConnected
	}
	return s.current.Params, nil
}

// ToolConnection returns the connection info handed to the external tools
func (s *SessionService) ToolConnection() (tools.ConnectionInfo, error) {
	params, err := s.Params()
	if err != nil {
		return tools.ConnectionInfo{}, err
	}
	return params.ToolConnection(), nil
}

// Close disconnects if a session is open
func (s *SessionService) Close() {
	if err := s.Disconnect(); err != nil && !errors.Is(err, ErrNotConnected) {
		s.log.Warn("closing session failed", "error", err)
	}
}

func statusOf(session *Session) *models.SessionStatus {
	return &models.SessionStatus{
		Connected: true,
		Host:      session.Params.Host,
		Port:      session.Params.Port,
		Database:  session.Params.Database,
		User:      session.Params.User,
	}
}
