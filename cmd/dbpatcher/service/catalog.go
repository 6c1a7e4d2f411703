package service

import (
	"context"
	"fmt"

	"github.com/lyzr/dbpatcher/common/logger"
	common "github.com/lyzr/dbpatcher/common/models"
)

// CatalogService looks up objects in the connected database
type CatalogService struct {
	sessions *SessionService
	log      *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(sessions *SessionService, log *logger.Logger) *CatalogService {
	return &CatalogService{
		sessions: sessions,
		log:      log,
	}
}

// ListSchemas returns the user schemas of the connected database
func (s *CatalogService) ListSchemas(ctx context.Context) ([]string, error) {
	cat, err := s.sessions.Catalog()
	if err != nil {
		return nil, err
	}
	return cat.ListSchemas(ctx), nil
}

// Exists reports whether the named object is present
func (s *CatalogService) Exists(ctx context.Context, typ common.ObjectType, schema, name string) (bool, error) {
	if !typ.IsSchemaObject() {
		return false, fmt.Errorf("%w: unknown object type %q", ErrInvalidRequest, typ)
	}

	cat, err := s.sessions.Catalog()
	if err != nil {
		return false, err
	}
	return cat.Exists(ctx, typ, schema, name), nil
}

// Names lists object names of a type in schema, for completion
func (s *CatalogService) Names(ctx context.Context, typ common.ObjectType, schema string) ([]string, error) {
	if !typ.IsSchemaObject() {
		return nil, fmt.Errorf("%w: unknown object type %q", ErrInvalidRequest, typ)
	}

	cat, err := s.sessions.Catalog()
	if err != nil {
		return nil, err
	}
	return cat.Names(ctx, typ, schema), nil
}
