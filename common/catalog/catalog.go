// Package catalog answers questions about the objects present in a connected
// PostgreSQL database.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lyzr/dbpatcher/common/cache"
	"github.com/lyzr/dbpatcher/common/logger"
	"github.com/lyzr/dbpatcher/common/models"
)

// Querier is the subset of pgxpool.Pool the catalog needs
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var existsQueries = map[models.ObjectType]string{
	models.TypeTable:    tableExistsQuery,
	models.TypeSequence: sequenceExistsQuery,
	models.TypeView:     viewExistsQuery,
	models.TypeTrigger:  triggerExistsQuery,
	models.TypeIndex:    indexExistsQuery,
	models.TypeFunction: functionExistsQuery,
}

var namesQueries = map[models.ObjectType]string{
	models.TypeTable:    tableNamesQuery,
	models.TypeSequence: sequenceNamesQuery,
	models.TypeView:     viewNamesQuery,
	models.TypeTrigger:  triggerNamesQuery,
	models.TypeIndex:    indexNamesQuery,
	models.TypeFunction: functionNamesQuery,
}

// Options configures a Catalog
type Options struct {
	// Cache stores name listings; nil disables caching
	Cache cache.Cache
	TTL   time.Duration
	// KeyPrefix scopes cache entries to one database
	KeyPrefix string
	Logger    *logger.Logger
}

// Catalog looks up schema objects through a database connection
type Catalog struct {
	db    Querier
	cache cache.Cache
	ttl   time.Duration
	key   string
	log   *logger.Logger
}

// New creates a catalog over db
func New(db Querier, opts Options) *Catalog {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewWithWriter(io.Discard, "error", "text")
	}
	return &Catalog{
		db:    db,
		cache: opts.Cache,
		ttl:   opts.TTL,
		key:   opts.KeyPrefix,
		log:   opts.Logger,
	}
}

// Exists reports whether an object of type typ named name lives in schema.
// For functions name is the signature name(arg1,arg2). Scripts are files, not
// catalog objects, so they never exist here. Query failures count as absent.
func (c *Catalog) Exists(ctx context.Context, typ models.ObjectType, schema, name string) bool {
	query, ok := existsQueries[typ]
	if !ok {
		return false
	}

	if typ == models.TypeFunction {
		if _, _, ok := ParseSignature(name); !ok {
			return false
		}
	}

	var exists bool
	if err := c.db.QueryRow(ctx, query, schema, name).Scan(&exists); err != nil {
		c.log.Warn("catalog existence check failed",
			"type", typ, "schema", schema, "name", name, "error", err)
		return false
	}

	return exists
}

// ListSchemas returns the user schemas of the database. System schemas are
// left out. A failed query yields an empty list.
func (c *Catalog) ListSchemas(ctx context.Context) []string {
	cacheKey := c.key + "schemas"
	if cached, ok := c.cached(ctx, cacheKey); ok {
		return cached
	}

	all, err := c.queryStrings(ctx, schemasQuery)
	if err != nil {
		c.log.Warn("listing schemas failed", "error", err)
		return []string{}
	}

	schemas := make([]string, 0, len(all))
	for _, s := range all {
		if !isSystemSchema(s) {
			schemas = append(schemas, s)
		}
	}

	c.store(ctx, cacheKey, schemas)
	return schemas
}

// Names returns the distinct names of objects of type typ in schema, function
// signatures for functions. Results are cached.
func (c *Catalog) Names(ctx context.Context, typ models.ObjectType, schema string) []string {
	query, ok := namesQueries[typ]
	if !ok {
		return []string{}
	}

	cacheKey := fmt.Sprintf("%snames:%s:%s", c.key, typ, schema)
	if cached, ok := c.cached(ctx, cacheKey); ok {
		return cached
	}

	names, err := c.queryStrings(ctx, query, schema)
	if err != nil {
		c.log.Warn("listing object names failed", "type", typ, "schema", schema, "error", err)
		return []string{}
	}
	if typ == models.TypeFunction {
		names = c.usableSignatures(names)
	}

	c.store(ctx, cacheKey, names)
	return names
}

// usableSignatures drops signatures Exists would refuse, such as functions
// with unnamed arguments ("f(,b)"), so completion never offers them
func (c *Catalog) usableSignatures(sigs []string) []string {
	out := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		if _, _, ok := ParseSignature(sig); !ok {
			c.log.Debug("skipping function with unnamed arguments", "signature", sig)
			continue
		}
		out = append(out, sig)
	}
	return out
}

func (c *Catalog) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *Catalog) cached(ctx context.Context, key string) ([]string, bool) {
	if c.cache == nil {
		return nil, false
	}

	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Debug("catalog cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *Catalog) store(ctx context.Context, key string, values []string) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(values)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Debug("catalog cache write failed", "key", key, "error", err)
	}
}

func isSystemSchema(name string) bool {
	switch name {
	case "pg_catalog", "information_schema":
		return true
	}
	return strings.HasPrefix(name, "pg_toast") || strings.HasPrefix(name, "pg_temp")
}
