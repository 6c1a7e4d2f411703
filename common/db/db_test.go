package db

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lyzr/dbpatcher/common/config"
	"github.com/lyzr/dbpatcher/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDBConfig = config.DatabaseConfig{
	Host:           "localhost",
	Port:           5432,
	SSLMode:        "disable",
	MaxConns:       2,
	ConnectTimeout: 200 * time.Millisecond,
}

func TestConnParams_WithDefaults(t *testing.T) {
	p := ConnParams{Database: "shop", User: "admin"}.WithDefaults(testDBConfig)
	assert.Equal(t, "localhost", p.Host)
	assert.Equal(t, 5432, p.Port)

	p = ConnParams{Host: "db.local", Port: 6543}.WithDefaults(testDBConfig)
	assert.Equal(t, "db.local", p.Host)
	assert.Equal(t, 6543, p.Port)
}

func TestConnParams_Validate(t *testing.T) {
	valid := ConnParams{Host: "h", Port: 5432, Database: "d", User: "u"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		params ConnParams
	}{
		{"no host", ConnParams{Port: 5432, Database: "d", User: "u"}},
		{"no database", ConnParams{Host: "h", Port: 5432, User: "u"}},
		{"no user", ConnParams{Host: "h", Port: 5432, Database: "d"}},
		{"bad port", ConnParams{Host: "h", Port: 0, Database: "d", User: "u"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.params.Validate(), ErrInvalidParams)
		})
	}
}

func TestConnParams_URL(t *testing.T) {
	p := ConnParams{Host: "db.local", Port: 5433, Database: "shop", User: "admin", Password: "p@ss:w/rd"}

	cfg, err := pgxpool.ParseConfig(p.URL("disable"))
	require.NoError(t, err)

	assert.Equal(t, "db.local", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5433), cfg.ConnConfig.Port)
	assert.Equal(t, "shop", cfg.ConnConfig.Database)
	assert.Equal(t, "admin", cfg.ConnConfig.User)
	assert.Equal(t, "p@ss:w/rd", cfg.ConnConfig.Password)
}

func TestConnParams_ToolConnection(t *testing.T) {
	p := ConnParams{Host: "db.local", Port: 5432, Database: "shop", User: "admin", Password: "secret"}
	assert.Equal(t, "db.local:5432:shop:admin:secret", p.ToolConnection().String())
}

func TestConnect_InvalidParams(t *testing.T) {
	log := logger.NewWithWriter(io.Discard, "error", "text")

	_, err := Connect(context.Background(), ConnParams{User: "u"}, testDBConfig, log)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestConnect_Unreachable(t *testing.T) {
	log := logger.NewWithWriter(io.Discard, "error", "text")
	params := ConnParams{Host: "127.0.0.1", Port: 1, Database: "shop", User: "admin"}

	_, err := Connect(context.Background(), params, testDBConfig, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping database")
}
