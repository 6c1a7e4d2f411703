package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("dbpatcher")
	require.NoError(t, err)

	assert.Equal(t, "dbpatcher", cfg.Service.Name)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "Templates.ini", cfg.Tools.TemplatesPath)
	assert.Equal(t, 30*time.Second, cfg.Tools.Timeout)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 20, cfg.RateLimit.ToolRuns)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BUILDER_PATH", "/opt/tools/builder")
	t.Setenv("TOOL_TIMEOUT", "2m")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_HOST", "cache.local")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load("dbpatcher")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Service.Port)
	assert.Equal(t, "/opt/tools/builder", cfg.Tools.BuilderPath)
	assert.Equal(t, 2*time.Minute, cfg.Tools.Timeout)
	assert.Equal(t, "cache.local:6380", cfg.RedisAddr())
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("POSTGRES_PORT", "not-a-number")
	t.Setenv("TOOL_TIMEOUT", "soon")

	cfg, err := Load("dbpatcher")
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 30*time.Second, cfg.Tools.Timeout)
}

func TestValidate(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")
	_, err := Load("dbpatcher")
	assert.Error(t, err)

	t.Setenv("CACHE_BACKEND", "memory")
	t.Setenv("PORT", "70000")
	_, err = Load("dbpatcher")
	assert.Error(t, err)

	t.Setenv("PORT", "8080")
	t.Setenv("RATE_LIMIT_WINDOW", "10ms")
	_, err = Load("dbpatcher")
	assert.ErrorContains(t, err, "rate limit window")

	t.Setenv("RATE_LIMIT_TOOL_RUNS", "0")
	_, err = Load("dbpatcher")
	assert.NoError(t, err, "window is ignored when the limit is disabled")
}

func TestValidateTemplatesPath(t *testing.T) {
	dir := t.TempDir()

	ini := filepath.Join(dir, "Templates.ini")
	require.NoError(t, os.WriteFile(ini, []byte("[templates]\n"), 0o644))
	assert.NoError(t, ValidateTemplatesPath(ini))

	upper := filepath.Join(dir, "CUSTOM.INI")
	require.NoError(t, os.WriteFile(upper, []byte(""), 0o644))
	assert.NoError(t, ValidateTemplatesPath(upper))

	txt := filepath.Join(dir, "Templates.txt")
	require.NoError(t, os.WriteFile(txt, []byte(""), 0o644))
	assert.ErrorIs(t, ValidateTemplatesPath(txt), ErrTemplatesPath)

	assert.ErrorIs(t, ValidateTemplatesPath(filepath.Join(dir, "missing.ini")), ErrTemplatesPath)

	dirIni := filepath.Join(dir, "folder.ini")
	require.NoError(t, os.Mkdir(dirIni, 0o755))
	assert.ErrorIs(t, ValidateTemplatesPath(dirIni), ErrTemplatesPath)
}
