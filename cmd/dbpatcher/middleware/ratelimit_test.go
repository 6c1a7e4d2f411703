package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/common/logger"
	"github.com/lyzr/dbpatcher/common/ratelimit"
	"github.com/stretchr/testify/assert"
)

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, key string) (*ratelimit.Result, error) {
	return nil, errors.New("redis down")
}

func serveBuild(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/build", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestToolRateLimit(t *testing.T) {
	log := logger.NewWithWriter(io.Discard, "error", "text")

	e := echo.New()
	e.POST("/build", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, ToolRateLimit(ratelimit.NewMemoryLimiter(1, time.Minute), log))

	assert.Equal(t, http.StatusCreated, serveBuild(e, "10.0.0.1").Code)

	rec := serveBuild(e, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "tool_rate_limit_exceeded")

	assert.Equal(t, http.StatusCreated, serveBuild(e, "10.0.0.2").Code)
}

func TestToolRateLimit_FailsOpen(t *testing.T) {
	log := logger.NewWithWriter(io.Discard, "error", "text")

	e := echo.New()
	e.POST("/build", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, ToolRateLimit(failingLimiter{}, log))

	assert.Equal(t, http.StatusCreated, serveBuild(e, "10.0.0.1").Code)
}
