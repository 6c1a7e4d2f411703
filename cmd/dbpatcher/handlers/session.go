package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/container"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/service"
	"github.com/lyzr/dbpatcher/common/db"
	"github.com/lyzr/dbpatcher/common/logger"
)

// SessionHandler handles the database session
type SessionHandler struct {
	sessions *service.SessionService
	log      *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(c *container.Container) *SessionHandler {
	return &SessionHandler{
		sessions: c.SessionService,
		log:      c.Components.Logger,
	}
}

// Status reports whether a database is connected
// GET /api/v1/session
func (h *SessionHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.Status())
}

// Connect opens the session
// POST /api/v1/session
func (h *SessionHandler) Connect(c echo.Context) error {
	var req db.ConnParams
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	status, err := h.sessions.Connect(c.Request().Context(), req)
	if err != nil {
		code := errorStatus(err)
		if code == http.StatusInternalServerError {
			// The driver's message tells the user what is wrong
			code = http.StatusBadGateway
		}
		return c.JSON(code, map[string]interface{}{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, status)
}

// Disconnect closes the session
// DELETE /api/v1/session
func (h *SessionHandler) Disconnect(c echo.Context) error {
	if err := h.sessions.Disconnect(); err != nil {
		return respondError(c, "disconnect", err)
	}
	return c.NoContent(http.StatusNoContent)
}
