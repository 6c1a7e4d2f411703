package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/container"
	"github.com/lyzr/dbpatcher/common/logger"
	"github.com/lyzr/dbpatcher/common/logstream"
)

// LogHandler streams tool output over WebSocket
type LogHandler struct {
	hub *logstream.Hub
	log *logger.Logger
}

// NewLogHandler creates a new log handler
func NewLogHandler(c *container.Container) *LogHandler {
	return &LogHandler{
		hub: c.Hub,
		log: c.Components.Logger,
	}
}

// Stream upgrades to a WebSocket carrying tool output
// GET /ws/log?operation_id=<id>
func (h *LogHandler) Stream(c echo.Context) error {
	// The upgrader has already answered a failed handshake
	if err := h.hub.ServeWS(c.Response(), c.Request()); err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
	}
	return nil
}
