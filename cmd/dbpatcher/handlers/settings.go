package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/container"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/models"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/service"
	"github.com/lyzr/dbpatcher/common/config"
)

// SettingsHandler exposes the builder templates file
type SettingsHandler struct {
	patches *service.PatchService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(c *container.Container) *SettingsHandler {
	return &SettingsHandler{
		patches: c.PatchService,
	}
}

// GetTemplates returns the templates file
// GET /api/v1/settings/templates
func (h *SettingsHandler) GetTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, models.TemplatesRequest{Path: h.patches.TemplatesPath()})
}

// SetTemplates changes the templates file after checking it is an existing .ini file
// PUT /api/v1/settings/templates
func (h *SettingsHandler) SetTemplates(c echo.Context) error {
	var req models.TemplatesRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := config.ValidateTemplatesPath(req.Path); err != nil {
		return respondError(c, "set templates", err)
	}

	h.patches.SetTemplatesPath(req.Path)
	return c.JSON(http.StatusOK, req)
}
