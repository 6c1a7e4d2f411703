package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/container"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/service"
	common "github.com/lyzr/dbpatcher/common/models"
)

// CatalogHandler answers object lookups
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(c *container.Container) *CatalogHandler {
	return &CatalogHandler{
		catalog: c.CatalogService,
	}
}

// ListSchemas lists the user schemas
// GET /api/v1/schemas
func (h *CatalogHandler) ListSchemas(c echo.Context) error {
	schemas, err := h.catalog.ListSchemas(c.Request().Context())
	if err != nil {
		return respondError(c, "list schemas", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"schemas": schemas,
	})
}

// Exists checks whether an object is present
// GET /api/v1/objects/exists?type=table&schema=public&name=users
func (h *CatalogHandler) Exists(c echo.Context) error {
	typ := common.ObjectType(c.QueryParam("type"))
	schema := c.QueryParam("schema")
	name := c.QueryParam("name")

	exists, err := h.catalog.Exists(c.Request().Context(), typ, schema, name)
	if err != nil {
		return respondError(c, "lookup", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"type":   typ,
		"schema": schema,
		"name":   name,
		"exists": exists,
	})
}

// Names lists object names for completion
// GET /api/v1/objects/names?type=function&schema=public
func (h *CatalogHandler) Names(c echo.Context) error {
	typ := common.ObjectType(c.QueryParam("type"))
	schema := c.QueryParam("schema")

	names, err := h.catalog.Names(c.Request().Context(), typ, schema)
	if err != nil {
		return respondError(c, "lookup", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"type":   typ,
		"schema": schema,
		"names":  names,
	})
}
