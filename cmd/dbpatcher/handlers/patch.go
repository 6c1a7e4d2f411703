package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/container"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/models"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/service"
	"github.com/lyzr/dbpatcher/common/logger"
)

// PatchHandler handles patch assembly, build, check and install
type PatchHandler struct {
	patches *service.PatchService
	log     *logger.Logger
}

// NewPatchHandler creates a new patch handler
func NewPatchHandler(c *container.Container) *PatchHandler {
	return &PatchHandler{
		patches: c.PatchService,
		log:     c.Components.Logger,
	}
}

// AddItems validates items and appends them to a draft
// POST /api/v1/patches/items
func (h *PatchHandler) AddItems(c echo.Context) error {
	var req models.AddItemsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.patches.AddItems(c.Request().Context(), &req)
	if err != nil {
		return respondError(c, "add items", err)
	}

	return c.JSON(http.StatusOK, res)
}

// Build builds a patch from a draft
// POST /api/v1/patches/build
func (h *PatchHandler) Build(c echo.Context) error {
	var req models.BuildRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.patches.Build(c.Request().Context(), &req)
	if err != nil {
		body := errorBody("build", err)
		if res != nil {
			body["operation_id"] = res.OperationID
			body["patch_dir"] = res.PatchDir
		}
		return c.JSON(errorStatus(err), body)
	}

	return c.JSON(http.StatusCreated, res)
}

// Open reads the lists of an existing patch
// GET /api/v1/patches/open?dir=/patches/shop_build_2024-03-09_14-05-07
func (h *PatchHandler) Open(c echo.Context) error {
	res, err := h.patches.Open(c.Request().Context(), c.QueryParam("dir"))
	if err != nil {
		return respondError(c, "open", err)
	}

	return c.JSON(http.StatusOK, res)
}

// Check verifies the dependencies of a patch
// POST /api/v1/patches/check
func (h *PatchHandler) Check(c echo.Context) error {
	var req models.CheckRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.patches.Check(c.Request().Context(), &req)
	if err != nil {
		body := errorBody("dependency check", err)
		if res != nil {
			body["operation_id"] = res.OperationID
		}
		return c.JSON(errorStatus(err), body)
	}

	return c.JSON(http.StatusOK, res)
}

// Install applies a patch
// POST /api/v1/patches/install
func (h *PatchHandler) Install(c echo.Context) error {
	var req models.InstallRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.patches.Install(c.Request().Context(), &req)
	if err != nil {
		body := errorBody("install", err)
		if res != nil {
			body["operation_id"] = res.OperationID
		}
		if errorStatus(err) == http.StatusConflict {
			body["hint"] = "check dependencies first or repeat with force"
		}
		return c.JSON(errorStatus(err), body)
	}

	h.log.Info("install request completed", "dir", res.PatchDir, "forced", res.Forced)
	return c.JSON(http.StatusOK, res)
}
