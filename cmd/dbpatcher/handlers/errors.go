package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/dbpatcher/cmd/dbpatcher/service"
	"github.com/lyzr/dbpatcher/common/config"
	"github.com/lyzr/dbpatcher/common/db"
	"github.com/lyzr/dbpatcher/common/patchfile"
	"github.com/lyzr/dbpatcher/common/tools"
)

// errorStatus maps a service error to an HTTP status
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, db.ErrInvalidParams),
		errors.Is(err, config.ErrTemplatesPath),
		errors.Is(err, patchfile.ErrEncode):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotConnected):
		return http.StatusPreconditionFailed
	case errors.Is(err, service.ErrAlreadyConnected),
		errors.Is(err, service.ErrUnsafeInstall),
		errors.Is(err, patchfile.ErrWriteConflict),
		errors.Is(err, os.ErrExist):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, patchfile.ErrParse):
		return http.StatusUnprocessableEntity
	case isToolError(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func isToolError(err error) bool {
	return errors.Is(err, tools.ErrFailedToStart) ||
		errors.Is(err, tools.ErrNonZeroExit) ||
		errors.Is(err, tools.ErrWaitTimeout) ||
		errors.Is(err, tools.ErrMalformedOutput)
}

// errorBody builds the JSON error payload. Tool failures point at the
// operation log instead of repeating the tool's output.
func errorBody(op string, err error) map[string]interface{} {
	if isToolError(err) {
		return map[string]interface{}{
			"error": op + " failed, see log for details",
			"cause": err.Error(),
		}
	}
	return map[string]interface{}{
		"error": err.Error(),
	}
}

func respondError(c echo.Context, op string, err error) error {
	return c.JSON(errorStatus(err), errorBody(op, err))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error": msg,
	})
}
