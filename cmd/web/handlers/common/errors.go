// Package common has helpers shared by the HTTP handler packages.
package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrBadRequest maps a malformed request to HTTP 400.
func ErrBadRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// ErrNotFound maps a missing resource to HTTP 404.
func ErrNotFound(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, msg)
}

// ErrConflict maps a state conflict, such as a busy clip or a finished
// job, to HTTP 409.
func ErrConflict(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusConflict, msg)
}

// ErrInternal maps an unexpected failure to HTTP 500. The message goes
// to the client, so callers keep it generic and log the details.
func ErrInternal(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusInternalServerError, msg)
}
