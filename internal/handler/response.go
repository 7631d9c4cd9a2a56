package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/zaposlitev-backend/internal/reqctx"
	"github.com/shinyyama/zaposlitev-backend/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// writeError maps the service taxonomy onto HTTP. what names the resource in
// not-found messages.
func writeError(c echo.Context, err error, what string) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", what+" not found"))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not allowed"))
	case errors.Is(err, service.ErrBackendUnavailable):
		log.Printf("[http] rid=%s path=%s err=%v", reqctx.RID(c.Request().Context()), c.Path(), err)
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("backend_unavailable", "storage backend unavailable, please retry"))
	}
	log.Printf("[http] rid=%s path=%s err=%v", reqctx.RID(c.Request().Context()), c.Path(), err)
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "unexpected error"))
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
}
