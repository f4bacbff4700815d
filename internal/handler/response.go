package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/anycrm/internal/service"
)

// APIResponse describes the standard envelope returned by the API.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success sends a successful response using the shared envelope format.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	payload := APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
	return c.JSON(status, payload)
}

// Error sends an error response using the shared envelope format.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	payload := APIResponse{
		Status:  "error",
		Message: message,
	}
	return c.JSON(status, payload)
}

// serviceError maps the service error kinds shared by every resource to a
// response. fallback is sent with a 500 for anything unrecognised.
func serviceError(c echo.Context, err error, fallback string) error {
	var validationErr *service.ValidationError
	var csvErr service.CSVValidationError
	switch {
	case errors.As(err, &validationErr):
		return Error(c, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &csvErr):
		return Error(c, http.StatusBadRequest, csvErr.Error())
	case errors.Is(err, service.ErrAccountNotFound):
		return Error(c, http.StatusNotFound, "account not found")
	case errors.Is(err, service.ErrContactNotFound):
		return Error(c, http.StatusNotFound, "contact not found")
	default:
		c.Logger().Errorf("%s: %v", fallback, err)
		return Error(c, http.StatusInternalServerError, fallback)
	}
}
