// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/importer"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/logging"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/session"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/validator"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int                         `json:"-"`
	Code    string                      `json:"code"`
	Message string                      `json:"message"`
	Details string                      `json:"details,omitempty"`
	Errors  []validator.ValidationError `json:"errors,omitempty"`
	Line    int                         `json:"line,omitempty"`
	Column  int                         `json:"column,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewParseError creates a 400 error carrying the position of a malformed document
func NewParseError(pe *importer.ParseError) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "PARSE_ERROR",
		Message: "the document could not be parsed",
		Details: pe.Message,
		Line:    pe.Line,
		Column:  pe.Column,
	}
}

// NewSchemaValidationError creates a 422 error listing every problem found
func NewSchemaValidationError(errs validator.ValidationErrors) *APIError {
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "SCHEMA_VALIDATION_FAILED",
		Message: fmt.Sprintf("the configuration has %d validation error(s)", len(errs)),
		Errors:  errs,
	}
}

// NewPayloadTooLargeError creates a 413 error for an upload over the size limit
func NewPayloadTooLargeError(limit int64) *APIError {
	return &APIError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    "PAYLOAD_TOO_LARGE",
		Message: fmt.Sprintf("document exceeds %d bytes", limit),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// fromDomainError maps errors of the import and session packages to API errors.
// It returns nil for errors it does not know.
func fromDomainError(err error) *APIError {
	var apiErr *APIError
	var parseErr *importer.ParseError
	var verrs validator.ValidationErrors

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, importer.ErrTooLarge):
		return &APIError{Status: http.StatusRequestEntityTooLarge, Code: "PAYLOAD_TOO_LARGE", Message: err.Error()}
	case errors.As(err, &parseErr):
		return NewParseError(parseErr)
	case errors.As(err, &verrs):
		return NewSchemaValidationError(verrs)
	case errors.Is(err, session.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, session.ErrDuplicateService):
		return NewConflictError(err.Error())
	case errors.Is(err, session.ErrIndexOutOfRange), errors.Is(err, session.ErrInvalid):
		return NewBadRequestError(err.Error(), nil)
	}
	return nil
}

// NewErrorHandler returns an echo.HTTPErrorHandler rendering every error as an APIError.
// Usage: e.HTTPErrorHandler = api.NewErrorHandler(logger)
func NewErrorHandler(lg *logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := fromDomainError(err)
		if apiErr == nil {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				apiErr = &APIError{
					Status:  he.Code,
					Code:    "HTTP_ERROR",
					Message: fmt.Sprintf("%v", he.Message),
				}
			} else {
				apiErr = &APIError{
					Status:  http.StatusInternalServerError,
					Code:    "UNKNOWN_ERROR",
					Message: "An unexpected error occurred",
					Details: err.Error(),
				}
			}
		}
		if apiErr.Status >= http.StatusInternalServerError {
			lg.Error("request failed", "path", c.Path(), "error", err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(apiErr.Status)
			return
		}
		_ = c.JSON(apiErr.Status, apiErr)
	}
}
