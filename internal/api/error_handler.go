package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quotebook/estimate-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message         string              `json:"message"`
	Errors          []domain.FieldError `json:"errors,omitempty"`
	RejectionReason string              `json:"rejectionReason,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "...", "errors": [...]}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Message: fmt.Sprintf("%v", he.Message)}
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorResponse{Message: "Validation failed", Errors: verr.Fields}
	}

	var rejected *domain.RejectedError
	if errors.As(err, &rejected) {
		return http.StatusForbidden, errorResponse{Message: rejected.Error(), RejectionReason: rejected.Reason}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrDuplicatePhone),
		errors.Is(err, domain.ErrNotPendingApproval):
		return http.StatusBadRequest, errorResponse{Message: rootMessage(err)}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Message: domain.ErrInvalidCredentials.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Message: domain.ErrForbidden.Error()}
	case errors.Is(err, domain.ErrAccountPending),
		errors.Is(err, domain.ErrAccountInactive),
		errors.Is(err, domain.ErrAccountRejected):
		return http.StatusForbidden, errorResponse{Message: rootMessage(err)}
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrBrandNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrEstimateNotFound):
		return http.StatusNotFound, errorResponse{Message: rootMessage(err)}
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrEstimateLocked),
		errors.Is(err, domain.ErrEstimateConflict):
		return http.StatusConflict, errorResponse{Message: err.Error()}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Message: "Server error"}
}

// rootMessage drops wrapping context so internal ids stay out of responses.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
