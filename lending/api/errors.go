package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

// handleHTTPError renders every error in the failure envelope.
func (s *Server) handleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := s.errorResponse(c, err)

	if status == http.StatusInternalServerError {
		c.Response().Header().Set("Retry-After", "1")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}

	if err != nil {
		s.logger.ErrorContext(c.Request().Context(), logMsgRequestFailed, logAttrError, err.Error())
	}
}

func (s *Server) errorResponse(c echo.Context, err error) (int, envelope) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}

		return httpErr.Code, failure(message, nil)
	}

	switch core.KindOf(err) {
	case core.ErrValidation:
		return http.StatusBadRequest, failure(core.MessageOf(err), toFieldErrors(core.FieldErrorsOf(err)))
	case core.ErrNotFound:
		return http.StatusNotFound, failure(core.MessageOf(err), nil)
	case core.ErrForbidden:
		return http.StatusForbidden, failure(core.MessageOf(err), nil)
	case core.ErrConflict:
		return http.StatusBadRequest, failure(core.MessageOf(err), nil)
	default:
		s.logger.ErrorContext(c.Request().Context(), logMsgRequestFailed,
			logAttrRoute, c.Path(),
			logAttrError, err.Error(),
		)

		return http.StatusInternalServerError, failure("temporary failure, please retry", nil)
	}
}

func toFieldErrors(fields []core.FieldError) []fieldError {
	if len(fields) == 0 {
		return nil
	}

	out := make([]fieldError, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldError{Field: f.Field, Message: f.Message})
	}

	return out
}

func errMalformedBody(err error) error {
	return core.NewValidationError(fmt.Sprintf("malformed request body: %s", bindErrorMessage(err)))
}

func bindErrorMessage(err error) string {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if m, ok := httpErr.Message.(string); ok {
			return m
		}
	}

	return "invalid JSON"
}
