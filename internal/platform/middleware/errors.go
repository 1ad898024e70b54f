package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinica/clinica/pkg/apperror"
	"github.com/clinica/clinica/pkg/envelope"
)

// StatusFor maps an error returned by a handler to its HTTP status.
func StatusFor(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindIllegalOperation:
		return http.StatusBadRequest
	case apperror.KindUnavailable:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders business errors as envelopes and everything else as an
// ErrorMessage with status 500.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := StatusFor(err)
		var body interface{}

		var appErr *apperror.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			body = envelope.Fail(appErr.Message)
		case errors.As(err, &he) && status < http.StatusInternalServerError:
			body = envelope.Fail(fmt.Sprint(he.Message))
		default:
			msg := err.Error()
			if he != nil {
				msg = fmt.Sprint(he.Message)
			}
			body = envelope.NewErrorMessage(status, msg, c.Request().URL.Path)
		}

		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Int("status", status).Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
