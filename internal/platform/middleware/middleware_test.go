package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(httptest.NewRequest(method, target, nil), rec), rec
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"kept when present", "appt-trace-7", true},
		{"replaced when oversized", strings.Repeat("z", 200), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newCtx(http.MethodGet, "/api/appointments")
			if tt.incoming != "" {
				c.Request().Header.Set(RequestIDHeader, tt.incoming)
			}

			var seen string
			err := RequestID()(func(c echo.Context) error {
				seen, _ = c.Get("request_id").(string)
				return c.NoContent(http.StatusNoContent)
			})(c)
			require.NoError(t, err)

			got := rec.Header().Get(RequestIDHeader)
			assert.Equal(t, seen, got)
			assert.NotEmpty(t, got)
			assert.LessOrEqual(t, len(got), 128)
			if tt.keep {
				assert.Equal(t, tt.incoming, got)
			}
		})
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status float64
		level  string
	}{
		{"ok", nil, 200, "info"},
		{"client error", echo.NewHTTPError(http.StatusNotFound, "patient 9 not found"), 404, "warn"},
		{"server error", io.ErrUnexpectedEOF, 500, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c, _ := newCtx(http.MethodGet, "/api/patients/9")
			c.Set("request_id", "rid-42")

			err := Logger(zerolog.New(&buf))(func(c echo.Context) error {
				if tt.err != nil {
					return tt.err
				}
				return c.String(http.StatusOK, "ok")
			})(c)
			assert.Equal(t, tt.err, err)

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.status, entry["status"])
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "rid-42", entry["request_id"])
			assert.Equal(t, "/api/patients/9", entry["path"])
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newCtx(http.MethodPost, "/api/invoices")

	err := Recovery(zerolog.New(&buf))(func(c echo.Context) error { panic("ledger exploded") })(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
	assert.Equal(t, "ledger exploded", decodeLine(t, &buf)["panic"])

	c, _ = newCtx(http.MethodGet, "/api/invoices")
	assert.NoError(t, Recovery(zerolog.Nop())(func(c echo.Context) error { return nil })(c))
}
