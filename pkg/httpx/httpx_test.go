package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestParamID(t *testing.T) {
	tests := []struct {
		value string
		want  int64
		ok    bool
	}{
		{"12", 12, true},
		{"9999", 9999, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		c, _ := newCtx(http.MethodGet, "/")
		c.SetParamNames("id")
		c.SetParamValues(tt.value)

		got, err := ParamID(c, "id")
		if tt.ok {
			require.NoError(t, err, tt.value)
			assert.Equal(t, tt.want, got)
			continue
		}
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he, tt.value)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	}
}

func TestList_EmptyIsNoContent(t *testing.T) {
	c, rec := newCtx(http.MethodGet, "/api/patients")
	require.NoError(t, List(c, "patients", []int{}, 0))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-Total-Count"))

	c, rec = newCtx(http.MethodGet, "/api/patients")
	var nilSlice []string
	require.NoError(t, List(c, "patients", nilSlice, 0))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestList_Envelope(t *testing.T) {
	c, rec := newCtx(http.MethodGet, "/api/patients")
	require.NoError(t, List(c, "patients", []string{"a", "b"}, 5))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-Total-Count"))

	var body struct {
		Success bool     `json:"success"`
		Data    []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, []string{"a", "b"}, body.Data)
}

func TestCreated(t *testing.T) {
	c, rec := newCtx(http.MethodPost, "/api/patients")
	require.NoError(t, Created(c, "patient created", map[string]int{"id": 1}))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
