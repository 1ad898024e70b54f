// Package httpx holds echo helpers shared by the domain handlers.
package httpx

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinica/clinica/pkg/envelope"
	"github.com/clinica/clinica/pkg/pagination"
)

// ParamID parses a positive int64 path parameter.
func ParamID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// List answers 204 for an empty slice and 200 with an envelope otherwise.
func List(c echo.Context, message string, items interface{}, total int) error {
	pagination.SetTotal(c, total)
	v := reflect.ValueOf(items)
	if !v.IsValid() || (v.Kind() == reflect.Slice && v.Len() == 0) {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, envelope.OK(message, items))
}

func OK(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, envelope.OK(message, data))
}

func Created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, envelope.OK(message, data))
}

// Bind decodes the request body, answering 400 on malformed input.
func Bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}
