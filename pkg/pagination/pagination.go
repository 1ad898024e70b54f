package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	MaxLimit = 500

	// TotalCountHeader carries the unpaged size of a list response.
	TotalCountHeader = "X-Total-Count"
)

// Params holds optional pagination parameters. A zero Limit means the whole
// collection is requested.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts limit/offset query parameters. Missing or invalid values
// fall back to an unbounded listing from offset 0.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Unbounded reports whether the caller asked for every row.
func (p Params) Unbounded() bool {
	return p.Limit == 0
}

// LimitArg returns the value to bind to a `LIMIT $n` placeholder. PostgreSQL
// treats LIMIT NULL as no limit.
func (p Params) LimitArg() interface{} {
	if p.Unbounded() {
		return nil
	}
	return p.Limit
}

// SetTotal writes the total row count to the response headers.
func SetTotal(c echo.Context, total int) {
	c.Response().Header().Set(TotalCountHeader, strconv.Itoa(total))
}
