package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// limit/offset taken from the query string
type Params struct {
	Limit  int
	Offset int
}

// returned alongside every paged list
type Meta struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

func NewMeta(params Params, total int) Meta {
	return Meta{
		Total:   total,
		Limit:   params.Limit,
		Offset:  params.Offset,
		HasMore: params.Offset+params.Limit < total,
	}
}

// clamps limit to (0, maxLimit] and offset to >= 0
func DefaultParams(limit, offset, defaultLimit, maxLimit int) Params {
	if limit <= 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	if offset < 0 {
		offset = 0
	}

	return Params{
		Limit:  limit,
		Offset: offset,
	}
}

// reads ?limit=&offset=; malformed numbers fall back to defaults
func FromQuery(c *gin.Context) Params {
	limit, _ := strconv.Atoi(c.Query("limit"))   //nolint:errcheck // zero means default
	offset, _ := strconv.Atoi(c.Query("offset")) //nolint:errcheck // zero means first page

	return DefaultParams(limit, offset, DefaultLimit, MaxLimit)
}
