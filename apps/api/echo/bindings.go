package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/edusphere/edusphere/core"
)

var (
	orderingParam = "ordering"
	pageParam     = "page"
	limitParam    = "limit"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindPagination reads the page & limit query params. Invalid values fall back to the defaults.
func bindPagination(ctx echo.Context) core.Pagination {
	page, _ := strconv.Atoi(ctx.QueryParam(pageParam))
	limit, _ := strconv.Atoi(ctx.QueryParam(limitParam))
	return core.NewPagination(page, limit)
}

type (
	ListResponse struct {
		Results    interface{}   `json:"results"`
		Pagination core.PageInfo `json:"pagination"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)
