package core

import (
	"context"
	"math"
)

// Transactor runs fn inside a single database transaction carried by the context it passes on.
// Repositories pick the transaction up from that context.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// AllowedOrderings drops every ordering whose field is not in `fields`.
func AllowedOrderings(orderings []DBOrdering, fields ...string) []DBOrdering {
	allowed := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		allowed[f] = struct{}{}
	}
	res := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if _, ok := allowed[ord.Field]; ok {
			res = append(res, ord)
		}
	}
	return res
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Pagination is a 1-based page request.
type Pagination struct {
	Page  int
	Limit int
}

func NewPagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	} else if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	// keep Offset within int range
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

type PageInfo struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func (p Pagination) Info(total int) PageInfo {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return PageInfo{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}

// Paginate returns the window of `items` described by p. Used by in-memory repositories.
func Paginate[T any](items []T, p Pagination) []T {
	if p.Limit <= 0 {
		return items
	}
	start := p.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) || end < start {
		end = len(items)
	}
	return items[start:end]
}
