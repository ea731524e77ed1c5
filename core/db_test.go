package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Pagination
		wantOffset  int
	}{
		{name: "defaults", page: 0, limit: 0, want: Pagination{Page: 1, Limit: DefaultPageLimit}, wantOffset: 0},
		{name: "limit capped", page: 2, limit: 1000, want: Pagination{Page: 2, Limit: MaxPageLimit}, wantOffset: MaxPageLimit},
		{name: "negative page", page: -3, limit: 5, want: Pagination{Page: 1, Limit: 5}, wantOffset: 0},
		{
			name: "huge page clamped", page: 92233720368547760, limit: 100,
			want: Pagination{Page: math.MaxInt / 100, Limit: 100}, wantOffset: (math.MaxInt/100 - 1) * 100,
		},
		{name: "max int page", page: math.MaxInt, limit: 1, want: Pagination{Page: math.MaxInt, Limit: 1}, wantOffset: math.MaxInt - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.limit)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.wantOffset, p.Offset())
			assert.GreaterOrEqual(t, p.Offset(), 0)
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	tests := []struct {
		name string
		page Pagination
		want []int
	}{
		{name: "first page", page: NewPagination(1, 2), want: []int{1, 2}},
		{name: "last partial page", page: NewPagination(3, 2), want: []int{5}},
		{name: "past the end", page: NewPagination(4, 2), want: []int{}},
		{name: "huge page", page: NewPagination(92233720368547760, 100), want: []int{}},
		{name: "unclamped huge page", page: Pagination{Page: math.MaxInt, Limit: 100}, want: []int{}},
		{name: "no limit", page: Pagination{Page: 1}, want: items},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(items, tt.page))
		})
	}
}
