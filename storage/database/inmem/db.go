// Package inmemdb keeps every table in process memory. It backs the tests and the
// API when no database is configured.
package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edusphere/edusphere/core"
	"github.com/edusphere/edusphere/core/class"
	"github.com/edusphere/edusphere/core/course"
	"github.com/edusphere/edusphere/core/organization"
	"github.com/edusphere/edusphere/core/user"
)

type DB struct {
	mu      sync.RWMutex
	orgs    map[string]*organization.Organization
	users   map[string]*user.User
	courses map[string]*course.Course
	classes map[string]*class.Class
}

var _ core.Transactor = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{
		orgs:    make(map[string]*organization.Organization),
		users:   make(map[string]*user.User),
		courses: make(map[string]*course.Course),
		classes: make(map[string]*class.Class),
	}
}

// InTx runs fn directly: each repository call is atomic on its own and nothing is rolled back.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func compareStrings(a, b string) int { return strings.Compare(a, b) }

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// sortBy orders items by `ordering`, newest first when empty.
// cmp compares a and b on one field; ties fall back to the next ordering.
func sortBy[T any](items []T, ordering []core.DBOrdering, cmp func(a, b T, field string) int) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range ordering {
			c := cmp(items[i], items[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}
