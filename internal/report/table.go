// Package report projects segments into searchable, sortable tables and their
// CSV exports.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jengzang/geopulse-go/internal/models"
)

// Kind selects a report table
type Kind string

const (
	KindStays Kind = "stays"
	KindTrips Kind = "trips"
	KindGaps  Kind = "gaps"
)

// ParseKind validates a table name
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindStays, KindTrips, KindGaps:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown report %q", models.ErrValidation, s)
}

const (
	DefaultPageSize = 25
	MaxPageSize     = 1000
)

// Query selects, orders and pages table rows
type Query struct {
	Search   string
	SortBy   string
	Desc     bool
	Page     int
	PageSize int
}

// QueryFromFilter converts request parameters into a Query
func QueryFromFilter(f models.ReportFilter) Query {
	return Query{
		Search:   f.Search,
		SortBy:   f.SortBy,
		Desc:     strings.EqualFold(f.Order, "desc"),
		Page:     f.Page,
		PageSize: f.PageSize,
	}
}

func (q Query) normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
	return q
}

type column[R any] struct {
	name   string
	header string
	less   func(a, b R) bool
	value  func(r R, loc *time.Location) string
}

// table describes one row type: how to search it, sort it and write it as CSV
type table[R any] struct {
	columns     []column[R]
	defaultSort string
	search      func(r R, needle string) bool
}

func (t table[R]) column(name string) (column[R], bool) {
	for _, c := range t.columns {
		if c.name == name {
			return c, true
		}
	}
	return column[R]{}, false
}

// view returns the filtered and sorted rows, before pagination
func (t table[R]) view(rows []R, q Query) ([]R, error) {
	q = q.normalized()

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = t.defaultSort
	}
	col, ok := t.column(sortBy)
	if !ok || col.less == nil {
		return nil, fmt.Errorf("%w: cannot sort by %q", models.ErrValidation, q.SortBy)
	}

	out := make([]R, 0, len(rows))
	for _, r := range rows {
		if q.Search == "" || t.search == nil || t.search(r, q.Search) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return col.less(out[j], out[i])
		}
		return col.less(out[i], out[j])
	})
	return out, nil
}

func (t table[R]) page(rows []R, q Query) (*models.PageResponse[R], error) {
	filtered, err := t.view(rows, q)
	if err != nil {
		return nil, err
	}
	q = q.normalized()

	total := len(filtered)
	start := total
	// compare page counts before multiplying so huge pages cannot overflow
	if q.Page-1 <= total/q.PageSize {
		start = min((q.Page-1)*q.PageSize, total)
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	return &models.PageResponse[R]{
		Data:       filtered[start:end],
		Total:      int64(total),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: (total + q.PageSize - 1) / q.PageSize,
	}, nil
}

func (t table[R]) header() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.header
	}
	return out
}

func (t table[R]) record(r R, loc *time.Location) []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.value(r, loc)
	}
	return out
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
