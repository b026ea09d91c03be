package vehicle

import (
	"strings"
	"time"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type SortBy string

const (
	SortByCreated SortBy = "created"
	SortByPrice   SortBy = "price"
	SortByYear    SortBy = "year"
	SortByName    SortBy = "name"
)

// ListQuery is the structured vehicle listing query. Zero values mean "no filter";
// call Normalize before use to apply paging and sort defaults.
type ListQuery struct {
	Kind          *Kind  `form:"kind"`
	IsActive      *bool  `form:"is_active"`
	Search        string `form:"search"`
	StartDate     string `form:"start_date"`
	EndDate       string `form:"end_date"`
	AvailableOnly bool   `form:"available_only"`
	SortBy        SortBy `form:"sort_by"`
	Page          int    `form:"page"`
	PageSize      int    `form:"limit"`
	Unpaged       bool   `form:"-"`

	start, end time.Time
}

// Normalize applies defaults and clamps paging.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	switch q.SortBy {
	case SortByPrice, SortByYear, SortByName:
	default:
		q.SortBy = SortByCreated
	}
	q.Search = strings.TrimSpace(q.Search)
}

// SetRange stores the parsed availability window.
func (q *ListQuery) SetRange(start, end time.Time) {
	q.start, q.end = start, end
}

// Range returns the parsed availability window, if any.
func (q *ListQuery) Range() (time.Time, time.Time, bool) {
	if q.start.IsZero() || q.end.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return q.start, q.end, true
}

// HasDates reports whether the caller asked for an availability window.
func (q *ListQuery) HasDates() bool {
	return q.StartDate != "" && q.EndDate != ""
}

func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}
