package controller

import (
	"math"
	"net/http"
	"slices"
	"strconv"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// SortOrder represents the sort direction for list responses
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// pageSpec is a window over an in-memory list. Cursor is the offset of the first item.
type pageSpec struct {
	Limit  int
	Cursor uint64
	Sort   SortOrder
}

type pagedResponse[T any] struct {
	Data       []T     `json:"data"`
	Limit      int     `json:"limit"`
	Total      int     `json:"total"`
	NextCursor *uint64 `json:"next_cursor,omitempty"`
}

func parsePageSpec(r *http.Request) (pageSpec, error) {
	qs := r.URL.Query()
	limit := defaultLimit
	if v := qs.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err != nil || n <= 0 {
			return pageSpec{}, errInvalidLimit
		} else {
			limit = int(math.Min(float64(n), maxLimit))
		}
	}

	var cursor uint64
	if v := qs.Get("cursor"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return pageSpec{}, errInvalidCursor
		}
		cursor = n
	}

	// Lists are kept newest first, which is the default order
	sort := SortOrderDesc
	if v := qs.Get("sort"); v != "" {
		switch v {
		case "asc":
			sort = SortOrderAsc
		case "desc":
			sort = SortOrderDesc
		default:
			return pageSpec{}, errInvalidSort
		}
	}

	return pageSpec{Limit: limit, Cursor: cursor, Sort: sort}, nil
}

// paginate slices items, stored in descending order, according to page.
func paginate[T any](items []T, page pageSpec) pagedResponse[T] {
	if page.Sort == SortOrderAsc {
		items = slices.Clone(items)
		slices.Reverse(items)
	}

	total := len(items)
	start := total
	if page.Cursor < uint64(total) {
		start = int(page.Cursor)
	}
	end := min(start+page.Limit, total)

	var nextCursor *uint64
	if end < total {
		next := uint64(end)
		nextCursor = &next
	}

	data := items[start:end]
	if data == nil {
		data = []T{}
	}
	return pagedResponse[T]{
		Data:       data,
		Limit:      page.Limit,
		Total:      total,
		NextCursor: nextCursor,
	}
}

var (
	errInvalidLimit  = &parseError{msg: "invalid limit"}
	errInvalidCursor = &parseError{msg: "invalid cursor"}
	errInvalidSort   = &parseError{msg: "invalid sort, must be 'asc' or 'desc'"}
)

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }
