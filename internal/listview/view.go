// Package listview implements the generic filtered list view used by every
// admin screen: a remote collection fetcher, a dependent lookup resolver, a
// pure search/filter/sort/paginate pipeline and a mutation coordinator, tied
// together by a Controller instantiated once per entity.
package listview

import (
	"net/url"
	"strconv"
	"strings"
)

// SortDir is a sort direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// FilterAll disables the equality filter.
const FilterAll = "all"

// DefaultPageSize is used when a Config leaves PageSize at zero.
const DefaultPageSize = 10

// ViewState is the search, filter, sort and page selection of one list view.
// SortDir only matters when SortKey is set. Page is 1-based and clamped by
// Apply.
type ViewState struct {
	Search  string
	Filter  string
	SortKey string
	SortDir SortDir
	Page    int
}

// DefaultView is the view of a freshly opened list.
func DefaultView() ViewState {
	return ViewState{Filter: FilterAll, SortDir: Asc, Page: 1}
}

// ToggleSort selects key as the sort key. Selecting the active key flips the
// direction; a new key starts ascending.
func (v ViewState) ToggleSort(key string) ViewState {
	if key == v.SortKey && key != "" {
		if v.SortDir == Desc {
			v.SortDir = Asc
		} else {
			v.SortDir = Desc
		}
		return v
	}
	v.SortKey = key
	v.SortDir = Asc
	return v
}

// WithPage returns the view moved to page.
func (v ViewState) WithPage(page int) ViewState {
	v.Page = page
	return v
}

// ParseView reads a view from query parameters: q, filter, sort, dir, page.
// Missing or malformed values fall back to DefaultView.
func ParseView(q url.Values) ViewState {
	v := DefaultView()

	v.Search = q.Get("q")
	if f := strings.TrimSpace(q.Get("filter")); f != "" {
		v.Filter = f
	}
	v.SortKey = strings.TrimSpace(q.Get("sort"))
	if SortDir(q.Get("dir")) == Desc {
		v.SortDir = Desc
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		v.Page = page
	}

	return v
}

// Query encodes the view as query parameters, omitting defaults.
func (v ViewState) Query() url.Values {
	q := url.Values{}
	if v.Search != "" {
		q.Set("q", v.Search)
	}
	if v.Filter != "" && v.Filter != FilterAll {
		q.Set("filter", v.Filter)
	}
	if v.SortKey != "" {
		q.Set("sort", v.SortKey)
		if v.SortDir == Desc {
			q.Set("dir", string(Desc))
		}
	}
	if v.Page > 1 {
		q.Set("page", strconv.Itoa(v.Page))
	}
	return q
}

// Encode returns the view as a query string without the leading "?".
func (v ViewState) Encode() string {
	return v.Query().Encode()
}
