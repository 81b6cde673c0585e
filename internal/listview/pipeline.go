package listview

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Config describes how a list view searches, filters and sorts items of T.
// Accessors receive the resolved lookup tables so lookup-derived columns
// (a subcategory's category name) can be searched and sorted.
type Config[T any] struct {
	// Search holds the text fields matched by the search query.
	Search []func(T, Lookups) string

	// Filter returns the value compared against ViewState.Filter. Nil
	// disables filtering.
	Filter func(T) string

	// Sort maps sort keys to value extractors. Unknown keys leave the order
	// untouched.
	Sort map[string]func(T, Lookups) Value

	// PageSize defaults to DefaultPageSize.
	PageSize int

	// Language selects collation rules. Defaults to English.
	Language language.Tag
}

func (c Config[T]) pageSize() int {
	if c.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.PageSize
}

func (c Config[T]) language() language.Tag {
	if c.Language == language.Und {
		return language.English
	}
	return c.Language
}

// Page is one page of a derived list.
type Page[T any] struct {
	Items      []T
	View       ViewState // the requested view with the page clamped
	Filtered   int       // items matching search and filter
	PageSize   int
	TotalPages int
}

// Apply derives the displayed page from the raw collection, the lookup tables
// and the view state: search, then filter, then sort, then paginate. It does
// not modify items and keeps no state between calls.
func Apply[T any](items []T, lookups Lookups, view ViewState, cfg Config[T]) Page[T] {
	arranged, view := arrange(items, lookups, view, cfg)
	return paginate(arranged, view, cfg.pageSize())
}

// Arrange returns the searched, filtered and sorted items before pagination.
func Arrange[T any](items []T, lookups Lookups, view ViewState, cfg Config[T]) []T {
	arranged, _ := arrange(items, lookups, view, cfg)
	return arranged
}

func arrange[T any](items []T, lookups Lookups, view ViewState, cfg Config[T]) ([]T, ViewState) {
	out := search(items, lookups, view.Search, cfg.Search)
	out = filter(out, view.Filter, cfg.Filter)

	extract, ok := cfg.Sort[view.SortKey]
	if view.SortKey == "" || !ok {
		view.SortKey = ""
		view.SortDir = Asc
		return out, view
	}
	if view.SortDir != Desc {
		view.SortDir = Asc
	}
	return sortStable(out, lookups, extract, view.SortDir, cfg.language()), view
}

// search keeps the items where any field contains the query, ignoring case.
// Whitespace in the query is matched literally. The result is always a
// fresh slice.
func search[T any](items []T, lookups Lookups, query string, fields []func(T, Lookups) string) []T {
	if query == "" || len(fields) == 0 {
		return slices.Clone(items)
	}

	fold := cases.Fold()
	needle := fold.String(query)

	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range fields {
			if strings.Contains(fold.String(field(item, lookups)), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// filter keeps the items whose filter field equals value. It filters in place.
func filter[T any](items []T, value string, field func(T) string) []T {
	if field == nil || value == "" || value == FilterAll {
		return items
	}
	return slices.DeleteFunc(items, func(item T) bool {
		return field(item) != value
	})
}

// sortStable sorts items in place by the extracted values.
func sortStable[T any](items []T, lookups Lookups, extract func(T, Lookups) Value, dir SortDir, tag language.Tag) []T {
	type keyed struct {
		item T
		key  Value
	}

	decorated := make([]keyed, len(items))
	for i, item := range items {
		decorated[i] = keyed{item: item, key: extract(item, lookups)}
	}

	coll := collate.New(tag)
	slices.SortStableFunc(decorated, func(a, b keyed) int {
		return compareValues(a.key, b.key, dir, coll)
	})

	for i := range decorated {
		items[i] = decorated[i].item
	}
	return items
}

func paginate[T any](items []T, view ViewState, size int) Page[T] {
	totalPages := (len(items) + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	page := min(max(view.Page, 1), totalPages)
	view.Page = page

	lo := min((page-1)*size, len(items))
	hi := min(page*size, len(items))

	return Page[T]{
		Items:      items[lo:hi:hi],
		View:       view,
		Filtered:   len(items),
		PageSize:   size,
		TotalPages: totalPages,
	}
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool { return p.View.Page > 1 }

// HasNext reports whether a next page exists.
func (p Page[T]) HasNext() bool { return p.View.Page < p.TotalPages }

// PrevPage returns the previous page number.
func (p Page[T]) PrevPage() int { return max(p.View.Page-1, 1) }

// NextPage returns the next page number.
func (p Page[T]) NextPage() int { return min(p.View.Page+1, p.TotalPages) }

// FirstIndex is the 1-based position of the first item shown, or 0.
func (p Page[T]) FirstIndex() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.View.Page-1)*p.PageSize + 1
}

// LastIndex is the 1-based position of the last item shown, or 0.
func (p Page[T]) LastIndex() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.FirstIndex() + len(p.Items) - 1
}

// Range returns the page numbers to render, with -1 marking an ellipsis.
func (p Page[T]) Range() []int {
	return PageRange(p.View.Page, p.TotalPages)
}

// PageRange returns page numbers around current, always including the first
// and last page. -1 marks an ellipsis.
func PageRange(current, total int) []int {
	if total <= 7 {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	start := max(current-1, 2)
	end := min(current+1, total-1)

	pages := []int{1}
	if start > 2 {
		pages = append(pages, -1)
	}
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	if end < total-1 {
		pages = append(pages, -1)
	}
	return append(pages, total)
}
