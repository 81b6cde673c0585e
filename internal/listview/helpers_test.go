package listview

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/DukeRupert/catalog-admin/internal/domain"
)

// row is a minimal collection item used across the package tests.
type row struct {
	ID         string
	Name       string
	CreatedAt  string
	Stock      *bool
	CategoryID *string
}

func (r row) ItemID() string { return r.ID }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rowConfig() Config[row] {
	return Config[row]{
		Search: []func(row, Lookups) string{
			func(r row, _ Lookups) string { return r.Name },
			func(r row, l Lookups) string { return l.Table("category").DisplayPtr(r.CategoryID) },
		},
		Filter: func(r row) string { return domain.Deref(r.CategoryID) },
		Sort: map[string]func(row, Lookups) Value{
			"name":      func(r row, _ Lookups) Value { return String(r.Name) },
			"createdAt": func(r row, _ Lookups) Value { return Time(r.CreatedAt) },
			"stock":     func(r row, _ Lookups) Value { return NullableBool(r.Stock) },
			"category": func(r row, l Lookups) Value {
				if name, ok := l.Table("category").Get(domain.Deref(r.CategoryID)); ok {
					return String(name)
				}
				return Null()
			},
		},
	}
}

// rows builds n rows with ids r01..rNN.
func rows(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{ID: fmt.Sprintf("r%02d", i+1), Name: fmt.Sprintf("Item %02d", i+1)}
	}
	return out
}

func ids(items []row) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
