package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/listview"
	"github.com/DukeRupert/catalog-admin/internal/service"
)

// listing is one rendered page of a list view.
type listing struct {
	Items      any      `json:"items"`
	Filtered   int      `json:"filtered"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	TotalPages int      `json:"totalPages"`
	Warnings   []string `json:"warnings,omitempty"`

	first, last int
	rows        [][]string
}

// entity is the type-erased CLI view of one catalog controller.
type entity struct {
	headers []string
	list    func(ctx context.Context, cat *service.Catalog, view listview.ViewState) (listing, error)
	get     func(ctx context.Context, cat *service.Catalog, id string) (any, [][]string, error)
	delete  func(ctx context.Context, cat *service.Catalog, id string) error
}

// newEntity builds an entity from a controller accessor and a row
// projection. Detail views pair each header with the row's value.
func newEntity[T domain.Item](ctrl func(*service.Catalog) *listview.Controller[T], headers []string, row func(T, listview.Lookups) []string) entity {
	return entity{
		headers: headers,
		list: func(ctx context.Context, cat *service.Catalog, view listview.ViewState) (listing, error) {
			c := ctrl(cat)
			if err := c.EnsureLoaded(ctx); err != nil {
				return listing{}, err
			}
			page, snap := c.Present(view)
			out := listing{
				Items:      page.Items,
				Filtered:   page.Filtered,
				Total:      snap.Total,
				Page:       page.View.Page,
				TotalPages: page.TotalPages,
				first:      page.FirstIndex(),
				last:       page.LastIndex(),
				rows:       make([][]string, len(page.Items)),
			}
			for i, item := range page.Items {
				out.rows[i] = row(item, snap.Lookups)
			}
			for _, w := range snap.Warnings {
				out.Warnings = append(out.Warnings, w.Message())
			}
			return out, nil
		},
		get: func(ctx context.Context, cat *service.Catalog, id string) (any, [][]string, error) {
			c := ctrl(cat)
			if err := c.EnsureLoaded(ctx); err != nil {
				return nil, nil, err
			}
			item, ok := c.Find(id)
			if !ok {
				return nil, nil, domain.NotFound("show", c.Entity(), id)
			}
			values := row(item, c.Snapshot().Lookups)
			pairs := make([][]string, len(headers))
			for i, h := range headers {
				pairs[i] = []string{h, values[i]}
			}
			return item, pairs, nil
		},
		delete: func(ctx context.Context, cat *service.Catalog, id string) error {
			return ctrl(cat).Delete(ctx, id)
		},
	}
}

var entities = map[string]entity{
	"categories": newEntity(func(c *service.Catalog) *listview.Controller[domain.Category] { return c.Categories },
		[]string{"ID", "Name", "Slug", "Active", "Created"},
		func(c domain.Category, _ listview.Lookups) []string {
			return []string{c.ID, c.Name, c.Slug, yesNo(c.IsActive), c.CreatedAt}
		}),
	"subcategories": newEntity(func(c *service.Catalog) *listview.Controller[domain.Subcategory] { return c.Subcategories },
		[]string{"ID", "Name", "Slug", "Category", "Active"},
		func(s domain.Subcategory, l listview.Lookups) []string {
			return []string{s.ID, s.Name, s.Slug, ref(l, service.LookupCategory, s.CategoryID), yesNo(s.IsActive)}
		}),
	"products": newEntity(func(c *service.Catalog) *listview.Controller[domain.Product] { return c.Products },
		[]string{"ID", "Name", "Subcategory", "Price", "In Stock"},
		func(p domain.Product, l listview.Lookups) []string {
			stock := "unknown"
			if p.InStock != nil {
				stock = yesNo(*p.InStock)
			}
			return []string{p.ID, p.Name, ref(l, service.LookupSubcategory, p.SubcategoryID), service.FormatPrice(p.Price), stock}
		}),
	"variants": newEntity(func(c *service.Catalog) *listview.Controller[domain.Variant] { return c.Variants },
		[]string{"ID", "SKU", "Name", "Product", "Price", "Stock"},
		func(v domain.Variant, l listview.Lookups) []string {
			return []string{v.ID, v.SKU, v.Name, ref(l, service.LookupProduct, v.ProductID), service.FormatPrice(v.Price), strconv.Itoa(v.Stock)}
		}),
	"blogs": newEntity(func(c *service.Catalog) *listview.Controller[domain.Blog] { return c.Blogs },
		[]string{"ID", "Title", "Author", "Published", "Excerpt"},
		func(b domain.Blog, _ listview.Lookups) []string {
			return []string{b.ID, b.Title, b.Author, yesNo(b.Published), truncate(b.Excerpt, 60)}
		}),
	"images": newEntity(func(c *service.Catalog) *listview.Controller[domain.Image] { return c.Images },
		[]string{"ID", "Filename", "Alt Text", "Size", "URL"},
		func(i domain.Image, _ listview.Lookups) []string {
			return []string{i.ID, i.Filename, i.AltText, strconv.FormatInt(i.Size, 10), i.URL}
		}),
}

// ref displays a foreign key through its lookup table; unset keys show "-".
func ref(l listview.Lookups, table string, id *string) string {
	if id == nil || *id == "" {
		return "-"
	}
	return l.Table(table).Display(*id)
}

// lookupEntity accepts the plural name or its singular form.
func lookupEntity(name string) (entity, error) {
	name = strings.ToLower(name)
	if e, ok := entities[name]; ok {
		return e, nil
	}
	if e, ok := entities[pluralize(name)]; ok {
		return e, nil
	}
	return entity{}, fmt.Errorf("unknown entity %q (want one of %s)", name, strings.Join(entityNames(), ", "))
}

func pluralize(name string) string {
	if strings.HasSuffix(name, "y") {
		return strings.TrimSuffix(name, "y") + "ies"
	}
	return name + "s"
}

func entityNames() []string {
	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
