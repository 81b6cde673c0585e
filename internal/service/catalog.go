// Package service contains the catalog business logic that sits between the
// handlers and the list view controllers.
//
// This file wires one list view controller per catalog entity.
package service

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/DukeRupert/catalog-admin/internal/api"
	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/listview"
)

// Lookup table names.
const (
	LookupCategory    = "category"
	LookupSubcategory = "subcategory"
	LookupProduct     = "product"
	LookupImage       = "image"
)

// Filter values for boolean filters.
const (
	FilterActive    = "active"
	FilterInactive  = "inactive"
	FilterPublished = "published"
	FilterDraft     = "draft"
)

// Catalog holds the list view controllers of every entity. It is shared by
// all requests.
type Catalog struct {
	Categories    *listview.Controller[domain.Category]
	Subcategories *listview.Controller[domain.Subcategory]
	Products      *listview.Controller[domain.Product]
	Variants      *listview.Controller[domain.Variant]
	Blogs         *listview.Controller[domain.Blog]
	Images        *listview.Controller[domain.Image]
}

// CatalogConfig configures NewCatalog.
type CatalogConfig struct {
	PageSize  int
	Validator listview.Validator
}

// NewCatalog builds the controllers on top of a backend client.
func NewCatalog(client *api.Client, config CatalogConfig, logger *slog.Logger) *Catalog {
	categories := api.NewCollection[domain.Category](client, api.Categories)
	subcategories := api.NewCollection[domain.Subcategory](client, api.Subcategories)
	products := api.NewCollection[domain.Product](client, api.Products)
	variants := api.NewCollection[domain.Variant](client, api.Variants)
	blogs := api.NewCollection[domain.Blog](client, api.Blogs)
	images := api.NewImageCollection(client)

	imageURLs := listview.BatchFunc(func(ctx context.Context, ids []string) (map[string]string, error) {
		refs, err := images.Batch(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(refs))
		for _, ref := range refs {
			out[ref.ID] = ref.URL
		}
		return out, nil
	})
	categoryNames := namesOf(categories, func(c domain.Category) string { return c.Name })
	subcategoryNames := namesOf(subcategories, func(s domain.Subcategory) string { return s.Name })
	productNames := namesOf(products, func(p domain.Product) string { return p.Name })

	return &Catalog{
		Categories: listview.NewController(listview.Options[domain.Category]{
			Entity:    "category",
			Plural:    "categories",
			Source:    categories,
			Backend:   categories,
			Uploader:  images,
			Validator: config.Validator,
			Reconcile: listview.ReconcileRefetch,
			Lookups: []listview.Lookup[domain.Category]{
				imageLookup(func(c domain.Category) *string { return c.ImageID }, imageURLs),
			},
			Config: CategoryConfig(config.PageSize),
		}, logger),

		Subcategories: listview.NewController(listview.Options[domain.Subcategory]{
			Entity:    "subcategory",
			Plural:    "subcategories",
			Source:    subcategories,
			Backend:   subcategories,
			Validator: config.Validator,
			Reconcile: listview.ReconcileRefetch,
			Lookups: []listview.Lookup[domain.Subcategory]{{
				Name:       LookupCategory,
				Label:      "category names",
				Unknown:    "Unknown Category",
				Keys:       listview.Ref(func(s domain.Subcategory) *string { return s.CategoryID }),
				Collection: categoryNames,
			}},
			Config: SubcategoryConfig(config.PageSize),
		}, logger),

		Products: listview.NewController(listview.Options[domain.Product]{
			Entity:    "product",
			Plural:    "products",
			Source:    products,
			Backend:   products,
			Uploader:  images,
			Validator: config.Validator,
			Reconcile: listview.ReconcileRefetch,
			Lookups: []listview.Lookup[domain.Product]{
				{
					Name:       LookupSubcategory,
					Label:      "subcategory names",
					Unknown:    "Unknown Subcategory",
					Keys:       listview.Ref(func(p domain.Product) *string { return p.SubcategoryID }),
					Collection: subcategoryNames,
				},
				imageLookup(func(p domain.Product) *string { return p.ImageID }, imageURLs),
			},
			Config: ProductConfig(config.PageSize),
		}, logger),

		Variants: listview.NewController(listview.Options[domain.Variant]{
			Entity:    "variant",
			Plural:    "variants",
			Source:    variants,
			Backend:   variants,
			Validator: config.Validator,
			Reconcile: listview.ReconcilePatch,
			Lookups: []listview.Lookup[domain.Variant]{{
				Name:       LookupProduct,
				Label:      "product names",
				Unknown:    "Unknown Product",
				Keys:       listview.Ref(func(v domain.Variant) *string { return v.ProductID }),
				Collection: productNames,
			}},
			Config: VariantConfig(config.PageSize),
		}, logger),

		Blogs: listview.NewController(listview.Options[domain.Blog]{
			Entity:    "blog post",
			Plural:    "blogs",
			Source:    blogs,
			Backend:   blogs,
			Uploader:  images,
			Validator: config.Validator,
			Reconcile: listview.ReconcileRefetch,
			Lookups: []listview.Lookup[domain.Blog]{
				imageLookup(func(b domain.Blog) *string { return b.ImageID }, imageURLs),
			},
			Config: BlogConfig(config.PageSize),
		}, logger),

		Images: listview.NewController(listview.Options[domain.Image]{
			Entity:    "image",
			Plural:    "images",
			Source:    images,
			Backend:   images,
			Validator: config.Validator,
			Reconcile: listview.ReconcilePatch,
			Config:    ImageConfig(config.PageSize),
		}, logger),
	}
}

// Close stops every controller from accepting late fetch results.
func (c *Catalog) Close() {
	c.Categories.Close()
	c.Subcategories.Close()
	c.Products.Close()
	c.Variants.Close()
	c.Blogs.Close()
	c.Images.Close()
}

// Total is one dashboard counter.
type Total struct {
	Label  string
	Path   string
	Count  int
	Loaded bool
	Err    string
}

// Totals loads every collection that has not been loaded yet and returns the
// per-entity counts. Collections load concurrently; a failed collection
// reports its error instead of a count.
func (c *Catalog) Totals(ctx context.Context) []Total {
	totals := make([]Total, 6)
	var g errgroup.Group
	g.Go(func() error { totals[0] = total(ctx, "Categories", "/categories", c.Categories); return nil })
	g.Go(func() error { totals[1] = total(ctx, "Subcategories", "/subcategories", c.Subcategories); return nil })
	g.Go(func() error { totals[2] = total(ctx, "Products", "/products", c.Products); return nil })
	g.Go(func() error { totals[3] = total(ctx, "Variants", "/variants", c.Variants); return nil })
	g.Go(func() error { totals[4] = total(ctx, "Blog posts", "/blogs", c.Blogs); return nil })
	g.Go(func() error { totals[5] = total(ctx, "Images", "/images", c.Images); return nil })
	_ = g.Wait()
	return totals
}

func total[T domain.Item](ctx context.Context, label, path string, ctrl *listview.Controller[T]) Total {
	t := Total{Label: label, Path: path}
	if err := ctrl.EnsureLoaded(ctx); err != nil {
		t.Err = domain.ErrorMessage(err)
	}
	snap := ctrl.Snapshot()
	t.Count = snap.Total
	t.Loaded = snap.Loaded
	return t
}

// namesOf builds a collection-mode lookup that lists a parent collection.
func namesOf[T domain.Item](src *api.Collection[T], name func(T) string) listview.CollectionFunc {
	return func(ctx context.Context) (map[string]string, error) {
		result, err := src.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(result.Items))
		for _, item := range result.Items {
			out[item.ItemID()] = name(item)
		}
		return out, nil
	}
}

func imageLookup[T any](field func(T) *string, batch listview.BatchFunc) listview.Lookup[T] {
	return listview.Lookup[T]{
		Name:    LookupImage,
		Label:   "image previews",
		Unknown: "Unknown Image",
		Keys:    listview.Ref(field),
		Batch:   batch,
	}
}

// =============================================================================
// Pipeline Configs
// =============================================================================

func text[T any](f func(T) string) func(T, listview.Lookups) string {
	return func(item T, _ listview.Lookups) string { return f(item) }
}

func lookupText[T any](table string, ref func(T) *string) func(T, listview.Lookups) string {
	return func(item T, l listview.Lookups) string {
		name, _ := l.Table(table).Get(domain.Deref(ref(item)))
		return name
	}
}

func lookupValue[T any](table string, ref func(T) *string) func(T, listview.Lookups) listview.Value {
	return func(item T, l listview.Lookups) listview.Value {
		if name, ok := l.Table(table).Get(domain.Deref(ref(item))); ok {
			return listview.String(name)
		}
		return listview.Null()
	}
}

func activeFilter(active bool) string {
	if active {
		return FilterActive
	}
	return FilterInactive
}

// CategoryConfig is the list pipeline of categories.
func CategoryConfig(pageSize int) listview.Config[domain.Category] {
	return listview.Config[domain.Category]{
		Search: []func(domain.Category, listview.Lookups) string{
			text(func(c domain.Category) string { return c.Name }),
			text(func(c domain.Category) string { return c.Slug }),
			text(func(c domain.Category) string { return c.Description }),
		},
		Filter: func(c domain.Category) string { return activeFilter(c.IsActive) },
		Sort: map[string]func(domain.Category, listview.Lookups) listview.Value{
			"name":      func(c domain.Category, _ listview.Lookups) listview.Value { return listview.String(c.Name) },
			"isActive":  func(c domain.Category, _ listview.Lookups) listview.Value { return listview.Bool(c.IsActive) },
			"createdAt": func(c domain.Category, _ listview.Lookups) listview.Value { return listview.Time(c.CreatedAt) },
			"updatedAt": func(c domain.Category, _ listview.Lookups) listview.Value { return listview.Time(c.UpdatedAt) },
		},
		PageSize: pageSize,
	}
}

// SubcategoryConfig is the list pipeline of subcategories.
func SubcategoryConfig(pageSize int) listview.Config[domain.Subcategory] {
	categoryID := func(s domain.Subcategory) *string { return s.CategoryID }
	return listview.Config[domain.Subcategory]{
		Search: []func(domain.Subcategory, listview.Lookups) string{
			text(func(s domain.Subcategory) string { return s.Name }),
			text(func(s domain.Subcategory) string { return s.Slug }),
			lookupText(LookupCategory, categoryID),
		},
		Filter: func(s domain.Subcategory) string { return domain.Deref(s.CategoryID) },
		Sort: map[string]func(domain.Subcategory, listview.Lookups) listview.Value{
			"name":      func(s domain.Subcategory, _ listview.Lookups) listview.Value { return listview.String(s.Name) },
			"category":  lookupValue(LookupCategory, categoryID),
			"isActive":  func(s domain.Subcategory, _ listview.Lookups) listview.Value { return listview.Bool(s.IsActive) },
			"createdAt": func(s domain.Subcategory, _ listview.Lookups) listview.Value { return listview.Time(s.CreatedAt) },
		},
		PageSize: pageSize,
	}
}

// ProductConfig is the list pipeline of products.
func ProductConfig(pageSize int) listview.Config[domain.Product] {
	subcategoryID := func(p domain.Product) *string { return p.SubcategoryID }
	return listview.Config[domain.Product]{
		Search: []func(domain.Product, listview.Lookups) string{
			text(func(p domain.Product) string { return p.Name }),
			text(func(p domain.Product) string { return p.Slug }),
			lookupText(LookupSubcategory, subcategoryID),
		},
		Filter: func(p domain.Product) string { return domain.Deref(p.SubcategoryID) },
		Sort: map[string]func(domain.Product, listview.Lookups) listview.Value{
			"name":        func(p domain.Product, _ listview.Lookups) listview.Value { return listview.String(p.Name) },
			"subcategory": lookupValue(LookupSubcategory, subcategoryID),
			"inStock":     func(p domain.Product, _ listview.Lookups) listview.Value { return listview.NullableBool(p.InStock) },
			"isFeatured":  func(p domain.Product, _ listview.Lookups) listview.Value { return listview.Bool(p.IsFeatured) },
			"createdAt":   func(p domain.Product, _ listview.Lookups) listview.Value { return listview.Time(p.CreatedAt) },
		},
		PageSize: pageSize,
	}
}

// VariantConfig is the list pipeline of variants.
func VariantConfig(pageSize int) listview.Config[domain.Variant] {
	productID := func(v domain.Variant) *string { return v.ProductID }
	return listview.Config[domain.Variant]{
		Search: []func(domain.Variant, listview.Lookups) string{
			text(func(v domain.Variant) string { return v.SKU }),
			text(func(v domain.Variant) string { return v.Name }),
			lookupText(LookupProduct, productID),
		},
		Filter: func(v domain.Variant) string { return domain.Deref(v.ProductID) },
		Sort: map[string]func(domain.Variant, listview.Lookups) listview.Value{
			"sku":       func(v domain.Variant, _ listview.Lookups) listview.Value { return listview.String(v.SKU) },
			"name":      func(v domain.Variant, _ listview.Lookups) listview.Value { return listview.String(v.Name) },
			"product":   lookupValue(LookupProduct, productID),
			"isActive":  func(v domain.Variant, _ listview.Lookups) listview.Value { return listview.Bool(v.IsActive) },
			"createdAt": func(v domain.Variant, _ listview.Lookups) listview.Value { return listview.Time(v.CreatedAt) },
		},
		PageSize: pageSize,
	}
}

// BlogConfig is the list pipeline of blog posts.
func BlogConfig(pageSize int) listview.Config[domain.Blog] {
	return listview.Config[domain.Blog]{
		Search: []func(domain.Blog, listview.Lookups) string{
			text(func(b domain.Blog) string { return b.Title }),
			text(func(b domain.Blog) string { return b.Author }),
			text(func(b domain.Blog) string { return b.Excerpt }),
		},
		Filter: func(b domain.Blog) string {
			if b.Published {
				return FilterPublished
			}
			return FilterDraft
		},
		Sort: map[string]func(domain.Blog, listview.Lookups) listview.Value{
			"title":       func(b domain.Blog, _ listview.Lookups) listview.Value { return listview.String(b.Title) },
			"author":      func(b domain.Blog, _ listview.Lookups) listview.Value { return listview.String(b.Author) },
			"published":   func(b domain.Blog, _ listview.Lookups) listview.Value { return listview.Bool(b.Published) },
			"publishedAt": func(b domain.Blog, _ listview.Lookups) listview.Value { return listview.NullableTime(b.PublishedAt) },
			"createdAt":   func(b domain.Blog, _ listview.Lookups) listview.Value { return listview.Time(b.CreatedAt) },
		},
		PageSize: pageSize,
	}
}

// ImageConfig is the list pipeline of images.
func ImageConfig(pageSize int) listview.Config[domain.Image] {
	return listview.Config[domain.Image]{
		Search: []func(domain.Image, listview.Lookups) string{
			text(func(i domain.Image) string { return i.Filename }),
			text(func(i domain.Image) string { return i.AltText }),
		},
		Sort: map[string]func(domain.Image, listview.Lookups) listview.Value{
			"filename":  func(i domain.Image, _ listview.Lookups) listview.Value { return listview.String(i.Filename) },
			"createdAt": func(i domain.Image, _ listview.Lookups) listview.Value { return listview.Time(i.CreatedAt) },
		},
		PageSize: pageSize,
	}
}

// FormatPrice renders a price for tables and the CLI.
func FormatPrice(price float64) string {
	return "$" + strconv.FormatFloat(price, 'f', 2, 64)
}
