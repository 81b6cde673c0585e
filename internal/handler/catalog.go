package handler

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/listview"
	"github.com/DukeRupert/catalog-admin/internal/service"
)

// =============================================================================
// Route Registration
// =============================================================================

// navEntries are the sidebar sections in display order.
var navEntries = []NavItem{
	{Label: "Dashboard", Href: "/"},
	{Label: "Categories", Href: "/categories"},
	{Label: "Subcategories", Href: "/subcategories"},
	{Label: "Products", Href: "/products"},
	{Label: "Variants", Href: "/variants"},
	{Label: "Blog", Href: "/blogs"},
	{Label: "Images", Href: "/images"},
}

// Nav returns the sidebar with current highlighted.
func Nav(current string) []NavItem {
	items := make([]NavItem, len(navEntries))
	copy(items, navEntries)
	for i := range items {
		items[i].Active = items[i].Href == current
	}
	return items
}

// RegisterCatalog registers the dashboard and one resource handler per
// catalog entity.
func RegisterCatalog(mux *http.ServeMux, catalog *service.Catalog, deps Deps, protect func(http.Handler) http.Handler) {
	if deps.Nav == nil {
		deps.Nav = Nav
	}

	NewDashboardHandler(catalog, deps).RegisterRoutes(mux)
	NewResourceHandler(CategoryResource(catalog), deps).RegisterRoutes(mux, protect)
	NewResourceHandler(SubcategoryResource(catalog), deps).RegisterRoutes(mux, protect)
	NewResourceHandler(ProductResource(catalog), deps).RegisterRoutes(mux, protect)
	NewResourceHandler(VariantResource(catalog), deps).RegisterRoutes(mux, protect)
	NewResourceHandler(BlogResource(catalog), deps).RegisterRoutes(mux, protect)
	NewResourceHandler(ImageResource(catalog), deps).RegisterRoutes(mux, protect)

	mux.Handle("/", NotFoundResponse(deps.Logger))
}

// =============================================================================
// Cell Helpers
// =============================================================================

func text(s string) Cell {
	if s == "" {
		return Cell{Text: "-"}
	}
	return Cell{Text: s}
}

func badge(on bool, yes, no string) Cell {
	if on {
		return Cell{Text: yes, Tone: ToneSuccess}
	}
	return Cell{Text: no, Tone: ToneMuted}
}

func dateCell(iso string) Cell {
	return Cell{Text: formatDate(iso)}
}

func lookupCell(l listview.Lookups, table string, id *string, basePath string) Cell {
	c := Cell{Text: l.Table(table).DisplayPtr(id)}
	if id != nil {
		if _, ok := l.Table(table).Get(*id); ok {
			c.Href = basePath + "/" + url.PathEscape(*id)
		}
	}
	return c
}

func imageCell(l listview.Lookups, id *string) Cell {
	if id == nil {
		return Cell{Text: "-"}
	}
	if u, ok := l.Table(service.LookupImage).Get(*id); ok && u != "" {
		return Cell{Image: u}
	}
	return Cell{Text: l.Table(service.LookupImage).Display(*id), Tone: ToneWarning}
}

func stockCell(inStock *bool) Cell {
	switch {
	case inStock == nil:
		return Cell{Text: "Unknown", Tone: ToneMuted}
	case *inStock:
		return Cell{Text: "In stock", Tone: ToneSuccess}
	default:
		return Cell{Text: "Out of stock", Tone: ToneDanger}
	}
}

func boolValue(b bool) string {
	if b {
		return "on"
	}
	return ""
}

func triValue(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

// optionsOf lists a parent collection as select options sorted by sortKey.
func optionsOf[T domain.Item](ctrl *listview.Controller[T], cfg listview.Config[T], sortKey string, label func(T) string) func(ctx context.Context) []Option {
	return func(ctx context.Context) []Option {
		// A failed load leaves the options empty; the list page shows the error
		_ = ctrl.EnsureLoaded(ctx)
		snap := ctrl.Snapshot()
		items := listview.Arrange(snap.Items, snap.Lookups, listview.ViewState{SortKey: sortKey, SortDir: listview.Asc}, cfg)

		options := make([]Option, len(items))
		for i, item := range items {
			options[i] = Option{Value: item.ItemID(), Label: label(item)}
		}
		return options
	}
}

func staticOptions(options ...Option) func(context.Context) []Option {
	return func(context.Context) []Option { return options }
}

// =============================================================================
// Form Parsing
// =============================================================================

// formReader reads typed values from a submitted form and collects
// conversion errors per field.
type formReader struct {
	form url.Values
	errs map[string]string
}

func newFormReader(form url.Values) *formReader {
	return &formReader{form: form, errs: map[string]string{}}
}

func (f *formReader) str(key string) string {
	return strings.TrimSpace(f.form.Get(key))
}

func (f *formReader) bool(key string) bool {
	v := f.str(key)
	return v == "on" || v == "true" || v == "1"
}

func (f *formReader) optionalBool(key string) *bool {
	switch f.str(key) {
	case "true":
		return domain.Ptr(true)
	case "false":
		return domain.Ptr(false)
	default:
		return nil
	}
}

func (f *formReader) float(key, label string) float64 {
	v := f.str(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseFloat(strings.TrimPrefix(v, "$"), 64)
	if err != nil {
		f.errs[key] = label + " must be a number"
	}
	return n
}

func (f *formReader) int(key, label string) int {
	v := f.str(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f.errs[key] = label + " must be a whole number"
	}
	return n
}

func (f *formReader) optionalStr(key string) *string {
	if v := f.str(key); v != "" {
		return &v
	}
	return nil
}

// err returns the collected conversion errors as a validation error.
func (f *formReader) err(op string) error {
	if len(f.errs) == 0 {
		return nil
	}
	return &domain.ValidationError{Op: op, Fields: f.errs}
}

// =============================================================================
// Categories
// =============================================================================

// CategoryResource describes the categories screens.
func CategoryResource(c *service.Catalog) Resource[domain.Category] {
	return Resource[domain.Category]{
		Path:       "/categories",
		Title:      "Categories",
		Singular:   "Category",
		Controller: c.Categories,
		Columns: []Column[domain.Category]{
			{Header: "Image", Cell: func(x domain.Category, l listview.Lookups) Cell { return imageCell(l, x.ImageID) }},
			{Header: "Name", SortKey: "name", Cell: func(x domain.Category, _ listview.Lookups) Cell { return text(x.Name) }},
			{Header: "Slug", Cell: func(x domain.Category, _ listview.Lookups) Cell { return text(x.Slug) }},
			{Header: "Status", SortKey: "isActive", Cell: func(x domain.Category, _ listview.Lookups) Cell { return badge(x.IsActive, "Active", "Inactive") }},
			{Header: "Created", SortKey: "createdAt", Cell: func(x domain.Category, _ listview.Lookups) Cell { return dateCell(x.CreatedAt) }},
			{Header: "Updated", SortKey: "updatedAt", Cell: func(x domain.Category, _ listview.Lookups) Cell { return dateCell(x.UpdatedAt) }},
		},
		Details: func(x domain.Category, l listview.Lookups) []Detail {
			return []Detail{
				{Label: "Name", Cell: text(x.Name)},
				{Label: "Slug", Cell: text(x.Slug)},
				{Label: "Description", Cell: text(x.Description)},
				{Label: "Image", Cell: imageCell(l, x.ImageID)},
				{Label: "Status", Cell: badge(x.IsActive, "Active", "Inactive")},
				{Label: "Created", Cell: Cell{Text: formatDateTime(x.CreatedAt)}},
				{Label: "Updated", Cell: Cell{Text: formatDateTime(x.UpdatedAt)}},
			}
		},
		Filter: &Filter{
			Label:   "Status",
			Options: staticOptions(Option{Value: service.FilterActive, Label: "Active"}, Option{Value: service.FilterInactive, Label: "Inactive"}),
		},
		Fields: []FormField{
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "slug", Label: "Slug", Type: "text", Help: "Derived from the name when left blank"},
			{Name: "description", Label: "Description", Type: "textarea"},
			{Name: "isActive", Label: "Active", Type: "checkbox"},
		},
		Defaults: map[string]string{"isActive": "on"},
		Values: func(x domain.Category) map[string]string {
			return map[string]string{
				"name":        x.Name,
				"slug":        x.Slug,
				"description": x.Description,
				"isActive":    boolValue(x.IsActive),
			}
		},
		Parse: func(form url.Values, _ listview.DialogMode) (any, error) {
			f := newFormReader(form)
			return &domain.CategoryInput{
				Name:        f.str("name"),
				Slug:        f.str("slug"),
				Description: f.str("description"),
				IsActive:    f.bool("isActive"),
			}, nil
		},
		Label:    func(x domain.Category) string { return x.Name },
		Image:    ImageAttached,
		OnChange: c.Subcategories.Invalidate,
	}
}

// =============================================================================
// Subcategories
// =============================================================================

// SubcategoryResource describes the subcategories screens.
func SubcategoryResource(c *service.Catalog) Resource[domain.Subcategory] {
	categories := optionsOf(c.Categories, service.CategoryConfig(0), "name", func(x domain.Category) string { return x.Name })

	return Resource[domain.Subcategory]{
		Path:       "/subcategories",
		Title:      "Subcategories",
		Singular:   "Subcategory",
		Controller: c.Subcategories,
		Columns: []Column[domain.Subcategory]{
			{Header: "Name", SortKey: "name", Cell: func(x domain.Subcategory, _ listview.Lookups) Cell { return text(x.Name) }},
			{Header: "Category", SortKey: "category", Cell: func(x domain.Subcategory, l listview.Lookups) Cell {
				return lookupCell(l, service.LookupCategory, x.CategoryID, "/categories")
			}},
			{Header: "Status", SortKey: "isActive", Cell: func(x domain.Subcategory, _ listview.Lookups) Cell { return badge(x.IsActive, "Active", "Inactive") }},
			{Header: "Created", SortKey: "createdAt", Cell: func(x domain.Subcategory, _ listview.Lookups) Cell { return dateCell(x.CreatedAt) }},
		},
		Details: func(x domain.Subcategory, l listview.Lookups) []Detail {
			return []Detail{
				{Label: "Name", Cell: text(x.Name)},
				{Label: "Slug", Cell: text(x.Slug)},
				{Label: "Description", Cell: text(x.Description)},
				{Label: "Category", Cell: lookupCell(l, service.LookupCategory, x.CategoryID, "/categories")},
				{Label: "Status", Cell: badge(x.IsActive, "Active", "Inactive")},
				{Label: "Created", Cell: Cell{Text: formatDateTime(x.CreatedAt)}},
			}
		},
		Filter: &Filter{Label: "Category", Options: categories},
		Fields: []FormField{
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "slug", Label: "Slug", Type: "text", Help: "Derived from the name when left blank"},
			{Name: "categoryId", Label: "Category", Type: "select", Required: true, Options: categories},
			{Name: "description", Label: "Description", Type: "textarea"},
			{Name: "isActive", Label: "Active", Type: "checkbox"},
		},
		Defaults: map[string]string{"isActive": "on"},
		Values: func(x domain.Subcategory) map[string]string {
			return map[string]string{
				"name":        x.Name,
				"slug":        x.Slug,
				"categoryId":  domain.Deref(x.CategoryID),
				"description": x.Description,
				"isActive":    boolValue(x.IsActive),
			}
		},
		Parse: func(form url.Values, _ listview.DialogMode) (any, error) {
			f := newFormReader(form)
			return &domain.SubcategoryInput{
				Name:        f.str("name"),
				Slug:        f.str("slug"),
				CategoryID:  f.str("categoryId"),
				Description: f.str("description"),
				IsActive:    f.bool("isActive"),
			}, nil
		},
		Label:    func(x domain.Subcategory) string { return x.Name },
		OnChange: c.Products.Invalidate,
	}
}

// =============================================================================
// Products
// =============================================================================

// ProductResource describes the products screens.
func ProductResource(c *service.Catalog) Resource[domain.Product] {
	subcategories := optionsOf(c.Subcategories, service.SubcategoryConfig(0), "name", func(x domain.Subcategory) string { return x.Name })

	return Resource[domain.Product]{
		Path:       "/products",
		Title:      "Products",
		Singular:   "Product",
		Controller: c.Products,
		Columns: []Column[domain.Product]{
			{Header: "Image", Cell: func(x domain.Product, l listview.Lookups) Cell { return imageCell(l, x.ImageID) }},
			{Header: "Name", SortKey: "name", Cell: func(x domain.Product, _ listview.Lookups) Cell { return text(x.Name) }},
			{Header: "Subcategory", SortKey: "subcategory", Cell: func(x domain.Product, l listview.Lookups) Cell {
				return lookupCell(l, service.LookupSubcategory, x.SubcategoryID, "/subcategories")
			}},
			{Header: "Price", Cell: func(x domain.Product, _ listview.Lookups) Cell { return Cell{Text: service.FormatPrice(x.Price)} }},
			{Header: "Stock", SortKey: "inStock", Cell: func(x domain.Product, _ listview.Lookups) Cell { return stockCell(x.InStock) }},
			{Header: "Featured", SortKey: "isFeatured", Cell: func(x domain.Product, _ listview.Lookups) Cell { return badge(x.IsFeatured, "Featured", "No") }},
			{Header: "Created", SortKey: "createdAt", Cell: func(x domain.Product, _ listview.Lookups) Cell { return dateCell(x.CreatedAt) }},
		},
		Details: func(x domain.Product, l listview.Lookups) []Detail {
			return []Detail{
				{Label: "Name", Cell: text(x.Name)},
				{Label: "Slug", Cell: text(x.Slug)},
				{Label: "Subcategory", Cell: lookupCell(l, service.LookupSubcategory, x.SubcategoryID, "/subcategories")},
				{Label: "Price", Cell: Cell{Text: service.FormatPrice(x.Price)}},
				{Label: "Stock", Cell: stockCell(x.InStock)},
				{Label: "Featured", Cell: badge(x.IsFeatured, "Featured", "No")},
				{Label: "Image", Cell: imageCell(l, x.ImageID)},
				{Label: "Description", Cell: text(x.Description)},
				{Label: "Created", Cell: Cell{Text: formatDateTime(x.CreatedAt)}},
			}
		},
		Filter: &Filter{Label: "Subcategory", Options: subcategories},
		Fields: []FormField{
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "slug", Label: "Slug", Type: "text", Help: "Derived from the name when left blank"},
			{Name: "subcategoryId", Label: "Subcategory", Type: "select", Required: true, Options: subcategories},
			{Name: "price", Label: "Price", Type: "number"},
			{Name: "inStock", Label: "Stock", Type: "tristate"},
			{Name: "isFeatured", Label: "Featured", Type: "checkbox"},
			{Name: "description", Label: "Description", Type: "textarea"},
		},
		Values: func(x domain.Product) map[string]string {
			return map[string]string{
				"name":          x.Name,
				"slug":          x.Slug,
				"subcategoryId": domain.Deref(x.SubcategoryID),
				"price":         strconv.FormatFloat(x.Price, 'f', 2, 64),
				"inStock":       triValue(x.InStock),
				"isFeatured":    boolValue(x.IsFeatured),
				"description":   x.Description,
			}
		},
		Parse: func(form url.Values, _ listview.DialogMode) (any, error) {
			f := newFormReader(form)
			in := &domain.ProductInput{
				Name:          f.str("name"),
				Slug:          f.str("slug"),
				SubcategoryID: f.str("subcategoryId"),
				Price:         f.float("price", "Price"),
				InStock:       f.optionalBool("inStock"),
				IsFeatured:    f.bool("isFeatured"),
				Description:   f.str("description"),
			}
			return in, f.err("product.form")
		},
		Label:    func(x domain.Product) string { return x.Name },
		Image:    ImageAttached,
		OnChange: c.Variants.Invalidate,
	}
}

// =============================================================================
// Variants
// =============================================================================

// VariantResource describes the variants screens.
func VariantResource(c *service.Catalog) Resource[domain.Variant] {
	products := optionsOf(c.Products, service.ProductConfig(0), "name", func(x domain.Product) string { return x.Name })

	return Resource[domain.Variant]{
		Path:       "/variants",
		Title:      "Variants",
		Singular:   "Variant",
		Controller: c.Variants,
		Columns: []Column[domain.Variant]{
			{Header: "SKU", SortKey: "sku", Cell: func(x domain.Variant, _ listview.Lookups) Cell { return text(x.SKU) }},
			{Header: "Name", SortKey: "name", Cell: func(x domain.Variant, _ listview.Lookups) Cell { return text(x.Name) }},
			{Header: "Product", SortKey: "product", Cell: func(x domain.Variant, l listview.Lookups) Cell {
				return lookupCell(l, service.LookupProduct, x.ProductID, "/products")
			}},
			{Header: "Price", Cell: func(x domain.Variant, _ listview.Lookups) Cell { return Cell{Text: service.FormatPrice(x.Price)} }},
			{Header: "Stock", Cell: func(x domain.Variant, _ listview.Lookups) Cell { return Cell{Text: strconv.Itoa(x.Stock)} }},
			{Header: "Status", SortKey: "isActive", Cell: func(x domain.Variant, _ listview.Lookups) Cell { return badge(x.IsActive, "Active", "Inactive") }},
		},
		Details: func(x domain.Variant, l listview.Lookups) []Detail {
			return []Detail{
				{Label: "SKU", Cell: text(x.SKU)},
				{Label: "Name", Cell: text(x.Name)},
				{Label: "Product", Cell: lookupCell(l, service.LookupProduct, x.ProductID, "/products")},
				{Label: "Price", Cell: Cell{Text: service.FormatPrice(x.Price)}},
				{Label: "Stock", Cell: Cell{Text: strconv.Itoa(x.Stock)}},
				{Label: "Status", Cell: badge(x.IsActive, "Active", "Inactive")},
				{Label: "Created", Cell: Cell{Text: formatDateTime(x.CreatedAt)}},
			}
		},
		Filter: &Filter{Label: "Product", Options: products},
		Fields: []FormField{
			{Name: "productId", Label: "Product", Type: "select", Required: true, Options: products},
			{Name: "sku", Label: "SKU", Type: "text", Required: true},
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "price", Label: "Price", Type: "number"},
			{Name: "stock", Label: "Stock", Type: "number"},
			{Name: "isActive", Label: "Active", Type: "checkbox"},
		},
		Defaults: map[string]string{"isActive": "on", "stock": "0"},
		Values: func(x domain.Variant) map[string]string {
			return map[string]string{
				"productId": domain.Deref(x.ProductID),
				"sku":       x.SKU,
				"name":      x.Name,
				"price":     strconv.FormatFloat(x.Price, 'f', 2, 64),
				"stock":     strconv.Itoa(x.Stock),
				"isActive":  boolValue(x.IsActive),
			}
		},
		Parse: func(form url.Values, _ listview.DialogMode) (any, error) {
			f := newFormReader(form)
			in := &domain.VariantInput{
				ProductID: f.str("productId"),
				SKU:       f.str("sku"),
				Name:      f.str("name"),
				Price:     f.float("price", "Price"),
				Stock:     f.int("stock", "Stock"),
				IsActive:  f.bool("isActive"),
			}
			return in, f.err("variant.form")
		},
		Label:     func(x domain.Variant) string { return x.SKU },
		NameField: "sku",
	}
}

// =============================================================================
// Blog Posts
// =============================================================================

// BlogResource describes the blog screens.
func BlogResource(c *service.Catalog) Resource[domain.Blog] {
	return Resource[domain.Blog]{
		Path:       "/blogs",
		Title:      "Blog posts",
		Singular:   "Blog post",
		Controller: c.Blogs,
		Columns: []Column[domain.Blog]{
			{Header: "Image", Cell: func(x domain.Blog, l listview.Lookups) Cell { return imageCell(l, x.ImageID) }},
			{Header: "Title", SortKey: "title", Cell: func(x domain.Blog, _ listview.Lookups) Cell { return text(x.Title) }},
			{Header: "Author", SortKey: "author", Cell: func(x domain.Blog, _ listview.Lookups) Cell { return text(x.Author) }},
			{Header: "Status", SortKey: "published", Cell: func(x domain.Blog, _ listview.Lookups) Cell { return badge(x.Published, "Published", "Draft") }},
			{Header: "Published", SortKey: "publishedAt", Cell: func(x domain.Blog, _ listview.Lookups) Cell { return dateCell(domain.Deref(x.PublishedAt)) }},
			{Header: "Created", SortKey: "createdAt", Cell: func(x domain.Blog, _ listview.Lookups) Cell { return dateCell(x.CreatedAt) }},
		},
		Details: func(x domain.Blog, l listview.Lookups) []Detail {
			return []Detail{
				{Label: "Title", Cell: text(x.Title)},
				{Label: "Slug", Cell: text(x.Slug)},
				{Label: "Author", Cell: text(x.Author)},
				{Label: "Status", Cell: badge(x.Published, "Published", "Draft")},
				{Label: "Published", Cell: Cell{Text: formatDateTime(domain.Deref(x.PublishedAt))}},
				{Label: "Image", Cell: imageCell(l, x.ImageID)},
				{Label: "Excerpt", Cell: text(x.Excerpt)},
				// Content is sanitized before it is marked safe
				{Label: "Content", Cell: Cell{HTML: template.HTML(service.SanitizeHTML(x.Content))}},
			}
		},
		Filter: &Filter{
			Label:   "Status",
			Options: staticOptions(Option{Value: service.FilterPublished, Label: "Published"}, Option{Value: service.FilterDraft, Label: "Draft"}),
		},
		Fields: []FormField{
			{Name: "title", Label: "Title", Type: "text", Required: true},
			{Name: "slug", Label: "Slug", Type: "text", Help: "Derived from the title when left blank"},
			{Name: "author", Label: "Author", Type: "text"},
			{Name: "excerpt", Label: "Excerpt", Type: "textarea", Help: "Derived from the content when left blank"},
			{Name: "content", Label: "Content", Type: "textarea", Required: true, Help: "HTML is allowed; scripts are removed"},
			{Name: "published", Label: "Published", Type: "checkbox"},
		},
		Values: func(x domain.Blog) map[string]string {
			return map[string]string{
				"title":     x.Title,
				"slug":      x.Slug,
				"author":    x.Author,
				"excerpt":   x.Excerpt,
				"content":   x.Content,
				"published": boolValue(x.Published),
			}
		},
		Parse: func(form url.Values, _ listview.DialogMode) (any, error) {
			f := newFormReader(form)
			return &domain.BlogInput{
				Title:     f.str("title"),
				Slug:      f.str("slug"),
				Author:    f.str("author"),
				Excerpt:   f.str("excerpt"),
				Content:   f.str("content"),
				Published: f.bool("published"),
			}, nil
		},
		Label:     func(x domain.Blog) string { return x.Title },
		NameField: "title",
		Image:     ImageAttached,
	}
}

// =============================================================================
// Images
// =============================================================================

// ImageResource describes the image library screens. Creating an image is
// an upload; editing changes its alt text.
func ImageResource(c *service.Catalog) Resource[domain.Image] {
	invalidate := func() {
		c.Categories.Invalidate()
		c.Products.Invalidate()
		c.Blogs.Invalidate()
	}

	return Resource[domain.Image]{
		Path:       "/images",
		Title:      "Images",
		Singular:   "Image",
		Controller: c.Images,
		Columns: []Column[domain.Image]{
			{Header: "Preview", Cell: func(x domain.Image, _ listview.Lookups) Cell { return Cell{Image: x.URL} }},
			{Header: "Filename", SortKey: "filename", Cell: func(x domain.Image, _ listview.Lookups) Cell { return text(x.Filename) }},
			{Header: "Alt text", Cell: func(x domain.Image, _ listview.Lookups) Cell { return text(x.AltText) }},
			{Header: "Size", Cell: func(x domain.Image, _ listview.Lookups) Cell { return Cell{Text: formatBytes(x.Size)} }},
			{Header: "Uploaded", SortKey: "createdAt", Cell: func(x domain.Image, _ listview.Lookups) Cell { return dateCell(x.CreatedAt) }},
		},
		Details: func(x domain.Image, _ listview.Lookups) []Detail {
			return []Detail{
				{Label: "Preview", Cell: Cell{Image: x.URL}},
				{Label: "Filename", Cell: text(x.Filename)},
				{Label: "URL", Cell: Cell{Text: x.URL, Href: x.URL}},
				{Label: "Alt text", Cell: text(x.AltText)},
				{Label: "Size", Cell: Cell{Text: formatBytes(x.Size)}},
				{Label: "Uploaded", Cell: Cell{Text: formatDateTime(x.CreatedAt)}},
			}
		},
		Fields: []FormField{
			{Name: "altText", Label: "Alt text", Type: "text", Help: "Describes the image for screen readers"},
		},
		Values: func(x domain.Image) map[string]string {
			return map[string]string{"altText": x.AltText}
		},
		Parse: func(form url.Values, _ listview.DialogMode) (any, error) {
			return &domain.ImageInput{AltText: strings.TrimSpace(form.Get("altText"))}, nil
		},
		Label:     func(x domain.Image) string { return x.Filename },
		NameField: "image",
		Image:     ImageIsRecord,
		OnChange:  invalidate,
	}
}

func formatBytes(n int64) string {
	switch {
	case n <= 0:
		return "-"
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	}
}
