package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DukeRupert/catalog-admin/internal/api"
	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/listview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = name(item)
	}
	return out
}

func TestSubcategoryConfig_SortsByCategoryName(t *testing.T) {
	items := []domain.Subcategory{
		{ID: "s1", Name: "Wrenches", CategoryID: domain.Ptr("c2")},
		{ID: "s2", Name: "Drills", CategoryID: domain.Ptr("c1")},
		{ID: "s3", Name: "Orphans", CategoryID: domain.Ptr("gone")},
		{ID: "s4", Name: "Loose", CategoryID: nil},
	}
	lookups := listview.Lookups{
		LookupCategory: listview.NewTable("Unknown Category", map[string]string{"c1": "Power Tools", "c2": "Hand Tools"}),
	}
	view := listview.ViewState{SortKey: "category", SortDir: listview.Asc, Page: 1}

	page := listview.Apply(items, lookups, view, SubcategoryConfig(10))
	assert.Equal(t, []string{"Wrenches", "Drills", "Orphans", "Loose"}, names(page.Items, func(s domain.Subcategory) string { return s.Name }))

	view.SortDir = listview.Desc
	page = listview.Apply(items, lookups, view, SubcategoryConfig(10))
	assert.Equal(t, []string{"Drills", "Wrenches", "Orphans", "Loose"}, names(page.Items, func(s domain.Subcategory) string { return s.Name }))
}

func TestSubcategoryConfig_SearchesCategoryName(t *testing.T) {
	items := []domain.Subcategory{
		{ID: "s1", Name: "Wrenches", CategoryID: domain.Ptr("c2")},
		{ID: "s2", Name: "Drills", CategoryID: domain.Ptr("c1")},
	}
	lookups := listview.Lookups{
		LookupCategory: listview.NewTable("Unknown Category", map[string]string{"c1": "Power Tools", "c2": "Hand Tools"}),
	}

	page := listview.Apply(items, lookups, listview.ViewState{Search: "power", Page: 1}, SubcategoryConfig(10))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "s2", page.Items[0].ID)

	page = listview.Apply(items, lookups, listview.ViewState{Filter: "c2", Page: 1}, SubcategoryConfig(10))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "s1", page.Items[0].ID)
}

func TestCategoryConfig_FilterActive(t *testing.T) {
	items := []domain.Category{
		{ID: "1", Name: "B", IsActive: true},
		{ID: "2", Name: "A", IsActive: false},
		{ID: "3", Name: "C", IsActive: true},
	}

	page := listview.Apply(items, nil, listview.ViewState{Filter: FilterInactive, Page: 1}, CategoryConfig(10))
	assert.Equal(t, []string{"A"}, names(page.Items, func(c domain.Category) string { return c.Name }))

	page = listview.Apply(items, nil, listview.ViewState{SortKey: "name", SortDir: listview.Desc, Page: 1}, CategoryConfig(10))
	assert.Equal(t, []string{"C", "B", "A"}, names(page.Items, func(c domain.Category) string { return c.Name }))
}

func TestProductConfig_UnknownStockSortsLast(t *testing.T) {
	items := []domain.Product{
		{ID: "1", Name: "Unknown", InStock: nil},
		{ID: "2", Name: "In", InStock: domain.Ptr(true)},
		{ID: "3", Name: "Out", InStock: domain.Ptr(false)},
	}
	for _, dir := range []listview.SortDir{listview.Asc, listview.Desc} {
		page := listview.Apply(items, nil, listview.ViewState{SortKey: "inStock", SortDir: dir, Page: 1}, ProductConfig(10))
		assert.Equal(t, "Unknown", page.Items[2].Name, "dir %s", dir)
	}
}

func TestBlogConfig_DraftsHaveNoPublishDate(t *testing.T) {
	items := []domain.Blog{
		{ID: "1", Title: "Draft"},
		{ID: "2", Title: "Old", Published: true, PublishedAt: domain.Ptr("2024-01-02T10:00:00Z")},
		{ID: "3", Title: "New", Published: true, PublishedAt: domain.Ptr("2025-03-01T10:00:00Z")},
	}

	page := listview.Apply(items, nil, listview.ViewState{SortKey: "publishedAt", SortDir: listview.Desc, Page: 1}, BlogConfig(10))
	assert.Equal(t, []string{"New", "Old", "Draft"}, names(page.Items, func(b domain.Blog) string { return b.Title }))

	page = listview.Apply(items, nil, listview.ViewState{Filter: FilterDraft, Page: 1}, BlogConfig(10))
	assert.Equal(t, []string{"Draft"}, names(page.Items, func(b domain.Blog) string { return b.Title }))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$12.50", FormatPrice(12.5))
	assert.Equal(t, "$0.00", FormatPrice(0))
}

func TestCatalog_LoadsWithLookups(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /subcategories", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"success","data":{"subcategories":[{"id":"s1","name":"Wrenches","categoryId":"c1"},{"id":"s2","name":"Stray","categoryId":"zz"}],"total":2}}`)
	})
	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"success","data":{"categories":[{"id":"c1","name":"Hand Tools"}]}}`)
	})
	mux.HandleFunc("POST /images/batch", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"success","data":{"products":[{"id":"p1","name":"Ratchet","imageId":"img1"}]}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := api.New(api.Config{BaseURL: srv.URL, MaxRetries: 1}, logger)
	require.NoError(t, err)

	catalog := NewCatalog(client, CatalogConfig{PageSize: 10}, logger)
	t.Cleanup(catalog.Close)
	ctx := context.Background()

	require.NoError(t, catalog.Subcategories.Refresh(ctx))
	snap := catalog.Subcategories.Snapshot()
	assert.Equal(t, 2, snap.Total)
	assert.Empty(t, snap.Warnings)
	table := snap.Lookups.Table(LookupCategory)
	assert.Equal(t, "Hand Tools", table.Display("c1"))
	assert.Equal(t, "Unknown Category", table.Display("zz"))

	// A failed image lookup only produces a warning.
	require.NoError(t, catalog.Products.Refresh(ctx))
	psnap := catalog.Products.Snapshot()
	require.Len(t, psnap.Items, 1)
	require.Len(t, psnap.Warnings, 1)
	assert.Equal(t, "image previews", psnap.Warnings[0].Lookup)
}

func TestCatalog_TotalsReportsFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /categories", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"success","data":{"categories":[{"id":"c1"},{"id":"c2"}],"total":7}}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"error","message":"nope"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := api.New(api.Config{BaseURL: srv.URL, MaxRetries: 1}, logger)
	require.NoError(t, err)
	catalog := NewCatalog(client, CatalogConfig{}, logger)

	totals := catalog.Totals(context.Background())
	require.Len(t, totals, 6)
	assert.Equal(t, "Categories", totals[0].Label)
	assert.Equal(t, 7, totals[0].Count)
	assert.True(t, totals[0].Loaded)
	assert.Empty(t, totals[0].Err)

	assert.False(t, totals[1].Loaded)
	assert.Equal(t, "nope", totals[1].Err)
}
