package handler

import (
	"net/http"

	"github.com/DukeRupert/catalog-admin/internal/csrf"
	"github.com/DukeRupert/catalog-admin/internal/service"
)

// DashboardHandler serves the landing page with per-entity totals.
type DashboardHandler struct {
	catalog *service.Catalog
	deps    Deps
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(catalog *service.Catalog, deps Deps) *DashboardHandler {
	return &DashboardHandler{catalog: catalog, deps: deps}
}

// DashboardPageData contains data for the dashboard page.
type DashboardPageData struct {
	CurrentPath string
	Nav         []NavItem
	Totals      []service.Total
	Flash       *Flash
	CSRFToken   string
}

// RegisterRoutes registers the dashboard route.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Show)
}

// Show renders the dashboard.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	data := DashboardPageData{
		CurrentPath: r.URL.Path,
		Totals:      h.catalog.Totals(r.Context()),
		Flash:       h.deps.Notifier.Pop(r.Context()),
		CSRFToken:   csrf.EnsureToken(w, r, h.deps.SecureCookies),
	}
	if h.deps.Nav != nil {
		data.Nav = h.deps.Nav("/")
	}

	h.deps.Renderer.RenderPage(w, "dashboard", data)
}
