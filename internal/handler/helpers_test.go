package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/catalog-admin/internal/api"
	"github.com/DukeRupert/catalog-admin/internal/csrf"
	"github.com/DukeRupert/catalog-admin/internal/service"
	"github.com/DukeRupert/catalog-admin/internal/session"
	"github.com/DukeRupert/catalog-admin/internal/validation"
	"github.com/DukeRupert/catalog-admin/web"
)

// =============================================================================
// Fake Backend
// =============================================================================

// fakeBackend is an in-memory catalog API speaking the backend's envelope.
type fakeBackend struct {
	mu      sync.Mutex
	records map[string][]map[string]any // keyed by collection path segment
	seq     int
	uploads []string // filenames received by /images/upload
	failing map[string]bool
}

// singular maps a collection to the key of its single-record envelope.
var singular = map[string]string{
	"categories":    "category",
	"subcategories": "subcategory",
	"products":      "product",
	"variants":      "variant",
	"blogs":         "blog",
	"images":        "image",
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{records: map[string][]map[string]any{}, failing: map[string]bool{}}
	for name := range singular {
		b.records[name] = nil
	}
	return b
}

func (b *fakeBackend) seed(collection string, records ...map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[collection] = append(b.records[collection], records...)
}

func (b *fakeBackend) find(collection, id string) (map[string]any, int) {
	for i, rec := range b.records[collection] {
		if rec["id"] == id {
			return rec, i
		}
	}
	return nil, -1
}

func (b *fakeBackend) snapshot(collection string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]map[string]any, len(b.records[collection]))
	copy(out, b.records[collection])
	return out
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": message})
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	collection := parts[0]
	if _, ok := singular[collection]; !ok {
		writeFailure(w, http.StatusNotFound, "not found")
		return
	}
	if b.failing[collection] {
		writeFailure(w, http.StatusInternalServerError, "database offline")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		writeEnvelope(w, http.StatusOK, map[string]any{collection: b.records[collection], "total": len(b.records[collection])})

	case len(parts) == 1 && r.Method == http.MethodPost:
		var rec map[string]any
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			writeFailure(w, http.StatusBadRequest, "bad json")
			return
		}
		for _, existing := range b.records[collection] {
			if rec["name"] != nil && existing["name"] == rec["name"] {
				writeFailure(w, http.StatusConflict, "duplicate key value violates unique constraint")
				return
			}
		}
		b.seq++
		rec["id"] = fmt.Sprintf("new%d", b.seq)
		rec["createdAt"] = "2025-06-01T12:00:00Z"
		b.records[collection] = append(b.records[collection], rec)
		writeEnvelope(w, http.StatusCreated, map[string]any{singular[collection]: rec})

	case len(parts) == 2 && collection == "images" && parts[1] == "upload" && r.Method == http.MethodPost:
		file, header, err := r.FormFile("image")
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "missing image")
			return
		}
		file.Close()
		b.uploads = append(b.uploads, header.Filename)
		b.seq++
		rec := map[string]any{
			"id":       fmt.Sprintf("img%d", b.seq),
			"url":      "https://cdn.example.com/" + header.Filename,
			"filename": header.Filename,
			"altText":  r.FormValue("altText"),
		}
		b.records["images"] = append(b.records["images"], rec)
		writeEnvelope(w, http.StatusCreated, map[string]any{"image": rec})

	case len(parts) == 2 && collection == "images" && parts[1] == "batch" && r.Method == http.MethodPost:
		var body struct {
			IDs []string `json:"ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		refs := []map[string]any{}
		for _, id := range body.IDs {
			if rec, _ := b.find("images", id); rec != nil {
				refs = append(refs, map[string]any{"id": id, "url": rec["url"]})
			}
		}
		writeEnvelope(w, http.StatusOK, map[string]any{"images": refs})

	case len(parts) == 2 && r.Method == http.MethodPatch:
		rec, _ := b.find(collection, parts[1])
		if rec == nil {
			writeFailure(w, http.StatusNotFound, "record not found")
			return
		}
		var patch map[string]any
		_ = json.NewDecoder(r.Body).Decode(&patch)
		for k, v := range patch {
			rec[k] = v
		}
		writeEnvelope(w, http.StatusOK, map[string]any{singular[collection]: rec})

	case len(parts) == 2 && r.Method == http.MethodDelete:
		_, i := b.find(collection, parts[1])
		if i < 0 {
			writeFailure(w, http.StatusNotFound, "record not found")
			return
		}
		b.records[collection] = append(b.records[collection][:i:i], b.records[collection][i+1:]...)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeFailure(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// =============================================================================
// Test Application
// =============================================================================

// testApp is the dashboard wired to a fake backend and served over HTTP
// with a cookie jar, the way a browser uses it.
type testApp struct {
	t       *testing.T
	backend *fakeBackend
	catalog *service.Catalog
	server  *httptest.Server
	client  *http.Client
}

func newTestApp(t *testing.T, backend *fakeBackend) *testApp {
	t.Helper()
	logger := discardLogger()

	backendSrv := httptest.NewServer(backend)
	t.Cleanup(backendSrv.Close)

	apiClient, err := api.New(api.Config{BaseURL: backendSrv.URL, MaxRetries: 1}, logger)
	require.NoError(t, err)

	catalog := service.NewCatalog(apiClient, service.CatalogConfig{PageSize: 2, Validator: validation.New()}, logger)
	t.Cleanup(catalog.Close)

	templates, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)
	renderer, err := NewRendererFromFS(templates, logger)
	require.NoError(t, err)

	sessions := session.New(false)
	deps := Deps{
		Renderer: renderer,
		Notifier: NewNotifier(sessions),
		Images:   service.NewImagePreparer(service.ImagePrepConfig{}, logger),
		Logger:   logger,
	}

	mux := http.NewServeMux()
	RegisterCatalog(mux, catalog, deps, csrf.Protect(logger))

	server := httptest.NewServer(sessions.LoadAndSave(mux))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{
		t:       t,
		backend: backend,
		catalog: catalog,
		server:  server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// csrfToken returns the token cookie, visiting the dashboard first when
// none has been issued yet.
func (a *testApp) csrfToken() string {
	a.t.Helper()
	u, _ := url.Parse(a.server.URL)
	for _, c := range a.client.Jar.Cookies(u) {
		if c.Name == csrf.CookieName {
			return c.Value
		}
	}
	a.get("/", nil)
	for _, c := range a.client.Jar.Cookies(u) {
		if c.Name == csrf.CookieName {
			return c.Value
		}
	}
	a.t.Fatal("no csrf cookie issued")
	return ""
}

func (a *testApp) do(method, path string, body io.Reader, headers map[string]string) (*http.Response, string) {
	a.t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, body)
	require.NoError(a.t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, string(raw)
}

func (a *testApp) get(path string, headers map[string]string) (*http.Response, string) {
	return a.do(http.MethodGet, path, nil, headers)
}

// htmx sends a form the way the modal does: htmx headers plus the CSRF
// header from the page's hx-headers.
func (a *testApp) htmx(method, path string, form url.Values) (*http.Response, string) {
	headers := map[string]string{
		"HX-Request":    "true",
		csrf.HeaderName: a.csrfToken(),
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
		headers["Content-Type"] = "application/x-www-form-urlencoded"
	}
	return a.do(method, path, body, headers)
}

func listFragment() map[string]string {
	return map[string]string{"HX-Request": "true", "HX-Target": "list"}
}

// seedCatalog fills a backend with a small tool catalog.
func seedCatalog(b *fakeBackend) {
	b.seed("categories",
		map[string]any{"id": "c1", "name": "Hand Tools", "slug": "hand-tools", "description": "Wrenches and more", "isActive": true, "createdAt": "2025-01-10T09:00:00Z"},
		map[string]any{"id": "c2", "name": "Power Tools", "slug": "power-tools", "isActive": false, "createdAt": "2025-02-10T09:00:00Z"},
		map[string]any{"id": "c3", "name": "Garden", "slug": "garden", "isActive": true, "createdAt": "2025-03-10T09:00:00Z"},
	)
	b.seed("subcategories",
		map[string]any{"id": "s1", "name": "Wrenches", "categoryId": "c1", "isActive": true},
		map[string]any{"id": "s2", "name": "Orphans", "categoryId": "gone", "isActive": true},
	)
}
