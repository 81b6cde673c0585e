package handler

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// TemplateRenderer is what handlers render through.
type TemplateRenderer interface {
	// RenderPage renders a full page inside the app layout.
	RenderPage(w http.ResponseWriter, name string, data any)
	// RenderFragment renders one partial for an htmx swap, followed by an
	// out-of-band toast when toast is non-nil.
	RenderFragment(w http.ResponseWriter, name string, data any, toast *ToastData)
}

// ToastData is one toast notification.
type ToastData struct {
	Type        string // success, error, warning, info
	Title       string
	Message     string
	AutoDismiss int // seconds
}

// Renderer holds one isolated template set per page and per partial.
//
// Template tree:
//
//	layouts/app.html        the dashboard shell, defines "app"
//	components/*.html       shared defines (cells, fields, warnings)
//	partials/<name>.html    htmx fragments, each defines "<name>"
//	pages/[<dir>/]<n>.html  pages filling "title" and "content"
//
// Pages are keyed "dashboard" or "resources/index"; partials by base name.
type Renderer struct {
	fsys   fs.FS
	logger *slog.Logger
	reload bool // re-read the tree before every render

	mu        sync.RWMutex
	pages     map[string]*template.Template
	fragments map[string]*template.Template
}

// RendererConfig configures a disk-backed renderer.
type RendererConfig struct {
	TemplatesDir string
	Logger       *slog.Logger
	IsDev        bool // reload templates from disk on every render
}

// NewRenderer reads templates from a directory.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	return newRenderer(os.DirFS(cfg.TemplatesDir), cfg.Logger, cfg.IsDev)
}

// NewRendererFromFS reads templates once from fsys, typically the embedded
// web.Templates tree.
func NewRendererFromFS(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	return newRenderer(fsys, logger, false)
}

func newRenderer(fsys fs.FS, logger *slog.Logger, reload bool) (*Renderer, error) {
	r := &Renderer{fsys: fsys, logger: logger, reload: reload}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Names lists the loaded pages and fragments.
func (r *Renderer) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pages)+len(r.fragments))
	for name := range r.pages {
		names = append(names, name)
	}
	for name := range r.fragments {
		names = append(names, "partials/"+name)
	}
	sort.Strings(names)
	return names
}

func (r *Renderer) load() error {
	components, err := htmlFiles(r.fsys, "components")
	if err != nil {
		return err
	}
	partials, err := htmlFiles(r.fsys, "partials")
	if err != nil {
		return err
	}
	pageFiles, err := htmlFiles(r.fsys, "pages")
	if err != nil {
		return err
	}

	fragments := make(map[string]*template.Template, len(partials))
	for _, file := range partials {
		t, err := template.New("").Funcs(TemplateFuncs()).ParseFS(r.fsys, append([]string{file}, components...)...)
		if err != nil {
			return fmt.Errorf("parse partial %s: %w", file, err)
		}
		fragments[strings.TrimSuffix(path.Base(file), ".html")] = t
	}

	// Pages share the layout plus every component and partial, so a page
	// can embed the list or toast the same way a fragment response does.
	shell, err := template.New("app").Funcs(TemplateFuncs()).ParseFS(r.fsys, "layouts/app.html")
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}
	if shared := append(components, partials...); len(shared) > 0 {
		if shell, err = shell.ParseFS(r.fsys, shared...); err != nil {
			return fmt.Errorf("parse shared templates: %w", err)
		}
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		t, err := shell.Clone()
		if err == nil {
			t, err = t.ParseFS(r.fsys, file)
		}
		if err != nil {
			return fmt.Errorf("parse page %s: %w", file, err)
		}
		pages[strings.TrimSuffix(strings.TrimPrefix(file, "pages/"), ".html")] = t
	}

	r.mu.Lock()
	r.pages, r.fragments = pages, fragments
	r.mu.Unlock()

	r.logger.Debug("templates loaded", "pages", len(pages), "fragments", len(fragments))
	return nil
}

// htmlFiles walks dir for .html files. A missing dir yields none.
func htmlFiles(fsys fs.FS, dir string) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".html") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

func (r *Renderer) get(set func() map[string]*template.Template, name string) (*template.Template, error) {
	if r.reload {
		if err := r.load(); err != nil {
			return nil, err
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := set()[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return t, nil
}

// RenderPage renders a page inside the app layout.
func (r *Renderer) RenderPage(w http.ResponseWriter, name string, data any) {
	t, err := r.get(func() map[string]*template.Template { return r.pages }, name)
	r.write(w, name, t, "app", data, nil, err)
}

// RenderFragment renders a partial, appending an out-of-band toast when
// one is given. Missing toast fields default to an info toast that
// dismisses after five seconds.
func (r *Renderer) RenderFragment(w http.ResponseWriter, name string, data any, toast *ToastData) {
	t, err := r.get(func() map[string]*template.Template { return r.fragments }, name)
	if toast != nil {
		if toast.Type == "" {
			toast.Type = "info"
		}
		if toast.AutoDismiss == 0 {
			toast.AutoDismiss = 5
		}
	}
	r.write(w, name, t, name, data, toast, err)
}

// write buffers the whole response so a failing template never leaves a
// half-written page behind a 200.
func (r *Renderer) write(w http.ResponseWriter, name string, t *template.Template, entry string, data any, toast *ToastData, err error) {
	var buf bytes.Buffer
	if err == nil {
		err = t.ExecuteTemplate(&buf, entry, data)
	}
	if err != nil {
		r.logger.Error("template render failed", "name", name, "error", err)
		http.Error(w, "Something went wrong rendering this page.", http.StatusInternalServerError)
		return
	}

	if toast != nil {
		tt, err := r.get(func() map[string]*template.Template { return r.fragments }, "toast")
		if err == nil {
			err = tt.ExecuteTemplate(&buf, "toast_oob", toast)
		}
		if err != nil {
			r.logger.Error("toast render failed", "error", err)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
