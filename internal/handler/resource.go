// Package handler contains HTTP handlers for the catalog dashboard.
//
// This file implements the generic list, detail and modal form handlers
// every catalog entity is served by.
package handler

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/DukeRupert/catalog-admin/internal/csrf"
	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/listview"
	"github.com/DukeRupert/catalog-admin/internal/service"
)

// FormErrorKey holds a form-level error in a dialog's error map.
const FormErrorKey = ""

// Badge tones for cells.
const (
	ToneSuccess = "success"
	ToneWarning = "warning"
	ToneDanger  = "danger"
	ToneMuted   = "muted"
)

// ImageMode selects how a resource form handles an image file.
type ImageMode int

const (
	// ImageNone means the form has no file input.
	ImageNone ImageMode = iota
	// ImageAttached uploads the file first and references it from the record.
	ImageAttached
	// ImageIsRecord makes the uploaded file the record itself (images).
	ImageIsRecord
)

// =============================================================================
// Resource Description
// =============================================================================

// Cell is one rendered table or detail value.
type Cell struct {
	Text  string
	Href  string        // optional link
	Image string        // preview URL
	Tone  string        // badge tone; empty renders plain text
	HTML  template.HTML // sanitized rich content
}

// Column describes one table column.
type Column[T any] struct {
	Header  string
	SortKey string // empty for unsortable columns
	Cell    func(T, listview.Lookups) Cell
}

// Detail is one labelled value on a detail page.
type Detail struct {
	Label string
	Cell  Cell
}

// Option is a select or filter choice.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Filter describes the equality filter of a list.
type Filter struct {
	Label   string
	Options func(ctx context.Context) []Option
}

// FormField describes one input of the modal form.
type FormField struct {
	Name     string
	Label    string
	Type     string // text, textarea, number, checkbox, select, tristate, file
	Required bool
	Help     string
	Options  func(ctx context.Context) []Option
}

// Resource describes how one entity is listed, shown and edited.
type Resource[T domain.Item] struct {
	Path       string // e.g. "/categories"
	Title      string // e.g. "Categories"
	Singular   string // e.g. "Category"
	Controller *listview.Controller[T]
	Columns    []Column[T]
	Details    func(T, listview.Lookups) []Detail
	Filter     *Filter
	Fields     []FormField
	Defaults   map[string]string
	Values     func(T) map[string]string
	Parse      func(form url.Values, mode listview.DialogMode) (any, error)
	Label      func(T) string
	NameField  string // field a duplicate-name error is reported on
	Image      ImageMode
	ReadOnly   bool
	OnChange   func() // runs after every successful mutation
}

// =============================================================================
// Template Data Types
// =============================================================================

// NavItem is an entry of the sidebar.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

// HeaderCell is a table header with its sort link.
type HeaderCell struct {
	Label   string
	Href    string // empty when the column cannot be sorted
	Active  bool
	Desc    bool
	SortKey string
}

// Row is a table row.
type Row struct {
	ID    string
	Href  string
	Cells []Cell
}

// PageLink is an entry of the pagination bar.
type PageLink struct {
	Number  int
	Href    string
	Current bool
	Gap     bool
}

// Pagination is the pagination bar.
type Pagination struct {
	Current    int
	TotalPages int
	Filtered   int
	First      int
	Last       int
	PrevHref   string
	NextHref   string
	Links      []PageLink
}

// ListPageData contains data for the generic list page.
type ListPageData struct {
	CurrentPath string
	Nav         []NavItem
	Title       string
	Singular    string
	BasePath    string
	ReturnTo    string // this list with its current view
	View        listview.ViewState
	Headers     []HeaderCell
	Rows        []Row
	Filter      *FilterData
	Pagination  Pagination
	Total       int
	Loaded      bool
	Loading     bool
	Error       string   // fetch failure shown with a retry link
	RetryHref   string
	Warnings    []string // failed lookups
	ReadOnly    bool
	Flash       *Flash
	CSRFToken   string
}

// FilterData is the rendered filter select.
type FilterData struct {
	Label   string
	Options []Option
}

// ShowPageData contains data for the generic detail page.
type ShowPageData struct {
	CurrentPath string
	Nav         []NavItem
	Title       string
	Singular    string
	BasePath    string
	ID          string
	Label       string
	Details     []Detail
	Warnings    []string
	ReadOnly    bool
	Flash       *Flash
	CSRFToken   string
}

// FieldData is a FormField as rendered in the modal.
type FieldData struct {
	FormField
	Value   string
	Error   string
	Choices []Option
}

// FormModalData contains data for the create/edit modal.
type FormModalData struct {
	Title      string
	Action     string
	ReturnTo   string
	Fields     []FieldData
	FormError  string
	Multipart  bool
	Submitting bool
	CSRFToken  string
}

// =============================================================================
// Handler Configuration
// =============================================================================

// Deps are the collaborators shared by every resource handler.
type Deps struct {
	Renderer      TemplateRenderer
	Notifier      *Notifier
	Images        service.ImagePreparer
	MaxUpload     int64
	Nav           func(current string) []NavItem
	Logger        *slog.Logger
	SecureCookies bool
}

// ResourceHandler serves one Resource.
type ResourceHandler[T domain.Item] struct {
	res  Resource[T]
	deps Deps
}

// NewResourceHandler creates a handler for res.
func NewResourceHandler[T domain.Item](res Resource[T], deps Deps) *ResourceHandler[T] {
	if res.NameField == "" {
		res.NameField = "name"
	}
	if deps.MaxUpload <= 0 {
		deps.MaxUpload = service.DefaultMaxUploadBytes
	}
	deps.Logger = deps.Logger.With("resource", res.Path)
	return &ResourceHandler[T]{res: res, deps: deps}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers the resource routes. protect wraps the routes
// that change data.
//
// Routes:
//   - GET    /<path>              -> Index (list, ?refresh=1 refetches)
//   - GET    /<path>/new          -> New (create modal)
//   - POST   /<path>              -> Create
//   - GET    /<path>/{id}         -> Show
//   - GET    /<path>/{id}/edit    -> Edit (edit modal)
//   - POST   /<path>/{id}         -> Update (also PATCH)
//   - DELETE /<path>/{id}         -> Delete (also POST /<path>/{id}/delete)
func (h *ResourceHandler[T]) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	p := h.res.Path
	mux.HandleFunc("GET "+p, h.Index)
	mux.HandleFunc("GET "+p+"/{id}", h.Show)
	if h.res.ReadOnly {
		return
	}
	mux.HandleFunc("GET "+p+"/new", h.New)
	mux.HandleFunc("GET "+p+"/{id}/edit", h.Edit)
	mux.Handle("POST "+p, protect(http.HandlerFunc(h.Create)))
	mux.Handle("POST "+p+"/{id}", protect(http.HandlerFunc(h.Update)))
	mux.Handle("PATCH "+p+"/{id}", protect(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE "+p+"/{id}", protect(http.HandlerFunc(h.Delete)))
	mux.Handle("POST "+p+"/{id}/delete", protect(http.HandlerFunc(h.Delete)))
}

// =============================================================================
// GET /<path> - List
// =============================================================================

// Index renders the list. htmx requests targeting the list body get only the
// list fragment.
func (h *ResourceHandler[T]) Index(w http.ResponseWriter, r *http.Request) {
	ctrl := h.res.Controller
	ctx := r.Context()

	// Fetch failures are kept in the snapshot and rendered inline
	if r.URL.Query().Get("refresh") == "1" {
		ctrl.Invalidate()
		_ = ctrl.Refresh(ctx)
	} else {
		_ = ctrl.EnsureLoaded(ctx)
	}

	data := h.listData(w, r, listview.ParseView(r.URL.Query()))

	if isHTMX(r) && r.Header.Get("HX-Target") == "list" {
		// The fragment has no toast container of its own.
		var toast *ToastData
		if data.Flash != nil {
			toast = &ToastData{Type: data.Flash.Type, Message: data.Flash.Message}
		}
		h.deps.Renderer.RenderFragment(w, "list", data, toast)
		return
	}
	h.deps.Renderer.RenderPage(w, "resources/index", data)
}

func (h *ResourceHandler[T]) listData(w http.ResponseWriter, r *http.Request, view listview.ViewState) ListPageData {
	page, snap := h.res.Controller.Present(view)
	view = page.View

	data := ListPageData{
		CurrentPath: r.URL.Path,
		Nav:         h.nav(),
		Title:       h.res.Title,
		Singular:    h.res.Singular,
		BasePath:    h.res.Path,
		ReturnTo:    h.href(view),
		View:        view,
		Total:       snap.Total,
		Loaded:      snap.Loaded,
		Loading:     h.res.Controller.Loading(),
		RetryHref:   h.res.Path + "?refresh=1",
		ReadOnly:    h.res.ReadOnly,
		Flash:       h.deps.Notifier.Pop(r.Context()),
		CSRFToken:   csrf.EnsureToken(w, r, h.deps.SecureCookies),
	}
	if snap.Err != nil {
		data.Error = snap.Err.Message
	}
	for _, warning := range snap.Warnings {
		data.Warnings = append(data.Warnings, warning.Message())
	}

	for _, col := range h.res.Columns {
		hc := HeaderCell{Label: col.Header, SortKey: col.SortKey}
		if col.SortKey != "" {
			hc.Href = h.href(view.ToggleSort(col.SortKey).WithPage(1))
			hc.Active = view.SortKey == col.SortKey
			hc.Desc = hc.Active && view.SortDir == listview.Desc
		}
		data.Headers = append(data.Headers, hc)
	}

	for _, item := range page.Items {
		row := Row{ID: item.ItemID(), Href: h.itemPath(item.ItemID())}
		for _, col := range h.res.Columns {
			row.Cells = append(row.Cells, col.Cell(item, snap.Lookups))
		}
		data.Rows = append(data.Rows, row)
	}

	if h.res.Filter != nil {
		fd := &FilterData{Label: h.res.Filter.Label}
		fd.Options = append(fd.Options, Option{Value: listview.FilterAll, Label: "All", Selected: view.Filter == listview.FilterAll})
		for _, opt := range h.res.Filter.Options(r.Context()) {
			opt.Selected = opt.Value == view.Filter
			fd.Options = append(fd.Options, opt)
		}
		data.Filter = fd
	}

	data.Pagination = Pagination{
		Current:    view.Page,
		TotalPages: page.TotalPages,
		Filtered:   page.Filtered,
		First:      page.FirstIndex(),
		Last:       page.LastIndex(),
	}
	if page.HasPrev() {
		data.Pagination.PrevHref = h.href(view.WithPage(page.PrevPage()))
	}
	if page.HasNext() {
		data.Pagination.NextHref = h.href(view.WithPage(page.NextPage()))
	}
	for _, n := range page.Range() {
		if n < 0 {
			data.Pagination.Links = append(data.Pagination.Links, PageLink{Gap: true})
			continue
		}
		data.Pagination.Links = append(data.Pagination.Links, PageLink{
			Number:  n,
			Href:    h.href(view.WithPage(n)),
			Current: n == view.Page,
		})
	}

	return data
}

// =============================================================================
// GET /<path>/{id} - Show
// =============================================================================

// Show renders the detail page of one record.
func (h *ResourceHandler[T]) Show(w http.ResponseWriter, r *http.Request) {
	item, ok := h.find(w, r)
	if !ok {
		return
	}
	snap := h.res.Controller.Snapshot()

	data := ShowPageData{
		CurrentPath: r.URL.Path,
		Nav:         h.nav(),
		Title:       h.res.Title,
		Singular:    h.res.Singular,
		BasePath:    h.res.Path,
		ID:          item.ItemID(),
		Label:       h.res.Label(item),
		Details:     h.res.Details(item, snap.Lookups),
		ReadOnly:    h.res.ReadOnly,
		Flash:       h.deps.Notifier.Pop(r.Context()),
		CSRFToken:   csrf.EnsureToken(w, r, h.deps.SecureCookies),
	}
	for _, warning := range snap.Warnings {
		data.Warnings = append(data.Warnings, warning.Message())
	}

	h.deps.Renderer.RenderPage(w, "resources/show", data)
}

// =============================================================================
// GET /<path>/new and /<path>/{id}/edit - Modal Forms
// =============================================================================

// New renders the empty create modal.
func (h *ResourceHandler[T]) New(w http.ResponseWriter, r *http.Request) {
	var dialog listview.Dialog
	dialog.OpenCreate(h.res.Defaults)
	h.renderModal(w, r, &dialog)
}

// Edit renders the edit modal prefilled with the record.
func (h *ResourceHandler[T]) Edit(w http.ResponseWriter, r *http.Request) {
	item, ok := h.find(w, r)
	if !ok {
		return
	}
	var dialog listview.Dialog
	dialog.OpenEdit(item.ItemID(), h.res.Values(item))
	h.renderModal(w, r, &dialog)
}

func (h *ResourceHandler[T]) renderModal(w http.ResponseWriter, r *http.Request, dialog *listview.Dialog) {
	data := FormModalData{
		Title:      "New " + strings.ToLower(h.res.Singular),
		Action:     h.res.Path,
		ReturnTo:   h.returnTo(r),
		FormError:  dialog.Error(FormErrorKey),
		Multipart:  h.res.Image != ImageNone,
		Submitting: dialog.Submitting(),
		CSRFToken:  csrf.EnsureToken(w, r, h.deps.SecureCookies),
	}
	if dialog.Mode == listview.ModeEdit {
		data.Title = "Edit " + strings.ToLower(h.res.Singular)
		data.Action = h.itemPath(dialog.TargetID)
	}

	for _, f := range h.fields(dialog.Mode) {
		fd := FieldData{FormField: f, Value: dialog.Value(f.Name), Error: dialog.Error(f.Name)}
		if f.Options != nil {
			for _, opt := range f.Options(r.Context()) {
				opt.Selected = opt.Value == fd.Value
				fd.Choices = append(fd.Choices, opt)
			}
		}
		data.Fields = append(data.Fields, fd)
	}

	h.deps.Renderer.RenderFragment(w, "form_modal", data, nil)
}

// fields returns the form fields for mode. The file input of a record that
// is itself an image only appears on create.
func (h *ResourceHandler[T]) fields(mode listview.DialogMode) []FormField {
	fields := h.res.Fields
	switch {
	case h.res.Image == ImageAttached:
		fields = append(fields[:len(fields):len(fields)], FormField{Name: "image", Label: "Image", Type: "file", Help: "JPEG, PNG, GIF or WebP"})
	case h.res.Image == ImageIsRecord && mode == listview.ModeCreate:
		fields = append([]FormField{{Name: "image", Label: "Image", Type: "file", Required: true}}, fields...)
	}
	return fields
}

// =============================================================================
// POST /<path> and /<path>/{id} - Create and Update
// =============================================================================

// Create processes the create modal.
func (h *ResourceHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	var dialog listview.Dialog
	dialog.OpenCreate(nil)
	h.submit(w, r, &dialog)
}

// Update processes the edit modal.
func (h *ResourceHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	var dialog listview.Dialog
	dialog.OpenEdit(r.PathValue("id"), nil)
	h.submit(w, r, &dialog)
}

func (h *ResourceHandler[T]) submit(w http.ResponseWriter, r *http.Request, dialog *listview.Dialog) {
	ctx := r.Context()
	if err := dialog.Submit(); err != nil {
		ErrorResponse(w, r, h.deps.Logger, domain.Errorf(domain.ECONFLICT, "", "This form is already being submitted"))
		return
	}

	upload, err := h.readForm(w, r, dialog)
	if err != nil {
		dialog.Fail(h.formErrors(err))
		h.renderModal(w, r, dialog)
		return
	}

	payload, err := h.res.Parse(r.PostForm, dialog.Mode)
	if err != nil {
		dialog.Fail(h.formErrors(err))
		h.renderModal(w, r, dialog)
		return
	}
	payload = service.PrepareInput(payload)

	if h.res.Image == ImageIsRecord && dialog.Mode == listview.ModeCreate {
		if upload == nil {
			dialog.Fail(map[string]string{"image": "Please choose an image to upload"})
			h.renderModal(w, r, dialog)
			return
		}
		upload.AltText = strings.TrimSpace(r.PostFormValue("altText"))
		payload, upload = upload, nil
	}

	var (
		item T
		verb string
	)
	if dialog.Mode == listview.ModeCreate {
		verb = "created"
		item, err = h.res.Controller.Create(ctx, payload, upload)
	} else {
		verb = "updated"
		item, err = h.res.Controller.Update(ctx, dialog.TargetID, payload, upload)
	}
	if err != nil {
		dialog.Fail(h.formErrors(err))
		h.renderModal(w, r, dialog)
		return
	}

	dialog.Succeed()
	if h.res.OnChange != nil {
		h.res.OnChange()
	}

	h.deps.Notifier.Success(ctx, fmt.Sprintf("%s %q %s.", h.res.Singular, h.res.Label(item), verb))
	h.redirect(w, r, h.returnTo(r))
}

// readForm parses the submitted form into dialog values and prepares the
// uploaded image, if any.
func (h *ResourceHandler[T]) readForm(w http.ResponseWriter, r *http.Request, dialog *listview.Dialog) (*domain.Upload, error) {
	const op = "form.read"

	if h.res.Image != ImageNone {
		r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxUpload+1<<20)
		if err := r.ParseMultipartForm(h.deps.MaxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, &domain.Error{Code: domain.ETOOLARGE, Op: op, Message: "The upload is too large"}
			}
			return nil, domain.Invalid(op, "Invalid form data")
		}
	}
	if err := r.ParseForm(); err != nil {
		return nil, domain.Invalid(op, "Invalid form data")
	}

	for _, f := range h.fields(dialog.Mode) {
		if f.Type == "file" {
			continue
		}
		dialog.Values[f.Name] = strings.TrimSpace(r.PostFormValue(f.Name))
	}

	if h.res.Image == ImageNone || r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewValidationError(op, "image", "The image could not be read")
	}
	defer file.Close()
	if header.Size == 0 && header.Filename == "" {
		return nil, nil
	}

	upload, err := h.deps.Images.Prepare(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		return nil, domain.NewValidationError(op, "image", domain.ErrorMessage(err))
	}
	return upload, nil
}

// formErrors turns a failed submission into dialog errors: field messages
// for validation failures and duplicate names, a form-level message
// otherwise.
func (h *ResourceHandler[T]) formErrors(err error) map[string]string {
	if fields := domain.FieldErrors(err); fields != nil {
		return fields
	}
	var me *domain.MutationError
	if errors.As(err, &me) && me.Duplicate {
		return map[string]string{h.res.NameField: me.Message}
	}
	return map[string]string{FormErrorKey: domain.ErrorMessage(err)}
}

// =============================================================================
// DELETE /<path>/{id} - Delete
// =============================================================================

// Delete removes a record and returns to the list. The outcome is reported
// as a toast.
func (h *ResourceHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	label := id
	if item, ok := h.res.Controller.Find(id); ok {
		label = h.res.Label(item)
	}

	if err := h.res.Controller.Delete(ctx, id); err != nil {
		h.deps.Notifier.Error(ctx, domain.ErrorMessage(err))
	} else {
		if h.res.OnChange != nil {
			h.res.OnChange()
		}
		h.deps.Notifier.Success(ctx, fmt.Sprintf("%s %q deleted.", h.res.Singular, label))
	}

	h.redirect(w, r, h.returnTo(r))
}

// =============================================================================
// Helpers
// =============================================================================

func (h *ResourceHandler[T]) find(w http.ResponseWriter, r *http.Request) (T, bool) {
	ctrl := h.res.Controller
	id := r.PathValue("id")

	if err := ctrl.EnsureLoaded(r.Context()); err != nil {
		ErrorResponse(w, r, h.deps.Logger, err)
		var zero T
		return zero, false
	}
	item, ok := ctrl.Find(id)
	if !ok {
		ErrorResponse(w, r, h.deps.Logger, domain.NotFound(ctrl.Entity()+".get", h.res.Singular, id))
	}
	return item, ok
}

func (h *ResourceHandler[T]) nav() []NavItem {
	if h.deps.Nav == nil {
		return nil
	}
	return h.deps.Nav(h.res.Path)
}

func (h *ResourceHandler[T]) itemPath(id string) string {
	return h.res.Path + "/" + url.PathEscape(id)
}

func (h *ResourceHandler[T]) href(view listview.ViewState) string {
	if q := view.Encode(); q != "" {
		return h.res.Path + "?" + q
	}
	return h.res.Path
}

// returnTo is the list URL to go back to after a form or delete. Only paths
// under the resource are accepted.
func (h *ResourceHandler[T]) returnTo(r *http.Request) string {
	target := r.FormValue("return")
	if target == "" {
		return h.res.Path
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || u.Path != h.res.Path {
		return h.res.Path
	}
	return u.RequestURI()
}

// redirect navigates after a mutation. htmx requests get HX-Redirect, others
// a 303.
func (h *ResourceHandler[T]) redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
