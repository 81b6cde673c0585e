package listview

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/catalog-admin/internal/api"
	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/metrics"
)

// Backend performs writes against a backend collection.
type Backend[T any] interface {
	Create(ctx context.Context, payload any) (T, error)
	Update(ctx context.Context, id string, payload any) (T, error)
	Delete(ctx context.Context, id string) error
}

// Uploader stores a file and returns the image record the backend created.
type Uploader interface {
	Upload(ctx context.Context, up domain.Upload) (domain.Image, error)
}

// ImageAttacher is a payload that can reference an uploaded image.
type ImageAttacher interface {
	AttachImage(id string)
}

// Validator checks a payload before it reaches the network.
type Validator interface {
	Validate(op string, payload any) error
}

// Reconcile selects how local state catches up after a create or update.
// A mutation uses exactly one strategy.
type Reconcile int

const (
	// ReconcileRefetch re-reads the whole collection.
	ReconcileRefetch Reconcile = iota
	// ReconcilePatch inserts or replaces the returned item by id.
	ReconcilePatch
)

// Mutator wraps create, update and delete calls: local validation first,
// then the optional image upload, then the primary request. Errors are
// *domain.ValidationError or *domain.MutationError.
type Mutator[T any] struct {
	entity   string // singular, e.g. "category"
	backend  Backend[T]
	uploader Uploader
	validate Validator
	logger   *slog.Logger
}

// NewMutator creates a mutator. uploader and validate may be nil.
func NewMutator[T any](entity string, backend Backend[T], uploader Uploader, validate Validator, logger *slog.Logger) *Mutator[T] {
	return &Mutator[T]{
		entity:   entity,
		backend:  backend,
		uploader: uploader,
		validate: validate,
		logger:   logger,
	}
}

// Create validates payload, uploads the image if one is given, and creates
// the record. A failed upload aborts before the create request.
func (m *Mutator[T]) Create(ctx context.Context, payload any, upload *domain.Upload) (T, error) {
	op := m.entity + ".create"
	return m.write(ctx, op, payload, upload, func() (T, error) {
		return m.backend.Create(ctx, payload)
	})
}

// Update is Create for an existing record.
func (m *Mutator[T]) Update(ctx context.Context, id string, payload any, upload *domain.Upload) (T, error) {
	op := m.entity + ".update"
	return m.write(ctx, op, payload, upload, func() (T, error) {
		return m.backend.Update(ctx, id, payload)
	})
}

// Delete removes a record.
func (m *Mutator[T]) Delete(ctx context.Context, id string) error {
	op := m.entity + ".delete"
	if err := m.backend.Delete(ctx, id); err != nil {
		metrics.MutationCompleted(m.entity, "delete", "failed")
		m.logger.Warn("mutation failed", "op", op, "id", id, "error", err)
		return m.mutationError(op, err)
	}
	metrics.MutationCompleted(m.entity, "delete", "ok")
	m.logger.Info("mutation succeeded", "op", op, "id", id)
	return nil
}

func (m *Mutator[T]) write(ctx context.Context, op string, payload any, upload *domain.Upload, send func() (T, error)) (T, error) {
	var zero T
	kind := op[len(m.entity)+1:]

	if m.validate != nil {
		if err := m.validate.Validate(op, payload); err != nil {
			metrics.MutationCompleted(m.entity, kind, "invalid")
			return zero, err
		}
	}

	if upload != nil {
		if err := m.upload(ctx, op, payload, upload); err != nil {
			metrics.MutationCompleted(m.entity, kind, "failed")
			return zero, err
		}
	}

	item, err := send()
	if err != nil {
		metrics.MutationCompleted(m.entity, kind, "failed")
		m.logger.Warn("mutation failed", "op", op, "error", err)
		return zero, m.mutationError(op, err)
	}

	metrics.MutationCompleted(m.entity, kind, "ok")
	m.logger.Info("mutation succeeded", "op", op)
	return item, nil
}

// upload stores the file and attaches the new image ID to payload. Upload
// errors are surfaced with the backend's message unchanged.
func (m *Mutator[T]) upload(ctx context.Context, op string, payload any, up *domain.Upload) error {
	attacher, ok := payload.(ImageAttacher)
	if !ok || m.uploader == nil {
		return &domain.MutationError{
			Op:      op,
			Message: fmt.Sprintf("Images cannot be attached to a %s.", m.entity),
		}
	}

	img, err := m.uploader.Upload(ctx, *up)
	if err != nil {
		metrics.UploadCompleted("failed")
		m.logger.Warn("image upload failed", "op", op, "filename", up.Filename, "error", err)
		msg := api.Message(err)
		if msg == "" {
			msg = "Image upload failed"
		}
		return &domain.MutationError{Op: op, Message: msg, Err: err}
	}
	if img.ID == "" {
		metrics.UploadCompleted("failed")
		return &domain.MutationError{Op: op, Message: "Image upload returned no image ID"}
	}

	metrics.UploadCompleted("ok")
	attacher.AttachImage(img.ID)
	return nil
}

func (m *Mutator[T]) mutationError(op string, err error) *domain.MutationError {
	msg := api.Message(err)
	return &domain.MutationError{
		Op:        op,
		Message:   domain.FriendlyMutationMessage(m.entity, msg),
		Duplicate: domain.IsDuplicateMessage(msg),
		Err:       err,
	}
}
