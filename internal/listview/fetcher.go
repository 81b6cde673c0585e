package listview

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/DukeRupert/catalog-admin/internal/api"
	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/metrics"
)

// Source lists a backend collection.
type Source[T any] interface {
	List(ctx context.Context) (domain.ListResult[T], error)
}

// Fetcher reads a primary collection and converts every failure to a
// *domain.FetchError.
type Fetcher[T any] struct {
	source   Source[T]
	entity   string // plural, e.g. "categories"
	logger   *slog.Logger
	inFlight atomic.Int32
}

// NewFetcher creates a fetcher for entity.
func NewFetcher[T any](source Source[T], entity string, logger *slog.Logger) *Fetcher[T] {
	return &Fetcher[T]{source: source, entity: entity, logger: logger}
}

// Fetch reads the collection. Calls may overlap; none is cancelled by
// another.
func (f *Fetcher[T]) Fetch(ctx context.Context) (result domain.ListResult[T], err error) {
	f.inFlight.Add(1)
	defer f.inFlight.Add(-1)

	// A panicking source must not take the view down with it.
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("collection fetch panicked", "entity", f.entity, "panic", r)
			result = domain.ListResult[T]{}
			err = &domain.FetchError{Entity: f.entity, Message: domain.MsgUnexpected}
		}
	}()

	result, err = f.source.List(ctx)
	if err != nil {
		f.logger.Warn("collection fetch failed", "entity", f.entity, "error", err)
		metrics.FetchCompleted(f.entity, "error")
		return domain.ListResult[T]{}, &domain.FetchError{
			Entity:  f.entity,
			Message: f.message(err),
			Err:     err,
		}
	}

	if result.Items == nil {
		result.Items = []T{}
	}
	metrics.FetchCompleted(f.entity, "ok")
	return result, nil
}

// Loading reports whether a fetch is in flight.
func (f *Fetcher[T]) Loading() bool {
	return f.inFlight.Load() > 0
}

// message prefers the backend's own message. Envelope failures fall back to
// "Failed to fetch <entity>", everything else to the generic message.
func (f *Fetcher[T]) message(err error) string {
	if msg := api.Message(err); msg != "" {
		return msg
	}
	if api.IsEnvelope(err) {
		return "Failed to fetch " + f.entity
	}
	return domain.MsgUnexpected
}
