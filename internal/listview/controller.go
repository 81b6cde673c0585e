package listview

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/metrics"
)

// Snapshot is an immutable view of a controller's state. Callers must not
// modify Items.
type Snapshot[T any] struct {
	Items     []T
	Total     int
	Lookups   Lookups
	Err       *domain.FetchError    // last fetch failure, nil after a success
	Warnings  []*domain.LookupError // soft-failed lookups of the last resolve
	Loaded    bool                  // a fetch has succeeded at least once
	FetchedAt time.Time
}

// Options configures a Controller.
type Options[T domain.Item] struct {
	Entity    string // singular, e.g. "category"
	Plural    string // e.g. "categories"
	Source    Source[T]
	Backend   Backend[T] // nil makes the list read-only
	Uploader  Uploader
	Validator Validator
	Lookups   []Lookup[T]
	Config    Config[T]
	Reconcile Reconcile
}

// Controller owns one entity's collection, total and lookup tables. Readers
// get copy-on-write snapshots; writes are serialized. Fetch results that
// arrive after a newer fetch, a mutation or Close are discarded.
type Controller[T domain.Item] struct {
	entity    string
	plural    string
	config    Config[T]
	reconcile Reconcile
	fetcher   *Fetcher[T]
	resolver  *Resolver[T]
	mutator   *Mutator[T]
	logger    *slog.Logger

	mu   sync.RWMutex // guards snap
	snap Snapshot[T]

	writeMu sync.Mutex // serializes mutations
	gen     atomic.Uint64
	closed  atomic.Bool
	stale   atomic.Bool
}

// NewController creates a controller. Nothing is fetched until Refresh.
func NewController[T domain.Item](opts Options[T], logger *slog.Logger) *Controller[T] {
	logger = logger.With("entity", opts.Plural)

	c := &Controller[T]{
		entity:    opts.Entity,
		plural:    opts.Plural,
		config:    opts.Config,
		reconcile: opts.Reconcile,
		fetcher:   NewFetcher(opts.Source, opts.Plural, logger),
		resolver:  NewResolver(opts.Lookups, logger),
		logger:    logger,
		snap:      Snapshot[T]{Items: []T{}, Lookups: Lookups{}},
	}
	if opts.Backend != nil {
		c.mutator = NewMutator(opts.Entity, opts.Backend, opts.Uploader, opts.Validator, logger)
	}
	return c
}

// Entity returns the singular entity name.
func (c *Controller[T]) Entity() string { return c.entity }

// Plural returns the plural entity name.
func (c *Controller[T]) Plural() string { return c.plural }

// Snapshot returns the current state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Loading reports whether a fetch is in flight.
func (c *Controller[T]) Loading() bool {
	return c.fetcher.Loading()
}

// View derives the displayed page for view from the current snapshot.
func (c *Controller[T]) View(view ViewState) Page[T] {
	page, _ := c.Present(view)
	return page
}

// Present is View that also returns the snapshot the page was derived from,
// so cells can be rendered with the same lookup tables.
func (c *Controller[T]) Present(view ViewState) (Page[T], Snapshot[T]) {
	snap := c.Snapshot()
	return Apply(snap.Items, snap.Lookups, view, c.config), snap
}

// Find returns the item with id from the current snapshot.
func (c *Controller[T]) Find(id string) (T, bool) {
	snap := c.Snapshot()
	i := slices.IndexFunc(snap.Items, func(item T) bool { return item.ItemID() == id })
	if i < 0 {
		var zero T
		return zero, false
	}
	return snap.Items[i], true
}

// EnsureLoaded fetches if nothing has been loaded yet or the controller was
// invalidated.
func (c *Controller[T]) EnsureLoaded(ctx context.Context) error {
	if snap := c.Snapshot(); snap.Loaded && !c.stale.Load() {
		return nil
	}
	return c.Refresh(ctx)
}

// detach keeps ctx's values (request ID) but drops its cancellation. The
// snapshot is shared by every viewer, so the request that happened to
// trigger a fetch going away must not publish a failure. The API client's
// timeout still bounds each call; Close still discards the result.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// Refresh fetches the collection, resolves its lookups and publishes the
// result unless a newer fetch or mutation has happened meanwhile. The
// returned error is a *domain.FetchError; lookup failures are only reported
// as snapshot warnings.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	if c.closed.Load() {
		return nil
	}
	ctx = detach(ctx)
	gen := c.gen.Add(1)
	c.stale.Store(false)

	result, err := c.fetcher.Fetch(ctx)
	if err != nil {
		var fetchErr *domain.FetchError
		if !errors.As(err, &fetchErr) {
			fetchErr = &domain.FetchError{Entity: c.plural, Message: domain.MsgUnexpected, Err: err}
		}
		c.commit(gen, func(s *Snapshot[T]) {
			s.Err = fetchErr
		})
		return fetchErr
	}

	lookups, warnings := c.resolver.Resolve(ctx, result.Items)

	c.commit(gen, func(s *Snapshot[T]) {
		s.Items = result.Items
		s.Total = result.Total
		s.Lookups = lookups
		s.Err = nil
		s.Warnings = warnings
		s.Loaded = true
		s.FetchedAt = time.Now()
	})
	return nil
}

// commit applies update if gen is still the latest generation.
func (c *Controller[T]) commit(gen uint64, update func(*Snapshot[T])) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() || c.gen.Load() != gen {
		metrics.FetchCompleted(c.plural, "stale")
		c.logger.Debug("discarding stale fetch result", "generation", gen)
		return false
	}

	next := c.snap
	update(&next)
	c.snap = next
	return true
}

// Create creates an item and reconciles local state with the configured
// strategy.
func (c *Controller[T]) Create(ctx context.Context, payload any, upload *domain.Upload) (T, error) {
	if err := c.writable("create"); err != nil {
		var zero T
		return zero, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	item, err := c.mutator.Create(ctx, payload, upload)
	if err != nil {
		return item, err
	}

	if c.reconcile == ReconcilePatch {
		c.patch(ctx, func(s *Snapshot[T]) {
			s.Items = append(slices.Clip(s.Items), item)
			s.Total++
		})
		return item, nil
	}
	c.refetch(ctx)
	return item, nil
}

// Update updates an item and reconciles local state with the configured
// strategy.
func (c *Controller[T]) Update(ctx context.Context, id string, payload any, upload *domain.Upload) (T, error) {
	if err := c.writable("update"); err != nil {
		var zero T
		return zero, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	item, err := c.mutator.Update(ctx, id, payload, upload)
	if err != nil {
		return item, err
	}

	if c.reconcile == ReconcilePatch {
		c.patch(ctx, func(s *Snapshot[T]) {
			items := slices.Clone(s.Items)
			for i := range items {
				if items[i].ItemID() == id {
					items[i] = item
				}
			}
			s.Items = items
		})
		return item, nil
	}
	c.refetch(ctx)
	return item, nil
}

// Delete deletes an item. On success the item is removed locally and the
// total drops by one; on failure local state is untouched.
func (c *Controller[T]) Delete(ctx context.Context, id string) error {
	if err := c.writable("delete"); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.mutator.Delete(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return nil
	}
	c.gen.Add(1)
	next := c.snap
	next.Items = slices.DeleteFunc(slices.Clone(next.Items), func(item T) bool {
		return item.ItemID() == id
	})
	if next.Loaded {
		next.Total = max(next.Total-1, 0)
	}
	c.snap = next
	return nil
}

// patch applies a local update after a mutation, invalidating in-flight
// fetches, then resolves lookups for any newly referenced IDs.
func (c *Controller[T]) patch(ctx context.Context, update func(*Snapshot[T])) {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return
	}
	gen := c.gen.Add(1)
	next := c.snap
	update(&next)
	c.snap = next
	items := next.Items
	c.mu.Unlock()

	lookups, warnings := c.resolver.Resolve(detach(ctx), items)
	c.commit(gen, func(s *Snapshot[T]) {
		s.Lookups = lookups
		s.Warnings = warnings
	})
}

// refetch reloads after a successful mutation. A failed reload is recorded
// in the snapshot but does not fail the mutation.
func (c *Controller[T]) refetch(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("reload after mutation failed", "error", err)
	}
}

func (c *Controller[T]) writable(kind string) error {
	if c.mutator == nil {
		return domain.Errorf(domain.EFORBIDDEN, c.entity+"."+kind, "%s records are read-only", c.entity)
	}
	return nil
}

// Close makes every in-flight result stale. The controller keeps serving its
// last snapshot but never changes again.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed.Store(true)
	c.gen.Add(1)
}

// Invalidate forgets memoized lookup tables and makes the next EnsureLoaded
// fetch again. Used when a parent collection has changed.
func (c *Controller[T]) Invalidate() {
	c.resolver.Invalidate()
	c.stale.Store(true)
}
