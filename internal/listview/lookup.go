package listview

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// Table maps foreign-key IDs to display values. It is immutable once built.
type Table struct {
	unknown string
	values  map[string]string
}

// NewTable creates a table whose missing entries display as unknown.
func NewTable(unknown string, values map[string]string) Table {
	return Table{unknown: unknown, values: values}
}

// Get returns the display value for id.
func (t Table) Get(id string) (string, bool) {
	v, ok := t.values[id]
	return v, ok
}

// Display returns the value for id, or the table's "Unknown X" sentinel.
// This is the one place the fallback is applied.
func (t Table) Display(id string) string {
	if v, ok := t.values[id]; ok {
		return v
	}
	if t.unknown == "" {
		return "Unknown"
	}
	return t.unknown
}

// DisplayPtr is Display for a nullable foreign key.
func (t Table) DisplayPtr(id *string) string {
	return t.Display(domain.Deref(id))
}

// Len returns the number of resolved entries.
func (t Table) Len() int { return len(t.values) }

// Lookups holds the tables of one list view by lookup name.
type Lookups map[string]Table

// Table returns the named table. A lookup that was never resolved yields an
// empty table.
func (l Lookups) Table(name string) Table {
	return l[name]
}

// BatchFunc resolves many IDs in one request.
type BatchFunc func(ctx context.Context, ids []string) (map[string]string, error)

// CollectionFunc loads a whole parent collection as id -> display value.
type CollectionFunc func(ctx context.Context) (map[string]string, error)

// Lookup describes one dependent lookup of a primary collection. Exactly one
// of Batch and Collection must be set.
type Lookup[T any] struct {
	Name       string           // table name, e.g. "category"
	Label      string           // used in the warning, e.g. "category names"
	Unknown    string           // sentinel, e.g. "Unknown Category"
	Keys       func(T) []string // foreign keys referenced by an item
	Batch      BatchFunc
	Collection CollectionFunc
}

// Ref is a Keys helper for a single nullable foreign key.
func Ref[T any](field func(T) *string) func(T) []string {
	return func(item T) []string {
		if id := field(item); id != nil {
			return []string{*id}
		}
		return nil
	}
}

type memo struct {
	key   string
	table Table
}

// Resolver runs the dependent lookups of one list view. Successful results
// are memoized on the set of referenced IDs, so an unchanged set issues no
// requests. Failures are not memoized.
type Resolver[T any] struct {
	lookups []Lookup[T]
	logger  *slog.Logger

	mu   sync.Mutex
	memo map[string]memo
}

// NewResolver creates a resolver for the given lookups.
func NewResolver[T any](lookups []Lookup[T], logger *slog.Logger) *Resolver[T] {
	return &Resolver[T]{
		lookups: lookups,
		logger:  logger,
		memo:    make(map[string]memo),
	}
}

// Resolve builds every lookup table for items. Lookups run concurrently and
// soft-fail independently: a failed lookup yields an empty table and a
// *domain.LookupError, never an error that blocks the primary collection.
func (r *Resolver[T]) Resolve(ctx context.Context, items []T) (Lookups, []*domain.LookupError) {
	out := make(Lookups, len(r.lookups))
	if len(r.lookups) == 0 {
		return out, nil
	}

	tables := make([]Table, len(r.lookups))
	failures := make([]*domain.LookupError, len(r.lookups))

	g, gctx := errgroup.WithContext(ctx)
	for i, lk := range r.lookups {
		ids := distinctKeys(items, lk.Keys)
		key := strings.Join(ids, "\x00")

		if cached, ok := r.cached(lk.Name, key); ok {
			tables[i] = cached
			continue
		}

		if len(ids) == 0 {
			tables[i] = NewTable(lk.Unknown, map[string]string{})
			r.store(lk.Name, key, tables[i])
			continue
		}

		g.Go(func() error {
			values, err := r.run(gctx, lk, ids)
			if err != nil {
				r.logger.Warn("lookup failed",
					"lookup", lk.Name,
					"ids", len(ids),
					"error", err,
				)
				metrics.LookupFailed(lk.Name)
				tables[i] = NewTable(lk.Unknown, map[string]string{})
				failures[i] = &domain.LookupError{Lookup: lk.Label, Err: err}
				return nil
			}
			tables[i] = NewTable(lk.Unknown, values)
			r.store(lk.Name, key, tables[i])
			return nil
		})
	}
	// Every goroutine returns nil; failures are collected above.
	_ = g.Wait()

	var errs []*domain.LookupError
	for i, lk := range r.lookups {
		out[lk.Name] = tables[i]
		if failures[i] != nil {
			errs = append(errs, failures[i])
		}
	}
	return out, errs
}

// Invalidate drops memoized tables so the next Resolve refetches them.
func (r *Resolver[T]) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.memo)
}

func (r *Resolver[T]) run(ctx context.Context, lk Lookup[T], ids []string) (map[string]string, error) {
	if lk.Batch != nil {
		return lk.Batch(ctx, ids)
	}
	return lk.Collection(ctx)
}

func (r *Resolver[T]) cached(name, key string) (Table, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.memo[name]
	if !ok || m.key != key {
		return Table{}, false
	}
	return m.table, true
}

func (r *Resolver[T]) store(name, key string, t Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memo[name] = memo{key: key, table: t}
}

// distinctKeys returns the sorted distinct non-empty foreign keys of items.
func distinctKeys[T any](items []T, keys func(T) []string) []string {
	seen := make(map[string]struct{})
	for _, item := range items {
		for _, id := range keys(item) {
			if id != "" {
				seen[id] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
