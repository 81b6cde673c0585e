package listview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/DukeRupert/catalog-admin/internal/domain"
)

// rowInput is the create/update payload of a row.
type rowInput struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	CategoryID string `json:"categoryId"`
	ImageID    string `json:"imageId"`
}

func (in *rowInput) AttachImage(id string) { in.ImageID = id }

// fakeStore is an in-memory backend for rows. It records every call.
type fakeStore struct {
	mu      sync.Mutex
	items   []row
	nextID  int
	calls   []string
	gate    chan struct{} // when set, List blocks until it can receive
	listErr error
	err     error // returned by writes
	upErr   error
	lastIn  rowInput
}

func newFakeStore(items ...row) *fakeStore {
	return &fakeStore{items: items, nextID: 100}
}

func (s *fakeStore) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeStore) callLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

func (s *fakeStore) count(call string) int {
	n := 0
	for _, c := range s.callLog() {
		if c == call {
			n++
		}
	}
	return n
}

func (s *fakeStore) List(ctx context.Context) (domain.ListResult[row], error) {
	s.record("list")

	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.ListResult[row]{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return domain.ListResult[row]{}, s.listErr
	}
	return domain.ListResult[row]{Items: slices.Clone(s.items), Total: len(s.items)}, nil
}

func (s *fakeStore) Create(_ context.Context, payload any) (row, error) {
	s.record("create")
	in := payload.(*rowInput)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastIn = *in
	if s.err != nil {
		return row{}, s.err
	}
	s.nextID++
	item := row{ID: fmt.Sprintf("r%d", s.nextID), Name: in.Name}
	if in.CategoryID != "" {
		item.CategoryID = domain.Ptr(in.CategoryID)
	}
	s.items = append(s.items, item)
	return item, nil
}

func (s *fakeStore) Update(_ context.Context, id string, payload any) (row, error) {
	s.record("update")
	in := payload.(*rowInput)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastIn = *in
	if s.err != nil {
		return row{}, s.err
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Name = in.Name
			return s.items[i], nil
		}
	}
	return row{}, errors.New("not found")
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.record("delete")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.items = slices.DeleteFunc(s.items, func(r row) bool { return r.ID == id })
	return nil
}

func (s *fakeStore) Upload(_ context.Context, up domain.Upload) (domain.Image, error) {
	s.record("upload")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upErr != nil {
		return domain.Image{}, s.upErr
	}
	return domain.Image{ID: "img-" + up.Filename, URL: "https://cdn/" + up.Filename}, nil
}
