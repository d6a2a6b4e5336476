package requisition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "requisitions/internal/domain/requisition"
)

// MemoryStore keeps requisitions in an ordered slice. It is the reference
// backing for the editor and what tests use.
type MemoryStore struct {
	mu         sync.Mutex
	records    []domain.Requisition
	generateID func() string
	now        func() time.Time
}

// NewMemoryStore creates an empty store.
// Nil generateID defaults to random UUIDs; nil now defaults to time.Now.
func NewMemoryStore(generateID func() string, now func() time.Time) *MemoryStore {
	if generateID == nil {
		generateID = func() string { return uuid.New().String() }
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{generateID: generateID, now: now}
}

// Seed appends records exactly as given, keeping their IDs and CreatedAt.
// PRE: records are valid and their IDs are not already stored
// POST: records appended in order
func (s *MemoryStore) Seed(_ context.Context, records []domain.Requisition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if s.indexOf(r.ID) >= 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		s.records = append(s.records, r.Clone())
	}
	return nil
}

// List returns every requisition in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]domain.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// GetByID retrieves a requisition by its ID.
// PRE: id is non-empty
// POST: returns a copy, or ErrNotFound
func (s *MemoryStore) GetByID(_ context.Context, id string) (domain.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Requisition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.records[i].Clone(), nil
}

// Create assigns an ID and CreatedAt and appends the record.
// PRE: r is valid
// POST: snapshot length grows by one; the new ID differs from every existing ID
func (s *MemoryStore) Create(_ context.Context, r domain.Requisition) (domain.Requisition, []domain.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r = r.Clone()
	r.ID = s.generateID()
	if r.ID == "" || s.indexOf(r.ID) >= 0 {
		return domain.Requisition{}, nil, fmt.Errorf("%w: %q", ErrDuplicateID, r.ID)
	}
	r.CreatedAt = s.now()
	s.records = append(s.records, r)
	return r.Clone(), s.snapshot(), nil
}

// Replace overwrites a record in place, keeping its ID and CreatedAt.
// POST: position unchanged; no-op when id is absent
func (s *MemoryStore) Replace(_ context.Context, id string, r domain.Requisition) ([]domain.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		r = r.Clone()
		r.ID = id
		r.CreatedAt = s.records[i].CreatedAt
		s.records[i] = r
	}
	return s.snapshot(), nil
}

// ToggleEnabled flips Enabled on one record.
// POST: only Enabled changes; no-op when id is absent
func (s *MemoryStore) ToggleEnabled(_ context.Context, id string) ([]domain.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.records[i].Enabled = !s.records[i].Enabled
	}
	return s.snapshot(), nil
}

// Remove deletes a record permanently.
// POST: no-op when id is absent
func (s *MemoryStore) Remove(_ context.Context, id string) ([]domain.Requisition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.records = append(s.records[:i], s.records[i+1:]...)
	}
	return s.snapshot(), nil
}

// indexOf must be called with mu held.
func (s *MemoryStore) indexOf(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) snapshot() []domain.Requisition {
	return domain.CloneAll(s.records)
}
