package requisition

import (
	"context"
	"errors"

	domain "requisitions/internal/domain/requisition"
)

// Store errors
var (
	ErrNotFound    = errors.New("requisition not found")
	ErrDuplicateID = errors.New("requisition id already in use")
)

// Store is the authoritative collection of committed requisitions.
// Every mutation returns the full snapshot in display (insertion) order.
// Snapshots are deep copies; callers never hold references into the store.
type Store interface {
	// List returns all requisitions in insertion order.
	List(ctx context.Context) ([]domain.Requisition, error)

	// GetByID returns one requisition.
	// POST: ErrNotFound when no record has the id
	GetByID(ctx context.Context, id string) (domain.Requisition, error)

	// Create assigns a fresh ID and CreatedAt and appends r.
	// PRE: r has passed validation
	// POST: returns the stored record and the new snapshot, one longer than before
	Create(ctx context.Context, r domain.Requisition) (domain.Requisition, []domain.Requisition, error)

	// Replace overwrites the record with the given id in place.
	// ID and CreatedAt are kept from the stored record.
	// POST: no-op when id is absent
	Replace(ctx context.Context, id string, r domain.Requisition) ([]domain.Requisition, error)

	// ToggleEnabled flips the Enabled flag of one record.
	// POST: no-op when id is absent
	ToggleEnabled(ctx context.Context, id string) ([]domain.Requisition, error)

	// Remove deletes the record permanently.
	// POST: no-op when id is absent
	Remove(ctx context.Context, id string) ([]domain.Requisition, error)

	// Seed appends records exactly as given, keeping their IDs and CreatedAt.
	// PRE: records are valid and their IDs are unused
	// POST: records appended in order; ErrDuplicateID on a clash
	Seed(ctx context.Context, records []domain.Requisition) error
}

// Ensure both implementations satisfy Store.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
