package requisition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"requisitions/internal/adapters/storage"
	domain "requisitions/internal/domain/requisition"
)

const selectColumns = "id, requisition_id, date, department, employee, requirement, category, details, quantity, enabled, created_at"

// SQLiteStore implements Store on the requisition and requisition_item tables.
// Display order is the position column, assigned on insert and never rewritten.
type SQLiteStore struct {
	db         storage.SQLDB
	generateID func() string
	now        func() time.Time
}

// NewSQLiteStore creates a SQLite-backed store.
// PRE: db has had storage.InitDB applied
func NewSQLiteStore(db storage.SQLDB, generateID func() string, now func() time.Time) *SQLiteStore {
	if generateID == nil {
		generateID = func() string { return uuid.New().String() }
	}
	if now == nil {
		now = time.Now
	}
	return &SQLiteStore{db: db, generateID: generateID, now: now}
}

// List retrieves every requisition with its items, in position order.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Requisition, error) {
	results, err := s.listRows(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.loadItems(ctx)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if its, ok := items[results[i].ID]; ok {
			results[i].Items = its
		}
	}
	return results, nil
}

// GetByID retrieves a requisition by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Requisition, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM requisition WHERE id = ?", id)
	r, err := scanRequisition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Requisition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return domain.Requisition{}, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, quantity FROM requisition_item WHERE requisition_id = ? ORDER BY position", id)
	if err != nil {
		return domain.Requisition{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.LineItem
		if err := rows.Scan(&it.Name, &it.Quantity); err != nil {
			return domain.Requisition{}, err
		}
		r.Items = append(r.Items, it)
	}
	return r, rows.Err()
}

// Seed inserts records exactly as given, keeping their IDs and CreatedAt.
// PRE: records are valid
// POST: records appended after any existing rows, in order
func (s *SQLiteStore) Seed(ctx context.Context, records []domain.Requisition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range records {
		if err := insertRequisition(ctx, tx, r); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Create assigns an ID and CreatedAt and appends the record.
// PRE: r is valid
// POST: Row and items persisted at the end of the display order
func (s *SQLiteStore) Create(ctx context.Context, r domain.Requisition) (domain.Requisition, []domain.Requisition, error) {
	r = r.Clone()
	r.ID = s.generateID()
	r.CreatedAt = s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Requisition{}, nil, err
	}
	defer tx.Rollback()

	if err := insertRequisition(ctx, tx, r); err != nil {
		return domain.Requisition{}, nil, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Requisition{}, nil, err
	}

	all, err := s.List(ctx)
	if err != nil {
		return domain.Requisition{}, nil, err
	}
	return r, all, nil
}

// Replace overwrites a record's fields and items, keeping id, position and created_at.
// POST: no-op when id is absent
func (s *SQLiteStore) Replace(ctx context.Context, id string, r domain.Requisition) ([]domain.Requisition, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE requisition SET requisition_id = ?, date = ?, department = ?, employee = ?, requirement = ?,
		category = ?, details = ?, quantity = ?, enabled = ? WHERE id = ?`,
		r.RequisitionID, r.Date, r.Department, r.Employee, r.Requirement,
		r.Category, r.Details, r.Quantity, boolToInt(r.Enabled), id,
	)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		if _, err := tx.ExecContext(ctx, "DELETE FROM requisition_item WHERE requisition_id = ?", id); err != nil {
			return nil, err
		}
		if err := insertItems(ctx, tx, id, r.Items); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.List(ctx)
}

// ToggleEnabled flips the enabled column of one row.
// POST: no-op when id is absent
func (s *SQLiteStore) ToggleEnabled(ctx context.Context, id string) ([]domain.Requisition, error) {
	if _, err := s.db.ExecContext(ctx, "UPDATE requisition SET enabled = 1 - enabled WHERE id = ?", id); err != nil {
		return nil, err
	}
	return s.List(ctx)
}

// Remove deletes a requisition and its items.
// POST: no-op when id is absent
func (s *SQLiteStore) Remove(ctx context.Context, id string) ([]domain.Requisition, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM requisition_item WHERE requisition_id = ?", id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM requisition WHERE id = ?", id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.List(ctx)
}

// listRows reads the requisition rows only; the connection is released before items are loaded.
func (s *SQLiteStore) listRows(ctx context.Context) ([]domain.Requisition, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM requisition ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.Requisition{}
	for rows.Next() {
		r, err := scanRequisition(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) loadItems(ctx context.Context) (map[string][]domain.LineItem, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT requisition_id, name, quantity FROM requisition_item ORDER BY requisition_id, position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string][]domain.LineItem)
	for rows.Next() {
		var reqID string
		var it domain.LineItem
		if err := rows.Scan(&reqID, &it.Name, &it.Quantity); err != nil {
			return nil, err
		}
		items[reqID] = append(items[reqID], it)
	}
	return items, rows.Err()
}

func insertRequisition(ctx context.Context, tx *sql.Tx, r domain.Requisition) error {
	fields := []string{"id", "position", "requisition_id", "date", "department", "employee", "requirement", "category", "details", "quantity", "enabled", "created_at"}
	query := fmt.Sprintf(
		"INSERT INTO requisition (%s) VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM requisition), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		strings.Join(fields, ", "),
	)
	_, err := tx.ExecContext(ctx, query,
		r.ID,
		r.RequisitionID,
		r.Date,
		r.Department,
		r.Employee,
		r.Requirement,
		r.Category,
		r.Details,
		r.Quantity,
		boolToInt(r.Enabled),
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		return err
	}
	return insertItems(ctx, tx, r.ID, r.Items)
}

func insertItems(ctx context.Context, tx *sql.Tx, requisitionID string, items []domain.LineItem) error {
	for i, it := range items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO requisition_item (requisition_id, position, name, quantity) VALUES (?, ?, ?, ?)",
			requisitionID, i, it.Name, it.Quantity,
		); err != nil {
			return err
		}
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRequisition(sc scanner) (domain.Requisition, error) {
	var r domain.Requisition
	var enabled int
	var createdAtStr string
	if err := sc.Scan(
		&r.ID,
		&r.RequisitionID,
		&r.Date,
		&r.Department,
		&r.Employee,
		&r.Requirement,
		&r.Category,
		&r.Details,
		&r.Quantity,
		&enabled,
		&createdAtStr,
	); err != nil {
		return domain.Requisition{}, err
	}
	r.Enabled = enabled != 0
	createdAt, err := parseStoredTime(createdAtStr)
	if err != nil {
		return domain.Requisition{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	r.CreatedAt = createdAt
	r.Items = []domain.LineItem{}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseStoredTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format: %q", value)
}
