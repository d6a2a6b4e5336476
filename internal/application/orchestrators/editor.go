package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	reqStore "requisitions/internal/adapters/storage/requisition"
	"requisitions/internal/domain/requisition"
)

// ErrRequisitionNotFound is returned when an edit targets an unknown requisition.
var ErrRequisitionNotFound = errors.New("requisition not found")

// Success notices shown after a commit.
const (
	NoticeAdded   = "Requisition added successfully."
	NoticeUpdated = "Requisition updated successfully."
)

// RequisitionStoreForEditor defines the store interface needed by the Editor.
type RequisitionStoreForEditor interface {
	GetByID(ctx context.Context, id string) (requisition.Requisition, error)
	Create(ctx context.Context, r requisition.Requisition) (requisition.Requisition, []requisition.Requisition, error)
	Replace(ctx context.Context, id string, r requisition.Requisition) ([]requisition.Requisition, error)
}

// EditorDeps holds dependencies for the Editor.
type EditorDeps struct {
	Store     RequisitionStoreForEditor
	Catalogue requisition.Catalogue // zero value means the built-in catalogue
	Notifier  SubmissionNotifier    // optional
}

// SubmitResult is what a successful submit hands back to the shell.
type SubmitResult struct {
	Mode    requisition.Mode
	Record  requisition.Requisition
	Records []requisition.Requisition
	Notice  string
}

// Editor is the draft session: Closed, or Open with exactly one draft.
// It is not safe for concurrent use; callers serialise access.
type Editor struct {
	deps  EditorDeps
	draft *requisition.Draft
}

// NewEditor creates a closed editor.
func NewEditor(deps EditorDeps) *Editor {
	if deps.Catalogue.IsZero() {
		deps.Catalogue = requisition.DefaultCatalogue()
	}
	return &Editor{deps: deps}
}

// Catalogue returns the option lists the editor validates against.
func (e *Editor) Catalogue() requisition.Catalogue {
	return e.deps.Catalogue
}

// IsOpen reports whether a draft is open.
func (e *Editor) IsOpen() bool {
	return e.draft != nil
}

// Current returns a copy of the open draft.
func (e *Editor) Current() (requisition.Draft, bool) {
	if e.draft == nil {
		return requisition.Draft{}, false
	}
	return e.draft.Clone(), true
}

// OpenForCreate opens an empty create-mode draft.
// PRE: editor is Closed
// POST: editor is Open(Create) with Enabled=true and no items
func (e *Editor) OpenForCreate() (requisition.Draft, error) {
	if e.draft != nil {
		return requisition.Draft{}, requisition.ErrDraftAlreadyOpen
	}
	d := requisition.NewDraft()
	e.draft = &d
	return d.Clone(), nil
}

// OpenForEdit opens a draft seeded from a stored requisition.
// PRE: editor is Closed; id names a stored requisition
// POST: editor is Open(Edit) with TargetID=id; the draft's items are a copy
func (e *Editor) OpenForEdit(ctx context.Context, id string) (requisition.Draft, error) {
	if e.draft != nil {
		return requisition.Draft{}, requisition.ErrDraftAlreadyOpen
	}
	r, err := e.deps.Store.GetByID(ctx, id)
	if errors.Is(err, reqStore.ErrNotFound) {
		return requisition.Draft{}, fmt.Errorf("%w: %s", ErrRequisitionNotFound, id)
	}
	if err != nil {
		return requisition.Draft{}, fmt.Errorf("load requisition %s: %w", id, err)
	}
	d := requisition.DraftFrom(r)
	e.draft = &d
	return d.Clone(), nil
}

// Cancel discards the open draft without touching the store.
// PRE: editor is Open
// POST: editor is Closed
func (e *Editor) Cancel() error {
	if e.draft == nil {
		return requisition.ErrNoOpenDraft
	}
	e.draft = nil
	return nil
}

// UpdateField sets one draft buffer.
// PRE: editor is Open
// POST: that field's error is cleared; other errors remain
func (e *Editor) UpdateField(name, value string) (requisition.Draft, error) {
	if e.draft == nil {
		return requisition.Draft{}, requisition.ErrNoOpenDraft
	}
	if err := e.draft.SetField(name, value); err != nil {
		return e.draft.Clone(), err
	}
	return e.draft.Clone(), nil
}

// AppendItem adds a line item to the open draft.
// PRE: editor is Open
// POST: on requisition.ErrInvalidItem the draft's items and errors are unchanged
func (e *Editor) AppendItem(name, quantityRaw string) (requisition.Draft, error) {
	if e.draft == nil {
		return requisition.Draft{}, requisition.ErrNoOpenDraft
	}
	if err := e.draft.AppendItem(name, quantityRaw); err != nil {
		return e.draft.Clone(), err
	}
	return e.draft.Clone(), nil
}

// Submit validates and commits the open draft.
// PRE: editor is Open
// POST: on *requisition.ValidationError the draft stays Open and holds the full error set;
// on success the store holds the record and the editor is Closed;
// an edit whose target is gone returns ErrRequisitionNotFound and the draft stays Open
func (e *Editor) Submit(ctx context.Context) (SubmitResult, error) {
	if e.draft == nil {
		return SubmitResult{}, requisition.ErrNoOpenDraft
	}

	errs := requisition.Validate(*e.draft, e.deps.Catalogue)
	if len(errs) > 0 {
		e.draft.Errors = errs.Clone()
		return SubmitResult{}, &requisition.ValidationError{Errors: errs}
	}

	d := *e.draft
	built := d.Build()
	result := SubmitResult{Mode: d.Mode}

	switch d.Mode {
	case requisition.ModeEdit:
		records, err := e.deps.Store.Replace(ctx, d.TargetID, built)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("replace requisition %s: %w", d.TargetID, err)
		}
		found := false
		for _, r := range records {
			if r.ID == d.TargetID {
				result.Record = r.Clone()
				found = true
				break
			}
		}
		if !found {
			return SubmitResult{}, fmt.Errorf("%w: %s", ErrRequisitionNotFound, d.TargetID)
		}
		result.Records = records
		result.Notice = NoticeUpdated
		slog.Info("requisition_event", "event", "requisition_updated", "id", d.TargetID, "requisition_id", built.RequisitionID)
	default:
		created, records, err := e.deps.Store.Create(ctx, built)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("create requisition: %w", err)
		}
		result.Record = created
		result.Records = records
		result.Notice = NoticeAdded
		slog.Info("requisition_event", "event", "requisition_created", "id", created.ID, "requisition_id", created.RequisitionID, "items", len(created.Items))
	}

	e.draft = nil
	notifyBestEffort(ctx, e.deps.Notifier, result.Mode, result.Record)
	return result, nil
}
