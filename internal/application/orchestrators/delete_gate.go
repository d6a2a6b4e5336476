package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"requisitions/internal/domain/requisition"
)

var (
	ErrNoPendingDelete = errors.New("no pending delete request matches this token")
	ErrMissingID       = errors.New("requisition id is required")
)

// DeleteOutcome says how a pending delete was resolved.
type DeleteOutcome string

const (
	DeleteOutcomeDeleted   DeleteOutcome = "deleted"
	DeleteOutcomeCancelled DeleteOutcome = "cancelled"
)

// Prompt and result texts
const (
	DeletePromptTitle   = "Are you sure?"
	DeletePromptText    = "You won't be able to revert this!"
	DeleteConfirmLabel  = "Yes, delete it!"
	DeleteCancelLabel   = "No, cancel!"
	NoticeDeleted       = "Requisition deleted successfully."
	NoticeDeleteAborted = "Requisition is safe"
)

// RequisitionStoreForDelete defines the store interface needed by the DeleteGate.
type RequisitionStoreForDelete interface {
	Remove(ctx context.Context, id string) ([]requisition.Requisition, error)
}

// DeleteGateDeps holds dependencies for the DeleteGate.
type DeleteGateDeps struct {
	Store      RequisitionStoreForDelete
	GenerateID func() string // prompt tokens; nil means random UUIDs
}

// DeletePrompt is the confirmation question issued for one delete request.
type DeletePrompt struct {
	Token         string
	RequisitionID string
	Title         string
	Text          string
	ConfirmLabel  string
	CancelLabel   string
}

// DeleteResult reports a resolved prompt. Records is nil when nothing was removed.
type DeleteResult struct {
	Outcome       DeleteOutcome
	RequisitionID string
	Notice        string
	Records       []requisition.Requisition
}

// DeleteGate asks for confirmation before a requisition is removed.
// At most one prompt is pending; a new request replaces an unanswered one.
type DeleteGate struct {
	deps    DeleteGateDeps
	pending *DeletePrompt
}

// NewDeleteGate creates a gate with nothing pending.
func NewDeleteGate(deps DeleteGateDeps) *DeleteGate {
	if deps.GenerateID == nil {
		deps.GenerateID = func() string { return uuid.New().String() }
	}
	return &DeleteGate{deps: deps}
}

// Pending returns the unanswered prompt, if any.
func (g *DeleteGate) Pending() (DeletePrompt, bool) {
	if g.pending == nil {
		return DeletePrompt{}, false
	}
	return *g.pending, true
}

// RequestDelete issues a confirmation prompt for id.
// PRE: id is non-empty
// POST: the returned prompt is the only pending one; the store is untouched
func (g *DeleteGate) RequestDelete(id string) (DeletePrompt, error) {
	if id == "" {
		return DeletePrompt{}, ErrMissingID
	}
	p := DeletePrompt{
		Token:         g.deps.GenerateID(),
		RequisitionID: id,
		Title:         DeletePromptTitle,
		Text:          DeletePromptText,
		ConfirmLabel:  DeleteConfirmLabel,
		CancelLabel:   DeleteCancelLabel,
	}
	g.pending = &p
	return p, nil
}

// ResolveDelete answers the pending prompt.
// PRE: token matches the pending prompt
// POST: the prompt is consumed; the record is removed iff confirmed
func (g *DeleteGate) ResolveDelete(ctx context.Context, token string, confirmed bool) (DeleteResult, error) {
	if g.pending == nil || token == "" || g.pending.Token != token {
		return DeleteResult{}, ErrNoPendingDelete
	}
	id := g.pending.RequisitionID

	if !confirmed {
		g.pending = nil
		slog.Info("requisition_event", "event", "requisition_delete_cancelled", "id", id)
		return DeleteResult{Outcome: DeleteOutcomeCancelled, RequisitionID: id, Notice: NoticeDeleteAborted}, nil
	}

	records, err := g.deps.Store.Remove(ctx, id)
	if err != nil {
		// The prompt stays pending so the user can retry the same answer.
		return DeleteResult{}, fmt.Errorf("remove requisition %s: %w", id, err)
	}
	g.pending = nil
	slog.Info("requisition_event", "event", "requisition_deleted", "id", id)
	return DeleteResult{Outcome: DeleteOutcomeDeleted, RequisitionID: id, Notice: NoticeDeleted, Records: records}, nil
}
