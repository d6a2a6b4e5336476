package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"requisitions/internal/domain/requisition"
)

// Toggle notices
const (
	NoticeEnabled  = "Requisition enabled."
	NoticeDisabled = "Requisition disabled."
)

// RequisitionStoreForToggle defines the store interface needed by ToggleRequisition.
type RequisitionStoreForToggle interface {
	ToggleEnabled(ctx context.Context, id string) ([]requisition.Requisition, error)
}

// ToggleRequisitionDeps holds dependencies for ToggleRequisition.
type ToggleRequisitionDeps struct {
	Store RequisitionStoreForToggle
}

// ToggleResult carries the new snapshot. Found is false when id matched nothing.
type ToggleResult struct {
	Records []requisition.Requisition
	Enabled bool
	Found   bool
	Notice  string
}

// ExecuteToggleRequisition flips a requisition's enabled flag outside any draft.
// PRE: id is non-empty
// POST: only Enabled changes on the matching record; unknown id is a no-op
func ExecuteToggleRequisition(ctx context.Context, id string, deps ToggleRequisitionDeps) (ToggleResult, error) {
	if id == "" {
		return ToggleResult{}, ErrMissingID
	}
	records, err := deps.Store.ToggleEnabled(ctx, id)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("toggle requisition %s: %w", id, err)
	}

	result := ToggleResult{Records: records}
	for _, r := range records {
		if r.ID != id {
			continue
		}
		result.Found = true
		result.Enabled = r.Enabled
		result.Notice = NoticeDisabled
		if r.Enabled {
			result.Notice = NoticeEnabled
		}
		slog.Info("requisition_event", "event", "requisition_toggled", "id", id, "enabled", r.Enabled)
		break
	}
	return result, nil
}
