package projections

import (
	"context"

	domain "requisitions/internal/domain/requisition"
)

// RequisitionLister is the read side of the Record Store.
type RequisitionLister interface {
	List(ctx context.Context) ([]domain.Requisition, error)
}
