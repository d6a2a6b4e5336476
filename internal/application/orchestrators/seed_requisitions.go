package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"requisitions/internal/domain/requisition"
)

// RequisitionStoreForSeed defines the store interface needed by SeedRequisitions.
type RequisitionStoreForSeed interface {
	List(ctx context.Context) ([]requisition.Requisition, error)
	Seed(ctx context.Context, records []requisition.Requisition) error
}

// SeedRequisitionsDeps holds dependencies for SeedRequisitions.
type SeedRequisitionsDeps struct {
	Store      RequisitionStoreForSeed
	GenerateID func() string // nil means random UUIDs
}

// SeedRequisitions returns the two sample requisitions the editor starts with.
func SeedRequisitions(generateID func() string) []requisition.Requisition {
	if generateID == nil {
		generateID = func() string { return uuid.New().String() }
	}
	return []requisition.Requisition{
		{
			ID:            generateID(),
			RequisitionID: "REQ001",
			Date:          "2025-09-01",
			Department:    requisition.DepartmentIT,
			Employee:      requisition.EmployeeAli,
			Requirement:   requisition.RequirementBulk,
			Category:      requisition.CategoryElectronics,
			Details:       "High-performance laptops for development team",
			Items:         []requisition.LineItem{{Name: "Dell XPS 15", Quantity: 5}},
			Quantity:      5,
			Enabled:       true,
			CreatedAt:     time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:            generateID(),
			RequisitionID: "REQ002",
			Date:          "2025-09-15",
			Department:    requisition.DepartmentHR,
			Employee:      requisition.EmployeeAyesha,
			Requirement:   requisition.RequirementRegular,
			Category:      requisition.CategoryStationery,
			Details:       "Stationery for new hires",
			Items: []requisition.LineItem{
				{Name: "Pens", Quantity: 50},
				{Name: "Notebooks", Quantity: 50},
			},
			Quantity:  100,
			Enabled:   false,
			CreatedAt: time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		},
	}
}

// ExecuteSeedRequisitions loads the sample requisitions if the store is empty.
// POST: store unchanged when it already holds records
func ExecuteSeedRequisitions(ctx context.Context, deps SeedRequisitionsDeps) error {
	existing, err := deps.Store.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil // Already seeded
	}

	records := SeedRequisitions(deps.GenerateID)
	if err := deps.Store.Seed(ctx, records); err != nil {
		return fmt.Errorf("seed requisitions: %w", err)
	}
	slog.Info("seed_event", "event", "requisitions_seeded", "requisitions", len(records))
	return nil
}
