package orchestrators

import (
	"context"
	"testing"

	reqStore "requisitions/internal/adapters/storage/requisition"
	"requisitions/internal/domain/requisition"
)

// The server wires every orchestrator straight from a reqStore.Store.
var (
	_ RequisitionStoreForSeed   = reqStore.Store(nil)
	_ RequisitionStoreForEditor = reqStore.Store(nil)
	_ RequisitionStoreForDelete = reqStore.Store(nil)
	_ RequisitionStoreForToggle = reqStore.Store(nil)
)

// TestSeedRequisitions_AreValid verifies every sample record passes the committed-record rules.
func TestSeedRequisitions_AreValid(t *testing.T) {
	for _, r := range SeedRequisitions(nil) {
		if errs := requisition.Validate(requisition.DraftFrom(r), requisition.DefaultCatalogue()); len(errs) > 0 {
			t.Errorf("%s: %v", r.RequisitionID, errs)
		}
		if r.ID == "" {
			t.Errorf("%s: empty ID", r.RequisitionID)
		}
	}
}

func TestExecuteSeedRequisitions(t *testing.T) {
	store := reqStore.NewMemoryStore(nil, reqNow)
	ctx := context.Background()
	deps := SeedRequisitionsDeps{Store: store, GenerateID: seqIDs("seed")}

	if err := ExecuteSeedRequisitions(ctx, deps); err != nil {
		t.Fatalf("seed: %v", err)
	}
	all, _ := store.List(ctx)
	if len(all) != 2 || all[0].RequisitionID != "REQ001" || all[1].RequisitionID != "REQ002" {
		t.Fatalf("records = %+v", all)
	}
	if !all[0].Enabled || all[1].Enabled {
		t.Error("REQ001 enabled, REQ002 disabled expected")
	}
	if all[1].Quantity != 100 || len(all[1].Items) != 2 {
		t.Errorf("REQ002 = %+v", all[1])
	}

	// Second run is a no-op.
	if err := ExecuteSeedRequisitions(ctx, deps); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	all, _ = store.List(ctx)
	if len(all) != 2 {
		t.Errorf("len after second seed = %d, want 2", len(all))
	}
}
