package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	repos "github.com/ram-020998/nexusmerge/internal/data/repos/merge"
	"github.com/ram-020998/nexusmerge/internal/data/repos/testutil"
	"github.com/ram-020998/nexusmerge/internal/domain/merge"
)

func TestClassifyDecisionTable(t *testing.T) {
	cases := []struct {
		vendorCategory   string
		existsInCustomer bool
		customerModified bool
		want             string
	}{
		{merge.CategoryNew, false, false, merge.ClassificationNew},
		{merge.CategoryModified, false, false, merge.ClassificationDeleted},
		{merge.CategoryModified, true, false, merge.ClassificationNoConflict},
		{merge.CategoryModified, true, true, merge.ClassificationConflict},
		{merge.CategoryDeprecated, false, false, merge.ClassificationNoConflict},
		{merge.CategoryDeprecated, true, false, merge.ClassificationNoConflict},
		{merge.CategoryDeprecated, true, true, merge.ClassificationConflict},

		// Don't-care columns fold onto the rows above.
		{merge.CategoryNew, true, true, merge.ClassificationNew},
		{merge.CategoryNew, false, true, merge.ClassificationNew},
		{merge.CategoryModified, false, true, merge.ClassificationDeleted},
		{merge.CategoryDeprecated, false, true, merge.ClassificationNoConflict},
	}
	for _, tc := range cases {
		got, err := Classify(tc.vendorCategory, tc.existsInCustomer, tc.customerModified)
		if err != nil {
			t.Fatalf("Classify(%s, %v, %v): %v", tc.vendorCategory, tc.existsInCustomer, tc.customerModified, err)
		}
		if got != tc.want {
			t.Fatalf("Classify(%s, %v, %v) = %s, want %s", tc.vendorCategory, tc.existsInCustomer, tc.customerModified, got, tc.want)
		}
	}
}

func TestClassifyIsTotalOverReachableInputs(t *testing.T) {
	for _, category := range []string{merge.CategoryNew, merge.CategoryModified, merge.CategoryDeprecated} {
		for _, exists := range []bool{false, true} {
			for _, modified := range []bool{false, true} {
				if _, err := Classify(category, exists, modified); err != nil {
					t.Fatalf("table miss for (%s, %v, %v): %v", category, exists, modified, err)
				}
			}
		}
	}
}

func TestClassifyUnknownCategoryFailsLoudly(t *testing.T) {
	if _, err := Classify("SIDEWAYS", true, false); err == nil {
		t.Fatal("unknown vendor category should not classify")
	}
}

func TestBuildWorkingSetOrdering(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	objectsRepo := repos.NewRegistryObjectRepo(db, log)
	changesRepo := repos.NewChangeRepo(db, log)
	svc := NewClassifierService(log, objectsRepo, changesRepo)

	session := testutil.SeedSession(t, ctx, tx, "MRG-ws-1")
	conflictObj := testutil.SeedRegistryObject(t, ctx, tx, "ws-conflict", "Billing", "interface")
	newObj := testutil.SeedRegistryObject(t, ctx, tx, "ws-new", "Audit", "constant")
	cleanObj := testutil.SeedRegistryObject(t, ctx, tx, "ws-clean", "Lookup", "expression_rule")

	vendorDelta := []*merge.DeltaResult{
		{SessionID: session.ID, ObjectID: cleanObj.ID, Axis: merge.AxisVendor, ChangeCategory: merge.CategoryModified, ChangeType: merge.ChangeTypeModified, VersionChanged: true, ContentChanged: true},
		{SessionID: session.ID, ObjectID: newObj.ID, Axis: merge.AxisVendor, ChangeCategory: merge.CategoryNew, ChangeType: merge.ChangeTypeAdded, VersionChanged: true, ContentChanged: true},
		{SessionID: session.ID, ObjectID: conflictObj.ID, Axis: merge.AxisVendor, ChangeCategory: merge.CategoryModified, ChangeType: merge.ChangeTypeModified, VersionChanged: true, ContentChanged: true},
	}
	customerDelta := []*merge.DeltaResult{
		{SessionID: session.ID, ObjectID: conflictObj.ID, Axis: merge.AxisCustomer, ChangeCategory: merge.CategoryModified, ChangeType: merge.ChangeTypeModified, VersionChanged: true, ContentChanged: true},
	}
	customerObjectIDs := []uuid.UUID{conflictObj.ID, cleanObj.ID}

	changes, err := svc.BuildWorkingSet(ctx, tx, session.ID, vendorDelta, customerDelta, customerObjectIDs)
	if err != nil {
		t.Fatalf("BuildWorkingSet: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("working set size = %d, want 3", len(changes))
	}

	// Conflicts first, then new, then clean merges; display order is 1-based.
	wantOrder := []struct {
		objectID       uuid.UUID
		classification string
	}{
		{conflictObj.ID, merge.ClassificationConflict},
		{newObj.ID, merge.ClassificationNew},
		{cleanObj.ID, merge.ClassificationNoConflict},
	}
	for i, want := range wantOrder {
		got := changes[i]
		if got.ObjectID != want.objectID || got.Classification != want.classification {
			t.Fatalf("position %d = (%s, %s), want (%s, %s)", i, got.ObjectID, got.Classification, want.objectID, want.classification)
		}
		if got.DisplayOrder != i+1 {
			t.Fatalf("position %d display order = %d", i, got.DisplayOrder)
		}
		if got.ReviewStatus != merge.ReviewStatusPending {
			t.Fatalf("new change review status = %s", got.ReviewStatus)
		}
	}
	if changes[0].CustomerChangeType != merge.ChangeTypeModified {
		t.Fatalf("conflict customer change type = %q", changes[0].CustomerChangeType)
	}
	if changes[2].CustomerChangeType != "" {
		t.Fatalf("untouched object customer change type = %q", changes[2].CustomerChangeType)
	}
}

func TestBuildWorkingSetIgnoresCustomerOnlyChanges(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	svc := NewClassifierService(log, repos.NewRegistryObjectRepo(db, log), repos.NewChangeRepo(db, log))

	session := testutil.SeedSession(t, ctx, tx, "MRG-ws-2")
	obj := testutil.SeedRegistryObject(t, ctx, tx, "ws-cust-only", "Tweaked", "interface")

	customerDelta := []*merge.DeltaResult{
		{SessionID: session.ID, ObjectID: obj.ID, Axis: merge.AxisCustomer, ChangeCategory: merge.CategoryModified, ChangeType: merge.ChangeTypeModified, VersionChanged: true, ContentChanged: true},
	}
	changes, err := svc.BuildWorkingSet(ctx, tx, session.ID, nil, customerDelta, []uuid.UUID{obj.ID})
	if err != nil {
		t.Fatalf("BuildWorkingSet: %v", err)
	}
	if len(changes) != 0 {
		t.Fatalf("customer-only change produced %d working set rows", len(changes))
	}
}
