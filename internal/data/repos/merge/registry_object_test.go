package merge

import (
	"context"
	"testing"

	"github.com/ram-020998/nexusmerge/internal/data/repos/testutil"
	"github.com/ram-020998/nexusmerge/internal/domain/merge"
)

func TestFindOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewRegistryObjectRepo(db, testutil.Logger(t))

	first, err := repo.FindOrCreate(ctx, tx, &merge.RegistryObject{
		ObjectUUID: "obj-idem-1",
		Name:       "First",
		ObjectType: "constant",
	})
	if err != nil {
		t.Fatalf("first FindOrCreate: %v", err)
	}

	// A later package may carry a different name; the registered row wins.
	second, err := repo.FindOrCreate(ctx, tx, &merge.RegistryObject{
		ObjectUUID: "obj-idem-1",
		Name:       "Renamed",
		ObjectType: "interface",
	})
	if err != nil {
		t.Fatalf("second FindOrCreate: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same object uuid resolved to two rows: %s vs %s", first.ID, second.ID)
	}
	if second.Name != "First" || second.ObjectType != "constant" {
		t.Fatalf("existing row was overwritten: %+v", second)
	}
}

func TestFindOrCreateBatchDedupesInput(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewRegistryObjectRepo(db, testutil.Logger(t))

	out, err := repo.FindOrCreateBatch(ctx, tx, []*merge.RegistryObject{
		{ObjectUUID: "obj-batch-1", Name: "A"},
		{ObjectUUID: "obj-batch-2", Name: "B"},
		{ObjectUUID: "obj-batch-1", Name: "A again"},
	})
	if err != nil {
		t.Fatalf("FindOrCreateBatch: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("resolved %d rows, want 2", len(out))
	}

	var n int64
	if err := tx.Model(&merge.RegistryObject{}).
		Where("object_uuid IN ?", []string{"obj-batch-1", "obj-batch-2"}).
		Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("stored %d rows, want 2", n)
	}
}

func TestUnifyDescriptionOnlyFillsEmpty(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewRegistryObjectRepo(db, testutil.Logger(t))

	obj := testutil.SeedRegistryObject(t, ctx, tx, "obj-desc-1", "Thing", "constant")

	if err := repo.UnifyDescription(ctx, tx, obj.ID, "first description"); err != nil {
		t.Fatalf("UnifyDescription: %v", err)
	}
	if err := repo.UnifyDescription(ctx, tx, obj.ID, "second description"); err != nil {
		t.Fatalf("second UnifyDescription: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, obj.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Description != "first description" {
		t.Fatalf("description = %q, want the first one to stick", got.Description)
	}
}

func TestDeleteOrphansSparesMembers(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewRegistryObjectRepo(db, testutil.Logger(t))

	session := testutil.SeedSession(t, ctx, tx, "MRG-orphans-1")
	pkg := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleBase)

	kept := testutil.SeedRegistryObject(t, ctx, tx, "obj-orphan-kept", "Kept", "constant")
	orphan := testutil.SeedRegistryObject(t, ctx, tx, "obj-orphan-gone", "Gone", "constant")
	testutil.SeedMembership(t, ctx, tx, pkg.ID, kept.ID)

	if _, err := repo.DeleteOrphans(ctx, tx); err != nil {
		t.Fatalf("DeleteOrphans: %v", err)
	}

	if got, _ := repo.GetByID(ctx, tx, kept.ID); got == nil {
		t.Fatal("object with a membership was deleted")
	}
	if got, _ := repo.GetByID(ctx, tx, orphan.ID); got != nil {
		t.Fatal("orphaned object survived")
	}
}
