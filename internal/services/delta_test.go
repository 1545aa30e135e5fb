package services

import (
	"context"
	"testing"

	repos "github.com/ram-020998/nexusmerge/internal/data/repos/merge"
	"github.com/ram-020998/nexusmerge/internal/data/repos/testutil"
	"github.com/ram-020998/nexusmerge/internal/domain/merge"
)

func TestDeltaCompare(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	memberships := repos.NewPackageMembershipRepo(db, log)
	versions := repos.NewObjectVersionRepo(db, log)
	deltas := repos.NewDeltaResultRepo(db, log)
	svc := NewDeltaService(log, memberships, versions, deltas)

	session := testutil.SeedSession(t, ctx, tx, "MRG-delta-1")
	older := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleBase)
	newer := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleNewVendor)

	added := testutil.SeedRegistryObject(t, ctx, tx, "delta-added", "Added", "constant")
	removed := testutil.SeedRegistryObject(t, ctx, tx, "delta-removed", "Removed", "constant")
	sameVersion := testutil.SeedRegistryObject(t, ctx, tx, "delta-same", "Same", "constant")
	bumpOnly := testutil.SeedRegistryObject(t, ctx, tx, "delta-bump", "Bump", "constant")
	modified := testutil.SeedRegistryObject(t, ctx, tx, "delta-mod", "Mod", "constant")

	// Older package.
	for _, m := range []struct {
		obj                    *merge.RegistryObject
		version, content, hash string
	}{
		{removed, "v1", "gone", "h-gone"},
		{sameVersion, "v1", "same", "h-same"},
		{bumpOnly, "v1", "stable", "h-stable"},
		{modified, "v1", "old body", "h-old"},
	} {
		testutil.SeedMembership(t, ctx, tx, older.ID, m.obj.ID)
		testutil.SeedObjectVersion(t, ctx, tx, m.obj.ID, older.ID, m.version, m.content, m.hash)
	}
	// Newer package.
	for _, m := range []struct {
		obj                    *merge.RegistryObject
		version, content, hash string
	}{
		{added, "v1", "brand new", "h-new"},
		{sameVersion, "v1", "same", "h-same"},
		{bumpOnly, "v2", "stable", "h-stable"},
		{modified, "v2", "new body", "h-new-body"},
	} {
		testutil.SeedMembership(t, ctx, tx, newer.ID, m.obj.ID)
		testutil.SeedObjectVersion(t, ctx, tx, m.obj.ID, newer.ID, m.version, m.content, m.hash)
	}

	rows, err := svc.Compare(ctx, tx, session.ID, merge.AxisVendor, older, newer)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	// Unchanged objects and pure version bumps emit nothing.
	if len(rows) != 3 {
		t.Fatalf("delta rows = %d, want 3", len(rows))
	}
	byObject := map[string]*merge.DeltaResult{}
	for _, d := range rows {
		switch d.ObjectID {
		case added.ID:
			byObject["added"] = d
		case removed.ID:
			byObject["removed"] = d
		case modified.ID:
			byObject["modified"] = d
		case sameVersion.ID, bumpOnly.ID:
			t.Fatalf("object %s should not appear in the delta", d.ObjectID)
		}
	}

	if d := byObject["added"]; d == nil || d.ChangeCategory != merge.CategoryNew || d.ChangeType != merge.ChangeTypeAdded {
		t.Fatalf("added delta = %+v", byObject["added"])
	}
	if d := byObject["removed"]; d == nil || d.ChangeCategory != merge.CategoryDeprecated || d.ChangeType != merge.ChangeTypeRemoved {
		t.Fatalf("removed delta = %+v", byObject["removed"])
	}
	d := byObject["modified"]
	if d == nil || d.ChangeCategory != merge.CategoryModified || d.ChangeType != merge.ChangeTypeModified {
		t.Fatalf("modified delta = %+v", d)
	}
	if !d.VersionChanged || !d.ContentChanged {
		t.Fatalf("modified flags = version=%v content=%v", d.VersionChanged, d.ContentChanged)
	}

	// The rows were persisted under the right axis.
	stored, err := deltas.GetBySessionAndAxis(ctx, tx, session.ID, merge.AxisVendor)
	if err != nil {
		t.Fatalf("GetBySessionAndAxis: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored delta rows = %d, want 3", len(stored))
	}
}

// Unknown-type objects, and exports without a version element, carry an empty
// version token on both sides. The empty token must not be mistaken for an
// equal one: content hashes decide instead.
func TestDeltaCompareVersionlessObjects(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	deltas := repos.NewDeltaResultRepo(db, log)
	svc := NewDeltaService(log,
		repos.NewPackageMembershipRepo(db, log),
		repos.NewObjectVersionRepo(db, log),
		deltas,
	)

	session := testutil.SeedSession(t, ctx, tx, "MRG-delta-3")
	older := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleBase)
	newer := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleNewVendor)

	edited := testutil.SeedRegistryObject(t, ctx, tx, "delta-unversioned-mod", "UnversionedMod", "unknown")
	stable := testutil.SeedRegistryObject(t, ctx, tx, "delta-unversioned-same", "UnversionedSame", "unknown")
	for _, m := range []struct {
		obj           *merge.RegistryObject
		content, hash string
	}{
		{edited, "old body", "h-old"},
		{stable, "kept", "h-kept"},
	} {
		testutil.SeedMembership(t, ctx, tx, older.ID, m.obj.ID)
		testutil.SeedObjectVersion(t, ctx, tx, m.obj.ID, older.ID, "", m.content, m.hash)
	}
	for _, m := range []struct {
		obj           *merge.RegistryObject
		content, hash string
	}{
		{edited, "new body", "h-new"},
		{stable, "kept", "h-kept"},
	} {
		testutil.SeedMembership(t, ctx, tx, newer.ID, m.obj.ID)
		testutil.SeedObjectVersion(t, ctx, tx, m.obj.ID, newer.ID, "", m.content, m.hash)
	}

	rows, err := svc.Compare(ctx, tx, session.ID, merge.AxisVendor, older, newer)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("delta rows = %d, want 1", len(rows))
	}
	d := rows[0]
	if d.ObjectID != edited.ID {
		t.Fatalf("delta object = %s, want %s", d.ObjectID, edited.ID)
	}
	if d.ChangeCategory != merge.CategoryModified || d.ChangeType != merge.ChangeTypeModified {
		t.Fatalf("versionless delta = %+v", d)
	}
	if d.VersionChanged || !d.ContentChanged {
		t.Fatalf("versionless flags = version=%v content=%v, want false/true", d.VersionChanged, d.ContentChanged)
	}
}

func TestDeltaCompareRequiresVersionSnapshots(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	svc := NewDeltaService(log,
		repos.NewPackageMembershipRepo(db, log),
		repos.NewObjectVersionRepo(db, log),
		repos.NewDeltaResultRepo(db, log),
	)

	session := testutil.SeedSession(t, ctx, tx, "MRG-delta-2")
	older := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleBase)
	newer := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleNewVendor)

	obj := testutil.SeedRegistryObject(t, ctx, tx, "delta-no-version", "Broken", "constant")
	testutil.SeedMembership(t, ctx, tx, older.ID, obj.ID)
	testutil.SeedMembership(t, ctx, tx, newer.ID, obj.ID)
	testutil.SeedObjectVersion(t, ctx, tx, obj.ID, older.ID, "v1", "x", "h")
	// Newer membership without a version snapshot is an integrity error.

	if _, err := svc.Compare(ctx, tx, session.ID, merge.AxisVendor, older, newer); err == nil {
		t.Fatal("missing version snapshot should fail the comparison")
	}
}
