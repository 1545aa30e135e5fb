package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	repos "github.com/ram-020998/nexusmerge/internal/data/repos/merge"
	"github.com/ram-020998/nexusmerge/internal/data/repos/testutil"
	"github.com/ram-020998/nexusmerge/internal/domain/merge"
)

func TestDiffNamedList(t *testing.T) {
	before := []any{
		map[string]any{"name": "kept", "type": "int"},
		map[string]any{"name": "changed", "type": "int"},
		map[string]any{"name": "dropped", "type": "text"},
	}
	after := []any{
		map[string]any{"name": "kept", "type": "int"},
		map[string]any{"name": "changed", "type": "text"},
		map[string]any{"name": "fresh", "type": "bool"},
	}

	added, removed, modified := diffNamedList(before, after, "name")
	if len(added) != 1 || len(removed) != 1 || len(modified) != 1 {
		t.Fatalf("diff = added %d, removed %d, modified %d", len(added), len(removed), len(modified))
	}
	a, _ := added[0].(map[string]any)
	if a["name"] != "fresh" {
		t.Fatalf("added = %v", added[0])
	}
	r, _ := removed[0].(map[string]any)
	if r["name"] != "dropped" {
		t.Fatalf("removed = %v", removed[0])
	}
	m, _ := modified[0].(map[string]any)
	if m["name"] != "changed" {
		t.Fatalf("modified = %v", modified[0])
	}
}

func TestDiffPairList(t *testing.T) {
	before := []any{
		map[string]any{"from": "start", "to": "a"},
		map[string]any{"from": "a", "to": "end"},
	}
	after := []any{
		map[string]any{"from": "start", "to": "a"},
		map[string]any{"from": "a", "to": "b"},
		map[string]any{"from": "b", "to": "end"},
	}
	added, removed, _ := diffPairList(before, after)
	if len(added) != 2 || len(removed) != 1 {
		t.Fatalf("diff = added %d, removed %d", len(added), len(removed))
	}
}

// Map iteration order must never leak into persisted diff payloads: the same
// inputs have to serialize to the same bytes on every run.
func TestDiffListOrderingIsStable(t *testing.T) {
	var before []any
	after := []any{
		map[string]any{"name": "zeta", "type": "int"},
		map[string]any{"name": "alpha", "type": "int"},
		map[string]any{"name": "mid", "type": "int"},
	}

	added, _, _ := diffNamedList(before, after, "name")
	names := make([]string, 0, len(added))
	for _, e := range added {
		m, _ := e.(map[string]any)
		names = append(names, m["name"].(string))
	}
	if len(names) != 3 || names[0] != "alpha" || names[1] != "mid" || names[2] != "zeta" {
		t.Fatalf("added order = %v, want [alpha mid zeta]", names)
	}

	first, _ := json.Marshal(added)
	for i := 0; i < 5; i++ {
		again, _, _ := diffNamedList(before, after, "name")
		raw, _ := json.Marshal(again)
		if string(raw) != string(first) {
			t.Fatalf("diffNamedList output varies across runs: %s vs %s", first, raw)
		}
	}

	pairAfter := []any{
		map[string]any{"from": "c", "to": "d"},
		map[string]any{"from": "a", "to": "b"},
	}
	pairFirst, _, _ := diffPairList(nil, pairAfter)
	firstRaw, _ := json.Marshal(pairFirst)
	for i := 0; i < 5; i++ {
		again, _, _ := diffPairList(nil, pairAfter)
		raw, _ := json.Marshal(again)
		if string(raw) != string(firstRaw) {
			t.Fatalf("diffPairList output varies across runs: %s vs %s", firstRaw, raw)
		}
	}
}

func seedVersionWithFields(t *testing.T, ctx context.Context, tx *gorm.DB, objectID, packageID uuid.UUID, version, content string, fields map[string]any) {
	t.Helper()
	raw, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal structured fields: %v", err)
	}
	v := &merge.ObjectVersion{
		ID:                uuid.New(),
		ObjectID:          objectID,
		PackageID:         packageID,
		VersionIdentifier: version,
		SerializedContent: content,
		StructuredFields:  datatypes.JSON(raw),
		ContentHash:       version + "-hash",
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		t.Fatalf("seed version: %v", err)
	}
}

func newComparisonFixture(t *testing.T) ComparisonService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return NewComparisonService(log,
		repos.NewRegistryObjectRepo(db, log),
		repos.NewObjectVersionRepo(db, log),
		repos.NewComparisonRepo(db, log),
	)
}

func TestPersistComparisonsInterface(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	svc := newComparisonFixture(t)

	session := testutil.SeedSession(t, ctx, tx, "MRG-cmp-1")
	basePkg := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleBase)
	vendorPkg := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleNewVendor)
	obj := testutil.SeedRegistryObject(t, ctx, tx, "cmp-iface-1", "Form", "interface")

	seedVersionWithFields(t, ctx, tx, obj.ID, basePkg.ID, "v1", "a!formLayout(old)", map[string]any{
		"parameters": []any{
			map[string]any{"name": "customer", "type": "Customer", "required": true},
			map[string]any{"name": "legacy", "type": "Text", "required": false},
		},
		"security_roles": []any{},
	})
	seedVersionWithFields(t, ctx, tx, obj.ID, vendorPkg.ID, "v2", "a!formLayout(new)", map[string]any{
		"parameters": []any{
			map[string]any{"name": "customer", "type": "Customer", "required": false},
			map[string]any{"name": "auditTrail", "type": "List", "required": false},
		},
		"security_roles": []any{},
	})

	changes := []*merge.Change{{
		ID:             uuid.New(),
		SessionID:      session.ID,
		ObjectID:       obj.ID,
		Classification: merge.ClassificationNoConflict,
	}}
	if err := svc.PersistComparisons(ctx, tx, session.ID, changes, basePkg, vendorPkg); err != nil {
		t.Fatalf("PersistComparisons: %v", err)
	}

	var rows []*merge.InterfaceComparison
	if err := tx.Where("session_id = ? AND object_id = ?", session.ID, obj.ID).Find(&rows).Error; err != nil {
		t.Fatalf("load comparison: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("interface comparisons = %d, want 1", len(rows))
	}
	row := rows[0]

	var added, removed, modified []any
	if err := json.Unmarshal(row.ParametersAdded, &added); err != nil {
		t.Fatalf("unmarshal added: %v", err)
	}
	if err := json.Unmarshal(row.ParametersRemoved, &removed); err != nil {
		t.Fatalf("unmarshal removed: %v", err)
	}
	if err := json.Unmarshal(row.ParametersModified, &modified); err != nil {
		t.Fatalf("unmarshal modified: %v", err)
	}
	if len(added) != 1 || len(removed) != 1 || len(modified) != 1 {
		t.Fatalf("parameter diff = added %d, removed %d, modified %d", len(added), len(removed), len(modified))
	}
	if row.ContentPatch == "" {
		t.Fatal("content patch missing")
	}

	// Re-running must not duplicate rows.
	if err := svc.PersistComparisons(ctx, tx, session.ID, changes, basePkg, vendorPkg); err != nil {
		t.Fatalf("second PersistComparisons: %v", err)
	}
	var n int64
	if err := tx.Model(&merge.InterfaceComparison{}).
		Where("session_id = ? AND object_id = ?", session.ID, obj.ID).
		Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("comparisons after rerun = %d, want 1", n)
	}
}

func TestPersistComparisonsSkipsNewWithoutPriorContent(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	svc := newComparisonFixture(t)

	session := testutil.SeedSession(t, ctx, tx, "MRG-cmp-2")
	basePkg := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleBase)
	vendorPkg := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleNewVendor)
	obj := testutil.SeedRegistryObject(t, ctx, tx, "cmp-new-1", "Fresh", "constant")
	seedVersionWithFields(t, ctx, tx, obj.ID, vendorPkg.ID, "v1", "42", map[string]any{"value": "42", "type": "int"})

	changes := []*merge.Change{{
		ID:             uuid.New(),
		SessionID:      session.ID,
		ObjectID:       obj.ID,
		Classification: merge.ClassificationNew,
	}}
	if err := svc.PersistComparisons(ctx, tx, session.ID, changes, basePkg, vendorPkg); err != nil {
		t.Fatalf("PersistComparisons: %v", err)
	}

	var n int64
	if err := tx.Model(&merge.GenericComparison{}).
		Where("session_id = ?", session.ID).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("NEW object with no prior content produced %d comparison rows", n)
	}
}

func TestPersistComparisonsVendorRemoval(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	svc := newComparisonFixture(t)

	session := testutil.SeedSession(t, ctx, tx, "MRG-cmp-3")
	basePkg := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleBase)
	vendorPkg := testutil.SeedPackage(t, ctx, tx, session.ID, merge.RoleNewVendor)
	obj := testutil.SeedRegistryObject(t, ctx, tx, "cmp-gone-1", "Sunset", "expression_rule")
	seedVersionWithFields(t, ctx, tx, obj.ID, basePkg.ID, "v1", "old rule body", map[string]any{"inputs": []any{}})

	changes := []*merge.Change{{
		ID:             uuid.New(),
		SessionID:      session.ID,
		ObjectID:       obj.ID,
		Classification: merge.ClassificationNoConflict,
	}}
	if err := svc.PersistComparisons(ctx, tx, session.ID, changes, basePkg, vendorPkg); err != nil {
		t.Fatalf("PersistComparisons: %v", err)
	}

	var rows []*merge.GenericComparison
	if err := tx.Where("session_id = ? AND object_id = ?", session.ID, obj.ID).Find(&rows).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("generic comparisons = %d, want 1", len(rows))
	}
	if !rows[0].DetailsAvailable {
		t.Fatal("one-sided comparison should still carry details")
	}
	if rows[0].Summary != "object removed in new vendor package" {
		t.Fatalf("summary = %q", rows[0].Summary)
	}
}
