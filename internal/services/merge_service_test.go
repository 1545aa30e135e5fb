package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ram-020998/nexusmerge/internal/appian"
	repos "github.com/ram-020998/nexusmerge/internal/data/repos/merge"
	"github.com/ram-020998/nexusmerge/internal/data/repos/testutil"
	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/apperr"
)

type mergeFixture struct {
	svc   MergeService
	repos struct {
		sessions    repos.MergeSessionRepo
		packages    repos.PackageRepo
		objects     repos.RegistryObjectRepo
		memberships repos.PackageMembershipRepo
		changes     repos.ChangeRepo
		comparisons repos.ComparisonRepo
	}
}

func newMergeFixture(t *testing.T) *mergeFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	f := &mergeFixture{}
	f.repos.sessions = repos.NewMergeSessionRepo(db, log)
	f.repos.packages = repos.NewPackageRepo(db, log)
	f.repos.objects = repos.NewRegistryObjectRepo(db, log)
	f.repos.memberships = repos.NewPackageMembershipRepo(db, log)
	f.repos.changes = repos.NewChangeRepo(db, log)
	f.repos.comparisons = repos.NewComparisonRepo(db, log)
	versions := repos.NewObjectVersionRepo(db, log)
	deltas := repos.NewDeltaResultRepo(db, log)

	extractor := NewExtractorService(log, appian.NewRegistry(), DefaultNormalizationPolicy(),
		f.repos.objects, f.repos.packages, f.repos.memberships, versions)
	delta := NewDeltaService(log, f.repos.memberships, versions, deltas)
	classifier := NewClassifierService(log, f.repos.objects, f.repos.changes)
	comparer := NewComparisonService(log, f.repos.objects, versions, f.repos.comparisons)

	f.svc = NewMergeService(log, db, nil,
		f.repos.sessions, f.repos.packages, f.repos.objects, f.repos.memberships,
		versions, deltas, f.repos.changes, f.repos.comparisons,
		extractor, delta, classifier, comparer,
	)
	return f
}

func writeConstant(t *testing.T, dir, uuid, name, version, value string) {
	t.Helper()
	writeObjectFile(t, dir, filepath.Join("constants", name+".xml"), fmt.Sprintf(
		`<constant uuid=%q name=%q><versionUuid>%s</versionUuid><value>%s</value><type>int</type></constant>`,
		uuid, name, version, value,
	))
}

// threeWayDirs lays out the canonical scenario set:
//   - alpha:   vendor modified, customer untouched      -> NO_CONFLICT
//   - beta:    vendor modified, customer modified       -> CONFLICT
//   - gamma:   vendor added                             -> NEW
//   - delta:   vendor modified, customer removed        -> DELETED
//   - epsilon: vendor removed, customer untouched       -> NO_CONFLICT
func threeWayDirs(t *testing.T, prefix string) []PackageInput {
	t.Helper()
	base := t.TempDir()
	customized := t.TempDir()
	vendor := t.TempDir()

	writeConstant(t, base, prefix+"-alpha", "ALPHA", "v1", "1")
	writeConstant(t, base, prefix+"-beta", "BETA", "v1", "2")
	writeConstant(t, base, prefix+"-delta", "DELTA", "v1", "4")
	writeConstant(t, base, prefix+"-epsilon", "EPSILON", "v1", "5")

	writeConstant(t, customized, prefix+"-alpha", "ALPHA", "v1", "1")
	writeConstant(t, customized, prefix+"-beta", "BETA", "v2", "20")
	writeConstant(t, customized, prefix+"-epsilon", "EPSILON", "v1", "5")

	writeConstant(t, vendor, prefix+"-alpha", "ALPHA", "v2", "10")
	writeConstant(t, vendor, prefix+"-beta", "BETA", "v3", "200")
	writeConstant(t, vendor, prefix+"-gamma", "GAMMA", "v1", "3")
	writeConstant(t, vendor, prefix+"-delta", "DELTA", "v2", "40")

	return []PackageInput{
		{Role: merge.RoleBase, Filename: "base.zip", Dir: base},
		{Role: merge.RoleCustomized, Filename: "customized.zip", Dir: customized},
		{Role: merge.RoleNewVendor, Filename: "vendor.zip", Dir: vendor},
	}
}

func TestCreateMergeSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newMergeFixture(t)

	session, err := f.svc.CreateMergeSession(ctx, threeWayDirs(t, "e2e1"))
	if err != nil {
		t.Fatalf("CreateMergeSession: %v", err)
	}
	if session.Status != merge.SessionStatusReady {
		t.Fatalf("status = %s, want READY (error: %s)", session.Status, session.ErrorMessage)
	}
	if session.TotalChanges != 5 {
		t.Fatalf("total changes = %d, want 5", session.TotalChanges)
	}
	t.Cleanup(func() { _ = f.svc.DeleteSession(ctx, session.ReferenceID) })

	detail, err := f.svc.GetSession(ctx, session.ReferenceID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(detail.Packages) != 3 {
		t.Fatalf("packages = %d, want 3", len(detail.Packages))
	}
	for _, p := range detail.Packages {
		want := 4
		if p.PackageRole == merge.RoleCustomized {
			want = 3
		}
		if p.ObjectCount != want {
			t.Fatalf("package %s object count = %d, want %d", p.PackageRole, p.ObjectCount, want)
		}
	}

	entries, progress, err := f.svc.GetWorkingSet(ctx, session.ReferenceID, "")
	if err != nil {
		t.Fatalf("GetWorkingSet: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("working set = %d entries, want 5", len(entries))
	}
	if progress.Pending != 5 {
		t.Fatalf("pending = %d, want 5", progress.Pending)
	}

	wantByName := map[string]string{
		"ALPHA":   merge.ClassificationNoConflict,
		"BETA":    merge.ClassificationConflict,
		"GAMMA":   merge.ClassificationNew,
		"DELTA":   merge.ClassificationDeleted,
		"EPSILON": merge.ClassificationNoConflict,
	}
	byName := map[string]*WorkingSetEntry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	for name, want := range wantByName {
		got := byName[name]
		if got == nil {
			t.Fatalf("object %s missing from working set", name)
		}
		if got.Classification != want {
			t.Fatalf("%s classified %s, want %s", name, got.Classification, want)
		}
	}

	// Conflicts sort first, clean merges last (by name within a class).
	if entries[0].Name != "BETA" || entries[0].DisplayOrder != 1 {
		t.Fatalf("first entry = %s/%d, want BETA/1", entries[0].Name, entries[0].DisplayOrder)
	}
	if entries[3].Name != "ALPHA" || entries[4].Name != "EPSILON" {
		t.Fatalf("tail entries = %s, %s, want ALPHA, EPSILON", entries[3].Name, entries[4].Name)
	}

	// The vendor-removed object reads as a removal with no customer change.
	if e := byName["EPSILON"]; e.VendorChangeType != merge.ChangeTypeRemoved || e.CustomerChangeType != "" {
		t.Fatalf("EPSILON change types = vendor %q, customer %q", e.VendorChangeType, e.CustomerChangeType)
	}

	// The conflict carries a typed constant comparison.
	cd, err := f.svc.GetChangeDetail(ctx, session.ReferenceID, byName["BETA"].ChangeID)
	if err != nil {
		t.Fatalf("GetChangeDetail: %v", err)
	}
	if cd.ComparisonKind != "constant" {
		t.Fatalf("comparison kind = %q, want constant", cd.ComparisonKind)
	}
	cc, ok := cd.Comparison.(*merge.ConstantComparison)
	if !ok {
		t.Fatalf("comparison payload = %T", cd.Comparison)
	}
	if cc.ValueBefore != "2" || cc.ValueAfter != "200" {
		t.Fatalf("constant values = %q -> %q", cc.ValueBefore, cc.ValueAfter)
	}

	if err := f.svc.ReviewChange(ctx, session.ReferenceID, byName["BETA"].ChangeID, merge.ReviewStatusReviewed, "take vendor"); err != nil {
		t.Fatalf("ReviewChange: %v", err)
	}
	_, progress, err = f.svc.GetWorkingSet(ctx, session.ReferenceID, "")
	if err != nil {
		t.Fatalf("GetWorkingSet after review: %v", err)
	}
	if progress.Reviewed != 1 || progress.Pending != 4 {
		t.Fatalf("progress after review = %+v", progress)
	}
}

func TestCreateMergeSessionFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newMergeFixture(t)

	inputs := threeWayDirs(t, "e2e2")
	// Break one package after the fact.
	inputs[2].Dir = filepath.Join(t.TempDir(), "does-not-exist")

	session, err := f.svc.CreateMergeSession(ctx, inputs)
	if err == nil {
		t.Fatal("broken package should fail the session")
	}
	var ef *apperr.ExtractionFailure
	if !errors.As(err, &ef) {
		t.Fatalf("error = %v, want ExtractionFailure", err)
	}
	if session == nil {
		t.Fatal("failed session row should still be returned")
	}
	if session.Status != merge.SessionStatusError {
		t.Fatalf("status = %s, want ERROR", session.Status)
	}
	if session.ErrorMessage == "" {
		t.Fatal("error message missing")
	}

	// The pipeline transaction rolled back: no partial session data.
	pkgs, err := f.repos.packages.GetBySession(ctx, nil, session.ID)
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(pkgs) != 0 {
		t.Fatalf("failed session left %d package rows", len(pkgs))
	}
	n, err := f.repos.changes.CountBySession(ctx, nil, session.ID)
	if err != nil {
		t.Fatalf("CountBySession: %v", err)
	}
	if n != 0 {
		t.Fatalf("failed session left %d change rows", n)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	ctx := context.Background()
	f := newMergeFixture(t)

	session, err := f.svc.CreateMergeSession(ctx, threeWayDirs(t, "e2e3"))
	if err != nil {
		t.Fatalf("CreateMergeSession: %v", err)
	}

	if err := f.svc.DeleteSession(ctx, session.ReferenceID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	if _, err := f.svc.GetSession(ctx, session.ReferenceID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("GetSession after delete = %v, want not found", err)
	}
	pkgs, err := f.repos.packages.GetBySession(ctx, nil, session.ID)
	if err != nil {
		t.Fatalf("GetBySession: %v", err)
	}
	if len(pkgs) != 0 {
		t.Fatalf("packages after delete = %d", len(pkgs))
	}
	// The session's objects were orphaned and swept from the registry.
	obj, err := f.repos.objects.GetByObjectUUID(ctx, nil, "e2e3-alpha")
	if err != nil {
		t.Fatalf("GetByObjectUUID: %v", err)
	}
	if obj != nil {
		t.Fatal("orphaned registry object survived session delete")
	}

	if err := f.svc.DeleteSession(ctx, session.ReferenceID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second DeleteSession = %v, want not found", err)
	}
}

func TestCreateMergeSessionValidatesRoles(t *testing.T) {
	ctx := context.Background()
	f := newMergeFixture(t)

	_, err := f.svc.CreateMergeSession(ctx, []PackageInput{
		{Role: merge.RoleBase, Dir: t.TempDir()},
		{Role: merge.RoleBase, Dir: t.TempDir()},
		{Role: merge.RoleNewVendor, Dir: t.TempDir()},
	})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("duplicate role error = %v, want invalid argument", err)
	}

	_, err = f.svc.CreateMergeSession(ctx, []PackageInput{
		{Role: "SIDELOAD", Dir: t.TempDir()},
	})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("unknown role error = %v, want invalid argument", err)
	}
}
