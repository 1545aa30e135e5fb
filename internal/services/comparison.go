package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ram-020998/nexusmerge/internal/appian"
	repos "github.com/ram-020998/nexusmerge/internal/data/repos/merge"
	"github.com/ram-020998/nexusmerge/internal/diffpatch"
	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/apperr"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

// ComparisonService persists the per-type structured diffs backing the
// "what changed" view. The differ set is closed: every known object type is
// either bound to a dedicated differ below or falls to the generic one, so an
// unhandled type can never silently produce nothing.
type ComparisonService interface {
	PersistComparisons(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, changes []*merge.Change, basePkg, vendorPkg *merge.Package) error
}

// differ computes and stores one typed comparison. before/after are never
// nil when a differ runs; version-less sides are routed to the generic path
// first.
type differ func(ctx context.Context, tx *gorm.DB, sessionID, objectID uuid.UUID, before, after *merge.ObjectVersion) error

type comparisonService struct {
	log *logger.Logger

	objects     repos.RegistryObjectRepo
	versions    repos.ObjectVersionRepo
	comparisons repos.ComparisonRepo

	differs map[appian.ObjectType]differ
}

func NewComparisonService(
	baseLog *logger.Logger,
	objects repos.RegistryObjectRepo,
	versions repos.ObjectVersionRepo,
	comparisons repos.ComparisonRepo,
) ComparisonService {
	s := &comparisonService{
		log:         baseLog.With("service", "ComparisonService"),
		objects:     objects,
		versions:    versions,
		comparisons: comparisons,
	}
	s.differs = map[appian.ObjectType]differ{
		appian.TypeInterface:      s.diffInterface,
		appian.TypeProcessModel:   s.diffProcessModel,
		appian.TypeRecordType:     s.diffRecordType,
		appian.TypeExpressionRule: s.diffExpressionRule,
		appian.TypeCDT:            s.diffCDT,
		appian.TypeConstant:       s.diffConstant,
	}
	return s
}

func (s *comparisonService) PersistComparisons(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, changes []*merge.Change, basePkg, vendorPkg *merge.Package) error {
	if basePkg == nil || vendorPkg == nil {
		return fmt.Errorf("comparison persistence requires base and new vendor packages")
	}

	objectIDs := make([]uuid.UUID, 0, len(changes))
	for _, c := range changes {
		objectIDs = append(objectIDs, c.ObjectID)
	}
	objects, err := s.objects.GetByIDs(ctx, tx, objectIDs)
	if err != nil {
		return err
	}
	typesByID := map[uuid.UUID]*merge.RegistryObject{}
	for _, o := range objects {
		typesByID[o.ID] = o
	}

	for _, c := range changes {
		obj := typesByID[c.ObjectID]
		if obj == nil {
			return fmt.Errorf("change %s references unknown registry object %s", c.ID, c.ObjectID)
		}
		before, err := s.versions.GetByObjectAndPackage(ctx, tx, c.ObjectID, basePkg.ID)
		if err != nil {
			return err
		}
		after, err := s.versions.GetByObjectAndPackage(ctx, tx, c.ObjectID, vendorPkg.ID)
		if err != nil {
			return err
		}

		// A brand-new object has nothing to compare against.
		if c.Classification == merge.ClassificationNew && before == nil {
			continue
		}
		// One-sided snapshots (vendor removals) get the generic treatment.
		if before == nil || after == nil {
			if err := s.persistOneSided(ctx, tx, sessionID, c.ObjectID, obj, before, after); err != nil {
				return err
			}
			continue
		}

		fn := s.differs[appian.ObjectType(obj.ObjectType)]
		if fn == nil {
			fn = s.diffGeneric
		}
		if err := fn(ctx, tx, sessionID, c.ObjectID, before, after); err != nil {
			// A broken differ must not sink the session: record that details
			// are unavailable and move on.
			cmpErr := &apperr.ComparisonFailure{ObjectUUID: obj.ObjectUUID, ObjectType: obj.ObjectType, Err: err}
			s.log.Warn("typed comparison failed, storing generic fallback", "error", cmpErr)
			if err := s.comparisons.CreateGenericIfAbsent(ctx, tx, &merge.GenericComparison{
				SessionID:        sessionID,
				ObjectID:         c.ObjectID,
				Summary:          "content differs, details unavailable",
				DetailsAvailable: false,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *comparisonService) persistOneSided(ctx context.Context, tx *gorm.DB, sessionID, objectID uuid.UUID, obj *merge.RegistryObject, before, after *merge.ObjectVersion) error {
	summary := "object added in new vendor package"
	beforeContent, afterContent := "", ""
	if before != nil {
		summary = "object removed in new vendor package"
		beforeContent = before.SerializedContent
	}
	if after != nil {
		afterContent = after.SerializedContent
	}
	return s.comparisons.CreateGenericIfAbsent(ctx, tx, &merge.GenericComparison{
		SessionID:        sessionID,
		ObjectID:         objectID,
		Summary:          summary,
		ContentPatch:     diffpatch.Unified(obj.Name, obj.Name, beforeContent, afterContent),
		DetailsAvailable: true,
	})
}

func (s *comparisonService) diffInterface(ctx context.Context, tx *gorm.DB, sessionID, objectID uuid.UUID, before, after *merge.ObjectVersion) error {
	bf, af := structuredOf(before), structuredOf(after)
	pAdded, pRemoved, pModified := diffNamedList(listField(bf, "parameters"), listField(af, "parameters"), "name")
	rAdded, rRemoved, _ := diffNamedList(listField(bf, "security_roles"), listField(af, "security_roles"), "name")

	return s.comparisons.CreateInterfaceIfAbsent(ctx, tx, &merge.InterfaceComparison{
		SessionID:            sessionID,
		ObjectID:             objectID,
		ParametersAdded:      mustJSON(pAdded),
		ParametersRemoved:    mustJSON(pRemoved),
		ParametersModified:   mustJSON(pModified),
		SecurityRolesAdded:   mustJSON(rAdded),
		SecurityRolesRemoved: mustJSON(rRemoved),
		ContentPatch:         diffpatch.Unified("base", "new-vendor", before.SerializedContent, after.SerializedContent),
	})
}

func (s *comparisonService) diffProcessModel(ctx context.Context, tx *gorm.DB, sessionID, objectID uuid.UUID, before, after *merge.ObjectVersion) error {
	bf, af := structuredOf(before), structuredOf(after)
	nAdded, nRemoved, nModified := diffNamedList(listField(bf, "nodes"), listField(af, "nodes"), "uuid")
	fAdded, fRemoved, _ := diffPairList(listField(bf, "flows"), listField(af, "flows"))
	vAdded, vRemoved, vModified := diffNamedList(listField(bf, "variables"), listField(af, "variables"), "name")

	return s.comparisons.CreateProcessModelIfAbsent(ctx, tx, &merge.ProcessModelComparison{
		SessionID:         sessionID,
		ObjectID:          objectID,
		NodesAdded:        mustJSON(nAdded),
		NodesRemoved:      mustJSON(nRemoved),
		NodesModified:     mustJSON(nModified),
		FlowsAdded:        mustJSON(fAdded),
		FlowsRemoved:      mustJSON(fRemoved),
		VariablesAdded:    mustJSON(vAdded),
		VariablesRemoved:  mustJSON(vRemoved),
		VariablesModified: mustJSON(vModified),
		ContentPatch:      diffpatch.Unified("base", "new-vendor", before.SerializedContent, after.SerializedContent),
	})
}

func (s *comparisonService) diffRecordType(ctx context.Context, tx *gorm.DB, sessionID, objectID uuid.UUID, before, after *merge.ObjectVersion) error {
	bf, af := structuredOf(before), structuredOf(after)
	fAdded, fRemoved, fModified := diffNamedList(listField(bf, "fields"), listField(af, "fields"), "name")
	aAdded, aRemoved, _ := diffNamedList(listField(bf, "actions"), listField(af, "actions"), "name")

	return s.comparisons.CreateRecordTypeIfAbsent(ctx, tx, &merge.RecordTypeComparison{
		SessionID:      sessionID,
		ObjectID:       objectID,
		FieldsAdded:    mustJSON(fAdded),
		FieldsRemoved:  mustJSON(fRemoved),
		FieldsModified: mustJSON(fModified),
		ActionsAdded:   mustJSON(aAdded),
		ActionsRemoved: mustJSON(aRemoved),
		ContentPatch:   diffpatch.Unified("base", "new-vendor", before.SerializedContent, after.SerializedContent),
	})
}

func (s *comparisonService) diffExpressionRule(ctx context.Context, tx *gorm.DB, sessionID, objectID uuid.UUID, before, after *merge.ObjectVersion) error {
	bf, af := structuredOf(before), structuredOf(after)
	iAdded, iRemoved, iModified := diffNamedList(listField(bf, "inputs"), listField(af, "inputs"), "name")

	return s.comparisons.CreateExpressionRuleIfAbsent(ctx, tx, &merge.ExpressionRuleComparison{
		SessionID:       sessionID,
		ObjectID:        objectID,
		InputsAdded:     mustJSON(iAdded),
		InputsRemoved:   mustJSON(iRemoved),
		InputsModified:  mustJSON(iModified),
		DefinitionPatch: diffpatch.Unified("base", "new-vendor", before.SerializedContent, after.SerializedContent),
	})
}

func (s *comparisonService) diffCDT(ctx context.Context, tx *gorm.DB, sessionID, objectID uuid.UUID, before, after *merge.ObjectVersion) error {
	bf, af := structuredOf(before), structuredOf(after)
	fAdded, fRemoved, fModified := diffNamedList(listField(bf, "fields"), listField(af, "fields"), "name")

	return s.comparisons.CreateCDTIfAbsent(ctx, tx, &merge.CDTComparison{
		SessionID:       sessionID,
		ObjectID:        objectID,
		FieldsAdded:     mustJSON(fAdded),
		FieldsRemoved:   mustJSON(fRemoved),
		FieldsModified:  mustJSON(fModified),
		NamespaceBefore: stringField(bf, "namespace"),
		NamespaceAfter:  stringField(af, "namespace"),
	})
}

func (s *comparisonService) diffConstant(ctx context.Context, tx *gorm.DB, sessionID, objectID uuid.UUID, before, after *merge.ObjectVersion) error {
	bf, af := structuredOf(before), structuredOf(after)
	return s.comparisons.CreateConstantIfAbsent(ctx, tx, &merge.ConstantComparison{
		SessionID:   sessionID,
		ObjectID:    objectID,
		ValueBefore: stringField(bf, "value"),
		ValueAfter:  stringField(af, "value"),
		TypeBefore:  stringField(bf, "type"),
		TypeAfter:   stringField(af, "type"),
	})
}

func (s *comparisonService) diffGeneric(ctx context.Context, tx *gorm.DB, sessionID, objectID uuid.UUID, before, after *merge.ObjectVersion) error {
	return s.comparisons.CreateGenericIfAbsent(ctx, tx, &merge.GenericComparison{
		SessionID:        sessionID,
		ObjectID:         objectID,
		Summary:          "content changed",
		ContentPatch:     diffpatch.Unified("base", "new-vendor", before.SerializedContent, after.SerializedContent),
		DetailsAvailable: true,
	})
}

func structuredOf(v *merge.ObjectVersion) map[string]any {
	out := map[string]any{}
	if v == nil || len(v.StructuredFields) == 0 {
		return out
	}
	_ = json.Unmarshal(v.StructuredFields, &out)
	return out
}

func listField(fields map[string]any, name string) []any {
	if l, ok := fields[name].([]any); ok {
		return l
	}
	return nil
}

func stringField(fields map[string]any, name string) string {
	if s, ok := fields[name].(string); ok {
		return s
	}
	return ""
}

// diffNamedList compares two lists of {key: ...} maps. Entries present only
// on one side are added/removed; entries sharing a key with different bodies
// are modified, reported as {key, before, after}.
func diffNamedList(before, after []any, key string) (added, removed, modified []any) {
	added, removed, modified = []any{}, []any{}, []any{}

	index := func(list []any) map[string]map[string]any {
		out := map[string]map[string]any{}
		for _, e := range list {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			k, _ := m[key].(string)
			if k == "" {
				continue
			}
			out[k] = m
		}
		return out
	}
	bIdx, aIdx := index(before), index(after)

	for _, k := range sortedKeys(aIdx) {
		av := aIdx[k]
		bv, ok := bIdx[k]
		if !ok {
			added = append(added, av)
			continue
		}
		if string(canonicalJSON(map[string]any(bv))) != string(canonicalJSON(map[string]any(av))) {
			modified = append(modified, map[string]any{key: k, "before": bv, "after": av})
		}
	}
	for _, k := range sortedKeys(bIdx) {
		if _, ok := aIdx[k]; !ok {
			removed = append(removed, bIdx[k])
		}
	}
	return added, removed, modified
}

// diffPairList compares lists of maps with no natural key (process flows):
// whole-entry set difference on canonical JSON.
func diffPairList(before, after []any) (added, removed, modified []any) {
	added, removed, modified = []any{}, []any{}, []any{}

	index := func(list []any) map[string]any {
		out := map[string]any{}
		for _, e := range list {
			out[string(canonicalJSON(e))] = e
		}
		return out
	}
	bIdx, aIdx := index(before), index(after)
	for _, k := range sortedKeys(aIdx) {
		if _, ok := bIdx[k]; !ok {
			added = append(added, aIdx[k])
		}
	}
	for _, k := range sortedKeys(bIdx) {
		if _, ok := aIdx[k]; !ok {
			removed = append(removed, bIdx[k])
		}
	}
	return added, removed, modified
}

// sortedKeys keeps diff output order stable across runs so re-created
// comparison payloads are byte-identical.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mustJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}
