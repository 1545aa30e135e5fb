package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	repos "github.com/ram-020998/nexusmerge/internal/data/repos/merge"
	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/apperr"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

// ruleKey is the normalized decision-table key. Rows where a column is
// irrelevant are stored with that column zeroed, and NormalizeRuleKey maps
// raw inputs onto the same shape, so lookup order can never matter.
type ruleKey struct {
	VendorCategory   string
	ExistsInCustomer bool
	CustomerModified bool
}

// decisionTable is the fixed classification table. Exactly the seven defined
// rows, nothing derived at runtime.
var decisionTable = map[ruleKey]string{
	{merge.CategoryNew, false, false}:        merge.ClassificationNew,
	{merge.CategoryModified, false, false}:   merge.ClassificationDeleted,
	{merge.CategoryModified, true, false}:    merge.ClassificationNoConflict,
	{merge.CategoryModified, true, true}:     merge.ClassificationConflict,
	{merge.CategoryDeprecated, false, false}: merge.ClassificationNoConflict,
	{merge.CategoryDeprecated, true, false}:  merge.ClassificationNoConflict,
	{merge.CategoryDeprecated, true, true}:   merge.ClassificationConflict,
}

// NormalizeRuleKey folds don't-care columns to their zero value: a NEW vendor
// change ignores the customer entirely, and customer_modified is meaningless
// when the object is absent from the customer package.
func NormalizeRuleKey(vendorCategory string, existsInCustomer, customerModified bool) ruleKey {
	switch vendorCategory {
	case merge.CategoryNew:
		return ruleKey{VendorCategory: merge.CategoryNew}
	default:
		if !existsInCustomer {
			customerModified = false
		}
		return ruleKey{
			VendorCategory:   vendorCategory,
			ExistsInCustomer: existsInCustomer,
			CustomerModified: customerModified,
		}
	}
}

// Classify resolves one vendor-delta object to its classification. A miss is
// a logic defect, surfaced loudly as a ClassificationError.
func Classify(vendorCategory string, existsInCustomer, customerModified bool) (string, error) {
	c, ok := decisionTable[NormalizeRuleKey(vendorCategory, existsInCustomer, customerModified)]
	if !ok {
		return "", &apperr.ClassificationError{
			VendorCategory:   vendorCategory,
			ExistsInCustomer: existsInCustomer,
			CustomerModified: customerModified,
		}
	}
	return c, nil
}

// classificationRank orders the working set for presentation: conflicts
// first, then new objects, vendor-side deletions, and clean merges last.
var classificationRank = map[string]int{
	merge.ClassificationConflict:   0,
	merge.ClassificationNew:        1,
	merge.ClassificationDeleted:    2,
	merge.ClassificationNoConflict: 3,
}

// ClassifierService turns the vendor delta plus customer-delta context into
// the session's working set. The working set is strictly vendor-delta
// driven: customer-only changes never produce a Change row.
type ClassifierService interface {
	BuildWorkingSet(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, vendorDelta []*merge.DeltaResult, customerDelta []*merge.DeltaResult, customerObjectIDs []uuid.UUID) ([]*merge.Change, error)
}

type classifierService struct {
	log     *logger.Logger
	objects repos.RegistryObjectRepo
	changes repos.ChangeRepo
}

func NewClassifierService(baseLog *logger.Logger, objects repos.RegistryObjectRepo, changes repos.ChangeRepo) ClassifierService {
	return &classifierService{
		log:     baseLog.With("service", "ClassifierService"),
		objects: objects,
		changes: changes,
	}
}

func (s *classifierService) BuildWorkingSet(
	ctx context.Context,
	tx *gorm.DB,
	sessionID uuid.UUID,
	vendorDelta []*merge.DeltaResult,
	customerDelta []*merge.DeltaResult,
	customerObjectIDs []uuid.UUID,
) ([]*merge.Change, error) {
	inCustomer := map[uuid.UUID]bool{}
	for _, id := range customerObjectIDs {
		inCustomer[id] = true
	}
	customerByObject := map[uuid.UUID]*merge.DeltaResult{}
	for _, d := range customerDelta {
		customerByObject[d.ObjectID] = d
	}

	rows := make([]*merge.Change, 0, len(vendorDelta))
	objectIDs := make([]uuid.UUID, 0, len(vendorDelta))
	for _, vd := range vendorDelta {
		exists := inCustomer[vd.ObjectID]
		modified := false
		customerChangeType := ""
		if cd := customerByObject[vd.ObjectID]; cd != nil {
			customerChangeType = cd.ChangeType
			modified = cd.ChangeCategory == merge.CategoryModified && cd.ContentChanged
		}

		classification, err := Classify(vd.ChangeCategory, exists, modified)
		if err != nil {
			return nil, err
		}
		rows = append(rows, &merge.Change{
			SessionID:          sessionID,
			ObjectID:           vd.ObjectID,
			Classification:     classification,
			VendorChangeType:   vd.ChangeType,
			CustomerChangeType: customerChangeType,
			ReviewStatus:       merge.ReviewStatusPending,
		})
		objectIDs = append(objectIDs, vd.ObjectID)
	}

	if err := s.assignDisplayOrder(ctx, tx, rows, objectIDs); err != nil {
		return nil, err
	}

	created, err := s.changes.Create(ctx, tx, rows)
	if err != nil {
		return nil, err
	}
	s.log.Debug("built working set", "changes", len(created))
	return created, nil
}

// assignDisplayOrder gives the working set a stable, deterministic total
// order: classification priority, then object type, name and uuid.
func (s *classifierService) assignDisplayOrder(ctx context.Context, tx *gorm.DB, rows []*merge.Change, objectIDs []uuid.UUID) error {
	objects, err := s.objects.GetByIDs(ctx, tx, objectIDs)
	if err != nil {
		return err
	}
	byID := map[uuid.UUID]*merge.RegistryObject{}
	for _, o := range objects {
		byID[o.ID] = o
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := classificationRank[rows[i].Classification], classificationRank[rows[j].Classification]
		if ri != rj {
			return ri < rj
		}
		oi, oj := byID[rows[i].ObjectID], byID[rows[j].ObjectID]
		if oi == nil || oj == nil {
			return rows[i].ObjectID.String() < rows[j].ObjectID.String()
		}
		if oi.ObjectType != oj.ObjectType {
			return oi.ObjectType < oj.ObjectType
		}
		if oi.Name != oj.Name {
			return oi.Name < oj.Name
		}
		return oi.ObjectUUID < oj.ObjectUUID
	})
	for i, row := range rows {
		row.DisplayOrder = i + 1
	}
	return nil
}
