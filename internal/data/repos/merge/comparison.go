package merge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

// ComparisonRepo persists the typed comparison tables. Every write is
// create-if-absent on (session_id, object_id), which is what makes the
// persistence step idempotent: re-running it can never duplicate rows.
type ComparisonRepo interface {
	CreateInterfaceIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.InterfaceComparison) error
	CreateProcessModelIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.ProcessModelComparison) error
	CreateRecordTypeIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.RecordTypeComparison) error
	CreateExpressionRuleIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.ExpressionRuleComparison) error
	CreateCDTIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.CDTComparison) error
	CreateConstantIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.ConstantComparison) error
	CreateGenericIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.GenericComparison) error

	// GetPayload loads whichever typed comparison exists for the object.
	// Returns (nil, "") when none was persisted (details unavailable).
	GetPayload(ctx context.Context, tx *gorm.DB, sessionID, objectID uuid.UUID) (interface{}, string, error)

	CountBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (map[string]int64, error)
	DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
}

type comparisonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComparisonRepo(db *gorm.DB, baseLog *logger.Logger) ComparisonRepo {
	return &comparisonRepo{db: db, log: baseLog.With("repo", "ComparisonRepo")}
}

func (r *comparisonRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *comparisonRepo) createIfAbsent(ctx context.Context, tx *gorm.DB, model interface{}, sessionID, objectID uuid.UUID, row interface{}) error {
	if sessionID == uuid.Nil || objectID == uuid.Nil {
		return fmt.Errorf("comparison row requires session and object ids")
	}
	t := r.tx(tx).WithContext(ctx)
	var n int64
	if err := t.Model(model).
		Where("session_id = ? AND object_id = ?", sessionID, objectID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return t.Create(row).Error
}

func (r *comparisonRepo) CreateInterfaceIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.InterfaceComparison) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.createIfAbsent(ctx, tx, &merge.InterfaceComparison{}, row.SessionID, row.ObjectID, row)
}

func (r *comparisonRepo) CreateProcessModelIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.ProcessModelComparison) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.createIfAbsent(ctx, tx, &merge.ProcessModelComparison{}, row.SessionID, row.ObjectID, row)
}

func (r *comparisonRepo) CreateRecordTypeIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.RecordTypeComparison) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.createIfAbsent(ctx, tx, &merge.RecordTypeComparison{}, row.SessionID, row.ObjectID, row)
}

func (r *comparisonRepo) CreateExpressionRuleIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.ExpressionRuleComparison) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.createIfAbsent(ctx, tx, &merge.ExpressionRuleComparison{}, row.SessionID, row.ObjectID, row)
}

func (r *comparisonRepo) CreateCDTIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.CDTComparison) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.createIfAbsent(ctx, tx, &merge.CDTComparison{}, row.SessionID, row.ObjectID, row)
}

func (r *comparisonRepo) CreateConstantIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.ConstantComparison) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.createIfAbsent(ctx, tx, &merge.ConstantComparison{}, row.SessionID, row.ObjectID, row)
}

func (r *comparisonRepo) CreateGenericIfAbsent(ctx context.Context, tx *gorm.DB, row *merge.GenericComparison) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.createIfAbsent(ctx, tx, &merge.GenericComparison{}, row.SessionID, row.ObjectID, row)
}

func (r *comparisonRepo) GetPayload(ctx context.Context, tx *gorm.DB, sessionID, objectID uuid.UUID) (interface{}, string, error) {
	if sessionID == uuid.Nil || objectID == uuid.Nil {
		return nil, "", nil
	}
	t := r.tx(tx).WithContext(ctx)
	where := "session_id = ? AND object_id = ?"

	var ifaces []*merge.InterfaceComparison
	if err := t.Where(where, sessionID, objectID).Limit(1).Find(&ifaces).Error; err != nil {
		return nil, "", err
	}
	if len(ifaces) > 0 {
		return ifaces[0], "interface", nil
	}

	var pms []*merge.ProcessModelComparison
	if err := t.Where(where, sessionID, objectID).Limit(1).Find(&pms).Error; err != nil {
		return nil, "", err
	}
	if len(pms) > 0 {
		return pms[0], "process_model", nil
	}

	var rts []*merge.RecordTypeComparison
	if err := t.Where(where, sessionID, objectID).Limit(1).Find(&rts).Error; err != nil {
		return nil, "", err
	}
	if len(rts) > 0 {
		return rts[0], "record_type", nil
	}

	var ers []*merge.ExpressionRuleComparison
	if err := t.Where(where, sessionID, objectID).Limit(1).Find(&ers).Error; err != nil {
		return nil, "", err
	}
	if len(ers) > 0 {
		return ers[0], "expression_rule", nil
	}

	var cdts []*merge.CDTComparison
	if err := t.Where(where, sessionID, objectID).Limit(1).Find(&cdts).Error; err != nil {
		return nil, "", err
	}
	if len(cdts) > 0 {
		return cdts[0], "cdt", nil
	}

	var consts []*merge.ConstantComparison
	if err := t.Where(where, sessionID, objectID).Limit(1).Find(&consts).Error; err != nil {
		return nil, "", err
	}
	if len(consts) > 0 {
		return consts[0], "constant", nil
	}

	var gens []*merge.GenericComparison
	if err := t.Where(where, sessionID, objectID).Limit(1).Find(&gens).Error; err != nil {
		return nil, "", err
	}
	if len(gens) > 0 {
		return gens[0], "generic", nil
	}

	return nil, "", nil
}

func (r *comparisonRepo) CountBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (map[string]int64, error) {
	t := r.tx(tx).WithContext(ctx)
	out := map[string]int64{}
	if sessionID == uuid.Nil {
		return out, nil
	}
	models := map[string]interface{}{
		"interface":       &merge.InterfaceComparison{},
		"process_model":   &merge.ProcessModelComparison{},
		"record_type":     &merge.RecordTypeComparison{},
		"expression_rule": &merge.ExpressionRuleComparison{},
		"cdt":             &merge.CDTComparison{},
		"constant":        &merge.ConstantComparison{},
		"generic":         &merge.GenericComparison{},
	}
	for name, model := range models {
		var n int64
		if err := t.Model(model).Where("session_id = ?", sessionID).Count(&n).Error; err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, nil
}

func (r *comparisonRepo) DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	t := r.tx(tx).WithContext(ctx)
	if sessionID == uuid.Nil {
		return nil
	}
	for _, model := range []interface{}{
		&merge.InterfaceComparison{},
		&merge.ProcessModelComparison{},
		&merge.RecordTypeComparison{},
		&merge.ExpressionRuleComparison{},
		&merge.CDTComparison{},
		&merge.ConstantComparison{},
		&merge.GenericComparison{},
	} {
		if err := t.Where("session_id = ?", sessionID).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
