package merge

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

type DeltaResultRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*merge.DeltaResult) ([]*merge.DeltaResult, error)

	GetBySessionAndAxis(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, axis string) ([]*merge.DeltaResult, error)
	CountBySessionAndAxis(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, axis string) (int64, error)

	DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
}

type deltaResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeltaResultRepo(db *gorm.DB, baseLog *logger.Logger) DeltaResultRepo {
	return &deltaResultRepo{db: db, log: baseLog.With("repo", "DeltaResultRepo")}
}

func (r *deltaResultRepo) Create(ctx context.Context, tx *gorm.DB, rows []*merge.DeltaResult) ([]*merge.DeltaResult, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*merge.DeltaResult{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *deltaResultRepo) GetBySessionAndAxis(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, axis string) ([]*merge.DeltaResult, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*merge.DeltaResult
	if sessionID == uuid.Nil || axis == "" {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("session_id = ? AND axis = ?", sessionID, axis).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *deltaResultRepo) CountBySessionAndAxis(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, axis string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil || axis == "" {
		return 0, nil
	}
	var n int64
	if err := t.WithContext(ctx).
		Model(&merge.DeltaResult{}).
		Where("session_id = ? AND axis = ?", sessionID, axis).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *deltaResultRepo) DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&merge.DeltaResult{}).Error
}
