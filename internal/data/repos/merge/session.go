package merge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

type MergeSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *merge.MergeSession) (*merge.MergeSession, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*merge.MergeSession, error)
	GetByReferenceID(ctx context.Context, tx *gorm.DB, referenceID string) (*merge.MergeSession, error)
	List(ctx context.Context, tx *gorm.DB, limit int) ([]*merge.MergeSession, error)

	MarkReady(ctx context.Context, tx *gorm.DB, id uuid.UUID, totalChanges int) error
	MarkError(ctx context.Context, tx *gorm.DB, id uuid.UUID, message string) error

	FullDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type mergeSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMergeSessionRepo(db *gorm.DB, baseLog *logger.Logger) MergeSessionRepo {
	return &mergeSessionRepo{db: db, log: baseLog.With("repo", "MergeSessionRepo")}
}

func (r *mergeSessionRepo) Create(ctx context.Context, tx *gorm.DB, row *merge.MergeSession) (*merge.MergeSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil, fmt.Errorf("nil merge session")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Status == "" {
		row.Status = merge.SessionStatusProcessing
	}
	if err := t.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *mergeSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*merge.MergeSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*merge.MergeSession
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *mergeSessionRepo) GetByReferenceID(ctx context.Context, tx *gorm.DB, referenceID string) (*merge.MergeSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if referenceID == "" {
		return nil, nil
	}
	var out []*merge.MergeSession
	if err := t.WithContext(ctx).Where("reference_id = ?", referenceID).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *mergeSessionRepo) List(ctx context.Context, tx *gorm.DB, limit int) ([]*merge.MergeSession, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*merge.MergeSession
	if err := t.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkReady transitions PROCESSING -> READY. The status guard in the WHERE
// clause is what makes transitions monotonic: a session already READY or
// ERROR is never touched.
func (r *mergeSessionRepo) MarkReady(ctx context.Context, tx *gorm.DB, id uuid.UUID, totalChanges int) error {
	return r.transition(ctx, tx, id, map[string]interface{}{
		"status":        merge.SessionStatusReady,
		"total_changes": totalChanges,
		"updated_at":    time.Now().UTC(),
	})
}

func (r *mergeSessionRepo) MarkError(ctx context.Context, tx *gorm.DB, id uuid.UUID, message string) error {
	return r.transition(ctx, tx, id, map[string]interface{}{
		"status":        merge.SessionStatusError,
		"error_message": message,
		"updated_at":    time.Now().UTC(),
	})
}

func (r *mergeSessionRepo) transition(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return fmt.Errorf("missing session id")
	}
	res := t.WithContext(ctx).
		Model(&merge.MergeSession{}).
		Where("id = ? AND status = ?", id, merge.SessionStatusProcessing).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s is not in %s", id, merge.SessionStatusProcessing)
	}
	return nil
}

func (r *mergeSessionRepo) FullDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).Where("id = ?", id).Delete(&merge.MergeSession{}).Error
}
