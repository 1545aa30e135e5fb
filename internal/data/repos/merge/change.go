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

// ReviewProgress summarizes review states for one session.
type ReviewProgress struct {
	Pending  int64 `json:"pending"`
	Reviewed int64 `json:"reviewed"`
	Skipped  int64 `json:"skipped"`
}

type ChangeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*merge.Change) ([]*merge.Change, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*merge.Change, error)
	GetBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, classification string) ([]*merge.Change, error)
	CountBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error)
	ProgressBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*ReviewProgress, error)

	// UpdateReview mutates only the review fields; classification and change
	// types are never rewritten after the session is READY.
	UpdateReview(ctx context.Context, tx *gorm.DB, id uuid.UUID, status, notes string) error

	DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
}

type changeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChangeRepo(db *gorm.DB, baseLog *logger.Logger) ChangeRepo {
	return &changeRepo{db: db, log: baseLog.With("repo", "ChangeRepo")}
}

func (r *changeRepo) Create(ctx context.Context, tx *gorm.DB, rows []*merge.Change) ([]*merge.Change, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*merge.Change{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.ReviewStatus == "" {
			row.ReviewStatus = merge.ReviewStatusPending
		}
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *changeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*merge.Change, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*merge.Change
	if err := t.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *changeRepo) GetBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, classification string) ([]*merge.Change, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*merge.Change
	if sessionID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(ctx).Where("session_id = ?", sessionID)
	if classification != "" {
		q = q.Where("classification = ?", classification)
	}
	if err := q.Order("display_order ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *changeRepo) CountBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil {
		return 0, nil
	}
	var n int64
	if err := t.WithContext(ctx).
		Model(&merge.Change{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *changeRepo) ProgressBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*ReviewProgress, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	p := &ReviewProgress{}
	if sessionID == uuid.Nil {
		return p, nil
	}
	type row struct {
		ReviewStatus string
		N            int64
	}
	var rows []row
	if err := t.WithContext(ctx).
		Model(&merge.Change{}).
		Select("review_status, COUNT(*) AS n").
		Where("session_id = ?", sessionID).
		Group("review_status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		switch rw.ReviewStatus {
		case merge.ReviewStatusReviewed:
			p.Reviewed = rw.N
		case merge.ReviewStatusSkipped:
			p.Skipped = rw.N
		default:
			p.Pending += rw.N
		}
	}
	return p, nil
}

func (r *changeRepo) UpdateReview(ctx context.Context, tx *gorm.DB, id uuid.UUID, status, notes string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return fmt.Errorf("missing change id")
	}
	switch status {
	case merge.ReviewStatusPending, merge.ReviewStatusReviewed, merge.ReviewStatusSkipped:
	default:
		return fmt.Errorf("invalid review status %q", status)
	}
	return t.WithContext(ctx).
		Model(&merge.Change{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"review_status": status,
			"review_notes":  notes,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *changeRepo) DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&merge.Change{}).Error
}
