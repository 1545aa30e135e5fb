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

type PackageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *merge.Package) (*merge.Package, error)

	GetBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*merge.Package, error)
	GetBySessionAndRole(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, role string) (*merge.Package, error)

	UpdateObjectCount(ctx context.Context, tx *gorm.DB, id uuid.UUID, count int) error

	DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
}

type packageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPackageRepo(db *gorm.DB, baseLog *logger.Logger) PackageRepo {
	return &packageRepo{db: db, log: baseLog.With("repo", "PackageRepo")}
}

func (r *packageRepo) Create(ctx context.Context, tx *gorm.DB, row *merge.Package) (*merge.Package, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.SessionID == uuid.Nil {
		return nil, fmt.Errorf("package requires a session id")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := t.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *packageRepo) GetBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*merge.Package, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*merge.Package
	if sessionID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("session_id = ?", sessionID).Order("package_role ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *packageRepo) GetBySessionAndRole(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, role string) (*merge.Package, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil || role == "" {
		return nil, nil
	}
	var out []*merge.Package
	if err := t.WithContext(ctx).
		Where("session_id = ? AND package_role = ?", sessionID, role).
		Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *packageRepo) UpdateObjectCount(ctx context.Context, tx *gorm.DB, id uuid.UUID, count int) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Model(&merge.Package{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"object_count": count,
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *packageRepo) DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&merge.Package{}).Error
}
