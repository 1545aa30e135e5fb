package merge

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

type ObjectVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*merge.ObjectVersion) ([]*merge.ObjectVersion, error)

	GetByPackage(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) ([]*merge.ObjectVersion, error)
	GetByObjectAndPackage(ctx context.Context, tx *gorm.DB, objectID, packageID uuid.UUID) (*merge.ObjectVersion, error)

	DeleteByPackageIDs(ctx context.Context, tx *gorm.DB, packageIDs []uuid.UUID) error
}

type objectVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewObjectVersionRepo(db *gorm.DB, baseLog *logger.Logger) ObjectVersionRepo {
	return &objectVersionRepo{db: db, log: baseLog.With("repo", "ObjectVersionRepo")}
}

func (r *objectVersionRepo) Create(ctx context.Context, tx *gorm.DB, rows []*merge.ObjectVersion) ([]*merge.ObjectVersion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*merge.ObjectVersion{}, nil
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

func (r *objectVersionRepo) GetByPackage(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) ([]*merge.ObjectVersion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*merge.ObjectVersion
	if packageID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("package_id = ?", packageID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *objectVersionRepo) GetByObjectAndPackage(ctx context.Context, tx *gorm.DB, objectID, packageID uuid.UUID) (*merge.ObjectVersion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if objectID == uuid.Nil || packageID == uuid.Nil {
		return nil, nil
	}
	var out []*merge.ObjectVersion
	if err := t.WithContext(ctx).
		Where("object_id = ? AND package_id = ?", objectID, packageID).
		Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *objectVersionRepo) DeleteByPackageIDs(ctx context.Context, tx *gorm.DB, packageIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(packageIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("package_id IN ?", packageIDs).Delete(&merge.ObjectVersion{}).Error
}
