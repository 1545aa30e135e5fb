package merge

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/apperr"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

type PackageMembershipRepo interface {
	// CreateIgnoreDuplicates records memberships; pairs already present are
	// silently skipped, never errors.
	CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, rows []*merge.PackageMembership) error

	ObjectIDsForPackage(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) ([]uuid.UUID, error)
	CountForPackage(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) (int64, error)

	DeleteByPackageIDs(ctx context.Context, tx *gorm.DB, packageIDs []uuid.UUID) error
}

type packageMembershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPackageMembershipRepo(db *gorm.DB, baseLog *logger.Logger) PackageMembershipRepo {
	return &packageMembershipRepo{db: db, log: baseLog.With("repo", "PackageMembershipRepo")}
}

func (r *packageMembershipRepo) CreateIgnoreDuplicates(ctx context.Context, tx *gorm.DB, rows []*merge.PackageMembership) error {
	t := tx
	if t == nil {
		t = r.db
	}
	var valid []*merge.PackageMembership
	for _, row := range rows {
		if row == nil || row.PackageID == uuid.Nil || row.ObjectID == uuid.Nil {
			continue
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		valid = append(valid, row)
	}
	if len(valid) == 0 {
		return nil
	}
	err := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "package_id"}, {Name: "object_id"}},
			DoNothing: true,
		}).
		Create(&valid).Error
	if err != nil && !apperr.IsUniqueViolation(err) {
		return err
	}
	return nil
}

func (r *packageMembershipRepo) ObjectIDsForPackage(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) ([]uuid.UUID, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []uuid.UUID
	if packageID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Model(&merge.PackageMembership{}).
		Where("package_id = ?", packageID).
		Pluck("object_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *packageMembershipRepo) CountForPackage(ctx context.Context, tx *gorm.DB, packageID uuid.UUID) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if packageID == uuid.Nil {
		return 0, nil
	}
	var n int64
	if err := t.WithContext(ctx).
		Model(&merge.PackageMembership{}).
		Where("package_id = ?", packageID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *packageMembershipRepo) DeleteByPackageIDs(ctx context.Context, tx *gorm.DB, packageIDs []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(packageIDs) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("package_id IN ?", packageIDs).Delete(&merge.PackageMembership{}).Error
}
