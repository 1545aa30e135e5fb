package merge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ram-020998/nexusmerge/internal/domain/merge"
	"github.com/ram-020998/nexusmerge/internal/platform/apperr"
	"github.com/ram-020998/nexusmerge/internal/platform/logger"
)

// RegistryObjectRepo owns the global object registry. The one invariant that
// matters: after any number of FindOrCreate calls, from any number of
// sessions, exactly one row exists per distinct Appian object UUID. That is
// guaranteed by the unique index on object_uuid plus insert-do-nothing and a
// re-read, never by an in-process lock.
type RegistryObjectRepo interface {
	FindOrCreate(ctx context.Context, tx *gorm.DB, row *merge.RegistryObject) (*merge.RegistryObject, error)
	FindOrCreateBatch(ctx context.Context, tx *gorm.DB, rows []*merge.RegistryObject) (map[string]*merge.RegistryObject, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*merge.RegistryObject, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*merge.RegistryObject, error)
	GetByObjectUUID(ctx context.Context, tx *gorm.DB, objectUUID string) (*merge.RegistryObject, error)

	UnifyDescription(ctx context.Context, tx *gorm.DB, id uuid.UUID, description string) error

	DeleteOrphans(ctx context.Context, tx *gorm.DB) (int64, error)
}

type registryObjectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRegistryObjectRepo(db *gorm.DB, baseLog *logger.Logger) RegistryObjectRepo {
	return &registryObjectRepo{db: db, log: baseLog.With("repo", "RegistryObjectRepo")}
}

func (r *registryObjectRepo) FindOrCreate(ctx context.Context, tx *gorm.DB, row *merge.RegistryObject) (*merge.RegistryObject, error) {
	if row == nil || row.ObjectUUID == "" {
		return nil, fmt.Errorf("registry object requires an object uuid")
	}
	out, err := r.FindOrCreateBatch(ctx, tx, []*merge.RegistryObject{row})
	if err != nil {
		return nil, err
	}
	got := out[row.ObjectUUID]
	if got == nil {
		return nil, fmt.Errorf("registry object %s not found after find-or-create", row.ObjectUUID)
	}
	return got, nil
}

// FindOrCreateBatch inserts every row whose object_uuid is not yet present
// and returns the canonical row per uuid. Existing rows win: candidates never
// overwrite the name or type another package already registered. Under a
// concurrent writer the insert surfaces a unique violation, which is treated
// as "someone else created it" and resolved by the re-read.
func (r *registryObjectRepo) FindOrCreateBatch(ctx context.Context, tx *gorm.DB, rows []*merge.RegistryObject) (map[string]*merge.RegistryObject, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	out := map[string]*merge.RegistryObject{}
	if len(rows) == 0 {
		return out, nil
	}

	seen := map[string]bool{}
	var candidates []*merge.RegistryObject
	var uuids []string
	now := time.Now().UTC()
	for _, row := range rows {
		if row == nil || row.ObjectUUID == "" || seen[row.ObjectUUID] {
			continue
		}
		seen[row.ObjectUUID] = true
		uuids = append(uuids, row.ObjectUUID)
		c := *row
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.ObjectType == "" {
			c.ObjectType = "unknown"
		}
		c.CreatedAt = now
		c.UpdatedAt = now
		candidates = append(candidates, &c)
	}
	if len(candidates) == 0 {
		return out, nil
	}

	err := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "object_uuid"}},
			DoNothing: true,
		}).
		Create(&candidates).Error
	if err != nil && !apperr.IsUniqueViolation(err) {
		return nil, err
	}

	var existing []*merge.RegistryObject
	if err := t.WithContext(ctx).Where("object_uuid IN ?", uuids).Find(&existing).Error; err != nil {
		return nil, err
	}
	for _, row := range existing {
		out[row.ObjectUUID] = row
	}
	if len(out) != len(uuids) {
		return nil, fmt.Errorf("registry resolved %d of %d object uuids", len(out), len(uuids))
	}
	return out, nil
}

func (r *registryObjectRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*merge.RegistryObject, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *registryObjectRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*merge.RegistryObject, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*merge.RegistryObject
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *registryObjectRepo) GetByObjectUUID(ctx context.Context, tx *gorm.DB, objectUUID string) (*merge.RegistryObject, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if objectUUID == "" {
		return nil, nil
	}
	var out []*merge.RegistryObject
	if err := t.WithContext(ctx).Where("object_uuid = ?", objectUUID).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// UnifyDescription fills in a description that was empty at creation time.
// A description another package already set is left alone.
func (r *registryObjectRepo) UnifyDescription(ctx context.Context, tx *gorm.DB, id uuid.UUID, description string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || description == "" {
		return nil
	}
	return t.WithContext(ctx).
		Model(&merge.RegistryObject{}).
		Where("id = ? AND description = ''", id).
		Updates(map[string]interface{}{
			"description": description,
			"updated_at":  time.Now().UTC(),
		}).Error
}

// DeleteOrphans removes registry objects no package membership references
// anymore. Called after a session delete; objects still referenced by other
// sessions survive.
func (r *registryObjectRepo) DeleteOrphans(ctx context.Context, tx *gorm.DB) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Where("id NOT IN (?)", t.Session(&gorm.Session{NewDB: true}).
			Model(&merge.PackageMembership{}).
			Select("object_id")).
		Delete(&merge.RegistryObject{})
	return res.RowsAffected, res.Error
}
