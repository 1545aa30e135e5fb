package merge

import (
	"time"

	"github.com/google/uuid"
)

// PackageMembership links a registry object to a package that contains it.
// Rows are write-once; repeat inserts for the same pair are no-ops at the
// extractor level and rejected by the unique index below it.
type PackageMembership struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PackageID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_membership_package_object,unique,priority:1" json:"package_id"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index;index:idx_membership_package_object,unique,priority:2" json:"object_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (PackageMembership) TableName() string { return "package_membership" }
