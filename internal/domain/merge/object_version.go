package merge

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ObjectVersion is the per-(object, package) snapshot of package-specific
// content. Immutable after extraction; comparisons read it, nothing writes it
// back.
type ObjectVersion struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index;index:idx_object_version_object_package,unique,priority:1" json:"object_id"`
	PackageID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_object_version_object_package,unique,priority:2" json:"package_id"`

	VersionIdentifier string `gorm:"type:text;not null;default:''" json:"version_identifier"`

	SerializedContent string         `gorm:"type:text;not null;default:''" json:"serialized_content"`
	StructuredFields  datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"structured_fields"`
	RawSource         string         `gorm:"type:text;not null;default:''" json:"raw_source"`

	// ContentHash is computed once at extraction time over the normalized
	// serialized content and canonicalized structured fields, so delta
	// comparison never reparses equal versions.
	ContentHash string `gorm:"type:text;not null;default:'';index" json:"content_hash"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ObjectVersion) TableName() string { return "object_version" }
