package merge

import (
	"time"

	"github.com/google/uuid"
)

// RegistryObject is the package-agnostic canonical identity of one Appian
// object, keyed by the UUID the source system assigned. It is global state:
// sessions reference it but never own it, and exactly one row exists per
// distinct object UUID no matter how many packages or sessions mention it.
type RegistryObject struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// ObjectUUID is the Appian-assigned identifier. It is an opaque token,
	// not necessarily RFC 4122, so it is stored as text.
	ObjectUUID string `gorm:"type:text;not null;uniqueIndex:idx_registry_object_uuid" json:"object_uuid"`

	Name        string `gorm:"type:text;not null;index" json:"name"`
	ObjectType  string `gorm:"type:text;not null;default:'unknown';index" json:"object_type"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (RegistryObject) TableName() string { return "registry_object" }
