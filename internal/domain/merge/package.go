package merge

import (
	"time"

	"github.com/google/uuid"
)

// Package records one uploaded application export within a session. A session
// has exactly one package per role.
type Package struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SessionID   uuid.UUID `gorm:"type:uuid;not null;index;index:idx_package_session_role,unique,priority:1" json:"session_id"`
	PackageRole string    `gorm:"type:text;not null;index:idx_package_session_role,unique,priority:2" json:"package_role"`

	Filename    string `gorm:"type:text;not null;default:''" json:"filename"`
	ObjectCount int    `gorm:"not null;default:0" json:"object_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Package) TableName() string { return "package" }
