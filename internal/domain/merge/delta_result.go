package merge

import (
	"time"

	"github.com/google/uuid"
)

// DeltaResult records one changed object along one comparison axis. Objects
// that did not change in any detectable way get no row at all.
type DeltaResult struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_delta_session_object_axis,unique,priority:1" json:"session_id"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index;index:idx_delta_session_object_axis,unique,priority:2" json:"object_id"`
	Axis      string    `gorm:"type:text;not null;index:idx_delta_session_object_axis,unique,priority:3;index" json:"axis"`

	ChangeCategory string `gorm:"type:text;not null" json:"change_category"`
	ChangeType     string `gorm:"type:text;not null" json:"change_type"`

	VersionChanged bool `gorm:"not null;default:false" json:"version_changed"`
	ContentChanged bool `gorm:"not null;default:false" json:"content_changed"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (DeltaResult) TableName() string { return "delta_result" }
