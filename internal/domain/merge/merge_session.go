package merge

import (
	"time"

	"github.com/google/uuid"
)

// MergeSession is the root aggregate for one three-way comparison: everything
// session-scoped (packages, memberships, versions, deltas, changes, typed
// comparisons) is transitively owned by it and removed with it.
type MergeSession struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	ReferenceID string `gorm:"type:text;not null;uniqueIndex:idx_merge_session_reference" json:"reference_id"`

	Status       string `gorm:"type:text;not null;default:'PROCESSING';index" json:"status"`
	TotalChanges int    `gorm:"not null;default:0" json:"total_changes"`
	ErrorMessage string `gorm:"type:text;not null;default:''" json:"error_message,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (MergeSession) TableName() string { return "merge_session" }
