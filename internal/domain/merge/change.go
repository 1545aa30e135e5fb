package merge

import (
	"time"

	"github.com/google/uuid"
)

// Change is one working-set entry: a vendor-delta object with its
// classification. Review actions are the only mutations allowed after the
// session reaches READY; the classification itself is never rewritten.
type Change struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SessionID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_change_session_object,unique,priority:1" json:"session_id"`
	ObjectID  uuid.UUID `gorm:"type:uuid;not null;index;index:idx_change_session_object,unique,priority:2" json:"object_id"`

	Classification     string `gorm:"type:text;not null;index" json:"classification"`
	VendorChangeType   string `gorm:"type:text;not null" json:"vendor_change_type"`
	CustomerChangeType string `gorm:"type:text;not null;default:''" json:"customer_change_type"`

	DisplayOrder int `gorm:"not null;default:0;index" json:"display_order"`

	ReviewStatus string `gorm:"type:text;not null;default:'pending';index" json:"review_status"`
	ReviewNotes  string `gorm:"type:text;not null;default:''" json:"review_notes"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Change) TableName() string { return "change" }
