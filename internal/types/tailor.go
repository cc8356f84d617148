package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tailor mirrors a row synced from the upstream marketplace database. The
// jsonb columns hold third-party JSON with no schema contract; they are the
// inputs to image extraction. ExtractedImages is the back-reference set of
// Image IDs produced from this row.
type Tailor struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UpstreamID  string    `gorm:"column:upstream_id;not null;uniqueIndex" json:"upstream_id"`
	Name        string    `gorm:"column:name" json:"name"`
	Email       string    `gorm:"column:email" json:"email"`
	PhoneNumber string    `gorm:"column:phone_number" json:"phone_number"`
	Status      string    `gorm:"column:status;default:'pending'" json:"status"`

	BoutiqueItems datatypes.JSON `gorm:"column:boutique_items;type:jsonb" json:"boutique_items,omitempty"`
	Profile       datatypes.JSON `gorm:"column:profile;type:jsonb" json:"profile,omitempty"`
	Alterations   datatypes.JSON `gorm:"column:alterations;type:jsonb" json:"alterations,omitempty"`
	Tailorings    datatypes.JSON `gorm:"column:tailorings;type:jsonb" json:"tailorings,omitempty"`
	Rents         datatypes.JSON `gorm:"column:rents;type:jsonb" json:"rents,omitempty"`

	ExtractedImages datatypes.JSON `gorm:"column:extracted_images;type:jsonb" json:"extracted_images,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Tailor) TableName() string { return "tailor" }

// JSONFields returns the jsonb columns that may embed image references, keyed
// by field name as it appears in extraction paths.
func (t *Tailor) JSONFields() map[string]datatypes.JSON {
	return map[string]datatypes.JSON{
		"boutique_items": t.BoutiqueItems,
		"profile":        t.Profile,
		"alterations":    t.Alterations,
		"tailorings":     t.Tailorings,
		"rents":          t.Rents,
	}
}

// JSONFieldNames is the scan order for a tailor's jsonb fields. Map iteration
// order is random; extraction paths must be stable across runs.
var JSONFieldNames = []string{"boutique_items", "profile", "alterations", "tailorings", "rents"}
