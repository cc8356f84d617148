package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Image is a managed asset created by the extraction pipeline. Rows are never
// mutated after creation. At most one row should exist per source_url; that is
// a soft guarantee enforced by an existence check before insert, not by a
// store constraint.
type Image struct {
	ID  uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Alt string    `gorm:"column:alt;not null" json:"alt"`

	TailorName string `gorm:"column:tailor_name" json:"tailor_name,omitempty"`

	SourceURL        string    `gorm:"column:source_url;not null" json:"source_url"`
	SourceCollection string    `gorm:"column:source_collection" json:"source_collection"`
	SourceDocumentID string    `gorm:"column:source_document_id" json:"source_document_id"`
	JSONPath         string    `gorm:"column:json_path" json:"json_path"`
	ExtractedAt      time.Time `gorm:"column:extracted_at" json:"extracted_at"`
	IsAutoExtracted  bool      `gorm:"column:is_auto_extracted;not null;default:false" json:"is_auto_extracted"`

	StorageKey string `gorm:"column:storage_key;not null" json:"storage_key"`
	FileURL    string `gorm:"column:file_url" json:"file_url"`
	MimeType   string `gorm:"column:mime_type" json:"mime_type"`
	Filename   string `gorm:"column:filename" json:"filename"`
	SizeBytes  int64  `gorm:"column:size_bytes" json:"size_bytes"`

	// Renditions maps size name (thumbnail|medium|large) to storage key.
	Renditions datatypes.JSON `gorm:"column:renditions;type:jsonb" json:"renditions,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Image) TableName() string { return "image" }
