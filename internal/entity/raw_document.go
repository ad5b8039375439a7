package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RawDocument is the provenance capture of one crawled record before
// structuring. It is written once by intake and only read afterwards.
type RawDocument struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MetadataID uuid.UUID      `gorm:"type:uuid;not null;index:idx_raw_documents_metadata_created,priority:1" json:"metadata_id"`
	Payload    datatypes.JSON `gorm:"not null" json:"payload"`
	PDFURI     string         `gorm:"column:pdf_uri;not null" json:"pdf_uri"`
	PDFRaw     string         `gorm:"column:pdf_raw;type:text" json:"pdf_raw"`
	PageCount  int            `gorm:"not null;default:0" json:"page_count"`
	CreatedAt  time.Time      `gorm:"not null;index:idx_raw_documents_metadata_created,priority:2" json:"created_at"`
}

func (RawDocument) TableName() string { return "raw_documents" }
