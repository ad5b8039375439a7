package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is the structured, deduplicated record. ReferenceID is the natural
// key across the whole corpus.
type Document struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReferenceID    string     `gorm:"not null;uniqueIndex:uix_documents_reference_id" json:"reference_id"`
	Title          string     `gorm:"not null" json:"title"`
	DocType        string     `gorm:"not null" json:"doc_type"`
	Jurisdiction   string     `gorm:"not null;index" json:"jurisdiction"`
	Court          string     `gorm:"not null;index" json:"court"`
	AuthorityLevel string     `gorm:"not null" json:"authority_level"`
	Tags           string     `gorm:"type:text" json:"tags"`
	Citation       string     `gorm:"not null" json:"citation"`
	Year           int        `gorm:"not null;default:0;index" json:"year"`
	LegalStatus    string     `gorm:"not null" json:"legal_status"`
	RawContentURI  string     `gorm:"column:raw_content_uri" json:"raw_content_uri"`
	RawContent     string     `gorm:"type:text" json:"raw_content"`
	RawDocumentID  *uuid.UUID `gorm:"type:uuid;index" json:"raw_document_id,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`

	RawDocument *RawDocument `gorm:"foreignKey:RawDocumentID;constraint:OnDelete:SET NULL" json:"-"`
	Chunks      []Chunk      `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Document) TableName() string { return "documents" }
