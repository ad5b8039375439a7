package entity

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is a span of a Document's text prepared for retrieval. Rows are
// produced by downstream tooling; ingestion only owns the schema.
type Chunk struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID       uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	TokenCount       int       `gorm:"not null" json:"token_count"`
	CharStart        int       `gorm:"not null" json:"char_start"`
	CharEnd          int       `gorm:"not null" json:"char_end"`
	ChunkText        string    `gorm:"type:text;not null" json:"chunk_text"`
	EmbeddingModel   *string   `gorm:"size:100" json:"embedding_model,omitempty"`
	EmbeddingVersion *string   `gorm:"size:20" json:"embedding_version,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`

	Metadata *MetadataChunk `gorm:"foreignKey:ChunkID;constraint:OnDelete:CASCADE" json:"metadata,omitempty"`
}

func (Chunk) TableName() string { return "chunks" }

// MetadataChunk denormalizes parent Document fields onto a chunk for filtering.
type MetadataChunk struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChunkID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"chunk_id"`
	ReferenceID    string    `gorm:"index" json:"reference_id"`
	DocType        string    `json:"doc_type"`
	Jurisdiction   string    `gorm:"index" json:"jurisdiction"`
	Court          string    `json:"court"`
	AuthorityLevel string    `json:"authority_level"`
	Year           int       `gorm:"index" json:"year"`
	LegalStatus    string    `json:"legal_status"`
	Tags           string    `gorm:"type:text" json:"tags"`
}

func (MetadataChunk) TableName() string { return "metadata_chunks" }
