package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MetadataRaw is one crawl/fetch session. (FetchURI, Delimiter, StructureKey)
// is unique so re-running a crawl configuration resolves to the same row.
type MetadataRaw struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FetchURI     string         `gorm:"column:fetch_uri;not null;uniqueIndex:uix_metadata_raw_config,priority:1" json:"fetch_uri"`
	Delimiter    string         `gorm:"not null;uniqueIndex:uix_metadata_raw_config,priority:2" json:"delimiter"`
	Structure    datatypes.JSON `gorm:"not null" json:"structure"`
	StructureKey string         `gorm:"not null;uniqueIndex:uix_metadata_raw_config,priority:3" json:"-"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`

	RawDocuments []RawDocument `gorm:"foreignKey:MetadataID;constraint:OnDelete:CASCADE" json:"-"`
}

func (MetadataRaw) TableName() string { return "metadata_raw" }
