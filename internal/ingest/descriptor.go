package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
)

// MetadataDescriptor identifies one crawl configuration. Capturing twice
// with the same descriptor lands in the same metadata batch.
type MetadataDescriptor struct {
	FetchURI  string   `yaml:"fetch_uri" json:"fetch_uri"`
	Delimiter string   `yaml:"delimiter" json:"delimiter"`
	Structure []string `yaml:"structure" json:"structure"`
	// PDFLinkField names the record column holding the PDF URL.
	PDFLinkField string `yaml:"pdf_link_field,omitempty" json:"pdf_link_field,omitempty"`
}

func (d MetadataDescriptor) Validate() error {
	return common.NewValidator().
		Field("fetch_uri", d.FetchURI, common.Required, common.MaxLength(2048)).
		Field("delimiter", d.Delimiter, common.Required).
		Field("structure", d.Structure, common.Required, common.NoBlankEntries).
		Error()
}

// LoadDescriptor reads a YAML descriptor file.
func LoadDescriptor(path string) (MetadataDescriptor, error) {
	var d MetadataDescriptor
	b, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("read descriptor: %w", err)
	}
	if err := yaml.Unmarshal(b, &d); err != nil {
		return d, fmt.Errorf("parse descriptor %s: %w", path, err)
	}
	return d, nil
}
