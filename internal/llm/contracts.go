package llm

import "context"

// Generator is a text-understanding provider: one prompt in, free text out.
// Implementations live in the provider subpackages.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// ExtractionResult is the normalized field set returned for one document.
// Required string fields are never empty; they default to "Unknown".
type ExtractionResult struct {
	ReferenceID    string  `json:"reference_id"`
	Title          string  `json:"title"`
	DocType        string  `json:"doc_type"`
	Jurisdiction   string  `json:"jurisdiction"`
	Court          string  `json:"court"`
	AuthorityLevel string  `json:"authority_level"`
	Tags           string  `json:"tags"`
	Citation       string  `json:"citation"`
	Date           *string `json:"date"` // YYYY-MM-DD, nil when unknown
	LegalStatus    string  `json:"legal_status"`
}

// FieldExtractor is the interface the ingestion pipeline depends on.
type FieldExtractor interface {
	Extract(ctx context.Context, payload map[string]any, documentText string, maxAttempts int) (ExtractionResult, error)
}
