package llm

import (
	"fmt"
)

// FormatError means the provider answered but no usable JSON object could be
// recovered from the response.
type FormatError struct {
	Reason string
	Raw    string
	Cause  error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction format error: %s: %v", e.Reason, e.Cause)
	}
	return "extraction format error: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Cause }

// ExtractionFailedError is returned once every attempt has failed.
type ExtractionFailedError struct {
	Attempts int
	Last     error
	// RawSnippet is the start of the last provider response, if any.
	RawSnippet string
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extraction failed after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *ExtractionFailedError) Unwrap() error { return e.Last }
