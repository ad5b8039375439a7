package constants

import "strings"

// MaxPDFBytes caps every PDF download.
const MaxPDFBytes int64 = 50 * 1024 * 1024

// MaxPromptTextChars is how much extracted PDF text is sent for field extraction.
const MaxPromptTextChars = 5000

// UnknownValue replaces required document fields the service left empty.
const UnknownValue = "Unknown"

// MissingLinkValue is what the crawler writes when a row has no PDF link.
const MissingLinkValue = "N/A"

// IsAcceptedPDFContentType reports whether a content-type header may carry a
// PDF: anything naming pdf, or application/octet-stream. A missing header is
// rejected.
func IsAcceptedPDFContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return strings.Contains(ct, "pdf") || ct == "application/octet-stream"
}
