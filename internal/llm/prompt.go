package llm

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/caselaw-ingest/constants"
)

const SystemInstruction = "You are a legal document parser that returns clean JSON only."

// BuildPrompt renders the extraction instruction for one document. Only the
// first MaxPromptTextChars runes of the text are included.
func BuildPrompt(payload map[string]any, documentText string) (string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	pb, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You are an intelligent legal document parser.\n\n")
	b.WriteString("Extract and return a valid JSON object with exactly the following fields:\n")
	b.WriteString("reference_id, title, doc_type, jurisdiction, court, authority_level,\n")
	b.WriteString("tags (list), citation, date (YYYY-MM-DD), and legal_status.\n\n")
	b.WriteString("Use the given payload and the document content below for context.\n")
	b.WriteString("Return ONLY the JSON object, without commentary.\n\n")
	b.WriteString("Payload:\n")
	b.Write(pb)
	b.WriteString("\n\nDocument content (first ")
	b.WriteString(strconv.Itoa(constants.MaxPromptTextChars))
	b.WriteString(" characters):\n")
	b.WriteString(TruncateRunes(documentText, constants.MaxPromptTextChars))
	b.WriteString("\n")
	return b.String(), nil
}

// TruncateRunes returns at most n runes of s.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
