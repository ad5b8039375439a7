package llm

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/caselaw-ingest/constants"
)

const dateLayout = "2006-01-02"

// Normalize coerces a recovered response object into an ExtractionResult.
// Lists are joined with ", ", numbers stringified and absent values become
// empty before the "Unknown" defaults are applied to required fields.
func Normalize(obj map[string]any) ExtractionResult {
	res := ExtractionResult{
		ReferenceID:    CollapseSpace(Stringify(obj["reference_id"])),
		Title:          TitleCase(Stringify(obj["title"])),
		DocType:        TitleCase(Stringify(obj["doc_type"])),
		Jurisdiction:   TitleCase(Stringify(obj["jurisdiction"])),
		Court:          TitleCase(Stringify(obj["court"])),
		AuthorityLevel: TitleCase(Stringify(obj["authority_level"])),
		Tags:           strings.TrimSpace(Stringify(obj["tags"])),
		Citation:       CollapseSpace(Stringify(obj["citation"])),
		Date:           NormalizeDate(Stringify(obj["date"])),
		LegalStatus:    TitleCase(Stringify(obj["legal_status"])),
	}

	for _, f := range []*string{
		&res.ReferenceID, &res.Title, &res.DocType, &res.Jurisdiction,
		&res.Court, &res.AuthorityLevel, &res.Citation, &res.LegalStatus,
	} {
		if *f == "" {
			*f = constants.UnknownValue
		}
	}
	return res
}

// Stringify renders a decoded JSON value as text. Arrays are joined with
// ", " after dropping blank elements.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(Stringify(item)); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// CollapseSpace trims s and folds internal whitespace runs to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TitleCase collapses whitespace and title-cases every word.
func TitleCase(s string) string {
	s = CollapseSpace(s)
	if s == "" {
		return ""
	}
	// cases.Caser is stateful; build one per call
	return cases.Title(language.Und).String(s)
}

// NormalizeDate returns the YYYY-MM-DD form of s, or nil when s is not a
// calendar date. A date followed by a time component is accepted.
func NormalizeDate(s string) *string {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return nil
	}
	head := s[:len(dateLayout)]
	if len(s) > len(dateLayout) {
		if sep := s[len(dateLayout)]; sep != 'T' && sep != ' ' {
			return nil
		}
	}
	if _, err := time.Parse(dateLayout, head); err != nil {
		return nil
	}
	return &head
}

// YearFromDate parses the text before the first "-" of a normalized date.
// It returns 0 when the date is nil or the prefix is not an integer.
func YearFromDate(date *string) int {
	if date == nil {
		return 0
	}
	head, _, _ := strings.Cut(*date, "-")
	y, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0
	}
	return y
}
