package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordStateTerminal(t *testing.T) {
	for _, s := range []RecordState{StateCommitted, StateExtractionFailed, StateDuplicateSkipped, StateInsertFailed} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []RecordState{StateFetched, StateExtracted, StateValidated, StateStaged} {
		assert.False(t, s.Terminal(), s)
	}
	assert.True(t, StateDuplicateSkipped.Succeeded())
	assert.False(t, StateInsertFailed.Succeeded())
}

func TestIsAcceptedPDFContentType(t *testing.T) {
	cases := map[string]bool{
		"application/pdf":                true,
		"Application/PDF; charset=binary": true,
		"application/x-pdf":              true,
		"application/octet-stream":       true,
		"":                               false,
		"text/html; charset=utf-8":       false,
		"image/png":                      false,
	}
	for ct, want := range cases {
		assert.Equal(t, want, IsAcceptedPDFContentType(ct), ct)
	}
}
