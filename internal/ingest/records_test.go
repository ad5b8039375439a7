package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRecordsArrayAndLines(t *testing.T) {
	arr, err := LoadRecords(strings.NewReader(`[{"Case":"A"},{"Case":"B","Judgement":"N/A"}]`))
	require.NoError(t, err)
	require.Len(t, arr, 2)
	assert.Equal(t, "N/A", arr[1]["Judgement"])

	lines, err := LoadRecords(strings.NewReader("{\"Case\":\"A\"}\n\n{\"Case\":\"B\"}\n"))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "B", lines[1]["Case"])

	empty, err := LoadRecords(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = LoadRecords(strings.NewReader("{\"Case\":\"A\"}\nnot json\n"))
	assert.ErrorContains(t, err, "line 2")
}

func TestChunk(t *testing.T) {
	recs := make([]Record, 7)
	chunks := Chunk(recs, 3)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 1)

	assert.Len(t, Chunk(recs, 0), 1)
	assert.Nil(t, Chunk(nil, 5))
}

func TestLoadDescriptor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crawl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fetch_uri: https://court.example/search
delimiter: "[COLEND;]"
structure: [Case, Parties, Judgement]
pdf_link_field: Judgement
`), 0o600))

	d, err := LoadDescriptor(path)
	require.NoError(t, err)
	assert.Equal(t, "[COLEND;]", d.Delimiter)
	assert.Equal(t, []string{"Case", "Parties", "Judgement"}, d.Structure)
	assert.Equal(t, "Judgement", d.PDFLinkField)
	assert.NoError(t, d.Validate())

	d.Structure = []string{"Case", "Case"}
	assert.Error(t, d.Validate())
}
