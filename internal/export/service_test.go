package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/caselaw-ingest/internal/entity"
	"github.com/joseph-ayodele/caselaw-ingest/internal/repository"
	"github.com/joseph-ayodele/caselaw-ingest/internal/repository/testutil"
)

func TestDocumentsXLSX(t *testing.T) {
	db := testutil.DB(t)
	docs := repository.NewDocumentRepository(db, testutil.Logger(t))
	ctx := context.Background()

	batch, err := docs.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, batch.Stage(&entity.Document{ReferenceID: "HC 1/2020", Title: "A v B", Year: 2020, RawContentURI: "https://x/1.pdf"}))
	require.NoError(t, batch.Stage(&entity.Document{ReferenceID: "HC 2/2018", Title: "C v D", Year: 2018}))
	require.NoError(t, batch.Stage(&entity.Document{ReferenceID: "Unknown", Title: "Unknown", RawContentURI: "https://x/u.pdf"}))
	require.NoError(t, batch.Flush(ctx))
	require.NoError(t, batch.Commit())

	out, err := NewService(docs, testutil.Logger(t)).DocumentsXLSX(ctx, repository.DocumentFilter{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, headers, rows[0])
	// ordered by year then reference id; year 0 renders blank
	assert.Equal(t, "Unknown", rows[1][0])
	assert.Equal(t, "", rows[1][6])
	assert.Equal(t, "HC 2/2018", rows[2][0])
	assert.Equal(t, "2018", rows[2][6])
	assert.Equal(t, "https://x/1.pdf", rows[3][10])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
