package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
	"github.com/joseph-ayodele/caselaw-ingest/internal/entity"
	"github.com/joseph-ayodele/caselaw-ingest/internal/repository"
	"github.com/joseph-ayodele/caselaw-ingest/internal/repository/testutil"
)

func TestMetadataResolveOrCreateIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	repo := repository.NewMetadataRepository(db, testutil.Logger(t))
	ctx := context.Background()

	cols := []string{"case_no", "title", "pdf_link"}
	first, err := repo.ResolveOrCreate(ctx, "https://court.example/judgments", ",", cols)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, first)

	second, err := repo.ResolveOrCreate(ctx, "https://court.example/judgments", ",", cols)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := repo.ResolveOrCreate(ctx, "https://court.example/judgments", ",", []string{"title", "case_no", "pdf_link"})
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "column order is part of the configuration")

	var count int64
	require.NoError(t, db.Model(&entity.MetadataRaw{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestMetadataGetByID(t *testing.T) {
	db := testutil.DB(t)
	repo := repository.NewMetadataRepository(db, testutil.Logger(t))
	ctx := context.Background()

	id, err := repo.ResolveOrCreate(ctx, "https://court.example/judgments", ";", []string{"case_no", "pdf_link"})
	require.NoError(t, err)

	row, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://court.example/judgments", row.FetchURI)
	assert.Equal(t, ";", row.Delimiter)
	assert.JSONEq(t, `["case_no","pdf_link"]`, string(row.Structure))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRawDocumentListNewest(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	metaID, err := repository.NewMetadataRepository(db, log).ResolveOrCreate(ctx, "https://x", ",", []string{"a"})
	require.NoError(t, err)

	raws := repository.NewRawDocumentRepository(db, log)
	ids, err := raws.CreateBatch(ctx, metaID, []repository.NewRawDocument{
		{Payload: []byte(`{"a":"1"}`), PDFURI: "https://x/1.pdf", PDFRaw: "one", PageCount: 1},
		{Payload: []byte(`{"a":"2"}`), PDFURI: "https://x/2.pdf", PDFRaw: "two", PageCount: 2},
		{Payload: []byte(`{"a":"3"}`), PDFURI: "https://x/3.pdf", PDFRaw: "three", PageCount: 3},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	rows, err := raws.ListNewest(ctx, metaID, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ids[2], rows[0].ID)
	assert.Equal(t, ids[1], rows[1].ID)
	assert.Equal(t, "three", rows[0].PDFRaw)

	none, err := raws.ListNewest(ctx, uuid.New(), 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDocumentBatchDedupAndCommit(t *testing.T) {
	db := testutil.DB(t)
	docs := repository.NewDocumentRepository(db, testutil.Logger(t))
	ctx := context.Background()

	batch, err := docs.Begin(ctx)
	require.NoError(t, err)
	defer batch.Rollback()

	exists, err := batch.Exists(ctx, "CIV-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, batch.Stage(&entity.Document{ReferenceID: "CIV-1", Title: "A v B"}))
	assert.True(t, batch.IsStaged("CIV-1"))
	require.NoError(t, batch.Flush(ctx))

	exists, err = batch.Exists(ctx, "CIV-1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, batch.Commit())

	found, err := docs.FindByReferenceID(ctx, "CIV-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "A v B", found.Title)

	missing, err := docs.FindByReferenceID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// committed rows are seen by later batches
	next, err := docs.Begin(ctx)
	require.NoError(t, err)
	defer next.Rollback()
	exists, err = next.Exists(ctx, "CIV-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDocumentBatchFlushConflictIsIsolated(t *testing.T) {
	db := testutil.DB(t)
	docs := repository.NewDocumentRepository(db, testutil.Logger(t))
	ctx := context.Background()

	batch, err := docs.Begin(ctx)
	require.NoError(t, err)
	defer batch.Rollback()

	require.NoError(t, batch.Stage(&entity.Document{ReferenceID: "CR-7", Title: "first"}))
	require.NoError(t, batch.Flush(ctx))

	// bypass the staged-set check to force a storage-level collision
	require.NoError(t, batch.Stage(&entity.Document{ReferenceID: "CR-7", Title: "second"}))
	err = batch.Flush(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrConflict))

	require.NoError(t, batch.Stage(&entity.Document{ReferenceID: "CR-8", Title: "third"}))
	require.NoError(t, batch.Flush(ctx))
	require.NoError(t, batch.Commit())

	list, err := docs.List(ctx, repository.DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Title)
	assert.Equal(t, "CR-8", list[1].ReferenceID)
}

func TestDocumentBatchRollbackDiscards(t *testing.T) {
	db := testutil.DB(t)
	docs := repository.NewDocumentRepository(db, testutil.Logger(t))
	ctx := context.Background()

	batch, err := docs.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, batch.Stage(&entity.Document{ReferenceID: "X-1"}))
	require.NoError(t, batch.Flush(ctx))
	require.NoError(t, batch.Rollback())
	assert.NoError(t, batch.Rollback(), "second rollback is a no-op")

	found, err := docs.FindByReferenceID(ctx, "X-1")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestDocumentListFilters(t *testing.T) {
	db := testutil.DB(t)
	docs := repository.NewDocumentRepository(db, testutil.Logger(t))
	ctx := context.Background()

	batch, err := docs.Begin(ctx)
	require.NoError(t, err)
	for _, d := range []entity.Document{
		{ReferenceID: "A", Year: 2019, Jurisdiction: "Kenya"},
		{ReferenceID: "B", Year: 2021, Jurisdiction: "Kenya"},
		{ReferenceID: "C", Year: 2023, Jurisdiction: "Uganda"},
	} {
		require.NoError(t, batch.Stage(&d))
	}
	require.NoError(t, batch.Flush(ctx))
	require.NoError(t, batch.Commit())

	got, err := docs.List(ctx, repository.DocumentFilter{FromYear: 2020})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = docs.List(ctx, repository.DocumentFilter{Jurisdiction: "Kenya", ToYear: 2020})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].ReferenceID)
}
