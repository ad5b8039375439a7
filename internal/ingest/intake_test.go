package ingest_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
	"github.com/joseph-ayodele/caselaw-ingest/internal/ingest"
	"github.com/joseph-ayodele/caselaw-ingest/internal/pdf"
	"github.com/joseph-ayodele/caselaw-ingest/internal/pipeline"
	"github.com/joseph-ayodele/caselaw-ingest/internal/repository"
	"github.com/joseph-ayodele/caselaw-ingest/internal/repository/testutil"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (pdf.Text, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(pdf.Text), args.Error(1)
}

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) ProcessBatch(ctx context.Context, metadataID uuid.UUID, n int) (pipeline.BatchSummary, error) {
	args := m.Called(ctx, metadataID, n)
	return args.Get(0).(pipeline.BatchSummary), args.Error(1)
}

var descriptor = ingest.MetadataDescriptor{
	FetchURI:  "https://court.example/search?page=1",
	Delimiter: "[COLEND;]",
	Structure: []string{"Case", "Judgement"},
}

func newIntake(t *testing.T, fetcher ingest.PDFFetcher, proc ingest.BatchProcessor) (*ingest.Intake, repository.RawDocumentRepository) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	raws := repository.NewRawDocumentRepository(db, log)
	in := ingest.NewIntake(log, ingest.Config{FetchConcurrency: 3},
		repository.NewMetadataRepository(db, log), raws, fetcher, proc)
	return in, raws
}

func TestCaptureSkipsUnusableRecords(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, "https://court.example/1.pdf").
		Return(pdf.Text{URL: "https://court.example/1.pdf", Text: "one", Pages: 1}, nil)
	fetcher.On("Fetch", mock.Anything, "https://court.example/2.pdf").
		Return(pdf.Text{}, pdf.ErrDownloadTooLarge)
	fetcher.On("Fetch", mock.Anything, "https://court.example/3.pdf").
		Return(pdf.Text{URL: "https://court.example/3.pdf", Text: "three", Pages: 3}, nil)

	proc := new(MockProcessor)
	proc.On("ProcessBatch", mock.Anything, mock.Anything, 2).
		Return(pipeline.BatchSummary{Committed: 2}, nil).Once()

	in, raws := newIntake(t, fetcher, proc)
	records := []ingest.Record{
		{"Case": "A", "Judgement": "https://court.example/1.pdf"},
		{"Case": "B", "Judgement": "N/A"},
		{"Case": "C", "Judgement": "https://court.example/2.pdf"},
		{"Case": "D"},
		{"Case": "E", "Judgement": "https://court.example/3.pdf"},
		{"Case": "F", "Judgement": "javascript:openPdf(7)"},
	}

	id, summary, err := in.Capture(context.Background(), descriptor, records, "Judgement")
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Received)
	assert.Equal(t, 2, summary.Stored)
	require.Len(t, summary.Skipped, 4)
	require.NotNil(t, summary.Batch)
	assert.Equal(t, 2, summary.Batch.Committed)

	var skippedIdx []int
	for _, s := range summary.Skipped {
		skippedIdx = append(skippedIdx, s.Index)
	}
	assert.Equal(t, []int{1, 2, 3, 5}, skippedIdx)
	assert.ErrorIs(t, summary.Skipped[0].Err, common.ErrValidation)
	assert.ErrorIs(t, summary.Skipped[1].Err, pdf.ErrDownloadTooLarge)
	assert.ErrorIs(t, summary.Skipped[3].Err, common.ErrValidation)

	stored, err := raws.ListNewest(context.Background(), id, 10)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "https://court.example/3.pdf", stored[0].PDFURI)
	assert.Equal(t, 3, stored[0].PageCount)
	assert.JSONEq(t, `{"Case":"A","Judgement":"https://court.example/1.pdf"}`, string(stored[1].Payload))

	proc.AssertExpectations(t)
	fetcher.AssertNumberOfCalls(t, "Fetch", 3)
}

func TestCaptureReusesMetadataBatch(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(pdf.Text{Text: "x", Pages: 1}, nil)
	proc := new(MockProcessor)
	proc.On("ProcessBatch", mock.Anything, mock.Anything, 1).Return(pipeline.BatchSummary{}, nil)

	in, _ := newIntake(t, fetcher, proc)
	rec := []ingest.Record{{"Case": "A", "Judgement": "https://court.example/a.pdf"}}

	first, _, err := in.Capture(context.Background(), descriptor, rec, "Judgement")
	require.NoError(t, err)
	second, _, err := in.Capture(context.Background(), descriptor, rec, "Judgement")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	proc.AssertNumberOfCalls(t, "ProcessBatch", 2)
}

func TestCaptureWithNothingStoredSkipsProcessing(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(pdf.Text{}, errors.New("connection reset"))
	proc := new(MockProcessor)

	in, _ := newIntake(t, fetcher, proc)
	id, summary, err := in.Capture(context.Background(), descriptor,
		[]ingest.Record{{"Judgement": "https://court.example/a.pdf"}}, "Judgement")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, 0, summary.Stored)
	assert.Nil(t, summary.Batch)
	proc.AssertNotCalled(t, "ProcessBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestCaptureRejectsInvalidDescriptor(t *testing.T) {
	in, _ := newIntake(t, new(MockFetcher), new(MockProcessor))

	_, _, err := in.Capture(context.Background(), ingest.MetadataDescriptor{Delimiter: ","}, nil, "Judgement")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, _, err = in.Capture(context.Background(), descriptor, nil, "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCaptureSurfacesProcessingError(t *testing.T) {
	fetcher := new(MockFetcher)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(pdf.Text{Text: "x", Pages: 1}, nil)
	proc := new(MockProcessor)
	fatal := &pipeline.FatalBatchError{Cause: errors.New("disk full")}
	proc.On("ProcessBatch", mock.Anything, mock.Anything, 1).Return(pipeline.BatchSummary{Failed: 1}, fatal)

	in, _ := newIntake(t, fetcher, proc)
	_, summary, err := in.Capture(context.Background(), descriptor,
		[]ingest.Record{{"Judgement": "https://court.example/a.pdf"}}, "Judgement")

	var fbe *pipeline.FatalBatchError
	require.ErrorAs(t, err, &fbe)
	require.NotNil(t, summary.Batch)
	assert.Equal(t, 1, summary.Batch.Failed)
	assert.Equal(t, 1, summary.Stored)
}

