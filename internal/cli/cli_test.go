package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/caselaw-ingest/constants"
	"github.com/joseph-ayodele/caselaw-ingest/internal/common"
	"github.com/joseph-ayodele/caselaw-ingest/internal/pdf"
	"github.com/joseph-ayodele/caselaw-ingest/internal/pipeline"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"capture", "process", "export", "fetch-pdf", "migrate", "dbhealth"} {
		assert.Contains(t, names, want)
	}
}

func TestProcessCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := run(t, "process")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestProcessCmd_RejectsInvalidMetadataID(t *testing.T) {
	_, err := run(t, "process", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid metadata id")
}

func TestCaptureCmd_RequiresDescriptor(t *testing.T) {
	_, err := run(t, "capture")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"descriptor" not set`)
}

func TestFetchPDFCmd_RejectsNonPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	}))
	defer srv.Close()

	_, err := run(t, "fetch-pdf", srv.URL)
	assert.True(t, errors.Is(err, pdf.ErrNotPDFContentType))
}

func TestExportCmd_WritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(dir, "caselaw.db"))
	out := filepath.Join(dir, "documents.xlsx")

	stdout, err := run(t, "export", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestNewOutcomeView(t *testing.T) {
	id := uuid.New()
	v := newOutcomeView(pipeline.RecordOutcome{
		RawDocumentID: id,
		ReferenceID:   "CA-1",
		State:         constants.StateInsertFailed,
		Err:           errors.New("boom"),
	})
	assert.Equal(t, id, v.RawDocumentID)
	assert.Equal(t, string(constants.StateInsertFailed), v.State)
	assert.Equal(t, "boom", v.Error)
}

func TestProcessCmd_UnknownMetadataID(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "caselaw.db"))
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "test-key")

	_, err := run(t, "process", uuid.NewString())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

type stubProcessor struct {
	summary pipeline.BatchSummary
	err     error
}

func (s stubProcessor) ProcessBatch(context.Context, uuid.UUID, int) (pipeline.BatchSummary, error) {
	return s.summary, s.err
}

func commitFailedBatch(metaID uuid.UUID) stubProcessor {
	cause := errors.New("connection lost during commit")
	return stubProcessor{
		summary: pipeline.BatchSummary{
			MetadataID: metaID,
			Requested:  1,
			Read:       1,
			Failed:     1,
			Outcomes: []pipeline.RecordOutcome{{
				RawDocumentID: uuid.New(),
				ReferenceID:   "CA 5/2019",
				State:         constants.StateInsertFailed,
				Err:           cause,
			}},
		},
		err: &pipeline.FatalBatchError{MetadataID: metaID, Cause: cause},
	}
}

func testCommand(buf *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetContext(context.Background())
	return cmd
}

func TestProcessAndReport_PrintsSummaryOnCommitFailure(t *testing.T) {
	buf := new(bytes.Buffer)
	metaID := uuid.New()

	err := processAndReport(testCommand(buf), commitFailedBatch(metaID), metaID)
	var fatal *pipeline.FatalBatchError
	require.ErrorAs(t, err, &fatal)

	out := buf.String()
	assert.Contains(t, out, string(constants.StateInsertFailed))
	assert.Contains(t, out, "CA 5/2019")
	assert.Contains(t, out, "connection lost during commit")
	assert.Contains(t, out, "read=1 committed=0 duplicates=0 failed=1")
}

func TestProcessAndReport_JSONOnCommitFailure(t *testing.T) {
	processJSON = true
	defer func() { processJSON = false }()

	buf := new(bytes.Buffer)
	metaID := uuid.New()

	err := processAndReport(testCommand(buf), commitFailedBatch(metaID), metaID)
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"state": "INSERT_FAILED"`)
	assert.Contains(t, buf.String(), metaID.String())
}

func TestProcessAndReport_OtherErrorsPrintNothing(t *testing.T) {
	buf := new(bytes.Buffer)
	err := processAndReport(testCommand(buf), stubProcessor{err: errors.New("read raw documents: boom")}, uuid.New())
	require.Error(t, err)
	assert.Empty(t, buf.String())
}
