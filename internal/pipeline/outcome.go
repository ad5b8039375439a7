package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/caselaw-ingest/constants"
)

// RecordOutcome is the final state of one raw document in a batch.
type RecordOutcome struct {
	RawDocumentID uuid.UUID
	PDFURI        string
	ReferenceID   string
	DocumentID    uuid.UUID
	State         constants.RecordState
	Err           error
}

// BatchSummary reports what ProcessBatch did. Outcomes follow the order the
// raw documents were processed in (newest first).
type BatchSummary struct {
	MetadataID uuid.UUID
	Requested  int
	Read       int
	Committed  int
	Duplicates int
	Failed     int
	Outcomes   []RecordOutcome
}

func (s *BatchSummary) tally() {
	s.Committed, s.Duplicates, s.Failed = 0, 0, 0
	for _, o := range s.Outcomes {
		switch o.State {
		case constants.StateCommitted:
			s.Committed++
		case constants.StateDuplicateSkipped:
			s.Duplicates++
		default:
			s.Failed++
		}
	}
}

// FatalBatchError means the batch transaction could not be committed, so
// nothing staged in it was persisted.
type FatalBatchError struct {
	MetadataID uuid.UUID
	Cause      error
}

func (e *FatalBatchError) Error() string {
	return fmt.Sprintf("batch %s: commit failed: %v", e.MetadataID, e.Cause)
}

func (e *FatalBatchError) Unwrap() error { return e.Cause }
