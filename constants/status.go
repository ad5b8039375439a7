package constants

// RecordState is the lifecycle position of one raw record inside an
// orchestrator batch.
type RecordState string

// Stable values (these exact strings appear in logs and summaries).
const (
	StateFetched   RecordState = "FETCHED"   // raw row read back for the batch
	StateExtracted RecordState = "EXTRACTED" // service returned a parsed, normalized result
	StateValidated RecordState = "VALIDATED" // passed the duplicate check
	StateStaged    RecordState = "STAGED"    // pending insert in the batch transaction
	StateCommitted RecordState = "COMMITTED" // flushed and committed

	StateExtractionFailed RecordState = "EXTRACTION_FAILED"
	StateDuplicateSkipped RecordState = "DUPLICATE_SKIPPED"
	StateInsertFailed     RecordState = "INSERT_FAILED"
)

// Terminal reports whether no further transition is possible from s.
func (s RecordState) Terminal() bool {
	switch s {
	case StateCommitted, StateExtractionFailed, StateDuplicateSkipped, StateInsertFailed:
		return true
	}
	return false
}

// Succeeded reports whether s counts as a successful outcome for a record.
// A duplicate skip is an expected result, not a failure.
func (s RecordState) Succeeded() bool {
	return s == StateCommitted || s == StateDuplicateSkipped
}
