package async

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/caselaw-ingest/internal/ingest"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one crawled batch waiting for capture.
type Job struct {
	ID           uuid.UUID
	Descriptor   ingest.MetadataDescriptor
	Records      []ingest.Record
	PDFLinkField string
	SubmittedAt  time.Time
}

// Key routes jobs. Jobs sharing a key run one after another on the same
// worker, so each capture's newest-N read only sees its own rows.
func (j Job) Key() string {
	return j.Descriptor.FetchURI + "\x00" + j.Descriptor.Delimiter + "\x00" + strings.Join(j.Descriptor.Structure, "\x00")
}

// Result is reported for every job a worker finishes.
type Result struct {
	Job        Job
	MetadataID uuid.UUID
	Summary    ingest.CaptureSummary
	Err        error
	Elapsed    time.Duration
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
