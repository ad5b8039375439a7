package async

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/caselaw-ingest/internal/ingest"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

// Capturer is satisfied by *ingest.Intake.
type Capturer interface {
	Capture(ctx context.Context, descriptor ingest.MetadataDescriptor, records []ingest.Record, pdfLinkField string) (uuid.UUID, ingest.CaptureSummary, error)
}

// CaptureQueue runs capture jobs on a fixed set of workers. Each worker owns
// its own channel and a job always lands on the worker its key hashes to.
type CaptureQueue struct {
	capturer Capturer
	logger   *logger.Logger
	workers  int
	size     int
	timeout  time.Duration
	onResult func(Result)

	chans []chan Job
	wg    sync.WaitGroup
	once  sync.Once

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*CaptureQueue)(nil)

type Option func(*CaptureQueue)

func WithWorkers(n int) Option {
	return func(q *CaptureQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithQueueSize sets the buffer of each worker's channel.
func WithQueueSize(n int) Option {
	return func(q *CaptureQueue) {
		if n > 0 {
			q.size = n
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *CaptureQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResultHandler registers fn to receive every finished job. It is
// called from worker goroutines.
func WithResultHandler(fn func(Result)) Option {
	return func(q *CaptureQueue) { q.onResult = fn }
}

func NewCaptureQueue(capturer Capturer, log *logger.Logger, opts ...Option) *CaptureQueue {
	q := &CaptureQueue{
		capturer: capturer,
		logger:   logger.OrNop(log).With("component", "CaptureQueue"),
		workers:  2,
		size:     64,
		timeout:  30 * time.Minute,
	}
	for _, o := range opts {
		o(q)
	}
	q.chans = make([]chan Job, q.workers)
	for i := range q.chans {
		q.chans[i] = make(chan Job, q.size)
	}
	q.start()
	return q
}

func (q *CaptureQueue) start() {
	q.once.Do(func() {
		for i, ch := range q.chans {
			q.wg.Add(1)
			go func(workerID int, ch <-chan Job) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range ch {
					q.run(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i+1, ch)
		}
	})
}

func (q *CaptureQueue) run(workerID int, job Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	metaID, summary, err := q.capturer.Capture(ctx, job.Descriptor, job.Records, job.PDFLinkField)
	cancel()

	res := Result{Job: job, MetadataID: metaID, Summary: summary, Err: err, Elapsed: time.Since(start)}
	if err != nil {
		q.logger.Error("capture failed", "worker_id", workerID, "job_id", job.ID, "metadata_id", metaID, "error", err)
	} else {
		q.logger.Info("capture finished",
			"worker_id", workerID,
			"job_id", job.ID,
			"metadata_id", metaID,
			"stored", summary.Stored,
			"skipped", len(summary.Skipped),
		)
	}
	if q.onResult != nil {
		q.onResult(res)
	}
}

func (q *CaptureQueue) route(key string) chan Job {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return q.chans[int(h.Sum32()%uint32(len(q.chans)))]
}

// Enqueue blocks while the target worker's buffer is full, or until ctx ends.
func (q *CaptureQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.ID)
		return ErrQueueClosed
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}

	ch := q.route(job.Key())
	select {
	case ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure", "job_id", job.ID)
		select {
		case ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	q.logger.Debug("queued capture job", "job_id", job.ID, "records", len(job.Records))
	return nil
}

// Shutdown stops intake and waits for queued jobs to drain or ctx to end.
func (q *CaptureQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, ch := range q.chans {
		close(ch)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
