package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/caselaw-ingest/internal/ingest"
	"github.com/joseph-ayodele/caselaw-ingest/internal/logger"
)

// recordingCapturer tracks how many captures per key overlap.
type recordingCapturer struct {
	mu         sync.Mutex
	active     map[string]int
	maxOverlap map[string]int
	order      []string
}

func newRecordingCapturer() *recordingCapturer {
	return &recordingCapturer{active: map[string]int{}, maxOverlap: map[string]int{}}
}

func (c *recordingCapturer) Capture(_ context.Context, d ingest.MetadataDescriptor, records []ingest.Record, _ string) (uuid.UUID, ingest.CaptureSummary, error) {
	c.mu.Lock()
	c.active[d.FetchURI]++
	if c.active[d.FetchURI] > c.maxOverlap[d.FetchURI] {
		c.maxOverlap[d.FetchURI] = c.active[d.FetchURI]
	}
	c.order = append(c.order, d.FetchURI+"#"+records[0]["n"])
	c.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	c.mu.Lock()
	c.active[d.FetchURI]--
	c.mu.Unlock()
	return uuid.New(), ingest.CaptureSummary{Received: len(records), Stored: len(records)}, nil
}

func job(uri, n string) Job {
	return Job{
		Descriptor: ingest.MetadataDescriptor{FetchURI: uri, Delimiter: ",", Structure: []string{"n"}},
		Records:    []ingest.Record{{"n": n}},
	}
}

func TestCaptureQueueSerializesSameKey(t *testing.T) {
	capt := newRecordingCapturer()
	var (
		mu      sync.Mutex
		results []Result
	)
	q := NewCaptureQueue(capt, logger.Nop(),
		WithWorkers(4),
		WithResultHandler(func(r Result) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}),
	)

	ctx := context.Background()
	for _, n := range []string{"1", "2", "3"} {
		require.NoError(t, q.Enqueue(ctx, job("https://a", n)))
		require.NoError(t, q.Enqueue(ctx, job("https://b", n)))
	}
	q.Shutdown(ctx)

	assert.Len(t, results, 6)
	assert.Equal(t, 1, capt.maxOverlap["https://a"])
	assert.Equal(t, 1, capt.maxOverlap["https://b"])

	var aOrder []string
	for _, o := range capt.order {
		if o[:9] == "https://a" {
			aOrder = append(aOrder, o)
		}
	}
	assert.Equal(t, []string{"https://a#1", "https://a#2", "https://a#3"}, aOrder)
	for _, r := range results {
		assert.NotEqual(t, uuid.Nil, r.Job.ID)
		assert.NoError(t, r.Err)
	}
}

func TestCaptureQueueRejectsAfterShutdown(t *testing.T) {
	q := NewCaptureQueue(newRecordingCapturer(), logger.Nop())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), job("https://a", "1")), ErrQueueClosed)
	q.Shutdown(context.Background())
}
