package intake

import (
	"context"
	"sync"
	"testing"
	"time"

	"compreg-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

// recordingProcessor captures commits in arrival order and can be programmed
// to fail specific requests.
type recordingProcessor struct {
	mu        sync.Mutex
	processed []Request
	failures  map[string][]error // dedup key -> errors returned per attempt
	slow      time.Duration
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{failures: make(map[string][]error)}
}

func (p *recordingProcessor) failNext(key string, errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[key] = append(p.failures[key], errs...)
}

func (p *recordingProcessor) ProcessCreate(ctx context.Context, req Request) error {
	if p.slow > 0 {
		time.Sleep(p.slow)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	key := req.DedupKey()
	if errs := p.failures[key]; len(errs) > 0 {
		err := errs[0]
		p.failures[key] = errs[1:]
		return err
	}
	p.processed = append(p.processed, req)
	return nil
}

func (p *recordingProcessor) snapshot() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.processed))
	copy(out, p.processed)
	return out
}

func newRequest(competitionID string, userID int32) Request {
	return Request{
		Lane:          "competing",
		CompetitionID: competitionID,
		UserID:        userID,
		EventIDs:      []string{"333"},
	}
}

func TestPipeline_ProcessesSubmittedRequest(t *testing.T) {
	proc := newRecordingProcessor()
	p := NewPipeline(proc, Options{})

	assert.NoError(t, p.Submit(newRequest("comp", 1)))
	p.Stop()

	processed := proc.snapshot()
	assert.Len(t, processed, 1)
	assert.Equal(t, int32(1), processed[0].UserID)
}

func TestPipeline_DuplicateSubmissionIsDroppedSilently(t *testing.T) {
	proc := newRecordingProcessor()
	p := NewPipeline(proc, Options{})

	req := newRequest("comp", 1)
	assert.NoError(t, p.Submit(req))
	assert.NoError(t, p.Submit(req), "duplicate must be acknowledged, not rejected")
	p.Stop()

	assert.Len(t, proc.snapshot(), 1)
}

func TestPipeline_OrderingPerCompetition(t *testing.T) {
	proc := newRecordingProcessor()
	proc.slow = time.Millisecond
	p := NewPipeline(proc, Options{QueueDepth: 128})

	for i := int32(1); i <= 20; i++ {
		assert.NoError(t, p.Submit(newRequest("comp", i)))
	}
	p.Stop()

	processed := proc.snapshot()
	assert.Len(t, processed, 20)
	for i, req := range processed {
		assert.Equal(t, int32(i+1), req.UserID, "submission order must be preserved")
	}
}

func TestPipeline_RetriesTransientFailures(t *testing.T) {
	proc := newRecordingProcessor()
	p := NewPipeline(proc, Options{MaxAttempts: 3})

	req := newRequest("comp", 1)
	proc.failNext(req.DedupKey(), domain.ErrTransientFailure, domain.ErrTransientFailure)

	assert.NoError(t, p.Submit(req))
	p.Stop()

	assert.Len(t, proc.snapshot(), 1, "third attempt must succeed")
}

func TestPipeline_DropsRedeliveryWhenAlreadyCreated(t *testing.T) {
	proc := newRecordingProcessor()
	p := NewPipeline(proc, Options{MaxAttempts: 3})

	req := newRequest("comp", 1)
	proc.failNext(req.DedupKey(), domain.ErrRegistrationExists)

	assert.NoError(t, p.Submit(req))
	p.Stop()

	assert.Empty(t, proc.snapshot(), "existing registration ends redelivery without a commit")
}

func TestPipeline_ForgetsKeyAfterPermanentFailure(t *testing.T) {
	proc := newRecordingProcessor()
	p := NewPipeline(proc, Options{MaxAttempts: 2})

	req := newRequest("comp", 1)
	proc.failNext(req.DedupKey(), domain.ErrTransientFailure, domain.ErrTransientFailure)

	assert.NoError(t, p.Submit(req))

	// Drain the first, failed delivery before resubmitting.
	assert.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return len(p.queues) == 0
	}, time.Second, time.Millisecond)

	assert.NoError(t, p.Submit(req), "a fresh submission after permanent failure is not a duplicate")
	p.Stop()

	assert.Len(t, proc.snapshot(), 1)
}

func TestPipeline_RecoversFromProcessorPanic(t *testing.T) {
	panics := 0
	p := NewPipeline(processorFunc(func(ctx context.Context, req Request) error {
		panics++
		panic("boom")
	}), Options{MaxAttempts: 2})

	assert.NoError(t, p.Submit(newRequest("comp", 1)))
	p.Stop()

	assert.Equal(t, 2, panics, "panicking attempts are retried up to the limit")
}

func TestPipeline_RejectsAfterStop(t *testing.T) {
	p := NewPipeline(newRecordingProcessor(), Options{})
	p.Stop()

	err := p.Submit(newRequest("comp", 1))
	assert.ErrorIs(t, err, ErrPipelineStopped)
}

func TestPipeline_QueueFull(t *testing.T) {
	block := make(chan struct{})
	p := NewPipeline(processorFunc(func(ctx context.Context, req Request) error {
		<-block
		return nil
	}), Options{QueueDepth: 1})

	// First request occupies the worker, second fills the queue.
	assert.NoError(t, p.Submit(newRequest("comp", 1)))
	assert.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		q, ok := p.queues["comp"]
		return ok && len(q.pending) == 0
	}, time.Second, time.Millisecond)
	assert.NoError(t, p.Submit(newRequest("comp", 2)))

	err := p.Submit(newRequest("comp", 3))
	assert.ErrorIs(t, err, ErrQueueFull)

	close(block)
	p.Stop()
}

type processorFunc func(ctx context.Context, req Request) error

func (f processorFunc) ProcessCreate(ctx context.Context, req Request) error {
	return f(ctx, req)
}
