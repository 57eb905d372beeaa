// Package intake accepts registration creation requests under at-least-once
// delivery and guarantees at-most-once entity creation. Requests are
// deduplicated by a deterministic key and processed by exactly one worker per
// ordering key (the competition id), in submission order.
package intake

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"compreg-backend/internal/domain"
	"compreg-backend/internal/logger"
)

// Request is one registration creation request for the competing lane.
type Request struct {
	Lane          string   `json:"lane"`
	CompetitionID string   `json:"competition_id"`
	UserID        int32    `json:"user_id"`
	EventIDs      []string `json:"event_ids"`
	Comment       string   `json:"comment"`
	Guests        int32    `json:"guests"`
}

// DedupKey is stable across redeliveries of the same logical request.
func (r Request) DedupKey() string {
	return fmt.Sprintf("%s-registration-%s-%d", r.Lane, r.CompetitionID, r.UserID)
}

// OrderingKey groups requests that must be processed by a single worker in
// submission order. Capacity decisions depend on it.
func (r Request) OrderingKey() string {
	return r.CompetitionID
}

// Processor commits a creation request downstream. It must return
// domain.ErrRegistrationExists when the entity was already created by an
// earlier delivery of the same request.
type Processor interface {
	ProcessCreate(ctx context.Context, req Request) error
}

var (
	ErrPipelineStopped = errors.New("intake pipeline is stopped")
	ErrQueueFull       = errors.New("intake queue for this competition is full")
)

// Pipeline owns the dedup table and the per-ordering-key FIFO queues.
type Pipeline struct {
	processor   Processor
	dedup       *dedupTable
	queueDepth  int
	maxAttempts int

	mu      sync.Mutex
	queues  map[string]*keyQueue
	stopped bool
	wg      sync.WaitGroup
}

type keyQueue struct {
	pending []Request
}

type Options struct {
	QueueDepth  int
	MaxAttempts int
	DedupWindow time.Duration
}

func NewPipeline(processor Processor, opts Options) *Pipeline {
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = 64
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = 5 * time.Minute
	}
	return &Pipeline{
		processor:   processor,
		dedup:       newDedupTable(opts.DedupWindow),
		queueDepth:  opts.QueueDepth,
		maxAttempts: opts.MaxAttempts,
		queues:      make(map[string]*keyQueue),
	}
}

// Submit enqueues the request for asynchronous processing. Duplicates within
// the dedup window are dropped silently; the caller still acknowledges the
// submission. The returned error only reports transport-level problems.
func (p *Pipeline) Submit(req Request) error {
	if !p.dedup.Claim(req.DedupKey()) {
		logger.Debug("Dropping duplicate intake request", "dedup_key", req.DedupKey())
		return nil
	}

	key := req.OrderingKey()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.dedup.Forget(req.DedupKey())
		return ErrPipelineStopped
	}
	q, ok := p.queues[key]
	if !ok {
		q = &keyQueue{}
		p.queues[key] = q
		p.wg.Add(1)
		go p.drain(key, q)
	}
	if len(q.pending) >= p.queueDepth {
		p.mu.Unlock()
		p.dedup.Forget(req.DedupKey())
		return ErrQueueFull
	}
	q.pending = append(q.pending, req)
	p.mu.Unlock()
	return nil
}

// drain is the single logical worker for one ordering key. It exits when the
// queue runs empty and unregisters itself, so idle competitions hold no
// goroutine.
func (p *Pipeline) drain(key string, q *keyQueue) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		if len(q.pending) == 0 {
			delete(p.queues, key)
			p.mu.Unlock()
			return
		}
		req := q.pending[0]
		q.pending = q.pending[1:]
		p.mu.Unlock()

		p.process(req)
	}
}

// process runs the downstream commit with bounded redelivery. Once dequeued a
// request runs to completion; there is no cancellation path.
func (p *Pipeline) process(req Request) {
	ctx := context.Background()
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		err := p.attempt(ctx, req)
		if err == nil {
			return
		}
		if errors.Is(err, domain.ErrRegistrationExists) {
			// A retry landed after a completed commit.
			logger.Debug("Dropping redelivered intake request, registration exists",
				"dedup_key", req.DedupKey())
			return
		}
		logger.Warn("Intake commit failed, redelivering",
			"dedup_key", req.DedupKey(), "attempt", attempt, "error", err)
	}
	p.dedup.Forget(req.DedupKey())
	logger.Error("Intake request failed after all redeliveries",
		"dedup_key", req.DedupKey(), "attempts", p.maxAttempts)
}

func (p *Pipeline) attempt(ctx context.Context, req Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("intake worker panicked: %v", r)
		}
	}()
	return p.processor.ProcessCreate(ctx, req)
}

// Stop refuses new submissions and waits for in-flight queues to drain.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.wg.Wait()
}
