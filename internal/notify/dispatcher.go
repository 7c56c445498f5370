// Package notify delivers stage change notices to stage managers in the background.
// Delivery is best-effort: enqueueing never blocks the caller, failed deliveries are
// retried with bounded exponential backoff, and nothing is reported back to the write
// that triggered the notice.
package notify

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/talent-pipeline/internal/types"
	"golang.org/x/sync/errgroup"
)

// Sink delivers one notice to one manager.
type Sink interface {
	Notify(ctx context.Context, managerID uuid.UUID, notice types.StageNotice) error
}

// Config tunes the dispatcher. Zero values fall back to defaults.
type Config struct {
	Workers        int
	QueueSize      int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// AttemptTimeout bounds a single Sink.Notify call.
	AttemptTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 10 * time.Second
	}
	return c
}

// Stats counts delivery outcomes.
type Stats struct {
	Delivered int64
	Failed    int64
	Dropped   int64
}

type delivery struct {
	managerID uuid.UUID
	notice    types.StageNotice
}

// Dispatcher queues notices and delivers them with a pool of workers.
type Dispatcher struct {
	sink Sink
	cfg  Config

	mu     sync.RWMutex
	closed bool
	queue  chan delivery
	group  *errgroup.Group

	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// NewDispatcher creates a Dispatcher. Call Start before enqueueing and Close when done.
func NewDispatcher(sink Sink, cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		sink:  sink,
		cfg:   cfg,
		queue: make(chan delivery, cfg.QueueSize),
	}
}

// Start launches the workers. They run until Close drains the queue or ctx is canceled.
func (d *Dispatcher) Start(ctx context.Context) {
	g, gCtx := errgroup.WithContext(ctx)
	d.group = g
	for i := 0; i < d.cfg.Workers; i++ {
		worker := i + 1
		g.Go(func() error {
			d.work(gCtx, worker)
			return nil
		})
	}
	log.Printf("[notify] started %d workers (queue %d, max attempts %d)", d.cfg.Workers, d.cfg.QueueSize, d.cfg.MaxAttempts)
}

// StageChanged fans a notice out to every manager of the target stage.
func (d *Dispatcher) StageChanged(notice types.StageNotice) {
	for _, managerID := range notice.ManagerIDs {
		d.Enqueue(managerID, notice)
	}
}

// Enqueue queues a delivery without blocking. It reports false when the notice was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Enqueue(managerID uuid.UUID, notice types.StageNotice) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		log.Printf("[notify] dispatcher closed, dropping notice for application %s", notice.ApplicationID)
		return false
	}
	select {
	case d.queue <- delivery{managerID: managerID, notice: notice}:
		return true
	default:
		d.dropped.Add(1)
		log.Printf("[notify] queue full, dropping notice for application %s to manager %s", notice.ApplicationID, managerID)
		return false
	}
}

// Close stops accepting notices, lets the workers drain the queue and waits for them.
// It is safe to call more than once.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	if d.group == nil {
		return nil
	}
	return d.group.Wait()
}

// Stats returns the delivery counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-d.queue:
			if !ok {
				return
			}
			if err := d.deliver(ctx, job); err != nil {
				d.failed.Add(1)
				log.Printf("[notify] worker %d gave up on application %s for manager %s: %v", worker, job.notice.ApplicationID, job.managerID, err)
				continue
			}
			d.delivered.Add(1)
		}
	}
}

// deliver tries the sink until it succeeds, attempts run out or ctx ends.
func (d *Dispatcher) deliver(ctx context.Context, job delivery) error {
	var err error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
		err = d.sink.Notify(attemptCtx, job.managerID, job.notice)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == d.cfg.MaxAttempts {
			break
		}
		wait := Backoff(d.cfg.InitialBackoff, d.cfg.MaxBackoff, attempt)
		log.Printf("[notify] attempt %d for application %s failed, retrying in %v: %v", attempt, job.notice.ApplicationID, wait, err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// Backoff returns the wait after the given failed attempt: initial doubled per attempt,
// capped at max.
func Backoff(initial, max time.Duration, attempt int) time.Duration {
	wait := initial
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= max {
			return max
		}
	}
	if wait > max {
		return max
	}
	return wait
}
