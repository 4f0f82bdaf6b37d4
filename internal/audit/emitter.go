package audit

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Sink consumes decision events (file, webhook, etc.).
type Sink interface {
	Name() string
	Deliver(context.Context, *Event) error
	Close(context.Context) error
}

// Emitter buffers events and delivers them to sinks off the request path.
// A full queue drops the event rather than blocking an evaluation.
type Emitter struct {
	queue           chan *Event
	sinks           []Sink
	shutdownTimeout time.Duration

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	wg      sync.WaitGroup
}

// EmitterConfig controls queue and worker sizing.
type EmitterConfig struct {
	QueueSize       int
	Workers         int
	ShutdownTimeout time.Duration
}

// NewEmitter starts background workers delivering to the provided sinks.
func NewEmitter(cfg EmitterConfig, sinks []Sink) *Emitter {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 2 * time.Second
	}

	em := &Emitter{
		queue:           make(chan *Event, queueSize),
		sinks:           sinks,
		shutdownTimeout: shutdownTimeout,
	}
	for i := 0; i < workers; i++ {
		em.wg.Add(1)
		go em.worker()
	}
	return em
}

// Emit enqueues without blocking; dropped events are counted and logged on close.
func (e *Emitter) Emit(_ context.Context, ev *Event) {
	if e == nil || ev == nil {
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}

	select {
	case e.queue <- ev:
	default:
		e.dropped.Add(1)
	}
}

// Close stops accepting events and waits briefly for the queue to drain.
func (e *Emitter) Close(ctx context.Context) {
	if e == nil {
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	dropped := e.dropped.Load()
	e.mu.Unlock()

	if dropped > 0 {
		log.Printf("[audit] dropped %d events (queue full)", dropped)
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	waitCtx := ctx
	if waitCtx == nil {
		waitCtx = context.Background()
	}
	var cancel context.CancelFunc
	waitCtx, cancel = context.WithTimeout(waitCtx, e.shutdownTimeout)
	defer cancel()

	select {
	case <-done:
	case <-waitCtx.Done():
	}

	for _, s := range e.sinks {
		if err := s.Close(waitCtx); err != nil {
			log.Printf("[audit] sink %s close error: %v", s.Name(), err)
		}
	}
}

func (e *Emitter) worker() {
	defer e.wg.Done()
	for ev := range e.queue {
		for _, s := range e.sinks {
			if err := s.Deliver(context.Background(), ev); err != nil {
				log.Printf("[audit] sink %s failed: %v", s.Name(), err)
			}
		}
	}
}
