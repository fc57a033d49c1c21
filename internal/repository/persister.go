package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type flushWaiter struct {
	seq  uint64
	done chan struct{}
}

// Persister writes state in the background from one goroutine. Pending writes
// are coalesced per key, so callers never wait on the store however slow it is.
// Failures are logged and collected for Close.
type Persister struct {
	store   domain.StateStore
	timeout time.Duration

	// mu guards everything below up to errMu
	mu      sync.Mutex
	pending map[string]json.RawMessage
	queued  uint64
	written uint64
	waiters []flushWaiter
	closed  bool

	// wake holds at most one signal; the writer drains all of pending per signal.
	wake chan struct{}
	done chan struct{}

	errMu    sync.Mutex
	failures error
}

// NewPersister starts the writer goroutine. timeout bounds each Save.
func NewPersister(store domain.StateStore, timeout time.Duration) *Persister {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	p := &Persister{
		store:   store,
		timeout: timeout,
		pending: make(map[string]json.RawMessage),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Enqueue marshals each value now and replaces any write still pending for its
// key. A value that cannot be marshalled is skipped and reported; the other
// keys are queued regardless. Enqueue never blocks on the store.
func (p *Persister) Enqueue(values map[string]interface{}) error {
	var errs error
	encoded := make(map[string]json.RawMessage, len(values))
	for _, key := range sortedKeys(values) {
		data, err := json.Marshal(values[key])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to marshal %s: %w", key, err))
			continue
		}
		encoded[key] = data
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("persister closed")
	}
	if len(encoded) == 0 {
		return errs
	}
	for key, data := range encoded {
		p.pending[key] = data
	}
	p.queued++
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return errs
}

// Flush blocks until everything queued so far has been written or ctx ends.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	if p.closed || p.written >= p.queued {
		p.mu.Unlock()
		return nil
	}
	w := flushWaiter{seq: p.queued, done: make(chan struct{})}
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes what is still pending, stops the writer and returns every write failure.
func (p *Persister) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.wake)
	}
	p.mu.Unlock()

	<-p.done
	return p.Err()
}

// Err returns the combined write failures so far.
func (p *Persister) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.failures
}

func (p *Persister) run() {
	defer close(p.done)
	for range p.wake {
		p.drain()
	}
	p.drain()
}

// drain writes pending batches until none is left.
func (p *Persister) drain() {
	for {
		p.mu.Lock()
		batch := p.pending
		seq := p.queued
		p.pending = make(map[string]json.RawMessage)
		p.mu.Unlock()

		for _, key := range sortedKeys(batch) {
			p.save(key, batch[key])
		}
		if p.release(seq) {
			return
		}
	}
}

func (p *Persister) save(key string, value json.RawMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.store.Save(ctx, key, value); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("⚠️ failed to persist state")
		p.errMu.Lock()
		p.failures = multierr.Append(p.failures, err)
		p.errMu.Unlock()
		return
	}
	logrus.WithField("key", key).Trace("state persisted")
}

// release marks writes up to seq as done and wakes the flushes they cover.
// It reports whether nothing new arrived meanwhile.
func (p *Persister) release(seq uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = seq
	waiting := p.waiters[:0]
	for _, w := range p.waiters {
		if w.seq <= seq {
			close(w.done)
			continue
		}
		waiting = append(waiting, w)
	}
	p.waiters = waiting
	return len(p.pending) == 0
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
