// Package scheduler provides cancellable one-second tick schedules.
//
// Callbacks run outside the caller's goroutine for TickerScheduler and on the
// caller of Advance for ManualScheduler. Cancel never blocks and never invokes
// a callback; a callback that is already running may still finish, so owners
// must ignore callbacks from a slot they have replaced.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Cancel stops a schedule. Calling it more than once is fine.
type Cancel func()

// Scheduler runs per-second callbacks.
type Scheduler interface {
	// Schedule ticks once a second for seconds ticks, passing the remaining count,
	// then calls onComplete. onTick may be nil.
	Schedule(seconds int, onTick func(remaining int), onComplete func()) Cancel
	// Every calls onTick once a second until cancelled.
	Every(onTick func()) Cancel
	// Now is the clock the schedules are measured against.
	Now() time.Time
}

// TickerScheduler is backed by time.Ticker, one goroutine per schedule.
type TickerScheduler struct {
	interval time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewTickerScheduler ticks every second against the wall clock.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{interval: time.Second, now: time.Now}
}

// NewTickerSchedulerWithInterval is mostly useful for tests that cannot wait real seconds.
func NewTickerSchedulerWithInterval(interval time.Duration) *TickerScheduler {
	return &TickerScheduler{interval: interval, now: time.Now}
}

func (s *TickerScheduler) Now() time.Time {
	return s.now()
}

func (s *TickerScheduler) Schedule(seconds int, onTick func(remaining int), onComplete func()) Cancel {
	ctx, cancel := context.WithCancel(context.Background())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		remaining := seconds
		for remaining > 0 {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			remaining--
			if ctx.Err() != nil {
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
		}
		if ctx.Err() == nil && onComplete != nil {
			onComplete()
		}
	}()
	return Cancel(cancel)
}

func (s *TickerScheduler) Every(onTick func()) Cancel {
	ctx, cancel := context.WithCancel(context.Background())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() == nil {
					onTick()
				}
			}
		}
	}()
	return Cancel(cancel)
}

// Wait blocks until every schedule goroutine has exited.
func (s *TickerScheduler) Wait() {
	s.wg.Wait()
}
