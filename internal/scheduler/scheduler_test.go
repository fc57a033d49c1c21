package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTickerScheduleCountsDown(t *testing.T) {
	s := NewTickerSchedulerWithInterval(time.Millisecond)

	var mu sync.Mutex
	var ticks []int
	done := make(chan struct{})
	s.Schedule(3, func(remaining int) {
		mu.Lock()
		ticks = append(ticks, remaining)
		mu.Unlock()
	}, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("schedule never completed")
	}
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{2, 1, 0}, ticks)
}

func TestTickerCancelSuppressesCompletion(t *testing.T) {
	s := NewTickerSchedulerWithInterval(10 * time.Millisecond)

	var completed atomic.Bool
	cancel := s.Schedule(1000, nil, func() { completed.Store(true) })
	cancel()
	cancel()
	s.Wait()

	assert.False(t, completed.Load())
}

func TestTickerEvery(t *testing.T) {
	s := NewTickerSchedulerWithInterval(time.Millisecond)

	var n atomic.Int32
	cancel := s.Every(func() { n.Add(1) })
	require.Eventually(t, func() bool { return n.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	s.Wait()
}

func TestManualSchedule(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	m := NewManualScheduler(start)

	var ticks []int
	completed := 0
	m.Schedule(3, func(r int) { ticks = append(ticks, r) }, func() { completed++ })
	assert.Equal(t, 1, m.Pending())

	m.Advance(2)
	assert.Equal(t, []int{2, 1}, ticks)
	assert.Zero(t, completed)

	m.Advance(5)
	assert.Equal(t, []int{2, 1, 0}, ticks)
	assert.Equal(t, 1, completed)
	assert.Zero(t, m.Pending())
	assert.Equal(t, start.Add(7*time.Second), m.Now())
}

func TestManualCancelFromTick(t *testing.T) {
	m := NewManualScheduler(time.Now())

	completed := false
	var cancel Cancel
	cancel = m.Schedule(1, func(int) { cancel() }, func() { completed = true })
	m.Advance(1)

	assert.False(t, completed)
	assert.Zero(t, m.Pending())
}

func TestManualEvery(t *testing.T) {
	m := NewManualScheduler(time.Now())

	n := 0
	cancel := m.Every(func() { n++ })
	m.Advance(4)
	cancel()
	m.Advance(4)

	assert.Equal(t, 4, n)
}
