package scheduler

import (
	"sort"
	"sync"
	"time"
)

// ManualScheduler is a deterministic Scheduler driven by Advance.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	jobs   map[int]*manualJob
}

type manualJob struct {
	remaining  int
	every      bool
	onTick     func(int)
	onEvery    func()
	onComplete func()
	cancelled  bool
}

// NewManualScheduler starts its clock at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start, jobs: make(map[int]*manualJob)}
}

func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *ManualScheduler) Schedule(seconds int, onTick func(remaining int), onComplete func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &manualJob{remaining: seconds, onTick: onTick, onComplete: onComplete}
	return m.cancelFunc(m.add(job), job)
}

func (m *ManualScheduler) Every(onTick func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := &manualJob{every: true, onEvery: onTick}
	return m.cancelFunc(m.add(job), job)
}

// Pending reports how many schedules are live.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Advance moves the clock forward one second at a time, firing due callbacks
// after each step. Callbacks run without the scheduler lock held.
func (m *ManualScheduler) Advance(seconds int) {
	for i := 0; i < seconds; i++ {
		m.mu.Lock()
		m.now = m.now.Add(time.Second)
		ids := make([]int, 0, len(m.jobs))
		for id := range m.jobs {
			ids = append(ids, id)
		}
		m.mu.Unlock()

		sort.Ints(ids)
		for _, id := range ids {
			m.step(id)
		}
	}
}

func (m *ManualScheduler) step(id int) {
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	if job.every {
		m.mu.Unlock()
		job.onEvery()
		return
	}
	job.remaining--
	remaining := job.remaining
	if remaining <= 0 {
		delete(m.jobs, id)
	}
	m.mu.Unlock()

	if job.onTick != nil {
		job.onTick(remaining)
	}
	if remaining <= 0 && job.onComplete != nil && !m.isCancelled(job) {
		job.onComplete()
	}
}

// isCancelled guards against onTick having cancelled the job it belongs to.
func (m *ManualScheduler) isCancelled(job *manualJob) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return job.cancelled
}

func (m *ManualScheduler) add(job *manualJob) int {
	m.nextID++
	m.jobs[m.nextID] = job
	return m.nextID
}

func (m *ManualScheduler) cancelFunc(id int, job *manualJob) Cancel {
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		job.cancelled = true
		delete(m.jobs, id)
	}
}
