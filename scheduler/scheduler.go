package scheduler

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"
)

// JobID identifies a scheduled job for cancellation.
type JobID uint64

// Config contains scheduler tuning parameters.
type Config struct {
	// Tick is the poll granularity of the execution loop. Due jobs fire
	// on the next tick at or after their requested time. Defaults to one
	// second when zero.
	Tick time.Duration

	// Log receives reports of recovered callback panics. Defaults to
	// slog.Default when nil.
	Log *slog.Logger

	// Now overrides the time source, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Scheduler fires callbacks at or after a requested time, either once or
// on a fixed period. It knows nothing about auctions; callers communicate
// state changes through the callbacks themselves.
//
// Jobs are kept in a min-heap keyed by next fire time, so polling cost
// does not scale linearly with the number of pending jobs.
type Scheduler struct {
	tick time.Duration
	log  *slog.Logger
	now  func() time.Time

	mu     sync.Mutex
	jobs   jobHeap
	nextID JobID
}

type job struct {
	id     JobID
	fireAt time.Time
	period time.Duration // zero for one-shot jobs
	fn     func()
	index  int
}

// New creates a scheduler. Run must be called for jobs to fire.
func New(cfg Config) *Scheduler {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{
		tick: cfg.Tick,
		log:  cfg.Log,
		now:  cfg.Now,
	}
}

// Once schedules fn to fire one time, at or after at. The callback fires
// exactly once for this registration.
func (s *Scheduler) Once(at time.Time, fn func()) JobID {
	return s.add(at, 0, fn)
}

// Cyclic schedules fn to fire repeatedly: first once period has elapsed
// from registration, then every period thereafter, until cancelled.
func (s *Scheduler) Cyclic(period time.Duration, fn func()) JobID {
	return s.add(s.now().Add(period), period, fn)
}

// Cancel removes a pending job before it fires. Returns false if the job
// already fired (one-shot) or was never registered.
func (s *Scheduler) Cancel(id JobID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.id == id {
			heap.Remove(&s.jobs, j.index)
			return true
		}
	}
	return false
}

// Pending returns the number of jobs waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) add(at time.Time, period time.Duration, fn func()) JobID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	heap.Push(&s.jobs, &job{
		id:     s.nextID,
		fireAt: at,
		period: period,
		fn:     fn,
	})
	return s.nextID
}

// Run executes the poll loop until ctx is cancelled. Each due callback is
// invoked with panic recovery; a failing callback is logged and never
// stops the loop or affects other pending jobs.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunDue()
		}
	}
}

// RunDue fires every job whose time has come. Exposed so tests can drive
// the scheduler without the real-time loop.
func (s *Scheduler) RunDue() {
	now := s.now()

	s.mu.Lock()
	var due []*job
	for len(s.jobs) > 0 && !s.jobs[0].fireAt.After(now) {
		j := heap.Pop(&s.jobs).(*job)
		due = append(due, j)
		if j.period > 0 {
			heap.Push(&s.jobs, &job{
				id:     j.id,
				fireAt: now.Add(j.period),
				period: j.period,
				fn:     j.fn,
			})
		}
	}
	s.mu.Unlock()

	// Callbacks run outside the scheduler lock so they are free to
	// register or cancel jobs.
	for _, j := range due {
		s.invoke(j)
	}
}

func (s *Scheduler) invoke(j *job) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduled job panicked", "job", uint64(j.id), "panic", r)
		}
	}()
	j.fn()
}

// jobHeap is a min-heap of jobs ordered by fire time.
type jobHeap []*job

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].fireAt.Before(h[j].fireAt) }
func (h jobHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *jobHeap) Push(x interface{}) { j := x.(*job); j.index = len(*h); *h = append(*h, j) }
func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return j
}
