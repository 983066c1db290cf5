package nametags

import (
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/ksuid"
)

// Scheduler runs deferred reconciliation jobs on a fixed tick and background
// work on a worker pool.
//
// Keyed jobs are coalesced: scheduling a key that is already pending returns
// without queueing a second job. Keyed jobs cannot be cancelled; they check
// their preconditions when they run.
type Scheduler struct {
	log   *slog.Logger
	queue *taskQueue

	// pending holds the keys of queued keyed jobs
	pending   map[JobKey]ksuid.KSUID
	pendingMu sync.Mutex

	// Worker pool
	workers    int
	workerPool chan func()
	workerWG   sync.WaitGroup

	// poolMu keeps Stop from closing workerPool while Async sends on it
	poolMu sync.RWMutex

	// Execution state
	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	tickRate time.Duration
}

// newScheduler creates a new scheduler.
func newScheduler(log *slog.Logger, tickRate time.Duration) *Scheduler {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if tickRate <= 0 {
		tickRate = 50 * time.Millisecond // 20 TPS
	}

	return &Scheduler{
		log:        log,
		queue:      newTaskQueue(),
		pending:    make(map[JobKey]ksuid.KSUID),
		workers:    workers,
		workerPool: make(chan func(), workers*4),
		tickRate:   tickRate,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the scheduler's tick loop.
func (s *Scheduler) Start() {
	if s.running.Swap(true) {
		return // Already running
	}

	for i := 0; i < s.workers; i++ {
		s.workerWG.Add(1)
		go s.worker()
	}

	go s.tickLoop()
}

// Stop gracefully shuts down the scheduler. Queued jobs are dropped.
func (s *Scheduler) Stop() {
	if !s.running.Swap(false) {
		return // Not running
	}

	close(s.stopCh)
	<-s.doneCh

	s.poolMu.Lock()
	close(s.workerPool)
	s.poolMu.Unlock()
	s.workerWG.Wait()
}

// worker is a pool worker that executes jobs.
func (s *Scheduler) worker() {
	defer s.workerWG.Done()
	for fn := range s.workerPool {
		fn()
	}
}

// tickLoop is the main scheduler loop.
func (s *Scheduler) tickLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.RunDue(now)
		case <-s.queue.Notify():
			s.RunDue(time.Now())
		}
	}
}

// Schedule queues job to run after delay under key. It returns the id of the
// pending job for key and whether a new job was queued.
func (s *Scheduler) Schedule(key JobKey, delay time.Duration, job Runnable) (ksuid.KSUID, bool) {
	s.pendingMu.Lock()
	if id, ok := s.pending[key]; ok {
		s.pendingMu.Unlock()
		return id, false
	}
	id := ksuid.New()
	s.pending[key] = id
	s.pendingMu.Unlock()

	s.queue.Push(&scheduledJob{
		executeAt: time.Now().Add(delay),
		id:        id,
		key:       key,
		keyed:     true,
		job:       job,
	})
	s.log.Debug("nametags: job scheduled", "job", id, "owner", key.Owner, "reason", key.Reason, "delay", delay)
	return id, true
}

// Pending reports whether a keyed job is queued for key.
func (s *Scheduler) Pending(key JobKey) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Repeat runs job every interval until the returned handle is cancelled.
// Repeating jobs are not coalesced.
func (s *Scheduler) Repeat(key JobKey, interval time.Duration, job Runnable) *RepeatHandle {
	handle := &RepeatHandle{}
	handle.track(s.push(key, false, time.Now().Add(interval), &repeatingJob{
		s:        s,
		key:      key,
		inner:    job,
		interval: interval,
		handle:   handle,
	}))
	return handle
}

// Async runs fn on the worker pool. Before Start, fn is queued and runs with
// the next RunDue. fn never runs on the calling goroutine.
func (s *Scheduler) Async(fn func()) {
	s.poolMu.RLock()
	defer s.poolMu.RUnlock()

	if !s.running.Load() {
		s.push(JobKey{Reason: ReasonAsync}, false, time.Now(), RunnableFunc(fn))
		return
	}
	job := func() { s.run(JobKey{Reason: ReasonAsync}, ksuid.Nil, RunnableFunc(fn)) }
	select {
	case s.workerPool <- job:
	default:
		// Worker pool full, run on a fresh goroutine
		go job()
	}
}

// RunDue runs every job due at now, in due order, on the calling goroutine.
func (s *Scheduler) RunDue(now time.Time) {
	for _, job := range s.queue.PopDue(now) {
		if job.keyed {
			s.pendingMu.Lock()
			if s.pending[job.key] == job.id {
				delete(s.pending, job.key)
			}
			s.pendingMu.Unlock()
		}
		s.run(job.key, job.id, job.job)
	}
}

// Len returns the number of queued jobs.
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

func (s *Scheduler) push(key JobKey, keyed bool, at time.Time, job Runnable) *scheduledJob {
	j := &scheduledJob{
		executeAt: at,
		id:        ksuid.New(),
		key:       key,
		keyed:     keyed,
		job:       job,
	}
	s.queue.Push(j)
	return j
}

// run executes one job. A panicking job is logged and does not take the
// scheduler down with it.
func (s *Scheduler) run(key JobKey, id ksuid.KSUID, job Runnable) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("nametags: panic in job", "job", id, "owner", key.Owner, "reason", key.Reason, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	job.Run()
}
