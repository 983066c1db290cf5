package nametags

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// Reason names why a job was scheduled for an owner.
type Reason int

const (
	// ReasonJoinSync reconciles a joining owner with every other online
	// player once the join has settled.
	ReasonJoinSync Reason = iota

	// ReasonHiddenRecheck removes a joining owner from other tags again if
	// they have their tags toggled off, catching late loads of toggle data.
	ReasonHiddenRecheck

	// ReasonRefresh re-renders an owner's tag text.
	ReasonRefresh

	// ReasonAsync runs work off the dispatching goroutine.
	ReasonAsync
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonJoinSync:
		return "JoinSync"
	case ReasonHiddenRecheck:
		return "HiddenRecheck"
	case ReasonRefresh:
		return "Refresh"
	case ReasonAsync:
		return "Async"
	default:
		return "Unknown"
	}
}

// JobKey identifies a job by owner and reason. At most one keyed job per key
// is pending at a time.
type JobKey struct {
	Owner  uuid.UUID
	Reason Reason
}

// scheduledJob represents a job scheduled for future execution.
type scheduledJob struct {
	// executeAt is the time the job should execute
	executeAt time.Time

	// id correlates log lines of one job
	id ksuid.KSUID

	key JobKey

	// keyed jobs are coalesced by key
	keyed bool

	job Runnable

	// cancelled indicates if the job has been cancelled
	cancelled atomic.Bool

	// index is the heap index for efficient removal
	index int
}

// taskQueue is a priority queue for scheduled jobs.
// It uses a binary heap for O(log n) insertion and removal.
type taskQueue struct {
	mu    sync.Mutex
	heap  []*scheduledJob
	notif chan struct{}
}

// newTaskQueue creates a new task queue.
func newTaskQueue() *taskQueue {
	return &taskQueue{
		heap:  make([]*scheduledJob, 0, 64),
		notif: make(chan struct{}, 1),
	}
}

// compactHeap removes cancelled jobs from the heap and rebuilds the heap property.
func (q *taskQueue) compactHeap() {
	write := 0
	for read := 0; read < len(q.heap); read++ {
		if !q.heap[read].cancelled.Load() {
			q.heap[write] = q.heap[read]
			q.heap[write].index = write
			write++
		}
	}

	for i := write; i < len(q.heap); i++ {
		q.heap[i] = nil
	}
	q.heap = q.heap[:write]

	for i := len(q.heap)/2 - 1; i >= 0; i-- {
		q.down(i, len(q.heap))
	}
}

// Push adds a job to the queue with periodic cleanup to prevent memory leaks.
func (q *taskQueue) Push(job *scheduledJob) {
	q.mu.Lock()

	if len(q.heap) > 100 && len(q.heap)%100 == 0 {
		q.compactHeap()
	}

	job.index = len(q.heap)
	q.heap = append(q.heap, job)
	q.up(job.index)
	q.mu.Unlock()

	select {
	case q.notif <- struct{}{}:
	default:
	}
}

// PopDue removes and returns all jobs that are due (executeAt <= now), in order.
func (q *taskQueue) PopDue(now time.Time) []*scheduledJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []*scheduledJob
	cancelledCount := 0

	for len(q.heap) > 0 && !q.heap[0].executeAt.After(now) {
		job := q.pop()
		if !job.cancelled.Load() {
			due = append(due, job)
		} else {
			cancelledCount++
		}
	}

	if cancelledCount > 50 && len(q.heap) > 0 {
		q.compactHeap()
	}

	return due
}

// Len returns the number of jobs in the queue.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.heap)
}

// Notify returns the notification channel.
func (q *taskQueue) Notify() <-chan struct{} {
	return q.notif
}

// pop removes and returns the minimum job. Caller must hold lock.
func (q *taskQueue) pop() *scheduledJob {
	n := len(q.heap) - 1
	q.swap(0, n)
	q.down(0, n)
	job := q.heap[n]
	q.heap[n] = nil // Allow GC
	q.heap = q.heap[:n]
	job.index = -1
	return job
}

// up moves the job at index up the heap.
func (q *taskQueue) up(i int) {
	for {
		parent := (i - 1) / 2
		if parent == i || !q.heap[i].executeAt.Before(q.heap[parent].executeAt) {
			break
		}
		q.swap(i, parent)
		i = parent
	}
}

// down moves the job at index down the heap.
func (q *taskQueue) down(i, n int) {
	for {
		left := 2*i + 1
		if left >= n || left < 0 {
			break
		}
		j := left
		if right := left + 1; right < n && q.heap[right].executeAt.Before(q.heap[left].executeAt) {
			j = right
		}
		if !q.heap[j].executeAt.Before(q.heap[i].executeAt) {
			break
		}
		q.swap(i, j)
		i = j
	}
}

// swap swaps two jobs in the heap.
func (q *taskQueue) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.heap[i].index = i
	q.heap[j].index = j
}

// RepeatHandle allows cancelling a repeating job.
type RepeatHandle struct {
	cancelled atomic.Bool

	// job is the currently queued run of the repeating job
	mu  sync.Mutex
	job *scheduledJob
}

// Cancel cancels the repeating job, preventing future executions. The queued
// run is marked cancelled so the queue can drop it. It is safe to call on a
// nil handle.
func (h *RepeatHandle) Cancel() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelled.Store(true)
	if h.job != nil {
		h.job.cancelled.Store(true)
	}
}

// track points the handle at the next queued run.
func (h *RepeatHandle) track(job *scheduledJob) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.job = job
	if h.cancelled.Load() {
		job.cancelled.Store(true)
	}
}

// Cancelled reports whether Cancel was called.
func (h *RepeatHandle) Cancelled() bool {
	return h != nil && h.cancelled.Load()
}

// repeatingJob wraps a job to reschedule itself after execution.
type repeatingJob struct {
	s        *Scheduler
	key      JobKey
	inner    Runnable
	interval time.Duration
	handle   *RepeatHandle
}

func (r *repeatingJob) Run() {
	if r.handle.Cancelled() {
		return
	}
	r.inner.Run()
	if r.handle.Cancelled() {
		return
	}
	r.handle.track(r.s.push(r.key, false, time.Now().Add(r.interval), r))
}
