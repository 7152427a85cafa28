package render

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// QueueStatus is a point-in-time snapshot of the admission queue.
type QueueStatus struct {
	Running int64 `json:"running"`
	Queued  int64 `json:"queued"`
	Cap     int64 `json:"cap"`
}

// Admission bounds how many render jobs run at once. Jobs past the cap
// wait in FIFO order until a slot frees or their context is cancelled.
type Admission struct {
	sem     *semaphore.Weighted
	cap     int64
	running atomic.Int64
	queued  atomic.Int64
}

// NewAdmission creates an admission queue with the given concurrency cap.
func NewAdmission(maxConcurrent int) *Admission {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Admission{
		sem: semaphore.NewWeighted(int64(maxConcurrent)),
		cap: int64(maxConcurrent),
	}
}

// Acquire blocks until a slot is available or ctx is done. On success the
// caller owns one slot and must call Release exactly once.
func (a *Admission) Acquire(ctx context.Context) error {
	a.queued.Add(1)
	err := a.sem.Acquire(ctx, 1)
	a.queued.Add(-1)
	if err != nil {
		return err
	}
	a.running.Add(1)
	return nil
}

// Release returns a slot to the queue.
func (a *Admission) Release() {
	a.running.Add(-1)
	a.sem.Release(1)
}

// Status reports current occupancy. Queued counts jobs waiting for a slot,
// not jobs holding one.
func (a *Admission) Status() QueueStatus {
	running := a.running.Load()
	queued := a.queued.Load()
	if queued < 0 {
		queued = 0
	}
	return QueueStatus{
		Running: running,
		Queued:  queued,
		Cap:     a.cap,
	}
}
