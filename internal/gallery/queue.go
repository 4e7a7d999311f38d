package gallery

import (
	"context"
	"sync"
)

type writeJob struct {
	op  string
	run func(ctx context.Context) error
}

// writeQueue runs store writes on a single goroutine in the order they were
// enqueued. Enqueueing never blocks on the store. There is no retry and no
// cancellation: a failed job is reported and dropped.
type writeQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []writeJob
	closed  bool

	inflight sync.WaitGroup
	done     chan struct{}

	onError func(op string, err error)
}

func newWriteQueue(onError func(op string, err error)) *writeQueue {
	q := &writeQueue{
		done:    make(chan struct{}),
		onError: onError,
	}
	q.cond = sync.NewCond(&q.mu)

	go q.run()
	return q
}

func (q *writeQueue) enqueue(job writeJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.inflight.Add(1)
	q.pending = append(q.pending, job)
	q.cond.Signal()
	return true
}

func (q *writeQueue) run() {
	defer close(q.done)

	ctx := context.Background()
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		job := q.pending[0]
		q.pending[0] = writeJob{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if err := job.run(ctx); err != nil && q.onError != nil {
			q.onError(job.op, err)
		}
		q.inflight.Done()
	}
}

// wait blocks until every job enqueued so far has run.
func (q *writeQueue) wait() {
	q.inflight.Wait()
}

// close drains pending jobs and stops the worker. Later enqueues are rejected.
func (q *writeQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	<-q.done
}
