package gesture

import (
	"sync"
	"time"
)

// Deferrer runs fn after delay. Implementations run deferred functions in the
// order they were deferred and never cancel them.
type Deferrer interface {
	Defer(delay time.Duration, fn func())
}

// ImmediateDeferrer runs fn on the calling goroutine without waiting.
type ImmediateDeferrer struct{}

func (ImmediateDeferrer) Defer(_ time.Duration, fn func()) {
	fn()
}

type deferred struct {
	due time.Time
	fn  func()
}

// QueueDeferrer runs deferred functions on a single goroutine, each no
// earlier than its due time and never before a function deferred ahead of it.
type QueueDeferrer struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []deferred
	closed  bool

	inflight sync.WaitGroup
	stop     chan struct{}
	done     chan struct{}
}

func NewQueueDeferrer() *QueueDeferrer {
	d := &QueueDeferrer{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)

	go d.run()
	return d
}

func (d *QueueDeferrer) Defer(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.inflight.Add(1)
	d.pending = append(d.pending, deferred{due: time.Now().Add(delay), fn: fn})
	d.cond.Signal()
}

func (d *QueueDeferrer) run() {
	defer close(d.done)

	for {
		d.mu.Lock()
		for len(d.pending) == 0 && !d.closed {
			d.cond.Wait()
		}
		if len(d.pending) == 0 {
			d.mu.Unlock()
			return
		}
		job := d.pending[0]
		d.pending[0] = deferred{}
		d.pending = d.pending[1:]
		d.mu.Unlock()

		if wait := time.Until(job.due); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-d.stop:
				timer.Stop()
			}
		}

		job.fn()
		d.inflight.Done()
	}
}

// Wait blocks until everything deferred so far has run.
func (d *QueueDeferrer) Wait() {
	d.inflight.Wait()
}

// Close runs whatever is still pending without waiting out the delays, then stops the worker.
func (d *QueueDeferrer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.stop)
	d.cond.Broadcast()
	d.mu.Unlock()

	<-d.done
}
