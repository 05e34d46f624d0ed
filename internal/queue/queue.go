package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrClosed is returned when work is submitted after Close
	ErrClosed = errors.New("mutation queue is closed")
	// ErrCanceled is returned when the caller gave up before its job started. Nothing was executed.
	ErrCanceled = errors.New("mutation canceled before execution")
)

// Job is one unit of serialized work
type Job func(ctx context.Context) error

type item struct {
	name     string
	ctx      context.Context // Caller context, checked before the job starts
	fn       Job
	done     chan error // nil for fire-and-forget jobs
	enqueued time.Time
}

// Queue drains jobs one at a time in FIFO order on a single worker goroutine.
// A job that has started always runs to completion on a context detached from its caller,
// so a caller timeout can never abandon a half-applied mutation.
type Queue struct {
	jobs      chan *item
	closeChan chan struct{}
	wg        sync.WaitGroup
	handoffs  sync.WaitGroup // Posted jobs still waiting for buffer space
	mu        sync.RWMutex
	closed    bool
	log       logrus.FieldLogger
}

// New creates a queue and starts its worker.
// bufferSize determines how many jobs can wait before Submit blocks.
func New(bufferSize int, log logrus.FieldLogger) *Queue {
	if bufferSize < 1 {
		bufferSize = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	q := &Queue{
		jobs:      make(chan *item, bufferSize),
		closeChan: make(chan struct{}),
		log:       log,
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

// Submit enqueues fn and waits for its result
func (q *Queue) Submit(ctx context.Context, name string, fn Job) error {
	it := &item{name: name, ctx: ctx, fn: fn, done: make(chan error, 1), enqueued: time.Now()}
	if err := q.enqueue(ctx, it); err != nil {
		return err
	}
	return <-it.done // The worker always answers, even for skipped jobs
}

// Post enqueues fn without waiting. Errors are logged by the worker.
func (q *Queue) Post(name string, fn Job) error {
	it := &item{name: name, ctx: context.Background(), fn: fn, enqueued: time.Now()}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.jobs <- it:
	default:
		// Buffer full: hand off so the caller never blocks on background work.
		// The worker keeps draining until every handoff has delivered.
		q.handoffs.Add(1)
		go func() {
			defer q.handoffs.Done()
			q.jobs <- it
		}()
	}
	return nil
}

func (q *Queue) enqueue(ctx context.Context, it *item) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.jobs <- it:
		return nil
	case <-ctx.Done():
		return ErrCanceled
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case it := <-q.jobs:
			q.run(it)
		case <-q.closeChan:
			q.drain()
			return
		}
	}
}

// drain runs everything accepted before Close, including posts still being handed off
func (q *Queue) drain() {
	delivered := make(chan struct{})
	go func() {
		q.handoffs.Wait()
		close(delivered)
	}()
	for {
		select {
		case it := <-q.jobs:
			q.run(it)
		case <-delivered:
			for {
				select {
				case it := <-q.jobs:
					q.run(it)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) run(it *item) {
	if err := it.ctx.Err(); err != nil {
		q.log.WithFields(logrus.Fields{"job": it.name, "waited": time.Since(it.enqueued).String()}).
			Warn("Mutation skipped, caller gone")
		q.finish(it, ErrCanceled)
		return
	}
	err := q.safeCall(it)
	if err != nil && it.done == nil {
		q.log.WithFields(logrus.Fields{"job": it.name, "error": err.Error()}).Error("Background mutation failed")
	}
	q.finish(it, err)
}

func (q *Queue) safeCall(it *item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.log.WithFields(logrus.Fields{"job": it.name, "panic": r}).Error("Mutation panicked")
			err = errors.New("mutation panicked")
		}
	}()
	return it.fn(context.WithoutCancel(it.ctx))
}

func (q *Queue) finish(it *item, err error) {
	if it.done != nil {
		it.done <- err
	}
}

// Close stops accepting work, runs the jobs already queued and waits for the worker.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	// Wait for the worker to finish with timeout
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
