package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueFull is returned by Async.Send when the queue has no free slot.
var ErrQueueFull = errors.New("notification queue full")

// ErrClosed is returned by Async.Send after Close.
var ErrClosed = errors.New("notifier closed")

type job struct {
	ctx context.Context
	msg Message
}

// Async queues messages and hands them to the wrapped notifier from a
// single background worker, so callers never wait on the relay. Messages
// are sent with a context detached from the caller's cancellation.
type Async struct {
	next  Notifier
	queue chan job
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts a worker delivering through next. At most size messages
// wait in the queue; further sends fail with ErrQueueFull.
func NewAsync(next Notifier, size int) *Async {
	if size <= 0 {
		size = 64
	}
	a := &Async{
		next:  next,
		queue: make(chan job, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

// Send enqueues m without blocking.
func (a *Async) Send(ctx context.Context, m Message) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- job{ctx: context.WithoutCancel(ctx), msg: m}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits until the queued ones have been
// handed to the wrapped notifier, or until ctx is done.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run() {
	defer close(a.done)
	for j := range a.queue {
		if err := a.next.Send(j.ctx, j.msg); err != nil {
			slog.Error("sending notification", "to", j.msg.ToEmail, "subject", j.msg.Subject, "error", err)
		}
	}
}
