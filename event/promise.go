package event

import (
	"context"
	"sync"
)

// Promise turns a Completion into something a caller can wait on
//
//	p, done := event.NewPromise()
//	if err := d.NotifyAsync(ctx, "order.paid", ev, done); err != nil {
//	    return err
//	}
//	ev, err := p.Wait(ctx)
type Promise struct {
	once sync.Once
	done chan struct{}
	ev   *Event
	err  error
}

// NewPromise returns a promise and the completion that resolves it.
// Only the first call of the completion counts.
func NewPromise() (*Promise, Completion) {
	p := &Promise{done: make(chan struct{})}
	return p, p.resolve
}

func (p *Promise) resolve(ev *Event, err error) {
	p.once.Do(func() {
		p.ev, p.err = ev, err
		close(p.done)
	})
}

// Done is closed once the dispatch reaches a terminal state
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the dispatch completes or ctx ends.
// A stalled dispatch stays suspended; Wait only stops waiting for it.
func (p *Promise) Wait(ctx context.Context) (*Event, error) {
	select {
	case <-p.done:
		return p.ev, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
