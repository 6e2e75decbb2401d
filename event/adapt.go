package event

import "context"

// Synchronous adapts a sync listener to the async protocol by calling next inline
func Synchronous(fn ListenerFunc) AsyncListenerFunc {
	return func(ctx context.Context, ev *Event, next Continuation) {
		next(fn(ctx, ev))
	}
}

// SynchronousFilter adapts a sync filter to the async protocol
func SynchronousFilter(fn FilterFunc) AsyncFilterFunc {
	return func(ctx context.Context, ev *Event, value any, next Continuation) {
		next(fn(ctx, ev, value))
	}
}

// Handler adapts a listener that has no result
//
//	d.Attach("order.paid", event.Handler(func(ctx context.Context, ev *event.Event) error {
//	    return mailer.SendReceipt(ctx, ev.Subject())
//	}))
func Handler(fn func(ctx context.Context, ev *Event) error) ListenerFunc {
	return func(ctx context.Context, ev *Event) (any, error) {
		return nil, fn(ctx, ev)
	}
}
