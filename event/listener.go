package event

import "context"

// Mode 监听器调用模式
type Mode uint8

const (
	ModeSync Mode = iota
	ModeAsync
)

func (m Mode) String() string {
	if m == ModeAsync {
		return "async"
	}
	return "sync"
}

// Kind 监听器签名类别
type Kind uint8

const (
	// KindNotify listeners serve Notify and NotifyUntil
	KindNotify Kind = iota
	// KindFilter listeners serve Filter
	KindFilter
)

func (k Kind) String() string {
	if k == KindFilter {
		return "filter"
	}
	return "notify"
}

// Listener is implemented only by the four function types of this package.
// The dispatcher switches on the concrete type.
type Listener interface {
	Mode() Mode
	Kind() Kind
	listener()
}

// Continuation resumes an async dispatch. It must be called exactly once;
// later calls are ignored.
type Continuation func(result any, err error)

// Completion receives the event once an async dispatch reaches a terminal state
type Completion func(ev *Event, err error)

// ListenerFunc synchronous notify listener. For NotifyUntil a truthy result
// marks the event processed and stops the dispatch; Notify ignores it.
type ListenerFunc func(ctx context.Context, ev *Event) (any, error)

func (ListenerFunc) Mode() Mode { return ModeSync }
func (ListenerFunc) Kind() Kind { return KindNotify }
func (ListenerFunc) listener()  {}

// AsyncListenerFunc asynchronous notify listener
type AsyncListenerFunc func(ctx context.Context, ev *Event, next Continuation)

func (AsyncListenerFunc) Mode() Mode { return ModeAsync }
func (AsyncListenerFunc) Kind() Kind { return KindNotify }
func (AsyncListenerFunc) listener()  {}

// FilterFunc synchronous filter listener, returns the new value
type FilterFunc func(ctx context.Context, ev *Event, value any) (any, error)

func (FilterFunc) Mode() Mode { return ModeSync }
func (FilterFunc) Kind() Kind { return KindFilter }
func (FilterFunc) listener()  {}

// AsyncFilterFunc asynchronous filter listener, passes the new value to next
type AsyncFilterFunc func(ctx context.Context, ev *Event, value any, next Continuation)

func (AsyncFilterFunc) Mode() Mode { return ModeAsync }
func (AsyncFilterFunc) Kind() Kind { return KindFilter }
func (AsyncFilterFunc) listener()  {}

// isNilListener catches nil interfaces and typed nil funcs
func isNilListener(l Listener) bool {
	switch fn := l.(type) {
	case nil:
		return true
	case ListenerFunc:
		return fn == nil
	case AsyncListenerFunc:
		return fn == nil
	case FilterFunc:
		return fn == nil
	case AsyncFilterFunc:
		return fn == nil
	}
	return false
}
