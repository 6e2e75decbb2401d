package event

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"

	"github.com/KOMKZ/go-yogan-event/logger"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/KOMKZ/go-yogan-event/event"

// Dispatcher event dispatcher interface
type Dispatcher interface {
	// Attach registers a listener, see Registry.Attach
	Attach(name string, listener Listener, opts ...AttachOption) error

	// Has reports whether name has listeners
	Has(name string) bool

	// List yields the listeners of name in execution order
	List(name string) iter.Seq[Listener]

	// Notify calls every listener in order until one stops propagation
	Notify(ctx context.Context, name string, ev *Event) (*Event, error)

	// NotifyUntil stops at the first truthy result and marks the event processed
	NotifyUntil(ctx context.Context, name string, ev *Event) (*Event, error)

	// Filter threads value through the listeners; the result is ev.ReturnValue()
	Filter(ctx context.Context, name string, ev *Event, value any) (*Event, error)

	// NotifyAsync is Notify over the continuation protocol.
	// A non-nil return is a contract error and done is not called;
	// otherwise done is called exactly once.
	NotifyAsync(ctx context.Context, name string, ev *Event, done Completion) error

	// NotifyUntilAsync is NotifyUntil over the continuation protocol
	NotifyUntilAsync(ctx context.Context, name string, ev *Event, done Completion) error

	// FilterAsync is Filter over the continuation protocol
	FilterAsync(ctx context.Context, name string, ev *Event, value any, done Completion) error

	// Defer runs task on the dispatcher's goroutine pool.
	// Async listeners use it to fire their continuation later.
	// Blocks while every worker is busy.
	Defer(task func()) error
}

// dispatcher event dispatcher implementation
type dispatcher struct {
	registry        *Registry
	defaultPriority int
	pool            *ants.Pool
	poolSize        int
	logger          *logger.CtxZapLogger
	metrics         *DispatchMetrics
	tracer          trace.Tracer
	closed          int32
}

// NewDispatcher creates an event dispatcher
func NewDispatcher(opts ...DispatcherOption) *dispatcher {
	d := &dispatcher{
		poolSize:        100,
		defaultPriority: DefaultPriority,
		logger:          logger.GetLogger("yogan"),
		tracer:          otel.Tracer(instrumentationName),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.registry == nil {
		d.registry = NewRegistry(WithRegistryDefaultPriority(d.defaultPriority))
	}

	var err error
	d.pool, err = ants.NewPool(d.poolSize)
	if err != nil {
		d.logger.Error("创建协程池失败，使用默认配置", zap.Int("pool_size", d.poolSize), zap.Error(err))
		d.pool, _ = ants.NewPool(100)
	}

	if d.metrics != nil {
		registry := d.registry
		d.metrics.SetListenerCountCallback(func() int64 {
			return int64(registry.Count())
		})
	}

	return d
}

// Registry returns the underlying registry
func (d *dispatcher) Registry() *Registry {
	return d.registry
}

// Attach registers listener under name
func (d *dispatcher) Attach(name string, listener Listener, opts ...AttachOption) error {
	return d.registry.Attach(name, listener, opts...)
}

// Has reports whether name has listeners
func (d *dispatcher) Has(name string) bool {
	return d.registry.Has(name)
}

// List yields the listeners of name in execution order
func (d *dispatcher) List(name string) iter.Seq[Listener] {
	return d.registry.List(name)
}

// Notify 同步通知
func (d *dispatcher) Notify(ctx context.Context, name string, ev *Event) (*Event, error) {
	return d.dispatchSync(ctx, opNotify, name, ev, nil)
}

// NotifyUntil 同步通知，直到某个监听器返回真值
func (d *dispatcher) NotifyUntil(ctx context.Context, name string, ev *Event) (*Event, error) {
	return d.dispatchSync(ctx, opNotifyUntil, name, ev, nil)
}

// Filter 同步过滤
func (d *dispatcher) Filter(ctx context.Context, name string, ev *Event, value any) (*Event, error) {
	return d.dispatchSync(ctx, opFilter, name, ev, value)
}

// NotifyAsync 异步通知
func (d *dispatcher) NotifyAsync(ctx context.Context, name string, ev *Event, done Completion) error {
	return d.dispatchAsync(ctx, opNotify, name, ev, nil, done)
}

// NotifyUntilAsync 异步通知，直到某个监听器返回真值
func (d *dispatcher) NotifyUntilAsync(ctx context.Context, name string, ev *Event, done Completion) error {
	return d.dispatchAsync(ctx, opNotifyUntil, name, ev, nil, done)
}

// FilterAsync 异步过滤
func (d *dispatcher) FilterAsync(ctx context.Context, name string, ev *Event, value any, done Completion) error {
	return d.dispatchAsync(ctx, opFilter, name, ev, value, done)
}

// Defer submits task to the goroutine pool
func (d *dispatcher) Defer(task func()) error {
	if task == nil {
		return nil
	}
	if atomic.LoadInt32(&d.closed) == 1 {
		return ErrDispatcherClosed
	}
	if err := d.pool.Submit(task); err != nil {
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrDispatcherClosed.Wrap(err)
		}
		return err
	}
	return nil
}

// Close releases the goroutine pool. Dispatching keeps working, Defer does not.
func (d *dispatcher) Close() {
	if !atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		return
	}
	if d.pool != nil {
		d.pool.Release()
	}
}

// Shutdown lets samber/do close the dispatcher with the injector
func (d *dispatcher) Shutdown() error {
	d.Close()
	return nil
}

// IsClosed 是否已关闭
func (d *dispatcher) IsClosed() bool {
	return atomic.LoadInt32(&d.closed) == 1
}

func (d *dispatcher) dispatchSync(ctx context.Context, op operation, name string, ev *Event, value any) (*Event, error) {
	listeners, err := d.prepare(op, ModeSync, name, ev)
	if err != nil {
		return ev, err
	}

	t := d.newTraversal(ctx, op, ModeSync, name, ev, listeners, value)
	t.runSync()
	return ev, t.err
}

func (d *dispatcher) dispatchAsync(ctx context.Context, op operation, name string, ev *Event, value any, done Completion) error {
	if done == nil {
		return ErrNilCompletion
	}
	listeners, err := d.prepare(op, ModeAsync, name, ev)
	if err != nil {
		return err
	}

	t := d.newTraversal(ctx, op, ModeAsync, name, ev, listeners, value)
	t.done = done
	t.runAsync()
	return nil
}

// prepare checks the call and takes the listener snapshot.
// Every listener is checked before the first one runs.
func (d *dispatcher) prepare(op operation, mode Mode, name string, ev *Event) ([]Listener, error) {
	if name == "" {
		return nil, ErrInvalidEventName
	}
	if ev == nil {
		return nil, ErrNilEvent.WithData("event", name)
	}

	listeners := d.registry.snapshot(name)
	for i, l := range listeners {
		if l.Kind() != op.kind() {
			return nil, ErrListenerKind.
				WithMsgf("listener #%d of %q is a %s listener, %s needs %s", i, name, l.Kind(), op, op.kind()).
				WithFields(map[string]interface{}{"event": name, "index": i})
		}
		if mode == ModeSync && l.Mode() == ModeAsync {
			return nil, ErrListenerMode.
				WithMsgf("listener #%d of %q is async, use %sAsync", i, name, op.method()).
				WithFields(map[string]interface{}{"event": name, "index": i})
		}
	}

	return listeners, nil
}
