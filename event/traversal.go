package event

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// operation 分发算法
type operation string

const (
	opNotify      operation = "notify"
	opNotifyUntil operation = "notify_until"
	opFilter      operation = "filter"
)

func (o operation) kind() Kind {
	if o == opFilter {
		return KindFilter
	}
	return KindNotify
}

// method returns the Dispatcher method name, for error messages
func (o operation) method() string {
	switch o {
	case opNotifyUntil:
		return "NotifyUntil"
	case opFilter:
		return "Filter"
	default:
		return "Notify"
	}
}

// outcome 分发终态
type outcome string

const (
	outcomeDone    outcome = "done"
	outcomeStopped outcome = "stopped"
	outcomeFailed  outcome = "failed"
)

// traversal is the state of one dispatch call: a cursor over an immutable
// listener snapshot. Only one listener of a traversal runs at a time.
type traversal struct {
	d         *dispatcher
	ctx       context.Context
	span      trace.Span
	start     time.Time
	op        operation
	mode      Mode
	name      string
	ev        *Event
	listeners []Listener
	value     any // filter accumulator
	next      int
	invoked   int
	outcome   outcome
	err       error
	done      Completion
}

func (d *dispatcher) newTraversal(ctx context.Context, op operation, mode Mode, name string, ev *Event, listeners []Listener, value any) *traversal {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := d.tracer.Start(ctx, "event."+string(op),
		trace.WithAttributes(
			attribute.String("event.name", name),
			attribute.String("event.id", ev.ID()),
			attribute.String("event.mode", mode.String()),
			attribute.Int("event.listeners", len(listeners)),
		))

	d.logger.DebugCtx(ctx, "事件分发开始",
		zap.String("event", name),
		zap.String("event_id", ev.ID()),
		zap.String("operation", string(op)),
		zap.String("mode", mode.String()),
		zap.Int("listeners", len(listeners)))

	// name and propagation are set before any listener runs
	ev.begin(name)

	return &traversal{
		d:         d,
		ctx:       ctx,
		span:      span,
		start:     time.Now(),
		op:        op,
		mode:      mode,
		name:      name,
		ev:        ev,
		listeners: listeners,
		value:     value,
	}
}

// settle applies the result of listener i and reports whether to continue
func (t *traversal) settle(i int, result any, err error) bool {
	t.invoked++
	t.d.metrics.recordInvocation(t.ctx, t.op, t.mode)

	if err != nil {
		t.outcome = outcomeFailed
		t.err = listenerFailure(t.name, i, t.mode, err)
		return false
	}

	switch t.op {
	case opNotifyUntil:
		if Truthy(result) {
			t.ev.MarkProcessed()
			t.outcome = outcomeStopped
			return false
		}
	case opFilter:
		t.value = result
	}

	if t.ev.IsPropagationStopped() {
		t.outcome = outcomeStopped
		return false
	}

	t.next = i + 1
	if t.next >= len(t.listeners) {
		t.outcome = outcomeDone
		return false
	}
	return true
}

// finish records the terminal state
func (t *traversal) finish() {
	if t.op == opFilter && t.outcome != outcomeFailed {
		t.ev.setReturnValue(t.value)
	}

	duration := time.Since(t.start)
	t.d.metrics.recordDispatch(t.ctx, t.op, t.mode, t.outcome, duration)

	t.span.SetAttributes(attribute.String("event.outcome", string(t.outcome)))
	if t.err != nil {
		t.span.RecordError(t.err)
		t.span.SetStatus(codes.Error, t.err.Error())
		t.d.logger.ErrorCtx(t.ctx, "监听器执行失败",
			zap.String("event", t.name),
			zap.String("event_id", t.ev.ID()),
			zap.String("operation", string(t.op)),
			zap.String("mode", t.mode.String()),
			zap.Error(t.err))
	}
	t.span.End()

	t.d.logger.DebugCtx(t.ctx, "事件分发结束",
		zap.String("event", t.name),
		zap.String("event_id", t.ev.ID()),
		zap.String("operation", string(t.op)),
		zap.String("outcome", string(t.outcome)),
		zap.Int("invoked", t.invoked),
		zap.Duration("duration", duration))
}

func (t *traversal) runSync() {
	if len(t.listeners) == 0 {
		t.outcome = outcomeDone
		t.finish()
		return
	}

	for {
		i := t.next
		var (
			result any
			err    error
		)
		switch fn := t.listeners[i].(type) {
		case ListenerFunc:
			result, err = fn(t.ctx, t.ev)
		case FilterFunc:
			result, err = fn(t.ctx, t.ev, t.value)
		}
		if !t.settle(i, result, err) {
			break
		}
	}

	t.finish()
}

func (t *traversal) runAsync() {
	if len(t.listeners) == 0 {
		t.outcome = outcomeDone
		t.complete()
		return
	}
	t.drive()
}

func (t *traversal) complete() {
	t.finish()
	t.done(t.ev, t.err)
}

// step states
const (
	stepCalling   int32 = iota // listener has not returned yet
	stepReturned               // listener returned, continuation pending
	stepCompleted              // continuation fired before the listener returned
)

// asyncStep is the handshake between one listener call and its continuation
type asyncStep struct {
	state  atomic.Int32
	fired  atomic.Bool
	result any
	err    error
}

// drive runs listeners from t.next. Continuations fired inline are picked up
// by the loop instead of recursing; a deferred continuation resumes drive on
// its own goroutine.
func (t *traversal) drive() {
	for {
		i := t.next
		step := &asyncStep{}
		t.callAsync(i, t.continuation(i, step))

		if step.state.CompareAndSwap(stepCalling, stepReturned) {
			// suspended until the continuation fires
			return
		}
		if !t.settle(i, step.result, step.err) {
			t.complete()
			return
		}
	}
}

func (t *traversal) continuation(i int, step *asyncStep) Continuation {
	return func(result any, err error) {
		if !step.fired.CompareAndSwap(false, true) {
			t.d.logger.WarnCtx(t.ctx, "continuation 被重复调用，已忽略",
				zap.String("event", t.name),
				zap.String("event_id", t.ev.ID()),
				zap.Int("index", i))
			return
		}

		step.result, step.err = result, err
		if step.state.CompareAndSwap(stepCalling, stepCompleted) {
			return
		}

		if t.settle(i, result, err) {
			t.drive()
			return
		}
		t.complete()
	}
}

func (t *traversal) callAsync(i int, next Continuation) {
	switch fn := t.listeners[i].(type) {
	case AsyncListenerFunc:
		fn(t.ctx, t.ev, next)
	case AsyncFilterFunc:
		fn(t.ctx, t.ev, t.value, next)
	case ListenerFunc:
		Synchronous(fn)(t.ctx, t.ev, next)
	case FilterFunc:
		SynchronousFilter(fn)(t.ctx, t.ev, t.value, next)
	}
}
