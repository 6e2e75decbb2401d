package event

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deferred logs tag, then fires next from the dispatcher pool
func deferred(d Dispatcher, log *callLog, tag string, result any) AsyncListenerFunc {
	return func(ctx context.Context, ev *Event, next Continuation) {
		log.add(tag)
		_ = d.Defer(func() {
			time.Sleep(time.Millisecond)
			log.add(tag + ":next")
			next(result, nil)
		})
	}
}

func wait(t *testing.T, p *Promise) (*Event, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.Wait(ctx)
}

func TestAsync_NotifyWaitsForEachContinuation(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", deferred(d, log, "L1", nil), WithPriority(1)))
	require.NoError(t, d.Attach("e", deferred(d, log, "L2", nil), WithPriority(2)))

	p, resolve := NewPromise()
	ev := NewEvent(nil)
	require.NoError(t, d.NotifyAsync(context.Background(), "e", ev, func(got *Event, err error) {
		log.add("done")
		resolve(got, err)
	}))

	got, err := wait(t, p)
	require.NoError(t, err)
	assert.Same(t, ev, got)
	assert.Equal(t, []string{"L1", "L1:next", "L2", "L2:next", "done"}, log.list())
}

func TestAsync_ManualContinuation(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	var pending Continuation
	require.NoError(t, d.Attach("e", AsyncListenerFunc(func(ctx context.Context, ev *Event, next Continuation) {
		log.add("L1")
		pending = next
	})))
	require.NoError(t, d.Attach("e", recording(log, "L2", nil)))

	p, done := NewPromise()
	require.NoError(t, d.NotifyAsync(context.Background(), "e", NewEvent(nil), done))

	// suspended until L1 continues
	assert.Equal(t, []string{"L1"}, log.list())
	select {
	case <-p.Done():
		t.Fatal("completion fired before the continuation")
	default:
	}

	pending(nil, nil)

	_, err := wait(t, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2"}, log.list())
}

func TestAsync_StopPropagation(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", AsyncListenerFunc(func(ctx context.Context, ev *Event, next Continuation) {
		log.add("L1")
		_ = d.Defer(func() {
			ev.StopPropagation()
			next(nil, nil)
		})
	})))
	require.NoError(t, d.Attach("e", recording(log, "L2", nil)))

	p, done := NewPromise()
	require.NoError(t, d.NotifyAsync(context.Background(), "e", NewEvent(nil), done))

	ev, err := wait(t, p)
	require.NoError(t, err)
	assert.True(t, ev.IsPropagationStopped())
	assert.Equal(t, []string{"L1"}, log.list())
}

func TestAsync_NotifyUntil(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", deferred(d, log, "L1", false), WithPriority(1)))
	require.NoError(t, d.Attach("e", deferred(d, log, "L2", "handled"), WithPriority(2)))
	require.NoError(t, d.Attach("e", deferred(d, log, "L3", false), WithPriority(3)))

	p, done := NewPromise()
	require.NoError(t, d.NotifyUntilAsync(context.Background(), "e", NewEvent(nil), done))

	ev, err := wait(t, p)
	require.NoError(t, err)
	assert.True(t, ev.IsProcessed())
	assert.Equal(t, []string{"L1", "L1:next", "L2", "L2:next"}, log.list())
}

func TestAsync_Filter(t *testing.T) {
	d, _ := newTestDispatcher(t)

	require.NoError(t, d.Attach("e", AsyncFilterFunc(func(ctx context.Context, ev *Event, v any, next Continuation) {
		_ = d.Defer(func() { next(v.(int)+1, nil) })
	}), WithPriority(1)))
	// sync filters are adapted in async mode
	require.NoError(t, d.Attach("e", FilterFunc(func(ctx context.Context, ev *Event, v any) (any, error) {
		return v.(int) * 2, nil
	}), WithPriority(2)))

	p, done := NewPromise()
	require.NoError(t, d.FilterAsync(context.Background(), "e", NewEvent(nil), 1, done))

	ev, err := wait(t, p)
	require.NoError(t, err)
	v, ok := ev.ReturnValue()
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestAsync_FilterStopKeepsAccumulatedValue(t *testing.T) {
	d, _ := newTestDispatcher(t)

	require.NoError(t, d.Attach("e", AsyncFilterFunc(func(ctx context.Context, ev *Event, v any, next Continuation) {
		ev.StopPropagation()
		next(v.(int)+10, nil)
	})))
	require.NoError(t, d.Attach("e", FilterFunc(func(ctx context.Context, ev *Event, v any) (any, error) {
		return 0, nil
	})))

	p, done := NewPromise()
	require.NoError(t, d.FilterAsync(context.Background(), "e", NewEvent(nil), 5, done))

	ev, err := wait(t, p)
	require.NoError(t, err)
	v, _ := ev.ReturnValue()
	assert.Equal(t, 15, v)
}

func TestAsync_Failure(t *testing.T) {
	d, _ := newTestDispatcher(t)
	boom := errors.New("boom")
	log := &callLog{}

	require.NoError(t, d.Attach("e", AsyncListenerFunc(func(ctx context.Context, ev *Event, next Continuation) {
		_ = d.Defer(func() { next(nil, boom) })
	})))
	require.NoError(t, d.Attach("e", recording(log, "L2", nil)))

	var calls atomic.Int32
	p, resolve := NewPromise()
	require.NoError(t, d.NotifyAsync(context.Background(), "e", NewEvent(nil), func(ev *Event, err error) {
		calls.Add(1)
		resolve(ev, err)
	}))

	ev, err := wait(t, p)
	assert.NotNil(t, ev)
	assert.ErrorIs(t, err, ErrListenerFailed)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, log.list())
	assert.Equal(t, int32(1), calls.Load())
}

func TestAsync_EmptyCompletesInline(t *testing.T) {
	d, _ := newTestDispatcher(t)

	called := false
	require.NoError(t, d.NotifyAsync(context.Background(), "nobody", NewEvent(nil), func(ev *Event, err error) {
		called = true
		assert.NoError(t, err)
		assert.Equal(t, "nobody", ev.Name())
	}))
	assert.True(t, called)
}

func TestAsync_SyncListenersRunInline(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", recording(log, "L1", nil)))
	require.NoError(t, d.Attach("e", Synchronous(recording(log, "L2", nil))))
	require.NoError(t, d.Attach("e", recording(log, "L3", nil)))

	var result error = errors.New("not called")
	require.NoError(t, d.NotifyAsync(context.Background(), "e", NewEvent(nil), func(ev *Event, err error) {
		result = err
	}))

	// every continuation fired inline, so the completion already ran
	assert.NoError(t, result)
	assert.Equal(t, []string{"L1", "L2", "L3"}, log.list())
}

func TestAsync_LongInlineChain(t *testing.T) {
	d, _ := newTestDispatcher(t)

	const n = 20000
	for i := 0; i < n; i++ {
		require.NoError(t, d.Attach("e", AsyncFilterFunc(func(ctx context.Context, ev *Event, v any, next Continuation) {
			next(v.(int)+1, nil)
		})))
	}

	var got any
	require.NoError(t, d.FilterAsync(context.Background(), "e", NewEvent(nil), 0, func(ev *Event, err error) {
		require.NoError(t, err)
		got, _ = ev.ReturnValue()
	}))
	assert.Equal(t, n, got)
}

func TestAsync_DoubleContinuationInline(t *testing.T) {
	d, logs := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", AsyncListenerFunc(func(ctx context.Context, ev *Event, next Continuation) {
		log.add("L1")
		next(nil, nil)
		next(nil, nil)
	})))
	require.NoError(t, d.Attach("e", recording(log, "L2", nil)))

	completions := 0
	require.NoError(t, d.NotifyAsync(context.Background(), "e", NewEvent(nil), func(ev *Event, err error) {
		completions++
	}))

	assert.Equal(t, []string{"L1", "L2"}, log.list())
	assert.Equal(t, 1, completions)
	assert.Equal(t, 1, logs.FilterMessage("continuation 被重复调用，已忽略").Len())
}

func TestAsync_DoubleContinuationDeferred(t *testing.T) {
	d, logs := newTestDispatcher(t)
	log := &callLog{}

	var pending Continuation
	require.NoError(t, d.Attach("e", AsyncListenerFunc(func(ctx context.Context, ev *Event, next Continuation) {
		pending = next
	})))
	require.NoError(t, d.Attach("e", recording(log, "L2", nil)))

	completions := 0
	require.NoError(t, d.NotifyAsync(context.Background(), "e", NewEvent(nil), func(ev *Event, err error) {
		completions++
	}))

	pending(nil, nil)
	pending(nil, errors.New("late"))

	assert.Equal(t, []string{"L2"}, log.list())
	assert.Equal(t, 1, completions)
	assert.Equal(t, 1, logs.FilterMessage("continuation 被重复调用，已忽略").Len())
}

func TestAsync_ContractErrors(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()
	never := func(ev *Event, err error) { t.Fatal("completion must not run") }

	assert.ErrorIs(t, d.NotifyAsync(ctx, "e", NewEvent(nil), nil), ErrNilCompletion)
	assert.ErrorIs(t, d.NotifyAsync(ctx, "", NewEvent(nil), never), ErrInvalidEventName)
	assert.ErrorIs(t, d.NotifyUntilAsync(ctx, "e", nil, never), ErrNilEvent)

	require.NoError(t, d.Attach("notify", tagged("x")))
	err := d.FilterAsync(ctx, "notify", NewEvent(nil), 0, never)
	assert.ErrorIs(t, err, ErrListenerKind)
	assert.True(t, IsContractError(err))
}

func TestAsync_ConcurrentDispatches(t *testing.T) {
	d, _ := newTestDispatcher(t, WithPoolSize(32))

	require.NoError(t, d.Attach("e", AsyncFilterFunc(func(ctx context.Context, ev *Event, v any, next Continuation) {
		_ = d.Defer(func() { next(v.(int)+1, nil) })
	})))
	require.NoError(t, d.Attach("e", AsyncFilterFunc(func(ctx context.Context, ev *Event, v any, next Continuation) {
		_ = d.Defer(func() { next(v.(int)*10, nil) })
	})))

	// each dispatch holds at most two pool workers at once
	const n = 15
	promises := make([]*Promise, n)
	for i := 0; i < n; i++ {
		p, done := NewPromise()
		promises[i] = p
		require.NoError(t, d.FilterAsync(context.Background(), "e", NewEvent(i), i, done))
	}

	for i, p := range promises {
		ev, err := wait(t, p)
		require.NoError(t, err)
		v, _ := ev.ReturnValue()
		assert.Equal(t, (i+1)*10, v)
		assert.Equal(t, i, ev.Subject())
	}
}
