package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_NotifyOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", recording(log, "L2", nil), WithPriority(20)))
	require.NoError(t, d.Attach("e", recording(log, "L1", nil), WithPriority(10)))

	ev := NewEvent("subject")
	got, err := d.Notify(context.Background(), "e", ev)

	require.NoError(t, err)
	assert.Same(t, ev, got)
	assert.Equal(t, []string{"L1", "L2"}, log.list())
	assert.Equal(t, "e", ev.Name())
	assert.False(t, ev.IsProcessed())
}

func TestDispatcher_NotifyNoListeners(t *testing.T) {
	d, _ := newTestDispatcher(t)

	ev := NewEvent(nil)
	got, err := d.Notify(context.Background(), "nobody", ev)

	require.NoError(t, err)
	assert.Same(t, ev, got)
	assert.Equal(t, "nobody", ev.Name())
}

func TestDispatcher_NotifyStopPropagation(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", recording(log, "L1", nil)))
	require.NoError(t, d.Attach("e", ListenerFunc(func(ctx context.Context, ev *Event) (any, error) {
		log.add("stopper")
		ev.StopPropagation()
		return nil, nil
	})))
	require.NoError(t, d.Attach("e", recording(log, "L3", nil)))

	ev := NewEvent(nil)
	_, err := d.Notify(context.Background(), "e", ev)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "stopper"}, log.list())
	assert.True(t, ev.IsPropagationStopped())

	// the next dispatch starts with propagation enabled again
	log2 := &callLog{}
	require.NoError(t, d.Attach("f", recording(log2, "F", nil)))
	_, err = d.Notify(context.Background(), "f", ev)
	require.NoError(t, err)
	assert.Equal(t, []string{"F"}, log2.list())
	assert.False(t, ev.IsPropagationStopped())
}

func TestDispatcher_NotifyIgnoresResults(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", recording(log, "L1", true)))
	require.NoError(t, d.Attach("e", recording(log, "L2", "yes")))

	ev, err := d.Notify(context.Background(), "e", NewEvent(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2"}, log.list())
	assert.False(t, ev.IsProcessed())
}

func TestDispatcher_NotifyUntil(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", recording(log, "L1", false), WithPriority(1)))
	require.NoError(t, d.Attach("e", recording(log, "L2", true), WithPriority(2)))
	require.NoError(t, d.Attach("e", recording(log, "L3", false), WithPriority(3)))

	ev, err := d.NotifyUntil(context.Background(), "e", NewEvent(nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2"}, log.list())
	assert.True(t, ev.IsProcessed())
}

func TestDispatcher_NotifyUntilNoneHandled(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", recording(log, "L1", nil)))
	require.NoError(t, d.Attach("e", recording(log, "L2", 0)))
	require.NoError(t, d.Attach("e", recording(log, "L3", "")))

	ev, err := d.NotifyUntil(context.Background(), "e", NewEvent(nil))

	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2", "L3"}, log.list())
	assert.False(t, ev.IsProcessed())
}

func TestDispatcher_NotifyUntilHonoursStop(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", ListenerFunc(func(ctx context.Context, ev *Event) (any, error) {
		ev.StopPropagation()
		return false, nil
	})))
	require.NoError(t, d.Attach("e", recording(log, "L2", true)))

	ev, err := d.NotifyUntil(context.Background(), "e", NewEvent(nil))
	require.NoError(t, err)
	assert.Empty(t, log.list())
	assert.False(t, ev.IsProcessed())
}

func TestDispatcher_Filter(t *testing.T) {
	d, _ := newTestDispatcher(t)

	require.NoError(t, d.Attach("e", FilterFunc(func(ctx context.Context, ev *Event, v any) (any, error) {
		return v.(int) + 1, nil
	}), WithPriority(1)))
	require.NoError(t, d.Attach("e", FilterFunc(func(ctx context.Context, ev *Event, v any) (any, error) {
		return v.(int) * 2, nil
	}), WithPriority(2)))

	ev, err := d.Filter(context.Background(), "e", NewEvent(nil), 1)

	require.NoError(t, err)
	v, ok := ev.ReturnValue()
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestDispatcher_FilterNoListeners(t *testing.T) {
	d, _ := newTestDispatcher(t)

	ev, err := d.Filter(context.Background(), "e", NewEvent(nil), "unchanged")

	require.NoError(t, err)
	v, ok := ev.ReturnValue()
	assert.True(t, ok)
	assert.Equal(t, "unchanged", v)
}

func TestDispatcher_FilterStopPropagation(t *testing.T) {
	d, _ := newTestDispatcher(t)
	called := false

	require.NoError(t, d.Attach("e", FilterFunc(func(ctx context.Context, ev *Event, v any) (any, error) {
		ev.StopPropagation()
		return v.(string) + "-trimmed", nil
	})))
	require.NoError(t, d.Attach("e", FilterFunc(func(ctx context.Context, ev *Event, v any) (any, error) {
		called = true
		return v, nil
	})))

	ev, err := d.Filter(context.Background(), "e", NewEvent(nil), "raw")

	require.NoError(t, err)
	assert.False(t, called)
	v, _ := ev.ReturnValue()
	assert.Equal(t, "raw-trimmed", v)
}

func TestDispatcher_ListenerErrorAborts(t *testing.T) {
	d, logs := newTestDispatcher(t)
	boom := errors.New("boom")
	log := &callLog{}

	require.NoError(t, d.Attach("e", ListenerFunc(func(ctx context.Context, ev *Event) (any, error) {
		ev.SetParam("touched", true)
		return nil, boom
	})))
	require.NoError(t, d.Attach("e", recording(log, "L2", nil)))

	ev := NewEvent(nil)
	got, err := d.Notify(context.Background(), "e", ev)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrListenerFailed)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsContractError(err))
	assert.Same(t, ev, got)
	assert.Empty(t, log.list())
	// partial mutations stay visible
	assert.True(t, ev.HasParam("touched"))
	assert.Equal(t, 1, logs.FilterMessage("监听器执行失败").Len())
}

func TestDispatcher_FilterErrorLeavesNoReturnValue(t *testing.T) {
	d, _ := newTestDispatcher(t)
	boom := errors.New("boom")

	require.NoError(t, d.Attach("e", FilterFunc(func(ctx context.Context, ev *Event, v any) (any, error) {
		return nil, boom
	})))

	ev, err := d.Filter(context.Background(), "e", NewEvent(nil), 1)
	assert.ErrorIs(t, err, boom)
	_, ok := ev.ReturnValue()
	assert.False(t, ok)
}

func TestDispatcher_ContractErrors(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	_, err := d.Notify(ctx, "", NewEvent(nil))
	assert.ErrorIs(t, err, ErrInvalidEventName)

	_, err = d.Notify(ctx, "e", nil)
	assert.ErrorIs(t, err, ErrNilEvent)
	assert.True(t, IsContractError(err))

	t.Run("filter listener in notify", func(t *testing.T) {
		called := false
		require.NoError(t, d.Attach("kind", recording(&callLog{}, "ok", nil)))
		require.NoError(t, d.Attach("kind", FilterFunc(func(ctx context.Context, ev *Event, v any) (any, error) {
			called = true
			return v, nil
		})))

		_, err := d.Notify(ctx, "kind", NewEvent(nil))
		assert.ErrorIs(t, err, ErrListenerKind)
		assert.True(t, IsContractError(err))
		assert.False(t, called)

		_, err = d.Filter(ctx, "kind", NewEvent(nil), 0)
		assert.ErrorIs(t, err, ErrListenerKind)
	})

	t.Run("async listener in sync dispatch", func(t *testing.T) {
		log := &callLog{}
		require.NoError(t, d.Attach("mode", recording(log, "sync", nil)))
		require.NoError(t, d.Attach("mode", AsyncListenerFunc(func(ctx context.Context, ev *Event, next Continuation) {
			next(nil, nil)
		})))

		_, err := d.Notify(ctx, "mode", NewEvent(nil))
		assert.ErrorIs(t, err, ErrListenerMode)
		// checked before any listener runs
		assert.Empty(t, log.list())
	})
}

func TestDispatcher_AttachDuringDispatch(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("e", ListenerFunc(func(ctx context.Context, ev *Event) (any, error) {
		log.add("L1")
		return nil, d.Attach("e", recording(log, "late", nil), WithPriority(100))
	})))

	_, err := d.Notify(context.Background(), "e", NewEvent(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"L1"}, log.list())

	_, err = d.Notify(context.Background(), "e", NewEvent(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L1", "late"}, log.list())
}

func TestDispatcher_NestedDispatch(t *testing.T) {
	d, _ := newTestDispatcher(t)
	log := &callLog{}

	require.NoError(t, d.Attach("inner", recording(log, "inner", nil)))
	require.NoError(t, d.Attach("outer", ListenerFunc(func(ctx context.Context, ev *Event) (any, error) {
		log.add("outer")
		_, err := d.Notify(ctx, "inner", NewEvent(ev.Subject()))
		return nil, err
	})))

	_, err := d.Notify(context.Background(), "outer", NewEvent("s"))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, log.list())
}

func TestDispatcher_PanicsAreNotSwallowed(t *testing.T) {
	d, _ := newTestDispatcher(t)
	require.NoError(t, d.Attach("e", ListenerFunc(func(ctx context.Context, ev *Event) (any, error) {
		panic("listener bug")
	})))

	assert.PanicsWithValue(t, "listener bug", func() {
		_, _ = d.Notify(context.Background(), "e", NewEvent(nil))
	})
}

func TestDispatcher_NilContext(t *testing.T) {
	d, _ := newTestDispatcher(t)
	require.NoError(t, d.Attach("e", ListenerFunc(func(ctx context.Context, ev *Event) (any, error) {
		assert.NotNil(t, ctx)
		return nil, nil
	})))

	_, err := d.Notify(nil, "e", NewEvent(nil))
	assert.NoError(t, err)
}

func TestDispatcher_HasAndList(t *testing.T) {
	d, _ := newTestDispatcher(t)
	assert.False(t, d.Has("e"))

	require.NoError(t, d.Attach("e", tagged("b"), WithPriority(2)))
	require.NoError(t, d.Attach("e", tagged("a"), WithPriority(1)))

	assert.True(t, d.Has("e"))
	assert.Equal(t, []string{"a", "b"}, tags(d.List("e")))
	assert.Equal(t, 2, d.Registry().Count())
}

func TestDispatcher_DefaultPriorityOption(t *testing.T) {
	d, _ := newTestDispatcher(t, WithDefaultPriority(10))

	require.NoError(t, d.Attach("e", tagged("default")))
	require.NoError(t, d.Attach("e", tagged("p5"), WithPriority(5)))

	assert.Equal(t, []string{"p5", "default"}, tags(d.List("e")))
}

func TestDispatcher_SharedRegistry(t *testing.T) {
	r := NewRegistry()
	d1, _ := newTestDispatcher(t, WithRegistry(r))
	d2, _ := newTestDispatcher(t, WithRegistry(r))

	require.NoError(t, d1.Attach("e", tagged("x")))
	assert.True(t, d2.Has("e"))
}

func TestDispatcher_Defer(t *testing.T) {
	d, _ := newTestDispatcher(t)

	ran := make(chan struct{})
	require.NoError(t, d.Defer(func() { close(ran) }))
	<-ran

	assert.NoError(t, d.Defer(nil))

	d.Close()
	d.Close()
	assert.True(t, d.IsClosed())
	assert.ErrorIs(t, d.Defer(func() {}), ErrDispatcherClosed)
	assert.NoError(t, d.Shutdown())

	// dispatching does not need the pool
	_, err := d.Notify(context.Background(), "e", NewEvent(nil))
	assert.NoError(t, err)
}
