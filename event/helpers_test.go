package event

import (
	"context"
	"sync"
	"testing"

	"github.com/KOMKZ/go-yogan-event/logger"
	"go.uber.org/zap/zaptest/observer"
)

func newTestDispatcher(t *testing.T, opts ...DispatcherOption) (*dispatcher, *observer.ObservedLogs) {
	t.Helper()
	log, logs := logger.NewTestLogger("yogan")
	d := NewDispatcher(append([]DispatcherOption{WithLogger(log), WithPoolSize(8)}, opts...)...)
	t.Cleanup(d.Close)
	return d, logs
}

// callLog records call order across goroutines
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

func (c *callLog) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// tagged returns its tag as the result
func tagged(tag string) ListenerFunc {
	return func(ctx context.Context, ev *Event) (any, error) {
		return tag, nil
	}
}

// recording appends tag to log and returns result
func recording(log *callLog, tag string, result any) ListenerFunc {
	return func(ctx context.Context, ev *Event) (any, error) {
		log.add(tag)
		return result, nil
	}
}

// tags runs the tagged listeners of seq and collects their tags
func tags(seq func(func(Listener) bool)) []string {
	var out []string
	for l := range seq {
		result, _ := l.(ListenerFunc)(context.Background(), NewEvent(nil))
		out = append(out, result.(string))
	}
	return out
}
