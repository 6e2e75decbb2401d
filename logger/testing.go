package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewTestLogger returns a debug-level logger that records entries in memory.
//
//	log, logs := logger.NewTestLogger("yogan")
//	d := event.NewDispatcher(event.WithLogger(log))
//	assert.Equal(t, 1, logs.FilterMessage("listener failed").Len())
func NewTestLogger(module string) (*CtxZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewCtxZapLogger(zap.New(core), module, nil), logs
}
