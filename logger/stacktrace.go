package logger

import (
	"fmt"
	"runtime"
	"strings"
)

var levelRank = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
	"fatal": 4,
}

// CaptureStacktrace formats the current call stack.
// skip is passed to runtime.Callers, depth caps the frame count (0 = 32).
func CaptureStacktrace(skip int, depth int) string {
	maxDepth := depth
	if maxDepth <= 0 {
		maxDepth = 32
	}

	pcs := make([]uintptr, maxDepth*2)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return ""
	}

	frames := make([]string, 0, maxDepth)
	callersFrames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := callersFrames.Next()
		frames = append(frames, fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line))
		if len(frames) >= maxDepth || !more {
			break
		}
	}

	return strings.Join(frames, "\n")
}

// shouldCaptureStacktrace 判断当前日志级别是否需要记录堆栈
func shouldCaptureStacktrace(level string, config ManagerConfig) bool {
	if !config.EnableStacktrace {
		return false
	}
	return levelRank[level] >= levelRank[config.StacktraceLevel]
}
