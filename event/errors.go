package event

import "github.com/KOMKZ/go-yogan-event/errcode"

// moduleCode 事件模块错误码前缀（20xxxx）
const moduleCode = 20

// 调用方违反约定的错误（200001-200099），立即返回，不重试
var (
	ErrInvalidEventName = errcode.Register(errcode.New(moduleCode, 1, "event",
		"error.event.invalid_name", "event name must not be empty"))
	ErrNilListener = errcode.Register(errcode.New(moduleCode, 2, "event",
		"error.event.nil_listener", "listener must not be nil"))
	ErrNilEvent = errcode.Register(errcode.New(moduleCode, 3, "event",
		"error.event.nil_event", "event must not be nil"))
	ErrListenerKind = errcode.Register(errcode.New(moduleCode, 4, "event",
		"error.event.listener_kind", "listener kind does not match the dispatch operation"))
	ErrListenerMode = errcode.Register(errcode.New(moduleCode, 5, "event",
		"error.event.listener_mode", "async listener cannot run in a synchronous dispatch"))
	ErrInvalidSubscriber = errcode.Register(errcode.New(moduleCode, 6, "event",
		"error.event.invalid_subscriber", "subscriber must not be nil"))
	ErrInvalidBinding = errcode.Register(errcode.New(moduleCode, 7, "event",
		"error.event.invalid_binding", "binding needs an event name and a listener"))
	ErrNilCompletion = errcode.Register(errcode.New(moduleCode, 8, "event",
		"error.event.nil_completion", "async dispatch needs a completion"))
)

// 运行期错误
var (
	// ErrListenerFailed wraps the error a listener returned.
	// errors.Is matches both this sentinel and the original error.
	ErrListenerFailed = errcode.Register(errcode.New(moduleCode, 101, "event",
		"error.event.listener_failed", "listener failed"))

	// ErrDispatcherClosed Defer called after Close
	ErrDispatcherClosed = errcode.Register(errcode.New(moduleCode, 102, "event",
		"error.event.dispatcher_closed", "dispatcher is closed"))
)

// IsContractError reports whether err is a misuse of the API rather than a listener failure
func IsContractError(err error) bool {
	return errcode.InRange(err, moduleCode, 1, 99)
}

func listenerFailure(name string, index int, mode Mode, cause error) error {
	return ErrListenerFailed.
		WithMsgf("listener #%d of %q failed", index, name).
		WithFields(map[string]interface{}{
			"event": name,
			"index": index,
			"mode":  mode.String(),
		}).
		Wrap(cause)
}
