package event

import (
	"time"

	"github.com/google/uuid"
)

// Event 单次分发的载体：主体、参数以及处理状态
//
// 一个 Event 同一时间只能参与一次分发；它不做并发保护。
type Event struct {
	id                 string
	subject            any
	name               string
	parameters         map[string]any
	processed          bool
	propagationStopped bool
	returnValue        any
	hasReturnValue     bool
	occurredAt         time.Time
}

// EventOption 事件构造选项
type EventOption func(*Event)

// WithName presets the name. Every dispatch overwrites it with the dispatched name.
func WithName(name string) EventOption {
	return func(e *Event) {
		e.name = name
	}
}

// WithParameters sets the parameter map; the map is used as is, not copied
func WithParameters(params map[string]any) EventOption {
	return func(e *Event) {
		if params != nil {
			e.parameters = params
		}
	}
}

// NewEvent creates an event around subject
func NewEvent(subject any, opts ...EventOption) *Event {
	e := &Event{
		id:         uuid.NewString(),
		subject:    subject,
		parameters: make(map[string]any),
		occurredAt: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID unique id, used to correlate logs and spans
func (e *Event) ID() string {
	return e.id
}

// Subject returns the object the event is about
func (e *Event) Subject() any {
	return e.subject
}

// Name returns the name of the current (or last) dispatch
func (e *Event) Name() string {
	return e.name
}

// Parameters returns the parameter map itself
func (e *Event) Parameters() map[string]any {
	return e.parameters
}

// OccurredAt returns the event creation time
func (e *Event) OccurredAt() time.Time {
	return e.occurredAt
}

// Param 读取参数
func (e *Event) Param(key string) (any, bool) {
	v, ok := e.parameters[key]
	return v, ok
}

// SetParam 设置参数
func (e *Event) SetParam(key string, value any) {
	if e.parameters == nil {
		e.parameters = make(map[string]any)
	}
	e.parameters[key] = value
}

// DeleteParam 删除参数
func (e *Event) DeleteParam(key string) {
	delete(e.parameters, key)
}

// HasParam 参数是否存在
func (e *Event) HasParam(key string) bool {
	_, ok := e.parameters[key]
	return ok
}

// MarkProcessed flags the event as handled. It is never cleared.
func (e *Event) MarkProcessed() *Event {
	e.processed = true
	return e
}

// IsProcessed reports whether a listener handled the event
func (e *Event) IsProcessed() bool {
	return e.processed
}

// StopPropagation prevents the remaining listeners of the current dispatch from running
func (e *Event) StopPropagation() *Event {
	e.propagationStopped = true
	return e
}

// StartPropagation clears a stop requested earlier in the same dispatch
func (e *Event) StartPropagation() *Event {
	e.propagationStopped = false
	return e
}

// IsPropagationStopped 是否已停止传播
func (e *Event) IsPropagationStopped() bool {
	return e.propagationStopped
}

// ReturnValue returns the value a Filter dispatch produced.
// ok is false until a filter dispatch finishes without failing.
func (e *Event) ReturnValue() (value any, ok bool) {
	return e.returnValue, e.hasReturnValue
}

// begin 每次分发开始时调用，监听器运行之前
func (e *Event) begin(name string) {
	e.name = name
	e.propagationStopped = false
}

func (e *Event) setReturnValue(v any) {
	e.returnValue = v
	e.hasReturnValue = true
}
