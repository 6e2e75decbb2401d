package event

import (
	"fmt"
	"reflect"
)

// Binding one event-to-listener mapping of a Subscriber
type Binding struct {
	Event    string
	Listener Listener
	Options  []AttachOption
}

// Bind 构造 Binding
func Bind(name string, listener Listener, opts ...AttachOption) Binding {
	return Binding{Event: name, Listener: listener, Options: opts}
}

// Subscriber groups the listeners of one feature
//
//	func (s *AuditSubscriber) Bindings() []event.Binding {
//	    return []event.Binding{
//	        event.Bind("user.login", event.Handler(s.onLogin)),
//	        event.Bind("user.logout", event.Handler(s.onLogout), event.WithPriority(100)),
//	    }
//	}
type Subscriber interface {
	Bindings() []Binding
}

// DispatcherAware is implemented by subscribers that dispatch events themselves
type DispatcherAware interface {
	SetDispatcher(d Dispatcher)
}

// Manager registers subscribers on a dispatcher
type Manager struct {
	dispatcher Dispatcher
}

// NewManager 创建订阅管理器
func NewManager(d Dispatcher) *Manager {
	return &Manager{dispatcher: d}
}

// Dispatcher returns the dispatcher subscribers are attached to
func (m *Manager) Dispatcher() Dispatcher {
	return m.dispatcher
}

// Register attaches every binding of s. Bindings are checked before anything
// is attached; SetDispatcher is called first when s implements DispatcherAware.
func (m *Manager) Register(s Subscriber) error {
	if isNilSubscriber(s) {
		return ErrInvalidSubscriber
	}

	bindings := s.Bindings()
	for i, b := range bindings {
		if b.Event == "" || isNilListener(b.Listener) {
			return ErrInvalidBinding.
				WithMsgf("binding #%d of %T needs an event name and a listener", i, s).
				WithFields(map[string]interface{}{"subscriber": fmt.Sprintf("%T", s), "index": i})
		}
	}

	if aware, ok := s.(DispatcherAware); ok {
		aware.SetDispatcher(m.dispatcher)
	}

	for _, b := range bindings {
		if err := m.dispatcher.Attach(b.Event, b.Listener, b.Options...); err != nil {
			return err
		}
	}
	return nil
}

// RegisterAll registers subscribers in order and stops at the first error
func (m *Manager) RegisterAll(subscribers ...Subscriber) error {
	for _, s := range subscribers {
		if err := m.Register(s); err != nil {
			return err
		}
	}
	return nil
}

func isNilSubscriber(s Subscriber) bool {
	if s == nil {
		return true
	}
	rv := reflect.ValueOf(s)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
