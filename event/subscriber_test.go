package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditSubscriber struct {
	log        *callLog
	dispatcher Dispatcher
}

func (s *auditSubscriber) Bindings() []Binding {
	return []Binding{
		Bind("user.login", recording(s.log, "login", nil)),
		Bind("user.login", recording(s.log, "login-first", nil), WithPriority(-10)),
		Bind("user.logout", Handler(func(ctx context.Context, ev *Event) error {
			s.log.add("logout")
			// dispatcher is available once registered
			_, err := s.dispatcher.Notify(ctx, "audit.written", NewEvent(ev.Subject()))
			return err
		})),
	}
}

func (s *auditSubscriber) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

type staticSubscriber []Binding

func (s staticSubscriber) Bindings() []Binding { return s }

func TestManager_Register(t *testing.T) {
	d, _ := newTestDispatcher(t)
	m := NewManager(d)
	assert.Same(t, d, m.Dispatcher())

	sub := &auditSubscriber{log: &callLog{}}
	require.NoError(t, m.Register(sub))

	assert.Same(t, d, sub.dispatcher)
	assert.Equal(t, 2, d.Registry().Len("user.login"))

	ctx := context.Background()
	_, err := d.Notify(ctx, "user.login", NewEvent("alice"))
	require.NoError(t, err)
	_, err = d.Notify(ctx, "user.logout", NewEvent("alice"))
	require.NoError(t, err)

	assert.Equal(t, []string{"login-first", "login", "logout"}, sub.log.list())
}

func TestManager_RegisterContractErrors(t *testing.T) {
	d, _ := newTestDispatcher(t)
	m := NewManager(d)

	assert.ErrorIs(t, m.Register(nil), ErrInvalidSubscriber)

	var nilSub *auditSubscriber
	err := m.Register(nilSub)
	assert.ErrorIs(t, err, ErrInvalidSubscriber)
	assert.True(t, IsContractError(err))

	bad := staticSubscriber{
		Bind("ok", tagged("x")),
		Bind("", tagged("y")),
	}
	err = m.Register(bad)
	assert.ErrorIs(t, err, ErrInvalidBinding)
	// nothing is attached when a binding is malformed
	assert.False(t, d.Has("ok"))

	err = m.Register(staticSubscriber{Bind("e", nil)})
	assert.ErrorIs(t, err, ErrInvalidBinding)
}

func TestManager_RegisterAll(t *testing.T) {
	d, _ := newTestDispatcher(t)
	m := NewManager(d)

	err := m.RegisterAll(
		staticSubscriber{Bind("a", tagged("1"))},
		nil,
		staticSubscriber{Bind("b", tagged("2"))},
	)

	assert.ErrorIs(t, err, ErrInvalidSubscriber)
	assert.True(t, d.Has("a"))
	assert.False(t, d.Has("b"))
}
