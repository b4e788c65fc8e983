package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []ChangeEvent
}

func (r *recorder) MemberChanged(ev ChangeEvent) { r.events = append(r.events, ev) }

func TestObservableOrder(t *testing.T) {
	m := NewMethod(NewConstPool(), "run", "()V")
	var order []string
	first, second := &recorder{}, &recorder{}
	m.Subscribe(first)
	m.Subscribe(ListenerFunc(func(ChangeEvent) { order = append(order, "func") }))
	m.Subscribe(second)
	m.Subscribe(first)
	require.Len(t, m.Subscribers(), 3)

	m.SetName("walk")
	m.SetDescriptor("(I)V")
	m.SetAccessFlags(AccPublic)

	for _, r := range []*recorder{first, second} {
		require.Len(t, r.events, 3)
		assert.Equal(t, ChangeEvent{Source: m, Property: PropName, Old: "run", New: "walk"}, r.events[0])
		assert.Equal(t, ChangeEvent{Source: m, Property: PropDescriptor, Old: "()V", New: "(I)V"}, r.events[1])
		assert.Equal(t, ChangeEvent{Source: m, Property: PropAccessFlags, Old: uint16(0), New: AccPublic}, r.events[2])
	}
	assert.Len(t, order, 3)
}

func TestObservableUnchangedValueIsSilent(t *testing.T) {
	f := NewField(NewConstPool(), "x", "I")
	r := &recorder{}
	f.Subscribe(r)

	f.SetName("x")
	f.SetDescriptor("I")
	f.SetAccessFlags(0)
	assert.Empty(t, r.events)
}

func TestObservableUnsubscribe(t *testing.T) {
	f := NewField(NewConstPool(), "x", "I")
	r := &recorder{}
	assert.False(t, f.Unsubscribe(r))
	f.Subscribe(r)
	assert.True(t, f.Unsubscribe(r))
	assert.False(t, f.Unsubscribe(r))

	fn := ListenerFunc(func(ChangeEvent) {})
	f.Subscribe(fn)
	f.Subscribe(fn)
	assert.Len(t, f.Subscribers(), 2)
	assert.False(t, f.Unsubscribe(fn))

	f.SetName("y")
	assert.Empty(t, r.events)
}

type selfRemover struct {
	m     *MethodInfo
	calls int
}

func (s *selfRemover) MemberChanged(ChangeEvent) {
	s.calls++
	s.m.Unsubscribe(s)
}

func TestObservableUnsubscribeDuringEvent(t *testing.T) {
	m := NewMethod(NewConstPool(), "run", "()V")
	s := &selfRemover{m: m}
	after := &recorder{}
	m.Subscribe(s)
	m.Subscribe(after)

	m.SetName("a")
	m.SetName("b")
	assert.Equal(t, 1, s.calls)
	assert.Len(t, after.events, 2)
}

func TestPropertyString(t *testing.T) {
	assert.Equal(t, "name", PropName.String())
	assert.Equal(t, "descriptor", PropDescriptor.String())
	assert.Equal(t, "accessFlags", PropAccessFlags.String())
	assert.Equal(t, "removed", PropRemoved.String())
	assert.Equal(t, "unknown", Property(0).String())
}
