package classfile

// Property names a member property that broadcasts change events.
type Property uint8

const (
	PropName Property = iota + 1
	PropDescriptor
	PropAccessFlags
	// PropRemoved is fired when the class file drops the member.
	PropRemoved
)

func (p Property) String() string {
	switch p {
	case PropName:
		return "name"
	case PropDescriptor:
		return "descriptor"
	case PropAccessFlags:
		return "accessFlags"
	case PropRemoved:
		return "removed"
	}
	return "unknown"
}

// ChangeEvent describes one property change of a member. Old and New hold a
// string for PropName and PropDescriptor and a uint16 for PropAccessFlags.
// For PropRemoved, Old is the *ClassFile the member was removed from and
// New is nil.
type ChangeEvent struct {
	Source   Member
	Property Property
	Old, New any
}

// Listener receives change events. Implementations are compared by identity
// when subscribing, so they should be pointer types.
type Listener interface {
	MemberChanged(ev ChangeEvent)
}

// ListenerFunc adapts a function to Listener. A ListenerFunc cannot be
// unsubscribed because functions are not comparable; wrap it in a pointer
// type for that.
type ListenerFunc func(ev ChangeEvent)

func (f ListenerFunc) MemberChanged(ev ChangeEvent) { f(ev) }

// Observable holds an ordered list of subscribers and notifies them in
// subscription order.
type Observable struct {
	subscribers []Listener
}

// Subscribe adds l unless it is already subscribed.
func (o *Observable) Subscribe(l Listener) {
	if o.indexOf(l) >= 0 {
		return
	}
	o.subscribers = append(o.subscribers, l)
}

// Unsubscribe removes l and reports whether it was subscribed.
func (o *Observable) Unsubscribe(l Listener) bool {
	i := o.indexOf(l)
	if i < 0 {
		return false
	}
	o.subscribers = append(o.subscribers[:i:i], o.subscribers[i+1:]...)
	return true
}

// Subscribers returns a copy of the subscriber list.
func (o *Observable) Subscribers() []Listener {
	return append([]Listener(nil), o.subscribers...)
}

func (o *Observable) indexOf(l Listener) int {
	if _, isFunc := l.(ListenerFunc); isFunc {
		return -1
	}
	for i, s := range o.subscribers {
		if _, isFunc := s.(ListenerFunc); isFunc {
			continue
		}
		if s == l {
			return i
		}
	}
	return -1
}

// fire notifies a snapshot of the subscribers, so a listener may
// unsubscribe itself while handling the event.
func (o *Observable) fire(ev ChangeEvent) {
	if len(o.subscribers) == 0 {
		return
	}
	for _, l := range append([]Listener(nil), o.subscribers...) {
		l.MemberChanged(ev)
	}
}
