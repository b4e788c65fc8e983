package classfile

import (
	"fmt"

	"github.com/skdltmxn/classfile-go/internal/stream"
)

// Member is the behavior shared by fields and methods.
type Member interface {
	Name() string
	Descriptor() string
	AccessFlags() uint16
	Attributes() *Attributes
	ConstPool() *ConstPool
	Subscribe(l Listener)
	Unsubscribe(l Listener) bool
}

// memberInfo holds what field_info and method_info have in common. self is
// the enclosing *FieldInfo or *MethodInfo, reported as the event source.
type memberInfo struct {
	Observable

	self        Member
	cp          *ConstPool
	accessFlags uint16
	nameIndex   uint16
	descIndex   uint16
	name        string
	descriptor  string
	attrs       Attributes
}

func (m *memberInfo) init(self Member, cp *ConstPool, name, desc string) {
	m.self = self
	m.cp = cp
	m.name = name
	m.descriptor = desc
	m.nameIndex = cp.AddUtf8(name)
	m.descIndex = cp.AddUtf8(desc)
}

// Name returns the member name.
func (m *memberInfo) Name() string { return m.name }

// Descriptor returns the member descriptor in slash notation.
func (m *memberInfo) Descriptor() string { return m.descriptor }

// AccessFlags returns the access flags.
func (m *memberInfo) AccessFlags() uint16 { return m.accessFlags }

// Attributes returns the member's attribute table.
func (m *memberInfo) Attributes() *Attributes { return &m.attrs }

// ConstPool returns the pool the member's indices refer to.
func (m *memberInfo) ConstPool() *ConstPool { return m.cp }

// SetName renames the member and notifies subscribers.
func (m *memberInfo) SetName(name string) {
	if name == m.name {
		return
	}
	old := m.name
	m.nameIndex = m.cp.AddUtf8(name)
	m.name = name
	m.fire(ChangeEvent{Source: m.self, Property: PropName, Old: old, New: name})
}

// SetDescriptor replaces the descriptor and notifies subscribers.
func (m *memberInfo) SetDescriptor(desc string) {
	if desc == m.descriptor {
		return
	}
	old := m.descriptor
	m.descIndex = m.cp.AddUtf8(desc)
	m.descriptor = desc
	m.fire(ChangeEvent{Source: m.self, Property: PropDescriptor, Old: old, New: desc})
}

// SetAccessFlags replaces the access flags and notifies subscribers.
func (m *memberInfo) SetAccessFlags(flags uint16) {
	if flags == m.accessFlags {
		return
	}
	old := m.accessFlags
	m.accessFlags = flags
	m.fire(ChangeEvent{Source: m.self, Property: PropAccessFlags, Old: old, New: flags})
}

// Attribute returns the attribute called name, or nil.
func (m *memberInfo) Attribute(name string) *Attribute { return m.attrs.Get(name) }

// AddAttribute adds a, replacing any attribute of the same name.
func (m *memberInfo) AddAttribute(a *Attribute) { m.attrs.Set(a) }

// RemoveAttribute removes the attribute called name and returns it.
func (m *memberInfo) RemoveAttribute(name string) *Attribute { return m.attrs.Remove(name) }

// memberStage is a member's state rebuilt against another pool, applied
// only once every member of the class has been staged.
type memberStage struct {
	m         *memberInfo
	nameIndex uint16
	descIndex uint16
	attrs     []*Attribute
}

// stage copies the member's name, descriptor and the attributes accepted
// by keep (all when keep is nil) into dst.
func (m *memberInfo) stage(dst *ConstPool, keep func(string) bool) (memberStage, error) {
	s := memberStage{m: m, nameIndex: dst.AddUtf8(m.name), descIndex: dst.AddUtf8(m.descriptor)}
	attrs, err := m.attrs.copyAll(dst, nil, keep)
	if err != nil {
		return memberStage{}, fmt.Errorf("%s %s: %w", m.name, m.descriptor, err)
	}
	s.attrs = attrs
	return s, nil
}

func (s memberStage) commit(cp *ConstPool) {
	s.m.cp = cp
	s.m.nameIndex = s.nameIndex
	s.m.descIndex = s.descIndex
	s.m.attrs.replace(s.attrs, cp)
}

func (m *memberInfo) read(cp *ConstPool, r *stream.Reader) error {
	var err error
	if m.accessFlags, err = r.ReadU16(); err != nil {
		return err
	}
	if m.nameIndex, err = r.ReadU16(); err != nil {
		return err
	}
	if m.descIndex, err = r.ReadU16(); err != nil {
		return err
	}
	if m.name, err = cp.Utf8(int(m.nameIndex)); err != nil {
		return err
	}
	if m.descriptor, err = cp.Utf8(int(m.descIndex)); err != nil {
		return err
	}
	m.cp = cp
	return m.attrs.read(cp, r)
}

func (m *memberInfo) write(w *stream.Writer) error {
	w.WriteU16(m.accessFlags)
	w.WriteU16(m.nameIndex)
	w.WriteU16(m.descIndex)
	if err := m.attrs.write(w); err != nil {
		return fmt.Errorf("%s %s: %w", m.name, m.descriptor, err)
	}
	return nil
}

// FieldInfo is a field_info structure.
type FieldInfo struct {
	memberInfo
}

// NewField creates a field whose name and descriptor are added to cp.
func NewField(cp *ConstPool, name, desc string) *FieldInfo {
	f := &FieldInfo{}
	f.init(f, cp, name, desc)
	return f
}

// ConstantValue returns the pool index held by the ConstantValue attribute,
// or 0 if the field has none.
func (f *FieldInfo) ConstantValue() uint16 {
	a := f.attrs.Get(AttrConstantValue)
	if a == nil || len(a.info) < 2 {
		return 0
	}
	return uint16(a.info[0])<<8 | uint16(a.info[1])
}

func (f *FieldInfo) String() string {
	return fmt.Sprintf("%s:%s", f.name, f.descriptor)
}

// MethodInfo is a method_info structure.
type MethodInfo struct {
	memberInfo
}

// NewMethod creates a method whose name and descriptor are added to cp.
func NewMethod(cp *ConstPool, name, desc string) *MethodInfo {
	m := &MethodInfo{}
	m.init(m, cp, name, desc)
	return m
}

// IsConstructor reports whether the method is an instance initializer.
func (m *MethodInfo) IsConstructor() bool { return m.name == ConstructorName }

// IsStaticInitializer reports whether the method is the class initializer.
func (m *MethodInfo) IsStaticInitializer() bool { return m.name == ClassInitializerName }

// IsBridge reports whether ACC_BRIDGE is set.
func (m *MethodInfo) IsBridge() bool { return m.accessFlags&AccBridge != 0 }

// Code returns the parsed Code attribute, or nil if the method has none.
func (m *MethodInfo) Code() (*CodeAttribute, error) {
	a := m.attrs.Get(AttrCode)
	if a == nil {
		return nil, nil
	}
	return ParseCode(a)
}

// SetCode replaces the method's Code attribute.
func (m *MethodInfo) SetCode(code *CodeAttribute) error {
	a, err := code.Attribute()
	if err != nil {
		return err
	}
	m.attrs.Set(a)
	return nil
}

// RemoveCode drops the Code attribute, as done for abstract and native methods.
func (m *MethodInfo) RemoveCode() {
	m.attrs.Remove(AttrCode)
}

// ExceptionTypes returns the classes named by the Exceptions attribute, in
// dotted notation.
func (m *MethodInfo) ExceptionTypes() ([]string, error) {
	a := m.attrs.Get(AttrExceptions)
	if a == nil {
		return nil, nil
	}
	return ParseClassList(a)
}

func (m *MethodInfo) String() string {
	return m.name + m.descriptor
}
