package class

import (
	"strings"

	"github.com/skdltmxn/classfile-go/classfile"
	"github.com/skdltmxn/classfile-go/names"
)

// MemberKind identifies the kind of a member.
type MemberKind uint8

const (
	MemberKindUnknown MemberKind = iota
	MemberKindField
	MemberKindMethod
	MemberKindConstructor
)

func (k MemberKind) String() string {
	switch k {
	case MemberKindField:
		return "field"
	case MemberKindMethod:
		return "method"
	case MemberKindConstructor:
		return "constructor"
	default:
		return "unknown"
	}
}

// Member is the interface implemented by fields, methods and constructors.
type Member interface {
	// Name returns the member name. Constructors report the simple class
	// name, class initializers "<clinit>".
	Name() string

	// Descriptor returns the field or method descriptor (slash notation).
	Descriptor() string

	// Kind returns the member kind.
	Kind() MemberKind

	// Modifiers returns the access flags.
	Modifiers() uint16

	// DeclaringClass returns the class the member was created for.
	DeclaringClass() *Class

	// VisibleFrom reports whether the member is accessible from c.
	VisibleFrom(c *Class) bool
}

// Behavior is a method or a constructor.
type Behavior interface {
	Member

	// Info returns the underlying method_info.
	Info() *classfile.MethodInfo
}

type baseMember struct {
	decl *Class
}

func (m *baseMember) DeclaringClass() *Class { return m.decl }

func (m *baseMember) visibleFrom(mod uint16, c *Class) bool {
	switch {
	case mod&classfile.AccPublic != 0:
		return true
	case mod&classfile.AccPrivate != 0:
		return c == m.decl
	}
	visible := names.PackageName(m.decl.Name()) == names.PackageName(c.Name())
	if !visible && mod&classfile.AccProtected != 0 {
		return c.subclassOf(m.decl)
	}
	return visible
}

// Field wraps a field_info.
type Field struct {
	baseMember
	info *classfile.FieldInfo
}

// NewField creates a field of c. It is not part of c until AddField.
func NewField(c *Class, name, desc string) *Field {
	return &Field{baseMember{c}, classfile.NewField(c.cf.ConstPool(), name, desc)}
}

func (f *Field) Name() string               { return f.info.Name() }
func (f *Field) Descriptor() string         { return f.info.Descriptor() }
func (f *Field) Kind() MemberKind           { return MemberKindField }
func (f *Field) Modifiers() uint16          { return f.info.AccessFlags() }
func (f *Field) Info() *classfile.FieldInfo { return f.info }
func (f *Field) SetName(name string)        { f.info.SetName(name) }
func (f *Field) SetDescriptor(desc string)  { f.info.SetDescriptor(desc) }
func (f *Field) SetModifiers(mod uint16)    { f.info.SetAccessFlags(mod) }
func (f *Field) VisibleFrom(c *Class) bool  { return f.visibleFrom(f.Modifiers(), c) }
func (f *Field) String() string             { return f.decl.Name() + "." + f.info.String() }

// Method wraps a method_info that is neither a constructor nor a class
// initializer. Renaming a Method to <init> or <clinit> moves its record to
// the class's constructors under a new *Constructor wrapper.
type Method struct {
	baseMember
	info *classfile.MethodInfo
}

// NewMethod creates a method of c. It is not part of c until AddMethod.
func NewMethod(c *Class, name, desc string) *Method {
	return &Method{baseMember{c}, classfile.NewMethod(c.cf.ConstPool(), name, desc)}
}

func (m *Method) Name() string                { return m.info.Name() }
func (m *Method) Descriptor() string          { return m.info.Descriptor() }
func (m *Method) Kind() MemberKind            { return MemberKindMethod }
func (m *Method) Modifiers() uint16           { return m.info.AccessFlags() }
func (m *Method) Info() *classfile.MethodInfo { return m.info }
func (m *Method) SetName(name string)         { m.info.SetName(name) }
func (m *Method) SetDescriptor(desc string)   { m.info.SetDescriptor(desc) }
func (m *Method) SetModifiers(mod uint16)     { m.info.SetAccessFlags(mod) }
func (m *Method) VisibleFrom(c *Class) bool   { return m.visibleFrom(m.Modifiers(), c) }
func (m *Method) String() string              { return m.decl.Name() + "." + m.info.String() }

// Constructor wraps an instance initializer or the class initializer.
type Constructor struct {
	baseMember
	info *classfile.MethodInfo
}

// NewConstructor creates a constructor of c with the given descriptor. It is
// not part of c until AddConstructor.
func NewConstructor(c *Class, desc string) *Constructor {
	return &Constructor{baseMember{c}, classfile.NewMethod(c.cf.ConstPool(), classfile.ConstructorName, desc)}
}

// Name returns the simple class name, or "<clinit>" for the class
// initializer.
func (c *Constructor) Name() string {
	if c.IsClassInitializer() {
		return classfile.ClassInitializerName
	}
	name := c.decl.Name()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func (c *Constructor) Descriptor() string          { return c.info.Descriptor() }
func (c *Constructor) Kind() MemberKind            { return MemberKindConstructor }
func (c *Constructor) Modifiers() uint16           { return c.info.AccessFlags() }
func (c *Constructor) Info() *classfile.MethodInfo { return c.info }
func (c *Constructor) SetDescriptor(desc string)   { c.info.SetDescriptor(desc) }
func (c *Constructor) SetModifiers(mod uint16)     { c.info.SetAccessFlags(mod) }
func (c *Constructor) VisibleFrom(o *Class) bool   { return c.visibleFrom(c.Modifiers(), o) }
func (c *Constructor) String() string              { return c.decl.Name() + "." + c.info.String() }

// IsConstructor reports whether c is an instance initializer.
func (c *Constructor) IsConstructor() bool { return c.info.IsConstructor() }

// IsClassInitializer reports whether c is the class initializer.
func (c *Constructor) IsClassInitializer() bool { return c.info.IsStaticInitializer() }

// wrap returns the wrapper for a method_info read from c's class file.
func wrap(c *Class, mi *classfile.MethodInfo) Behavior {
	if mi.IsConstructor() || mi.IsStaticInitializer() {
		return &Constructor{baseMember{c}, mi}
	}
	return &Method{baseMember{c}, mi}
}
