package classfile

import (
	"slices"

	"go.uber.org/zap"

	"github.com/skdltmxn/classfile-go/names"
)

// Magic is the first word of every class file.
const Magic = 0xCAFEBABE

// Major versions of the class file format.
const (
	Java1 = 45 + iota
	Java2
	Java3
	Java4
	Java5
	Java6
	Java7
	Java8
	Java9
)

// DefaultMajorVersion is the major version given to classes created with New.
const DefaultMajorVersion = Java8

// ClassFile is a mutable class file. Class names passed to and returned by
// its methods use dotted notation unless stated otherwise.
//
// A ClassFile is not safe for concurrent use.
type ClassFile struct {
	log   *zap.Logger
	names *names.Cache

	major, minor uint16
	cp           *ConstPool
	accessFlags  uint16
	thisClass    uint16
	superClass   uint16
	interfaces   []uint16
	thisName     string

	members *memberTable
	attrs   Attributes
}

// Option configures a ClassFile.
type Option func(*ClassFile)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(cf *ClassFile) {
		if log != nil {
			cf.log = log
		}
	}
}

// WithNameCache shares a name-translation cache. Without one, conversions
// between notations are computed on every call.
func WithNameCache(c *names.Cache) Option {
	return func(cf *ClassFile) {
		cf.names = c
	}
}

func newClassFile(opts []Option) *ClassFile {
	cf := &ClassFile{log: zap.NewNop()}
	for _, opt := range opts {
		opt(cf)
	}
	cf.members = newMemberTable(cf)
	return cf
}

// New creates a class named name (either notation) extending super. An
// empty super means java.lang.Object. The class gets a SourceFile attribute
// derived from its simple name.
func New(name, super string, isInterface bool, opts ...Option) *ClassFile {
	cf := newClassFile(opts)
	cf.major = DefaultMajorVersion
	cf.cp = NewConstPool()
	cf.cp.names = cf.names
	cf.thisName = cf.names.ToExternal(name)
	cf.thisClass = cf.cp.AddClass(name)
	if isInterface {
		cf.accessFlags = AccInterface | AccAbstract
	} else {
		cf.accessFlags = AccSuper
	}
	if super == "" {
		super = ObjectClass
	}
	cf.superClass = cf.cp.AddClass(super)
	cf.attrs.Set(NewSourceFileAttribute(cf.cp, names.SourceFileName(cf.thisName)))
	return cf
}

// ConstPool returns the constant pool. The pointer stays valid across
// rename and compaction.
func (cf *ClassFile) ConstPool() *ConstPool { return cf.cp }

// Name returns the class name.
func (cf *ClassFile) Name() string { return cf.thisName }

// ThisClassIndex returns the pool index of the this_class entry.
func (cf *ClassFile) ThisClassIndex() uint16 { return cf.thisClass }

// MajorVersion returns the major version.
func (cf *ClassFile) MajorVersion() uint16 { return cf.major }

// SetMajorVersion sets the major version.
func (cf *ClassFile) SetMajorVersion(v uint16) { cf.major = v }

// MinorVersion returns the minor version.
func (cf *ClassFile) MinorVersion() uint16 { return cf.minor }

// SetMinorVersion sets the minor version.
func (cf *ClassFile) SetMinorVersion(v uint16) { cf.minor = v }

// SetVersionToJava5 sets the version to 49.0.
func (cf *ClassFile) SetVersionToJava5() {
	cf.major = Java5
	cf.minor = 0
}

// AccessFlags returns the class access flags.
func (cf *ClassFile) AccessFlags() uint16 { return cf.accessFlags }

// SetAccessFlags sets the class access flags. ACC_SUPER is added for
// anything that is not an interface.
func (cf *ClassFile) SetAccessFlags(flags uint16) {
	if flags&AccInterface == 0 {
		flags |= AccSuper
	}
	cf.accessFlags = flags
}

// IsInterface reports whether ACC_INTERFACE is set.
func (cf *ClassFile) IsInterface() bool { return cf.accessFlags&AccInterface != 0 }

// IsFinal reports whether ACC_FINAL is set.
func (cf *ClassFile) IsFinal() bool { return cf.accessFlags&AccFinal != 0 }

// IsAbstract reports whether ACC_ABSTRACT is set.
func (cf *ClassFile) IsAbstract() bool { return cf.accessFlags&AccAbstract != 0 }

// Superclass returns the super class name. A class file without one
// reports java.lang.Object, except java.lang.Object itself, which reports "".
func (cf *ClassFile) Superclass() string {
	if cf.superClass == 0 {
		if cf.thisName == ObjectClass {
			return ""
		}
		return ObjectClass
	}
	name, err := cf.cp.ClassName(int(cf.superClass))
	if err != nil {
		return ""
	}
	return name
}

// SuperclassIndex returns the pool index of super_class, 0 if absent.
func (cf *ClassFile) SuperclassIndex() uint16 { return cf.superClass }

// SetSuperclass replaces the super class. An empty name means java.lang.Object.
func (cf *ClassFile) SetSuperclass(name string) {
	if name == "" {
		name = ObjectClass
	}
	cf.superClass = cf.cp.AddClass(name)
}

// Interfaces returns the names of the implemented interfaces.
func (cf *ClassFile) Interfaces() []string {
	out := make([]string, 0, len(cf.interfaces))
	for _, i := range cf.interfaces {
		if name, err := cf.cp.ClassName(int(i)); err == nil {
			out = append(out, name)
		}
	}
	return out
}

// ContainsInterface reports whether the class directly implements name.
func (cf *ClassFile) ContainsInterface(name string) bool {
	return slices.Contains(cf.Interfaces(), cf.names.ToExternal(name))
}

// SetInterfaces replaces the interface list.
func (cf *ClassFile) SetInterfaces(list []string) {
	cf.interfaces = cf.interfaces[:0]
	for _, name := range list {
		cf.interfaces = append(cf.interfaces, cf.cp.AddClass(name))
	}
}

// AddInterface appends an interface.
func (cf *ClassFile) AddInterface(name string) {
	cf.interfaces = append(cf.interfaces, cf.cp.AddClass(name))
}

// Fields returns the fields in declaration order.
func (cf *ClassFile) Fields() []*FieldInfo {
	return slices.Clone(cf.members.fields)
}

// Field returns the field called name, or nil. When a rename has left two
// fields with the same name, the one that held it first is returned.
func (cf *ClassFile) Field(name string) *FieldInfo {
	return cf.members.fieldsByName[name]
}

// AddField adds f. It fails with a *DuplicateMemberError if a field of the
// same name exists, leaving the class unchanged.
func (cf *ClassFile) AddField(f *FieldInfo) error {
	return cf.members.addField(f)
}

// RemoveField removes f and reports whether it was present.
func (cf *ClassFile) RemoveField(f *FieldInfo) bool {
	return cf.members.removeField(f)
}

// Methods returns the methods in declaration order.
func (cf *ClassFile) Methods() []*MethodInfo {
	return slices.Clone(cf.members.methods)
}

// MethodsNamed returns the methods called name.
func (cf *ClassFile) MethodsNamed(name string) []*MethodInfo {
	return slices.Clone(cf.members.methodsByName[name])
}

// Method returns a method called name, or nil. With overloads, the first
// one added wins.
func (cf *ClassFile) Method(name string) *MethodInfo {
	return cf.members.method(name)
}

// MethodByDescriptor returns the method with the given name and descriptor,
// or nil.
func (cf *ClassFile) MethodByDescriptor(name, desc string) *MethodInfo {
	return cf.members.methodByDescriptor(name, desc)
}

// StaticInitializer returns the class initializer, or nil.
func (cf *ClassFile) StaticInitializer() *MethodInfo {
	return cf.members.method(ClassInitializerName)
}

// AddMethod adds m. A bridge method with the same name and descriptor is
// removed and returned in replaced; any other method with the same name and
// descriptor is a *DuplicateMemberError and leaves the class unchanged.
func (cf *ClassFile) AddMethod(m *MethodInfo) (replaced []*MethodInfo, err error) {
	return cf.members.addMethod(m)
}

// RemoveMethod removes m and reports whether it was present.
func (cf *ClassFile) RemoveMethod(m *MethodInfo) bool {
	return cf.members.removeMethod(m)
}

// Attributes returns the class attribute table.
func (cf *ClassFile) Attributes() *Attributes { return &cf.attrs }

// Attribute returns the class attribute called name, or nil.
func (cf *ClassFile) Attribute(name string) *Attribute { return cf.attrs.Get(name) }

// AddAttribute adds a, replacing an attribute of the same name.
func (cf *ClassFile) AddAttribute(a *Attribute) { cf.attrs.Set(a) }

// RemoveAttribute removes the attribute called name and returns it, or nil.
func (cf *ClassFile) RemoveAttribute(name string) *Attribute { return cf.attrs.Remove(name) }

// SourceFile returns the SourceFile attribute value, or "" if absent.
func (cf *ClassFile) SourceFile() string {
	a := cf.attrs.Get(AttrSourceFile)
	if a == nil {
		return ""
	}
	s, err := ParseSourceFile(a)
	if err != nil {
		return ""
	}
	return s
}

// InnerAccessFlags returns the inner_class_access_flags recorded for this
// class in its InnerClasses attribute, or -1 if it is not a nested class.
func (cf *ClassFile) InnerAccessFlags() int {
	a := cf.attrs.Get(AttrInnerClasses)
	if a == nil {
		return -1
	}
	entries, err := ParseInnerClasses(a)
	if err != nil {
		return -1
	}
	for _, e := range entries {
		if e.Inner == cf.thisName {
			return int(e.AccessFlags)
		}
	}
	return -1
}
