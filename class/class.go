// Package class provides a high-level view of a class file: fields, methods
// and constructors as wrapper objects whose indices follow renames made
// through any layer.
package class

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/skdltmxn/classfile-go/classfile"
	"github.com/skdltmxn/classfile-go/internal/bytecode"
	"github.com/skdltmxn/classfile-go/names"
)

var (
	// ErrForeignMember is returned when adding a member created for another
	// class.
	ErrForeignMember = errors.New("class: member declared by another class")

	// ErrWrongKind is returned when a method is added as a constructor or the
	// other way around.
	ErrWrongKind = errors.New("class: wrong member kind")
)

// Class wraps a class file together with its member cache.
// It is not safe for concurrent mutation.
type Class struct {
	cf  *classfile.ClassFile
	log *zap.Logger

	cache     *memberCache
	cacheOnce sync.Once
}

type options struct {
	log   *zap.Logger
	names *names.Cache
}

// Option configures a Class.
type Option func(*options)

// WithLogger sets the logger used by the class and, for Parse, by the
// class file.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithNameCache sets the name cache Parse hands to the class file.
func WithNameCache(c *names.Cache) Option {
	return func(o *options) { o.names = c }
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return o
}

// New wraps cf. The member cache is built on first use.
func New(cf *classfile.ClassFile, opts ...Option) *Class {
	o := buildOptions(opts)
	return &Class{cf: cf, log: o.log}
}

// Parse decodes a class file and wraps it.
func Parse(data []byte, opts ...Option) (*Class, error) {
	o := buildOptions(opts)
	cf, err := classfile.Parse(data, classfile.WithLogger(o.log), classfile.WithNameCache(o.names))
	if err != nil {
		return nil, err
	}
	return &Class{cf: cf, log: o.log}, nil
}

// ClassFile returns the wrapped class file. Renames and removals made on it
// are reflected in c. Members added to it after the first member lookup on
// c are not; add them through c instead.
func (c *Class) ClassFile() *classfile.ClassFile { return c.cf }

// Name returns the class name in dotted notation.
func (c *Class) Name() string { return c.cf.Name() }

// PackageName returns the package of the class, "" for the default package.
func (c *Class) PackageName() string { return names.PackageName(c.cf.Name()) }

// SetName renames the class and every reference to it.
func (c *Class) SetName(name string) error {
	c.members()
	return c.cf.SetName(name)
}

func (c *Class) Superclass() string        { return c.cf.Superclass() }
func (c *Class) SetSuperclass(name string) { c.cf.SetSuperclass(name) }
func (c *Class) Interfaces() []string      { return c.cf.Interfaces() }
func (c *Class) AddInterface(name string)  { c.cf.AddInterface(name) }
func (c *Class) Modifiers() uint16         { return c.cf.AccessFlags() }
func (c *Class) SetModifiers(flags uint16) { c.cf.SetAccessFlags(flags) }
func (c *Class) IsInterface() bool         { return c.cf.IsInterface() }

// subclassOf reports whether other is the direct superclass of c or c
// itself. Classes further up the hierarchy are not resolved.
func (c *Class) subclassOf(other *Class) bool {
	return c == other || c.Superclass() == other.Name()
}

func (c *Class) members() *memberCache {
	c.cacheOnce.Do(func() {
		c.cache = c.buildCache()
	})
	return c.cache
}

func (c *Class) buildCache() *memberCache {
	mc := newMemberCache()
	for _, mi := range c.cf.Methods() {
		switch b := wrap(c, mi).(type) {
		case *Constructor:
			mc.addConstructor(b)
		case *Method:
			mc.addMethod(b)
		}
	}
	for _, fi := range c.cf.Fields() {
		mc.addField(&Field{baseMember{c}, fi})
	}
	// A rename may have left two records with one name; index the one the
	// class file returns.
	for name := range mc.fields {
		mc.fields[name] = mc.fieldOf(c.cf.Field(name))
	}
	c.log.Debug("built member cache",
		zap.String("class", c.Name()),
		zap.Int("methods", len(mc.methodOrder)),
		zap.Int("constructors", len(mc.constructors)),
		zap.Int("fields", len(mc.fieldOrder)))
	return mc
}

// Methods returns the methods in the order they were added.
func (c *Class) Methods() []*Method {
	return append([]*Method(nil), c.members().methodOrder...)
}

// Method returns the method with the given name and descriptor, or nil.
func (c *Class) Method(name, desc string) *Method {
	return c.members().method(name, desc)
}

// MethodsNamed returns every method called name.
func (c *Class) MethodsNamed(name string) []*Method {
	var out []*Method
	for _, m := range c.members().methodOrder {
		if m.Name() == name {
			out = append(out, m)
		}
	}
	return out
}

// Constructors returns the instance initializers and the class initializer.
func (c *Class) Constructors() []*Constructor {
	return append([]*Constructor(nil), c.members().constructors...)
}

// DeclaredConstructors returns the instance initializers.
func (c *Class) DeclaredConstructors() []*Constructor {
	var out []*Constructor
	for _, ctor := range c.members().constructors {
		if ctor.IsConstructor() {
			out = append(out, ctor)
		}
	}
	return out
}

// PublicConstructors returns the instance initializers that are not
// private.
func (c *Class) PublicConstructors() []*Constructor {
	var out []*Constructor
	for _, ctor := range c.members().constructors {
		if ctor.IsConstructor() && ctor.Modifiers()&classfile.AccPrivate == 0 {
			out = append(out, ctor)
		}
	}
	return out
}

// Constructor returns the instance initializer with the given descriptor,
// or nil.
func (c *Class) Constructor(desc string) *Constructor {
	return c.members().constructor(desc)
}

// ClassInitializer returns the class initializer, or nil.
func (c *Class) ClassInitializer() *Constructor {
	return c.members().classInitializer()
}

// MakeClassInitializer returns the class initializer, adding an empty one
// if the class has none.
func (c *Class) MakeClassInitializer() (*Constructor, error) {
	if ci := c.ClassInitializer(); ci != nil {
		return ci, nil
	}
	cp := c.cf.ConstPool()
	ci := &Constructor{baseMember{c}, classfile.NewMethod(cp, classfile.ClassInitializerName, "()V")}
	ci.SetModifiers(classfile.AccStatic)
	if err := ci.info.SetCode(classfile.NewCode(cp, 0, 0, []byte{byte(bytecode.Return)})); err != nil {
		return nil, err
	}
	if err := c.AddConstructor(ci); err != nil {
		return nil, err
	}
	return ci, nil
}

// Fields returns the fields in the order they were added.
func (c *Class) Fields() []*Field {
	return append([]*Field(nil), c.members().fieldOrder...)
}

// Field returns the field called name, or nil.
func (c *Class) Field(name string) *Field {
	return c.members().fields[name]
}

// FieldWithDescriptor returns the field with the given name and
// descriptor, or nil. An empty desc matches any descriptor.
func (c *Class) FieldWithDescriptor(name, desc string) *Field {
	return c.members().fieldWithDescriptor(name, desc)
}

// AddMethod adds m to the class. A bridge method with the same name and
// descriptor is replaced; any other duplicate fails with an error matching
// classfile.ErrDuplicateMember.
func (c *Class) AddMethod(m *Method) error {
	if m.decl != c {
		return fmt.Errorf("%s: %w", m, ErrForeignMember)
	}
	if m.info.IsConstructor() || m.info.IsStaticInitializer() {
		return fmt.Errorf("%s: %w", m, ErrWrongKind)
	}
	mc := c.members()
	if err := c.addBehavior(m.info); err != nil {
		return err
	}
	mc.addMethod(m)
	return nil
}

// AddConstructor adds an instance or class initializer.
func (c *Class) AddConstructor(ctor *Constructor) error {
	if ctor.decl != c {
		return fmt.Errorf("%s: %w", ctor, ErrForeignMember)
	}
	if !ctor.IsConstructor() && !ctor.IsClassInitializer() {
		return fmt.Errorf("%s: %w", ctor, ErrWrongKind)
	}
	mc := c.members()
	if err := c.addBehavior(ctor.info); err != nil {
		return err
	}
	mc.addConstructor(ctor)
	return nil
}

func (c *Class) addBehavior(mi *classfile.MethodInfo) error {
	replaced, err := c.cf.AddMethod(mi)
	if err != nil {
		return err
	}
	// The cache already dropped their wrappers on the removal events.
	for _, r := range replaced {
		c.log.Debug("dropped replaced bridge method",
			zap.String("class", c.Name()),
			zap.String("method", r.Name()),
			zap.String("descriptor", r.Descriptor()))
	}
	return nil
}

// AddField adds f. A field of the same name fails with an error matching
// classfile.ErrDuplicateMember.
func (c *Class) AddField(f *Field) error {
	if f.decl != c {
		return fmt.Errorf("%s: %w", f, ErrForeignMember)
	}
	mc := c.members()
	if err := c.cf.AddField(f.info); err != nil {
		return err
	}
	mc.addField(f)
	return nil
}

// RemoveMethod removes m and reports whether it was present.
func (c *Class) RemoveMethod(m *Method) bool {
	mc := c.members()
	removed := c.cf.RemoveMethod(m.info)
	return mc.removeMethod(m) || removed
}

// RemoveConstructor removes ctor and reports whether it was present.
func (c *Class) RemoveConstructor(ctor *Constructor) bool {
	mc := c.members()
	removed := c.cf.RemoveMethod(ctor.info)
	return mc.removeConstructor(ctor) || removed
}

// RemoveField removes f and reports whether it was present.
func (c *Class) RemoveField(f *Field) bool {
	mc := c.members()
	removed := c.cf.RemoveField(f.info)
	return mc.removeField(f) || removed
}

// Where returns the wrapper of a method_info of this class, or nil.
func (c *Class) Where(mi *classfile.MethodInfo) Behavior {
	return c.members().where(mi)
}

// RenameClass replaces every reference to the class oldName with newName.
// Either notation is accepted.
func (c *Class) RenameClass(oldName, newName string) error {
	c.members()
	return c.cf.RenameClass(oldName, newName)
}

// RenameClasses applies several renames (slash notation) in one pass.
func (c *Class) RenameClasses(renames map[string]string) error {
	c.members()
	return c.cf.RenameClasses(renames)
}

// RefClasses returns the names of every class the class refers to.
func (c *Class) RefClasses() ([]string, error) { return c.cf.RefClasses() }

// Compact rebuilds the constant pool from the live entries.
func (c *Class) Compact() error { return c.cf.Compact() }

// Prune compacts the pool and drops attributes not needed to use the class.
func (c *Class) Prune() error { return c.cf.Prune() }

// Bytes encodes the class file.
func (c *Class) Bytes() ([]byte, error) { return c.cf.Bytes() }

// WriteTo encodes the class file to w.
func (c *Class) WriteTo(w io.Writer) (int64, error) { return c.cf.WriteTo(w) }
