package class

import (
	"slices"

	"github.com/skdltmxn/classfile-go/classfile"
	"github.com/skdltmxn/classfile-go/internal/collections"
)

// memberCache indexes the wrappers of one class. It subscribes to the
// member records on its own and keeps its indices consistent from the
// change events alone, whatever the low-level table did first. Removals
// made directly on the class file reach it as PropRemoved events.
type memberCache struct {
	// methods is keyed by "name descriptor".
	methods     map[string][]*Method
	methodOrder []*Method

	constructors []*Constructor
	staticInits  []*Constructor

	fields     map[string]*Field
	fieldOrder []*Field

	behaviors map[*classfile.MethodInfo]Behavior
}

func newMemberCache() *memberCache {
	return &memberCache{
		methods:   make(map[string][]*Method),
		fields:    make(map[string]*Field),
		behaviors: make(map[*classfile.MethodInfo]Behavior),
	}
}

func methodKey(name, desc string) string { return name + " " + desc }

// MemberChanged implements classfile.Listener.
func (c *memberCache) MemberChanged(ev classfile.ChangeEvent) {
	switch src := ev.Source.(type) {
	case *classfile.FieldInfo:
		switch ev.Property {
		case classfile.PropName:
			c.fieldRenamed(src, ev.Old.(string), ev.New.(string))
		case classfile.PropRemoved:
			if f := c.fieldOf(src); f != nil {
				c.removeField(f)
			}
		}

	case *classfile.MethodInfo:
		switch ev.Property {
		case classfile.PropName:
			oldName, newName := ev.Old.(string), ev.New.(string)
			if c.reclassify(src) {
				return
			}
			c.rekey(src, methodKey(oldName, src.Descriptor()), methodKey(newName, src.Descriptor()))
			c.initializerRenamed(src, oldName, newName)
		case classfile.PropDescriptor:
			c.rekey(src, methodKey(src.Name(), ev.Old.(string)), methodKey(src.Name(), ev.New.(string)))
		case classfile.PropRemoved:
			c.remove(src)
		}
	}
}

// fieldRenamed moves f to its new name unless another field holds it.
func (c *memberCache) fieldRenamed(fi *classfile.FieldInfo, oldName, newName string) {
	f := c.fieldOf(fi)
	if f == nil {
		return
	}
	if c.fields[oldName] == f {
		c.reindexField(oldName)
	}
	if _, ok := c.fields[newName]; !ok {
		c.fields[newName] = f
	}
}

// reindexField points name at the first field still called name.
func (c *memberCache) reindexField(name string) {
	delete(c.fields, name)
	for _, f := range c.fieldOrder {
		if f.Name() == name {
			c.fields[name] = f
			return
		}
	}
}

func (c *memberCache) fieldOf(fi *classfile.FieldInfo) *Field {
	for _, f := range c.fieldOrder {
		if f.info == fi {
			return f
		}
	}
	return nil
}

func (c *memberCache) rekey(mi *classfile.MethodInfo, oldKey, newKey string) {
	for _, m := range c.methods[oldKey] {
		if m.info == mi {
			collections.RemoveFromListMap(c.methods, oldKey, m)
			collections.AddToListMap(c.methods, newKey, m)
			return
		}
	}
}

// reclassify replaces the wrapper of mi when a rename moved it between
// methods and initializers, and reports whether it did.
func (c *memberCache) reclassify(mi *classfile.MethodInfo) bool {
	initializer := mi.IsConstructor() || mi.IsStaticInitializer()
	switch b := c.behaviors[mi].(type) {
	case *Method:
		if !initializer {
			return false
		}
		c.removeMethod(b)
		c.addConstructor(&Constructor{b.baseMember, mi})
	case *Constructor:
		if initializer {
			return false
		}
		c.removeConstructor(b)
		c.addMethod(&Method{b.baseMember, mi})
	default:
		return false
	}
	return true
}

// initializerRenamed tracks constructors renamed to or from <clinit>.
func (c *memberCache) initializerRenamed(mi *classfile.MethodInfo, oldName, newName string) {
	ctor, ok := c.behaviors[mi].(*Constructor)
	if !ok {
		return
	}
	if oldName == classfile.ClassInitializerName {
		c.staticInits, _ = collections.Remove(c.staticInits, ctor)
	} else if newName == classfile.ClassInitializerName {
		c.staticInits = append(c.staticInits, ctor)
	}
}

func (c *memberCache) addMethod(m *Method) {
	m.info.Subscribe(c)
	collections.AddToListMap(c.methods, methodKey(m.Name(), m.Descriptor()), m)
	c.behaviors[m.info] = m
	c.methodOrder = append(c.methodOrder, m)
}

func (c *memberCache) method(name, desc string) *Method {
	if ms := c.methods[methodKey(name, desc)]; len(ms) > 0 {
		return ms[0]
	}
	return nil
}

// addConstructor records an instance or class initializer.
func (c *memberCache) addConstructor(ctor *Constructor) {
	ctor.info.Subscribe(c)
	c.constructors = append(c.constructors, ctor)
	c.behaviors[ctor.info] = ctor
	if ctor.IsClassInitializer() {
		c.staticInits = append(c.staticInits, ctor)
	}
}

func (c *memberCache) constructor(desc string) *Constructor {
	for _, ctor := range c.constructors {
		if ctor.Descriptor() == desc && ctor.IsConstructor() {
			return ctor
		}
	}
	return nil
}

func (c *memberCache) classInitializer() *Constructor {
	if len(c.staticInits) == 0 {
		return nil
	}
	return c.staticInits[0]
}

func (c *memberCache) addField(f *Field) {
	if _, ok := c.fields[f.Name()]; !ok {
		c.fields[f.Name()] = f
	}
	c.fieldOrder = append(c.fieldOrder, f)
	f.info.Subscribe(c)
}

func (c *memberCache) fieldWithDescriptor(name, desc string) *Field {
	if f := c.fields[name]; f != nil && f.Descriptor() == desc {
		return f
	}
	for _, f := range c.fieldOrder {
		if f.Name() == name && (desc == "" || f.Descriptor() == desc) {
			return f
		}
	}
	return nil
}

func (c *memberCache) removeMethod(m *Method) bool {
	for key, list := range c.methods {
		if !slices.Contains(list, m) {
			continue
		}
		collections.RemoveFromListMap(c.methods, key, m)
		m.info.Unsubscribe(c)
		delete(c.behaviors, m.info)
		c.methodOrder, _ = collections.Remove(c.methodOrder, m)
		return true
	}
	return false
}

// removeField drops f by identity, so a field that lost its name to an
// earlier field is still removable.
func (c *memberCache) removeField(f *Field) bool {
	var ok bool
	if c.fieldOrder, ok = collections.Remove(c.fieldOrder, f); !ok {
		return false
	}
	if c.fields[f.Name()] == f {
		c.reindexField(f.Name())
	}
	f.info.Unsubscribe(c)
	return true
}

func (c *memberCache) removeConstructor(ctor *Constructor) bool {
	var ok bool
	if c.constructors, ok = collections.Remove(c.constructors, ctor); !ok {
		return false
	}
	c.staticInits, _ = collections.Remove(c.staticInits, ctor)
	delete(c.behaviors, ctor.info)
	ctor.info.Unsubscribe(c)
	return true
}

// remove drops the wrapper of mi, if any.
func (c *memberCache) remove(mi *classfile.MethodInfo) Behavior {
	switch b := c.behaviors[mi].(type) {
	case *Method:
		c.removeMethod(b)
		return b
	case *Constructor:
		c.removeConstructor(b)
		return b
	}
	return nil
}

// where maps a method_info to its wrapper. A record that is not tracked by
// identity is matched by name and descriptor, since a class file may hand
// out an equal record that was rebuilt.
func (c *memberCache) where(mi *classfile.MethodInfo) Behavior {
	if b, ok := c.behaviors[mi]; ok {
		return b
	}
	for _, m := range c.methodOrder {
		if m.Name() == mi.Name() && m.Descriptor() == mi.Descriptor() {
			return m
		}
	}
	for _, ctor := range c.constructors {
		if ctor.info.Name() == mi.Name() && ctor.Descriptor() == mi.Descriptor() {
			return ctor
		}
	}
	return nil
}
