package classfile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/skdltmxn/classfile-go/internal/collections"
)

// memberTable indexes the fields and methods of one class file. It
// subscribes to every member it holds and re-keys on name changes.
type memberTable struct {
	cf *ClassFile

	fields       []*FieldInfo
	fieldsByName map[string]*FieldInfo

	methods       []*MethodInfo
	methodsByName map[string][]*MethodInfo
}

func newMemberTable(cf *ClassFile) *memberTable {
	return &memberTable{
		cf:            cf,
		fieldsByName:  make(map[string]*FieldInfo),
		methodsByName: make(map[string][]*MethodInfo),
	}
}

// MemberChanged implements Listener.
func (t *memberTable) MemberChanged(ev ChangeEvent) {
	if ev.Property != PropName {
		// The name key is unaffected; a method keeps its list position.
		return
	}
	oldName, newName := ev.Old.(string), ev.New.(string)
	switch m := ev.Source.(type) {
	case *FieldInfo:
		if t.fieldsByName[oldName] == m {
			t.reindexField(oldName)
		}
		if prev, ok := t.fieldsByName[newName]; ok && prev != m {
			// Both fields stay listed; the current holder keeps the name
			// until it is removed or renamed.
			duplicateMembers.WithLabelValues("field").Inc()
			t.cf.log.Warn("field renamed onto an existing field",
				zap.String("class", t.cf.Name()),
				zap.String("field", newName),
				zap.String("descriptor", m.descriptor),
				zap.String("existing", prev.descriptor))
			return
		}
		t.fieldsByName[newName] = m
	case *MethodInfo:
		t.rekeyMethod(m, oldName, newName)
	}
}

// reindexField points name at the first field still called name.
func (t *memberTable) reindexField(name string) {
	delete(t.fieldsByName, name)
	for _, f := range t.fields {
		if f.name == name {
			t.fieldsByName[name] = f
			return
		}
	}
}

func (t *memberTable) rekeyMethod(m *MethodInfo, oldName, newName string) {
	collections.RemoveFromListMap(t.methodsByName, oldName, m)

	// Entries filed under the wrong name by earlier unobserved renames move
	// to the list they belong to.
	for _, name := range []string{oldName, newName} {
		for _, other := range append([]*MethodInfo(nil), t.methodsByName[name]...) {
			if other.name != name {
				collections.RemoveFromListMap(t.methodsByName, name, other)
				collections.AddToListMap(t.methodsByName, other.name, other)
			}
		}
	}
	collections.AddToListMap(t.methodsByName, newName, m)
}

// addFieldUnchecked inserts f, replacing a field of the same name.
func (t *memberTable) addFieldUnchecked(f *FieldInfo) {
	if prev, ok := t.fieldsByName[f.name]; ok && prev != f {
		prev.Unsubscribe(t)
		t.fields, _ = collections.Remove(t.fields, prev)
		duplicateMembers.WithLabelValues("field").Inc()
		t.cf.log.Warn("duplicate field replaced",
			zap.String("class", t.cf.Name()),
			zap.String("field", f.name),
			zap.String("descriptor", f.descriptor))
	}
	t.fieldsByName[f.name] = f
	t.fields = append(t.fields, f)
	f.Subscribe(t)
}

func (t *memberTable) addField(f *FieldInfo) error {
	if f.cp != t.cf.cp {
		return fmt.Errorf("field %s: %w", f.name, ErrForeignPool)
	}
	if _, ok := t.fieldsByName[f.name]; ok {
		duplicateMembers.WithLabelValues("field").Inc()
		return &DuplicateMemberError{Kind: "field", Class: t.cf.Name(), Name: f.name, Descriptor: f.descriptor}
	}
	t.addFieldUnchecked(f)
	return nil
}

// addMethodUnchecked appends m without conflict checks.
func (t *memberTable) addMethodUnchecked(m *MethodInfo) {
	collections.AddToListMap(t.methodsByName, m.name, m)
	t.methods = append(t.methods, m)
	m.Subscribe(t)
}

// addMethod appends m. An existing method with the same name and descriptor
// is a conflict unless it is a bridge, in which case it is removed. Methods
// whose parameters match but whose return types differ do not conflict.
func (t *memberTable) addMethod(m *MethodInfo) ([]*MethodInfo, error) {
	if m.cp != t.cf.cp {
		return nil, fmt.Errorf("method %s%s: %w", m.name, m.descriptor, ErrForeignPool)
	}
	var bridges []*MethodInfo
	for _, existing := range t.methodsByName[m.name] {
		if existing == m {
			duplicateMembers.WithLabelValues("method").Inc()
			return nil, t.duplicateMethod(m)
		}
		if !EqParamTypes(existing.descriptor, m.descriptor) || existing.descriptor != m.descriptor {
			continue
		}
		if !existing.IsBridge() {
			duplicateMembers.WithLabelValues("method").Inc()
			return nil, t.duplicateMethod(m)
		}
		bridges = append(bridges, existing)
	}

	for _, b := range bridges {
		t.removeMethod(b)
		bridgeReplacements.Inc()
		t.cf.log.Debug("bridge method replaced",
			zap.String("class", t.cf.Name()),
			zap.String("method", b.name),
			zap.String("descriptor", b.descriptor))
	}
	t.addMethodUnchecked(m)
	return bridges, nil
}

func (t *memberTable) duplicateMethod(m *MethodInfo) error {
	return &DuplicateMemberError{Kind: "method", Class: t.cf.Name(), Name: m.name, Descriptor: m.descriptor}
}

// removeField drops f by identity, so a field that lost its name to an
// earlier field is still removable.
func (t *memberTable) removeField(f *FieldInfo) bool {
	var ok bool
	if t.fields, ok = collections.Remove(t.fields, f); !ok {
		return false
	}
	if t.fieldsByName[f.name] == f {
		t.reindexField(f.name)
	}
	f.Unsubscribe(t)
	f.fire(ChangeEvent{Source: f, Property: PropRemoved, Old: t.cf})
	return true
}

func (t *memberTable) removeMethod(m *MethodInfo) bool {
	if !collections.RemoveFromListMap(t.methodsByName, m.name, m) {
		return false
	}
	t.methods, _ = collections.Remove(t.methods, m)
	m.Unsubscribe(t)
	m.fire(ChangeEvent{Source: m, Property: PropRemoved, Old: t.cf})
	return true
}

// checkFieldNames fails if two fields share a name, which a class file
// cannot express.
func (t *memberTable) checkFieldNames() error {
	for _, f := range t.fields {
		if t.fieldsByName[f.name] != f {
			return &DuplicateMemberError{Kind: "field", Class: t.cf.Name(), Name: f.name, Descriptor: f.descriptor}
		}
	}
	return nil
}

func (t *memberTable) method(name string) *MethodInfo {
	if ms := t.methodsByName[name]; len(ms) > 0 {
		return ms[0]
	}
	return nil
}

func (t *memberTable) methodByDescriptor(name, desc string) *MethodInfo {
	for _, m := range t.methodsByName[name] {
		if m.descriptor == desc {
			return m
		}
	}
	return nil
}
