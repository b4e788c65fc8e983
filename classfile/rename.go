package classfile

import (
	"fmt"

	"go.uber.org/zap"
)

// SetName renames the class and every reference to it.
func (cf *ClassFile) SetName(name string) error {
	return cf.RenameClass(cf.thisName, name)
}

// RenameClass replaces every occurrence of the class oldName with newName:
// in the constant pool, in every attribute, and in member descriptors. Names
// may use either notation. On error the class file is unchanged.
func (cf *ClassFile) RenameClass(oldName, newName string) error {
	oldName, newName = cf.names.ToInternal(oldName), cf.names.ToInternal(newName)
	if oldName == newName {
		return nil
	}
	return cf.renameClasses(map[string]string{oldName: newName})
}

// RenameClasses applies several renames at once. Keys and values use slash
// notation. Renames do not chain: with {a: b, b: c}, a becomes b.
func (cf *ClassFile) RenameClasses(renames map[string]string) error {
	return cf.renameClasses(renames)
}

func (cf *ClassFile) renameClasses(renames map[string]string) error {
	rn := mapRenamer(renames)
	if rn == nil {
		return nil
	}

	// Everything is rebuilt against a clone of the pool and committed only
	// when nothing failed.
	pool := cf.cp.Clone()
	if err := pool.renameClasses(rn); err != nil {
		return fmt.Errorf("classfile: rename: %w", err)
	}

	classAttrs, err := cf.attrs.copyAll(pool, rn, nil)
	if err != nil {
		return fmt.Errorf("classfile: rename: class %w", err)
	}

	type staged struct {
		m     *memberInfo
		desc  string
		attrs []*Attribute
	}
	var members []staged
	stage := func(m *memberInfo) error {
		attrs, err := m.attrs.copyAll(pool, rn, nil)
		if err != nil {
			return fmt.Errorf("classfile: rename: %s %s: %w", m.name, m.descriptor, err)
		}
		members = append(members, staged{m: m, desc: renameDescriptor(m.descriptor, rn), attrs: attrs})
		return nil
	}
	for _, m := range cf.members.methods {
		if err := stage(&m.memberInfo); err != nil {
			return err
		}
	}
	for _, f := range cf.members.fields {
		if err := stage(&f.memberInfo); err != nil {
			return err
		}
	}

	thisName, err := pool.ClassName(int(cf.thisClass))
	if err != nil {
		return fmt.Errorf("classfile: rename: %w", err)
	}

	oldName := cf.thisName
	cf.cp.replaceWith(pool)
	cf.attrs.replace(classAttrs, cf.cp)
	cf.thisName = thisName
	for _, s := range members {
		s.m.attrs.replace(s.attrs, cf.cp)
		s.m.SetDescriptor(s.desc)
	}
	cf.log.Debug("renamed classes",
		zap.String("class", oldName),
		zap.String("name", thisName),
		zap.Int("renames", len(renames)))
	return nil
}

// RefClasses returns every class the class file refers to, in dotted
// notation and without duplicates: Class entries first, followed by classes
// that occur only in descriptors and signatures.
func (cf *ClassFile) RefClasses() ([]string, error) {
	out := cf.cp.RefClasses()
	seen := make(map[string]bool, len(out))
	for _, c := range out {
		seen[c] = true
	}
	record := func(name string) (string, bool) {
		ext := cf.names.ToExternal(name)
		if !seen[ext] {
			seen[ext] = true
			out = append(out, ext)
		}
		return "", false
	}

	visit := func(attrs *Attributes, desc string) error {
		if desc != "" {
			renameDescriptor(desc, record)
		}
		return attrs.scan(record)
	}
	for _, m := range cf.members.methods {
		if err := visit(&m.attrs, m.descriptor); err != nil {
			return nil, fmt.Errorf("classfile: method %s: %w", m.name, err)
		}
	}
	for _, f := range cf.members.fields {
		if err := visit(&f.attrs, f.descriptor); err != nil {
			return nil, fmt.Errorf("classfile: field %s: %w", f.name, err)
		}
	}
	if err := visit(&cf.attrs, ""); err != nil {
		return nil, fmt.Errorf("classfile: %w", err)
	}
	return out, nil
}

// Compact rebuilds the constant pool so that it holds only entries reached
// from the class header, the members and the attributes. On error the class
// file is unchanged.
func (cf *ClassFile) Compact() error {
	return cf.rebuild(false)
}

// Prune compacts the pool and discards every attribute not needed to use
// the class: code, debugging information and anything unknown. Classes keep
// annotations and their signature; methods additionally keep parameter
// annotations, annotation defaults and declared exceptions; fields keep
// their constant value.
func (cf *ClassFile) Prune() error {
	return cf.rebuild(true)
}

var (
	pruneClassAttrs = map[string]bool{
		AttrRuntimeInvisibleAnnotations: true,
		AttrRuntimeVisibleAnnotations:   true,
		AttrSignature:                   true,
	}
	pruneMethodAttrs = map[string]bool{
		AttrRuntimeInvisibleAnnotations:          true,
		AttrRuntimeVisibleAnnotations:            true,
		AttrRuntimeInvisibleParameterAnnotations: true,
		AttrRuntimeVisibleParameterAnnotations:   true,
		AttrAnnotationDefault:                    true,
		AttrExceptions:                           true,
		AttrSignature:                            true,
	}
	pruneFieldAttrs = map[string]bool{
		AttrRuntimeInvisibleAnnotations: true,
		AttrRuntimeVisibleAnnotations:   true,
		AttrSignature:                   true,
		AttrConstantValue:               true,
	}
)

func allowList(prune bool, set map[string]bool) func(string) bool {
	if !prune {
		return nil
	}
	return func(name string) bool { return set[name] }
}

func (cf *ClassFile) rebuild(prune bool) error {
	op := "compact"
	if prune {
		op = "prune"
	}
	before := cf.cp.Len()

	pool := NewConstPool()
	pool.names = cf.names
	thisClass, err := cf.cp.copyEntry(int(cf.thisClass), pool, nil)
	if err != nil {
		return fmt.Errorf("classfile: %s: this_class: %w", op, err)
	}
	superClass, err := cf.cp.copyEntry(int(cf.superClass), pool, nil)
	if err != nil {
		return fmt.Errorf("classfile: %s: super_class: %w", op, err)
	}
	interfaces := make([]uint16, len(cf.interfaces))
	for i, idx := range cf.interfaces {
		if interfaces[i], err = cf.cp.copyEntry(int(idx), pool, nil); err != nil {
			return fmt.Errorf("classfile: %s: interface %d: %w", op, i, err)
		}
	}

	if !prune {
		if err := cf.placeLdcTargets(pool); err != nil {
			return fmt.Errorf("classfile: %s: %w", op, err)
		}
	}

	var stages []memberStage
	keepMethod := allowList(prune, pruneMethodAttrs)
	for _, m := range cf.members.methods {
		s, err := m.stage(pool, keepMethod)
		if err != nil {
			return fmt.Errorf("classfile: %s: method %w", op, err)
		}
		stages = append(stages, s)
	}
	keepField := allowList(prune, pruneFieldAttrs)
	for _, f := range cf.members.fields {
		s, err := f.stage(pool, keepField)
		if err != nil {
			return fmt.Errorf("classfile: %s: field %w", op, err)
		}
		stages = append(stages, s)
	}
	classAttrs, err := cf.attrs.copyAll(pool, nil, allowList(prune, pruneClassAttrs))
	if err != nil {
		return fmt.Errorf("classfile: %s: class %w", op, err)
	}

	cf.cp.replaceWith(pool)
	cf.thisClass = thisClass
	cf.superClass = superClass
	cf.interfaces = interfaces
	for _, s := range stages {
		s.commit(cf.cp)
	}
	cf.attrs.replace(classAttrs, cf.cp)

	cf.log.Debug("rebuilt constant pool",
		zap.String("class", cf.thisName),
		zap.String("op", op),
		zap.Int("before", before),
		zap.Int("after", cf.cp.Len()))
	return nil
}

// placeLdcTargets copies the constants loaded by one-byte ldc operands
// before anything else, so their new indices stay below 256.
func (cf *ClassFile) placeLdcTargets(pool *ConstPool) error {
	for _, m := range cf.members.methods {
		a := m.attrs.Get(AttrCode)
		if a == nil {
			continue
		}
		targets, err := ldcTargets(a.info)
		if err != nil {
			return &AttributeError{Name: AttrCode, Err: fmt.Errorf("%s%s: %w", m.name, m.descriptor, err)}
		}
		for _, idx := range targets {
			if _, err := cf.cp.copyEntry(int(idx), pool, nil); err != nil {
				return fmt.Errorf("%s%s: ldc: %w", m.name, m.descriptor, err)
			}
		}
	}
	return nil
}
