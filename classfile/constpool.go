package classfile

import (
	"fmt"
	"maps"
	"math"

	"github.com/skdltmxn/classfile-go/names"
)

// Tag identifies the kind of a constant-pool entry.
type Tag uint8

// Constant-pool tags.
const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

var tagNames = map[Tag]string{
	TagUtf8:               "Utf8",
	TagInteger:            "Integer",
	TagFloat:              "Float",
	TagLong:               "Long",
	TagDouble:             "Double",
	TagClass:              "Class",
	TagString:             "String",
	TagFieldref:           "Fieldref",
	TagMethodref:          "Methodref",
	TagInterfaceMethodref: "InterfaceMethodref",
	TagNameAndType:        "NameAndType",
	TagMethodHandle:       "MethodHandle",
	TagMethodType:         "MethodType",
	TagDynamic:            "Dynamic",
	TagInvokeDynamic:      "InvokeDynamic",
	TagModule:             "Module",
	TagPackage:            "Package",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	if t == 0 {
		return "none"
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// wide reports whether an entry of this tag occupies two pool slots.
func (t Tag) wide() bool {
	return t == TagLong || t == TagDouble
}

// Entry is one constant-pool entry. Entries are comparable so that equal
// entries intern to the same index.
//
// Field use by tag:
//   - Utf8: Str
//   - Integer, Float, Long, Double: Bits (raw IEEE / two's complement bits)
//   - Class, String, MethodType, Module, Package: A is a Utf8 index
//   - NameAndType: A name, B descriptor (Utf8 indices)
//   - Fieldref, Methodref, InterfaceMethodref: A class, B NameAndType
//   - MethodHandle: A reference kind, B referenced member
//   - Dynamic, InvokeDynamic: A bootstrap method index, B NameAndType
type Entry struct {
	Tag  Tag
	Str  string
	A, B uint16
	Bits uint64
}

// ConstPool is an interning constant-pool table. Index 0 is reserved and
// never holds an entry. The second slot of a Long or Double is a hole.
type ConstPool struct {
	entries []Entry
	lookup  map[Entry]uint16
	names   *names.Cache
}

// NewConstPool creates an empty constant pool.
func NewConstPool() *ConstPool {
	return &ConstPool{
		entries: make([]Entry, 1, 64),
		lookup:  make(map[Entry]uint16),
	}
}

// Len returns the constant_pool_count value: one more than the highest index.
func (p *ConstPool) Len() int {
	return len(p.entries)
}

// Clone returns an independent copy of the pool.
func (p *ConstPool) Clone() *ConstPool {
	entries := make([]Entry, len(p.entries), cap(p.entries))
	copy(entries, p.entries)
	return &ConstPool{entries: entries, lookup: maps.Clone(p.lookup), names: p.names}
}

// replaceWith makes p hold the contents of src. Holders of p keep their
// pointer and observe the new contents.
func (p *ConstPool) replaceWith(src *ConstPool) {
	p.entries = src.entries
	p.lookup = src.lookup
}

// add interns e and returns its index.
func (p *ConstPool) add(e Entry) uint16 {
	if idx, ok := p.lookup[e]; ok {
		return idx
	}
	return p.append(e)
}

// append stores e at the end without interning lookups; the entry becomes
// the canonical index of its value only if none existed.
func (p *ConstPool) append(e Entry) uint16 {
	idx := uint16(len(p.entries))
	p.entries = append(p.entries, e)
	if e.Tag.wide() {
		p.entries = append(p.entries, Entry{})
	}
	if _, ok := p.lookup[e]; !ok {
		p.lookup[e] = idx
	}
	return idx
}

func (p *ConstPool) rebuildLookup() {
	p.lookup = make(map[Entry]uint16, len(p.entries))
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e.Tag == 0 {
			continue
		}
		if _, ok := p.lookup[e]; !ok {
			p.lookup[e] = uint16(i)
		}
	}
}

// AddUtf8 interns a Utf8 entry.
func (p *ConstPool) AddUtf8(s string) uint16 {
	return p.add(Entry{Tag: TagUtf8, Str: s})
}

// AddInteger interns an Integer entry.
func (p *ConstPool) AddInteger(v int32) uint16 {
	return p.add(Entry{Tag: TagInteger, Bits: uint64(uint32(v))})
}

// AddFloat interns a Float entry. Distinct NaN bit patterns stay distinct.
func (p *ConstPool) AddFloat(v float32) uint16 {
	return p.add(Entry{Tag: TagFloat, Bits: uint64(math.Float32bits(v))})
}

// AddLong interns a Long entry, which occupies two slots.
func (p *ConstPool) AddLong(v int64) uint16 {
	return p.add(Entry{Tag: TagLong, Bits: uint64(v)})
}

// AddDouble interns a Double entry, which occupies two slots.
func (p *ConstPool) AddDouble(v float64) uint16 {
	return p.add(Entry{Tag: TagDouble, Bits: math.Float64bits(v)})
}

// AddString interns a String entry.
func (p *ConstPool) AddString(s string) uint16 {
	return p.add(Entry{Tag: TagString, A: p.AddUtf8(s)})
}

// AddClass interns a Class entry. The name may use dotted or slash notation;
// it is stored in slash notation. Array classes are given as descriptors
// ("[Ljava/lang/String;").
func (p *ConstPool) AddClass(name string) uint16 {
	return p.addClassInternal(p.names.ToInternal(name))
}

func (p *ConstPool) addClassInternal(name string) uint16 {
	return p.add(Entry{Tag: TagClass, A: p.AddUtf8(name)})
}

// AddNameAndType interns a NameAndType entry.
func (p *ConstPool) AddNameAndType(name, desc string) uint16 {
	return p.add(Entry{Tag: TagNameAndType, A: p.AddUtf8(name), B: p.AddUtf8(desc)})
}

func (p *ConstPool) addRef(tag Tag, class, name, desc string) uint16 {
	c := p.AddClass(class)
	nt := p.AddNameAndType(name, desc)
	return p.add(Entry{Tag: tag, A: c, B: nt})
}

// AddFieldref interns a Fieldref entry; class uses either notation.
func (p *ConstPool) AddFieldref(class, name, desc string) uint16 {
	return p.addRef(TagFieldref, class, name, desc)
}

// AddMethodref interns a Methodref entry; class uses either notation.
func (p *ConstPool) AddMethodref(class, name, desc string) uint16 {
	return p.addRef(TagMethodref, class, name, desc)
}

// AddInterfaceMethodref interns an InterfaceMethodref entry; class uses either notation.
func (p *ConstPool) AddInterfaceMethodref(class, name, desc string) uint16 {
	return p.addRef(TagInterfaceMethodref, class, name, desc)
}

// AddMethodHandle interns a MethodHandle entry referring to the member at ref.
func (p *ConstPool) AddMethodHandle(kind uint8, ref uint16) uint16 {
	return p.add(Entry{Tag: TagMethodHandle, A: uint16(kind), B: ref})
}

// AddMethodType interns a MethodType entry.
func (p *ConstPool) AddMethodType(desc string) uint16 {
	return p.add(Entry{Tag: TagMethodType, A: p.AddUtf8(desc)})
}

// AddInvokeDynamic interns an InvokeDynamic entry.
func (p *ConstPool) AddInvokeDynamic(bootstrap uint16, name, desc string) uint16 {
	return p.add(Entry{Tag: TagInvokeDynamic, A: bootstrap, B: p.AddNameAndType(name, desc)})
}

// AddDynamic interns a Dynamic (condy) entry.
func (p *ConstPool) AddDynamic(bootstrap uint16, name, desc string) uint16 {
	return p.add(Entry{Tag: TagDynamic, A: bootstrap, B: p.AddNameAndType(name, desc)})
}

// AddModule interns a Module entry.
func (p *ConstPool) AddModule(name string) uint16 {
	return p.add(Entry{Tag: TagModule, A: p.AddUtf8(name)})
}

// AddPackage interns a Package entry; the name uses slash notation.
func (p *ConstPool) AddPackage(name string) uint16 {
	return p.add(Entry{Tag: TagPackage, A: p.AddUtf8(name)})
}

// Entry returns the entry at index.
func (p *ConstPool) Entry(index int) (Entry, error) {
	if index <= 0 || index >= len(p.entries) {
		return Entry{}, &PoolError{Index: index, Size: len(p.entries)}
	}
	e := p.entries[index]
	if e.Tag == 0 {
		return Entry{}, &PoolError{Index: index, Size: len(p.entries)}
	}
	return e, nil
}

// Tag returns the tag at index, or 0 if index does not hold an entry.
func (p *ConstPool) Tag(index int) Tag {
	if index <= 0 || index >= len(p.entries) {
		return 0
	}
	return p.entries[index].Tag
}

func (p *ConstPool) expect(index int, tags ...Tag) (Entry, error) {
	e, err := p.Entry(index)
	if err != nil {
		if pe, ok := err.(*PoolError); ok {
			pe.Expected = tags[0]
		}
		return Entry{}, err
	}
	for _, t := range tags {
		if e.Tag == t {
			return e, nil
		}
	}
	return Entry{}, &PoolError{Index: index, Expected: tags[0], Actual: e.Tag, Size: len(p.entries)}
}

// Utf8 returns the string of the Utf8 entry at index.
func (p *ConstPool) Utf8(index int) (string, error) {
	e, err := p.expect(index, TagUtf8)
	if err != nil {
		return "", err
	}
	return e.Str, nil
}

// ClassNameInternal returns the name of the Class entry at index in slash
// notation. Array classes are returned as descriptors.
func (p *ConstPool) ClassNameInternal(index int) (string, error) {
	e, err := p.expect(index, TagClass)
	if err != nil {
		return "", err
	}
	return p.Utf8(int(e.A))
}

// ClassName returns the name of the Class entry at index in dotted notation.
func (p *ConstPool) ClassName(index int) (string, error) {
	name, err := p.ClassNameInternal(index)
	if err != nil {
		return "", err
	}
	return p.names.ToExternal(name), nil
}

// NameAndType returns the name and descriptor of a NameAndType entry.
func (p *ConstPool) NameAndType(index int) (name, desc string, err error) {
	e, err := p.expect(index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = p.Utf8(int(e.A)); err != nil {
		return "", "", err
	}
	if desc, err = p.Utf8(int(e.B)); err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// MemberRef resolves a Fieldref, Methodref or InterfaceMethodref entry. The
// class is returned in dotted notation.
func (p *ConstPool) MemberRef(index int) (class, name, desc string, err error) {
	e, err := p.expect(index, TagMethodref, TagFieldref, TagInterfaceMethodref)
	if err != nil {
		return "", "", "", err
	}
	if class, err = p.ClassName(int(e.A)); err != nil {
		return "", "", "", err
	}
	name, desc, err = p.NameAndType(int(e.B))
	return class, name, desc, err
}

// DynamicRef resolves the name and descriptor of a Dynamic or InvokeDynamic entry.
func (p *ConstPool) DynamicRef(index int) (bootstrap uint16, name, desc string, err error) {
	e, err := p.expect(index, TagInvokeDynamic, TagDynamic)
	if err != nil {
		return 0, "", "", err
	}
	name, desc, err = p.NameAndType(int(e.B))
	return e.A, name, desc, err
}

// StringValue returns the value of the String entry at index.
func (p *ConstPool) StringValue(index int) (string, error) {
	e, err := p.expect(index, TagString)
	if err != nil {
		return "", err
	}
	return p.Utf8(int(e.A))
}

// Integer returns the value of the Integer entry at index.
func (p *ConstPool) Integer(index int) (int32, error) {
	e, err := p.expect(index, TagInteger)
	return int32(uint32(e.Bits)), err
}

// Long returns the value of the Long entry at index.
func (p *ConstPool) Long(index int) (int64, error) {
	e, err := p.expect(index, TagLong)
	return int64(e.Bits), err
}

// Float returns the value of the Float entry at index.
func (p *ConstPool) Float(index int) (float32, error) {
	e, err := p.expect(index, TagFloat)
	return math.Float32frombits(uint32(e.Bits)), err
}

// Double returns the value of the Double entry at index.
func (p *ConstPool) Double(index int) (float64, error) {
	e, err := p.expect(index, TagDouble)
	return math.Float64frombits(e.Bits), err
}

// Validate checks that every cross reference in the pool resolves to an
// entry of the right kind.
func (p *ConstPool) Validate() error {
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		var err error
		switch e.Tag {
		case 0, TagUtf8, TagInteger, TagFloat, TagLong, TagDouble:
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			_, err = p.expect(int(e.A), TagUtf8)
		case TagNameAndType:
			if _, err = p.expect(int(e.A), TagUtf8); err == nil {
				_, err = p.expect(int(e.B), TagUtf8)
			}
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			if _, err = p.expect(int(e.A), TagClass); err == nil {
				_, err = p.expect(int(e.B), TagNameAndType)
			}
		case TagMethodHandle:
			if e.A < 1 || e.A > 9 {
				err = fmt.Errorf("method handle %d has invalid reference kind %d", i, e.A)
			} else {
				_, err = p.expect(int(e.B), TagFieldref, TagMethodref, TagInterfaceMethodref)
			}
		case TagDynamic, TagInvokeDynamic:
			_, err = p.expect(int(e.B), TagNameAndType)
		default:
			err = fmt.Errorf("entry %d has unknown tag %d", i, e.Tag)
		}
		if err != nil {
			return fmt.Errorf("constant pool entry %d (%s): %w", i, e.Tag, err)
		}
	}
	return nil
}

// RefClasses returns every class named by a Class entry, in dotted
// notation, in pool order without duplicates. Array classes contribute
// their element classes.
func (p *ConstPool) RefClasses() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		ext := p.names.ToExternal(name)
		if !seen[ext] {
			seen[ext] = true
			out = append(out, ext)
		}
	}
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e.Tag != TagClass {
			continue
		}
		name, err := p.Utf8(int(e.A))
		if err != nil {
			continue
		}
		if len(name) > 0 && name[0] == '[' {
			descriptorClasses(name, add)
			continue
		}
		add(name)
	}
	return out
}

// renameClassName applies rn to a Class entry name, which is either a plain
// slash-notation name or an array descriptor.
func renameClassName(name string, rn renamer) string {
	if rn == nil {
		return name
	}
	if len(name) > 0 && name[0] == '[' {
		return renameDescriptor(name, rn)
	}
	if repl, ok := rn(name); ok {
		return repl
	}
	return name
}

// RenameClass rewrites every reference to the class oldName so that it names
// newName. Both names use slash notation. Class entries keep their index; the
// new names are appended as Utf8 entries.
func (p *ConstPool) RenameClass(oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	return p.RenameClasses(map[string]string{oldName: newName})
}

// RenameClasses applies every substitution in renames (slash notation) in a
// single pass: with {a: b, b: c}, references to a become b, not c. Every
// entry is resolved before anything is modified, so a malformed pool is
// reported with the pool unchanged.
func (p *ConstPool) RenameClasses(renames map[string]string) error {
	return p.renameClasses(mapRenamer(renames))
}

type poolRewrite struct {
	index  int
	second bool // rewrite B instead of A
	value  string
}

func (p *ConstPool) renameClasses(rn renamer) error {
	if rn == nil {
		return nil
	}

	var plan []poolRewrite
	n := len(p.entries)
	for i := 1; i < n; i++ {
		e := p.entries[i]
		switch e.Tag {
		case TagClass:
			name, err := p.Utf8(int(e.A))
			if err != nil {
				return err
			}
			if renamed := renameClassName(name, rn); renamed != name {
				plan = append(plan, poolRewrite{index: i, value: renamed})
			}
		case TagNameAndType:
			desc, err := p.Utf8(int(e.B))
			if err != nil {
				return err
			}
			if renamed := renameDescriptor(desc, rn); renamed != desc {
				plan = append(plan, poolRewrite{index: i, second: true, value: renamed})
			}
		case TagMethodType:
			desc, err := p.Utf8(int(e.A))
			if err != nil {
				return err
			}
			if renamed := renameDescriptor(desc, rn); renamed != desc {
				plan = append(plan, poolRewrite{index: i, value: renamed})
			}
		}
	}
	if len(plan) == 0 {
		return nil
	}

	for _, rw := range plan {
		idx := p.AddUtf8(rw.value)
		if rw.second {
			p.entries[rw.index].B = idx
		} else {
			p.entries[rw.index].A = idx
		}
	}
	p.rebuildLookup()
	return nil
}

// Copy copies the entry at index, and everything it references, into dst
// and returns its index there. Class names and descriptors are renamed on
// the way through renames (slash notation, may be nil). Index 0 copies to 0.
func (p *ConstPool) Copy(index int, dst *ConstPool, renames map[string]string) (uint16, error) {
	return p.copyEntry(index, dst, mapRenamer(renames))
}

func (p *ConstPool) copyEntry(index int, dst *ConstPool, rn renamer) (uint16, error) {
	if index == 0 {
		return 0, nil
	}
	e, err := p.Entry(index)
	if err != nil {
		return 0, err
	}

	switch e.Tag {
	case TagUtf8:
		return dst.AddUtf8(e.Str), nil
	case TagInteger, TagFloat, TagLong, TagDouble:
		return dst.add(Entry{Tag: e.Tag, Bits: e.Bits}), nil
	case TagClass:
		name, err := p.Utf8(int(e.A))
		if err != nil {
			return 0, err
		}
		return dst.addClassInternal(renameClassName(name, rn)), nil
	case TagString, TagModule, TagPackage:
		s, err := p.Utf8(int(e.A))
		if err != nil {
			return 0, err
		}
		return dst.add(Entry{Tag: e.Tag, A: dst.AddUtf8(s)}), nil
	case TagMethodType:
		desc, err := p.Utf8(int(e.A))
		if err != nil {
			return 0, err
		}
		return dst.AddMethodType(renameDescriptor(desc, rn)), nil
	case TagNameAndType:
		name, desc, err := p.NameAndType(index)
		if err != nil {
			return 0, err
		}
		return dst.AddNameAndType(name, renameDescriptor(desc, rn)), nil
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		c, err := p.copyEntry(int(e.A), dst, rn)
		if err != nil {
			return 0, err
		}
		nt, err := p.copyEntry(int(e.B), dst, rn)
		if err != nil {
			return 0, err
		}
		return dst.add(Entry{Tag: e.Tag, A: c, B: nt}), nil
	case TagMethodHandle:
		ref, err := p.copyEntry(int(e.B), dst, rn)
		if err != nil {
			return 0, err
		}
		return dst.add(Entry{Tag: e.Tag, A: e.A, B: ref}), nil
	case TagDynamic, TagInvokeDynamic:
		nt, err := p.copyEntry(int(e.B), dst, rn)
		if err != nil {
			return 0, err
		}
		return dst.add(Entry{Tag: e.Tag, A: e.A, B: nt}), nil
	}
	return 0, &PoolError{Index: index, Actual: e.Tag, Size: len(p.entries)}
}

// copyDescriptor copies a Utf8 entry holding a field or method descriptor,
// renaming the classes it names.
func (p *ConstPool) copyDescriptor(index int, dst *ConstPool, rn renamer) (uint16, error) {
	desc, err := p.Utf8(index)
	if err != nil {
		return 0, err
	}
	return dst.AddUtf8(renameDescriptor(desc, rn)), nil
}

// copySignature copies a Utf8 entry holding a generic signature.
func (p *ConstPool) copySignature(index int, dst *ConstPool, rn renamer) (uint16, error) {
	sig, err := p.Utf8(index)
	if err != nil {
		return 0, err
	}
	renamed, err := renameSignature(sig, rn)
	if err != nil {
		return 0, fmt.Errorf("signature %q: %w", sig, err)
	}
	return dst.AddUtf8(renamed), nil
}
