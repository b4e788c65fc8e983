package classfile

import (
	"fmt"

	"github.com/skdltmxn/classfile-go/internal/stream"
)

// InnerClass is one InnerClasses entry. Names are dotted; Outer and Name are
// empty for local and anonymous classes.
type InnerClass struct {
	Inner       string
	Outer       string
	Name        string
	AccessFlags uint16
}

// LineNumber maps a bytecode offset to a source line.
type LineNumber struct {
	StartPC uint16
	Line    uint16
}

// LocalVariable is one LocalVariableTable or LocalVariableTypeTable entry.
// Descriptor holds the generic signature for the latter.
type LocalVariable struct {
	StartPC    uint16
	Length     uint16
	Name       string
	Descriptor string
	Index      uint16
}

// MethodParameter is one MethodParameters entry. Name is empty when the
// compiler recorded no name.
type MethodParameter struct {
	Name        string
	AccessFlags uint16
}

// BootstrapMethod is one BootstrapMethods entry of pool indices.
type BootstrapMethod struct {
	MethodRef uint16
	Args      []uint16
}

// attrReader wraps a Reader with the pool of the attribute being parsed.
type attrReader struct {
	*stream.Reader
	a *Attribute
}

func newAttrReader(a *Attribute, want ...string) (*attrReader, error) {
	for _, n := range want {
		if a.name == n {
			return &attrReader{Reader: stream.NewReader(a.info), a: a}, nil
		}
	}
	return nil, &AttributeError{Name: a.name, Err: fmt.Errorf("expected %v", want)}
}

func (r *attrReader) wrap(err error) error {
	if err == nil {
		return nil
	}
	return &AttributeError{Name: r.a.name, Err: err}
}

func (r *attrReader) done() error {
	if r.Remaining() != 0 {
		return r.wrap(fmt.Errorf("%d trailing bytes", r.Remaining()))
	}
	return nil
}

func (r *attrReader) utf8(optional bool) (string, error) {
	i, err := r.ReadU16()
	if err != nil || (optional && i == 0) {
		return "", err
	}
	return r.a.cp.Utf8(int(i))
}

func (r *attrReader) class(optional bool) (string, error) {
	i, err := r.ReadU16()
	if err != nil || (optional && i == 0) {
		return "", err
	}
	return r.a.cp.ClassName(int(i))
}

// NewSourceFileAttribute creates a SourceFile attribute.
func NewSourceFileAttribute(cp *ConstPool, file string) *Attribute {
	return NewAttribute(cp, AttrSourceFile, u16Bytes(cp.AddUtf8(file)))
}

// NewSignatureAttribute creates a Signature attribute.
func NewSignatureAttribute(cp *ConstPool, sig string) *Attribute {
	return NewAttribute(cp, AttrSignature, u16Bytes(cp.AddUtf8(sig)))
}

// NewConstantValueAttribute creates a ConstantValue attribute for the
// constant at index.
func NewConstantValueAttribute(cp *ConstPool, index uint16) *Attribute {
	return NewAttribute(cp, AttrConstantValue, u16Bytes(index))
}

// NewMarkerAttribute creates an attribute with an empty body, such as
// Deprecated or Synthetic.
func NewMarkerAttribute(cp *ConstPool, name string) *Attribute {
	return NewAttribute(cp, name, []byte{})
}

// NewClassListAttribute creates an Exceptions, NestMembers or
// PermittedSubclasses attribute. Class names may use either notation.
func NewClassListAttribute(cp *ConstPool, name string, classes []string) (*Attribute, error) {
	var w stream.Writer
	if err := w.WriteLen16(len(classes)); err != nil {
		return nil, &AttributeError{Name: name, Err: ErrTooLarge}
	}
	for _, c := range classes {
		w.WriteU16(cp.AddClass(c))
	}
	return NewAttribute(cp, name, w.Bytes()), nil
}

func u16Bytes(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

// ParseSourceFile returns the file name held by a SourceFile attribute.
func ParseSourceFile(a *Attribute) (string, error) {
	return parseSingleUtf8(a, AttrSourceFile)
}

// ParseSignature returns the generic signature held by a Signature attribute.
func ParseSignature(a *Attribute) (string, error) {
	return parseSingleUtf8(a, AttrSignature)
}

func parseSingleUtf8(a *Attribute, name string) (string, error) {
	r, err := newAttrReader(a, name)
	if err != nil {
		return "", err
	}
	s, err := r.utf8(false)
	if err != nil {
		return "", r.wrap(err)
	}
	return s, r.done()
}

// ParseNestHost returns the host class of a NestHost attribute, dotted.
func ParseNestHost(a *Attribute) (string, error) {
	r, err := newAttrReader(a, AttrNestHost)
	if err != nil {
		return "", err
	}
	s, err := r.class(false)
	if err != nil {
		return "", r.wrap(err)
	}
	return s, r.done()
}

// ParseConstantValue returns the pool index held by a ConstantValue attribute.
func ParseConstantValue(a *Attribute) (uint16, error) {
	r, err := newAttrReader(a, AttrConstantValue)
	if err != nil {
		return 0, err
	}
	i, err := r.ReadU16()
	if err != nil {
		return 0, r.wrap(err)
	}
	return i, r.done()
}

// ParseClassList returns the dotted class names of an Exceptions,
// NestMembers or PermittedSubclasses attribute.
func ParseClassList(a *Attribute) ([]string, error) {
	r, err := newAttrReader(a, AttrExceptions, AttrNestMembers, AttrPermittedSubclasses)
	if err != nil {
		return nil, err
	}
	n, err := r.ReadU16()
	if err != nil {
		return nil, r.wrap(err)
	}
	out := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		c, err := r.class(false)
		if err != nil {
			return nil, r.wrap(err)
		}
		out = append(out, c)
	}
	return out, r.done()
}

// ParseInnerClasses parses an InnerClasses attribute.
func ParseInnerClasses(a *Attribute) ([]InnerClass, error) {
	r, err := newAttrReader(a, AttrInnerClasses)
	if err != nil {
		return nil, err
	}
	n, err := r.ReadU16()
	if err != nil {
		return nil, r.wrap(err)
	}
	out := make([]InnerClass, n)
	for i := range out {
		ic := &out[i]
		if ic.Inner, err = r.class(false); err != nil {
			return nil, r.wrap(err)
		}
		if ic.Outer, err = r.class(true); err != nil {
			return nil, r.wrap(err)
		}
		if ic.Name, err = r.utf8(true); err != nil {
			return nil, r.wrap(err)
		}
		if ic.AccessFlags, err = r.ReadU16(); err != nil {
			return nil, r.wrap(err)
		}
	}
	return out, r.done()
}

// ParseEnclosingMethod parses an EnclosingMethod attribute. name and desc are
// empty when the class is not enclosed by a method.
func ParseEnclosingMethod(a *Attribute) (class, name, desc string, err error) {
	r, err := newAttrReader(a, AttrEnclosingMethod)
	if err != nil {
		return "", "", "", err
	}
	if class, err = r.class(false); err != nil {
		return "", "", "", r.wrap(err)
	}
	nt, err := r.ReadU16()
	if err != nil {
		return "", "", "", r.wrap(err)
	}
	if nt != 0 {
		if name, desc, err = a.cp.NameAndType(int(nt)); err != nil {
			return "", "", "", r.wrap(err)
		}
	}
	return class, name, desc, r.done()
}

// ParseLineNumbers parses a LineNumberTable attribute.
func ParseLineNumbers(a *Attribute) ([]LineNumber, error) {
	r, err := newAttrReader(a, AttrLineNumberTable)
	if err != nil {
		return nil, err
	}
	n, err := r.ReadU16()
	if err != nil {
		return nil, r.wrap(err)
	}
	out := make([]LineNumber, n)
	for i := range out {
		if out[i].StartPC, err = r.ReadU16(); err != nil {
			return nil, r.wrap(err)
		}
		if out[i].Line, err = r.ReadU16(); err != nil {
			return nil, r.wrap(err)
		}
	}
	return out, r.done()
}

// ParseLocalVariables parses a LocalVariableTable or LocalVariableTypeTable
// attribute.
func ParseLocalVariables(a *Attribute) ([]LocalVariable, error) {
	r, err := newAttrReader(a, AttrLocalVariableTable, AttrLocalVariableTypeTable)
	if err != nil {
		return nil, err
	}
	n, err := r.ReadU16()
	if err != nil {
		return nil, r.wrap(err)
	}
	out := make([]LocalVariable, n)
	for i := range out {
		lv := &out[i]
		if lv.StartPC, err = r.ReadU16(); err != nil {
			return nil, r.wrap(err)
		}
		if lv.Length, err = r.ReadU16(); err != nil {
			return nil, r.wrap(err)
		}
		if lv.Name, err = r.utf8(false); err != nil {
			return nil, r.wrap(err)
		}
		if lv.Descriptor, err = r.utf8(false); err != nil {
			return nil, r.wrap(err)
		}
		if lv.Index, err = r.ReadU16(); err != nil {
			return nil, r.wrap(err)
		}
	}
	return out, r.done()
}

// ParseMethodParameters parses a MethodParameters attribute.
func ParseMethodParameters(a *Attribute) ([]MethodParameter, error) {
	r, err := newAttrReader(a, AttrMethodParameters)
	if err != nil {
		return nil, err
	}
	n, err := r.ReadU8()
	if err != nil {
		return nil, r.wrap(err)
	}
	out := make([]MethodParameter, n)
	for i := range out {
		if out[i].Name, err = r.utf8(true); err != nil {
			return nil, r.wrap(err)
		}
		if out[i].AccessFlags, err = r.ReadU16(); err != nil {
			return nil, r.wrap(err)
		}
	}
	return out, r.done()
}

// ParseBootstrapMethods parses a BootstrapMethods attribute.
func ParseBootstrapMethods(a *Attribute) ([]BootstrapMethod, error) {
	r, err := newAttrReader(a, AttrBootstrapMethods)
	if err != nil {
		return nil, err
	}
	n, err := r.ReadU16()
	if err != nil {
		return nil, r.wrap(err)
	}
	out := make([]BootstrapMethod, n)
	for i := range out {
		if out[i].MethodRef, err = r.ReadU16(); err != nil {
			return nil, r.wrap(err)
		}
		argc, err := r.ReadU16()
		if err != nil {
			return nil, r.wrap(err)
		}
		out[i].Args = make([]uint16, argc)
		for j := range out[i].Args {
			if out[i].Args[j], err = r.ReadU16(); err != nil {
				return nil, r.wrap(err)
			}
		}
	}
	return out, r.done()
}
