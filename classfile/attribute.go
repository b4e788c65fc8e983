package classfile

import (
	"fmt"

	"github.com/skdltmxn/classfile-go/internal/stream"
)

// Predefined attribute names.
const (
	AttrAnnotationDefault                    = "AnnotationDefault"
	AttrBootstrapMethods                     = "BootstrapMethods"
	AttrCode                                 = "Code"
	AttrConstantValue                        = "ConstantValue"
	AttrDeprecated                           = "Deprecated"
	AttrEnclosingMethod                      = "EnclosingMethod"
	AttrExceptions                           = "Exceptions"
	AttrInnerClasses                         = "InnerClasses"
	AttrLineNumberTable                      = "LineNumberTable"
	AttrLocalVariableTable                   = "LocalVariableTable"
	AttrLocalVariableTypeTable               = "LocalVariableTypeTable"
	AttrMethodParameters                     = "MethodParameters"
	AttrNestHost                             = "NestHost"
	AttrNestMembers                          = "NestMembers"
	AttrPermittedSubclasses                  = "PermittedSubclasses"
	AttrRuntimeInvisibleAnnotations          = "RuntimeInvisibleAnnotations"
	AttrRuntimeInvisibleParameterAnnotations = "RuntimeInvisibleParameterAnnotations"
	AttrRuntimeInvisibleTypeAnnotations      = "RuntimeInvisibleTypeAnnotations"
	AttrRuntimeVisibleAnnotations            = "RuntimeVisibleAnnotations"
	AttrRuntimeVisibleParameterAnnotations   = "RuntimeVisibleParameterAnnotations"
	AttrRuntimeVisibleTypeAnnotations        = "RuntimeVisibleTypeAnnotations"
	AttrSignature                            = "Signature"
	AttrSourceFile                           = "SourceFile"
	AttrStackMapTable                        = "StackMapTable"
	AttrSynthetic                            = "Synthetic"
)

// Attribute is an attribute_info structure: a name and an uninterpreted body
// whose pool indices refer to the attribute's pool.
type Attribute struct {
	cp        *ConstPool
	nameIndex uint16
	name      string
	info      []byte
}

// NewAttribute creates an attribute whose name is added to cp.
func NewAttribute(cp *ConstPool, name string, info []byte) *Attribute {
	return &Attribute{cp: cp, nameIndex: cp.AddUtf8(name), name: name, info: info}
}

// Name returns the attribute name.
func (a *Attribute) Name() string { return a.name }

// Info returns the attribute body. The slice is shared with the attribute.
func (a *Attribute) Info() []byte { return a.info }

// SetInfo replaces the attribute body.
func (a *Attribute) SetInfo(info []byte) { a.info = info }

// ConstPool returns the pool the body's indices refer to.
func (a *Attribute) ConstPool() *ConstPool { return a.cp }

// Copy returns a copy of a whose indices refer to dst, with class names
// renamed through renames (slash notation, may be nil).
func (a *Attribute) Copy(dst *ConstPool, renames map[string]string) (*Attribute, error) {
	return a.copy(dst, mapRenamer(renames))
}

func (a *Attribute) copy(dst *ConstPool, rn renamer) (*Attribute, error) {
	info, err := copyCtx{src: a.cp, dst: dst, rn: rn}.info(a.name, a.info)
	if err != nil {
		return nil, &AttributeError{Name: a.name, Err: err}
	}
	return NewAttribute(dst, a.name, info), nil
}

// copyCtx carries what every step of an attribute copy needs. A scan copies
// into a throwaway pool only to visit class names, so the one-byte ldc
// operand limit does not apply.
type copyCtx struct {
	src, dst *ConstPool
	rn       renamer
	scan     bool
}

// info rewrites an attribute body from src to dst. Attributes this package
// does not know are copied verbatim.
func (x copyCtx) info(name string, info []byte) ([]byte, error) {
	fn, ok := attrCopiers[name]
	if !ok {
		return append([]byte(nil), info...), nil
	}
	c := &copier{copyCtx: x, r: stream.NewReader(info)}
	c.w = *stream.NewWriter(len(info))
	fn(c)
	return c.finish()
}

var attrCopiers map[string]func(*copier)

func init() {
	attrCopiers = map[string]func(*copier){
		AttrConstantValue:       (*copier).index,
		AttrSourceFile:          (*copier).index,
		AttrNestHost:            (*copier).index,
		AttrSignature:           (*copier).signature,
		AttrExceptions:          (*copier).indexList,
		AttrNestMembers:         (*copier).indexList,
		AttrPermittedSubclasses: (*copier).indexList,
		AttrDeprecated:          func(*copier) {},
		AttrSynthetic:           func(*copier) {},
		AttrLineNumberTable:     (*copier).rest,
		AttrInnerClasses: func(c *copier) {
			c.table16(func() {
				c.index()
				c.index()
				c.index()
				c.u16()
			})
		},
		AttrEnclosingMethod: func(c *copier) {
			c.index()
			c.index()
		},
		AttrLocalVariableTable: func(c *copier) {
			c.table16(func() {
				c.u16()
				c.u16()
				c.index()
				c.descriptor()
				c.u16()
			})
		},
		AttrLocalVariableTypeTable: func(c *copier) {
			c.table16(func() {
				c.u16()
				c.u16()
				c.index()
				c.signature()
				c.u16()
			})
		},
		AttrMethodParameters: func(c *copier) {
			c.table8(func() {
				c.index()
				c.u16()
			})
		},
		AttrBootstrapMethods: func(c *copier) {
			c.table16(func() {
				c.index()
				c.indexList()
			})
		},
		AttrCode:                                 (*copier).code,
		AttrStackMapTable:                        (*copier).stackMapTable,
		AttrRuntimeVisibleAnnotations:            (*copier).annotations,
		AttrRuntimeInvisibleAnnotations:          (*copier).annotations,
		AttrRuntimeVisibleParameterAnnotations:   (*copier).parameterAnnotations,
		AttrRuntimeInvisibleParameterAnnotations: (*copier).parameterAnnotations,
		AttrRuntimeVisibleTypeAnnotations:        (*copier).typeAnnotations,
		AttrRuntimeInvisibleTypeAnnotations:      (*copier).typeAnnotations,
		AttrAnnotationDefault:                    (*copier).elementValue,
	}
}

// copier rewrites an attribute body field by field. The first error sticks
// and turns every later step into a no-op.
type copier struct {
	copyCtx
	r   *stream.Reader
	w   stream.Writer
	err error
}

func (c *copier) finish() ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.r.Remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", c.r.Remaining())
	}
	return c.w.Bytes(), nil
}

func (c *copier) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *copier) readU8() uint8 {
	if c.err != nil {
		return 0
	}
	v, err := c.r.ReadU8()
	c.fail(err)
	return v
}

func (c *copier) readU16() uint16 {
	if c.err != nil {
		return 0
	}
	v, err := c.r.ReadU16()
	c.fail(err)
	return v
}

func (c *copier) readU32() uint32 {
	if c.err != nil {
		return 0
	}
	v, err := c.r.ReadU32()
	c.fail(err)
	return v
}

func (c *copier) u8() uint8 {
	v := c.readU8()
	c.w.WriteU8(v)
	return v
}

func (c *copier) u16() uint16 {
	v := c.readU16()
	c.w.WriteU16(v)
	return v
}

func (c *copier) bytes(n int) {
	if c.err != nil {
		return
	}
	b, err := c.r.ReadBytesRef(n)
	if err != nil {
		c.fail(err)
		return
	}
	c.w.WriteBytes(b)
}

func (c *copier) rest() {
	c.bytes(c.r.Remaining())
}

// index copies one pool reference; 0 stays 0.
func (c *copier) index() {
	c.w.WriteU16(c.copyIndex(c.readU16()))
}

func (c *copier) copyIndex(i uint16) uint16 {
	if c.err != nil {
		return 0
	}
	n, err := c.src.copyEntry(int(i), c.dst, c.rn)
	c.fail(err)
	return n
}

func (c *copier) descriptor() {
	i := c.readU16()
	if c.err != nil {
		return
	}
	n, err := c.src.copyDescriptor(int(i), c.dst, c.rn)
	c.fail(err)
	c.w.WriteU16(n)
}

func (c *copier) signature() {
	i := c.readU16()
	if c.err != nil {
		return
	}
	n, err := c.src.copySignature(int(i), c.dst, c.rn)
	c.fail(err)
	c.w.WriteU16(n)
}

func (c *copier) indexList() {
	c.table16(c.index)
}

func (c *copier) table16(fn func()) {
	n := c.u16()
	for i := 0; i < int(n) && c.err == nil; i++ {
		fn()
	}
}

func (c *copier) table8(fn func()) {
	n := c.u8()
	for i := 0; i < int(n) && c.err == nil; i++ {
		fn()
	}
}

// Attributes is an attribute table. Names are unique; setting an attribute
// whose name is present replaces it in place.
type Attributes struct {
	list []*Attribute
}

// Len returns the number of attributes.
func (t *Attributes) Len() int { return len(t.list) }

// All returns the attributes in table order.
func (t *Attributes) All() []*Attribute {
	return append([]*Attribute(nil), t.list...)
}

// Get returns the attribute called name, or nil.
func (t *Attributes) Get(name string) *Attribute {
	for _, a := range t.list {
		if a.name == name {
			return a
		}
	}
	return nil
}

// Set adds a, replacing an attribute of the same name.
func (t *Attributes) Set(a *Attribute) {
	for i, old := range t.list {
		if old.name == a.name {
			t.list[i] = a
			return
		}
	}
	t.list = append(t.list, a)
}

// Remove removes the attribute called name and returns it, or nil.
func (t *Attributes) Remove(name string) *Attribute {
	for i, a := range t.list {
		if a.name == name {
			t.list = append(t.list[:i:i], t.list[i+1:]...)
			return a
		}
	}
	return nil
}

// copyAll copies the attributes accepted by keep (all when keep is nil).
func (t *Attributes) copyAll(dst *ConstPool, rn renamer, keep func(string) bool) ([]*Attribute, error) {
	out := make([]*Attribute, 0, len(t.list))
	for _, a := range t.list {
		if keep != nil && !keep(a.name) {
			continue
		}
		c, err := a.copy(dst, rn)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// scan passes every class name found in the table to rn.
func (t *Attributes) scan(rn renamer) error {
	scratch := NewConstPool()
	for _, a := range t.list {
		x := copyCtx{src: a.cp, dst: scratch, rn: rn, scan: true}
		if _, err := x.info(a.name, a.info); err != nil {
			return &AttributeError{Name: a.name, Err: err}
		}
	}
	return nil
}

// replace installs staged copies and binds them to cp.
func (t *Attributes) replace(list []*Attribute, cp *ConstPool) {
	for _, a := range list {
		a.cp = cp
	}
	t.list = list
}

func (t *Attributes) read(cp *ConstPool, r *stream.Reader) error {
	n, err := r.ReadU16()
	if err != nil {
		return err
	}
	for i := 0; i < int(n); i++ {
		a, err := readAttribute(cp, r)
		if err != nil {
			return err
		}
		t.Set(a)
	}
	return nil
}

func readAttribute(cp *ConstPool, r *stream.Reader) (*Attribute, error) {
	nameIndex, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	name, err := cp.Utf8(int(nameIndex))
	if err != nil {
		return nil, err
	}
	length, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if int64(length) > int64(r.Remaining()) {
		return nil, fmt.Errorf("attribute %s: length %d exceeds remaining %d bytes: %w",
			name, length, r.Remaining(), stream.ErrUnexpectedEOF)
	}
	info, err := r.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	return &Attribute{cp: cp, nameIndex: nameIndex, name: name, info: info}, nil
}

func (t *Attributes) write(w *stream.Writer) error {
	if err := w.WriteLen16(len(t.list)); err != nil {
		return fmt.Errorf("attributes: %w", ErrTooLarge)
	}
	for _, a := range t.list {
		w.WriteU16(a.nameIndex)
		w.WriteU32(uint32(len(a.info)))
		w.WriteBytes(a.info)
	}
	return nil
}
