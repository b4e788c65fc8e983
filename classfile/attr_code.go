package classfile

import (
	"encoding/binary"
	"fmt"

	"github.com/skdltmxn/classfile-go/internal/bytecode"
	"github.com/skdltmxn/classfile-go/internal/stream"
)

// ExceptionHandler is one exception_table entry of a Code attribute.
// CatchType is a Class index, or 0 for a handler that catches everything.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// CodeAttribute is the parsed form of a Code attribute.
type CodeAttribute struct {
	cp             *ConstPool
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionHandler
	Attributes     Attributes
}

// NewCode creates a Code attribute body for cp.
func NewCode(cp *ConstPool, maxStack, maxLocals uint16, code []byte) *CodeAttribute {
	return &CodeAttribute{cp: cp, MaxStack: maxStack, MaxLocals: maxLocals, Code: code}
}

// ConstPool returns the pool the bytecode's operands refer to.
func (c *CodeAttribute) ConstPool() *ConstPool { return c.cp }

// ParseCode parses a Code attribute.
func ParseCode(a *Attribute) (*CodeAttribute, error) {
	if a.name != AttrCode {
		return nil, &AttributeError{Name: a.name, Err: fmt.Errorf("not a %s attribute", AttrCode)}
	}
	c, err := parseCode(a.cp, a.info)
	if err != nil {
		return nil, &AttributeError{Name: a.name, Err: err}
	}
	return c, nil
}

func parseCode(cp *ConstPool, info []byte) (*CodeAttribute, error) {
	r := stream.NewReader(info)
	c := &CodeAttribute{cp: cp}
	var err error
	if c.MaxStack, err = r.ReadU16(); err != nil {
		return nil, err
	}
	if c.MaxLocals, err = r.ReadU16(); err != nil {
		return nil, err
	}
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if int64(n) > int64(r.Remaining()) {
		return nil, fmt.Errorf("code length %d exceeds attribute: %w", n, stream.ErrUnexpectedEOF)
	}
	if c.Code, err = r.ReadBytes(int(n)); err != nil {
		return nil, err
	}
	count, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	c.ExceptionTable = make([]ExceptionHandler, count)
	for i := range c.ExceptionTable {
		h := &c.ExceptionTable[i]
		for _, p := range []*uint16{&h.StartPC, &h.EndPC, &h.HandlerPC, &h.CatchType} {
			if *p, err = r.ReadU16(); err != nil {
				return nil, err
			}
		}
	}
	if err := c.Attributes.read(cp, r); err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", r.Remaining())
	}
	return c, nil
}

// Attribute encodes the Code attribute.
func (c *CodeAttribute) Attribute() (*Attribute, error) {
	var w stream.Writer
	w.WriteU16(c.MaxStack)
	w.WriteU16(c.MaxLocals)
	w.WriteU32(uint32(len(c.Code)))
	w.WriteBytes(c.Code)
	if err := w.WriteLen16(len(c.ExceptionTable)); err != nil {
		return nil, &AttributeError{Name: AttrCode, Err: ErrTooLarge}
	}
	for _, h := range c.ExceptionTable {
		w.WriteU16(h.StartPC)
		w.WriteU16(h.EndPC)
		w.WriteU16(h.HandlerPC)
		w.WriteU16(h.CatchType)
	}
	if err := c.Attributes.write(&w); err != nil {
		return nil, &AttributeError{Name: AttrCode, Err: err}
	}
	return NewAttribute(c.cp, AttrCode, w.Bytes()), nil
}

// LineNumbers returns the nested LineNumberTable, or nil.
func (c *CodeAttribute) LineNumbers() ([]LineNumber, error) {
	a := c.Attributes.Get(AttrLineNumberTable)
	if a == nil {
		return nil, nil
	}
	return ParseLineNumbers(a)
}

func (c *copier) code() {
	c.u16()
	c.u16()
	n := c.readU32()
	if c.err != nil {
		return
	}
	code, err := c.r.ReadBytes(int(n))
	if err != nil {
		c.fail(err)
		return
	}
	if err := rewriteCode(code, c.copyCtx); err != nil {
		c.fail(err)
		return
	}
	c.w.WriteU32(n)
	c.w.WriteBytes(code)

	c.table16(func() {
		c.u16()
		c.u16()
		c.u16()
		c.index()
	})
	c.table16(c.nestedAttribute)
}

// rewriteCode re-points every constant-pool operand in code at dst, in place.
func rewriteCode(code []byte, x copyCtx) error {
	return bytecode.Walk(code, func(in bytecode.Instruction) error {
		idx, width, ok := bytecode.PoolIndex(code, in.PC)
		if !ok {
			return nil
		}
		n, err := x.src.copyEntry(int(idx), x.dst, x.rn)
		if err != nil {
			return fmt.Errorf("%s at %d: %w", in.Opcode, in.PC, err)
		}
		if width == 1 {
			if n > 0xff && !x.scan {
				return fmt.Errorf("ldc at %d: constant moved to index %d: %w", in.PC, n, ErrTooLarge)
			}
			code[in.PC+1] = byte(n)
			return nil
		}
		binary.BigEndian.PutUint16(code[in.PC+1:], n)
		return nil
	})
}

func (c *copier) nestedAttribute() {
	nameIndex := c.readU16()
	length := c.readU32()
	if c.err != nil {
		return
	}
	name, err := c.src.Utf8(int(nameIndex))
	if err != nil {
		c.fail(err)
		return
	}
	body, err := c.r.ReadBytesRef(int(length))
	if err != nil {
		c.fail(err)
		return
	}
	out, err := c.copyCtx.info(name, body)
	if err != nil {
		c.fail(&AttributeError{Name: name, Err: err})
		return
	}
	c.w.WriteU16(c.dst.AddUtf8(name))
	c.w.WriteU32(uint32(len(out)))
	c.w.WriteBytes(out)
}

// ldcTargets returns the pool indices loaded by one-byte ldc instructions
// in a Code attribute body.
func ldcTargets(info []byte) ([]uint16, error) {
	if len(info) < 8 {
		return nil, stream.ErrUnexpectedEOF
	}
	n := int(binary.BigEndian.Uint32(info[4:]))
	if 8+n > len(info) || n < 0 {
		return nil, stream.ErrUnexpectedEOF
	}
	code := info[8 : 8+n]
	var out []uint16
	err := bytecode.Walk(code, func(in bytecode.Instruction) error {
		if in.Opcode == bytecode.Ldc {
			out = append(out, uint16(code[in.PC+1]))
		}
		return nil
	})
	return out, err
}
