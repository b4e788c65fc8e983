package classfile

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/skdltmxn/classfile-go/internal/stream"
)

// Parse decodes a class file. Decoding is strict: on any error it returns
// nil and an error matching ErrMalformedClassFile.
func Parse(data []byte, opts ...Option) (*ClassFile, error) {
	cf := newClassFile(opts)
	if err := cf.read(stream.NewReader(data)); err != nil {
		return nil, err
	}
	cf.log.Debug("parsed class file",
		zap.String("class", cf.thisName),
		zap.Int("pool", cf.cp.Len()),
		zap.Int("fields", len(cf.members.fields)),
		zap.Int("methods", len(cf.members.methods)))
	return cf, nil
}

// Read decodes a class file from r. Errors reading r are returned as is.
func Read(r io.Reader, opts ...Option) (*ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("classfile: reading input: %w", err)
	}
	return Parse(data, opts...)
}

func (cf *ClassFile) read(r *stream.Reader) error {
	fail := func(at int, msg string, err error) error {
		return &FormatError{Offset: at, Message: msg, Err: err}
	}

	magic, err := r.ReadU32()
	if err != nil {
		return fail(0, "reading magic", err)
	}
	if magic != Magic {
		return fail(0, fmt.Sprintf("bad magic number 0x%08x", magic), nil)
	}
	if cf.minor, err = r.ReadU16(); err != nil {
		return fail(r.Offset(), "reading minor_version", err)
	}
	if cf.major, err = r.ReadU16(); err != nil {
		return fail(r.Offset(), "reading major_version", err)
	}

	if cf.cp, err = readConstPool(r); err != nil {
		return err
	}
	cf.cp.names = cf.names
	if err := cf.cp.Validate(); err != nil {
		return fail(r.Offset(), "validating constant pool", err)
	}

	at := r.Offset()
	var header [3]uint16
	for i := range header {
		if header[i], err = r.ReadU16(); err != nil {
			return fail(r.Offset(), "reading class header", err)
		}
	}
	cf.accessFlags, cf.thisClass, cf.superClass = header[0], header[1], header[2]
	if cf.thisName, err = cf.cp.ClassName(int(cf.thisClass)); err != nil {
		return fail(at+2, "this_class", err)
	}
	if cf.superClass != 0 {
		if _, err := cf.cp.ClassName(int(cf.superClass)); err != nil {
			return fail(at+4, "super_class", err)
		}
	}

	n, err := r.ReadU16()
	if err != nil {
		return fail(r.Offset(), "reading interfaces_count", err)
	}
	cf.interfaces = make([]uint16, n)
	for i := range cf.interfaces {
		at := r.Offset()
		if cf.interfaces[i], err = r.ReadU16(); err != nil {
			return fail(at, "reading interfaces", err)
		}
		if _, err := cf.cp.ClassName(int(cf.interfaces[i])); err != nil {
			return fail(at, fmt.Sprintf("interface %d", i), err)
		}
	}

	if n, err = r.ReadU16(); err != nil {
		return fail(r.Offset(), "reading fields_count", err)
	}
	for i := 0; i < int(n); i++ {
		at := r.Offset()
		f := &FieldInfo{}
		f.self = f
		if err := f.read(cf.cp, r); err != nil {
			return fail(at, fmt.Sprintf("field %d", i), err)
		}
		cf.members.addFieldUnchecked(f)
	}

	if n, err = r.ReadU16(); err != nil {
		return fail(r.Offset(), "reading methods_count", err)
	}
	for i := 0; i < int(n); i++ {
		at := r.Offset()
		m := &MethodInfo{}
		m.self = m
		if err := m.read(cf.cp, r); err != nil {
			return fail(at, fmt.Sprintf("method %d", i), err)
		}
		cf.members.addMethodUnchecked(m)
	}

	at = r.Offset()
	if err := cf.attrs.read(cf.cp, r); err != nil {
		return fail(at, "class attributes", err)
	}
	if r.Remaining() != 0 {
		return fail(r.Offset(), fmt.Sprintf("%d trailing bytes", r.Remaining()), nil)
	}
	return nil
}

// Bytes encodes the class file. Every count is taken from the live tables.
// Two fields sharing a name fail with a *DuplicateMemberError.
func (cf *ClassFile) Bytes() ([]byte, error) {
	if err := cf.members.checkFieldNames(); err != nil {
		return nil, err
	}
	return cf.encode()
}

func (cf *ClassFile) encode() ([]byte, error) {
	w := stream.NewWriter(256 + 16*cf.cp.Len())
	w.WriteU32(Magic)
	w.WriteU16(cf.minor)
	w.WriteU16(cf.major)
	if err := cf.cp.write(w); err != nil {
		return nil, fmt.Errorf("classfile: %w", err)
	}
	w.WriteU16(cf.accessFlags)
	w.WriteU16(cf.thisClass)
	w.WriteU16(cf.superClass)

	if err := w.WriteLen16(len(cf.interfaces)); err != nil {
		return nil, fmt.Errorf("classfile: interfaces: %w", ErrTooLarge)
	}
	for _, i := range cf.interfaces {
		w.WriteU16(i)
	}

	if err := w.WriteLen16(len(cf.members.fields)); err != nil {
		return nil, fmt.Errorf("classfile: fields: %w", ErrTooLarge)
	}
	for _, f := range cf.members.fields {
		if err := f.write(w); err != nil {
			return nil, fmt.Errorf("classfile: field %w", err)
		}
	}

	if err := w.WriteLen16(len(cf.members.methods)); err != nil {
		return nil, fmt.Errorf("classfile: methods: %w", ErrTooLarge)
	}
	for _, m := range cf.members.methods {
		if err := m.write(w); err != nil {
			return nil, fmt.Errorf("classfile: method %w", err)
		}
	}

	if err := cf.attrs.write(w); err != nil {
		return nil, fmt.Errorf("classfile: class %w", err)
	}
	return w.Bytes(), nil
}

// WriteTo encodes the class file to w.
func (cf *ClassFile) WriteTo(w io.Writer) (int64, error) {
	b, err := cf.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}
