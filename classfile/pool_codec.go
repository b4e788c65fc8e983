package classfile

import (
	"fmt"

	"github.com/skdltmxn/classfile-go/internal/stream"
)

// readConstPool decodes constant_pool_count and the entries that follow.
// Entries are stored at their file indices; duplicates are kept.
func readConstPool(r *stream.Reader) (*ConstPool, error) {
	count, err := r.ReadU16()
	if err != nil {
		return nil, &FormatError{Offset: r.Offset(), Message: "reading constant_pool_count", Err: err}
	}
	if count == 0 {
		return nil, &FormatError{Offset: r.Offset() - 2, Message: "constant_pool_count is 0"}
	}

	p := NewConstPool()
	for len(p.entries) < int(count) {
		start := r.Offset()
		e, err := readEntry(r)
		if err != nil {
			return nil, &FormatError{Offset: start, Message: fmt.Sprintf("reading constant pool entry %d", len(p.entries)), Err: err}
		}
		if e.Tag.wide() && len(p.entries)+1 >= int(count) {
			return nil, &FormatError{Offset: start, Message: fmt.Sprintf("%s entry %d overruns the pool", e.Tag, len(p.entries))}
		}
		p.append(e)
	}
	return p, nil
}

func readEntry(r *stream.Reader) (Entry, error) {
	t, err := r.ReadU8()
	if err != nil {
		return Entry{}, err
	}
	e := Entry{Tag: Tag(t)}
	switch e.Tag {
	case TagUtf8:
		n, err := r.ReadU16()
		if err != nil {
			return Entry{}, err
		}
		b, err := r.ReadBytesRef(int(n))
		if err != nil {
			return Entry{}, err
		}
		e.Str = decodeMUTF8(b)
	case TagInteger, TagFloat:
		v, err := r.ReadU32()
		if err != nil {
			return Entry{}, err
		}
		e.Bits = uint64(v)
	case TagLong, TagDouble:
		if e.Bits, err = r.ReadU64(); err != nil {
			return Entry{}, err
		}
	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		if e.A, err = r.ReadU16(); err != nil {
			return Entry{}, err
		}
	case TagFieldref, TagMethodref, TagInterfaceMethodref, TagNameAndType, TagDynamic, TagInvokeDynamic:
		if e.A, err = r.ReadU16(); err != nil {
			return Entry{}, err
		}
		if e.B, err = r.ReadU16(); err != nil {
			return Entry{}, err
		}
	case TagMethodHandle:
		kind, err := r.ReadU8()
		if err != nil {
			return Entry{}, err
		}
		e.A = uint16(kind)
		if e.B, err = r.ReadU16(); err != nil {
			return Entry{}, err
		}
	default:
		return Entry{}, fmt.Errorf("unknown tag %d", t)
	}
	return e, nil
}

// write encodes constant_pool_count and every entry.
func (p *ConstPool) write(w *stream.Writer) error {
	if err := w.WriteLen16(len(p.entries)); err != nil {
		return fmt.Errorf("constant pool has %d entries: %w", len(p.entries), ErrTooLarge)
	}
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e.Tag == 0 {
			continue
		}
		w.WriteU8(uint8(e.Tag))
		switch e.Tag {
		case TagUtf8:
			b := encodeMUTF8(e.Str)
			if err := w.WriteLen16(len(b)); err != nil {
				return fmt.Errorf("utf8 entry %d is %d bytes: %w", i, len(b), ErrTooLarge)
			}
			w.WriteBytes(b)
		case TagInteger, TagFloat:
			w.WriteU32(uint32(e.Bits))
		case TagLong, TagDouble:
			w.WriteU64(e.Bits)
		case TagClass, TagString, TagMethodType, TagModule, TagPackage:
			w.WriteU16(e.A)
		case TagMethodHandle:
			w.WriteU8(uint8(e.A))
			w.WriteU16(e.B)
		default:
			w.WriteU16(e.A)
			w.WriteU16(e.B)
		}
	}
	return nil
}
