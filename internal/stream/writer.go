package stream

import (
	"encoding/binary"
	"math"
)

// Writer accumulates big-endian binary data in memory.
// The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written data. The slice aliases the Writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteU8 writes an unsigned 8-bit integer.
func (w *Writer) WriteU8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteU16 writes an unsigned 16-bit integer.
func (w *Writer) WriteU16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

// WriteU32 writes an unsigned 32-bit integer.
func (w *Writer) WriteU32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

// WriteU64 writes an unsigned 64-bit integer.
func (w *Writer) WriteU64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

// WriteFloat32 writes a 32-bit float.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteU32(math.Float32bits(v))
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(p []byte) {
	w.buf = append(w.buf, p...)
}

// WriteLen16 writes n as a u16 count, failing if it does not fit.
func (w *Writer) WriteLen16(n int) error {
	if n < 0 || n > math.MaxUint16 {
		return ErrTooLong
	}
	w.WriteU16(uint16(n))
	return nil
}

// PutU16 overwrites a previously written u16 at offset.
func (w *Writer) PutU16(offset int, v uint16) {
	binary.BigEndian.PutUint16(w.buf[offset:], v)
}

// PutU32 overwrites a previously written u32 at offset.
func (w *Writer) PutU32(offset int, v uint32) {
	binary.BigEndian.PutUint32(w.buf[offset:], v)
}
