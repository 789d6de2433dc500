// Package buffer provides the little-endian, length-prefixed wire form used
// for buffer-shaped ABI values. The reader fails loudly on truncation; the
// writer never fails.
package buffer

import (
	"encoding/binary"
	"errors"
)

// ErrTruncated is returned when a read runs past the end of the buffer.
var ErrTruncated = errors.New("buffer: truncated")

// Writer accumulates the wire form of one compound value.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with a small initial capacity.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf = append(w.buf, b)
}

// U16 writes a fixed-width little-endian uint16.
func (w *Writer) U16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// U32 writes a fixed-width little-endian uint32.
func (w *Writer) U32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// U64 writes a fixed-width little-endian uint64.
func (w *Writer) U64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// Raw writes a byte slice verbatim.
func (w *Writer) Raw(data []byte) {
	w.buf = append(w.buf, data...)
}

// Prefixed writes a u32 length prefix followed by the data.
func (w *Writer) Prefixed(data []byte) {
	w.U32(uint32(len(data)))
	w.Raw(data)
}

// Reader consumes the wire form of one compound value.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a Reader over buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Byte reads a single byte.
func (r *Reader) Byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, ErrTruncated
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// U16 reads a fixed-width little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

// U32 reads a fixed-width little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// U64 reads a fixed-width little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// Raw reads exactly n bytes. The returned slice aliases the buffer.
func (r *Reader) Raw(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrTruncated
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Prefixed reads a u32 length prefix and then that many bytes. A failed
// read consumes nothing, including the prefix.
func (r *Reader) Prefixed() ([]byte, error) {
	start := r.pos
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	b, err := r.Raw(int(n))
	if err != nil {
		r.pos = start
		return nil, err
	}
	return b, nil
}
