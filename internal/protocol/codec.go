package protocol

import (
	"encoding/binary"
	"math"
)

// Limits bound the variable-length fields a peer may declare.
type Limits struct {
	// MaxTextUnits is the largest accepted UTF-16 code unit count for a text field.
	MaxTextUnits int
	// MaxBlobBytes is the largest accepted length for an opaque byte field.
	MaxBlobBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxTextUnits: 1024, MaxBlobBytes: 32 * 1024}
}

// Reader is a sequential cursor over buffered wire bytes.
//
// Reads are sticky: the first read that runs out of bytes records
// ErrShortBuffer and every later read returns the zero value. The cursor only
// moves on successful reads, so a failed decode never consumes anything.
type Reader struct {
	b   []byte
	off int
	err error

	lim Limits
}

func NewReader(b []byte, lim Limits) *Reader {
	def := DefaultLimits()
	if lim.MaxTextUnits <= 0 {
		lim.MaxTextUnits = def.MaxTextUnits
	}
	if lim.MaxBlobBytes <= 0 {
		lim.MaxBlobBytes = def.MaxBlobBytes
	}
	return &Reader{b: b, lim: lim}
}

// BlobLen validates a peer-declared opaque length against the limits.
func (r *Reader) BlobLen(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || n > r.lim.MaxBlobBytes {
		r.err = malformed("declared length %d out of range", n)
		return false
	}
	return true
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining is the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.b) - r.off }

func (r *Reader) Err() error { return r.err }

// HaveData reports whether n more unread bytes are buffered.
func (r *Reader) HaveData(n int) bool {
	return r.err == nil && n >= 0 && r.Remaining() >= n
}

// Fail records err unless an earlier error is already set.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.Remaining() < n {
		r.err = ErrShortBuffer
		return nil
	}
	p := r.b[r.off : r.off+n]
	r.off += n
	return p
}

func (r *Reader) Uint8() uint8 {
	p := r.take(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (r *Reader) Int8() int8 { return int8(r.Uint8()) }

func (r *Reader) Bool() bool { return r.Uint8() != 0 }

func (r *Reader) Uint16() uint16 {
	p := r.take(2)
	if p == nil {
		return 0
	}
	return binary.BigEndian.Uint16(p)
}

func (r *Reader) Int16() int16 { return int16(r.Uint16()) }

func (r *Reader) Int32() int32 {
	p := r.take(4)
	if p == nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(p))
}

func (r *Reader) Int64() int64 {
	p := r.take(8)
	if p == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(p))
}

func (r *Reader) Float32() float32 {
	p := r.take(4)
	if p == nil {
		return 0
	}
	return math.Float32frombits(binary.BigEndian.Uint32(p))
}

func (r *Reader) Float64() float64 {
	p := r.take(8)
	if p == nil {
		return 0
	}
	return math.Float64frombits(binary.BigEndian.Uint64(p))
}

// Bytes returns a copy of the next n bytes.
func (r *Reader) Bytes(n int) []byte {
	if n < 0 {
		r.Fail(malformed("negative byte length %d", n))
		return nil
	}
	p := r.take(n)
	if p == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, p)
	return out
}

// Skip advances past n bytes without copying them.
func (r *Reader) Skip(n int) {
	if n < 0 {
		r.Fail(malformed("negative skip length %d", n))
		return
	}
	r.take(n)
}

// String reads a code-unit-count prefixed UTF-16BE string.
func (r *Reader) String() string {
	if r.err != nil {
		return ""
	}
	if r.Remaining() < 2 {
		r.err = ErrShortBuffer
		return ""
	}
	n := int(binary.BigEndian.Uint16(r.b[r.off:]))
	if n > r.lim.MaxTextUnits {
		r.err = &Error{Code: ErrProtoMalformed, Msg: "text field too long", Err: ErrTextTooLong}
		return ""
	}
	if r.Remaining() < 2+2*n {
		r.err = ErrShortBuffer
		return ""
	}
	r.off += 2
	units := r.b[r.off : r.off+2*n]
	r.off += 2 * n
	s, err := decodeUTF16(units)
	if err != nil {
		r.err = &Error{Code: ErrProtoMalformed, Msg: "bad text encoding", Err: err}
		return ""
	}
	return s
}

// Writer builds an outbound packet.
type Writer struct {
	buf []byte
}

func NewWriter(id byte) *Writer {
	w := &Writer{buf: make([]byte, 0, 32)}
	w.buf = append(w.buf, id)
	return w
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Uint8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) Int8(v int8) *Writer { return w.Uint8(uint8(v)) }

func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.Uint8(1)
	}
	return w.Uint8(0)
}

func (w *Writer) Uint16(v uint16) *Writer {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) Int16(v int16) *Writer { return w.Uint16(uint16(v)) }

func (w *Writer) Int32(v int32) *Writer {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
	return w
}

func (w *Writer) Int64(v int64) *Writer {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
	return w
}

func (w *Writer) Float32(v float32) *Writer {
	w.buf = binary.BigEndian.AppendUint32(w.buf, math.Float32bits(v))
	return w
}

func (w *Writer) Float64(v float64) *Writer {
	w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(v))
	return w
}

func (w *Writer) Raw(p []byte) *Writer {
	w.buf = append(w.buf, p...)
	return w
}

// String writes s as UTF-16BE code units. Strings longer than 65535 code
// units are truncated at a code unit boundary.
func (w *Writer) String(s string) *Writer {
	units := encodeUTF16(s)
	n := len(units) / 2
	if n > math.MaxUint16 {
		n = math.MaxUint16
		units = units[:2*n]
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(n))
	w.buf = append(w.buf, units...)
	return w
}
