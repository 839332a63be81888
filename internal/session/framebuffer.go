package session

import "errors"

// ErrBufferOverflow is returned when a peer sends more unparsed data than the
// buffer limit allows.
var ErrBufferOverflow = errors.New("session: frame buffer overflow")

// FrameBuffer accumulates bytes read from one connection. Bytes() is the
// unread region; Discard drops bytes belonging to a fully parsed message.
type FrameBuffer struct {
	buf []byte
	max int
}

func NewFrameBuffer(max int) *FrameBuffer {
	return &FrameBuffer{buf: make([]byte, 0, 4096), max: max}
}

func (b *FrameBuffer) Append(p []byte) error {
	if b.max > 0 && len(b.buf)+len(p) > b.max {
		return ErrBufferOverflow
	}
	b.buf = append(b.buf, p...)
	return nil
}

func (b *FrameBuffer) Len() int { return len(b.buf) }

// Have reports whether at least n unread bytes are buffered.
func (b *FrameBuffer) Have(n int) bool { return len(b.buf) >= n }

// Bytes returns the unread bytes. The slice is only valid until the next
// Append or Discard.
func (b *FrameBuffer) Bytes() []byte { return b.buf }

func (b *FrameBuffer) Discard(n int) {
	if n >= len(b.buf) {
		b.buf = b.buf[:0]
		return
	}
	b.buf = b.buf[:copy(b.buf, b.buf[n:])]
}
