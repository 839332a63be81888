package protocol

import (
	"errors"
	"fmt"
)

const (
	// Framing/decoding.
	ErrProtoUnknownPacket = "E_PROTO_UNKNOWN_PACKET"
	ErrProtoMalformed     = "E_PROTO_MALFORMED"
	ErrProtoBadVersion    = "E_PROTO_BAD_VERSION"
	ErrProtoNotLoggedIn   = "E_PROTO_NOT_LOGGED_IN"

	// Session admission.
	ErrServerFull = "E_SERVER_FULL"
	ErrDenied     = "E_DENIED"
	ErrKicked     = "E_KICKED"
	ErrIdle       = "E_IDLE"

	// Action layer.
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrStale         = "E_STALE"
	ErrVetoed        = "E_VETOED"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoUnknownPacket: {},
	ErrProtoMalformed:     {},
	ErrProtoBadVersion:    {},
	ErrProtoNotLoggedIn:   {},
	ErrServerFull:         {},
	ErrDenied:             {},
	ErrKicked:             {},
	ErrIdle:               {},
	ErrInvalidTarget:      {},
	ErrStale:              {},
	ErrVetoed:             {},
	ErrInternal:           {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

var (
	// ErrShortBuffer means the buffered bytes end before the field does.
	// It is a retry signal, never a connection error.
	ErrShortBuffer = errors.New("protocol: short buffer")

	ErrTextTooLong = errors.New("protocol: text length exceeds limit")
)

// Error is a fatal protocol or admission error. Msg is the disconnect reason
// shown to the client.
type Error struct {
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Reason returns the client-facing disconnect reason for err.
func Reason(err error) string {
	var pe *Error
	if errors.As(err, &pe) && pe.Msg != "" {
		return pe.Msg
	}
	return "Protocol error"
}

func malformed(format string, args ...any) *Error {
	return &Error{Code: ErrProtoMalformed, Msg: fmt.Sprintf(format, args...)}
}

func UnknownPacket(id byte) *Error {
	return &Error{Code: ErrProtoUnknownPacket, Msg: fmt.Sprintf("Unknown packet 0x%02x", id)}
}
