package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/poizan42/mineserver/internal/protocol"
)

// Verdict is a packet handler's answer to the decoder.
type Verdict uint8

const (
	// OK means the message was consumed; the decoder discards it.
	OK Verdict = iota
	// NeedMoreData means the message is incomplete. Nothing is discarded and
	// the same bytes are parsed again once more data arrives.
	NeedMoreData
)

// Variable marks an entry whose handler checks readiness field by field.
const Variable = -1

// HandlerFunc decodes one message from r (positioned after the type id) and
// acts on it. It must not produce side effects before the whole payload has
// been decoded.
type HandlerFunc func(s *Session, r *protocol.Reader) (Verdict, error)

type Entry struct {
	// MinLen is the payload length excluding the type id, or Variable.
	MinLen int
	// PreLogin entries are accepted before the session has logged in.
	PreLogin bool
	Handle   HandlerFunc
}

// Table maps packet type ids to entries. It is built once and read-only
// afterwards.
type Table struct {
	entries [256]*Entry
}

func NewTable() *Table { return &Table{} }

// Register adds an entry. Registering an id twice is a programming error.
func (t *Table) Register(id byte, e Entry) {
	if e.Handle == nil {
		panic(fmt.Sprintf("session: nil handler for packet 0x%02x", id))
	}
	if e.MinLen < Variable {
		panic(fmt.Sprintf("session: bad min length %d for packet 0x%02x", e.MinLen, id))
	}
	if t.entries[id] != nil {
		panic(fmt.Sprintf("session: duplicate handler for packet 0x%02x", id))
	}
	t.entries[id] = &e
}

func (t *Table) Lookup(id byte) (*Entry, bool) {
	e := t.entries[id]
	return e, e != nil
}

// IDs lists the registered type ids in ascending order.
func (t *Table) IDs() []byte {
	var out []byte
	for id, e := range t.entries {
		if e != nil {
			out = append(out, byte(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// decodeInto decodes m from r and translates the reader's error into a
// verdict: a short buffer asks for more data, anything else is fatal.
func decodeInto(r *protocol.Reader, m protocol.Message) (Verdict, error) {
	m.Decode(r)
	err := r.Err()
	switch {
	case err == nil:
		return OK, nil
	case errors.Is(err, protocol.ErrShortBuffer):
		return NeedMoreData, nil
	default:
		return OK, err
	}
}

// DefaultTable is the client-to-server packet catalog.
func DefaultTable() *Table {
	t := NewTable()
	t.Register(protocol.IDKeepAlive, Entry{MinLen: 4, PreLogin: true, Handle: handleKeepAlive})
	t.Register(protocol.IDHandshake, Entry{MinLen: Variable, PreLogin: true, Handle: handleHandshake})
	t.Register(protocol.IDChatMessage, Entry{MinLen: Variable, Handle: handleChat})
	t.Register(protocol.IDUseEntity, Entry{MinLen: 9, Handle: consume(func() protocol.Message { return &protocol.UseEntity{} })})
	t.Register(protocol.IDRespawn, Entry{MinLen: Variable, Handle: handleRespawn})
	t.Register(protocol.IDPlayer, Entry{MinLen: 1, Handle: handlePlayer})
	t.Register(protocol.IDPlayerPosition, Entry{MinLen: 33, Handle: handlePlayerPosition})
	t.Register(protocol.IDPlayerLook, Entry{MinLen: 9, Handle: handlePlayerLook})
	t.Register(protocol.IDPlayerPositionAndLook, Entry{MinLen: 41, Handle: handlePlayerPositionAndLook})
	t.Register(protocol.IDPlayerDigging, Entry{MinLen: 11, Handle: handleDigging})
	t.Register(protocol.IDPlayerBlockPlacement, Entry{MinLen: Variable, Handle: handleBlockPlacement})
	t.Register(protocol.IDHoldingChange, Entry{MinLen: 2, Handle: handleHoldingChange})
	t.Register(protocol.IDAnimation, Entry{MinLen: 5, Handle: handleAnimation})
	t.Register(protocol.IDEntityAction, Entry{MinLen: 5, Handle: consume(func() protocol.Message { return &protocol.EntityAction{} })})
	t.Register(protocol.IDWindowClose, Entry{MinLen: 1, Handle: consume(func() protocol.Message { return &protocol.WindowClose{} })})
	t.Register(protocol.IDWindowClick, Entry{MinLen: Variable, Handle: consume(func() protocol.Message { return &protocol.WindowClick{} })})
	t.Register(protocol.IDTransaction, Entry{MinLen: 4, Handle: consume(func() protocol.Message { return &protocol.Transaction{} })})
	t.Register(protocol.IDUpdateSign, Entry{MinLen: Variable, Handle: handleUpdateSign})
	t.Register(protocol.IDIncrementStatistic, Entry{MinLen: 5, Handle: consume(func() protocol.Message { return &protocol.IncrementStatistic{} })})
	t.Register(protocol.IDTabComplete, Entry{MinLen: Variable, Handle: consume(func() protocol.Message { return &protocol.TabComplete{} })})
	t.Register(protocol.IDClientInfo, Entry{MinLen: Variable, Handle: consume(func() protocol.Message { return &protocol.ClientInfo{} })})
	t.Register(protocol.IDClientStatus, Entry{MinLen: 1, PreLogin: true, Handle: consume(func() protocol.Message { return &protocol.ClientStatus{} })})
	t.Register(protocol.IDPluginMessage, Entry{MinLen: Variable, PreLogin: true, Handle: consume(func() protocol.Message { return &protocol.PluginMessage{} })})
	t.Register(protocol.IDServerListPing, Entry{MinLen: 0, PreLogin: true, Handle: handleServerListPing})
	t.Register(protocol.IDDisconnect, Entry{MinLen: Variable, PreLogin: true, Handle: handleDisconnect})
	return t
}

// consume decodes and drops a message the server does not act on, keeping
// the stream in sync.
func consume(newMsg func() protocol.Message) HandlerFunc {
	return func(s *Session, r *protocol.Reader) (Verdict, error) {
		return decodeInto(r, newMsg())
	}
}
