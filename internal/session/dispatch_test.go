package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poizan42/mineserver/internal/protocol"
)

func TestDefaultTableFixedLengths(t *testing.T) {
	msgs := []protocol.Message{
		&protocol.KeepAlive{},
		&protocol.UseEntity{},
		&protocol.Player{},
		&protocol.PlayerPosition{},
		&protocol.PlayerLook{},
		&protocol.PlayerPositionAndLook{},
		&protocol.PlayerDigging{},
		&protocol.HoldingChange{},
		&protocol.Animation{},
		&protocol.EntityAction{},
		&protocol.WindowClose{},
		&protocol.Transaction{},
		&protocol.IncrementStatistic{},
		&protocol.ClientStatus{},
		&protocol.ServerListPing{},
	}
	table := DefaultTable()
	for _, m := range msgs {
		e, ok := table.Lookup(m.ID())
		require.True(t, ok, "0x%02x not registered", m.ID())
		assert.Equal(t, len(m.Encode())-1, e.MinLen, "0x%02x MinLen vs encoded payload", m.ID())
	}
}

func TestDefaultTableVariableEntries(t *testing.T) {
	table := DefaultTable()
	for _, id := range []byte{
		protocol.IDHandshake, protocol.IDChatMessage, protocol.IDRespawn,
		protocol.IDPlayerBlockPlacement, protocol.IDWindowClick, protocol.IDUpdateSign,
		protocol.IDTabComplete, protocol.IDClientInfo, protocol.IDPluginMessage, protocol.IDDisconnect,
	} {
		e, ok := table.Lookup(id)
		require.True(t, ok, "0x%02x not registered", id)
		assert.Equal(t, Variable, e.MinLen, "0x%02x", id)
	}
	_, ok := table.Lookup(protocol.IDBlockChange)
	assert.False(t, ok, "server-only packets must not be accepted")
}

func TestDefaultTablePreLogin(t *testing.T) {
	table := DefaultTable()
	pre := map[byte]bool{}
	for _, id := range table.IDs() {
		e, _ := table.Lookup(id)
		if e.PreLogin {
			pre[id] = true
		}
	}
	for _, id := range []byte{protocol.IDKeepAlive, protocol.IDHandshake, protocol.IDServerListPing, protocol.IDDisconnect} {
		assert.True(t, pre[id], "0x%02x should be accepted before login", id)
	}
	assert.False(t, pre[protocol.IDPlayerDigging], "world packets must require login")
	assert.False(t, pre[protocol.IDChatMessage], "world packets must require login")
}

func TestTableRegisterPanics(t *testing.T) {
	noop := func(*Session, *protocol.Reader) (Verdict, error) { return OK, nil }
	cases := map[string]func(*Table){
		"nil handler": func(tb *Table) { tb.Register(1, Entry{}) },
		"bad min":     func(tb *Table) { tb.Register(1, Entry{MinLen: -2, Handle: noop}) },
		"duplicate": func(tb *Table) {
			tb.Register(1, Entry{Handle: noop})
			tb.Register(1, Entry{Handle: noop})
		},
	}
	for name, f := range cases {
		assert.Panics(t, func() { f(NewTable()) }, name)
	}
}

func TestTableIDsSorted(t *testing.T) {
	ids := DefaultTable().IDs()
	for i := 1; i < len(ids); i++ {
		require.Less(t, ids[i-1], ids[i], "ids not strictly ascending at %d: %v", i, ids)
	}
}
