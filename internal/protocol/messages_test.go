package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerBlockPlacement_ConditionalSlotShape(t *testing.T) {
	empty := (&PlayerBlockPlacement{X: 1, Y: 64, Z: -3, Face: 1, Held: EmptySlot()}).Encode()
	// id + x + y + z + face + item id + cursor
	require.Equal(t, 1+4+1+4+1+2+3, len(empty))

	noNBT := (&PlayerBlockPlacement{Held: Slot{ItemID: 1, Count: 3}}).Encode()
	require.Equal(t, len(empty)+1+2+2, len(noNBT))

	withNBT := &PlayerBlockPlacement{X: 5, Y: 10, Z: 6, Face: 2, Held: Slot{ItemID: 276, Count: 1, Damage: 12, NBT: []byte{0x1f, 0x8b, 0, 0}}, CursorX: 8}
	b := withNBT.Encode()
	require.Equal(t, len(noNBT)+4, len(b))

	var got PlayerBlockPlacement
	r := NewReader(b[1:], DefaultLimits())
	got.Decode(r)
	require.NoError(t, r.Err())
	assert.Equal(t, *withNBT, got)
	assert.Equal(t, len(b)-1, r.Offset())
}

func TestPlayerBlockPlacement_NoTarget(t *testing.T) {
	m := PlayerBlockPlacement{X: -1, Y: 255, Z: -1, Face: -1}
	assert.True(t, m.NoTarget())
	m.Y = 254
	assert.False(t, m.NoTarget())
}

func TestSlot_OversizedNBTIsMalformed(t *testing.T) {
	b := NewWriter(IDSetSlot).Int8(0).Int16(36).Int16(1).Int8(1).Int16(0).Int16(4096).Bytes()
	var m SetSlot
	r := NewReader(b[1:], Limits{MaxBlobBytes: 1024})
	m.Decode(r)

	var pe *Error
	require.True(t, errors.As(r.Err(), &pe))
	assert.Equal(t, ErrProtoMalformed, pe.Code)
}

func TestPluginMessage_NegativeLengthIsMalformed(t *testing.T) {
	b := NewWriter(IDPluginMessage).String("MC|Brand").Int16(-4).Bytes()
	var m PluginMessage
	r := NewReader(b[1:], DefaultLimits())
	m.Decode(r)
	require.Error(t, r.Err())
	assert.False(t, errors.Is(r.Err(), ErrShortBuffer))
}

func TestDecode_ClientboundPackets(t *testing.T) {
	stream := append((&BlockChange{X: 10, Y: 64, Z: -7, Type: 12, Meta: 3}).Encode(),
		(&Disconnect{Reason: "Server is full"}).Encode()...)

	m, n, err := Decode(stream, DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, &BlockChange{X: 10, Y: 64, Z: -7, Type: 12, Meta: 3}, m)

	m, _, err = Decode(stream[n:], DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, "Server is full", m.(*Disconnect).Reason)

	_, _, err = Decode(stream[:n-1], DefaultLimits())
	assert.ErrorIs(t, err, ErrShortBuffer)

	_, _, err = Decode([]byte{0x7e}, DefaultLimits())
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrProtoUnknownPacket, pe.Code)
}
