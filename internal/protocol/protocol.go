// Package protocol implements the binary wire format spoken between clients
// and the server edge: one type-id byte followed by a payload whose length is
// fully determined by the packet's structure.
package protocol

// Version is the handshake protocol version accepted by the server.
const Version = 39

// Packet type ids.
const (
	IDKeepAlive              byte = 0x00
	IDLogin                  byte = 0x01
	IDHandshake              byte = 0x02
	IDChatMessage            byte = 0x03
	IDTimeUpdate             byte = 0x04
	IDEntityEquipment        byte = 0x05
	IDSpawnPosition          byte = 0x06
	IDUseEntity              byte = 0x07
	IDRespawn                byte = 0x09
	IDPlayer                 byte = 0x0a
	IDPlayerPosition         byte = 0x0b
	IDPlayerLook             byte = 0x0c
	IDPlayerPositionAndLook  byte = 0x0d
	IDPlayerDigging          byte = 0x0e
	IDPlayerBlockPlacement   byte = 0x0f
	IDHoldingChange          byte = 0x10
	IDAnimation              byte = 0x12
	IDEntityAction           byte = 0x13
	IDBlockChange            byte = 0x35
	IDWindowClose            byte = 0x65
	IDWindowClick            byte = 0x66
	IDSetSlot                byte = 0x67
	IDTransaction            byte = 0x6a
	IDUpdateSign             byte = 0x82
	IDIncrementStatistic     byte = 0xc8
	IDTabComplete            byte = 0xcb
	IDClientInfo             byte = 0xcc
	IDClientStatus           byte = 0xcd
	IDPluginMessage          byte = 0xfa
	IDServerListPing         byte = 0xfe
	IDDisconnect             byte = 0xff
)

// Digging statuses.
const (
	DigStarted   int8 = 0
	DigCancelled int8 = 1
	DigFinished  int8 = 2
	DigDropItem  int8 = 4
	DigShootItem int8 = 5
)

// Player inventory window and hotbar layout.
const (
	WindowPlayer   int8  = 0
	HotbarStart    int16 = 36
	HotbarSlots          = 9
	EmptyItem      int16 = -1
	MaxStackSize   int8  = 64
	NoTargetFace   int8  = -1
	NoTargetCoordY uint8 = 255
)
