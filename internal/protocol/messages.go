package protocol

// Message is a decoded packet payload.
//
// Decode reads the payload (without the type id) from r; failures are
// reported through r.Err(). Encode returns the full packet including the id.
type Message interface {
	ID() byte
	Decode(r *Reader)
	Encode() []byte
}

// Slot is an item stack as carried on the wire.
type Slot struct {
	ItemID int16
	Count  int8
	Damage int16
	NBT    []byte
}

func EmptySlot() Slot { return Slot{ItemID: EmptyItem} }

func (s Slot) Empty() bool { return s.ItemID == EmptyItem || s.Count <= 0 }

func (s *Slot) decode(r *Reader) {
	s.ItemID = r.Int16()
	if r.Err() != nil || s.ItemID == EmptyItem {
		return
	}
	s.Count = r.Int8()
	s.Damage = r.Int16()
	n := r.Int16()
	if r.Err() != nil || n == -1 {
		return
	}
	if !r.BlobLen(int(n)) {
		return
	}
	s.NBT = r.Bytes(int(n))
}

func (s Slot) encode(w *Writer) {
	if s.ItemID == EmptyItem {
		w.Int16(EmptyItem)
		return
	}
	w.Int16(s.ItemID).Int8(s.Count).Int16(s.Damage)
	if s.NBT == nil {
		w.Int16(-1)
		return
	}
	w.Int16(int16(len(s.NBT))).Raw(s.NBT)
}

type KeepAlive struct {
	KeepAliveID int32
}

func (*KeepAlive) ID() byte           { return IDKeepAlive }
func (m *KeepAlive) Decode(r *Reader) { m.KeepAliveID = r.Int32() }
func (m *KeepAlive) Encode() []byte   { return NewWriter(IDKeepAlive).Int32(m.KeepAliveID).Bytes() }

type Handshake struct {
	Version  int8
	Username string
	Host     string
	Port     int32
}

func (*Handshake) ID() byte { return IDHandshake }

func (m *Handshake) Decode(r *Reader) {
	m.Version = r.Int8()
	m.Username = r.String()
	m.Host = r.String()
	m.Port = r.Int32()
}

func (m *Handshake) Encode() []byte {
	return NewWriter(IDHandshake).Int8(m.Version).String(m.Username).String(m.Host).Int32(m.Port).Bytes()
}

type ChatMessage struct {
	Message string
}

func (*ChatMessage) ID() byte           { return IDChatMessage }
func (m *ChatMessage) Decode(r *Reader) { m.Message = r.String() }
func (m *ChatMessage) Encode() []byte   { return NewWriter(IDChatMessage).String(m.Message).Bytes() }

type UseEntity struct {
	User      int32
	Target    int32
	LeftClick bool
}

func (*UseEntity) ID() byte { return IDUseEntity }

func (m *UseEntity) Decode(r *Reader) {
	m.User = r.Int32()
	m.Target = r.Int32()
	m.LeftClick = r.Bool()
}

func (m *UseEntity) Encode() []byte {
	return NewWriter(IDUseEntity).Int32(m.User).Int32(m.Target).Bool(m.LeftClick).Bytes()
}

type Respawn struct {
	Dimension  int32
	Difficulty int8
	GameMode   int8
	Height     int16
	LevelType  string
}

func (*Respawn) ID() byte { return IDRespawn }

func (m *Respawn) Decode(r *Reader) {
	m.Dimension = r.Int32()
	m.Difficulty = r.Int8()
	m.GameMode = r.Int8()
	m.Height = r.Int16()
	m.LevelType = r.String()
}

func (m *Respawn) Encode() []byte {
	return NewWriter(IDRespawn).Int32(m.Dimension).Int8(m.Difficulty).Int8(m.GameMode).Int16(m.Height).String(m.LevelType).Bytes()
}

type Player struct {
	OnGround bool
}

func (*Player) ID() byte           { return IDPlayer }
func (m *Player) Decode(r *Reader) { m.OnGround = r.Bool() }
func (m *Player) Encode() []byte   { return NewWriter(IDPlayer).Bool(m.OnGround).Bytes() }

type PlayerPosition struct {
	X, Y, Stance, Z float64
	OnGround        bool
}

func (*PlayerPosition) ID() byte { return IDPlayerPosition }

func (m *PlayerPosition) Decode(r *Reader) {
	m.X = r.Float64()
	m.Y = r.Float64()
	m.Stance = r.Float64()
	m.Z = r.Float64()
	m.OnGround = r.Bool()
}

func (m *PlayerPosition) Encode() []byte {
	return NewWriter(IDPlayerPosition).Float64(m.X).Float64(m.Y).Float64(m.Stance).Float64(m.Z).Bool(m.OnGround).Bytes()
}

type PlayerLook struct {
	Yaw, Pitch float32
	OnGround   bool
}

func (*PlayerLook) ID() byte { return IDPlayerLook }

func (m *PlayerLook) Decode(r *Reader) {
	m.Yaw = r.Float32()
	m.Pitch = r.Float32()
	m.OnGround = r.Bool()
}

func (m *PlayerLook) Encode() []byte {
	return NewWriter(IDPlayerLook).Float32(m.Yaw).Float32(m.Pitch).Bool(m.OnGround).Bytes()
}

type PlayerPositionAndLook struct {
	X, Y, Stance, Z float64
	Yaw, Pitch      float32
	OnGround        bool
}

func (*PlayerPositionAndLook) ID() byte { return IDPlayerPositionAndLook }

func (m *PlayerPositionAndLook) Decode(r *Reader) {
	m.X = r.Float64()
	m.Y = r.Float64()
	m.Stance = r.Float64()
	m.Z = r.Float64()
	m.Yaw = r.Float32()
	m.Pitch = r.Float32()
	m.OnGround = r.Bool()
}

func (m *PlayerPositionAndLook) Encode() []byte {
	return NewWriter(IDPlayerPositionAndLook).
		Float64(m.X).Float64(m.Y).Float64(m.Stance).Float64(m.Z).
		Float32(m.Yaw).Float32(m.Pitch).Bool(m.OnGround).Bytes()
}

type PlayerDigging struct {
	Status int8
	X      int32
	Y      uint8
	Z      int32
	Face   int8
}

func (*PlayerDigging) ID() byte { return IDPlayerDigging }

func (m *PlayerDigging) Decode(r *Reader) {
	m.Status = r.Int8()
	m.X = r.Int32()
	m.Y = r.Uint8()
	m.Z = r.Int32()
	m.Face = r.Int8()
}

func (m *PlayerDigging) Encode() []byte {
	return NewWriter(IDPlayerDigging).Int8(m.Status).Int32(m.X).Uint8(m.Y).Int32(m.Z).Int8(m.Face).Bytes()
}

// PlayerBlockPlacement carries a conditionally shaped slot: the count,
// damage and NBT length only follow a non-empty item id, and the NBT bytes
// only follow a non-negative length.
type PlayerBlockPlacement struct {
	X       int32
	Y       uint8
	Z       int32
	Face    int8
	Held    Slot
	CursorX int8
	CursorY int8
	CursorZ int8
}

func (*PlayerBlockPlacement) ID() byte { return IDPlayerBlockPlacement }

func (m *PlayerBlockPlacement) Decode(r *Reader) {
	m.X = r.Int32()
	m.Y = r.Uint8()
	m.Z = r.Int32()
	m.Face = r.Int8()
	m.Held.decode(r)
	m.CursorX = r.Int8()
	m.CursorY = r.Int8()
	m.CursorZ = r.Int8()
}

func (m *PlayerBlockPlacement) Encode() []byte {
	w := NewWriter(IDPlayerBlockPlacement).Int32(m.X).Uint8(m.Y).Int32(m.Z).Int8(m.Face)
	m.Held.encode(w)
	return w.Int8(m.CursorX).Int8(m.CursorY).Int8(m.CursorZ).Bytes()
}

// NoTarget reports the "used item without pointing at a block" sentinel.
func (m *PlayerBlockPlacement) NoTarget() bool {
	return m.Face == NoTargetFace && m.X == -1 && m.Y == NoTargetCoordY && m.Z == -1
}

type HoldingChange struct {
	Slot int16
}

func (*HoldingChange) ID() byte           { return IDHoldingChange }
func (m *HoldingChange) Decode(r *Reader) { m.Slot = r.Int16() }
func (m *HoldingChange) Encode() []byte   { return NewWriter(IDHoldingChange).Int16(m.Slot).Bytes() }

type Animation struct {
	EntityID  int32
	Animation int8
}

func (*Animation) ID() byte { return IDAnimation }

func (m *Animation) Decode(r *Reader) {
	m.EntityID = r.Int32()
	m.Animation = r.Int8()
}

func (m *Animation) Encode() []byte {
	return NewWriter(IDAnimation).Int32(m.EntityID).Int8(m.Animation).Bytes()
}

type EntityAction struct {
	EntityID int32
	Action   int8
}

func (*EntityAction) ID() byte { return IDEntityAction }

func (m *EntityAction) Decode(r *Reader) {
	m.EntityID = r.Int32()
	m.Action = r.Int8()
}

func (m *EntityAction) Encode() []byte {
	return NewWriter(IDEntityAction).Int32(m.EntityID).Int8(m.Action).Bytes()
}

type WindowClose struct {
	WindowID int8
}

func (*WindowClose) ID() byte           { return IDWindowClose }
func (m *WindowClose) Decode(r *Reader) { m.WindowID = r.Int8() }
func (m *WindowClose) Encode() []byte   { return NewWriter(IDWindowClose).Int8(m.WindowID).Bytes() }

type WindowClick struct {
	WindowID   int8
	Slot       int16
	RightClick int8
	Action     int16
	Shift      int8
	Item       Slot
}

func (*WindowClick) ID() byte { return IDWindowClick }

func (m *WindowClick) Decode(r *Reader) {
	m.WindowID = r.Int8()
	m.Slot = r.Int16()
	m.RightClick = r.Int8()
	m.Action = r.Int16()
	m.Shift = r.Int8()
	m.Item.decode(r)
}

func (m *WindowClick) Encode() []byte {
	w := NewWriter(IDWindowClick).Int8(m.WindowID).Int16(m.Slot).Int8(m.RightClick).Int16(m.Action).Int8(m.Shift)
	m.Item.encode(w)
	return w.Bytes()
}

type Transaction struct {
	WindowID int8
	Action   int16
	Accepted bool
}

func (*Transaction) ID() byte { return IDTransaction }

func (m *Transaction) Decode(r *Reader) {
	m.WindowID = r.Int8()
	m.Action = r.Int16()
	m.Accepted = r.Bool()
}

func (m *Transaction) Encode() []byte {
	return NewWriter(IDTransaction).Int8(m.WindowID).Int16(m.Action).Bool(m.Accepted).Bytes()
}

type UpdateSign struct {
	X     int32
	Y     int16
	Z     int32
	Lines [4]string
}

func (*UpdateSign) ID() byte { return IDUpdateSign }

func (m *UpdateSign) Decode(r *Reader) {
	m.X = r.Int32()
	m.Y = r.Int16()
	m.Z = r.Int32()
	for i := range m.Lines {
		m.Lines[i] = r.String()
	}
}

func (m *UpdateSign) Encode() []byte {
	w := NewWriter(IDUpdateSign).Int32(m.X).Int16(m.Y).Int32(m.Z)
	for _, l := range m.Lines {
		w.String(l)
	}
	return w.Bytes()
}

type IncrementStatistic struct {
	StatisticID int32
	Amount      int8
}

func (*IncrementStatistic) ID() byte { return IDIncrementStatistic }

func (m *IncrementStatistic) Decode(r *Reader) {
	m.StatisticID = r.Int32()
	m.Amount = r.Int8()
}

func (m *IncrementStatistic) Encode() []byte {
	return NewWriter(IDIncrementStatistic).Int32(m.StatisticID).Int8(m.Amount).Bytes()
}

type TabComplete struct {
	Text string
}

func (*TabComplete) ID() byte           { return IDTabComplete }
func (m *TabComplete) Decode(r *Reader) { m.Text = r.String() }
func (m *TabComplete) Encode() []byte   { return NewWriter(IDTabComplete).String(m.Text).Bytes() }

type ClientInfo struct {
	Locale       string
	ViewDistance int8
	ChatFlags    int8
	Difficulty   int8
	ShowCape     bool
}

func (*ClientInfo) ID() byte { return IDClientInfo }

func (m *ClientInfo) Decode(r *Reader) {
	m.Locale = r.String()
	m.ViewDistance = r.Int8()
	m.ChatFlags = r.Int8()
	m.Difficulty = r.Int8()
	m.ShowCape = r.Bool()
}

func (m *ClientInfo) Encode() []byte {
	return NewWriter(IDClientInfo).String(m.Locale).Int8(m.ViewDistance).Int8(m.ChatFlags).Int8(m.Difficulty).Bool(m.ShowCape).Bytes()
}

type ClientStatus struct {
	Payload int8
}

func (*ClientStatus) ID() byte           { return IDClientStatus }
func (m *ClientStatus) Decode(r *Reader) { m.Payload = r.Int8() }
func (m *ClientStatus) Encode() []byte   { return NewWriter(IDClientStatus).Int8(m.Payload).Bytes() }

type PluginMessage struct {
	Channel string
	Data    []byte
}

func (*PluginMessage) ID() byte { return IDPluginMessage }

func (m *PluginMessage) Decode(r *Reader) {
	m.Channel = r.String()
	n := r.Int16()
	if r.Err() != nil || !r.BlobLen(int(n)) {
		return
	}
	m.Data = r.Bytes(int(n))
}

func (m *PluginMessage) Encode() []byte {
	return NewWriter(IDPluginMessage).String(m.Channel).Int16(int16(len(m.Data))).Raw(m.Data).Bytes()
}

type ServerListPing struct{}

func (*ServerListPing) ID() byte       { return IDServerListPing }
func (*ServerListPing) Decode(*Reader) {}
func (*ServerListPing) Encode() []byte { return NewWriter(IDServerListPing).Bytes() }

// Disconnect is sent by clients leaving and by the server as a kick.
type Disconnect struct {
	Reason string
}

func (*Disconnect) ID() byte           { return IDDisconnect }
func (m *Disconnect) Decode(r *Reader) { m.Reason = r.String() }
func (m *Disconnect) Encode() []byte   { return NewWriter(IDDisconnect).String(m.Reason).Bytes() }

// Server to client only.

type Login struct {
	EntityID   int32
	LevelType  string
	GameMode   int8
	Dimension  int8
	Difficulty int8
	MaxPlayers uint8
}

func (*Login) ID() byte { return IDLogin }

func (m *Login) Decode(r *Reader) {
	m.EntityID = r.Int32()
	m.LevelType = r.String()
	m.GameMode = r.Int8()
	m.Dimension = r.Int8()
	m.Difficulty = r.Int8()
	r.Uint8()
	m.MaxPlayers = r.Uint8()
}

func (m *Login) Encode() []byte {
	return NewWriter(IDLogin).Int32(m.EntityID).String(m.LevelType).
		Int8(m.GameMode).Int8(m.Dimension).Int8(m.Difficulty).Uint8(0).Uint8(m.MaxPlayers).Bytes()
}

type SpawnPosition struct {
	X, Y, Z int32
}

func (*SpawnPosition) ID() byte { return IDSpawnPosition }

func (m *SpawnPosition) Decode(r *Reader) {
	m.X = r.Int32()
	m.Y = r.Int32()
	m.Z = r.Int32()
}

func (m *SpawnPosition) Encode() []byte {
	return NewWriter(IDSpawnPosition).Int32(m.X).Int32(m.Y).Int32(m.Z).Bytes()
}

type BlockChange struct {
	X    int32
	Y    int8
	Z    int32
	Type int16
	Meta int8
}

func (*BlockChange) ID() byte { return IDBlockChange }

func (m *BlockChange) Decode(r *Reader) {
	m.X = r.Int32()
	m.Y = r.Int8()
	m.Z = r.Int32()
	m.Type = r.Int16()
	m.Meta = r.Int8()
}

func (m *BlockChange) Encode() []byte {
	return NewWriter(IDBlockChange).Int32(m.X).Int8(m.Y).Int32(m.Z).Int16(m.Type).Int8(m.Meta).Bytes()
}

type SetSlot struct {
	WindowID int8
	Slot     int16
	Item     Slot
}

func (*SetSlot) ID() byte { return IDSetSlot }

func (m *SetSlot) Decode(r *Reader) {
	m.WindowID = r.Int8()
	m.Slot = r.Int16()
	m.Item.decode(r)
}

func (m *SetSlot) Encode() []byte {
	w := NewWriter(IDSetSlot).Int8(m.WindowID).Int16(m.Slot)
	m.Item.encode(w)
	return w.Bytes()
}

type EntityEquipment struct {
	EntityID int32
	Slot     int16
	Item     Slot
}

func (*EntityEquipment) ID() byte { return IDEntityEquipment }

func (m *EntityEquipment) Decode(r *Reader) {
	m.EntityID = r.Int32()
	m.Slot = r.Int16()
	m.Item.decode(r)
}

func (m *EntityEquipment) Encode() []byte {
	w := NewWriter(IDEntityEquipment).Int32(m.EntityID).Int16(m.Slot)
	m.Item.encode(w)
	return w.Bytes()
}

// Decode parses a complete packet (id included) from b. It is meant for
// clients and tests; the server decodes incrementally through its dispatch
// table instead.
func Decode(b []byte, lim Limits) (Message, int, error) {
	if len(b) == 0 {
		return nil, 0, ErrShortBuffer
	}
	m := newClientbound(b[0])
	if m == nil {
		return nil, 0, UnknownPacket(b[0])
	}
	r := NewReader(b[1:], lim)
	m.Decode(r)
	if err := r.Err(); err != nil {
		return nil, 0, err
	}
	return m, 1 + r.Offset(), nil
}

func newClientbound(id byte) Message {
	switch id {
	case IDKeepAlive:
		return &KeepAlive{}
	case IDLogin:
		return &Login{}
	case IDChatMessage:
		return &ChatMessage{}
	case IDEntityEquipment:
		return &EntityEquipment{}
	case IDSpawnPosition:
		return &SpawnPosition{}
	case IDPlayerPositionAndLook:
		return &PlayerPositionAndLook{}
	case IDAnimation:
		return &Animation{}
	case IDBlockChange:
		return &BlockChange{}
	case IDSetSlot:
		return &SetSlot{}
	case IDUpdateSign:
		return &UpdateSign{}
	case IDDisconnect:
		return &Disconnect{}
	}
	return nil
}
