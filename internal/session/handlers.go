package session

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poizan42/mineserver/internal/protocol"
	"github.com/poizan42/mineserver/internal/sim/hooks"
	"github.com/poizan42/mineserver/internal/sim/world"
)

const maxNameLen = 16

func handleKeepAlive(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.KeepAlive
	return decodeInto(r, &m)
}

func handleServerListPing(s *Session, r *protocol.Reader) (Verdict, error) {
	h := s.hub
	s.Kick(fmt.Sprintf("%s§%d§%d", h.cfg.ServerName, h.Online(), h.cfg.UserLimit))
	return OK, nil
}

func handleDisconnect(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.Disconnect
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	s.logger.Printf("session %s (%s) disconnected: %s", s.ID, s.Name(), m.Reason)
	s.Close()
	return OK, nil
}

func handleHandshake(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.Handshake
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	if s.LoggedIn() {
		return OK, &protocol.Error{Code: protocol.ErrProtoMalformed, Msg: "Already logged in"}
	}
	return OK, s.hub.login(s, m)
}

// login admits s under the handshake's username and sends the initial
// world state.
func (h *Hub) login(s *Session, m protocol.Handshake) error {
	if int(m.Version) != h.cfg.ProtocolVersion {
		return &protocol.Error{Code: protocol.ErrProtoBadVersion, Msg: h.cfg.Messages.WrongProtocol}
	}
	name := strings.TrimSpace(m.Username)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return &protocol.Error{Code: protocol.ErrDenied, Msg: "Invalid username"}
	}
	if res := h.hooks.RunUntilVeto(hooks.LoginPre, hooks.Event{Actor: name, Text: m.Host}); res.Vetoed() {
		msg := res.Reason()
		if msg == "" {
			msg = h.cfg.Messages.Denied
		}
		return &protocol.Error{Code: protocol.ErrDenied, Msg: msg}
	}
	if err := h.admit(s, name); err != nil {
		return err
	}

	wp := h.cfg.World
	spawn := [3]float64{float64(wp.Spawn[0]) + 0.5, float64(wp.Spawn[1]), float64(wp.Spawn[2]) + 0.5}
	saved, known := h.savedPlayer(name)

	s.mu.Lock()
	s.loggedIn = true
	s.name = name
	s.entityID = h.nextEID.Add(1)
	s.pos = spawn
	if known {
		s.restorePlayerLocked(saved)
	} else {
		for slot, it := range h.cfg.StarterItems {
			s.inv.Set(int(protocol.HotbarStart)+slot, world.Item{ID: it.ID, Count: it.Count, Damage: it.Damage})
		}
	}
	eid, dim, pos := s.entityID, s.dim, s.pos
	hotbar := s.inv.Hotbar()
	s.mu.Unlock()

	h.stats.logins.Add(1)
	h.logger.Printf("player %s logged in (session %s, entity %d)", name, s.ID, eid)
	h.logEvent(s, EventLogin, name, "")

	login := protocol.Login{
		EntityID:   eid,
		LevelType:  "flat",
		GameMode:   wp.GameMode,
		Dimension:  dim,
		Difficulty: wp.Difficulty,
		MaxPlayers: uint8(h.cfg.UserLimit),
	}
	s.Send(login.Encode())
	sp := protocol.SpawnPosition{X: int32(wp.Spawn[0]), Y: int32(wp.Spawn[1]), Z: int32(wp.Spawn[2])}
	s.Send(sp.Encode())
	for i, it := range hotbar {
		if !it.Empty() {
			s.Send(setSlotPacket(int(protocol.HotbarStart)+i, it))
		}
	}
	for p, lines := range h.signsIn(dim) {
		s.Send(signPacket(p, lines))
	}
	pl := protocol.PlayerPositionAndLook{X: pos[0], Y: pos[1] + 1.62, Stance: pos[1], Z: pos[2]}
	s.Send(pl.Encode())

	h.hooks.RunAll(hooks.LoginPost, hooks.Event{Actor: name, Dim: dim})
	h.Broadcast(chatPacket(fmt.Sprintf("§e%s joined the game", name)), nil)
	return nil
}

func handleChat(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.ChatMessage
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	text := strings.TrimSpace(m.Message)
	if text == "" {
		return OK, nil
	}
	name := s.Name()
	if res := s.hub.hooks.RunUntilVeto(hooks.Chat, hooks.Event{Actor: name, Text: text}); res.Vetoed() {
		return OK, nil
	}
	s.hub.stats.chats.Add(1)
	s.hub.Broadcast(chatPacket(fmt.Sprintf("<%s> %s", name, text)), nil)
	return OK, nil
}

func handleRespawn(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.Respawn
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	sp := s.hub.cfg.World.Spawn
	pos := [3]float64{float64(sp[0]) + 0.5, float64(sp[1]), float64(sp[2]) + 0.5}
	s.mu.Lock()
	s.pos = pos
	s.mu.Unlock()
	pl := protocol.PlayerPositionAndLook{X: pos[0], Y: pos[1] + 1.62, Stance: pos[1], Z: pos[2]}
	s.Send(pl.Encode())
	return OK, nil
}

func handlePlayer(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.Player
	return decodeInto(r, &m)
}

func handlePlayerPosition(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.PlayerPosition
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	s.mu.Lock()
	s.pos = [3]float64{m.X, m.Y, m.Z}
	s.mu.Unlock()
	return OK, nil
}

func handlePlayerLook(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.PlayerLook
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	s.mu.Lock()
	s.yaw, s.pitch = m.Yaw, m.Pitch
	s.mu.Unlock()
	return OK, nil
}

func handlePlayerPositionAndLook(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.PlayerPositionAndLook
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	s.mu.Lock()
	s.pos = [3]float64{m.X, m.Y, m.Z}
	s.yaw, s.pitch = m.Yaw, m.Pitch
	s.mu.Unlock()
	return OK, nil
}

func handleHoldingChange(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.HoldingChange
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	s.mu.Lock()
	ok := s.inv.Select(int(m.Slot))
	held, eid := s.inv.Held(), s.entityID
	s.mu.Unlock()
	if !ok {
		return OK, nil
	}
	eq := protocol.EntityEquipment{EntityID: eid, Slot: 0, Item: toSlot(held)}
	s.hub.Broadcast(eq.Encode(), s)
	return OK, nil
}

func handleAnimation(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.Animation
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	s.mu.Lock()
	name, eid, dim := s.name, s.entityID, s.dim
	s.mu.Unlock()
	s.hub.hooks.RunAll(hooks.ArmSwing, hooks.Event{Actor: name, Dim: dim})
	out := protocol.Animation{EntityID: eid, Animation: m.Animation}
	s.hub.Broadcast(out.Encode(), s)
	return OK, nil
}
