package session

import (
	"github.com/poizan42/mineserver/internal/protocol"
	"github.com/poizan42/mineserver/internal/sim/world"
)

func handleDigging(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.PlayerDigging
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	w := s.hub.world
	if w == nil {
		return OK, nil
	}
	name := s.Name()
	p := world.Pos{X: int(m.X), Y: int(m.Y), Z: int(m.Z), Dim: s.Dimension()}
	face := world.FaceFromWire(m.Face)
	switch m.Status {
	case protocol.DigStarted:
		w.DigStarted(name, p, face)
	case protocol.DigCancelled:
		w.DigCancelled(name, p)
	case protocol.DigFinished:
		w.DigFinished(name, p, face)
	case protocol.DigDropItem:
		s.dropHeld()
	}
	return OK, nil
}

func handleBlockPlacement(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.PlayerBlockPlacement
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	w := s.hub.world
	if w == nil {
		return OK, nil
	}
	w.Place(world.PlaceRequest{
		Actor:    s.Name(),
		Clicked:  world.Pos{X: int(m.X), Y: int(m.Y), Z: int(m.Z), Dim: s.Dimension()},
		Face:     world.FaceFromWire(m.Face),
		Item:     fromSlot(m.Held),
		NoTarget: m.NoTarget(),
	})
	return OK, nil
}

func handleUpdateSign(s *Session, r *protocol.Reader) (Verdict, error) {
	var m protocol.UpdateSign
	if v, err := decodeInto(r, &m); v != OK || err != nil {
		return v, err
	}
	w := s.hub.world
	if w == nil {
		return OK, nil
	}
	p := world.Pos{X: int(m.X), Y: int(m.Y), Z: int(m.Z), Dim: s.Dimension()}
	if c, ok := w.Store().Get(p); !ok || c.Empty() {
		return OK, nil
	}
	s.hub.setSign(p, m.Lines)
	s.hub.Broadcast(signPacket(p, m.Lines), s)
	return OK, nil
}

// dropHeld removes one item from the held stack.
func (s *Session) dropHeld() {
	it := s.HeldItem()
	if it.Empty() {
		return
	}
	it.Count--
	if it.Count <= 0 {
		it = world.NoItem()
	}
	s.setHeldItem(it)
}

func signPacket(p world.Pos, lines [4]string) []byte {
	m := protocol.UpdateSign{X: int32(p.X), Y: int16(p.Y), Z: int32(p.Z), Lines: lines}
	return m.Encode()
}
