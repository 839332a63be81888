package session

import (
	"github.com/jinzhu/copier"

	"github.com/poizan42/mineserver/internal/persistence/snapshot"
	"github.com/poizan42/mineserver/internal/protocol"
	"github.com/poizan42/mineserver/internal/sim/world"
)

const inventorySlots = 45

// Inventory is the player inventory window. Slots 36..44 are the hotbar.
type Inventory struct {
	slots [inventorySlots]world.Item
	held  int
}

func newInventory() *Inventory {
	inv := &Inventory{}
	for i := range inv.slots {
		inv.slots[i] = world.NoItem()
	}
	return inv
}

func (inv *Inventory) HeldIndex() int { return int(protocol.HotbarStart) + inv.held }

func (inv *Inventory) Held() world.Item { return inv.slots[inv.HeldIndex()] }

func (inv *Inventory) Get(idx int) world.Item {
	if idx < 0 || idx >= inventorySlots {
		return world.NoItem()
	}
	return inv.slots[idx]
}

func (inv *Inventory) Set(idx int, it world.Item) {
	if idx < 0 || idx >= inventorySlots {
		return
	}
	if it.Empty() {
		it = world.NoItem()
	}
	inv.slots[idx] = it
}

// Select changes the held hotbar slot (0..8).
func (inv *Inventory) Select(slot int) bool {
	if slot < 0 || slot >= protocol.HotbarSlots {
		return false
	}
	inv.held = slot
	return true
}

func (inv *Inventory) Hotbar() []world.Item {
	out := make([]world.Item, protocol.HotbarSlots)
	copy(out, inv.slots[protocol.HotbarStart:])
	return out
}

func (inv *Inventory) SetHotbar(items []world.Item) {
	for i := 0; i < protocol.HotbarSlots; i++ {
		it := world.NoItem()
		if i < len(items) {
			it = items[i]
		}
		inv.Set(int(protocol.HotbarStart)+i, it)
	}
}

func (s *Session) exportPlayer() snapshot.PlayerV1 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := snapshot.PlayerV1{Name: s.name, Pos: s.pos, Dim: s.dim, Slot: s.inv.held}
	if err := copier.Copy(&p.Hotbar, s.inv.Hotbar()); err != nil {
		s.logger.Printf("session %s: export hotbar: %v", s.ID, err)
	}
	return p
}

// restorePlayer loads saved state; the caller holds s.mu.
func (s *Session) restorePlayerLocked(p snapshot.PlayerV1) {
	var items []world.Item
	if err := copier.Copy(&items, p.Hotbar); err != nil {
		s.logger.Printf("session %s: restore hotbar: %v", s.ID, err)
	}
	s.inv.SetHotbar(items)
	s.inv.Select(p.Slot)
	s.pos = p.Pos
	s.dim = p.Dim
}
