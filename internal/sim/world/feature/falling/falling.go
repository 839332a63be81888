// Package falling drops blocks flagged "falls" through air and liquids until
// they land on something solid.
package falling

import (
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/world"
)

type Handler struct {
	kinds map[byte]bool
}

func New(cat *catalogs.Catalogs) *Handler {
	h := &Handler{kinds: map[byte]bool{}}
	for _, k := range cat.Blocks.KindsWhere(func(d catalogs.BlockDef) bool { return d.Falls }) {
		h.kinds[k] = true
	}
	return h
}

func (h *Handler) Affects(kind byte) bool { return h.kinds[kind] }

func (h *Handler) OnNeighborChanged(c *world.Cascade, n world.Neighbor) {
	h.Fall(c, n.Pos)
}

func (h *Handler) OnPlaced(c *world.Cascade, a world.Action) {
	h.Fall(c, a.Pos)
}

// Fall moves the block at p down one cell at a time while the cell below is
// empty or liquid. After each step the cell above the vacated one is
// notified. It returns the number of steps taken.
func (h *Handler) Fall(c *world.Cascade, p world.Pos) int {
	cell, ok := c.Get(p)
	if !ok || !h.kinds[cell.Kind] {
		return 0
	}
	blocks := &c.Catalogs().Blocks
	steps := 0
	for {
		// A notification from the previous step may have moved us.
		if cur, ok := c.Get(p); !ok || cur != cell {
			return steps
		}
		below := p.Down()
		bc, ok := c.Get(below)
		if !ok || !(bc.Empty() || blocks.IsLiquid(bc.Kind)) {
			return steps
		}
		if !c.Move(p, below, "fall") {
			return steps
		}
		steps++
		c.Notify(p.Up(), world.FaceDown, world.ChangeChanged, cell.Kind)
		p = below
	}
}
