// Package support breaks blocks that lose the block they rest on, such as
// flowers, torches and snow layers.
package support

import (
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/hooks"
	"github.com/poizan42/mineserver/internal/sim/world"
)

type Handler struct {
	cat   *catalogs.Catalogs
	kinds map[byte]bool
}

func New(cat *catalogs.Catalogs) *Handler {
	h := &Handler{cat: cat, kinds: map[byte]bool{}}
	for _, k := range cat.Blocks.KindsWhere(func(d catalogs.BlockDef) bool { return d.NeedsSupport }) {
		h.kinds[k] = true
	}
	return h
}

func (h *Handler) Affects(kind byte) bool { return h.kinds[kind] }

// supportOf returns the cell a block at p rests on. Face-oriented kinds hang
// off the block they were placed against; everything else sits on the cell
// below.
func (h *Handler) supportOf(p world.Pos, cell world.Cell) world.Pos {
	if def, ok := h.cat.Blocks.Def(cell.Kind); ok && def.Orientation == "face" {
		if f := world.FaceFromWire(int8(cell.Meta)); f.Valid() && f != world.FaceDown {
			return p.Add(f.Opposite())
		}
	}
	return p.Down()
}

// supported reports whether the cell at p can hold a block of kind. Blocks
// that need support themselves only carry their own kind (reeds on reeds).
func (h *Handler) supported(c *world.Cascade, p world.Pos, kind byte) bool {
	s, ok := c.Get(p)
	if !ok || s.Empty() || h.cat.Blocks.IsLiquid(s.Kind) {
		return false
	}
	return !h.kinds[s.Kind] || s.Kind == kind
}

func (h *Handler) OnPlace(c *world.Cascade, a world.Action) hooks.Result {
	if !h.supported(c, h.supportOf(a.Pos, a.Cell), a.Cell.Kind) {
		return hooks.Veto("needs support")
	}
	return hooks.Continue()
}

func (h *Handler) OnNeighborChanged(c *world.Cascade, n world.Neighbor) {
	if !h.kinds[n.Cell.Kind] {
		return
	}
	s := h.supportOf(n.Pos, n.Cell)
	if n.Source() != s {
		return
	}
	if h.supported(c, s, n.Cell.Kind) {
		return
	}
	c.Break(n.Pos, "unsupported")
}
