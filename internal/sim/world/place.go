package world

import "github.com/poizan42/mineserver/internal/sim/hooks"

// PlaceRequest is a block placement or use as sent by a client.
type PlaceRequest struct {
	Actor   string
	Clicked Pos
	Face    Face
	// Item is the stack the client claims to hold.
	Item Item
	// NoTarget is set when the client clicked without pointing at a block.
	NoTarget bool
}

// Place runs a placement: interaction with the clicked block, validation of
// the held item and the target cell, the hook chains and the cascade.
func (w *World) Place(req PlaceRequest) Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()

	actor := req.Actor
	c := &Cascade{w: w, actor: actor}

	if req.NoTarget {
		ev := hookEvent(actor, req.Clicked, Cell{})
		ev.Face = -1
		ev.ItemID = req.Item.ID
		w.hooks.RunAll(hooks.ItemRightClick, ev)
		return Outcome{Status: StatusUsed}
	}

	clicked, ok := w.store.Get(req.Clicked)
	if !ok {
		return w.reject(actor, "clicked cell not addressable", req.Clicked)
	}

	interacted := false
	if !clicked.Empty() && !w.catalogs.Blocks.IsLiquid(clicked.Kind) {
		ev := hookEvent(actor, req.Clicked, clicked)
		ev.Face = req.Face.Wire()
		ev.ItemID = req.Item.ID
		if res := w.hooks.RunUntilVeto(hooks.Interact, ev); res.Vetoed() {
			return w.veto(actor, res.Reason(), req.Clicked)
		}
		if h, ok := firstAffecting[Interactor](w.handlers, clicked.Kind); ok {
			a := Action{Actor: actor, Pos: req.Clicked, Face: req.Face, Cell: clicked, Item: req.Item}
			if res := h.OnInteract(c, a); res.Vetoed() {
				return w.veto(actor, res.Reason(), req.Clicked)
			}
			w.stats.interactions.Add(1)
			interacted = true
		}
	}

	if !req.Face.Valid() {
		return w.reject(actor, "invalid face", req.Clicked)
	}
	target := req.Clicked.Add(req.Face)

	held, ok := w.inv.HeldItem(actor)
	if !ok || held.Empty() || held.ID != req.Item.ID {
		if interacted {
			return Outcome{Status: StatusInteracted}
		}
		return w.reject(actor, "held item mismatch", req.Clicked, target)
	}
	kind, ok := w.catalogs.PlaceAs(held.ID)
	if !ok {
		if interacted {
			return Outcome{Status: StatusInteracted}
		}
		return w.reject(actor, "item does not place a block", req.Clicked, target)
	}

	existing, ok := w.store.Get(target)
	if !ok {
		return w.reject(actor, "target not addressable", req.Clicked)
	}
	if !existing.Empty() && !w.catalogs.Blocks.IsLiquid(existing.Kind) {
		return w.reject(actor, "target occupied", req.Clicked, target)
	}

	cell := Cell{Kind: kind, Meta: w.orientationMeta(kind, req.Face, held)}
	ev := hookEvent(actor, target, cell)
	ev.Face = req.Face.Wire()
	ev.ItemID = held.ID
	ev.SX, ev.SY, ev.SZ = req.Clicked.X, req.Clicked.Y, req.Clicked.Z
	ev.Prev = existing.Kind

	// The replace chain runs for every placement, air included.
	if res := w.hooks.RunUntilVeto(hooks.BeforeReplace, ev); res.Vetoed() {
		return w.veto(actor, res.Reason(), req.Clicked, target)
	}
	if res := w.hooks.RunUntilVeto(hooks.BeforePlace, ev); res.Vetoed() {
		return w.veto(actor, res.Reason(), req.Clicked, target)
	}
	a := Action{Actor: actor, Pos: target, Face: req.Face, Cell: cell, Item: held}
	if p, ok := firstAffecting[Placer](w.handlers, kind); ok {
		if res := p.OnPlace(c, a); res.Vetoed() {
			return w.veto(actor, res.Reason(), req.Clicked, target)
		}
	}

	if !c.Set(target, cell, "place") {
		return w.reject(actor, "store refused write", req.Clicked, target)
	}
	w.stats.places.Add(1)

	w.hooks.RunAll(hooks.AfterReplace, ev)
	w.hooks.RunAll(hooks.AfterPlace, ev)
	c.Propagate(target, ChangePlaced, kind)
	for _, h := range allAffecting[PlacedObserver](w.handlers, kind) {
		h.OnPlaced(c, a)
	}

	held.Count--
	if held.Count <= 0 {
		held = NoItem()
	}
	w.inv.SetHeldItem(actor, held)
	return Outcome{Status: StatusPlaced}
}

func (w *World) orientationMeta(kind byte, face Face, held Item) byte {
	def, _ := w.catalogs.Blocks.Def(kind)
	switch def.Orientation {
	case "face":
		return byte(face.Wire()) & 0x0f
	case "damage":
		return byte(held.Damage) & 0x0f
	default:
		return 0
	}
}
