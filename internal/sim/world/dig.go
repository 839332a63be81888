package world

import "github.com/poizan42/mineserver/internal/sim/hooks"

// DigStarted handles the first digging signal on p. Instant-break kinds are
// broken immediately.
func (w *World) DigStarted(actor string, p Pos, face Face) Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()

	cell, ok := w.store.Get(p)
	if !ok {
		return w.reject(actor, "out of world", p)
	}
	if cell.Empty() {
		// Show the actor the empty cell it thinks it is digging.
		return w.reject(actor, "nothing to break", p)
	}

	ev := hookEvent(actor, p, cell)
	ev.Face = face.Wire()
	if res := w.hooks.RunUntilVeto(hooks.DiggingStarted, ev); res.Vetoed() {
		return w.veto(actor, res.Reason(), p)
	}

	c := &Cascade{w: w, actor: actor}
	held, _ := w.inv.HeldItem(actor)
	a := Action{Actor: actor, Pos: p, Face: face, Cell: cell, Item: held}
	for _, h := range allAffecting[StartedDigger](w.handlers, cell.Kind) {
		h.OnDigStarted(c, a)
	}

	if w.catalogs.Blocks.InstantBreak(cell.Kind) {
		return w.breakLocked(actor, p, face)
	}
	return Outcome{Status: StatusStarted}
}

// DigCancelled ends a dig without touching the world.
func (w *World) DigCancelled(actor string, p Pos) Outcome {
	return Outcome{Status: StatusCancelled}
}

// DigFinished breaks the block at p.
func (w *World) DigFinished(actor string, p Pos, face Face) Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.breakLocked(actor, p, face)
}

func (w *World) breakLocked(actor string, p Pos, face Face) Outcome {
	// Revalidate: the client may be acting on a cell that changed since it
	// last saw it.
	cell, ok := w.store.Get(p)
	if !ok {
		return w.reject(actor, "out of world", p)
	}
	if cell.Empty() {
		return w.reject(actor, "nothing to break", p)
	}

	held, hasHeld := w.inv.HeldItem(actor)
	ev := hookEvent(actor, p, cell)
	ev.Face = face.Wire()
	if hasHeld {
		ev.ItemID = held.ID
	}
	if res := w.hooks.RunUntilVeto(hooks.BeforeBreak, ev); res.Vetoed() {
		return w.veto(actor, res.Reason(), p)
	}

	c := &Cascade{w: w, actor: actor}
	a := Action{Actor: actor, Pos: p, Face: face, Cell: cell, Item: held}
	if b, ok := firstAffecting[Breaker](w.handlers, cell.Kind); ok {
		if res := b.OnBroken(c, a); res.Vetoed() {
			return w.veto(actor, res.Reason(), p)
		}
	}

	if hasHeld && !held.Empty() {
		w.wearTool(actor, held, cell.Kind)
	}
	if !c.Set(p, Cell{}, "break") {
		return w.reject(actor, "store refused write", p)
	}
	w.stats.breaks.Add(1)

	w.hooks.RunAll(hooks.AfterBreak, ev)
	c.Propagate(p, ChangeBroken, cell.Kind)
	return Outcome{Status: StatusBroken}
}

// wearTool adds wear to a held tool: 1 when the tool suits kind, 2 otherwise.
// A stack that reaches the tool's durability loses one item.
func (w *World) wearTool(actor string, held Item, kind byte) {
	tool, ok := w.catalogs.Tools.Def(held.ID)
	if !ok || tool.Durability <= 0 {
		return
	}
	wear := int16(2)
	if tool.EffectiveOn(kind) {
		wear = 1
	}
	held.Damage += wear
	if int(held.Damage) >= tool.Durability {
		held.Count--
		held.Damage = 0
		if held.Count <= 0 {
			held = NoItem()
		}
	}
	w.inv.SetHeldItem(actor, held)
}
