package world

import (
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/hooks"
)

// Notification records one neighbour notification issued by a cascade.
type Notification struct {
	Actor  string
	Pos    Pos
	Face   Face
	Change Change
	Origin byte
	Kind   byte
	// Handlers is the number of handlers the notification was delivered to.
	Handlers int
}

// Cascade is the handle block handlers use to read and mutate the world while
// a cascade is running. It is only valid inside the callback it was passed to.
type Cascade struct {
	w     *World
	actor string
}

func (c *Cascade) Actor() string                { return c.actor }
func (c *Cascade) Catalogs() *catalogs.Catalogs { return c.w.catalogs }

func (c *Cascade) Get(p Pos) (Cell, bool) { return c.w.store.Get(p) }

// Set writes cell, broadcasts it and records an audit entry. It does not
// notify neighbours.
func (c *Cascade) Set(p Pos, cell Cell, reason string) bool {
	from, ok := c.w.store.Get(p)
	if !ok {
		return false
	}
	if !c.w.store.Set(p, cell) {
		return false
	}
	c.w.bc.NotifyChange(p, cell)
	c.w.auditSetBlock(c.actor, p, from, cell, reason)
	return true
}

// Move clears from and writes its content into to. It is one gravity step.
// When to cannot be written, from keeps its block and Move reports false.
func (c *Cascade) Move(from, to Pos, reason string) bool {
	cell, ok := c.w.store.Get(from)
	if !ok || cell.Empty() {
		return false
	}
	if _, ok := c.w.store.Get(to); !ok {
		return false
	}
	if !c.Set(from, Cell{}, reason) {
		return false
	}
	if !c.Set(to, cell, reason) {
		// Put the source back so the block is never lost.
		c.Set(from, cell, reason)
		return false
	}
	c.w.stats.fallSteps.Add(1)
	return true
}

// Break clears p without tool wear or hooks and cascades "broken" to its
// neighbours. It is used by handlers that destroy blocks as a consequence.
func (c *Cascade) Break(p Pos, reason string) bool {
	cell, ok := c.w.store.Get(p)
	if !ok || cell.Empty() {
		return false
	}
	if !c.Set(p, Cell{}, reason) {
		return false
	}
	c.w.stats.breaks.Add(1)
	c.Propagate(p, ChangeBroken, cell.Kind)
	return true
}

// Propagate notifies each non-empty axis neighbour of p.
func (c *Cascade) Propagate(p Pos, change Change, origin byte) {
	for _, f := range Faces {
		n := p.Add(f)
		cell, ok := c.w.store.Get(n)
		if !ok || cell.Empty() {
			continue
		}
		c.deliver(n, cell, f.Opposite(), change, origin)
	}
}

// Notify sends a single notification to target. The notification is always
// recorded; handlers only run when target holds a block.
func (c *Cascade) Notify(target Pos, face Face, change Change, origin byte) {
	cell, ok := c.w.store.Get(target)
	if !ok || cell.Empty() {
		c.record(Notification{Actor: c.actor, Pos: target, Face: face, Change: change, Origin: origin, Kind: cell.Kind})
		return
	}
	c.deliver(target, cell, face, change, origin)
}

func (c *Cascade) deliver(p Pos, cell Cell, face Face, change Change, origin byte) {
	src := p.Add(face)
	ev := hookEvent(c.actor, p, cell)
	ev.Face = face.Wire()
	ev.SX, ev.SY, ev.SZ = src.X, src.Y, src.Z
	c.w.hooks.RunAll(change.hookName(), ev)

	targets := allAffecting[NeighborObserver](c.w.handlers, cell.Kind, origin)
	c.record(Notification{
		Actor:    c.actor,
		Pos:      p,
		Face:     face,
		Change:   change,
		Origin:   origin,
		Kind:     cell.Kind,
		Handlers: len(targets),
	})
	n := Neighbor{Actor: c.actor, Pos: p, Face: face, Cell: cell, Change: change, Origin: origin}
	for _, h := range targets {
		h.OnNeighborChanged(c, n)
	}
}

func (c *Cascade) record(n Notification) {
	c.w.stats.notifications.Add(1)
	if c.w.trace != nil {
		c.w.trace(n)
	}
}

func hookEvent(actor string, p Pos, cell Cell) hooks.Event {
	return hooks.Event{
		Actor: actor,
		Dim:   p.Dim,
		X:     p.X,
		Y:     p.Y,
		Z:     p.Z,
		Kind:  cell.Kind,
		Meta:  cell.Meta,
	}
}
