package world

import (
	"sync"

	"github.com/poizan42/mineserver/internal/sim/hooks"
)

// BlockHandler is the base of every pluggable block behaviour. A handler
// implements any of the callback interfaces below; the registry dispatches
// by type assertion.
type BlockHandler interface {
	Affects(kind byte) bool
}

type StartedDigger interface {
	BlockHandler
	OnDigStarted(c *Cascade, a Action)
}

type Breaker interface {
	BlockHandler
	OnBroken(c *Cascade, a Action) hooks.Result
}

type Placer interface {
	BlockHandler
	OnPlace(c *Cascade, a Action) hooks.Result
}

type PlacedObserver interface {
	BlockHandler
	OnPlaced(c *Cascade, a Action)
}

type Interactor interface {
	BlockHandler
	OnInteract(c *Cascade, a Action) hooks.Result
}

type NeighborObserver interface {
	BlockHandler
	OnNeighborChanged(c *Cascade, n Neighbor)
}

// Action describes a dig, place or interaction on one cell.
type Action struct {
	Actor string
	Pos   Pos
	Face  Face
	Cell  Cell
	Item  Item
}

// Neighbor is delivered to the handlers of a cell next to a changed one.
// Face points from Pos back at the changed cell.
type Neighbor struct {
	Actor  string
	Pos    Pos
	Face   Face
	Cell   Cell
	Change Change
	Origin byte
}

// Source returns the position of the changed cell.
func (n Neighbor) Source() Pos { return n.Pos.Add(n.Face) }

type Change uint8

const (
	ChangeBroken Change = iota + 1
	ChangePlaced
	ChangeChanged
)

func (c Change) String() string {
	switch c {
	case ChangeBroken:
		return "broken"
	case ChangePlaced:
		return "placed"
	case ChangeChanged:
		return "changed"
	default:
		return "unknown"
	}
}

func (c Change) hookName() string {
	switch c {
	case ChangeBroken:
		return hooks.NeighborBroken
	case ChangePlaced:
		return hooks.NeighborPlaced
	default:
		return hooks.NeighborChanged
	}
}

// Handlers is an ordered registry of block handlers.
type Handlers struct {
	mu   sync.RWMutex
	list []BlockHandler
}

func NewHandlers() *Handlers { return &Handlers{} }

func (h *Handlers) Register(bh BlockHandler) {
	if bh == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.list = append(h.list, bh)
}

func (h *Handlers) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.list)
}

func (h *Handlers) all() []BlockHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.list
}

// firstAffecting returns the first handler in registration order that
// affects kind and implements T.
func firstAffecting[T BlockHandler](h *Handlers, kind byte) (T, bool) {
	for _, bh := range h.all() {
		if !bh.Affects(kind) {
			continue
		}
		if t, ok := bh.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// allAffecting returns every handler affecting any of kinds that implements T.
func allAffecting[T BlockHandler](h *Handlers, kinds ...byte) []T {
	var out []T
	for _, bh := range h.all() {
		t, ok := bh.(T)
		if !ok {
			continue
		}
		for _, k := range kinds {
			if bh.Affects(k) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
