package worldtest

import (
	"sync"
	"testing"

	"github.com/poizan42/mineserver/internal/sim/catalogs"
	world "github.com/poizan42/mineserver/internal/sim/world"
	"github.com/poizan42/mineserver/internal/sim/world/terrain/store"
)

// Surface is the first air layer of the harness terrain
// (bedrock, stone, stone, dirt).
const Surface = 4

// Harness is a small black-box test helper for driving a world via exported APIs:
// - Store is a real chunk store over flat terrain
// - broadcasts and unicast packets are recorded per actor
// - every cascade notification is recorded in order
//
// It avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T     *testing.T
	Cats  *catalogs.Catalogs
	W     *world.World
	Store *store.ChunkStore

	mu         sync.Mutex
	notes      []world.Notification
	broadcasts []world.Pos
	sent       map[string][][]byte
	held       map[string]world.Item
}

// NewHarness builds a world; register adds block handlers before it is used.
func NewHarness(t *testing.T, cats *catalogs.Catalogs, register ...func(*world.Handlers)) *Harness {
	t.Helper()
	if cats == nil {
		cats = catalogs.Default()
	}
	h := &Harness{
		T:     t,
		Cats:  cats,
		Store: store.NewChunkStore(store.WorldGen{Height: 32, Layers: []byte{7, 1, 1, 3}}),
		sent:  map[string][][]byte{},
		held:  map[string]world.Item{},
	}
	handlers := world.NewHandlers()
	for _, r := range register {
		r(handlers)
	}
	w, err := world.New(world.Config{
		Store:       h.Store,
		Broadcaster: h,
		Inventory:   h,
		Catalogs:    cats,
		Handlers:    handlers,
		Trace:       h.record,
	})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	h.W = w
	return h
}

func (h *Harness) NotifyChange(p world.Pos, _ world.Cell) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasts = append(h.broadcasts, p)
}

func (h *Harness) SendTo(actor string, pkt []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent[actor] = append(h.sent[actor], pkt)
}

func (h *Harness) HeldItem(actor string) (world.Item, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	it, ok := h.held[actor]
	return it, ok
}

func (h *Harness) SetHeldItem(actor string, it world.Item) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.held[actor] = it
}

func (h *Harness) record(n world.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notes = append(h.notes, n)
}

// Set writes a cell directly, bypassing hooks and cascades.
func (h *Harness) Set(p world.Pos, kind byte) {
	h.T.Helper()
	if !h.Store.Set(p, world.Cell{Kind: kind}) {
		h.T.Fatalf("set %v: not addressable", p)
	}
}

func (h *Harness) Kind(p world.Pos) byte {
	h.T.Helper()
	c, ok := h.Store.Get(p)
	if !ok {
		h.T.Fatalf("get %v: not addressable", p)
	}
	return c.Kind
}

// Notifications returns the recorded notifications of the given change.
func (h *Harness) Notifications(change world.Change) []world.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []world.Notification
	for _, n := range h.notes {
		if n.Change == change {
			out = append(out, n)
		}
	}
	return out
}

func (h *Harness) ResetRecords() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notes = nil
	h.broadcasts = nil
	h.sent = map[string][][]byte{}
}

func (h *Harness) Broadcasts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.broadcasts)
}

func (h *Harness) Sent(actor string) [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sent[actor]
}

// PlaceHeld gives actor one item of kind and places it against clicked.
func (h *Harness) PlaceHeld(actor string, kind byte, clicked world.Pos, face world.Face) world.Outcome {
	it := world.Item{ID: int16(kind), Count: 1}
	h.SetHeldItem(actor, it)
	return h.W.Place(world.PlaceRequest{Actor: actor, Clicked: clicked, Face: face, Item: it})
}
