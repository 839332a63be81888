package world

import (
	"sync"
	"testing"

	"github.com/poizan42/mineserver/internal/protocol"
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/world/terrain/store"
)

const (
	kindStone = 1
	kindDirt  = 3
	kindWater = 9
	kindSand  = 12
	kindWool  = 35
	kindTorch = 50
	kindTable = 58
)

type recorder struct {
	mu      sync.Mutex
	changes []Pos
	sent    map[string][][]byte
}

func newRecorder() *recorder { return &recorder{sent: map[string][][]byte{}} }

func (r *recorder) NotifyChange(p Pos, _ Cell) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, p)
}

func (r *recorder) SendTo(actor string, pkt []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[actor] = append(r.sent[actor], append([]byte(nil), pkt...))
}

func (r *recorder) sentTo(actor string) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[actor]
}

func (r *recorder) broadcasts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

type heldItems struct {
	mu    sync.Mutex
	items map[string]Item
}

func (h *heldItems) HeldItem(actor string) (Item, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	it, ok := h.items[actor]
	return it, ok
}

func (h *heldItems) SetHeldItem(actor string, it Item) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items[actor] = it
}

type testEnv struct {
	w     *World
	store *store.ChunkStore
	bc    *recorder
	inv   *heldItems

	mu    sync.Mutex
	notes []Notification
}

// newTestEnv builds a world over flat terrain: bedrock, stone, stone, dirt.
// The surface (first air cell) is y=4.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{
		store: store.NewChunkStore(store.WorldGen{Height: 32, Layers: []byte{7, 1, 1, 3}}),
		bc:    newRecorder(),
		inv:   &heldItems{items: map[string]Item{}},
	}
	w, err := New(Config{
		Store:       e.store,
		Broadcaster: e.bc,
		Inventory:   e.inv,
		Catalogs:    catalogs.Default(),
		Trace: func(n Notification) {
			e.mu.Lock()
			e.notes = append(e.notes, n)
			e.mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e.w = w
	return e
}

func (e *testEnv) set(p Pos, kind byte) {
	e.store.Set(p, Cell{Kind: kind})
}

func (e *testEnv) cell(t *testing.T, p Pos) Cell {
	t.Helper()
	c, ok := e.store.Get(p)
	if !ok {
		t.Fatalf("%v not addressable", p)
	}
	return c
}

func (e *testEnv) notifications(change Change) []Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Notification
	for _, n := range e.notes {
		if n.Change == change {
			out = append(out, n)
		}
	}
	return out
}

func decodeBlockChange(t *testing.T, pkt []byte) *protocol.BlockChange {
	t.Helper()
	m, n, err := protocol.Decode(pkt, protocol.DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != len(pkt) {
		t.Fatalf("decoded %d of %d bytes", n, len(pkt))
	}
	bc, ok := m.(*protocol.BlockChange)
	if !ok {
		t.Fatalf("expected BlockChange, got %T", m)
	}
	return bc
}

func TestNewRequiresStoreAndCatalogs(t *testing.T) {
	if _, err := New(Config{Catalogs: catalogs.Default()}); err == nil {
		t.Fatalf("expected error without store")
	}
	if _, err := New(Config{Store: store.NewChunkStore(store.WorldGen{})}); err == nil {
		t.Fatalf("expected error without catalogs")
	}
	w, err := New(Config{Store: store.NewChunkStore(store.WorldGen{}), Catalogs: catalogs.Default()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.Hooks() == nil || w.Handlers() == nil {
		t.Fatalf("defaults not applied")
	}
}

func TestBlockChangePacket(t *testing.T) {
	pkt := BlockChangePacket(Pos{X: -3, Y: 70, Z: 12}, Cell{Kind: kindWool, Meta: 0x1e})
	bc := decodeBlockChange(t, pkt)
	if bc.X != -3 || bc.Y != 70 || bc.Z != 12 || bc.Type != kindWool || bc.Meta != 0x0e {
		t.Fatalf("unexpected packet: %+v", bc)
	}
}
