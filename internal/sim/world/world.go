package world

import (
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/poizan42/mineserver/internal/protocol"
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/hooks"
)

// Store is the block store. Implementations must be safe for concurrent use.
type Store interface {
	Get(p Pos) (Cell, bool)
	Set(p Pos, cell Cell) bool
	Height(dim int8, x, z int) int
}

// Broadcaster keeps connected clients in sync with the store.
type Broadcaster interface {
	NotifyChange(p Pos, cell Cell)
	SendTo(actor string, packet []byte)
}

// Inventory exposes the item an actor currently holds.
type Inventory interface {
	HeldItem(actor string) (Item, bool)
	SetHeldItem(actor string, it Item)
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type Config struct {
	Store       Store
	Broadcaster Broadcaster
	Inventory   Inventory
	Catalogs    *catalogs.Catalogs
	Hooks       *hooks.Registry
	Handlers    *Handlers

	// Optional (may be nil).
	Audit  AuditLogger
	Trace  func(Notification)
	Logger *log.Logger
}

// World applies block actions to the store and runs their cascades.
//
// Every mutation (dig, place and the cascades they start) holds mu for its
// whole duration, so concurrent actions on the same cell are linearised.
type World struct {
	store    Store
	bc       Broadcaster
	inv      Inventory
	catalogs *catalogs.Catalogs
	hooks    *hooks.Registry
	handlers *Handlers

	audit  AuditLogger
	trace  func(Notification)
	logger *log.Logger

	mu  sync.Mutex
	seq atomic.Uint64

	stats Stats
}

func New(cfg Config) (*World, error) {
	if cfg.Store == nil {
		return nil, errors.New("world: nil store")
	}
	if cfg.Catalogs == nil {
		return nil, errors.New("world: nil catalogs")
	}
	w := &World{
		store:    cfg.Store,
		bc:       cfg.Broadcaster,
		inv:      cfg.Inventory,
		catalogs: cfg.Catalogs,
		hooks:    cfg.Hooks,
		handlers: cfg.Handlers,
		audit:    cfg.Audit,
		trace:    cfg.Trace,
		logger:   cfg.Logger,
	}
	if w.bc == nil {
		w.bc = nopBroadcaster{}
	}
	if w.inv == nil {
		w.inv = nopInventory{}
	}
	if w.hooks == nil {
		w.hooks = hooks.New()
	}
	if w.handlers == nil {
		w.handlers = NewHandlers()
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard, "", 0)
	}
	return w, nil
}

func (w *World) Store() Store                 { return w.store }
func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }
func (w *World) Hooks() *hooks.Registry       { return w.hooks }
func (w *World) Handlers() *Handlers          { return w.handlers }

// Lock blocks all world mutations until the returned func is called. Used by
// the snapshot writer to export a consistent store.
func (w *World) Lock() (unlock func()) {
	w.mu.Lock()
	return w.mu.Unlock
}

// Revert sends the actor the store's current content of each position.
func (w *World) Revert(actor string, ps ...Pos) {
	w.stats.reverts.Add(1)
	for _, p := range ps {
		cell, ok := w.store.Get(p)
		if !ok {
			continue
		}
		w.bc.SendTo(actor, BlockChangePacket(p, cell))
	}
}

// BlockChangePacket encodes a single-cell update for clients.
func BlockChangePacket(p Pos, cell Cell) []byte {
	m := protocol.BlockChange{
		X:    int32(p.X),
		Y:    int8(p.Y),
		Z:    int32(p.Z),
		Type: int16(cell.Kind),
		Meta: int8(cell.Meta & 0x0f),
	}
	return m.Encode()
}

type nopBroadcaster struct{}

func (nopBroadcaster) NotifyChange(Pos, Cell)  {}
func (nopBroadcaster) SendTo(string, []byte) {}

type nopInventory struct{}

func (nopInventory) HeldItem(string) (Item, bool) { return NoItem(), false }
func (nopInventory) SetHeldItem(string, Item)     {}

type Status uint8

const (
	StatusIgnored Status = iota
	StatusStarted
	StatusCancelled
	StatusBroken
	StatusPlaced
	StatusInteracted
	StatusUsed
	StatusReverted
)

func (s Status) String() string {
	switch s {
	case StatusStarted:
		return "started"
	case StatusCancelled:
		return "cancelled"
	case StatusBroken:
		return "broken"
	case StatusPlaced:
		return "placed"
	case StatusInteracted:
		return "interacted"
	case StatusUsed:
		return "used"
	case StatusReverted:
		return "reverted"
	default:
		return "ignored"
	}
}

// Outcome reports what an action did. Reason is set for reverts.
type Outcome struct {
	Status Status
	Reason string
}

// veto reverts ps for actor after a hook or handler refused the action.
func (w *World) veto(actor, reason string, ps ...Pos) Outcome {
	w.stats.vetoes.Add(1)
	w.Revert(actor, ps...)
	return Outcome{Status: StatusReverted, Reason: reason}
}

// reject reverts ps for actor after a failed precondition.
func (w *World) reject(actor, reason string, ps ...Pos) Outcome {
	w.Revert(actor, ps...)
	return Outcome{Status: StatusReverted, Reason: reason}
}
