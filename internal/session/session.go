package session

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/poizan42/mineserver/internal/protocol"
	"github.com/poizan42/mineserver/internal/sim/world"
)

// Session is one client connection. Feed must only be called from the
// goroutine reading the connection; Send and Kick may be called from any
// goroutine.
type Session struct {
	ID     string
	Remote string

	hub    *Hub
	table  *Table
	buf    *FrameBuffer
	lim    protocol.Limits
	logger *log.Logger

	sendMu sync.Mutex
	out    chan []byte
	done   chan struct{}
	closed bool

	packetsIn atomic.Uint64

	// Player state; mu guards it against snapshot and broadcast readers.
	mu       sync.Mutex
	loggedIn bool
	name     string
	entityID int32
	dim      int8
	pos      [3]float64
	yaw      float32
	pitch    float32
	inv      *Inventory
}

func newSession(h *Hub) *Session {
	return &Session{
		ID:     uuid.NewString(),
		hub:    h,
		table:  h.table,
		buf:    NewFrameBuffer(h.cfg.Limits.MaxBufferBytes),
		lim:    h.limits(),
		logger: h.logger,
		out:    make(chan []byte, h.cfg.Limits.OutQueue),
		done:   make(chan struct{}),
		inv:    newInventory(),
	}
}

// Out carries encoded packets for the transport's writer. It is closed when
// the session ends, after any final kick packet.
func (s *Session) Out() <-chan []byte { return s.out }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Send queues a packet. A session whose queue is full is dropped.
func (s *Session) Send(pkt []byte) bool {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.out <- pkt:
		return true
	default:
		s.logger.Printf("session %s: output queue full, dropping connection", s.ID)
		s.closeLocked()
		return false
	}
}

// Kick sends a disconnect with reason and ends the session.
func (s *Session) Kick(reason string) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return
	}
	m := protocol.Disconnect{Reason: reason}
	select {
	case s.out <- m.Encode():
	default:
	}
	s.closeLocked()
}

// Close ends the session without a disconnect packet. The transport still
// calls Hub.Remove once its goroutines have exited.
func (s *Session) Close() {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.out)
	close(s.done)
}

func (s *Session) Closed() bool {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.closed
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

func (s *Session) EntityID() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entityID
}

func (s *Session) Dimension() int8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dim
}

// Position returns the last reported position.
func (s *Session) Position() [3]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// HeldItem returns the stack in the selected hotbar slot.
func (s *Session) HeldItem() world.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inv.Held()
}

// setHeldItem replaces the selected stack and tells the client.
func (s *Session) setHeldItem(it world.Item) {
	s.mu.Lock()
	idx := s.inv.HeldIndex()
	s.inv.Set(idx, it)
	s.mu.Unlock()
	s.Send(setSlotPacket(idx, it))
}

func (s *Session) PacketsIn() uint64 { return s.packetsIn.Load() }

func setSlotPacket(idx int, it world.Item) []byte {
	m := protocol.SetSlot{WindowID: protocol.WindowPlayer, Slot: int16(idx), Item: toSlot(it)}
	return m.Encode()
}

func toSlot(it world.Item) protocol.Slot {
	if it.Empty() {
		return protocol.EmptySlot()
	}
	return protocol.Slot{ItemID: it.ID, Count: it.Count, Damage: it.Damage}
}

func fromSlot(sl protocol.Slot) world.Item {
	if sl.Empty() {
		return world.NoItem()
	}
	return world.Item{ID: sl.ItemID, Count: sl.Count, Damage: sl.Damage}
}
