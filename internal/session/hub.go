package session

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poizan42/mineserver/internal/persistence/snapshot"
	"github.com/poizan42/mineserver/internal/protocol"
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/hooks"
	"github.com/poizan42/mineserver/internal/sim/tuning"
	"github.com/poizan42/mineserver/internal/sim/world"
)

// Hub owns the set of connected sessions. It is the world's broadcaster and
// inventory: world actions address players by login name.
type Hub struct {
	cfg    tuning.Tuning
	cats   *catalogs.Catalogs
	hooks  *hooks.Registry
	table  *Table
	logger *log.Logger

	world  *world.World
	events EventLogger

	mu       sync.RWMutex
	sessions map[string]*Session
	byName   map[string]*Session
	saved    map[string]snapshot.PlayerV1
	signs    map[world.Pos][4]string

	nextEID atomic.Int32
	stats   hubStats
}

type hubStats struct {
	logins atomic.Uint64
	kicks  atomic.Uint64
	chats  atomic.Uint64
}

type HubStats struct {
	Sessions  int    `json:"sessions"`
	Online    int    `json:"online"`
	Logins    uint64 `json:"logins"`
	Kicks     uint64 `json:"kicks"`
	Chats     uint64 `json:"chats"`
	PacketsIn uint64 `json:"packets_in"`
}

func NewHub(cfg tuning.Tuning, cats *catalogs.Catalogs, hk *hooks.Registry, logger *log.Logger) *Hub {
	if hk == nil {
		hk = hooks.New()
	}
	return &Hub{
		cfg:      cfg,
		cats:     cats,
		hooks:    hk,
		table:    DefaultTable(),
		logger:   logger,
		sessions: map[string]*Session{},
		byName:   map[string]*Session{},
		saved:    map[string]snapshot.PlayerV1{},
		signs:    map[world.Pos][4]string{},
	}
}

// SetWorld attaches the world. The world is built after the hub because the
// hub is its broadcaster.
func (h *Hub) SetWorld(w *world.World) { h.world = w }

func (h *Hub) limits() protocol.Limits {
	return protocol.Limits{MaxTextUnits: h.cfg.Limits.MaxTextUnits, MaxBlobBytes: h.cfg.Limits.MaxBlobBytes}
}

// NewSession registers a session for a freshly accepted connection from
// remote.
func (h *Hub) NewSession(remote string) *Session {
	s := newSession(h)
	s.Remote = remote
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	return s
}

// Remove unregisters s and keeps its player state for the next login.
func (h *Hub) Remove(s *Session) {
	s.Close()
	h.mu.Lock()
	if _, ok := h.sessions[s.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.ID)
	name := s.Name()
	wasOnline := name != "" && h.byName[name] == s
	if wasOnline {
		delete(h.byName, name)
		h.saved[name] = s.exportPlayer()
	}
	h.mu.Unlock()

	if wasOnline {
		h.logger.Printf("player %s left (session %s)", name, s.ID)
		h.logEvent(s, EventLeave, name, "")
		h.Broadcast(chatPacket(fmt.Sprintf("§e%s left the game", name)), nil)
	}
}

// admit reserves name for s, enforcing the user limit.
func (h *Hub) admit(s *Session, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.onlineLocked() >= h.cfg.UserLimit {
		return &protocol.Error{Code: protocol.ErrServerFull, Msg: h.cfg.Messages.ServerFull}
	}
	if other, ok := h.byName[name]; ok && !other.Closed() {
		return &protocol.Error{Code: protocol.ErrDenied, Msg: "Username already online"}
	}
	h.byName[name] = s
	return nil
}

func (h *Hub) savedPlayer(name string) (snapshot.PlayerV1, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.saved[name]
	return p, ok
}

func (h *Hub) onlineLocked() int {
	n := 0
	for _, s := range h.byName {
		if !s.Closed() {
			n++
		}
	}
	return n
}

func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineLocked()
}

func (h *Hub) players() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.byName))
	for _, s := range h.byName {
		out = append(out, s)
	}
	return out
}

func (h *Hub) player(name string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.byName[name]
	return s, ok
}

// Broadcast sends pkt to every logged-in session except one.
func (h *Hub) Broadcast(pkt []byte, except *Session) {
	for _, s := range h.players() {
		if s == except {
			continue
		}
		s.Send(pkt)
	}
}

// NotifyChange implements world.Broadcaster.
func (h *Hub) NotifyChange(p world.Pos, cell world.Cell) {
	pkt := world.BlockChangePacket(p, cell)
	for _, s := range h.players() {
		if s.Dimension() == p.Dim {
			s.Send(pkt)
		}
	}
}

// SendTo implements world.Broadcaster.
func (h *Hub) SendTo(actor string, pkt []byte) {
	if s, ok := h.player(actor); ok {
		s.Send(pkt)
	}
}

// HeldItem implements world.Inventory.
func (h *Hub) HeldItem(actor string) (world.Item, bool) {
	s, ok := h.player(actor)
	if !ok {
		return world.NoItem(), false
	}
	return s.HeldItem(), true
}

// SetHeldItem implements world.Inventory.
func (h *Hub) SetHeldItem(actor string, it world.Item) {
	if s, ok := h.player(actor); ok {
		s.setHeldItem(it)
	}
}

func (h *Hub) setSign(p world.Pos, lines [4]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.signs[p] = lines
}

func (h *Hub) signsIn(dim int8) map[world.Pos][4]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := map[world.Pos][4]string{}
	for p, l := range h.signs {
		if p.Dim == dim {
			out[p] = l
		}
	}
	return out
}

// Run sends keep-alives until ctx is done, then kicks every session.
func (h *Hub) Run(ctx context.Context) {
	every := h.cfg.KeepAliveInterval()
	if every <= 0 {
		every = 10 * time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.Shutdown(h.cfg.Messages.Shutdown)
			return
		case <-t.C:
			m := protocol.KeepAlive{KeepAliveID: rand.Int31()}
			h.Broadcast(m.Encode(), nil)
		}
	}
}

// Shutdown kicks every connected session.
func (h *Hub) Shutdown(reason string) {
	h.mu.RLock()
	all := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		all = append(all, s)
	}
	h.mu.RUnlock()
	for _, s := range all {
		s.Kick(reason)
	}
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	st := HubStats{Sessions: len(h.sessions), Online: h.onlineLocked()}
	for _, s := range h.sessions {
		st.PacketsIn += s.PacketsIn()
	}
	h.mu.RUnlock()
	st.Logins = h.stats.logins.Load()
	st.Kicks = h.stats.kicks.Load()
	st.Chats = h.stats.chats.Load()
	return st
}

// ExportPlayers returns the state of every known player, online or not,
// sorted by name.
func (h *Hub) ExportPlayers() []snapshot.PlayerV1 {
	h.mu.RLock()
	byName := make(map[string]snapshot.PlayerV1, len(h.saved)+len(h.byName))
	for name, p := range h.saved {
		byName[name] = p
	}
	online := make([]*Session, 0, len(h.byName))
	for _, s := range h.byName {
		online = append(online, s)
	}
	h.mu.RUnlock()
	for _, s := range online {
		p := s.exportPlayer()
		byName[p.Name] = p
	}

	out := make([]snapshot.PlayerV1, 0, len(byName))
	for _, p := range byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ImportPlayers loads saved player state, typically from a snapshot.
func (h *Hub) ImportPlayers(ps []snapshot.PlayerV1) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range ps {
		if name := strings.TrimSpace(p.Name); name != "" {
			h.saved[name] = p
		}
	}
}

func chatPacket(text string) []byte {
	m := protocol.ChatMessage{Message: text}
	return m.Encode()
}
