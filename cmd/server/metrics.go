package main

import (
	"fmt"
	"io"

	"github.com/poizan42/mineserver/internal/persistence/indexdb"
	"github.com/poizan42/mineserver/internal/session"
	"github.com/poizan42/mineserver/internal/sim/world"
	"github.com/poizan42/mineserver/internal/sim/world/terrain/store"
)

// writeMetrics renders the Prometheus text exposition format.
func writeMetrics(out io.Writer, hub *session.Hub, w *world.World, st *store.ChunkStore, idx *indexdb.SQLiteIndex) {
	hs := hub.Stats()
	ws := w.Stats()

	gauge := func(name, help string, v any) {
		fmt.Fprintf(out, "# HELP %s %s\n", name, help)
		fmt.Fprintf(out, "# TYPE %s gauge\n", name)
		fmt.Fprintf(out, "%s %v\n", name, v)
	}
	counter := func(name, help string, v uint64) {
		fmt.Fprintf(out, "# HELP %s %s\n", name, help)
		fmt.Fprintf(out, "# TYPE %s counter\n", name)
		fmt.Fprintf(out, "%s %d\n", name, v)
	}

	gauge("mineserver_sessions", "Open connections.", hs.Sessions)
	gauge("mineserver_players_online", "Logged-in players.", hs.Online)
	gauge("mineserver_loaded_chunks", "Loaded chunk count.", st.LoadedChunks())
	counter("mineserver_logins_total", "Successful logins.", hs.Logins)
	counter("mineserver_kicks_total", "Sessions ended by a protocol or admission error.", hs.Kicks)
	counter("mineserver_chat_messages_total", "Broadcast chat messages.", hs.Chats)
	counter("mineserver_packets_in_total", "Decoded packets from open sessions.", hs.PacketsIn)

	fmt.Fprintf(out, "# HELP mineserver_block_actions_total Block actions by outcome.\n")
	fmt.Fprintf(out, "# TYPE mineserver_block_actions_total counter\n")
	fmt.Fprintf(out, "mineserver_block_actions_total{action=%q} %d\n", "break", ws.Breaks)
	fmt.Fprintf(out, "mineserver_block_actions_total{action=%q} %d\n", "place", ws.Places)
	fmt.Fprintf(out, "mineserver_block_actions_total{action=%q} %d\n", "interact", ws.Interactions)
	fmt.Fprintf(out, "mineserver_block_actions_total{action=%q} %d\n", "revert", ws.Reverts)
	fmt.Fprintf(out, "mineserver_block_actions_total{action=%q} %d\n", "veto", ws.Vetoes)
	counter("mineserver_neighbor_notifications_total", "Cascade neighbour notifications.", ws.Notifications)
	counter("mineserver_fall_steps_total", "Single-cell gravity moves.", ws.FallSteps)

	if idx == nil {
		return
	}
	is := idx.Stats()
	gauge("mineserver_index_queue_depth", "Pending index writes.", is.QueueDepth)
	fmt.Fprintf(out, "# HELP mineserver_index_dropped_total Index writes dropped on a full queue.\n")
	fmt.Fprintf(out, "# TYPE mineserver_index_dropped_total counter\n")
	fmt.Fprintf(out, "mineserver_index_dropped_total{kind=%q} %d\n", "audit", is.DropAuditTotal)
	fmt.Fprintf(out, "mineserver_index_dropped_total{kind=%q} %d\n", "session", is.DropSessionTotal)
	fmt.Fprintf(out, "mineserver_index_dropped_total{kind=%q} %d\n", "snapshot", is.DropSnapshotTotal)
	fmt.Fprintf(out, "mineserver_index_dropped_total{kind=%q} %d\n", "log_file", is.DropLogFileTotal)
	counter("mineserver_index_write_errors_total", "Failed index transactions.", is.WriteErrorTotal)
}
