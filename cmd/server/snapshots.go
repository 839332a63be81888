package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/poizan42/mineserver/internal/persistence/indexdb"
	"github.com/poizan42/mineserver/internal/persistence/snapshot"
	"github.com/poizan42/mineserver/internal/session"
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/world"
	"github.com/poizan42/mineserver/internal/sim/world/terrain/store"
)

// snapshotter writes world snapshots. Save may be called from the periodic
// loop, the admin endpoint and shutdown; saves are serialised.
type snapshotter struct {
	worldDir string
	worldID  string
	world    *world.World
	store    *store.ChunkStore
	hub      *session.Hub
	cats     *catalogs.Catalogs
	spawn    [3]int
	idx      *indexdb.SQLiteIndex

	mu  sync.Mutex
	seq uint64
}

func (s *snapshotter) Save() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Hold the world lock so no cascade is half-applied in the copy.
	unlock := s.world.Lock()
	chunks := store.ExportLoadedChunks(s.store)
	unlock()

	s.seq++
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: s.worldID,
			Seq:     s.seq,
			SavedAt: time.Now().UTC().Format(time.RFC3339),
		},
		Height:        s.store.Gen.Height,
		BoundaryR:     s.store.Gen.BoundaryR,
		Layers:        s.store.Gen.Layers,
		Spawn:         s.spawn,
		CatalogDigest: s.cats.Digest,
		Chunks:        chunks,
		Players:       s.hub.ExportPlayers(),
	}
	path := filepath.Join(s.worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Header.Seq))
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return "", err
	}
	s.idx.RecordSnapshot(path, snap)
	return path, nil
}

func latestSnapshot(worldDir string) string {
	dir := filepath.Join(worldDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestSeq uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		seq, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || seq > bestSeq {
			bestSeq = seq
			best = filepath.Join(dir, name)
		}
	}
	return best
}
