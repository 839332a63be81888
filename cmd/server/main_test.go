package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poizan42/mineserver/internal/persistence/snapshot"
	"github.com/poizan42/mineserver/internal/session"
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/tuning"
	"github.com/poizan42/mineserver/internal/sim/world"
	"github.com/poizan42/mineserver/internal/sim/world/terrain/store"
)

func newTestSnapshotter(t *testing.T, dir string) *snapshotter {
	t.Helper()
	cats := catalogs.Default()
	tune := tuning.Defaults()
	tune.World.Height = 32
	tune.World.Layers = []byte{7, 1, 1, 3}

	st := store.NewChunkStore(store.WorldGen{Height: 32, Layers: tune.World.Layers})
	hub := session.NewHub(tune, cats, nil, log.New(io.Discard, "", 0))
	w, err := world.New(world.Config{Store: st, Broadcaster: hub, Inventory: hub, Catalogs: cats})
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	hub.SetWorld(w)
	hub.ImportPlayers([]snapshot.PlayerV1{{Name: "alex", Pos: [3]float64{1.5, 4, 2.5}}})
	return &snapshotter{
		worldDir: dir,
		worldID:  "test",
		world:    w,
		store:    st,
		hub:      hub,
		cats:     cats,
		spawn:    [3]int{0, 4, 0},
		seq:      7,
	}
}

func TestSnapshotterSaveAndLatest(t *testing.T) {
	dir := t.TempDir()
	s := newTestSnapshotter(t, dir)
	s.store.Set(world.Pos{X: 3, Y: 4, Z: 3}, world.Cell{Kind: 1})

	first, err := s.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := s.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(first) != "8.snap.zst" || filepath.Base(second) != "9.snap.zst" {
		t.Fatalf("unexpected snapshot names %s %s", first, second)
	}
	if got := latestSnapshot(dir); got != second {
		t.Fatalf("latestSnapshot=%q want %q", got, second)
	}

	snap, err := snapshot.ReadSnapshot(second)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.Header.Seq != 9 || snap.Header.WorldID != "test" || snap.CatalogDigest != s.cats.Digest {
		t.Fatalf("unexpected header: %+v digest=%s", snap.Header, snap.CatalogDigest)
	}
	if len(snap.Players) != 1 || snap.Players[0].Name != "alex" {
		t.Fatalf("players=%+v", snap.Players)
	}
	imported, err := store.ImportChunks(store.WorldGen{Height: snap.Height, Layers: snap.Layers}, snap.Chunks)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if c, _ := imported.Get(world.Pos{X: 3, Y: 4, Z: 3}); c.Kind != 1 {
		t.Fatalf("placed cell lost: %+v", c)
	}
}

func TestLatestSnapshotIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	snaps := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snaps, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"2.snap.zst", "10.snap.zst", "11.snap.zst.tmp", "latest.snap.zst", "x.txt"} {
		if err := os.WriteFile(filepath.Join(snaps, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if got := latestSnapshot(dir); filepath.Base(got) != "10.snap.zst" {
		t.Fatalf("latestSnapshot=%q", got)
	}
	if got := latestSnapshot(filepath.Join(dir, "missing")); got != "" {
		t.Fatalf("missing dir: %q", got)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:1234": true,
		"[::1]:80":       true,
		"10.0.0.1:80":    false,
		"bogus":          false,
		"":               false,
	}
	for addr, want := range cases {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("%q: got %v want %v", addr, got, want)
		}
	}
}

func TestWriteMetrics(t *testing.T) {
	s := newTestSnapshotter(t, t.TempDir())
	var buf bytes.Buffer
	writeMetrics(&buf, s.hub, s.world, s.store, nil)
	out := buf.String()
	for _, want := range []string{
		"mineserver_players_online 0",
		`mineserver_block_actions_total{action="break"} 0`,
		"# TYPE mineserver_fall_steps_total counter",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "mineserver_index_") {
		t.Fatalf("index metrics without an index")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("MS_TEST_BOOL", "true")
	t.Setenv("MS_TEST_INT", "nope")
	if !envBool("MS_TEST_BOOL", false) || envBool("MS_TEST_UNSET", false) {
		t.Fatalf("envBool")
	}
	if envInt("MS_TEST_INT", 5) != 5 {
		t.Fatalf("envInt fallback")
	}
}
