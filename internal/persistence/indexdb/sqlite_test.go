package indexdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/poizan42/mineserver/internal/persistence/snapshot"
	"github.com/poizan42/mineserver/internal/session"
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/tuning"
	"github.com/poizan42/mineserver/internal/sim/world"
)

func openTemp(t *testing.T) (*SQLiteIndex, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index", "world.sqlite")
	idx, err := OpenSQLite(path)
	require.NoError(t, err)
	return idx, path
}

func TestSQLiteIndexAuditsAt(t *testing.T) {
	defer goleak.VerifyNone(t)

	idx, path := openTemp(t)
	p := world.Pos{X: 3, Y: 4, Z: -2}
	require.NoError(t, idx.WriteAudit(world.AuditEntry{Seq: 1, Actor: "alex", Action: "SET_BLOCK", Pos: p.ToArray(), To: 12, Reason: "place"}))
	require.NoError(t, idx.WriteAudit(world.AuditEntry{Seq: 2, Actor: "alex", Action: "SET_BLOCK", Pos: [3]int{0, 0, 0}}))
	require.NoError(t, idx.WriteAudit(world.AuditEntry{Seq: 3, Actor: "sam", Action: "SET_BLOCK", Pos: p.ToArray(), From: 12, Reason: "break"}))
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	idx, err := OpenSQLite(path)
	require.NoError(t, err)
	defer idx.Close()

	got, err := idx.AuditsAt(context.Background(), p, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, byte(12), got[0].To)
	assert.Equal(t, "sam", got[1].Actor)
	assert.Equal(t, "break", got[1].Reason)
	assert.Equal(t, [3]int{3, 4, -2}, got[1].Pos)

	other := p
	other.Dim = -1
	got, err = idx.AuditsAt(context.Background(), other, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteIndexSessionsAndSnapshots(t *testing.T) {
	defer goleak.VerifyNone(t)

	idx, _ := openTemp(t)
	defer idx.Close()
	ctx := context.Background()

	_, _, ok, err := idx.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, kind := range []string{session.EventLogin, session.EventLeave, session.EventLogin} {
		require.NoError(t, idx.WriteSessionEvent(session.Event{Time: "t", Session: "s", Name: "alex", Kind: kind}))
	}
	idx.RecordSnapshot("/w/snapshots/4.snap.zst", snapshot.SnapshotV1{Header: snapshot.Header{Seq: 4}, Height: 32})
	idx.RecordSnapshot("/w/snapshots/9.snap.zst", snapshot.SnapshotV1{Header: snapshot.Header{Seq: 9}, Height: 32})
	idx.RecordLogFile("/w/audit/audit-2026-01-01-00.jsonl.zst")

	require.Eventually(t, func() bool {
		n, err := idx.SessionCount(ctx, "alex", session.EventLogin)
		path, seq, ok, err2 := idx.LatestSnapshot(ctx)
		return err == nil && err2 == nil && n == 2 && ok && seq == 9 && path == "/w/snapshots/9.snap.zst"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Zero(t, idx.Stats().WriteErrorTotal)
}

func TestSQLiteIndexUpsertCatalogs(t *testing.T) {
	defer goleak.VerifyNone(t)

	idx, _ := openTemp(t)
	defer idx.Close()
	cats := catalogs.Default()
	require.NoError(t, idx.UpsertCatalogs(cats, tuning.Defaults()))
	require.NoError(t, idx.UpsertCatalogs(cats, tuning.Defaults()))

	var digest string
	require.NoError(t, idx.db.QueryRow(`SELECT digest FROM catalogs WHERE name='blocks'`).Scan(&digest))
	assert.Equal(t, cats.Digest, digest)
	var n int
	require.NoError(t, idx.db.QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSQLiteIndexQueueDrops(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqAudit}

	_ = s.WriteAudit(world.AuditEntry{Seq: 2})
	_ = s.WriteSessionEvent(session.Event{Kind: session.EventLogin})
	s.RecordSnapshot("/tmp/2.snap.zst", snapshot.SnapshotV1{})
	s.RecordLogFile("/tmp/x")

	st := s.Stats()
	if st.DropAuditTotal != 1 || st.DropSessionTotal != 1 || st.DropSnapshotTotal != 1 || st.DropLogFileTotal != 1 {
		t.Fatalf("drop counters: %+v", st)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestOpenSQLiteEmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestNilIndexIsInert(t *testing.T) {
	var s *SQLiteIndex
	if err := s.WriteAudit(world.AuditEntry{}); err != nil {
		t.Fatalf("WriteAudit on nil: %v", err)
	}
	s.RecordSnapshot("x", snapshot.SnapshotV1{})
	if st := s.Stats(); st.QueueCapacity != 0 {
		t.Fatalf("nil stats: %+v", st)
	}
}
