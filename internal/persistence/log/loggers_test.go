package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/poizan42/mineserver/internal/session"
	"github.com/poizan42/mineserver/internal/sim/world"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var out []map[string]any
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestAuditLoggerRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 10, 59, 0, 0, time.UTC)
	var closed []string
	l := NewAuditLogger(dir, LoggerOptions{
		Now:     func() time.Time { return now },
		OnClose: func(p string) { closed = append(closed, p) },
	})

	if err := l.WriteAudit(world.AuditEntry{Seq: 1, Actor: "alex", Action: "SET_BLOCK", To: 1}); err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}
	if err := l.WriteAudit(world.AuditEntry{Seq: 2, Actor: "alex", Action: "SET_BLOCK"}); err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := l.WriteAudit(world.AuditEntry{Seq: 3, Actor: "sam", Action: "SET_BLOCK"}); err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	first := filepath.Join(dir, "audit", "audit-2026-03-04-10.jsonl.zst")
	second := filepath.Join(dir, "audit", "audit-2026-03-04-11.jsonl.zst")
	if len(closed) != 2 || closed[0] != first || closed[1] != second {
		t.Fatalf("closed files: %v", closed)
	}
	if lines := readLines(t, first); len(lines) != 2 || lines[1]["seq"].(float64) != 2 {
		t.Fatalf("first file: %v", lines)
	}
	if lines := readLines(t, second); len(lines) != 1 || lines[0]["actor"] != "sam" {
		t.Fatalf("second file: %v", lines)
	}
}

func TestSessionLoggerDaily(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	l := NewSessionLogger(dir, LoggerOptions{RotateLayout: RotateDaily, Now: func() time.Time { return now }})
	for i, kind := range []string{session.EventLogin, session.EventLeave} {
		now = now.Add(time.Duration(i) * 3 * time.Hour)
		if err := l.WriteSessionEvent(session.Event{Session: "s1", Name: "alex", Kind: kind}); err != nil {
			t.Fatalf("WriteSessionEvent: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	lines := readLines(t, filepath.Join(dir, "sessions", "sessions-2026-03-04.jsonl.zst"))
	if len(lines) != 2 || lines[0]["kind"] != "login" || lines[1]["kind"] != "leave" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestJSONLZstdWriterReopenAppends(t *testing.T) {
	dir := t.TempDir()
	now := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	for i := 0; i < 2; i++ {
		w := NewJSONLZstdWriter(dir, "x", LoggerOptions{Now: now})
		if err := w.Write(map[string]int{"n": i}); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	if lines := readLines(t, filepath.Join(dir, "x-2026-01-01-00.jsonl.zst")); len(lines) != 2 {
		t.Fatalf("expected both runs in one file, got %v", lines)
	}
}
