package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/poizan42/mineserver/internal/persistence/snapshot"
	"github.com/poizan42/mineserver/internal/session"
	"github.com/poizan42/mineserver/internal/sim/catalogs"
	"github.com/poizan42/mineserver/internal/sim/tuning"
	"github.com/poizan42/mineserver/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index over the audit and session
// logs. Writes are queued and applied in batches by one goroutine; when the
// queue is full they are dropped, the JSONL logs remain authoritative.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropAudit    atomic.Uint64
	dropSession  atomic.Uint64
	dropSnapshot atomic.Uint64
	dropLogFile  atomic.Uint64
	writeErrors  atomic.Uint64
}

type reqKind int

const (
	reqAudit reqKind = iota + 1
	reqSession
	reqSnapshot
	reqLogFile
)

type req struct {
	kind reqKind

	audit    world.AuditEntry
	session  session.Event
	snapshot snapshotRow
	logFile  string
}

type snapshotRow struct {
	Seq     uint64
	Path    string
	SavedAt string
	Height  int
	Chunks  int
	Players int
	Digest  string
}

// Stats reports queue health.
type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropAuditTotal    uint64 `json:"drop_audit_total"`
	DropSessionTotal  uint64 `json:"drop_session_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
	DropLogFileTotal  uint64 `json:"drop_log_file_total"`
	WriteErrorTotal   uint64 `json:"write_error_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			seq INTEGER PRIMARY KEY,
			time TEXT NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			dim INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			from_block INTEGER NOT NULL,
			to_block INTEGER NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor ON audits(actor, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_pos ON audits(dim, x, z, y, seq);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			time TEXT NOT NULL,
			session_id TEXT NOT NULL,
			name TEXT,
			kind TEXT NOT NULL,
			reason TEXT,
			remote TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_name ON sessions(name, id);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			seq INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			saved_at TEXT NOT NULL,
			height INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			players INTEGER NOT NULL,
			catalog_digest TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS log_files (
			path TEXT PRIMARY KEY,
			closed_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

// WriteAudit implements world.AuditLogger.
func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	s.enqueue(req{kind: reqAudit, audit: entry}, &s.dropAudit)
	return nil
}

// WriteSessionEvent implements session.EventLogger.
func (s *SQLiteIndex) WriteSessionEvent(ev session.Event) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	s.enqueue(req{kind: reqSession, session: ev}, &s.dropSession)
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Seq:     snap.Header.Seq,
		Path:    path,
		SavedAt: snap.Header.SavedAt,
		Height:  snap.Height,
		Chunks:  len(snap.Chunks),
		Players: len(snap.Players),
		Digest:  snap.CatalogDigest,
	}
	s.enqueue(req{kind: reqSnapshot, snapshot: r}, &s.dropSnapshot)
}

// RecordLogFile notes a finished JSONL file; it fits LoggerOptions.OnClose.
func (s *SQLiteIndex) RecordLogFile(path string) {
	if s == nil || s.closed.Load() {
		return
	}
	s.enqueue(req{kind: reqLogFile, logFile: path}, &s.dropLogFile)
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropAuditTotal:    s.dropAudit.Load(),
		DropSessionTotal:  s.dropSession.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
		DropLogFileTotal:  s.dropLogFile.Load(),
		WriteErrorTotal:   s.writeErrors.Load(),
	}
}

// UpsertCatalogs stores the block catalog and the effective tuning so an
// index can be interpreted without the server's config directory.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if len(cats.Raw) > 0 {
		rows = append(rows, kv{name: "blocks", digest: cats.Digest, json: cats.Raw})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(seq,time,actor,action,dim,x,y,z,from_block,to_block,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertSession, _ := s.db.Prepare(`INSERT INTO sessions(time,session_id,name,kind,reason,remote) VALUES(?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(seq,path,saved_at,height,chunks,players,catalog_digest) VALUES(?,?,?,?,?,?,?)`)
	insertLogFile, _ := s.db.Prepare(`INSERT OR REPLACE INTO log_files(path,closed_at) VALUES(?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertAudit, insertSession, insertSnapshot, insertLogFile} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 1000
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.writeErrors.Add(1)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
		s.writeErrors.Add(1)
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			s.writeErrors.Add(1)
			continue
		}
		switch r.kind {
		case reqAudit:
			a := r.audit
			raw, _ := json.Marshal(a)
			exec(insertAudit, int64(a.Seq), a.Time, a.Actor, a.Action, int(a.Dim),
				a.Pos[0], a.Pos[1], a.Pos[2], int(a.From), int(a.To), a.Reason, string(raw))

		case reqSession:
			ev := r.session
			exec(insertSession, ev.Time, ev.Session, ev.Name, ev.Kind, ev.Reason, ev.Remote)

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, int64(sn.Seq), sn.Path, sn.SavedAt, sn.Height, sn.Chunks, sn.Players, sn.Digest)

		case reqLogFile:
			exec(insertLogFile, r.logFile, time.Now().UTC().Format(time.RFC3339Nano))
		}
		// Commit once the queue is drained so readers see recent writes.
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait || len(s.ch) == 0 {
			commit()
		}
	}

	commit()
}
