package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/poizan42/mineserver/internal/session"
	"github.com/poizan42/mineserver/internal/sim/world"
)

const (
	RotateHourly = "hourly"
	RotateDaily  = "daily"
)

type LoggerOptions struct {
	// RotateLayout is RotateHourly (default) or RotateDaily.
	RotateLayout string
	// OnClose is called with the path of every file that was rotated away or
	// closed. It runs with the writer lock held and must not block.
	OnClose func(path string)
	// Now overrides the clock; tests use it to force rotation.
	Now func() time.Time
}

// JSONLZstdWriter appends one JSON document per line to zstd-compressed files,
// rotating by wall-clock period.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	opts    LoggerOptions

	mu        sync.Mutex
	curPeriod string
	curPath   string
	f         *os.File
	enc       *zstd.Encoder
	w         *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string, opts LoggerOptions) *JSONLZstdWriter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		opts:    opts,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	period := w.period(w.opts.Now().UTC())
	if period != w.curPeriod {
		if err := w.rotateLocked(period); err != nil {
			return err
		}
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	// Flush the zstd frame so a crash loses at most the current line.
	return w.enc.Flush()
}

func (w *JSONLZstdWriter) period(t time.Time) string {
	if w.opts.RotateLayout == RotateDaily {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02-15")
}

func (w *JSONLZstdWriter) rotateLocked(period string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathFor(period)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curPeriod = period
	w.curPath = path
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
		if w.opts.OnClose != nil && w.curPath != "" {
			w.opts.OnClose(w.curPath)
		}
	}
	w.w = nil
	w.curPeriod = ""
	w.curPath = ""
	return err1
}

func (w *JSONLZstdWriter) pathFor(period string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, period))
}

// AuditLogger writes one line per block change.
type AuditLogger struct{ w *JSONLZstdWriter }

func NewAuditLogger(worldDir string, opts LoggerOptions) *AuditLogger {
	return &AuditLogger{w: NewJSONLZstdWriter(filepath.Join(worldDir, "audit"), "audit", opts)}
}

func (l *AuditLogger) WriteAudit(v world.AuditEntry) error { return l.w.Write(v) }
func (l *AuditLogger) Close() error                        { return l.w.Close() }

// SessionLogger writes logins, leaves and kicks.
type SessionLogger struct{ w *JSONLZstdWriter }

func NewSessionLogger(worldDir string, opts LoggerOptions) *SessionLogger {
	return &SessionLogger{w: NewJSONLZstdWriter(filepath.Join(worldDir, "sessions"), "sessions", opts)}
}

func (l *SessionLogger) WriteSessionEvent(v session.Event) error { return l.w.Write(v) }
func (l *SessionLogger) Close() error                            { return l.w.Close() }
