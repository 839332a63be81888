package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/poizan42/mineserver/internal/persistence/indexdb"
	"github.com/poizan42/mineserver/internal/session"
	"github.com/poizan42/mineserver/internal/sim/world"
)

func openIndex(worldDir string, disableDB bool, logger *log.Logger) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("MS_INDEX_BACKEND")))
	switch backend {
	case "", "sqlite":
		path := filepath.Join(worldDir, "index", "world.sqlite")
		logger.Printf("index: sqlite at %s", path)
		return indexdb.OpenSQLite(path)
	case "none", "off", "disabled":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported MS_INDEX_BACKEND: %s", backend)
	}
}

type multiAuditLogger struct {
	a world.AuditLogger
	b world.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry world.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}

type multiSessionLogger struct {
	a session.EventLogger
	b session.EventLogger
}

func (m multiSessionLogger) WriteSessionEvent(ev session.Event) error {
	if m.a != nil {
		_ = m.a.WriteSessionEvent(ev)
	}
	if m.b != nil {
		_ = m.b.WriteSessionEvent(ev)
	}
	return nil
}
