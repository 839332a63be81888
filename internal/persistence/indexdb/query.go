package indexdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/poizan42/mineserver/internal/sim/world"
)

// AuditsAt returns the audit trail of one cell, oldest first.
func (s *SQLiteIndex) AuditsAt(ctx context.Context, p world.Pos, limit int) ([]world.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, time, actor, action, dim, x, y, z, from_block, to_block, COALESCE(reason,'')
		FROM audits WHERE dim = ? AND x = ? AND z = ? AND y = ?
		ORDER BY seq DESC LIMIT ?`, int(p.Dim), p.X, p.Z, p.Y, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []world.AuditEntry
	for rows.Next() {
		var (
			a        world.AuditEntry
			dim      int
			from, to int
		)
		if err := rows.Scan(&a.Seq, &a.Time, &a.Actor, &a.Action, &dim, &a.Pos[0], &a.Pos[1], &a.Pos[2], &from, &to, &a.Reason); err != nil {
			return nil, err
		}
		a.Dim = int8(dim)
		a.From, a.To = byte(from), byte(to)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// LatestSnapshot returns the path of the newest recorded snapshot.
func (s *SQLiteIndex) LatestSnapshot(ctx context.Context) (string, uint64, bool, error) {
	var (
		path string
		seq  int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT path, seq FROM snapshots ORDER BY seq DESC LIMIT 1`).Scan(&path, &seq)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	return path, uint64(seq), true, nil
}

// SessionCount returns how many session events of kind were recorded for name.
func (s *SQLiteIndex) SessionCount(ctx context.Context, name, kind string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE name = ? AND kind = ?`, name, kind).Scan(&n)
	return n, err
}
