// Package oplog records executed composite operations in SQLite so their
// reports can be reviewed after the fact.
package oplog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/engine"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS operations (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	tool          TEXT NOT NULL,
	plan_checksum TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	planned       INTEGER NOT NULL DEFAULT 0,
	succeeded     INTEGER NOT NULL DEFAULT 0,
	failed        INTEGER NOT NULL DEFAULT 0,
	report        TEXT NOT NULL DEFAULT '{}',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_operations_created ON operations(created_at);
`

// Entry is one recorded operation.
type Entry struct {
	ID           int64          `json:"id"`
	Tool         string         `json:"tool"`
	PlanChecksum string         `json:"plan_checksum"`
	Status       string         `json:"status"`
	Planned      int            `json:"planned"`
	Succeeded    int            `json:"succeeded"`
	Failed       int            `json:"failed"`
	Report       *engine.Report `json:"report,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Log wraps a sql.DB with operation-history queries. A nil *Log is a valid
// no-op so callers need not guard every Record call when the log is
// disabled by configuration.
type Log struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Log, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("oplog: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("oplog: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("oplog: apply schema: %w", err)
	}
	return &Log{conn: conn}, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	return l.conn.Close()
}

// Record stores the report of one executed operation. The plan checksum
// lets identical re-runs be correlated across the history.
func (l *Log) Record(plan *engine.Plan, report *engine.Report) error {
	if l == nil {
		return nil
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("oplog: marshal plan: %w", err)
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("oplog: marshal report: %w", err)
	}

	_, err = l.conn.Exec(`
		INSERT INTO operations (tool, plan_checksum, status, planned, succeeded, failed, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, report.Tool, checksum.Sum(planJSON), report.Status,
		report.Planned, report.Succeeded, report.Failed, string(reportJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("oplog: insert: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (l *Log) Recent(limit int) ([]Entry, error) {
	if l == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.conn.Query(`
		SELECT id, tool, plan_checksum, status, planned, succeeded, failed, report, created_at
		FROM operations ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("oplog: query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var reportJSON string
		if err := rows.Scan(&e.ID, &e.Tool, &e.PlanChecksum, &e.Status,
			&e.Planned, &e.Succeeded, &e.Failed, &reportJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("oplog: scan: %w", err)
		}
		var rep engine.Report
		if err := json.Unmarshal([]byte(reportJSON), &rep); err == nil {
			e.Report = &rep
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
