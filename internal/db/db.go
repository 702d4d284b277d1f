package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"primeflip/internal/logger"
)

// DB wraps the SQLite database holding config, scan runs and price history.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the database under dataDir and runs migrations.
// An empty dataDir falls back to the working directory so go run and the
// deployed binary hit the same file.
func Open(dataDir string) (*DB, error) {
	if dataDir == "" {
		if wd, err := os.Getwd(); err == nil {
			dataDir = wd
		} else {
			exe, _ := os.Executable()
			dataDir = filepath.Dir(exe)
		}
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, "primeflip.db")

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS config (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS scan_runs (
				run_id       TEXT PRIMARY KEY,
				started      TEXT NOT NULL,
				strategy     TEXT NOT NULL,
				mode         TEXT NOT NULL,
				record_count INTEGER NOT NULL,
				top_score    REAL NOT NULL DEFAULT 0,
				duration_ms  INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_scan_runs_started ON scan_runs(started);

			CREATE TABLE IF NOT EXISTS score_records (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id          TEXT NOT NULL REFERENCES scan_runs(run_id),
				item_id         TEXT NOT NULL,
				name            TEXT,
				composite_score REAL NOT NULL,
				record_json     TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_score_records_run ON score_records(run_id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	if version < 2 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS price_history (
				item_id TEXT NOT NULL,
				day     TEXT NOT NULL,
				ts      TEXT NOT NULL,
				price   REAL NOT NULL,
				PRIMARY KEY (item_id, day)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (2);
		`)
		if err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		logger.Info("DB", "Applied migration v2 (price history)")
	}

	return nil
}
