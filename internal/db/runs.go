package db

import (
	"encoding/json"
	"time"

	"primeflip/internal/engine"
)

// RunMeta summarizes one stored scan run.
type RunMeta struct {
	RunID      string  `json:"run_id"`
	Timestamp  string  `json:"timestamp"`
	Strategy   string  `json:"strategy"`
	Mode       string  `json:"mode"`
	Count      int     `json:"count"`
	TopScore   float64 `json:"top_score"`
	DurationMs int64   `json:"duration_ms"`
}

// SaveRun persists a scan run and its full records. Each record is stored
// as JSON so a later rescore replays exactly what was scored, not a lossy
// column subset.
func (d *DB) SaveRun(result *engine.ScanResult) error {
	topScore := 0.0
	if len(result.Records) > 0 {
		topScore = result.Records[0].CompositeScore
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO scan_runs (run_id, started, strategy, mode, record_count, top_score, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)",
		result.RunID, result.Started.UTC().Format(time.RFC3339), result.Strategy, result.Mode,
		len(result.Records), topScore, result.Duration.Milliseconds(),
	); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO score_records (run_id, item_id, name, composite_score, record_json) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, rec := range result.Records {
		blob, err := json.Marshal(rec)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := stmt.Exec(result.RunID, rec.ItemID, rec.Name, rec.CompositeScore, string(blob)); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetRuns returns the last N runs, newest first.
func (d *DB) GetRuns(limit int) []RunMeta {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(
		`SELECT run_id, started, strategy, mode, record_count, top_score, duration_ms
		 FROM scan_runs ORDER BY started DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return []RunMeta{}
	}
	defer rows.Close()

	var runs []RunMeta
	for rows.Next() {
		var r RunMeta
		rows.Scan(&r.RunID, &r.Timestamp, &r.Strategy, &r.Mode, &r.Count, &r.TopScore, &r.DurationMs)
		runs = append(runs, r)
	}
	if runs == nil {
		return []RunMeta{}
	}
	return runs
}

// GetRun returns a single run's metadata, or nil if it does not exist.
func (d *DB) GetRun(runID string) *RunMeta {
	row := d.sql.QueryRow(
		`SELECT run_id, started, strategy, mode, record_count, top_score, duration_ms
		 FROM scan_runs WHERE run_id = ?`,
		runID,
	)
	var r RunMeta
	if err := row.Scan(&r.RunID, &r.Timestamp, &r.Strategy, &r.Mode, &r.Count, &r.TopScore, &r.DurationMs); err != nil {
		return nil
	}
	return &r
}

// LatestRunID returns the most recent run's ID, or "" when nothing is stored.
func (d *DB) LatestRunID() string {
	var id string
	d.sql.QueryRow("SELECT run_id FROM scan_runs ORDER BY started DESC, rowid DESC LIMIT 1").Scan(&id)
	return id
}

// GetRunRecords reconstructs a run's records in their ranked order.
func (d *DB) GetRunRecords(runID string) []engine.ScoredRecord {
	rows, err := d.sql.Query("SELECT record_json FROM score_records WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	records := make([]engine.ScoredRecord, 0)
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			continue
		}
		var rec engine.ScoredRecord
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// DeleteRun deletes a run and its records.
func (d *DB) DeleteRun(runID string) error {
	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	tx.Exec("DELETE FROM score_records WHERE run_id = ?", runID)
	tx.Exec("DELETE FROM scan_runs WHERE run_id = ?", runID)
	return tx.Commit()
}

// ClearRuns deletes runs older than the given number of days and returns
// how many were removed.
func (d *DB) ClearRuns(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays).UTC().Format(time.RFC3339)

	tx, err := d.sql.Begin()
	if err != nil {
		return 0, err
	}
	tx.Exec("DELETE FROM score_records WHERE run_id IN (SELECT run_id FROM scan_runs WHERE started < ?)", cutoff)
	result, err := tx.Exec("DELETE FROM scan_runs WHERE started < ?", cutoff)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	count, _ := result.RowsAffected()
	return count, nil
}
