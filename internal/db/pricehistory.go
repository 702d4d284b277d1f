package db

import (
	"time"

	"primeflip/internal/engine"
)

// SavePricePoints stores daily price points for an item. One point per item
// per day; replays of the same day are ignored rather than rewritten.
func (d *DB) SavePricePoints(itemID string, points []engine.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR IGNORE INTO price_history (item_id, day, ts, price) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, pt := range points {
		if pt.Price <= 0 || pt.Timestamp.IsZero() {
			continue
		}
		ts := pt.Timestamp.UTC()
		if _, err := stmt.Exec(itemID, ts.Format("2006-01-02"), ts.Format(time.RFC3339), pt.Price); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// PricePoints returns an item's stored points within the lookback window,
// oldest first. lookbackDays <= 0 returns everything.
func (d *DB) PricePoints(itemID string, lookbackDays int) ([]engine.PricePoint, error) {
	query := "SELECT ts, price FROM price_history WHERE item_id = ? ORDER BY day"
	args := []interface{}{itemID}
	if lookbackDays > 0 {
		query = "SELECT ts, price FROM price_history WHERE item_id = ? AND day >= ? ORDER BY day"
		args = append(args, time.Now().UTC().AddDate(0, 0, -lookbackDays).Format("2006-01-02"))
	}
	rows, err := d.sql.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []engine.PricePoint
	for rows.Next() {
		var ts string
		var price float64
		if err := rows.Scan(&ts, &price); err != nil {
			continue
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}
		points = append(points, engine.PricePoint{Price: price, Timestamp: t})
	}
	return points, rows.Err()
}

// PrunePriceHistory drops points older than the given number of days.
func (d *DB) PrunePriceHistory(olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format("2006-01-02")
	result, err := d.sql.Exec("DELETE FROM price_history WHERE day < ?", cutoff)
	if err != nil {
		return 0, err
	}
	count, _ := result.RowsAffected()
	return count, nil
}
