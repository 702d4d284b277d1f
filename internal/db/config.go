package db

import (
	"fmt"
	"strconv"

	"primeflip/internal/config"
)

// LoadConfig reads config from SQLite, merging stored keys onto the
// defaults. An empty or unreadable table returns pure defaults.
func (d *DB) LoadConfig() *config.Config {
	cfg := config.Default()

	rows, err := d.sql.Query("SELECT key, value FROM config")
	if err != nil {
		return cfg
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		rows.Scan(&k, &v)
		m[k] = v
	}
	if len(m) == 0 {
		return cfg
	}

	if v, ok := m["max_requests"]; ok {
		cfg.MaxRequests, _ = strconv.Atoi(v)
	}
	if v, ok := m["window_seconds"]; ok {
		cfg.WindowSeconds, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["default_strategy"]; ok {
		cfg.DefaultStrategy = v
	}
	if v, ok := m["default_mode"]; ok {
		cfg.DefaultMode = v
	}
	if v, ok := m["price_depth"]; ok {
		cfg.PriceDepth, _ = strconv.Atoi(v)
	}
	if v, ok := m["min_set_price"]; ok {
		cfg.MinSetPrice, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["max_sets"]; ok {
		cfg.MaxSets, _ = strconv.Atoi(v)
	}
	if v, ok := m["refresh_minutes"]; ok {
		cfg.RefreshMinutes, _ = strconv.Atoi(v)
	}
	if v, ok := m["history_lookback_days"]; ok {
		cfg.HistoryLookbackDays, _ = strconv.Atoi(v)
	}
	if v, ok := m["platform"]; ok {
		cfg.Platform = v
	}

	return cfg
}

// SaveConfig writes config to SQLite (upsert all fields).
func (d *DB) SaveConfig(cfg *config.Config) error {
	pairs := map[string]string{
		"max_requests":          strconv.Itoa(cfg.MaxRequests),
		"window_seconds":        fmt.Sprintf("%g", cfg.WindowSeconds),
		"default_strategy":      cfg.DefaultStrategy,
		"default_mode":          cfg.DefaultMode,
		"price_depth":           strconv.Itoa(cfg.PriceDepth),
		"min_set_price":         fmt.Sprintf("%g", cfg.MinSetPrice),
		"max_sets":              strconv.Itoa(cfg.MaxSets),
		"refresh_minutes":       strconv.Itoa(cfg.RefreshMinutes),
		"history_lookback_days": strconv.Itoa(cfg.HistoryLookbackDays),
		"platform":              cfg.Platform,
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO config (key, value) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for k, v := range pairs {
		if _, err := stmt.Exec(k, v); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
