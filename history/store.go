// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

// Package history keeps cooler telemetry in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite3 driver, "sqlite3"
	_ "modernc.org/sqlite"          // Pure-Go SQLite3 driver, "sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite  = "sqlite"
	DriverSQLite3 = "sqlite3"
)

// Field names accepted by Sample.Value.
const (
	FieldTempLiquid  = "temp_liquid"
	FieldFanRPM      = "fan_rpm"
	FieldPumpRPM     = "pump_rpm"
	FieldFanPercent  = "fan_percent"
	FieldPumpPercent = "pump_percent"
)

// Fields lists the plottable sample fields.
var Fields = []string{FieldTempLiquid, FieldFanRPM, FieldPumpRPM, FieldFanPercent, FieldPumpPercent}

// Sample is one recorded tick.
type Sample struct {
	Device       string    `json:"device"`
	Time         time.Time `json:"time"`
	TempLiquid   uint8     `json:"temp_liquid"`
	FanRPM       uint16    `json:"fan_rpm"`
	PumpRPM      uint16    `json:"pump_rpm"`
	FanPercent   uint8     `json:"fan_percent"`
	PumpPercent  uint8     `json:"pump_percent"`
	StatusFailed bool      `json:"status_failed"`
}

// Value returns the named field as a float for plotting.
func (s Sample) Value(field string) (float64, error) {
	switch field {
	case FieldTempLiquid:
		return float64(s.TempLiquid), nil
	case FieldFanRPM:
		return float64(s.FanRPM), nil
	case FieldPumpRPM:
		return float64(s.PumpRPM), nil
	case FieldFanPercent:
		return float64(s.FanPercent), nil
	case FieldPumpPercent:
		return float64(s.PumpPercent), nil
	}
	return 0, fmt.Errorf("unknown history field %q", field)
}

// Store is a telemetry database.
type Store struct {
	db     *sql.DB
	path   string
	driver string
}

// Open connects to the database at path with the given driver and creates
// the schema. An empty driver selects DriverSQLite.
func Open(driver, path string) (*Store, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverSQLite3 {
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, path: path, driver: driver}
	if err := s.initializeSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS samples (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			device        TEXT NOT NULL,
			time_ms       INTEGER NOT NULL,
			temp_liquid   INTEGER NOT NULL,
			fan_rpm       INTEGER NOT NULL,
			pump_rpm      INTEGER NOT NULL,
			fan_percent   INTEGER NOT NULL,
			pump_percent  INTEGER NOT NULL,
			status_failed INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_samples_device_time ON samples(device, time_ms);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create samples table: %w", err)
	}
	return nil
}

// Insert records one sample.
func (s *Store) Insert(ctx context.Context, sample Sample) error {
	const insertSQL = `INSERT INTO samples
		(device, time_ms, temp_liquid, fan_rpm, pump_rpm, fan_percent, pump_percent, status_failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, insertSQL,
		sample.Device, sample.Time.UnixMilli(),
		sample.TempLiquid, sample.FanRPM, sample.PumpRPM,
		sample.FanPercent, sample.PumpPercent, sample.StatusFailed)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// Query returns up to limit of the newest samples for device, oldest first.
// A limit of zero or less returns everything.
func (s *Store) Query(ctx context.Context, device string, limit int) ([]Sample, error) {
	query := `SELECT device, time_ms, temp_liquid, fan_rpm, pump_rpm, fan_percent, pump_percent, status_failed
		FROM samples WHERE device = ? ORDER BY time_ms DESC, id DESC`
	args := []interface{}{device}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			sample Sample
			ms     int64
		)
		if err := rows.Scan(&sample.Device, &ms, &sample.TempLiquid, &sample.FanRPM, &sample.PumpRPM,
			&sample.FanPercent, &sample.PumpPercent, &sample.StatusFailed); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		sample.Time = time.UnixMilli(ms).UTC()
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	return samples, nil
}

// Prune deletes samples older than before and returns how many went.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM samples WHERE time_ms < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune samples: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns database statistics
func (s *Store) Stats(ctx context.Context) (map[string]interface{}, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM samples").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count samples: %w", err)
	}
	stats := map[string]interface{}{
		"sample_count":  count,
		"database_path": s.path,
		"driver":        s.driver,
	}
	if info, err := os.Stat(s.path); err == nil {
		stats["database_size_bytes"] = info.Size()
	}
	return stats, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
