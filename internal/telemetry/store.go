// Package telemetry persists what devices report: photoresistor summaries,
// pointing gestures and ping round trips.
package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/studiowebux/typeatron/internal/device"
	"github.com/studiowebux/typeatron/internal/migrations"
)

// DefaultLimit caps Recent* queries when no limit is given
const DefaultLimit = 50

// Store is a SQLite-backed device.Recorder
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and migrates it
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry database: %w", err)
	}
	// every device session writes here; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to telemetry database: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordObservation stores a photoresistor summary
func (s *Store) RecordObservation(obs device.PhotoObservation) error {
	_, err := s.db.Exec(`
		INSERT INTO photo_observations (
			device, start_ms, end_ms, sample_count, min_value, max_value, mean, variance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.Device,
		obs.Start.UnixMilli(),
		obs.End.UnixMilli(),
		obs.Count,
		obs.Min,
		obs.Max,
		obs.Mean,
		obs.Variance,
	)
	if err != nil {
		return fmt.Errorf("failed to save observation: %w", err)
	}
	return nil
}

// RecordGesture stores a pointing gesture
func (s *Store) RecordGesture(g device.Gesture) error {
	_, err := s.db.Exec(
		"INSERT INTO pointing_gestures (device, referent, recognized_ms) VALUES (?, ?, ?)",
		g.Device, g.Referent, g.RecognizedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save gesture: %w", err)
	}
	return nil
}

// RecordPing stores a ping round trip
func (s *Store) RecordPing(p device.PingSample) error {
	_, err := s.db.Exec(
		"INSERT INTO ping_samples (device, sent_ms, rtt_ms) VALUES (?, ?, ?)",
		p.Device, p.SentAt.UnixMilli(), p.RTT.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to save ping: %w", err)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// deviceFilter matches every device when device is empty
const deviceFilter = "(? = '' OR device = ?)"

// RecentObservations returns the newest observations first
func (s *Store) RecentObservations(deviceAddr string, limit int) ([]device.PhotoObservation, error) {
	rows, err := s.db.Query(`
		SELECT device, start_ms, end_ms, sample_count, min_value, max_value, mean, variance
		FROM photo_observations
		WHERE `+deviceFilter+`
		ORDER BY end_ms DESC, id DESC
		LIMIT ?`,
		deviceAddr, deviceAddr, normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []device.PhotoObservation
	for rows.Next() {
		var (
			obs        device.PhotoObservation
			start, end int64
		)
		if err := rows.Scan(&obs.Device, &start, &end, &obs.Count, &obs.Min, &obs.Max, &obs.Mean, &obs.Variance); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		obs.Start = time.UnixMilli(start)
		obs.End = time.UnixMilli(end)
		out = append(out, obs)
	}
	return out, rows.Err()
}

// RecentGestures returns the newest gestures first
func (s *Store) RecentGestures(deviceAddr string, limit int) ([]device.Gesture, error) {
	rows, err := s.db.Query(`
		SELECT device, referent, recognized_ms
		FROM pointing_gestures
		WHERE `+deviceFilter+`
		ORDER BY recognized_ms DESC, id DESC
		LIMIT ?`,
		deviceAddr, deviceAddr, normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query gestures: %w", err)
	}
	defer rows.Close()

	var out []device.Gesture
	for rows.Next() {
		var (
			g  device.Gesture
			at int64
		)
		if err := rows.Scan(&g.Device, &g.Referent, &at); err != nil {
			return nil, fmt.Errorf("failed to scan gesture: %w", err)
		}
		g.RecognizedAt = time.UnixMilli(at)
		out = append(out, g)
	}
	return out, rows.Err()
}

// RecentPings returns the newest ping samples first
func (s *Store) RecentPings(deviceAddr string, limit int) ([]device.PingSample, error) {
	rows, err := s.db.Query(`
		SELECT device, sent_ms, rtt_ms
		FROM ping_samples
		WHERE `+deviceFilter+`
		ORDER BY sent_ms DESC, id DESC
		LIMIT ?`,
		deviceAddr, deviceAddr, normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pings: %w", err)
	}
	defer rows.Close()

	var out []device.PingSample
	for rows.Next() {
		var (
			p         device.PingSample
			sent, rtt int64
		)
		if err := rows.Scan(&p.Device, &sent, &rtt); err != nil {
			return nil, fmt.Errorf("failed to scan ping: %w", err)
		}
		p.SentAt = time.UnixMilli(sent)
		p.RTT = time.Duration(rtt) * time.Millisecond
		out = append(out, p)
	}
	return out, rows.Err()
}

// PingStats summarizes round trips for a device
type PingStats struct {
	Count int64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// PingSummary aggregates every ping sample of deviceAddr
func (s *Store) PingSummary(deviceAddr string) (PingStats, error) {
	var (
		stats        PingStats
		minMs, maxMs sql.NullInt64
		avgMs        sql.NullFloat64
	)
	err := s.db.QueryRow(`
		SELECT COUNT(*), MIN(rtt_ms), MAX(rtt_ms), AVG(rtt_ms)
		FROM ping_samples
		WHERE `+deviceFilter,
		deviceAddr, deviceAddr,
	).Scan(&stats.Count, &minMs, &maxMs, &avgMs)
	if err != nil {
		return PingStats{}, fmt.Errorf("failed to summarize pings: %w", err)
	}
	stats.Min = time.Duration(minMs.Int64) * time.Millisecond
	stats.Max = time.Duration(maxMs.Int64) * time.Millisecond
	stats.Avg = time.Duration(avgMs.Float64 * float64(time.Millisecond))
	return stats, nil
}
