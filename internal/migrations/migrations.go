package migrations

import (
	"database/sql"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add per-device time indices",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_photo_device_end ON photo_observations(device, end_ms DESC);
			CREATE INDEX IF NOT EXISTS idx_gesture_device_time ON pointing_gestures(device, recognized_ms DESC);
			CREATE INDEX IF NOT EXISTS idx_ping_device_sent ON ping_samples(device, sent_ms DESC);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_photo_device_end;
			DROP INDEX IF EXISTS idx_gesture_device_time;
			DROP INDEX IF EXISTS idx_ping_device_sent;
		`,
	},
	{
		Version: 2,
		Name:    "Add referent index for gesture lookups",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_gesture_referent ON pointing_gestures(referent);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_gesture_referent;
		`,
	},
}

// InitSchema creates every telemetry table.
// This must be called before running migrations to ensure all tables exist
func InitSchema(db *sql.DB) error {
	schema := `
	-- Photoresistor summaries reported by the device
	CREATE TABLE IF NOT EXISTS photo_observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device TEXT NOT NULL,
		start_ms INTEGER NOT NULL,
		end_ms INTEGER NOT NULL,
		sample_count INTEGER NOT NULL,
		min_value REAL NOT NULL,
		max_value REAL NOT NULL,
		mean REAL NOT NULL,
		variance REAL NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Laser pointing gestures and what they pointed at
	CREATE TABLE IF NOT EXISTS pointing_gestures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device TEXT NOT NULL,
		referent TEXT NOT NULL DEFAULT '',
		recognized_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Ping round trips
	CREATE TABLE IF NOT EXISTS ping_samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device TEXT NOT NULL,
		sent_ms INTEGER NOT NULL,
		rtt_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Run executes all pending migrations on the database
func Run(db *sql.DB) error {
	// Initialize schema first to ensure all tables exist
	if err := InitSchema(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			migration.Version,
			migration.Name,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	return version, nil
}
