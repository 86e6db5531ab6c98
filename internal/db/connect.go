package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:alloy.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/alloy?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer; avoids SQLITE_BUSY and keeps :memory: databases alive
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Timestamps are unix milliseconds in both dialects.
const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS alloy_compositions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  grade TEXT NOT NULL,
  elements_json TEXT NOT NULL DEFAULT '{}',
  properties_json TEXT NOT NULL DEFAULT '{}',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alloy_compositions_grade ON alloy_compositions(grade);

CREATE TABLE IF NOT EXISTS process_data (
  id TEXT PRIMARY KEY,
  furnace_id TEXT NOT NULL,
  temperature REAL NOT NULL,
  pressure REAL NOT NULL DEFAULT 0,
  oxygen_level REAL NOT NULL DEFAULT 0,
  composition_json TEXT NOT NULL DEFAULT '{}',
  recorded_at INTEGER NOT NULL,
  quality_score REAL
);
CREATE INDEX IF NOT EXISTS idx_process_data_recorded_at ON process_data(recorded_at);
CREATE INDEX IF NOT EXISTS idx_process_data_furnace ON process_data(furnace_id, recorded_at);

CREATE TABLE IF NOT EXISTS inventory (
  id TEXT PRIMARY KEY,
  material_name TEXT NOT NULL,
  material_type TEXT NOT NULL,
  quantity REAL NOT NULL,
  unit TEXT NOT NULL,
  supplier TEXT NOT NULL DEFAULT '',
  quality_grade TEXT NOT NULL DEFAULT '',
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  severity TEXT NOT NULL,
  source TEXT NOT NULL,
  is_resolved INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  resolved_at INTEGER
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,                         -- e.g., anomaly.detected
  key TEXT NOT NULL,                         -- natural key: furnace or sample id
  data TEXT NOT NULL,                        -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS alloy_compositions (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  grade TEXT NOT NULL,
  elements_json TEXT NOT NULL DEFAULT '{}',
  properties_json TEXT NOT NULL DEFAULT '{}',
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alloy_compositions_grade ON alloy_compositions(grade);

CREATE TABLE IF NOT EXISTS process_data (
  id TEXT PRIMARY KEY,
  furnace_id TEXT NOT NULL,
  temperature DOUBLE PRECISION NOT NULL,
  pressure DOUBLE PRECISION NOT NULL DEFAULT 0,
  oxygen_level DOUBLE PRECISION NOT NULL DEFAULT 0,
  composition_json TEXT NOT NULL DEFAULT '{}',
  recorded_at BIGINT NOT NULL,
  quality_score DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS idx_process_data_recorded_at ON process_data(recorded_at);
CREATE INDEX IF NOT EXISTS idx_process_data_furnace ON process_data(furnace_id, recorded_at);

CREATE TABLE IF NOT EXISTS inventory (
  id TEXT PRIMARY KEY,
  material_name TEXT NOT NULL,
  material_type TEXT NOT NULL,
  quantity DOUBLE PRECISION NOT NULL,
  unit TEXT NOT NULL,
  supplier TEXT NOT NULL DEFAULT '',
  quality_grade TEXT NOT NULL DEFAULT '',
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  severity TEXT NOT NULL,
  source TEXT NOT NULL,
  is_resolved INTEGER NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL,
  resolved_at BIGINT
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
