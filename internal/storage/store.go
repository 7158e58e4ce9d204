// Package storage persists the burn ledger cache in SQLite: one table of
// finalized per-day burn totals and one generic keyed payload cache. No
// staleness logic lives here; TTL decisions belong to the burn service.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/glebarez/go-sqlite"

	"burnwatch/internal/domain"
)

// legacyDailyTable is the table name older deployments used for daily burn
// totals. Its rows are migrated forward into dailyTable once at startup.
const (
	dailyTable       = "daily_burn"
	legacyDailyTable = "burn_daily"
)

// CacheStore handles persistent storage of daily burn records and derived
// payloads in SQLite. Writes are serialized; SQLite's own locking plus WAL
// keeps reads consistent.
type CacheStore struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// NewCacheStore opens (or creates) the cache database with WAL mode enabled
// and migrates any legacy schema forward.
func NewCacheStore(dbPath string) (*CacheStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_burn (
			day TEXT PRIMARY KEY,
			burn_raw TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`); err != nil {
		return nil, fmt.Errorf("failed to create daily_burn table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv_cache (
			key TEXT PRIMARY KEY,
			payload_json TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`); err != nil {
		return nil, fmt.Errorf("failed to create kv_cache table: %w", err)
	}

	s := &CacheStore{db: db}
	if err := s.migrateLegacyDaily(); err != nil {
		return nil, err
	}

	return s, nil
}

// migrateLegacyDaily moves rows from the legacy daily table into the current
// one and drops the legacy table, so the rest of the code never branches on
// which schema generation is on disk. Existing rows win on conflict: the
// current table is assumed newer.
func (s *CacheStore) migrateLegacyDaily() error {
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", legacyDailyTable,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to probe legacy table: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin legacy migration: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(fmt.Sprintf(
		"INSERT INTO %s (day, burn_raw, updated_at) SELECT day, burn_raw, updated_at FROM %s WHERE true ON CONFLICT(day) DO NOTHING",
		dailyTable, legacyDailyTable,
	))
	if err != nil {
		return fmt.Errorf("failed to migrate legacy daily rows: %w", err)
	}
	if _, err := tx.Exec("DROP TABLE " + legacyDailyTable); err != nil {
		return fmt.Errorf("failed to drop legacy table: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit legacy migration: %w", err)
	}

	migrated, _ := res.RowsAffected()
	slog.Info("Migrated legacy daily burn table",
		slog.String("from", legacyDailyTable),
		slog.String("to", dailyTable),
		slog.Int64("rows", migrated))
	return nil
}

// GetDaily returns the burn record for one day, or nil when absent.
func (s *CacheStore) GetDaily(ctx context.Context, day string) (*domain.DailyBurnRecord, error) {
	var rec domain.DailyBurnRecord
	err := s.db.QueryRowContext(ctx,
		"SELECT day, burn_raw, updated_at FROM daily_burn WHERE day = ?", day,
	).Scan(&rec.Day, &rec.BurnRaw, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily %s: %w", day, err)
	}
	return &rec, nil
}

// UpsertDaily writes one day's burn total. Idempotent; last writer wins.
func (s *CacheStore) UpsertDaily(ctx context.Context, day, burnRaw string, updatedAt int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO daily_burn (day, burn_raw, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(day) DO UPDATE SET burn_raw=excluded.burn_raw, updated_at=excluded.updated_at",
		day, burnRaw, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily %s: %w", day, err)
	}
	return nil
}

// ListDailyRange returns all stored records in [startDay, endDay], ordered
// by day ascending.
func (s *CacheStore) ListDailyRange(ctx context.Context, startDay, endDay string) ([]domain.DailyBurnRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT day, burn_raw, updated_at FROM daily_burn WHERE day >= ? AND day <= ? ORDER BY day ASC",
		startDay, endDay,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily range: %w", err)
	}
	defer rows.Close()

	var recs []domain.DailyBurnRecord
	for rows.Next() {
		var rec domain.DailyBurnRecord
		if err := rows.Scan(&rec.Day, &rec.BurnRaw, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily row: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return recs, nil
}

// GetPayload returns a cached derived payload, or nil when absent.
func (s *CacheStore) GetPayload(ctx context.Context, key string) (*domain.CachedPayload, error) {
	var p domain.CachedPayload
	err := s.db.QueryRowContext(ctx,
		"SELECT key, payload_json, updated_at FROM kv_cache WHERE key = ?", key,
	).Scan(&p.Key, &p.PayloadJSON, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payload %s: %w", key, err)
	}
	return &p, nil
}

// UpsertPayload writes one derived payload. Idempotent; last writer wins.
func (s *CacheStore) UpsertPayload(ctx context.Context, key, payloadJSON string, updatedAt int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv_cache (key, payload_json, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET payload_json=excluded.payload_json, updated_at=excluded.updated_at",
		key, payloadJSON, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert payload %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *CacheStore) Close() error {
	return s.db.Close()
}
