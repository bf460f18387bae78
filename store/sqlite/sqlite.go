/*
Package sqlite persists composed calendar snapshots.

PURPOSE:
  Materializes the rows of a build and tracks which build is active. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

SNAPSHOT-SWAP CONTRACT:
  A rebuild replaces prior output in full. ReplaceSnapshot writes the new
  build's rows and flips the active pointer inside ONE transaction, so a
  reader sees either the old or the new complete snapshot, never a mix. Rows
  of superseded builds are deleted in the same transaction.

KEY TABLES:
  builds:        one record per build (config, status, row count, active flag)
  calendar_rows: materialized UnifiedRows, keyed (build_id, date_key, ts)

ROW STORAGE:
  Frequently-filtered columns (date key, trading/holiday flags, fiscal and
  retail ordinals) are real columns; the full row travels as JSON alongside,
  which keeps the schema stable as attributes grow.

WAL MODE:
  SQLite is opened with WAL so readers don't block the single writer.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/calendar-engine/calendar"
)

// Store persists builds and their composed rows.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the store. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		status TEXT NOT NULL,
		config_json TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		active INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS calendar_rows (
		build_id TEXT NOT NULL REFERENCES builds(id),
		date_key INTEGER NOT NULL,
		ts TEXT NOT NULL,
		grain TEXT NOT NULL,
		is_weekday INTEGER NOT NULL,
		is_holiday INTEGER NOT NULL,
		is_trading_day INTEGER NOT NULL,
		fiscal_year INTEGER,
		fiscal_quarter INTEGER,
		fiscal_month INTEGER,
		retail_year INTEGER,
		retail_week INTEGER,
		row_json TEXT NOT NULL,
		PRIMARY KEY (build_id, date_key, ts)
	);

	CREATE INDEX IF NOT EXISTS idx_rows_build_key
		ON calendar_rows(build_id, date_key);
	CREATE INDEX IF NOT EXISTS idx_rows_trading
		ON calendar_rows(build_id, is_trading_day);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITE PATH - Snapshot replacement
// =============================================================================

// ReplaceSnapshot persists a finished build and makes it the active snapshot.
// All writes (rows, build record, active flip, old-snapshot pruning) happen
// in one transaction.
func (s *Store) ReplaceSnapshot(ctx context.Context, res *calendar.BuildResult) error {
	if res.Calendar == nil {
		return fmt.Errorf("build %s has no composed calendar", res.BuildID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cfgJSON, err := json.Marshal(res.Config)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO builds (id, created_at, status, config_json, row_count, active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		res.BuildID, res.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
		string(res.Status), string(cfgJSON), res.RowCount,
	); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO calendar_rows (
			build_id, date_key, ts, grain,
			is_weekday, is_holiday, is_trading_day,
			fiscal_year, fiscal_quarter, fiscal_month,
			retail_year, retail_week, row_json
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range res.Calendar.Rows() {
		rowJSON, err := json.Marshal(row)
		if err != nil {
			return err
		}
		var fy, fq, fm, ry, rw interface{}
		if row.Fiscal != nil {
			fy, fq, fm = row.Fiscal.Year, row.Fiscal.Quarter, row.Fiscal.Month
		}
		if row.Retail != nil {
			ry, rw = row.Retail.Year, row.Retail.Week
		}
		if _, err := stmt.ExecContext(ctx,
			res.BuildID, row.Key, row.Date.Time.UTC().Format("2006-01-02T15:04:05Z"), string(row.Grain),
			boolInt(row.IsWeekday), boolInt(row.IsHoliday), boolInt(row.IsTradingDay),
			fy, fq, fm, ry, rw, string(rowJSON),
		); err != nil {
			return err
		}
	}

	// Flip the active pointer and prune superseded snapshots.
	if _, err := tx.ExecContext(ctx,
		`UPDATE builds SET active = 0 WHERE id != ?`, res.BuildID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM calendar_rows WHERE build_id IN (SELECT id FROM builds WHERE active = 0)`); err != nil {
		return err
	}

	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// READ PATH
// =============================================================================

// ActiveBuildID returns the id of the active snapshot, or ErrNoCalendar.
func (s *Store) ActiveBuildID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM builds WHERE active = 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", calendar.ErrNoCalendar
	}
	return id, err
}

// LoadActive reconstructs the active Calendar snapshot.
func (s *Store) LoadActive(ctx context.Context) (*calendar.Calendar, error) {
	cal, _, err := s.LoadActiveWithConfig(ctx)
	return cal, err
}

// LoadActiveWithConfig reconstructs the active snapshot together with the
// configuration it was built from.
func (s *Store) LoadActiveWithConfig(ctx context.Context) (*calendar.Calendar, calendar.BuildConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cfg calendar.BuildConfig

	var id, cfgJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, config_json FROM builds WHERE active = 1`).Scan(&id, &cfgJSON)
	if err == sql.ErrNoRows {
		return nil, cfg, calendar.ErrNoCalendar
	}
	if err != nil {
		return nil, cfg, err
	}

	if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
		return nil, cfg, fmt.Errorf("corrupt build config for %s: %w", id, err)
	}
	cfg = cfg.Normalized()

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_json FROM calendar_rows WHERE build_id = ? ORDER BY ts`, id)
	if err != nil {
		return nil, cfg, err
	}
	defer rows.Close()

	var unified []calendar.UnifiedRow
	for rows.Next() {
		var rowJSON string
		if err := rows.Scan(&rowJSON); err != nil {
			return nil, cfg, err
		}
		var u calendar.UnifiedRow
		if err := json.Unmarshal([]byte(rowJSON), &u); err != nil {
			return nil, cfg, fmt.Errorf("corrupt row in build %s: %w", id, err)
		}
		unified = append(unified, u)
	}
	if err := rows.Err(); err != nil {
		return nil, cfg, err
	}

	return calendar.NewCalendar(unified, cfg.Fiscal(), cfg.Retail()), cfg, nil
}

// RowByKey returns the active snapshot's first row for a date key.
func (s *Store) RowByKey(ctx context.Context, key int) (calendar.UnifiedRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rowJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT r.row_json FROM calendar_rows r
		 JOIN builds b ON b.id = r.build_id AND b.active = 1
		 WHERE r.date_key = ? ORDER BY r.ts LIMIT 1`, key).Scan(&rowJSON)
	if err == sql.ErrNoRows {
		return calendar.UnifiedRow{}, calendar.ErrDateNotMaterialized
	}
	if err != nil {
		return calendar.UnifiedRow{}, err
	}

	var u calendar.UnifiedRow
	if err := json.Unmarshal([]byte(rowJSON), &u); err != nil {
		return calendar.UnifiedRow{}, fmt.Errorf("corrupt row for key %d: %w", key, err)
	}
	return u, nil
}

// Builds lists build records, newest first.
func (s *Store) Builds(ctx context.Context) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, status, row_count, active FROM builds ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var b BuildRecord
		var active int
		if err := rows.Scan(&b.ID, &b.CreatedAt, &b.Status, &b.RowCount, &active); err != nil {
			return nil, err
		}
		b.Active = active == 1
		out = append(out, b)
	}
	return out, rows.Err()
}

// BuildRecord is the stored summary of one build.
type BuildRecord struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Status    string `json:"status"`
	RowCount  int    `json:"row_count"`
	Active    bool   `json:"active"`
}
