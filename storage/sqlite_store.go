package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"land-gap-scraper/models"
)

// SessionStore persists raw session captures (markers, listings, lease
// history) to a local sqlite database, one snapshot per run.
type SessionStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSessionStore opens (creating if needed) the sqlite database at path.
func NewSessionStore(path string) (*SessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("sqlite: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Optimize for write throughput
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("sqlite: setting pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		return nil, err
	}

	return &SessionStore{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS markers (
		run_id   TEXT NOT NULL,
		id       TEXT NOT NULL,
		name     TEXT NOT NULL DEFAULT '',
		kind     TEXT NOT NULL DEFAULT 'complexes',
		count    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, id)
	);
	CREATE TABLE IF NOT EXISTS listings (
		run_id      TEXT NOT NULL,
		id          TEXT NOT NULL,
		name        TEXT NOT NULL DEFAULT '',
		trade_type  TEXT NOT NULL DEFAULT '',
		raw_price   TEXT NOT NULL DEFAULT '',
		floor_info  TEXT NOT NULL DEFAULT '',
		gross_area  TEXT NOT NULL DEFAULT '',
		net_area    TEXT NOT NULL DEFAULT '',
		direction   TEXT NOT NULL DEFAULT '',
		feature     TEXT NOT NULL DEFAULT '',
		registered  TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, id)
	);
	CREATE TABLE IF NOT EXISTS lease_history (
		run_id     TEXT NOT NULL,
		deal_date  TEXT NOT NULL DEFAULT '',
		area       TEXT NOT NULL DEFAULT '',
		floor      TEXT NOT NULL DEFAULT '',
		deal_price TEXT NOT NULL DEFAULT '',
		UNIQUE (run_id, deal_date, area, floor, deal_price)
	);
	CREATE INDEX IF NOT EXISTS idx_markers_count  ON markers(count);
	CREATE INDEX IF NOT EXISTS idx_listings_trade ON listings(trade_type);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: creating schema: %w", err)
	}
	return nil
}

// SaveSnapshot stores one run's raw capture. Re-running with the same run
// id is idempotent (INSERT OR IGNORE).
func (s *SessionStore) SaveSnapshot(snap SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: beginning tx: %w", err)
	}

	markerStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO markers (run_id, id, name, kind, count)
		VALUES (?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: prepare markers: %w", err)
	}
	defer markerStmt.Close()
	for _, m := range snap.Markers {
		if _, err := markerStmt.Exec(snap.RunID, m.ID, m.Name, m.Kind, m.Count); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite: insert marker %s: %w", m.ID, err)
		}
	}

	listingStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO listings
		(run_id, id, name, trade_type, raw_price, floor_info, gross_area,
		 net_area, direction, feature, registered)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: prepare listings: %w", err)
	}
	defer listingStmt.Close()
	for _, l := range snap.Listings {
		if _, err := listingStmt.Exec(snap.RunID, l.ID, l.Name, l.TradeType, l.RawPrice,
			l.FloorInfo, l.GrossArea, l.NetArea, l.Direction, l.Feature, l.RegisteredYmd); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite: insert listing %s: %w", l.ID, err)
		}
	}

	leaseStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO lease_history (run_id, deal_date, area, floor, deal_price)
		VALUES (?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite: prepare lease history: %w", err)
	}
	defer leaseStmt.Close()
	for _, r := range snap.Leases {
		if _, err := leaseStmt.Exec(snap.RunID, r.DealDate, r.Area, r.Floor, r.DealPrice); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite: insert lease record: %w", err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot reads one run's capture back, in insertion order.
func (s *SessionStore) LoadSnapshot(runID string) (SessionSnapshot, error) {
	snap := SessionSnapshot{RunID: runID}

	rows, err := s.db.Query(`SELECT id, name, kind, count FROM markers WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return snap, fmt.Errorf("sqlite: load markers: %w", err)
	}
	for rows.Next() {
		var m models.Marker
		if err := rows.Scan(&m.ID, &m.Name, &m.Kind, &m.Count); err != nil {
			rows.Close()
			return snap, fmt.Errorf("sqlite: scan marker: %w", err)
		}
		snap.Markers = append(snap.Markers, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	rows, err = s.db.Query(`
		SELECT id, name, trade_type, raw_price, floor_info, gross_area,
		       net_area, direction, feature, registered
		FROM listings WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return snap, fmt.Errorf("sqlite: load listings: %w", err)
	}
	for rows.Next() {
		var l models.ListingSummary
		if err := rows.Scan(&l.ID, &l.Name, &l.TradeType, &l.RawPrice, &l.FloorInfo,
			&l.GrossArea, &l.NetArea, &l.Direction, &l.Feature, &l.RegisteredYmd); err != nil {
			rows.Close()
			return snap, fmt.Errorf("sqlite: scan listing: %w", err)
		}
		snap.Listings = append(snap.Listings, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, err
	}

	rows, err = s.db.Query(`SELECT deal_date, area, floor, deal_price FROM lease_history WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return snap, fmt.Errorf("sqlite: load lease history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r models.LeaseHistoryRecord
		if err := rows.Scan(&r.DealDate, &r.Area, &r.Floor, &r.DealPrice); err != nil {
			return snap, fmt.Errorf("sqlite: scan lease record: %w", err)
		}
		snap.Leases = append(snap.Leases, r)
	}
	return snap, rows.Err()
}

// Close closes the database.
func (s *SessionStore) Close() error {
	return s.db.Close()
}
