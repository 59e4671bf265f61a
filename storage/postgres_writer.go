package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"land-gap-scraper/models"
)

// PostgresWriter persists ranked candidates to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS candidates (
			id                SERIAL PRIMARY KEY,
			run_id            VARCHAR(64) NOT NULL DEFAULT '',
			listing_id        TEXT        UNIQUE NOT NULL,
			listing_name      TEXT        NOT NULL DEFAULT '',
			trade_type        TEXT        NOT NULL DEFAULT '',
			sale_won          BIGINT      NOT NULL DEFAULT 0,
			floor_info        TEXT        NOT NULL DEFAULT '',
			gross_area        TEXT        NOT NULL DEFAULT '',
			net_area          TEXT        NOT NULL DEFAULT '',
			direction         TEXT        NOT NULL DEFAULT '',
			feature           TEXT        NOT NULL DEFAULT '',
			registered_ymd    TEXT        NOT NULL DEFAULT '',
			agency_name       TEXT        NOT NULL DEFAULT '',
			agent_name        TEXT        NOT NULL DEFAULT '',
			phone1            TEXT        NOT NULL DEFAULT '',
			phone2            TEXT        NOT NULL DEFAULT '',
			lease_period_yrs  INTEGER     NOT NULL DEFAULT 0,
			lease_max_won     BIGINT,
			lease_min_won     BIGINT,
			prev_lease_won    BIGINT,
			gap_amount_won    BIGINT      NOT NULL DEFAULT 0,
			gap_ratio         NUMERIC(12,6) NOT NULL DEFAULT 0,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_candidates_run        ON candidates(run_id);
		CREATE INDEX IF NOT EXISTS idx_candidates_sale       ON candidates(sale_won);
		CREATE INDEX IF NOT EXISTS idx_candidates_gap_ratio  ON candidates(gap_ratio);
	`)
	return err
}

// WriteCandidates batch-inserts candidates for one run. Listings already
// stored (matching listing_id) from a previous run are left untouched.
func (pw *PostgresWriter) WriteCandidates(runID string, candidates []models.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(candidates); i += batchSize {
		end := i + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		if err := pw.insertBatch(runID, candidates[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// candidateInsertColumns is the insert column list; candidateArgs must
// produce its values in the same order.
var candidateInsertColumns = []string{
	"run_id", "listing_id", "listing_name", "trade_type", "sale_won",
	"floor_info", "gross_area", "net_area", "direction", "feature", "registered_ymd",
	"agency_name", "agent_name", "phone1", "phone2",
	"lease_period_yrs", "lease_max_won", "lease_min_won", "prev_lease_won",
	"gap_amount_won", "gap_ratio",
}

func candidateArgs(runID string, c models.Candidate) []interface{} {
	return []interface{}{
		runID, c.Listing.ID, c.Listing.Name, c.Listing.TradeType, c.SaleWon,
		c.Listing.FloorInfo, c.Listing.GrossArea, c.Listing.NetArea,
		c.Listing.Direction, c.Listing.Feature, c.Listing.RegisteredYmd,
		c.Detail.AgencyName, c.Detail.AgentName, c.Detail.Phone1, c.Detail.Phone2,
		c.Detail.LeasePeriodYears,
		nullableWon(c.Detail.HasLeaseMax, c.Detail.LeaseMaxWon),
		nullableWon(c.Detail.HasLeaseMin, c.Detail.LeaseMinWon),
		nullableWon(c.Detail.HasPrevLease, c.Detail.PrevLeaseWon),
		c.GapAmountWon, c.GapRatio,
	}
}

func (pw *PostgresWriter) insertBatch(runID string, batch []models.Candidate) error {
	cols := len(candidateInsertColumns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, c := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for j := 0; j < cols; j++ {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs, candidateArgs(runID, c)...)
	}

	query := fmt.Sprintf(`
		INSERT INTO candidates (%s)
		VALUES %s
		ON CONFLICT (listing_id) DO NOTHING
	`, strings.Join(candidateInsertColumns, ", "), strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func nullableWon(present bool, v int64) interface{} {
	if !present {
		return nil
	}
	return v
}

// FetchAll retrieves every stored candidate ordered by sale price.
func (pw *PostgresWriter) FetchAll() ([]models.Candidate, error) {
	rows, err := pw.db.Query(`
		SELECT listing_id, listing_name, trade_type, sale_won,
		       floor_info, gross_area, net_area, direction, feature, registered_ymd,
		       agency_name, agent_name, phone1, phone2,
		       lease_period_yrs, lease_max_won, lease_min_won, prev_lease_won,
		       gap_amount_won, gap_ratio
		FROM candidates
		ORDER BY sale_won
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var candidates []models.Candidate
	for rows.Next() {
		var c models.Candidate
		var leaseMax, leaseMin, prevLease sql.NullInt64
		if err := rows.Scan(
			&c.Listing.ID, &c.Listing.Name, &c.Listing.TradeType, &c.SaleWon,
			&c.Listing.FloorInfo, &c.Listing.GrossArea, &c.Listing.NetArea,
			&c.Listing.Direction, &c.Listing.Feature, &c.Listing.RegisteredYmd,
			&c.Detail.AgencyName, &c.Detail.AgentName, &c.Detail.Phone1, &c.Detail.Phone2,
			&c.Detail.LeasePeriodYears, &leaseMax, &leaseMin, &prevLease,
			&c.GapAmountWon, &c.GapRatio,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		c.Detail.LeaseMaxWon, c.Detail.HasLeaseMax = leaseMax.Int64, leaseMax.Valid
		c.Detail.LeaseMinWon, c.Detail.HasLeaseMin = leaseMin.Int64, leaseMin.Valid
		c.Detail.PrevLeaseWon, c.Detail.HasPrevLease = prevLease.Int64, prevLease.Valid
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
