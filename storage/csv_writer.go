package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"land-gap-scraper/models"
)

// CSVWriter writes ranked candidates to a CSV file with locale-specific
// column headers. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string, labels FieldLabels) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(labels.Header()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteCandidates appends the candidates in their given (ranked) order.
func (c *CSVWriter) WriteCandidates(candidates []models.Candidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cand := range candidates {
		if err := c.writer.Write(CandidateRow(cand)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// CandidateRow renders one candidate in CandidateColumns order. Absent
// monetary facts render as empty cells, not zeros.
func CandidateRow(c models.Candidate) []string {
	d := c.Detail
	return []string{
		c.Listing.Name,
		c.Listing.ID,
		c.Listing.TradeType,
		strconv.FormatInt(c.SaleWon, 10),
		c.Listing.FloorInfo,
		c.Listing.GrossArea,
		c.Listing.NetArea,
		c.Listing.Direction,
		c.Listing.Feature,
		c.Listing.RegisteredYmd,
		d.AgencyName,
		d.AgentName,
		d.Phone1,
		d.Phone2,
		intCell(d.LeasePeriodYears != 0, int64(d.LeasePeriodYears)),
		intCell(d.HasLeaseMax, d.LeaseMaxWon),
		intCell(d.HasLeaseMin, d.LeaseMinWon),
		intCell(d.HasPrevLease, d.PrevLeaseWon),
		intCell(d.HasPrevLease, c.GapAmountWon),
		ratioCell(d.HasPrevLease, c.GapRatio),
	}
}

func intCell(present bool, v int64) string {
	if !present {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

func ratioCell(present bool, v float64) string {
	if !present {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
