package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"land-gap-scraper/models"
)

func sampleCandidate() models.Candidate {
	return models.Candidate{
		Listing: models.ListingSummary{
			ID:        "2401",
			Name:      "개나리빌라",
			TradeType: "매매",
			RawPrice:  "3억",
			FloorInfo: "3/5",
		},
		Detail: models.DetailRecord{
			AgencyName:   "행복공인중개사사무소",
			AgentName:    "김철수",
			Phone1:       "02-1234-5678",
			PrevLeaseWon: 350_000_000,
			HasPrevLease: true,
		},
		SaleWon:      300_000_000,
		GapAmountWon: -50_000_000,
		GapRatio:     -50_000_000.0 / 300_000_000.0,
	}
}

func TestLabelsForLocale(t *testing.T) {
	ko := LabelsFor("ko")
	if ko["prev_lease_won"] != "기전세금(원)" {
		t.Errorf("korean label = %q", ko["prev_lease_won"])
	}
	en := LabelsFor("en")
	if en["prev_lease_won"] != "prev_lease_won" {
		t.Errorf("english label = %q", en["prev_lease_won"])
	}
	// Unknown locales fall back to Korean.
	if LabelsFor("fr")["listing_name"] != "매물명" {
		t.Error("unknown locale should fall back to ko")
	}
}

func TestHeaderCoversEveryColumn(t *testing.T) {
	for _, locale := range []string{"ko", "en"} {
		header := LabelsFor(locale).Header()
		if len(header) != len(CandidateColumns) {
			t.Fatalf("%s header has %d columns, want %d", locale, len(header), len(CandidateColumns))
		}
		for i, h := range header {
			if h == "" {
				t.Errorf("%s header column %d (%s) is empty", locale, i, CandidateColumns[i])
			}
		}
	}
}

func TestCandidateRowAbsentFactsAreEmpty(t *testing.T) {
	c := sampleCandidate()
	c.Detail.HasPrevLease = false
	c.Detail.PrevLeaseWon = 0

	row := CandidateRow(c)
	if len(row) != len(CandidateColumns) {
		t.Fatalf("row has %d cells, want %d", len(row), len(CandidateColumns))
	}

	cells := make(map[string]string, len(row))
	for i, key := range CandidateColumns {
		cells[key] = row[i]
	}
	for _, key := range []string{"prev_lease_won", "gap_won", "gap_ratio", "lease_max_won", "lease_min_won", "lease_period_years"} {
		if cells[key] != "" {
			t.Errorf("%s = %q, want empty cell for absent fact", key, cells[key])
		}
	}
	if cells["sale_won"] != "300000000" {
		t.Errorf("sale_won = %q", cells["sale_won"])
	}
}

func TestCandidateRowValues(t *testing.T) {
	row := CandidateRow(sampleCandidate())
	cells := make(map[string]string, len(row))
	for i, key := range CandidateColumns {
		cells[key] = row[i]
	}

	if cells["prev_lease_won"] != "350000000" {
		t.Errorf("prev_lease_won = %q", cells["prev_lease_won"])
	}
	if cells["gap_won"] != "-50000000" {
		t.Errorf("gap_won = %q", cells["gap_won"])
	}
	if cells["gap_ratio"] != "-0.1667" {
		t.Errorf("gap_ratio = %q", cells["gap_ratio"])
	}
}

func TestCSVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "candidates.csv")

	w, err := NewCSVWriter(path, LabelsFor("en"))
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	if err := w.WriteCandidates([]models.Candidate{sampleCandidate()}); err != nil {
		t.Fatalf("WriteCandidates: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[0][0] != "listing_name" {
		t.Errorf("header[0] = %q", rows[0][0])
	}
	if rows[1][0] != "개나리빌라" || rows[1][1] != "2401" {
		t.Errorf("data row = %v", rows[1])
	}
}
