package storage

import (
	"path/filepath"
	"testing"

	"land-gap-scraper/models"
)

func sampleSnapshot(runID string) SessionSnapshot {
	return SessionSnapshot{
		RunID: runID,
		Markers: []models.Marker{
			{ID: "101", Name: "개나리빌라", Kind: "houses", Count: 3},
			{ID: "102", Name: "래미안", Kind: "complexes", Count: 12},
		},
		Listings: []models.ListingSummary{
			{ID: "2401", Name: "개나리빌라", TradeType: "매매", RawPrice: "3억 8,000"},
		},
		Leases: []models.LeaseHistoryRecord{
			{DealDate: "2023.06", Area: "59", Floor: "3", DealPrice: "3억 5,000"},
		},
	}
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store, err := NewSessionStore(filepath.Join(t.TempDir(), "data", "sessions.db"))
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	defer store.Close()

	if err := store.SaveSnapshot(sampleSnapshot("run-1")); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := store.LoadSnapshot("run-1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(got.Markers) != 2 || len(got.Listings) != 1 || len(got.Leases) != 1 {
		t.Fatalf("loaded %d/%d/%d rows", len(got.Markers), len(got.Listings), len(got.Leases))
	}
	if got.Markers[0].Name != "개나리빌라" || got.Markers[0].Count != 3 {
		t.Errorf("marker round trip: %+v", got.Markers[0])
	}
	if got.Listings[0].RawPrice != "3억 8,000" {
		t.Errorf("listing round trip: %+v", got.Listings[0])
	}
}

func TestSessionStoreSaveIsIdempotent(t *testing.T) {
	store, err := NewSessionStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	defer store.Close()

	snap := sampleSnapshot("run-2")
	if err := store.SaveSnapshot(snap); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.SaveSnapshot(snap); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.LoadSnapshot("run-2")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(got.Markers) != 2 || len(got.Listings) != 1 || len(got.Leases) != 1 {
		t.Errorf("re-save duplicated rows: %d/%d/%d", len(got.Markers), len(got.Listings), len(got.Leases))
	}
}

func TestSessionStoreIsolatesRuns(t *testing.T) {
	store, err := NewSessionStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	defer store.Close()

	if err := store.SaveSnapshot(sampleSnapshot("run-a")); err != nil {
		t.Fatalf("save run-a: %v", err)
	}
	if err := store.SaveSnapshot(sampleSnapshot("run-b")); err != nil {
		t.Fatalf("save run-b: %v", err)
	}

	got, err := store.LoadSnapshot("run-b")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(got.Markers) != 2 {
		t.Errorf("run-b markers = %d, want 2", len(got.Markers))
	}
	if empty, _ := store.LoadSnapshot("run-absent"); len(empty.Markers) != 0 {
		t.Errorf("absent run returned %d markers", len(empty.Markers))
	}
}
