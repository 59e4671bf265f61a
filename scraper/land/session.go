package land

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"land-gap-scraper/models"
	"land-gap-scraper/utils"
)

// Session holds everything one collection run accumulates. It is created
// per run and passed to the components that need it; there is no
// process-wide state. Identity sets never shrink.
type Session struct {
	RunID string

	// capture gates ingestion: responses observed before the first
	// recenter completes are pre-navigation noise.
	capture atomic.Bool

	mu          sync.Mutex
	markers     map[string]*models.Marker
	markerOrder []string

	listingSeen *utils.IDSet
	listings    []models.ListingSummary

	leaseSeen *utils.IDSet
	leases    []models.LeaseHistoryRecord
}

// NewSession creates an empty session with a fresh run id.
func NewSession() *Session {
	return &Session{
		RunID:       uuid.NewString(),
		markers:     make(map[string]*models.Marker),
		listingSeen: utils.NewIDSet(),
		leaseSeen:   utils.NewIDSet(),
	}
}

// SetCapture flips the capture flag.
func (s *Session) SetCapture(on bool) {
	s.capture.Store(on)
}

// CaptureActive reports whether ingestion should accept responses.
func (s *Session) CaptureActive() bool {
	return s.capture.Load()
}

// UpsertMarker records a marker sighting. The first sighting creates the
// marker; later sightings may only fill in a missing name or raise the
// listing count (monotonic non-decreasing). Returns true on first sighting.
func (s *Session) UpsertMarker(m models.Marker) bool {
	if m.ID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.markers[m.ID]
	if !ok {
		copied := m
		s.markers[m.ID] = &copied
		s.markerOrder = append(s.markerOrder, m.ID)
		return true
	}

	if existing.Name == "" && m.Name != "" {
		existing.Name = m.Name
	}
	if m.Count > existing.Count {
		existing.Count = m.Count
	}
	return false
}

// RaiseMarkerCount bumps a marker's count to at least total, creating a
// placeholder marker if the id is new (a list response can arrive before
// its marker does).
func (s *Session) RaiseMarkerCount(id string, total int) {
	if id == "" || total <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.markers[id]
	if !ok {
		s.markers[id] = &models.Marker{ID: id, Kind: "complexes", Count: total}
		s.markerOrder = append(s.markerOrder, id)
		return
	}
	if total > existing.Count {
		existing.Count = total
	}
}

// AddListing inserts a listing summary; later sightings of the same id are
// discarded, not merged. Returns true if newly added.
func (s *Session) AddListing(l models.ListingSummary) bool {
	if l.ID == "" || !s.listingSeen.Add(l.ID) {
		return false
	}
	s.mu.Lock()
	s.listings = append(s.listings, l)
	s.mu.Unlock()
	return true
}

// AddLeaseRecord inserts a historical transaction, deduplicated by the
// full 4-tuple. Returns true if newly added.
func (s *Session) AddLeaseRecord(r models.LeaseHistoryRecord) bool {
	if !s.leaseSeen.Add(r.Key()) {
		return false
	}
	s.mu.Lock()
	s.leases = append(s.leases, r)
	s.mu.Unlock()
	return true
}

// Markers returns a snapshot of all markers in first-seen order.
func (s *Session) Markers() []models.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Marker, 0, len(s.markerOrder))
	for _, id := range s.markerOrder {
		out = append(out, *s.markers[id])
	}
	return out
}

// Listings returns a snapshot of all captured listing summaries.
func (s *Session) Listings() []models.ListingSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ListingSummary(nil), s.listings...)
}

// LeaseRecords returns a snapshot of the captured price history.
func (s *Session) LeaseRecords() []models.LeaseHistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LeaseHistoryRecord(nil), s.leases...)
}

// Counts reports (markers, listings, lease records) for progress logging.
func (s *Session) Counts() (int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers), len(s.listings), len(s.leases)
}
