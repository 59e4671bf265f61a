package storage

import "land-gap-scraper/models"

// SessionSnapshot is the raw per-run capture handed to the session store.
type SessionSnapshot struct {
	RunID    string
	Markers  []models.Marker
	Listings []models.ListingSummary
	Leases   []models.LeaseHistoryRecord
}
