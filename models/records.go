package models

// MapState is the viewport position read back from the navigation surface.
// Zoom is fractional while the map animates; callers round when they need
// the integer level of detail.
type MapState struct {
	Lat  float64
	Lon  float64
	Zoom float64
}

// Marker is an aggregate map pin for one residential complex or building.
// Count is the best known listing count and only ever increases.
type Marker struct {
	ID    string
	Name  string
	Kind  string // "complexes" or "houses"
	Count int
}

// ListingSummary is one advertised unit-for-sale, captured from a list
// response. Immutable after first sighting; duplicate ids are discarded.
type ListingSummary struct {
	ID            string
	Name          string
	TradeType     string
	RawPrice      string // e.g. "매매 3억 8,000" before parsing
	FloorInfo     string
	GrossArea     string
	NetArea       string
	Direction     string
	Feature       string
	RegisteredYmd string
}

// LeaseHistoryRecord is one historical transaction, deduplicated by the
// full 4-tuple.
type LeaseHistoryRecord struct {
	DealDate  string
	Area      string
	Floor     string
	DealPrice string
}

// Key returns the dedup key for the record.
func (r LeaseHistoryRecord) Key() string {
	return r.DealDate + "|" + r.Area + "|" + r.Floor + "|" + r.DealPrice
}

// DetailRecord holds the facts extracted from one listing's detail page.
// Monetary fields are won; zero with the matching Has* flag false means
// the fact was absent, not free.
type DetailRecord struct {
	AgencyName       string
	AgentName        string
	Phone1           string
	Phone2           string
	LeasePeriodYears int
	LeaseMaxWon      int64
	LeaseMinWon      int64
	HasLeaseMax      bool
	HasLeaseMin      bool
	PrevLeaseWon     int64
	HasPrevLease     bool

	// Skip marks a listing that lacked the required previous-lease fact
	// (or whose page could not be read at all) and must be excluded.
	Skip bool
}

// Candidate is the analyzer output: listing, detail and the investment
// signal. GapAmountWon = SaleWon - PrevLeaseWon; under the default filter
// it is <= 0.
type Candidate struct {
	Listing      ListingSummary
	Detail       DetailRecord
	SaleWon      int64
	GapAmountWon int64
	GapRatio     float64
}
