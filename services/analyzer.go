package services

import (
	"math"
	"sort"

	"land-gap-scraper/models"
	"land-gap-scraper/utils"
)

// GapFilter decides whether a (sale, previous lease) pair is worth keeping.
// The rule itself is a domain assumption, so it stays a swappable predicate.
type GapFilter func(saleWon, prevLeaseWon int64) bool

// PrevLeaseCoversSale is the standard rule: the previous long-term lease
// deposit must be at least the asking sale price.
func PrevLeaseCoversSale(saleWon, prevLeaseWon int64) bool {
	return prevLeaseWon >= saleWon
}

// Analyzer computes the gap signal over listings and their detail records.
type Analyzer struct {
	filterEnabled bool
	filter        GapFilter
	logger        *utils.Logger
}

// NewAnalyzer creates an Analyzer. A nil filter falls back to
// PrevLeaseCoversSale.
func NewAnalyzer(filterEnabled bool, filter GapFilter, logger *utils.Logger) *Analyzer {
	if filter == nil {
		filter = PrevLeaseCoversSale
	}
	return &Analyzer{filterEnabled: filterEnabled, filter: filter, logger: logger}
}

// Evaluate turns one listing plus its detail record into a Candidate.
// The second return is false when the listing is skipped or filtered out —
// a normal outcome, never an error.
func (a *Analyzer) Evaluate(l models.ListingSummary, d models.DetailRecord) (models.Candidate, bool) {
	if d.Skip {
		return models.Candidate{}, false
	}

	sale, ok := SaleWon(l.RawPrice)
	if !ok {
		a.logger.Debug("[analyzer] listing %s: unparsable sale price %q", l.ID, l.RawPrice)
		return models.Candidate{}, false
	}

	if a.filterEnabled {
		if !d.HasPrevLease || !a.filter(sale, d.PrevLeaseWon) {
			return models.Candidate{}, false
		}
	}

	c := models.Candidate{Listing: l, Detail: d, SaleWon: sale}
	if d.HasPrevLease {
		c.GapAmountWon = sale - d.PrevLeaseWon
		if sale != 0 {
			c.GapRatio = float64(c.GapAmountWon) / float64(sale)
		}
	}
	return c, true
}

// Rank orders candidates ascending by gap ratio, deepest discount first.
func (a *Analyzer) Rank(cs []models.Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].GapRatio < cs[j].GapRatio
	})
}

// SortBySalePriceAsc orders the detail backlog cheapest-first so that a
// hard cap on detail work truncates the expensive tail, not the head.
// Listings with unparsable prices sort last.
func SortBySalePriceAsc(ls []models.ListingSummary) {
	key := func(l models.ListingSummary) int64 {
		if won, ok := SaleWon(l.RawPrice); ok {
			return won
		}
		return math.MaxInt64
	}
	sort.SliceStable(ls, func(i, j int) bool {
		return key(ls[i]) < key(ls[j])
	})
}
