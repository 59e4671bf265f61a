package land

import (
	"land-gap-scraper/models"
	"land-gap-scraper/utils"
)

// Fetcher produces a detail record for one listing. Each Fetcher wraps one
// exclusively-owned remote execution context; the scheduler guarantees a
// Fetcher is used by at most one job at a time.
type Fetcher interface {
	Fetch(l models.ListingSummary) (models.DetailRecord, error)
}

// Outcome pairs a listing with its extracted detail record. The scheduler
// never drops an outcome; filtering happens downstream.
type Outcome struct {
	Listing models.ListingSummary
	Detail  models.DetailRecord
}

// Scheduler fans a listing backlog out over a fixed pool of reusable
// detail-fetch resources with bounded concurrency.
type Scheduler struct {
	pool    chan Fetcher
	workers int
	pace    int
	log     *utils.Logger
}

// NewScheduler builds a Scheduler over the given fetch resources. paceMs
// spaces out job starts (0 disables pacing).
func NewScheduler(fetchers []Fetcher, paceMs int, log *utils.Logger) *Scheduler {
	pool := make(chan Fetcher, len(fetchers))
	for _, f := range fetchers {
		pool <- f
	}
	return &Scheduler{pool: pool, workers: len(fetchers), pace: paceMs, log: log}
}

// Run drains the backlog, truncated to max listings when max > 0. At most
// as many fetches run concurrently as there are pooled resources; each
// resource is released on every exit path. Results are collected as they
// complete, not in submission order.
func (s *Scheduler) Run(backlog []models.ListingSummary, max int) []Outcome {
	// An empty pool must not reach the acquire below; the first job would
	// block on it forever.
	if s.workers == 0 {
		s.log.Error("[scheduler] no fetch resources — dropping %d listings", len(backlog))
		return nil
	}

	if max > 0 && len(backlog) > max {
		backlog = backlog[:max]
	}

	results := make(chan Outcome, len(backlog))
	wp := utils.NewWorkerPool(s.workers, s.pace)

	for _, l := range backlog {
		l := l
		wp.Submit(func() {
			f := <-s.pool
			defer func() { s.pool <- f }()

			d, err := f.Fetch(l)
			if err != nil {
				s.log.Warn("[scheduler] listing %s: %v", l.ID, err)
			}
			results <- Outcome{Listing: l, Detail: d}
		})
	}

	wp.Wait()
	close(results)

	out := make([]Outcome, 0, len(backlog))
	for o := range results {
		out = append(out, o)
	}
	return out
}
