package land

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/chromedp/chromedp"

	"land-gap-scraper/config"
	"land-gap-scraper/geo"
	"land-gap-scraper/models"
	"land-gap-scraper/services"
	"land-gap-scraper/utils"
)

const (
	mapBaseURL       = "https://new.land.naver.com/"
	canvasTimeout    = 20 * time.Second
	firstDataTimeout = 20 * time.Second
)

// Scraper orchestrates one collection run: navigation-driven capture,
// complex visits, concurrent detail extraction, and gap analysis. An empty
// result set is a valid outcome, not an error.
type Scraper struct {
	cfg  *config.Config
	log  *utils.Logger
	sess *Session
}

// Result is the run output handed to the export collaborators.
type Result struct {
	Candidates []models.Candidate
	Session    *Session
}

// New creates a ready-to-use Scraper with a fresh session.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{cfg: cfg, log: logger, sess: NewSession()}
}

// Session exposes the run's session state (for snapshot export).
func (s *Scraper) Session() *Session {
	return s.sess
}

// Collect runs the full pipeline from the configured starting viewport.
func (s *Scraper) Collect(ctx context.Context) (*Result, error) {
	lat, lon := geo.Clamp(s.cfg.StartLat, s.cfg.StartLon, s.cfg.Bounds())
	zoom := clampInt(s.cfg.StartZoom, s.cfg.ZoomMin, s.cfg.ZoomMax)

	s.log.Info("[land] starting run %s at (%.4f, %.4f) zoom %d", s.sess.RunID[:8], lat, lon, zoom)

	browser, err := NewBrowser(ctx, s.cfg)
	if err != nil {
		return nil, fmt.Errorf("land: launch browser: %w", err)
	}
	defer browser.Close()

	mapCtx, cancelMap, err := browser.NewMapTab()
	if err != nil {
		return nil, fmt.Errorf("land: open map tab: %w", err)
	}
	defer cancelMap()

	ing := NewIngestor(s.sess, s.log)
	ing.Attach(mapCtx)

	surf := NewSurface(mapCtx)
	nav := NewNavigator(surf, s.cfg.Bounds(), s.log)

	for _, kind := range s.cfg.AssetKinds() {
		s.collectScenario(mapCtx, surf, nav, ing, kind[0], kind[1], lat, lon, zoom)
	}

	markers, listings, trades := s.sess.Counts()
	s.log.Info("[land] navigation phase done — markers: %d, listings: %d, trades: %d",
		markers, listings, trades)

	s.visitComplexes(surf)

	outcomes := s.detailPhase(browser)

	analyzer := services.NewAnalyzer(s.cfg.GapFilterEnabled, nil, s.log)
	candidates := make([]models.Candidate, 0, len(outcomes))
	for _, o := range outcomes {
		if c, ok := analyzer.Evaluate(o.Listing, o.Detail); ok {
			candidates = append(candidates, c)
		}
	}
	analyzer.Rank(candidates)

	s.log.Info("[land] run complete — %d candidates from %d detailed listings",
		len(candidates), len(outcomes))
	return &Result{Candidates: candidates, Session: s.sess}, nil
}

// collectScenario runs the navigation phase for one asset family.
func (s *Scraper) collectScenario(mapCtx context.Context, surf Surface, nav *Navigator,
	ing *Ingestor, family, assetTag string, lat, lon float64, zoom int) {

	q := url.Values{}
	q.Set("ms", fmt.Sprintf("%.6f,%.6f,%d", lat, lon, zoom))
	q.Set("a", assetTag)
	q.Set("b", "A1") // sale trades only
	startURL := mapBaseURL + family + "?" + q.Encode()

	s.log.Info("[land] scenario %s (%s) — navigating", family, assetTag)
	if err := surf.Navigate(startURL); err != nil {
		s.log.Warn("[land] scenario %s: navigation failed: %v", family, err)
		return
	}

	if err := waitForCanvas(mapCtx); err != nil {
		s.log.Warn("[land] map canvas timeout (continuing): %v", err)
	}
	if !ing.WaitFirstData(firstDataTimeout) {
		s.log.Warn("[land] first data response timeout (continuing)")
	}

	nav.Recenter(lat, lon, zoom)
	s.switchToListingMarkers(surf)
	nav.WheelToZoom(maxInt(15, zoom))

	// Only now is the viewport where we want it; everything before this
	// point is noise.
	s.sess.SetCapture(true)

	if err := surf.Wheel(-60); err != nil {
		s.log.Debug("[land] initial marker trigger failed: %v", err)
	}
	time.Sleep(800 * time.Millisecond)

	s.log.Info("[land] sweeping area (rings: %d, step: %.0fpx)", s.cfg.GridRings, s.cfg.GridStepPx)
	nav.GridSweep(lat, lon, zoom, s.cfg.GridRings, s.cfg.GridStepPx,
		time.Duration(s.cfg.SweepDwellMs)*time.Millisecond)
}

// switchToListingMarkers puts the map into per-listing marker mode. The
// default is complex view; individual listings only surface in 매물 view.
func (s *Scraper) switchToListingMarkers(surf Surface) bool {
	if surf.ClickLabel(s.cfg.ListingModeLabels) {
		time.Sleep(500 * time.Millisecond)
		return true
	}

	// Dropdown variant of the same control.
	if surf.ClickLabel([]string{"단지"}) {
		time.Sleep(300 * time.Millisecond)
		if surf.ClickLabel(s.cfg.ListingModeLabels) {
			time.Sleep(500 * time.Millisecond)
			return true
		}
	}

	s.log.Warn("[land] listing-marker mode switch not found — staying in complex view")
	return false
}

// visitComplexes opens each qualifying marker's page to trigger its
// article-list responses, which the ingestor captures.
func (s *Scraper) visitComplexes(surf Surface) {
	markers := s.sess.Markers()
	if len(markers) == 0 {
		return
	}

	targets := make([]models.Marker, 0, len(markers))
	for _, m := range markers {
		if m.Count >= s.cfg.MinListingCount {
			targets = append(targets, m)
		}
	}

	if s.cfg.PrioritizeByCount {
		sort.SliceStable(targets, func(i, j int) bool { return targets[i].Count > targets[j].Count })
	}

	// The minimum-count filter can empty the set; fall back to everything,
	// busiest first.
	if len(targets) == 0 {
		s.log.Warn("[land] no markers with >= %d listings — falling back to full set", s.cfg.MinListingCount)
		targets = append(targets, markers...)
		sort.SliceStable(targets, func(i, j int) bool { return targets[i].Count > targets[j].Count })
	}

	if len(targets) > s.cfg.MaxComplexes {
		targets = targets[:s.cfg.MaxComplexes]
	}

	s.log.Info("[land] visiting %d complexes", len(targets))
	for i, t := range targets {
		s.log.Debug("[land] [%d/%d] %s (%s, %d listings)", i+1, len(targets), t.Name, t.Kind, t.Count)

		if err := surf.Navigate(mapBaseURL + t.Kind + "/" + t.ID); err != nil {
			s.log.Debug("[land] complex %s: navigation failed: %v", t.ID, err)
			continue
		}
		time.Sleep(1 * time.Second)

		if surf.ClickLabel(s.cfg.SaleTabLabels) {
			time.Sleep(600 * time.Millisecond)
		}
	}
}

// detailPhase fans the listing backlog out over the detail tab pool.
func (s *Scraper) detailPhase(browser *Browser) []Outcome {
	backlog := s.sess.Listings()
	if len(backlog) == 0 {
		return nil
	}

	// Cheapest first: when the cap truncates the backlog, the truncated
	// tail holds the least promising candidates.
	services.SortBySalePriceAsc(backlog)

	workers := s.cfg.DetailWorkers
	if !s.cfg.UseMobileDetail {
		workers = 1
	}
	if workers < 1 {
		workers = 1
	}

	var fetchers []Fetcher
	for i := 0; i < workers; i++ {
		tabCtx, cancel, err := browser.NewDetailTab()
		if err != nil {
			s.log.Warn("[land] detail tab %d failed to open: %v", i, err)
			continue
		}
		defer cancel()
		fetchers = append(fetchers, NewExtractor(NewSurface(tabCtx), s.cfg, s.log))
	}
	if len(fetchers) == 0 {
		s.log.Error("[land] no detail tabs available — skipping detail phase")
		return nil
	}

	s.log.Info("[land] detailing up to %d of %d listings with %d workers",
		minInt(s.cfg.MaxListings, len(backlog)), len(backlog), len(fetchers))

	sched := NewScheduler(fetchers, s.cfg.RateLimitMs, s.log)
	return sched.Run(backlog, s.cfg.MaxListings)
}

func waitForCanvas(ctx context.Context) error {
	tctx, cancel := context.WithTimeout(ctx, canvasTimeout)
	defer cancel()
	return chromedp.Run(tctx, chromedp.WaitVisible("canvas", chromedp.ByQuery))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
