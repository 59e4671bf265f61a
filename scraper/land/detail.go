package land

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"land-gap-scraper/config"
	"land-gap-scraper/models"
	"land-gap-scraper/services"
	"land-gap-scraper/utils"
)

var (
	rePrevLease      = regexp.MustCompile(`기전세금\s*([\d,억\s만]+)`)
	reBrokerName     = regexp.MustCompile(`^[가-힣]{2,4}$`)
	reAgencyKeyword  = regexp.MustCompile(`공인중개사|부동산`)
	reAgencyFallback = regexp.MustCompile(`중개소\s+([^\n]+)`)
	reLeaseMax       = regexp.MustCompile(`(\d+)\s*년\s*내\s*최고\s*([\d,억\s만]+)`)
	reLeaseMin       = regexp.MustCompile(`(\d+)\s*년\s*내\s*최저\s*([\d,억\s만]+)`)
	rePhone          = regexp.MustCompile(`0\d{1,2}-\d{3,4}-\d{4}`)
)

// Short hangul tokens that look like names but never are.
var brokerStoplist = map[string]struct{}{
	"이미지":  {},
	"상세보기": {},
	"중개사":  {},
	"중개소":  {},
	"프로필":  {},
}

const notFoundMarker = "요청하신 페이지를 찾을 수 없어요"

// Extractor fetches one listing's detail page on an exclusively-owned tab
// and extracts broker contact and historical lease facts from the page
// text. Every step except the previous-lease precheck is best-effort.
type Extractor struct {
	surf  Surface
	cfg   *config.Config
	log   *utils.Logger
	retry utils.RetryConfig
}

// NewExtractor wraps a detail tab surface.
func NewExtractor(surf Surface, cfg *config.Config, log *utils.Logger) *Extractor {
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	return &Extractor{
		surf: surf,
		cfg:  cfg,
		log:  log,
		retry: utils.RetryConfig{
			MaxAttempts: attempts,
			BaseDelay:   500 * time.Millisecond,
			Logger:      log,
		},
	}
}

func (e *Extractor) infoURL(articleID string) string {
	if e.cfg.UseMobileDetail {
		return "https://m.land.naver.com/article/info/" + articleID
	}
	return "https://new.land.naver.com/articles/" + articleID
}

func (e *Extractor) altURL(articleID string) string {
	if e.cfg.UseMobileDetail {
		return "https://m.land.naver.com/article/view/" + articleID
	}
	return "https://m.land.naver.com/article/info/" + articleID
}

// Fetch implements the per-listing detail extraction. Skip=true marks a
// listing without the required previous-lease fact (or one whose page
// never rendered); both are normal outcomes.
func (e *Extractor) Fetch(l models.ListingSummary) (models.DetailRecord, error) {
	if err := e.visit(e.infoURL(l.ID), l.ID); err != nil {
		return models.DetailRecord{Skip: true}, fmt.Errorf("detail %s: %w", l.ID, err)
	}

	text, err := e.surf.PageText()
	if err != nil {
		text = ""
	}

	// Bounced to an error page or got a near-empty body: one retry against
	// the alternate URL, then accept whatever we have.
	if strings.Contains(text, notFoundMarker) || len(strings.TrimSpace(text)) < 50 {
		if err := e.visit(e.altURL(l.ID), l.ID); err == nil {
			if t, err := e.surf.PageText(); err == nil {
				text = t
			}
		}
	}

	// Previous-lease precheck comes first: without it the gap analysis is
	// impossible, so skipping now saves the rest of the parse.
	prev, hasPrev := ExtractPrevLease(text)
	if e.cfg.RequirePrevLease && !hasPrev {
		return models.DetailRecord{Skip: true}, nil
	}

	// Switch to the lease-history view for the period high/low figures.
	// Failure is tolerated; extraction continues on the current text.
	if e.surf.ClickLabel(e.cfg.TradeTabLabels) {
		time.Sleep(200 * time.Millisecond)
		if e.surf.ClickLabel(e.cfg.LeaseTabLabels) {
			time.Sleep(250 * time.Millisecond)
		}
		if t, err := e.surf.PageText(); err == nil && t != "" {
			text = t
		}
	}

	d := ExtractBrokerFacts(text, e.telAnchors())
	d.PrevLeaseWon, d.HasPrevLease = prev, hasPrev
	return d, nil
}

// visit navigates with back-off retries and recovers once if the page
// bounced to the unrelated finance domain.
func (e *Extractor) visit(u, articleID string) error {
	if err := e.retry.Do("detail navigation", func() error {
		return e.surf.Navigate(u)
	}); err != nil {
		return err
	}
	time.Sleep(300 * time.Millisecond)

	if cur, err := e.surf.CurrentURL(); err == nil && strings.Contains(cur, "fin.land.naver.com") {
		if err := e.surf.Navigate(e.infoURL(articleID)); err != nil {
			return err
		}
		time.Sleep(300 * time.Millisecond)
	}
	return nil
}

// telAnchors pulls tel: links out of the page HTML; the mobile pages often
// render the broker phone only as a dial link.
func (e *Extractor) telAnchors() []string {
	html, err := e.surf.PageHTML()
	if err != nil {
		return nil
	}
	return TelLinkPhones(html)
}

// TelLinkPhones extracts phone numbers from tel: anchors in the document.
func TelLinkPhones(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var phones []string
	doc.Find(`a[href^="tel:"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		phone := strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
		if phone != "" {
			phones = append(phones, phone)
		}
	})
	return phones
}

// ExtractPrevLease searches the page text for the previous long-term lease
// deposit. Absent or unparsable means (0, false).
func ExtractPrevLease(text string) (int64, bool) {
	m := rePrevLease.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return services.ParseWon(strings.TrimSpace(m[1]))
}

// ExtractBrokerFacts parses broker contact details and lease-period bounds
// out of the page text. Each fact is independent; absence of one never
// invalidates the record.
func ExtractBrokerFacts(text string, telPhones []string) models.DetailRecord {
	var d models.DetailRecord

	lines := nonEmptyLines(text)

	// The broker's name is a short hangul token whose surrounding lines
	// mention broker-related keywords.
	agentIdx := -1
	for i, l := range lines {
		if !reBrokerName.MatchString(l) {
			continue
		}
		if _, stop := brokerStoplist[l]; stop {
			continue
		}
		lo, hi := i-3, i+2
		if lo < 0 {
			lo = 0
		}
		if hi > len(lines) {
			hi = len(lines)
		}
		context := strings.Join(lines[lo:hi], "\n")
		if strings.Contains(context, "중개사") || strings.Contains(context, "프로필") ||
			strings.Contains(context, "중개소") {
			d.AgentName = l
			agentIdx = i
			break
		}
	}

	// The agency name follows within a few lines of the broker's name.
	if agentIdx >= 0 {
		hi := agentIdx + 6
		if hi > len(lines) {
			hi = len(lines)
		}
		for _, l := range lines[agentIdx+1 : hi] {
			if reAgencyKeyword.MatchString(l) &&
				!strings.Contains(l, "상세보기") && !strings.Contains(l, "전화") {
				d.AgencyName = l
				break
			}
		}
	}
	if d.AgencyName == "" {
		if m := reAgencyFallback.FindStringSubmatch(text); m != nil {
			candidate := strings.TrimSpace(m[1])
			if !strings.Contains(candidate, "이미지") {
				d.AgencyName = candidate
			}
		}
	}

	// "N년 내 최고/최저" lease bounds; the period comes from whichever is
	// present.
	if m := reLeaseMax.FindStringSubmatch(text); m != nil {
		d.LeasePeriodYears = atoi(m[1])
		if won, ok := services.ParseWon(strings.TrimSpace(m[2])); ok {
			d.LeaseMaxWon = won
			d.HasLeaseMax = true
		}
	}
	if m := reLeaseMin.FindStringSubmatch(text); m != nil {
		if d.LeasePeriodYears == 0 {
			d.LeasePeriodYears = atoi(m[1])
		}
		if won, ok := services.ParseWon(strings.TrimSpace(m[2])); ok {
			d.LeaseMinWon = won
			d.HasLeaseMin = true
		}
	}

	// Up to two phone numbers in document order; tel: anchors fill in when
	// the visible text carries fewer.
	phones := rePhone.FindAllString(text, -1)
	for _, p := range telPhones {
		if !containsString(phones, p) {
			phones = append(phones, p)
		}
	}
	if len(phones) >= 1 {
		d.Phone1 = phones[0]
	}
	if len(phones) >= 2 {
		d.Phone2 = phones[1]
	}

	return d
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
