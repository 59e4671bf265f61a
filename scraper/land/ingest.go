package land

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"land-gap-scraper/models"
	"land-gap-scraper/utils"
)

// Ingestor subscribes to the backend data responses the map fires as a
// side effect of viewport movement, classifies them by endpoint shape, and
// accumulates them into the session buffers. Malformed payloads are
// skipped; ingestion never halts navigation.
type Ingestor struct {
	sess *Session
	log  *utils.Logger

	firstOnce sync.Once
	firstData chan struct{}
}

// NewIngestor creates an Ingestor feeding the given session.
func NewIngestor(sess *Session, log *utils.Logger) *Ingestor {
	return &Ingestor{sess: sess, log: log, firstData: make(chan struct{})}
}

// WaitFirstData blocks until any data endpoint has responded, or the
// timeout elapses. A timed-out wait means "proceed anyway".
func (ing *Ingestor) WaitFirstData(timeout time.Duration) bool {
	select {
	case <-ing.firstData:
		return true
	case <-time.After(timeout):
		return false
	}
}

var reArticleListURL = regexp.MustCompile(`/api/articles/(complex|house)/(\d+)`)

// Attach subscribes to completed network exchanges on the map tab. Bodies
// are fetched lazily off the event loop once loading finishes.
func (ing *Ingestor) Attach(ctx context.Context) {
	c := chromedp.FromContext(ctx)
	exec := cdp.WithExecutor(ctx, c.Target)

	var mu sync.Mutex
	pending := make(map[network.RequestID]string)

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			u := e.Response.URL
			if !isDataEndpoint(u) {
				return
			}
			ing.firstOnce.Do(func() { close(ing.firstData) })
			mu.Lock()
			pending[e.RequestID] = u
			mu.Unlock()

		case *network.EventLoadingFinished:
			mu.Lock()
			u, ok := pending[e.RequestID]
			delete(pending, e.RequestID)
			mu.Unlock()
			if !ok {
				return
			}
			// GetResponseBody must not run on the event goroutine.
			go func(id network.RequestID, u string) {
				body, err := network.GetResponseBody(id).Do(exec)
				if err != nil {
					ing.log.Debug("[ingest] body fetch failed for %s: %v", u, err)
					return
				}
				ing.Classify(u, body)
			}(e.RequestID, u)

		case *network.EventLoadingFailed:
			mu.Lock()
			delete(pending, e.RequestID)
			mu.Unlock()
		}
	})
}

func isDataEndpoint(u string) bool {
	return strings.Contains(u, "single-markers") || strings.Contains(u, "/api/")
}

// Classify routes one observed response into its channel. Capture must be
// active; pre-navigation noise is dropped wholesale.
func (ing *Ingestor) Classify(u string, body []byte) {
	if !ing.sess.CaptureActive() {
		return
	}

	switch {
	case strings.Contains(u, "complexes/single-markers") || strings.Contains(u, "houses/single-markers"):
		ing.ingestMarkers(u, body)
	case reArticleListURL.MatchString(u):
		ing.ingestArticleList(u, body)
	case strings.Contains(u, "/api/complexes/") && strings.Contains(u, "/prices"):
		ing.ingestPriceHistory(body)
	case strings.Contains(u, "/api/"):
		ing.ingestGeneric(body)
	}
}

// ingestMarkers handles the marker channel. The houses endpoint also
// returns non-villa records, which are discarded by asset tag.
func (ing *Ingestor) ingestMarkers(u string, body []byte) {
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		ing.log.Debug("[ingest] marker payload skipped: %v", err)
		return
	}

	housesEndpoint := strings.Contains(u, "houses/single-markers")
	added := 0
	for _, it := range items {
		if housesEndpoint && !isVillaRecord(it) {
			continue
		}

		kind := "complexes"
		if housesEndpoint || pickString(it, "houseNo") != "" {
			kind = "houses"
		}

		m := models.Marker{
			ID:    pickString(it, "markerId", "complexNo", "houseNo"),
			Name:  pickString(it, "complexName", "houseName"),
			Kind:  kind,
			Count: pickInt(it, "articleCount", "dealCount", "totalCount", "cnt"),
		}
		if ing.sess.UpsertMarker(m) {
			added++
		}
	}
	if added > 0 {
		markers, _, _ := ing.sess.Counts()
		ing.log.Debug("[ingest] +%d markers (total %d)", added, markers)
	}
}

// ingestArticleList handles the listing-list channel for one parent marker.
func (ing *Ingestor) ingestArticleList(u string, body []byte) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		ing.log.Debug("[ingest] article payload skipped: %v", err)
		return
	}

	groups := reArticleListURL.FindStringSubmatch(u)
	markerID := groups[2]
	housesEndpoint := groups[1] == "house"

	if total := pickInt(payload, "totalCount", "count"); total > 0 {
		ing.sess.RaiseMarkerCount(markerID, total)
	}

	list, ok := payload["articleList"].([]any)
	if !ok {
		list, _ = payload["articles"].([]any)
	}

	added := 0
	for _, item := range list {
		a, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if housesEndpoint && !isVillaRecord(a) {
			continue
		}
		if !isSaleTrade(a) {
			continue
		}
		if ing.sess.AddListing(listingFrom(a)) {
			added++
		}
	}
	if added > 0 {
		_, listings, _ := ing.sess.Counts()
		ing.log.Debug("[ingest] +%d listings (total %d)", added, listings)
	}
}

// ingestPriceHistory handles the transaction-history channel.
func (ing *Ingestor) ingestPriceHistory(body []byte) {
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		ing.log.Debug("[ingest] price payload skipped: %v", err)
		return
	}

	for _, it := range items {
		ing.sess.AddLeaseRecord(models.LeaseHistoryRecord{
			DealDate:  pickString(it, "dealDate", "tradeDate"),
			Area:      pickString(it, "area", "areaName"),
			Floor:     pickString(it, "floor"),
			DealPrice: pickString(it, "dealPrice", "price"),
		})
	}
}

// ingestGeneric is the fallback channel: scan the payload tree for lists
// of article-shaped objects and apply the standard filter/dedup rules.
func (ing *Ingestor) ingestGeneric(body []byte) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return
	}

	if added := ing.scanForArticles(payload); added > 0 {
		_, listings, _ := ing.sess.Counts()
		ing.log.Debug("[ingest] +%d listings from generic endpoint (total %d)", added, listings)
	}
}

func (ing *Ingestor) scanForArticles(v any) int {
	added := 0
	switch node := v.(type) {
	case map[string]any:
		if list, ok := node["articleList"].([]any); ok {
			return ing.scanForArticles(list)
		}
		for _, child := range node {
			added += ing.scanForArticles(child)
		}
	case []any:
		for _, item := range node {
			m, ok := item.(map[string]any)
			if !ok {
				added += ing.scanForArticles(item)
				continue
			}
			if pickString(m, "articleNo", "atclNo") == "" {
				continue
			}
			if !isSaleTrade(m) {
				continue
			}
			if ing.sess.AddListing(listingFrom(m)) {
				added++
			}
		}
	}
	return added
}

func listingFrom(a map[string]any) models.ListingSummary {
	tradeType := strings.TrimSpace(pickString(a, "tradeTypeName"))
	if tradeType == "" {
		tradeType = strings.ToUpper(pickString(a, "tradeType", "tradTp"))
	}

	return models.ListingSummary{
		ID:            pickString(a, "articleNo", "atclNo"),
		Name:          pickString(a, "articleName", "atclNm"),
		TradeType:     tradeType,
		RawPrice:      pickString(a, "dealOrWarrantPrc", "prc"),
		FloorInfo:     pickString(a, "floorInfo", "flrInfo"),
		GrossArea:     pickString(a, "area1", "spc1"),
		NetArea:       pickString(a, "area2", "spc2"),
		Direction:     pickString(a, "direction"),
		Feature:       pickString(a, "articleFeatureDesc", "atclFetrDesc"),
		RegisteredYmd: pickString(a, "articleConfirmYmd", "cfmYmd"),
	}
}

// isSaleTrade keeps only sale-type transactions; lease and monthly-rent
// listings carry no purchase signal.
func isSaleTrade(a map[string]any) bool {
	code := strings.ToUpper(pickString(a, "tradeType", "tradTp"))
	name := strings.TrimSpace(pickString(a, "tradeTypeName"))
	return code == "A1" || name == "매매" || name == "SALE"
}

// isVillaRecord checks the asset-type tag, preferring the code field and
// falling back to name keywords.
func isVillaRecord(m map[string]any) bool {
	code := strings.ToUpper(pickString(m, "realEstateTypeCode", "estateType", "rletTpCd"))
	if code != "" {
		return code == "VL"
	}
	name := pickString(m, "realEstateTypeName", "estateTypeName", "rletTpNm")
	for _, kw := range []string{"빌라", "연립", "다세대"} {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// pickString returns the first non-empty value among the aliased keys,
// stringifying numeric ids the backend sometimes sends unquoted.
func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// pickInt returns the first positive integer among the aliased keys.
func pickInt(m map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			if v > 0 {
				return int(v)
			}
		case string:
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}
