package land

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"land-gap-scraper/config"
)

// The map backend fingerprints automation; hiding navigator.webdriver and
// funnelling window.open into same-tab navigation are both required for the
// detail pages to render.
const stealthScript = `
	Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
	window.open = function(u) { location.href = u; };
`

// Heavy resource patterns blocked at the network layer when enabled.
var blockedURLPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg",
	"*.woff", "*.woff2", "*.ttf", "*.otf",
	"*.mp4", "*.webm", "*.mp3",
}

// Browser owns the shared Chrome process and hands out tab contexts.
type Browser struct {
	cfg *config.Config

	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	rootCtx     context.Context
	cancelRoot  context.CancelFunc
}

// NewBrowser launches Chrome with the scraping-friendly option set.
func NewBrowser(parent context.Context, cfg *config.Config) (*Browser, error) {
	chromeBin := findChromeBinary(cfg.ChromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)

	// Root tab context; also suppresses chromedp log noise.
	rootCtx, cancelRoot := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	return &Browser{
		cfg:         cfg,
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		rootCtx:     rootCtx,
		cancelRoot:  cancelRoot,
	}, nil
}

// NewMapTab opens the tab used for viewport navigation, with stealth and
// optional heavy-resource blocking applied before any page loads.
func (b *Browser) NewMapTab() (context.Context, context.CancelFunc, error) {
	ctx, cancel := chromedp.NewContext(b.rootCtx)
	if err := chromedp.Run(ctx, b.prepActions(false)...); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("browser: prepare map tab: %w", err)
	}
	return ctx, cancel, nil
}

// NewDetailTab opens one reusable detail-fetch tab. With mobile emulation
// the lighter m.land pages are served, which is both faster and closer to
// how a phone user browses.
func (b *Browser) NewDetailTab() (context.Context, context.CancelFunc, error) {
	ctx, cancel := chromedp.NewContext(b.rootCtx)
	if err := chromedp.Run(ctx, b.prepActions(b.cfg.UseMobileDetail)...); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("browser: prepare detail tab: %w", err)
	}
	return ctx, cancel, nil
}

func (b *Browser) prepActions(mobile bool) []chromedp.Action {
	actions := []chromedp.Action{
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}),
	}

	if b.cfg.BlockHeavyResources {
		actions = append(actions, network.SetBlockedURLS(blockedURLPatterns))
	}

	if mobile {
		actions = append(actions,
			emulation.SetDeviceMetricsOverride(430, 932, 3.0, true),
			emulation.SetUserAgentOverride(
				"Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 "+
					"(KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"),
			network.SetExtraHTTPHeaders(network.Headers{
				"referer":         "https://m.land.naver.com/",
				"accept-language": "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
			}),
		)
	}

	return actions
}

// Close tears down every tab and the Chrome process.
func (b *Browser) Close() {
	b.cancelRoot()
	b.cancelAlloc()
}

// findChromeBinary locates a Chrome/Chromium binary, honoring an explicit
// override first.
func findChromeBinary(override string) string {
	if override != "" {
		return override
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
