package land

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"land-gap-scraper/models"
)

// Surface is the capability set the navigation state machine needs from a
// remote viewport. "Not found" and "unreadable" are normal outcomes the
// caller branches on, not errors.
type Surface interface {
	Navigate(url string) error
	CurrentURL() (string, error)
	// MapState reads the viewport position; false means unreadable right now.
	MapState() (models.MapState, bool)
	// Drag moves the map content by (dx, dy) pixels using a smoothed
	// multi-waypoint pointer gesture from the viewport center.
	Drag(dx, dy float64) error
	Wheel(deltaY float64) error
	// ClickLabel tries each candidate label in order and clicks the first
	// element whose visible text matches; false means none was found.
	ClickLabel(labels []string) bool
	PageText() (string, error)
	PageHTML() (string, error)
}

const (
	// Pointer gestures originate from the viewport center.
	pointerOriginX = 960.0
	pointerOriginY = 540.0

	// Drags are interpolated over this many waypoints so the motion looks
	// like a hand, not a teleport.
	dragWaypoints = 20

	surfaceOpTimeout = 15 * time.Second
)

// browserSurface implements Surface over a chromedp tab.
type browserSurface struct {
	ctx context.Context
}

// NewSurface wraps a chromedp tab context as a Surface.
func NewSurface(ctx context.Context) Surface {
	return &browserSurface{ctx: ctx}
}

func (s *browserSurface) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, surfaceOpTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (s *browserSurface) Navigate(u string) error {
	if err := s.run(chromedp.Navigate(u)); err != nil {
		return fmt.Errorf("surface: navigate %s: %w", u, err)
	}
	return nil
}

func (s *browserSurface) CurrentURL() (string, error) {
	var u string
	if err := s.run(chromedp.Location(&u)); err != nil {
		return "", fmt.Errorf("surface: read location: %w", err)
	}
	return u, nil
}

func (s *browserSurface) MapState() (models.MapState, bool) {
	u, err := s.CurrentURL()
	if err != nil {
		return models.MapState{}, false
	}
	return ParseMapState(u)
}

// ParseMapState extracts the viewport state from the map URL's
// "ms=lat,lon,zoom" query parameter.
func ParseMapState(rawURL string) (models.MapState, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return models.MapState{}, false
	}
	ms := parsed.Query().Get("ms")
	if ms == "" {
		return models.MapState{}, false
	}

	parts := strings.Split(ms, ",")
	if len(parts) != 3 {
		return models.MapState{}, false
	}
	lat, err1 := strconv.ParseFloat(parts[0], 64)
	lon, err2 := strconv.ParseFloat(parts[1], 64)
	zoom, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return models.MapState{}, false
	}
	return models.MapState{Lat: lat, Lon: lon, Zoom: zoom}, true
}

func (s *browserSurface) Drag(dx, dy float64) error {
	err := s.run(chromedp.ActionFunc(func(ctx context.Context) error {
		// Dragging the map content by (dx, dy) means the pointer travels
		// the opposite way.
		press := input.DispatchMouseEvent(input.MousePressed, pointerOriginX, pointerOriginY).
			WithButton(input.Left).
			WithClickCount(1)
		if err := press.Do(ctx); err != nil {
			return err
		}

		for i := 1; i <= dragWaypoints; i++ {
			f := float64(i) / dragWaypoints
			move := input.DispatchMouseEvent(input.MouseMoved,
				pointerOriginX-dx*f, pointerOriginY-dy*f).
				WithButton(input.Left)
			if err := move.Do(ctx); err != nil {
				return err
			}
		}

		release := input.DispatchMouseEvent(input.MouseReleased,
			pointerOriginX-dx, pointerOriginY-dy).
			WithButton(input.Left).
			WithClickCount(1)
		return release.Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("surface: drag (%.0f,%.0f): %w", dx, dy, err)
	}
	return nil
}

func (s *browserSurface) Wheel(deltaY float64) error {
	err := s.run(chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, pointerOriginX, pointerOriginY).
			WithDeltaX(0).
			WithDeltaY(deltaY).
			Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("surface: wheel %.0f: %w", deltaY, err)
	}
	return nil
}

func (s *browserSurface) ClickLabel(labels []string) bool {
	if len(labels) == 0 {
		return false
	}
	encoded, err := json.Marshal(labels)
	if err != nil {
		return false
	}

	script := fmt.Sprintf(`
		(function(labels) {
			var els = document.querySelectorAll('button, a, [role="button"], [role="tab"], span, li');
			for (var j = 0; j < labels.length; j++) {
				for (var i = 0; i < els.length; i++) {
					var t = (els[i].textContent || '').trim();
					if (t === labels[j]) {
						els[i].click();
						return true;
					}
				}
			}
			// Second pass: substring match on short elements.
			for (var j = 0; j < labels.length; j++) {
				for (var i = 0; i < els.length; i++) {
					var t = (els[i].textContent || '').trim();
					if (t.length <= labels[j].length + 6 && t.indexOf(labels[j]) !== -1) {
						els[i].click();
						return true;
					}
				}
			}
			return false;
		})(%s)
	`, encoded)

	var clicked bool
	if err := s.run(chromedp.Evaluate(script, &clicked)); err != nil {
		return false
	}
	return clicked
}

func (s *browserSurface) PageText() (string, error) {
	var text string
	if err := s.run(chromedp.Evaluate(`document.body ? document.body.innerText : ''`, &text)); err != nil {
		return "", fmt.Errorf("surface: page text: %w", err)
	}
	return text, nil
}

func (s *browserSurface) PageHTML() (string, error) {
	var html string
	if err := s.run(chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("surface: page html: %w", err)
	}
	return html, nil
}
