package land

import (
	"math"
	"sync"
	"testing"

	"land-gap-scraper/geo"
	"land-gap-scraper/models"
)

// fakeSurface simulates the remote viewport in memory: drags move the
// projected center, wheel pulses change the zoom level, and page content
// is served from a URL-keyed map.
type fakeSurface struct {
	mu       sync.Mutex
	state    models.MapState
	hasState bool
	url      string

	texts  map[string]string
	htmls  map[string]string
	labels map[string]bool

	zoomFloor float64
	zoomCeil  float64

	dragCount   int
	wheelCount  int
	maxDragHyp  float64
	clickedSeen []string
}

func newFakeSurface(lat, lon, zoom float64) *fakeSurface {
	return &fakeSurface{
		state:     models.MapState{Lat: lat, Lon: lon, Zoom: zoom},
		hasState:  true,
		texts:     make(map[string]string),
		htmls:     make(map[string]string),
		labels:    make(map[string]bool),
		zoomFloor: 6,
		zoomCeil:  20,
	}
}

func (f *fakeSurface) Navigate(u string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = u
	return nil
}

func (f *fakeSurface) CurrentURL() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *fakeSurface) MapState() (models.MapState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.hasState
}

func (f *fakeSurface) Drag(dx, dy float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dragCount++
	if h := math.Hypot(dx, dy); h > f.maxDragHyp {
		f.maxDragHyp = h
	}
	x, y := geo.Project(f.state.Lat, f.state.Lon, f.state.Zoom)
	f.state.Lat, f.state.Lon = geo.Unproject(x+dx, y+dy, f.state.Zoom)
	return nil
}

func (f *fakeSurface) Wheel(deltaY float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wheelCount++
	switch {
	case deltaY <= -zoomWheelPulse:
		f.state.Zoom++
	case deltaY >= zoomWheelPulse:
		f.state.Zoom--
	}
	if f.state.Zoom > f.zoomCeil {
		f.state.Zoom = f.zoomCeil
	}
	if f.state.Zoom < f.zoomFloor {
		f.state.Zoom = f.zoomFloor
	}
	return nil
}

func (f *fakeSurface) ClickLabel(labels []string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range labels {
		if f.labels[l] {
			f.clickedSeen = append(f.clickedSeen, l)
			return true
		}
	}
	return false
}

func (f *fakeSurface) PageText() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts[f.url], nil
}

func (f *fakeSurface) PageHTML() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.htmls[f.url], nil
}

func TestParseMapState(t *testing.T) {
	state, ok := ParseMapState("https://new.land.naver.com/complexes?ms=37.4979,127.0276,16&a=APT&b=A1")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if state.Lat != 37.4979 || state.Lon != 127.0276 || state.Zoom != 16 {
		t.Errorf("unexpected state: %+v", state)
	}
}

func TestParseMapStateFractionalZoom(t *testing.T) {
	state, ok := ParseMapState("https://new.land.naver.com/complexes?ms=37.5,127.0,15.73")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if state.Zoom != 15.73 {
		t.Errorf("zoom = %v, want 15.73", state.Zoom)
	}
}

func TestParseMapStateRejects(t *testing.T) {
	// Missing ms, wrong arity, non-numeric parts, unparsable URL.
	bad := []string{
		"https://new.land.naver.com/complexes",
		"https://new.land.naver.com/complexes?ms=37.5,127",
		"https://new.land.naver.com/complexes?ms=a,b,c",
		"://broken",
	}
	for _, u := range bad {
		if _, ok := ParseMapState(u); ok {
			t.Errorf("ParseMapState(%q) unexpectedly succeeded", u)
		}
	}
}
