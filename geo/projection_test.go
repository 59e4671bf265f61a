package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestProjectUnprojectRoundTrip(t *testing.T) {
	lats := []float64{-84.9, -60.0, -33.45, 0.0, 1e-9, 37.5608, 64.13, 84.9}
	lons := []float64{-179.9, -122.41, 0.0, 126.9888, 132.1, 179.9}

	for zoom := 0; zoom <= 20; zoom++ {
		for _, lat := range lats {
			for _, lon := range lons {
				x, y := Project(lat, lon, float64(zoom))
				gotLat, gotLon := Unproject(x, y, float64(zoom))
				if math.Abs(gotLat-lat) > 1e-6 {
					t.Fatalf("zoom %d (%f,%f): lat round-trip %f", zoom, lat, lon, gotLat)
				}
				if math.Abs(gotLon-lon) > 1e-6 {
					t.Fatalf("zoom %d (%f,%f): lon round-trip %f", zoom, lat, lon, gotLon)
				}
			}
		}
	}
}

func TestProjectScaleDoublesPerZoom(t *testing.T) {
	x15, y15 := Project(37.5608, 126.9888, 15)
	x16, y16 := Project(37.5608, 126.9888, 16)
	if math.Abs(x16-2*x15) > 1e-6 || math.Abs(y16-2*y15) > 1e-6 {
		t.Errorf("pixel coordinates should double per zoom level: (%f,%f) vs (%f,%f)", x15, y15, x16, y16)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		lat, lon         float64
		wantLat, wantLon float64
	}{
		{37.5608, 126.9888, 37.5608, 126.9888}, // inside, untouched
		{50.0, 126.9888, 39.5, 126.9888},       // latitude above
		{20.0, 126.9888, 33.0, 126.9888},       // latitude below
		{37.5608, 140.0, 37.5608, 132.1},       // longitude east
		{37.5608, 100.0, 37.5608, 124.0},       // longitude west
		{-10.0, 200.0, 33.0, 132.1},            // both axes
	}

	for _, c := range cases {
		gotLat, gotLon := Clamp(c.lat, c.lon, KoreaBounds)
		if gotLat != c.wantLat || gotLon != c.wantLon {
			t.Errorf("Clamp(%f,%f): got (%f,%f), want (%f,%f)",
				c.lat, c.lon, gotLat, gotLon, c.wantLat, c.wantLon)
		}
	}
}

func TestClampIdempotent(t *testing.T) {
	b := orb.Bound{Min: orb.Point{124.0, 33.0}, Max: orb.Point{132.1, 39.5}}
	lat, lon := Clamp(55.5, -10.0, b)
	lat2, lon2 := Clamp(lat, lon, b)
	if lat != lat2 || lon != lon2 {
		t.Errorf("clamp not idempotent: (%f,%f) vs (%f,%f)", lat, lon, lat2, lon2)
	}
	if lat < b.Min.Y() || lat > b.Max.Y() || lon < b.Min.X() || lon > b.Max.X() {
		t.Errorf("clamped point (%f,%f) outside bounds", lat, lon)
	}
}
