package land

import (
	"math"
	"math/rand"
	"time"

	"github.com/paulmach/orb"

	"land-gap-scraper/geo"
	"land-gap-scraper/utils"
)

const (
	// Convergence loops give up silently after these many iterations;
	// a close-enough viewport still captures data.
	zoomIterCap = 20
	dragIterCap = 18

	// One drag never exceeds this many pixels. Larger jumps read as
	// scripted and also outrun the backend's tile loading.
	maxDragStepPx = 800.0

	defaultDragTolerancePx = 3.5

	// Wheel pulse magnitudes: ±300 changes the zoom level, a small
	// negative nudge only forces a marker refresh.
	zoomWheelPulse    = 300.0
	refreshWheelNudge = -40.0

	// Coarse zoom band for the zoom-out-first maneuver. Manual users zoom
	// out for context before travelling; a direct precise jump does not.
	coarseZoomMin = 9
	coarseZoomMax = 12
)

// Navigator drives the remote viewport toward targets using human-paced
// convergence. Every operation is best-effort: a failed convergence leaves
// the viewport closer-but-not-exact and never aborts the run.
type Navigator struct {
	surf   Surface
	log    *utils.Logger
	bounds orb.Bound

	// Settle delays between pulses; exposed for tests.
	zoomSettle time.Duration
	dragSettle time.Duration
	retryWait  time.Duration
}

// NewNavigator creates a Navigator clamped to the given region.
func NewNavigator(surf Surface, bounds orb.Bound, log *utils.Logger) *Navigator {
	return &Navigator{
		surf:       surf,
		log:        log,
		bounds:     bounds,
		zoomSettle: 300 * time.Millisecond,
		dragSettle: 350 * time.Millisecond,
		retryWait:  300 * time.Millisecond,
	}
}

// WheelToZoom converges the viewport to the target integer zoom with
// single wheel pulses. Returns false when the iteration cap was hit.
func (n *Navigator) WheelToZoom(target int) bool {
	for i := 0; i < zoomIterCap; i++ {
		state, ok := n.surf.MapState()
		if !ok {
			time.Sleep(n.retryWait)
			continue
		}

		current := int(math.Round(state.Zoom))
		if current == target {
			return true
		}

		pulse := zoomWheelPulse
		if target > current {
			pulse = -zoomWheelPulse // scroll up zooms in
		}
		if err := n.surf.Wheel(pulse); err != nil {
			n.log.Debug("[nav] wheel pulse failed: %v", err)
		}
		time.Sleep(n.zoomSettle)
	}

	n.log.Debug("[nav] zoom convergence to %d gave up after %d iterations", target, zoomIterCap)
	return false
}

// DragToTarget converges the viewport center to (lat, lon) within tolPx
// pixels at the current zoom. Returns false when the cap was hit.
func (n *Navigator) DragToTarget(lat, lon, tolPx float64) bool {
	if tolPx <= 0 {
		tolPx = defaultDragTolerancePx
	}
	lat, lon = geo.Clamp(lat, lon, n.bounds)

	for i := 0; i < dragIterCap; i++ {
		state, ok := n.surf.MapState()
		if !ok {
			time.Sleep(n.retryWait)
			continue
		}

		curX, curY := geo.Project(state.Lat, state.Lon, state.Zoom)
		tgtX, tgtY := geo.Project(lat, lon, state.Zoom)
		dx, dy := tgtX-curX, tgtY-curY
		dist := math.Hypot(dx, dy)
		if dist <= tolPx {
			return true
		}

		step := math.Min(maxDragStepPx, dist)
		ratio := step / (dist + 1e-9)
		if err := n.surf.Drag(dx*ratio, dy*ratio); err != nil {
			n.log.Debug("[nav] drag failed: %v", err)
		}
		time.Sleep(n.dragSettle)
	}

	n.log.Debug("[nav] drag convergence to (%.5f,%.5f) gave up after %d iterations", lat, lon, dragIterCap)
	return false
}

// Recenter moves the viewport to the target in four phases: random coarse
// zoom-out, coarse drag, zoom-in, fine drag. The first drag converges at a
// different projection scale, so the second pass tightens it.
func (n *Navigator) Recenter(lat, lon float64, zoom int) {
	coarse := coarseZoomMin + rand.Intn(coarseZoomMax-coarseZoomMin+1)

	n.WheelToZoom(coarse)
	n.DragToTarget(lat, lon, defaultDragTolerancePx)
	n.WheelToZoom(zoom)
	n.DragToTarget(lat, lon, defaultDragTolerancePx)
}

// SweepOffsets generates the pixel offsets of a grid sweep: for each ring
// 1..rings, only the top and bottom rows are visited. The edge rows are
// enough to surface new markers once the center tile is loaded, while the
// sparse pattern avoids a raster-scan signature.
func SweepOffsets(rings int, stepPx float64) [][2]float64 {
	var offsets [][2]float64
	for r := 1; r <= rings; r++ {
		for dx := -r; dx <= r; dx++ {
			for _, dy := range [2]int{-r, r} {
				offsets = append(offsets, [2]float64{float64(dx) * stepPx, float64(dy) * stepPx})
			}
		}
	}
	return offsets
}

// GridSweep visits the sweep points around the center, dwelling at each so
// the backend calls triggered by the movement land before moving on.
func (n *Navigator) GridSweep(centerLat, centerLon float64, zoom, rings int, stepPx float64, dwell time.Duration) {
	cx, cy := geo.Project(centerLat, centerLon, float64(zoom))

	offsets := SweepOffsets(rings, stepPx)
	for i, off := range offsets {
		lat, lon := geo.Unproject(cx+off[0], cy+off[1], float64(zoom))
		n.log.Debug("[nav] sweep %d/%d", i+1, len(offsets))

		n.DragToTarget(lat, lon, defaultDragTolerancePx)
		// Incidental scroll forces a marker refresh without changing zoom.
		if err := n.surf.Wheel(refreshWheelNudge); err != nil {
			n.log.Debug("[nav] refresh nudge failed: %v", err)
		}
		time.Sleep(dwell)
	}
}
