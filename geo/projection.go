package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// TileSize is the pixel size of one map tile at zoom 0.
const TileSize = 256.0

// KoreaBounds covers the Korean territory, Jeju to Gangwon and the west
// to east seas. orb points are (lon, lat).
var KoreaBounds = orb.Bound{
	Min: orb.Point{124.0, 33.0},
	Max: orb.Point{132.1, 39.5},
}

// Project converts lat/lon to web-Mercator pixel coordinates at the given
// zoom. The pixel plane is 256*2^zoom per axis; zoom may be fractional.
func Project(lat, lon, zoom float64) (x, y float64) {
	scale := TileSize * math.Exp2(zoom)
	x = (lon + 180.0) / 360.0 * scale
	sinLat := math.Sin(lat * math.Pi / 180.0)
	y = (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * scale
	return x, y
}

// Unproject is the exact inverse of Project, via the Gudermannian inverse.
func Unproject(x, y, zoom float64) (lat, lon float64) {
	scale := TileSize * math.Exp2(zoom)
	lon = x/scale*360.0 - 180.0
	n := math.Pi - 2.0*math.Pi*y/scale
	lat = math.Atan(math.Sinh(n)) * 180.0 / math.Pi
	return lat, lon
}

// Clamp limits lat/lon independently on each axis to the given bound so
// navigation targets stay inside the working region no matter the input.
func Clamp(lat, lon float64, bounds orb.Bound) (float64, float64) {
	lat = math.Max(bounds.Min.Y(), math.Min(lat, bounds.Max.Y()))
	lon = math.Max(bounds.Min.X(), math.Min(lon, bounds.Max.X()))
	return lat, lon
}
