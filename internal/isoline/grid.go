// Package isoline turns a reachability map into a closed isochrone
// polygon: a regular lon/lat grid is valued against the nearest
// reachable node, then marching squares extracts the contour at the
// duration level, serialized as GeoJSON. Grounded on the original
// Rust isochrone.rs (grid sizing and cell-valuation formulas) with no
// change to the arithmetic, and on the teacher's
// internal/api/handlers.go fan-out pattern for the parallel cell pass.
package isoline

import (
	"math"
	"runtime"
	"sync"

	"github.com/impactsolutionsas/transit-isochrones/internal/geo"
	"github.com/impactsolutionsas/transit-isochrones/internal/graph"
	"github.com/impactsolutionsas/transit-isochrones/internal/spatial"
)

const degreesToMeters = 111111.0

// offRoadWalkingSpeedMPS is the constant used to extrapolate cost past
// the nearest reachable graph node, per the specification.
const offRoadWalkingSpeedMPS = 1.0

// Grid is a regular lon/lat lattice of signed cost scalars, ready for
// marching-squares contouring at level -duration.
type Grid struct {
	Resolution int
	MinLon     float64
	MinLat     float64
	DLon       float64
	DLat       float64
	Values     []float64 // row-major, length Resolution*Resolution
}

// Extent computes the grid's physical side length in meters from the
// configured max transit speed and the query duration, per the
// specification: L = max_transit_speed * duration.
func Extent(maxTransitSpeedKPH float64, durationSec uint32) float64 {
	maxTransitSpeedMPS := maxTransitSpeedKPH * 1000.0 / 3600.0
	return maxTransitSpeedMPS * float64(durationSec)
}

// BuildGrid lays out an R x R lattice centered on mid, sized by L
// meters per side, and values each cell by finding the nearest
// reachable node in reachIndex (a spatial index built only over nodes
// present in costs) and adding the off-road walking extrapolation.
// Cell values are stored sign-flipped so contouring can use the
// "less-than-or-equal" semantics of a standard marching-squares level
// set.
func BuildGrid(mid geo.Point, extentMeters float64, resolution int, reachIndex *spatial.Tree, costs map[graph.NodeID]uint32) *Grid {
	latRad := mid.Lat * math.Pi / 180
	dlat := extentMeters / degreesToMeters / float64(resolution)
	dlon := extentMeters / (degreesToMeters * math.Cos(latRad)) / float64(resolution)

	minLat := mid.Lat - extentMeters/2/degreesToMeters
	minLon := mid.Lon - extentMeters/2/(degreesToMeters*math.Cos(latRad))

	g := &Grid{
		Resolution: resolution,
		MinLon:     minLon,
		MinLat:     minLat,
		DLon:       dlon,
		DLat:       dlat,
		Values:     make([]float64, resolution*resolution),
	}

	numWorkers := runtime.NumCPU()
	if numWorkers < 1 {
		numWorkers = 1
	}
	rows := make(chan int, resolution)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range rows {
				for i := 0; i < resolution; i++ {
					x := minLon + dlon*float64(i)
					y := minLat + dlat*float64(j)
					g.Values[j*resolution+i] = valueCell(geo.Point{Lon: x, Lat: y}, reachIndex, costs)
				}
			}
		}()
	}
	for j := 0; j < resolution; j++ {
		rows <- j
	}
	close(rows)
	wg.Wait()

	return g
}

func valueCell(p geo.Point, reachIndex *spatial.Tree, costs map[graph.NodeID]uint32) float64 {
	id, dist, ok := reachIndex.Nearest(p)
	if !ok {
		return math.Inf(-1) // unreachable: never inside any contour
	}
	t := float64(costs[id])
	cost := t + dist/offRoadWalkingSpeedMPS
	return -cost
}
