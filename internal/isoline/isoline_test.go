package isoline

import (
	"testing"

	"github.com/impactsolutionsas/transit-isochrones/internal/geo"
	"github.com/impactsolutionsas/transit-isochrones/internal/graph"
	"github.com/impactsolutionsas/transit-isochrones/internal/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallReachGraph() *graph.Graph {
	a := graph.StreetID(1)
	return &graph.Graph{
		Nodes:     map[graph.NodeID]graph.Node{a: {Lon: 0, Lat: 0}},
		Adjacency: map[graph.NodeID][]graph.Edge{},
	}
}

func TestExtractEmptyReachIsEmptyFeatureCollection(t *testing.T) {
	g := smallReachGraph()
	fc, err := Extract(g, map[graph.NodeID]uint32{}, Params{
		Start:              geo.Point{Lon: 0, Lat: 0},
		DurationSec:        300,
		GridResolution:     16,
		MaxTransitSpeedKPH: 75,
	})
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}

func TestExtractContainsStartingCoordinate(t *testing.T) {
	g := smallReachGraph()
	costs := map[graph.NodeID]uint32{graph.StreetID(1): 0}
	fc, err := Extract(g, costs, Params{
		Start:              geo.Point{Lon: 0, Lat: 0},
		DurationSec:        300,
		GridResolution:     32,
		MaxTransitSpeedKPH: 75,
	})
	require.NoError(t, err)
	require.NotEmpty(t, fc.Features)

	minLon, minLat, maxLon, maxLat := bboxOf(t, fc.Features[0].Geometry.Polygon)
	assert.LessOrEqual(t, minLon, 0.0)
	assert.GreaterOrEqual(t, maxLon, 0.0)
	assert.LessOrEqual(t, minLat, 0.0)
	assert.GreaterOrEqual(t, maxLat, 0.0)
}

func TestExtentGrowsWithDuration(t *testing.T) {
	small := Extent(75, 100)
	large := Extent(75, 1000)
	assert.Less(t, small, large)
}

func bboxOf(t *testing.T, polygon [][][]float64) (minLon, minLat, maxLon, maxLat float64) {
	t.Helper()
	require.NotEmpty(t, polygon)
	minLon, minLat = 1e18, 1e18
	maxLon, maxLat = -1e18, -1e18
	for _, ring := range polygon {
		for _, pt := range ring {
			if pt[0] < minLon {
				minLon = pt[0]
			}
			if pt[0] > maxLon {
				maxLon = pt[0]
			}
			if pt[1] < minLat {
				minLat = pt[1]
			}
			if pt[1] > maxLat {
				maxLat = pt[1]
			}
		}
	}
	return
}

// TestIsolineGrowsWithDuration checks the monotonicity property from
// the specification: a longer budget should never shrink the reachable
// footprint, approximated here via the bounding box of the contour.
func TestIsolineGrowsWithDuration(t *testing.T) {
	g := smallReachGraph()
	costs := map[graph.NodeID]uint32{graph.StreetID(1): 0}

	params := func(d uint32) Params {
		return Params{Start: geo.Point{Lon: 0, Lat: 0}, DurationSec: d, GridResolution: 48, MaxTransitSpeedKPH: 75}
	}

	shortFC, err := Extract(g, costs, params(300))
	require.NoError(t, err)
	longFC, err := Extract(g, costs, params(1200))
	require.NoError(t, err)
	require.NotEmpty(t, shortFC.Features)
	require.NotEmpty(t, longFC.Features)

	shortPoly := shortFC.Features[0].Geometry.Polygon
	longPoly := longFC.Features[0].Geometry.Polygon

	sMinLon, sMinLat, sMaxLon, sMaxLat := bboxOf(t, shortPoly)
	lMinLon, lMinLat, lMaxLon, lMaxLat := bboxOf(t, longPoly)

	assert.LessOrEqual(t, lMinLon, sMinLon)
	assert.LessOrEqual(t, lMinLat, sMinLat)
	assert.GreaterOrEqual(t, lMaxLon, sMaxLon)
	assert.GreaterOrEqual(t, lMaxLat, sMaxLat)
}

func TestBuildGridSizingFormula(t *testing.T) {
	mid := geo.Point{Lon: 0, Lat: 0}
	extent := 1000.0
	resolution := 10
	idx := spatial.New([]graph.NodeID{graph.StreetID(1)}, []geo.Point{mid})
	costs := map[graph.NodeID]uint32{graph.StreetID(1): 0}

	grid := BuildGrid(mid, extent, resolution, idx, costs)
	require.Len(t, grid.Values, resolution*resolution)

	wantDLat := extent / degreesToMeters / float64(resolution)
	assert.InDelta(t, wantDLat, grid.DLat, 1e-9)
}
