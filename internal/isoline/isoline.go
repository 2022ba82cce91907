package isoline

import (
	"fmt"
	"math"

	geojson "github.com/paulmach/go.geojson"

	"github.com/impactsolutionsas/transit-isochrones/internal/engineerr"
	"github.com/impactsolutionsas/transit-isochrones/internal/geo"
	"github.com/impactsolutionsas/transit-isochrones/internal/graph"
	"github.com/impactsolutionsas/transit-isochrones/internal/spatial"
)

// Params bundles the inputs to Extract beyond the reachability map
// itself.
type Params struct {
	Start              geo.Point
	DurationSec        uint32
	GridResolution     int
	MaxTransitSpeedKPH float64
}

// Extract builds the grid, contours it at level -duration, and
// returns the isochrone as a GeoJSON FeatureCollection of polygon
// features. An empty reachability map yields an empty, valid
// FeatureCollection rather than an error.
func Extract(g *graph.Graph, costs map[graph.NodeID]uint32, params Params) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()

	if len(costs) == 0 {
		return fc, nil
	}

	ids := make([]graph.NodeID, 0, len(costs))
	pts := make([]geo.Point, 0, len(costs))
	for id := range costs {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		ids = append(ids, id)
		pts = append(pts, n.Point())
	}
	reachIndex := spatial.New(ids, pts)

	extent := Extent(params.MaxTransitSpeedKPH, params.DurationSec)
	grid := BuildGrid(params.Start, extent, params.GridResolution, reachIndex, costs)

	level := -float64(params.DurationSec)
	for _, v := range grid.Values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: non-finite scalar in grid", engineerr.ErrIsolineFailure)
		}
	}

	rings := contours(grid, level)
	for _, ring := range rings {
		coords := make([][]float64, len(ring))
		for i, p := range ring {
			coords[i] = []float64{p.x, p.y}
		}
		feature := geojson.NewPolygonFeature([][][]float64{coords})
		fc.AddFeature(feature)
	}

	return fc, nil
}
