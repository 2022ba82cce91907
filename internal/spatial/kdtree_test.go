package spatial

import (
	"math/rand"
	"testing"

	"github.com/impactsolutionsas/transit-isochrones/internal/geo"
	"github.com/impactsolutionsas/transit-isochrones/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestExactMatch(t *testing.T) {
	ids := []graph.NodeID{graph.StreetID(1), graph.StreetID(2), graph.StopID("a")}
	coords := []geo.Point{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 5, Lat: 5}}
	tree := New(ids, coords)

	id, dist, ok := tree.Nearest(geo.Point{Lon: 1, Lat: 1})
	require.True(t, ok)
	assert.Equal(t, graph.StreetID(2), id)
	assert.InDelta(t, 0.0, dist, 1e-6)
}

func TestNearestAgreesWithBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 200
	ids := make([]graph.NodeID, n)
	coords := make([]geo.Point, n)
	for i := 0; i < n; i++ {
		ids[i] = graph.StreetID(int64(i))
		coords[i] = geo.Point{
			Lon: rng.Float64()*0.2 - 0.1,
			Lat: rng.Float64()*0.2 - 0.1,
		}
	}
	tree := New(ids, coords)

	for q := 0; q < 25; q++ {
		target := geo.Point{Lon: rng.Float64()*0.2 - 0.1, Lat: rng.Float64()*0.2 - 0.1}

		bestIdx := 0
		bestDist := geo.Haversine(target, coords[0])
		for i := 1; i < n; i++ {
			d := geo.Haversine(target, coords[i])
			if d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}

		gotID, gotDist, ok := tree.Nearest(target)
		require.True(t, ok)
		assert.Equal(t, ids[bestIdx], gotID)
		assert.InDelta(t, bestDist, gotDist, 1e-6)
	}
}

func TestNearestKOrdering(t *testing.T) {
	ids := []graph.NodeID{graph.StreetID(1), graph.StreetID(2), graph.StreetID(3)}
	coords := []geo.Point{{Lon: 0, Lat: 0}, {Lon: 0.01, Lat: 0}, {Lon: 0.02, Lat: 0}}
	tree := New(ids, coords)

	results := tree.NearestK(geo.Point{Lon: 0, Lat: 0}, 3)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

func TestNearestEmptyTree(t *testing.T) {
	tree := New(nil, nil)
	_, _, ok := tree.Nearest(geo.Point{Lon: 0, Lat: 0})
	assert.False(t, ok)
}
