package reach

import (
	"testing"

	"github.com/impactsolutionsas/transit-isochrones/internal/engineerr"
	"github.com/impactsolutionsas/transit-isochrones/internal/geo"
	"github.com/impactsolutionsas/transit-isochrones/internal/graph"
	"github.com/impactsolutionsas/transit-isochrones/internal/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(nodes map[graph.NodeID]graph.Node, adjacency map[graph.NodeID][]graph.Edge) *graph.Graph {
	ids := make([]graph.NodeID, 0, len(nodes))
	pts := make([]geo.Point, 0, len(nodes))
	for id, n := range nodes {
		ids = append(ids, id)
		pts = append(pts, n.Point())
	}
	return &graph.Graph{Nodes: nodes, Adjacency: adjacency, Index: spatial.New(ids, pts)}
}

// Scenario 1/2 from spec.md §8: two street nodes connected by a
// bidirectional walking way with no declared traversal time.
func twoNodeWalkingGraph() *graph.Graph {
	a := graph.StreetID(1)
	b := graph.StreetID(2)
	nodes := map[graph.NodeID]graph.Node{
		a: {Lon: 0, Lat: 0},
		b: {Lon: 0.001, Lat: 0},
	}
	adjacency := map[graph.NodeID][]graph.Edge{
		a: {&graph.WalkingEdge{From: a, To: b}},
		b: {&graph.WalkingEdge{From: b, To: a}},
	}
	return buildGraph(nodes, adjacency)
}

func TestScenario1Duration200(t *testing.T) {
	g := twoNodeWalkingGraph()
	res, err := Search(g, geo.Point{Lon: 0, Lat: 0}, 12*3600, 200, Options{WalkingSpeedMPS: 1.0})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Costs[graph.StreetID(1)])
	cost, ok := res.Costs[graph.StreetID(2)]
	require.True(t, ok)
	assert.InDelta(t, 111, cost, 2)
}

func TestScenario2Duration50ExcludesB(t *testing.T) {
	g := twoNodeWalkingGraph()
	res, err := Search(g, geo.Point{Lon: 0, Lat: 0}, 12*3600, 50, Options{WalkingSpeedMPS: 1.0})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Costs[graph.StreetID(1)])
	_, ok := res.Costs[graph.StreetID(2)]
	assert.False(t, ok)
}

// Scenario 3/4: A and B connected only by a TransportEdge departing
// 11:59:00 and arriving 11:59:30, queried with arrival 12:00:00.
func transportOnlyGraph() *graph.Graph {
	a := graph.StopID("A")
	b := graph.StopID("B")
	nodes := map[graph.NodeID]graph.Node{
		a: {Lon: 0, Lat: 0},
		b: {Lon: 0.01, Lat: 0},
	}
	adjacency := map[graph.NodeID][]graph.Edge{
		a: {&graph.TransportEdge{From: a, To: b, StartTime: 11*3600 + 59*60, EndTime: 11*3600 + 59*60 + 30}},
	}
	return buildGraph(nodes, adjacency)
}

func TestScenario3Duration120ReachesB(t *testing.T) {
	g := transportOnlyGraph()
	arrival := uint32(12 * 3600)
	res, err := Search(g, geo.Point{Lon: 0, Lat: 0}, arrival, 120, Options{WalkingSpeedMPS: 1.0})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Costs[graph.StopID("A")])
	// earliest_departure = 12:00:00 - 120s = 11:58:00; the segment ends
	// at 11:59:30, so elapsed = end_time - earliest_departure = 90s.
	assert.Equal(t, uint32(90), res.Costs[graph.StopID("B")])
}

func TestScenario4Duration30MissesBus(t *testing.T) {
	g := transportOnlyGraph()
	arrival := uint32(12 * 3600)
	res, err := Search(g, geo.Point{Lon: 0, Lat: 0}, arrival, 30, Options{WalkingSpeedMPS: 1.0})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), res.Costs[graph.StopID("A")])
	_, ok := res.Costs[graph.StopID("B")]
	assert.False(t, ok)
}

func TestScenario5StartTooFar(t *testing.T) {
	g := twoNodeWalkingGraph()
	_, err := Search(g, geo.Point{Lon: 1, Lat: 1}, 12*3600, 200, Options{WalkingSpeedMPS: 1.0})
	assert.ErrorIs(t, err, engineerr.ErrStartTooFar)
}

func TestBudgetContainment(t *testing.T) {
	g := twoNodeWalkingGraph()
	res, err := Search(g, geo.Point{Lon: 0, Lat: 0}, 12*3600, 200, Options{WalkingSpeedMPS: 1.0})
	require.NoError(t, err)
	for _, cost := range res.Costs {
		assert.LessOrEqual(t, cost, uint32(200))
	}
}

// Walking idempotence: on a walking-only graph with fixed traversal
// times, the result should match a classical shortest-path computation
// with those same weights (here verified by hand on a small triangle).
func TestWalkingIdempotenceTriangle(t *testing.T) {
	a, b, c := graph.StreetID(1), graph.StreetID(2), graph.StreetID(3)
	tt := func(v uint32) *uint32 { return &v }
	nodes := map[graph.NodeID]graph.Node{
		a: {Lon: 0, Lat: 0},
		b: {Lon: 0.001, Lat: 0},
		c: {Lon: 0.002, Lat: 0},
	}
	adjacency := map[graph.NodeID][]graph.Edge{
		a: {&graph.WalkingEdge{From: a, To: b, TraversalTime: tt(50)}, &graph.WalkingEdge{From: a, To: c, TraversalTime: tt(200)}},
		b: {&graph.WalkingEdge{From: b, To: c, TraversalTime: tt(50)}, &graph.WalkingEdge{From: b, To: a, TraversalTime: tt(50)}},
		c: {&graph.WalkingEdge{From: c, To: a, TraversalTime: tt(200)}, &graph.WalkingEdge{From: c, To: b, TraversalTime: tt(50)}},
	}
	g := buildGraph(nodes, adjacency)

	res, err := Search(g, geo.Point{Lon: 0, Lat: 0}, 1000, 500, Options{WalkingSpeedMPS: 1.0})
	require.NoError(t, err)
	// shortest path a->c is via b: 50+50=100, not the direct 200 edge.
	assert.Equal(t, uint32(100), res.Costs[c])
}
