package reach

import (
	"testing"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dijkstra"
	"github.com/stretchr/testify/require"

	"github.com/impactsolutionsas/transit-isochrones/internal/geo"
	"github.com/impactsolutionsas/transit-isochrones/internal/graph"
)

// TestWalkingOnlyAgreesWithLvlath cross-checks the reverse search
// against an independent shortest-path implementation on a walking-only
// graph, where elapsed-time reachability reduces to plain shortest
// paths with fixed edge weights.
func TestWalkingOnlyAgreesWithLvlath(t *testing.T) {
	a, b, c, d := graph.StreetID(1), graph.StreetID(2), graph.StreetID(3), graph.StreetID(4)
	tt := func(v uint32) *uint32 { return &v }

	nodes := map[graph.NodeID]graph.Node{
		a: {Lon: 0, Lat: 0},
		b: {Lon: 0.001, Lat: 0},
		c: {Lon: 0.002, Lat: 0},
		d: {Lon: 0.003, Lat: 0},
	}
	adjacency := map[graph.NodeID][]graph.Edge{
		a: {&graph.WalkingEdge{From: a, To: b, TraversalTime: tt(40)}, &graph.WalkingEdge{From: a, To: c, TraversalTime: tt(150)}},
		b: {&graph.WalkingEdge{From: b, To: a, TraversalTime: tt(40)}, &graph.WalkingEdge{From: b, To: c, TraversalTime: tt(60)}, &graph.WalkingEdge{From: b, To: d, TraversalTime: tt(300)}},
		c: {&graph.WalkingEdge{From: c, To: a, TraversalTime: tt(150)}, &graph.WalkingEdge{From: c, To: b, TraversalTime: tt(60)}, &graph.WalkingEdge{From: c, To: d, TraversalTime: tt(20)}},
		d: {&graph.WalkingEdge{From: d, To: b, TraversalTime: tt(300)}, &graph.WalkingEdge{From: d, To: c, TraversalTime: tt(20)}},
	}
	g := buildGraph(nodes, adjacency)

	res, err := Search(g, geo.Point{Lon: 0, Lat: 0}, 1000, 1000, Options{WalkingSpeedMPS: 1.0})
	require.NoError(t, err)

	// Build the same weighted graph in lvlath's representation and run
	// its Dijkstra from the same source, for an independent answer.
	lg := core.NewGraph(core.WithWeighted(), core.WithDirected(true))
	for _, id := range []graph.NodeID{a, b, c, d} {
		require.NoError(t, lg.AddVertex(id.String()))
	}
	for from, edges := range adjacency {
		for _, e := range edges {
			we := e.(*graph.WalkingEdge)
			_, err := lg.AddEdge(from.String(), we.To.String(), int64(*we.TraversalTime))
			require.NoError(t, err)
		}
	}

	dist, _, err := dijkstra.Dijkstra(lg, dijkstra.Source(a.String()))
	require.NoError(t, err)

	for _, id := range []graph.NodeID{a, b, c, d} {
		want := dist[id.String()]
		got, ok := res.Costs[id]
		require.True(t, ok, "node %s should be reachable", id)
		require.Equal(t, want, int64(got), "node %s cost mismatch", id)
	}
}
