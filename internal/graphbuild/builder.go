// Package graphbuild stages the construction of the multimodal graph:
// street ingest, transit ingest, then finalize. This mirrors the
// teacher's Builder in internal/graph/builder.go (nodes, then edges,
// then analyze) but is driven from decoded file inputs instead of a
// Postgres connection, since this engine holds no persistent store.
package graphbuild

import (
	"fmt"

	"github.com/impactsolutionsas/transit-isochrones/internal/engineerr"
	"github.com/impactsolutionsas/transit-isochrones/internal/geo"
	"github.com/impactsolutionsas/transit-isochrones/internal/graph"
	"github.com/impactsolutionsas/transit-isochrones/internal/spatial"
)

// RawStreetNode is one decoded node element from the street-network
// dump, tags intact so the builder (not the decoder) applies the
// acceptance rules.
type RawStreetNode struct {
	ID   int64
	Lon  float64
	Lat  float64
	Tags map[string]string
}

// RawStreetWay is one decoded way element: an ordered list of node
// references plus its tags.
type RawStreetWay struct {
	NodeIDs []int64
	Tags    map[string]string
}

// RawStop is one decoded transit stop.
type RawStop struct {
	ID  string
	Lon float64
	Lat float64
}

// PathwayDirection distinguishes a unidirectional pathway (one edge)
// from a bidirectional one (two edges).
type PathwayDirection int

const (
	Unidirectional PathwayDirection = iota
	Bidirectional
)

// RawPathway is a declared walkable connection between two stops.
type RawPathway struct {
	FromStop      string
	ToStop        string
	Direction     PathwayDirection
	TraversalTime *uint32
}

// RawStopTime is one row of a trip's ordered stop sequence.
type RawStopTime struct {
	StopID        string
	Sequence      int
	ArrivalTime   uint32
	DepartureTime uint32
}

// RawTrip groups a trip's stop-times in sequence order.
type RawTrip struct {
	ID        string
	StopTimes []RawStopTime
}

// Builder accumulates nodes and edges across the street and transit
// ingest stages. It is not re-entrant: call LoadStreetNetwork, then
// LoadTransit, then Finalize, exactly once each.
type Builder struct {
	walkingSpeedMPS float64

	nodes     map[graph.NodeID]graph.Node
	adjacency map[graph.NodeID][]graph.Edge
	streetIdx *spatial.Tree
}

// New creates a Builder. walkingSpeedMPS must be > 0 (the
// specification's canonical value is 1.0).
func New(walkingSpeedMPS float64) *Builder {
	return &Builder{
		walkingSpeedMPS: walkingSpeedMPS,
		nodes:           make(map[graph.NodeID]graph.Node),
		adjacency:       make(map[graph.NodeID][]graph.Edge),
	}
}

func (b *Builder) addNode(id graph.NodeID, n graph.Node) {
	if _, exists := b.nodes[id]; !exists {
		b.nodes[id] = n
	}
}

func (b *Builder) addEdge(e graph.Edge) {
	from := e.Origin()
	b.adjacency[from] = append(b.adjacency[from], e)
}

// LoadStreetNetwork ingests street nodes and ways, filters them per
// the specification's acceptance rules, prunes nodes left with no
// outgoing edges, and builds the intermediate street spatial index
// transit ingest snaps stops against.
func (b *Builder) LoadStreetNetwork(nodes []RawStreetNode, ways []RawStreetWay) error {
	if len(nodes) == 0 {
		return fmt.Errorf("%w: street network has no nodes", engineerr.ErrIngest)
	}

	coords := make(map[int64]geo.Point, len(nodes))
	for _, n := range nodes {
		if !isWalkableNode(n.Tags) {
			continue
		}
		coords[n.ID] = geo.Point{Lon: n.Lon, Lat: n.Lat}
		b.addNode(graph.StreetID(n.ID), graph.Node{Lon: n.Lon, Lat: n.Lat})
	}

	for _, w := range ways {
		if !isWalkableWay(w.Tags) {
			continue
		}
		for i := 0; i+1 < len(w.NodeIDs); i++ {
			a, c := w.NodeIDs[i], w.NodeIDs[i+1]
			if _, ok := coords[a]; !ok {
				continue
			}
			if _, ok := coords[c]; !ok {
				continue
			}
			aID, cID := graph.StreetID(a), graph.StreetID(c)
			b.addEdge(&graph.WalkingEdge{From: aID, To: cID})
			b.addEdge(&graph.WalkingEdge{From: cID, To: aID})
		}
	}

	b.pruneEdgelessNodes()

	var ids []graph.NodeID
	var pts []geo.Point
	for id, n := range b.nodes {
		ids = append(ids, id)
		pts = append(pts, geo.Point{Lon: n.Lon, Lat: n.Lat})
	}
	b.streetIdx = spatial.New(ids, pts)

	return nil
}

func (b *Builder) pruneEdgelessNodes() {
	for id := range b.nodes {
		if len(b.adjacency[id]) == 0 {
			delete(b.nodes, id)
			delete(b.adjacency, id)
		}
	}
}

// LoadTransit ingests stops, their pathways, and trip stop-time
// sequences. Must be called after LoadStreetNetwork. Every stop gets a
// bidirectional walking connection to the nearest node in the snapping
// index, which holds the surviving street nodes plus every stop
// processed before it; every pathway becomes one or two walking edges; every
// consecutive stop-time pair in a trip becomes one TransportEdge.
func (b *Builder) LoadTransit(stops []RawStop, pathways []RawPathway, trips []RawTrip) error {
	if b.streetIdx == nil {
		return fmt.Errorf("%w: LoadTransit called before LoadStreetNetwork", engineerr.ErrIngest)
	}

	for _, s := range stops {
		if s.ID == "" {
			return fmt.Errorf("%w: stop with empty id", engineerr.ErrIngest)
		}
		stopID := graph.StopID(s.ID)
		b.addNode(stopID, graph.Node{Lon: s.Lon, Lat: s.Lat})

		nearestID, dist, ok := b.streetIdx.Nearest(geo.Point{Lon: s.Lon, Lat: s.Lat})
		if ok {
			traversal := uint32(dist / b.walkingSpeedMPS)
			b.addEdge(&graph.WalkingEdge{From: stopID, To: nearestID, TraversalTime: &traversal})
			b.addEdge(&graph.WalkingEdge{From: nearestID, To: stopID, TraversalTime: &traversal})
		}

		b.streetIdx.Insert(stopID, geo.Point{Lon: s.Lon, Lat: s.Lat})
	}

	for _, p := range pathways {
		if p.FromStop == "" || p.ToStop == "" {
			return fmt.Errorf("%w: pathway with missing stop reference", engineerr.ErrIngest)
		}
		from, to := graph.StopID(p.FromStop), graph.StopID(p.ToStop)
		b.addEdge(&graph.WalkingEdge{From: from, To: to, TraversalTime: p.TraversalTime})
		if p.Direction == Bidirectional {
			b.addEdge(&graph.WalkingEdge{From: to, To: from, TraversalTime: p.TraversalTime})
		}
	}

	for _, trip := range trips {
		for i := 0; i+1 < len(trip.StopTimes); i++ {
			a, c := trip.StopTimes[i], trip.StopTimes[i+1]
			if a.StopID == "" || c.StopID == "" {
				return fmt.Errorf("%w: trip %s has a stop-time with no stop id", engineerr.ErrIngest, trip.ID)
			}
			b.addEdge(&graph.TransportEdge{
				From:      graph.StopID(a.StopID),
				To:        graph.StopID(c.StopID),
				StartTime: a.DepartureTime,
				EndTime:   c.ArrivalTime,
			})
		}
	}

	return nil
}

// Finalize prunes any node still left with no outgoing edges (stops
// whose nearest-street lookup failed and which have no pathway or
// trip connection), rebuilds the spatial index over every surviving
// node, and returns the immutable graph.
func (b *Builder) Finalize() (*graph.Graph, error) {
	b.pruneEdgelessNodes()

	if len(b.nodes) == 0 {
		return nil, fmt.Errorf("%w: graph has no nodes after pruning", engineerr.ErrNoGraphNodes)
	}

	ids := make([]graph.NodeID, 0, len(b.nodes))
	pts := make([]geo.Point, 0, len(b.nodes))
	for id, n := range b.nodes {
		ids = append(ids, id)
		pts = append(pts, geo.Point{Lon: n.Lon, Lat: n.Lat})
	}
	idx := spatial.New(ids, pts)

	return &graph.Graph{
		Nodes:     b.nodes,
		Adjacency: b.adjacency,
		Index:     idx,
	}, nil
}
