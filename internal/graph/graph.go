// Package graph holds the multimodal street+transit graph: nodes,
// the tagged Edge variants, and the immutable Graph container that the
// builder produces and the search package consumes.
package graph

import (
	"fmt"

	"github.com/impactsolutionsas/transit-isochrones/internal/geo"
)

// NodeKind distinguishes the two disjoint identifier namespaces a
// NodeID can come from. Keeping this as an explicit tag (rather than
// concatenating the two namespaces into one string) keeps NodeID a
// cheap, directly comparable map key.
type NodeKind uint8

const (
	NodeKindStreet NodeKind = iota
	NodeKindStop
)

// NodeID identifies a graph node. Exactly one of Street/Stop is
// meaningful, selected by Kind. NodeID is comparable and usable
// directly as a map key.
type NodeID struct {
	Kind   NodeKind
	Street int64
	Stop   string
}

// StreetID builds a NodeID for a street-network node.
func StreetID(id int64) NodeID { return NodeID{Kind: NodeKindStreet, Street: id} }

// StopID builds a NodeID for a transit stop.
func StopID(id string) NodeID { return NodeID{Kind: NodeKindStop, Stop: id} }

func (n NodeID) String() string {
	if n.Kind == NodeKindStop {
		return "stop:" + n.Stop
	}
	return fmt.Sprintf("street:%d", n.Street)
}

// Less gives a deterministic ordering over NodeIDs: by kind, then by
// the inner value of that kind. Used only to break heap ties.
func (n NodeID) Less(other NodeID) bool {
	if n.Kind != other.Kind {
		return n.Kind < other.Kind
	}
	if n.Kind == NodeKindStop {
		return n.Stop < other.Stop
	}
	return n.Street < other.Street
}

// Node is a point on the Earth's surface. Created once at ingest,
// never mutated afterward.
type Node struct {
	Lon float64
	Lat float64
}

func (n Node) Point() geo.Point { return geo.Point{Lon: n.Lon, Lat: n.Lat} }

// Edge is a sum type over WalkingEdge and TransportEdge. Keeping the
// two as distinct implementing types (rather than one flat struct with
// nullable timing fields) means relaxation code switches on the
// variant instead of guessing from field presence.
type Edge interface {
	Origin() NodeID
	Destination() NodeID
	isEdge()
}

// WalkingEdge is time-independent: it may be traversed at any clock
// time. When TraversalTime is nil the cost is computed on demand from
// geodesic distance and the configured walking speed.
type WalkingEdge struct {
	From          NodeID
	To            NodeID
	TraversalTime *uint32 // seconds; nil means "compute from distance"
}

func (e *WalkingEdge) Origin() NodeID      { return e.From }
func (e *WalkingEdge) Destination() NodeID { return e.To }
func (e *WalkingEdge) isEdge()             {}

// TransportEdge represents one scheduled segment of one trip: a rider
// boards at From no earlier than StartTime and arrives at To at
// exactly EndTime. Both are seconds past local midnight.
type TransportEdge struct {
	From      NodeID
	To        NodeID
	StartTime uint32
	EndTime   uint32
}

func (e *TransportEdge) Origin() NodeID      { return e.From }
func (e *TransportEdge) Destination() NodeID { return e.To }
func (e *TransportEdge) isEdge()             {}

// NearestIndex is the read-only contract the search and isoline
// packages need from a spatial index, satisfied by *spatial.Tree.
type NearestIndex interface {
	Nearest(p geo.Point) (id NodeID, dist float64, ok bool)
}

// Graph is the immutable, read-only multimodal graph produced by the
// builder. Once Finalize has run, every field is safe to read from any
// number of goroutines without synchronization.
type Graph struct {
	Nodes     map[NodeID]Node
	Adjacency map[NodeID][]Edge
	Index     NearestIndex
}

// Neighbors returns the outgoing edges of id, or nil if id has none.
func (g *Graph) Neighbors(id NodeID) []Edge {
	return g.Adjacency[id]
}

// Node looks up a node's coordinates.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}
