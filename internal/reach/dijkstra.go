// Package reach implements the reverse time-dependent Dijkstra search:
// given an arrival coordinate, arrival time, and duration budget, it
// computes the minimum elapsed cost (seconds since the earliest
// possible departure) at which every reachable node can still make
// the arrival in time. Grounded on the teacher's container/heap-based
// A* (internal/routing/astar.go) for the heap shape, and on the
// original Rust dijkstra.rs for the time-dependent relaxation rules.
package reach

import (
	"container/heap"
	"fmt"

	"github.com/impactsolutionsas/transit-isochrones/internal/engineerr"
	"github.com/impactsolutionsas/transit-isochrones/internal/geo"
	"github.com/impactsolutionsas/transit-isochrones/internal/graph"
)

// Options configures one search. WalkingSpeedMPS and MaxStartDistanceM
// have canonical defaults of 1.0 m/s and 500 m respectively.
type Options struct {
	WalkingSpeedMPS   float64
	MaxStartDistanceM float64
}

// Result is the per-node elapsed-cost map produced by one search, plus
// the snapped start node and its own entry cost.
type Result struct {
	Costs     map[graph.NodeID]uint32
	StartNode graph.NodeID
}

type queueEntry struct {
	node  graph.NodeID
	cost  uint32
	index int
}

type priorityQueue []*queueEntry

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].cost != pq[j].cost {
		return pq[i].cost < pq[j].cost
	}
	return pq[i].node.Less(pq[j].node)
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *priorityQueue) Push(x any) {
	e := x.(*queueEntry)
	e.index = len(*pq)
	*pq = append(*pq, e)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return e
}

// Search runs the reverse time-dependent Dijkstra described in the
// specification. arrivalTime and duration are both in seconds;
// earliestDeparture = arrivalTime - duration. startCoords is the
// query's arrival location in [lon, lat] degrees.
func Search(g *graph.Graph, startCoords geo.Point, arrivalTime, duration uint32, opts Options) (*Result, error) {
	if opts.WalkingSpeedMPS <= 0 {
		opts.WalkingSpeedMPS = 1.0
	}
	if opts.MaxStartDistanceM <= 0 {
		opts.MaxStartDistanceM = 500.0
	}

	startNode, dist, ok := g.Index.Nearest(startCoords)
	if !ok {
		return nil, fmt.Errorf("%w: graph has no nodes to snap to", engineerr.ErrNoGraphNodes)
	}
	if dist > opts.MaxStartDistanceM {
		return nil, fmt.Errorf("%w: nearest node is %.1fm away", engineerr.ErrStartTooFar, dist)
	}

	earliestDeparture := int64(arrivalTime) - int64(duration)

	startCost := uint32(dist / opts.WalkingSpeedMPS)

	best := map[graph.NodeID]uint32{}
	pq := &priorityQueue{}
	heap.Init(pq)
	if startCost <= duration {
		best[startNode] = startCost
		heap.Push(pq, &queueEntry{node: startNode, cost: startCost})
	}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*queueEntry)
		if known, ok := best[cur.node]; ok && cur.cost > known {
			continue // stale entry, a better one was already settled
		}

		for _, e := range g.Neighbors(cur.node) {
			var candidate uint32
			switch edge := e.(type) {
			case *graph.WalkingEdge:
				var step uint32
				if edge.TraversalTime != nil {
					step = *edge.TraversalTime
				} else {
					fromNode, _ := g.Node(edge.From)
					toNode, _ := g.Node(edge.To)
					step = uint32(geo.Haversine(fromNode.Point(), toNode.Point()) / opts.WalkingSpeedMPS)
				}
				candidate = cur.cost + step
			case *graph.TransportEdge:
				if int64(edge.StartTime) < earliestDeparture+int64(cur.cost) {
					continue // the bus already left relative to the rider's position
				}
				candidate = uint32(int64(edge.EndTime) - earliestDeparture)
			default:
				continue
			}

			if candidate > duration {
				continue
			}
			dest := e.Destination()
			if known, ok := best[dest]; ok && known <= candidate {
				continue
			}
			best[dest] = candidate
			heap.Push(pq, &queueEntry{node: dest, cost: candidate})
		}
	}

	return &Result{Costs: best, StartNode: startNode}, nil
}
