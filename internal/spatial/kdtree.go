// Package spatial implements a small 2-D k-d tree keyed by [lon, lat],
// used to snap query coordinates to the nearest graph node and to
// value isoline grid cells against the nearest reachable node.
//
// No third-party k-d tree package turned up anywhere in the reference
// corpus (the original implementation used Rust's `kdtree` crate,
// which has no Go counterpart among the examples), so this is a
// from-scratch standard-library component; see DESIGN.md.
package spatial

import (
	"sort"

	"github.com/impactsolutionsas/transit-isochrones/internal/geo"
	"github.com/impactsolutionsas/transit-isochrones/internal/graph"
)

type item struct {
	point   geo.Point
	id      graph.NodeID
	left    *item
	right   *item
	axis    int // 0 = split on lon, 1 = split on lat
}

// Tree is an immutable-after-build 2-D k-d tree. It is safe for
// concurrent reads once New (or successive Insert calls during
// construction) has finished.
type Tree struct {
	root *item
	size int
}

// New builds a balanced tree from the given points in O(n log² n)
// (each level re-sorts its slice).
// Duplicate NodeIDs are tolerated: nearest-neighbor lookup returns
// whichever insertion is closer, and duplicate coordinates for the
// same NodeID simply waste a little space.
func New(points []graph.NodeID, coords []geo.Point) *Tree {
	entries := make([]item, len(points))
	for i := range points {
		entries[i] = item{point: coords[i], id: points[i]}
	}
	t := &Tree{size: len(entries)}
	t.root = build(entries, 0)
	return t
}

func build(entries []item, depth int) *item {
	if len(entries) == 0 {
		return nil
	}
	axis := depth % 2
	sort.Slice(entries, func(i, j int) bool {
		if axis == 0 {
			return entries[i].point.Lon < entries[j].point.Lon
		}
		return entries[i].point.Lat < entries[j].point.Lat
	})
	mid := len(entries) / 2
	node := entries[mid]
	node.axis = axis
	node.left = build(entries[:mid], depth+1)
	node.right = build(entries[mid+1:], depth+1)
	return &node
}

// Len returns the number of points held by the tree.
func (t *Tree) Len() int { return t.size }

// Insert adds a single point to the tree, supporting the builder's
// incremental-during-transit-ingest insertion order (street nodes
// batch-built first, stop nodes added one at a time as they're
// processed, so a later stop can snap to an earlier one). The tree is
// not rebalanced on insert; for the node counts a city-scale graph
// produces this stays well within practical depth.
func (t *Tree) Insert(id graph.NodeID, p geo.Point) {
	t.size++
	e := item{point: p, id: id}
	t.root = insertItem(t.root, e, 0)
}

func insertItem(n *item, e item, depth int) *item {
	if n == nil {
		e.axis = depth % 2
		leaf := e
		return &leaf
	}
	var goLeft bool
	if n.axis == 0 {
		goLeft = e.point.Lon < n.point.Lon
	} else {
		goLeft = e.point.Lat < n.point.Lat
	}
	if goLeft {
		n.left = insertItem(n.left, e, depth+1)
	} else {
		n.right = insertItem(n.right, e, depth+1)
	}
	return n
}

// Nearest returns the single nearest point to p by geodesic distance,
// satisfying the graph.NearestIndex contract.
func (t *Tree) Nearest(p geo.Point) (graph.NodeID, float64, bool) {
	results := t.NearestK(p, 1)
	if len(results) == 0 {
		return graph.NodeID{}, 0, false
	}
	return results[0].ID, results[0].Distance, true
}

// Result is one hit from a k-nearest-neighbor query.
type Result struct {
	ID       graph.NodeID
	Distance float64
}

// NearestK returns up to k nearest payloads to p using the haversine
// distance function, ordered nearest-first.
func (t *Tree) NearestK(p geo.Point, k int) []Result {
	if t.root == nil || k <= 0 {
		return nil
	}
	h := &resultHeap{}
	search(t.root, p, k, h)
	out := make([]Result, h.Len())
	// h is a max-heap by distance; draining gives furthest-first, so
	// reverse into nearest-first order.
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = popResultHeap(h)
	}
	return out
}

func search(n *item, target geo.Point, k int, h *resultHeap) {
	if n == nil {
		return
	}
	d := geo.Haversine(target, n.point)
	pushResultHeap(h, Result{ID: n.id, Distance: d}, k)

	var diff float64
	if n.axis == 0 {
		diff = target.Lon - n.point.Lon
	} else {
		diff = target.Lat - n.point.Lat
	}

	near, far := n.left, n.right
	if diff > 0 {
		near, far = n.right, n.left
	}
	search(near, target, k, h)

	// Only descend into the far side if it could still contain a point
	// closer than our current worst kept candidate. The perpendicular
	// distance from target to the splitting plane is the haversine
	// distance to target projected onto that plane.
	planeDist := geo.Haversine(target, planeProjection(target, n.point, n.axis))
	if h.Len() < k || planeDist <= h.worst() {
		search(far, target, k, h)
	}
}

func planeProjection(target, planePoint geo.Point, axis int) geo.Point {
	if axis == 0 {
		return geo.Point{Lon: planePoint.Lon, Lat: target.Lat}
	}
	return geo.Point{Lon: target.Lon, Lat: planePoint.Lat}
}
