package isoline

import "fmt"

// point2 is a planar lon/lat point used only during contour
// extraction, before GeoJSON encoding.
type point2 struct {
	x, y float64
}

type segment struct {
	a, b point2
}

// contours extracts closed polygon rings from the grid at the given
// level via marching squares. Each corner with value >= level is
// "inside"; linear interpolation locates the crossing point on each
// cut edge. The two saddle cases (5 and 10) resolve by the mean of the
// four corners, the standard simple tie-break.
func contours(g *Grid, level float64) [][]point2 {
	var segs []segment

	at := func(i, j int) float64 { return g.Values[j*g.Resolution+i] }
	coord := func(i, j int) point2 {
		return point2{x: g.MinLon + g.DLon*float64(i), y: g.MinLat + g.DLat*float64(j)}
	}
	interp := func(i1, j1 int, v1 float64, i2, j2 int, v2 float64) point2 {
		p1, p2 := coord(i1, j1), coord(i2, j2)
		if v1 == v2 {
			return point2{(p1.x + p2.x) / 2, (p1.y + p2.y) / 2}
		}
		t := (level - v1) / (v2 - v1)
		return point2{p1.x + t*(p2.x-p1.x), p1.y + t*(p2.y-p1.y)}
	}

	R := g.Resolution
	for j := 0; j < R-1; j++ {
		for i := 0; i < R-1; i++ {
			v00 := at(i, j)
			v10 := at(i+1, j)
			v01 := at(i, j+1)
			v11 := at(i+1, j+1)

			idx := 0
			if v00 >= level {
				idx |= 1
			}
			if v10 >= level {
				idx |= 2
			}
			if v11 >= level {
				idx |= 4
			}
			if v01 >= level {
				idx |= 8
			}
			if idx == 0 || idx == 15 {
				continue
			}

			bottom := func() point2 { return interp(i, j, v00, i+1, j, v10) }
			right := func() point2 { return interp(i+1, j, v10, i+1, j+1, v11) }
			top := func() point2 { return interp(i, j+1, v01, i+1, j+1, v11) }
			left := func() point2 { return interp(i, j, v00, i, j+1, v01) }
			mean := (v00 + v10 + v01 + v11) / 4

			switch idx {
			case 1, 14:
				segs = append(segs, segment{left(), bottom()})
			case 2, 13:
				segs = append(segs, segment{bottom(), right()})
			case 3, 12:
				segs = append(segs, segment{left(), right()})
			case 4, 11:
				segs = append(segs, segment{right(), top()})
			case 6, 9:
				segs = append(segs, segment{bottom(), top()})
			case 7, 8:
				segs = append(segs, segment{left(), top()})
			case 5:
				if mean >= level {
					segs = append(segs, segment{left(), top()}, segment{bottom(), right()})
				} else {
					segs = append(segs, segment{left(), bottom()}, segment{right(), top()})
				}
			case 10:
				if mean >= level {
					segs = append(segs, segment{left(), bottom()}, segment{right(), top()})
				} else {
					segs = append(segs, segment{bottom(), right()}, segment{left(), top()})
				}
			}
		}
	}

	return stitch(segs)
}

// stitch joins line segments sharing an endpoint (within tolerance)
// into closed rings. Segments left unclosed after one pass are
// dropped: they belong to contours clipped by the grid boundary, which
// the specification does not require we close artificially.
func stitch(segs []segment) [][]point2 {
	const tol = 1e-9
	keyOf := func(p point2) string { return fmt.Sprintf("%.9f,%.9f", p.x, p.y) }

	adjacency := make(map[string][]int) // point key -> segment indices touching it
	for idx, s := range segs {
		adjacency[keyOf(s.a)] = append(adjacency[keyOf(s.a)], idx)
		adjacency[keyOf(s.b)] = append(adjacency[keyOf(s.b)], idx)
	}

	used := make([]bool, len(segs))
	var rings [][]point2

	for start := range segs {
		if used[start] {
			continue
		}
		ring := []point2{segs[start].a, segs[start].b}
		used[start] = true

		for {
			last := ring[len(ring)-1]
			candidates := adjacency[keyOf(last)]
			advanced := false
			for _, idx := range candidates {
				if used[idx] {
					continue
				}
				s := segs[idx]
				if closeEnough(s.a, last, tol) {
					ring = append(ring, s.b)
					used[idx] = true
					advanced = true
					break
				}
				if closeEnough(s.b, last, tol) {
					ring = append(ring, s.a)
					used[idx] = true
					advanced = true
					break
				}
			}
			if !advanced {
				break
			}
			if closeEnough(ring[0], ring[len(ring)-1], tol) && len(ring) > 2 {
				break
			}
		}

		if len(ring) >= 3 && closeEnough(ring[0], ring[len(ring)-1], tol) {
			rings = append(rings, ring)
		}
	}

	return rings
}

func closeEnough(a, b point2, tol float64) bool {
	dx := a.x - b.x
	dy := a.y - b.y
	return dx*dx+dy*dy <= tol*tol*4
}
