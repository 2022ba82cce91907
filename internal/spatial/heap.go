package spatial

// resultHeap is a small fixed-capacity max-heap over Result.Distance,
// used to keep the k best (smallest-distance) candidates seen so far
// during a nearest-neighbor descent.
type resultHeap struct {
	items []Result
}

func (h *resultHeap) Len() int { return len(h.items) }

func (h *resultHeap) worst() float64 {
	if len(h.items) == 0 {
		return 0
	}
	return h.items[0].Distance
}

func pushResultHeap(h *resultHeap, r Result, k int) {
	if len(h.items) < k {
		h.items = append(h.items, r)
		up(h.items, len(h.items)-1)
		return
	}
	if r.Distance < h.items[0].Distance {
		h.items[0] = r
		down(h.items, 0)
	}
}

func popResultHeap(h *resultHeap) Result {
	top := h.items[0]
	last := len(h.items) - 1
	h.items[0] = h.items[last]
	h.items = h.items[:last]
	if len(h.items) > 0 {
		down(h.items, 0)
	}
	return top
}

func up(items []Result, i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if items[parent].Distance >= items[i].Distance {
			break
		}
		items[parent], items[i] = items[i], items[parent]
		i = parent
	}
}

func down(items []Result, i int) {
	n := len(items)
	for {
		left := 2*i + 1
		right := 2*i + 2
		largest := i
		if left < n && items[left].Distance > items[largest].Distance {
			largest = left
		}
		if right < n && items[right].Distance > items[largest].Distance {
			largest = right
		}
		if largest == i {
			break
		}
		items[i], items[largest] = items[largest], items[i]
		i = largest
	}
}
