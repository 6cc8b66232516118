package planner

import "container/heap"

// entry is one open-set record. Ties on key are broken by insertion order.
type entry struct {
	id  int32
	key float64
	seq uint64
}

// entryHeap implements heap.Interface for the open set.
type entryHeap []entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].key != h[j].key {
		return h[i].key < h[j].key
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(entry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[0 : n-1]
	return e
}

// openQueue is a push-on-discover priority queue. A node may be queued more
// than once; callers skip entries that are stale or already closed.
type openQueue struct {
	h   entryHeap
	seq uint64
}

func (q *openQueue) Len() int { return q.h.Len() }

func (q *openQueue) push(id int32, key float64) {
	heap.Push(&q.h, entry{id: id, key: key, seq: q.seq})
	q.seq++
}

func (q *openQueue) pop() entry {
	return heap.Pop(&q.h).(entry)
}
