package route

import "container/heap"

// openItem is an entry of the A* open set.
type openItem struct {
	node  Node
	key   Key
	f     float64
	seq   uint64
	index int
}

// openQueue is a min-heap on f. Equal f values pop in insertion order.
type openQueue []*openItem

func (q openQueue) Len() int { return len(q) }

func (q openQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}

func (q openQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *openQueue) Push(x any) {
	it := x.(*openItem)
	it.index = len(*q)
	*q = append(*q, it)
}

func (q *openQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*q = old[:n-1]
	return it
}

// openSet pairs the heap with key membership.
type openSet struct {
	q       openQueue
	members map[Key]*openItem
	nextSeq uint64
}

func newOpenSet() *openSet {
	return &openSet{members: make(map[Key]*openItem)}
}

func (s *openSet) Len() int { return s.q.Len() }

func (s *openSet) push(n Node, k Key, f float64) {
	it := &openItem{node: n, key: k, f: f, seq: s.nextSeq}
	s.nextSeq++
	heap.Push(&s.q, it)
	s.members[k] = it
}

func (s *openSet) pop() *openItem {
	it := heap.Pop(&s.q).(*openItem)
	delete(s.members, it.key)
	return it
}

// update re-prioritizes an open member, keeping its insertion sequence.
func (s *openSet) update(it *openItem, f float64) {
	it.f = f
	heap.Fix(&s.q, it.index)
}
