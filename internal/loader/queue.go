package loader

// requestQueue is a max-heap over pending requests: highest priority
// first, FIFO by arrival sequence within a priority.
type requestQueue []*request

func (q requestQueue) Len() int { return len(q) }

func (q requestQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q requestQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *requestQueue) Push(x any) {
	*q = append(*q, x.(*request))
}

func (q *requestQueue) Pop() any {
	old := *q
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return r
}
