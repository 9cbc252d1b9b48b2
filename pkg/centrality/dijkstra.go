package centrality

import (
	"container/heap"

	"github.com/gilchrisn/graph-centrality-service/pkg/graph"
)

type frontierItem struct {
	node int
	dist float64
}

// frontier is a min-heap on tentative distance with lazy deletion.
type frontier []frontierItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].dist != f[j].dist {
		return f[i].dist < f[j].dist
	}
	return f[i].node < f[j].node
}
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x interface{}) { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() interface{} {
	old := *f
	item := old[len(old)-1]
	*f = old[:len(old)-1]
	return item
}

// dijkstraExplorer is the weighted explorer. NewExplorer guarantees every
// weight is positive, so a settled node's path count is final.
type dijkstraExplorer struct {
	g       *graph.Graph
	t       *Traversal
	settled []bool
	pq      frontier
}

func newDijkstraExplorer(g *graph.Graph) *dijkstraExplorer {
	n := g.NumNodes()
	return &dijkstraExplorer{
		g:       g,
		t:       newTraversal(n),
		settled: make([]bool, n),
	}
}

func (e *dijkstraExplorer) Explore(source int) *Traversal {
	t := e.t
	for _, v := range t.Order {
		e.settled[v] = false
	}
	t.reset(source)
	t.Dist[source] = At(0)
	t.Sigma[source] = 1

	e.pq = append(e.pq[:0], frontierItem{node: source, dist: 0})
	for e.pq.Len() > 0 {
		item := heap.Pop(&e.pq).(frontierItem)
		v := item.node
		if e.settled[v] {
			continue
		}
		e.settled[v] = true
		t.Order = append(t.Order, v)

		for _, edge := range e.g.Neighbors(v) {
			w := edge.To
			if e.settled[w] {
				continue
			}
			nd := item.dist + float64(edge.Weight)
			dw, reached := t.Dist[w].Value()
			switch {
			case !reached || nd < dw:
				t.Dist[w] = At(nd)
				t.Sigma[w] = t.Sigma[v]
				t.Preds[w] = append(t.Preds[w][:0], v)
				heap.Push(&e.pq, frontierItem{node: w, dist: nd})
			case nd == dw:
				t.Sigma[w] += t.Sigma[v]
				t.Preds[w] = append(t.Preds[w], v)
			}
		}
	}

	return t
}
