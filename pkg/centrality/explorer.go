package centrality

import (
	"errors"
	"fmt"

	"github.com/gilchrisn/graph-centrality-service/pkg/graph"
)

var (
	// ErrNegativeWeight is returned when weighted mode meets a negative edge weight.
	ErrNegativeWeight = errors.New("negative edge weight")
	// ErrZeroWeight is returned when weighted mode meets a zero edge weight.
	ErrZeroWeight = errors.New("zero edge weight")
	// ErrUnknownMode is returned for an unrecognized explorer mode.
	ErrUnknownMode = errors.New("unknown explorer mode")
)

// Mode selects the shortest-path step cost.
type Mode string

const (
	// ModeUnit treats every edge as one hop regardless of its label.
	ModeUnit Mode = "unit"
	// ModeWeighted uses edge labels as step costs (Dijkstra).
	ModeWeighted Mode = "weighted"
)

// ParseMode parses a mode name; the empty string means ModeUnit.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeUnit:
		return ModeUnit, nil
	case ModeWeighted:
		return ModeWeighted, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownMode)
	}
}

// Distance is a distance from the traversal source that may be undefined.
type Distance struct {
	value   float64
	reached bool
}

// Unreached is the distance of a node the traversal has not discovered.
func Unreached() Distance { return Distance{} }

// At returns a defined distance.
func At(v float64) Distance { return Distance{value: v, reached: true} }

// Value returns the distance and whether it is defined.
func (d Distance) Value() (float64, bool) { return d.value, d.reached }

// Reached reports whether the distance is defined.
func (d Distance) Reached() bool { return d.reached }

// DistanceMap maps node index to distance from a fixed source. Only
// reachable nodes have entries.
type DistanceMap map[int]float64

// Traversal is the single-source shortest-path state.
type Traversal struct {
	Source int
	Dist   []Distance
	Sigma  []float64 // number of shortest paths from Source
	Preds  [][]int   // predecessors on shortest paths, one entry per edge
	Order  []int     // nodes in finishing order, Source first
}

// Reachable returns the number of nodes reached, Source included.
func (t *Traversal) Reachable() int { return len(t.Order) }

// DistanceSum returns the sum of distances over reached nodes.
func (t *Traversal) DistanceSum() float64 {
	sum := 0.0
	for _, v := range t.Order {
		d, _ := t.Dist[v].Value()
		sum += d
	}
	return sum
}

// DistanceMap copies the reached distances into a fresh map.
func (t *Traversal) DistanceMap() DistanceMap {
	m := make(DistanceMap, len(t.Order))
	for _, v := range t.Order {
		d, _ := t.Dist[v].Value()
		m[v] = d
	}
	return m
}

// Explorer runs single-source traversals over one graph. An Explorer reuses
// its buffers, so the returned Traversal is only valid until the next call
// and an Explorer must not be shared between goroutines.
type Explorer interface {
	Explore(source int) *Traversal
}

// NewExplorer returns an explorer for g in the given mode. Weighted mode
// rejects negative weights and also refuses zero weights on purpose, since a
// zero-cost edge makes the finishing order unusable for path counting.
func NewExplorer(g *graph.Graph, mode Mode) (Explorer, error) {
	switch mode {
	case ModeUnit, "":
		return newBFSExplorer(g), nil
	case ModeWeighted:
		if err := checkWeights(g); err != nil {
			return nil, err
		}
		return newDijkstraExplorer(g), nil
	default:
		return nil, fmt.Errorf("%q: %w", mode, ErrUnknownMode)
	}
}

func checkWeights(g *graph.Graph) error {
	if min, ok := g.MinWeight(); !ok || min > 0 {
		return nil
	}
	for u := 0; u < g.NumNodes(); u++ {
		for _, e := range g.Neighbors(u) {
			switch {
			case e.Weight < 0:
				return fmt.Errorf("edge %s -> %s has weight %d: %w", g.Name(u), g.Name(e.To), e.Weight, ErrNegativeWeight)
			case e.Weight == 0:
				return fmt.Errorf("edge %s -> %s: %w", g.Name(u), g.Name(e.To), ErrZeroWeight)
			}
		}
	}
	return nil
}

func newTraversal(n int) *Traversal {
	return &Traversal{
		Dist:  make([]Distance, n),
		Sigma: make([]float64, n),
		Preds: make([][]int, n),
		Order: make([]int, 0, n),
	}
}

// reset clears only the entries touched by the previous traversal.
func (t *Traversal) reset(source int) {
	for _, v := range t.Order {
		t.Dist[v] = Unreached()
		t.Sigma[v] = 0
		t.Preds[v] = t.Preds[v][:0]
	}
	t.Order = t.Order[:0]
	t.Source = source
}

// bfsExplorer is the unit-cost explorer.
type bfsExplorer struct {
	g     *graph.Graph
	t     *Traversal
	queue []int
}

func newBFSExplorer(g *graph.Graph) *bfsExplorer {
	n := g.NumNodes()
	return &bfsExplorer{
		g:     g,
		t:     newTraversal(n),
		queue: make([]int, 0, n),
	}
}

func (e *bfsExplorer) Explore(source int) *Traversal {
	t := e.t
	t.reset(source)
	t.Dist[source] = At(0)
	t.Sigma[source] = 1

	queue := append(e.queue[:0], source)
	for head := 0; head < len(queue); head++ {
		v := queue[head]
		t.Order = append(t.Order, v)
		dv, _ := t.Dist[v].Value()

		for _, edge := range e.g.Neighbors(v) {
			w := edge.To
			if !t.Dist[w].Reached() {
				t.Dist[w] = At(dv + 1)
				queue = append(queue, w)
			}
			// A self-loop lands here with dw == dv and is skipped.
			if dw, _ := t.Dist[w].Value(); dw == dv+1 {
				t.Sigma[w] += t.Sigma[v]
				t.Preds[w] = append(t.Preds[w], v)
			}
		}
	}
	e.queue = queue

	return t
}
