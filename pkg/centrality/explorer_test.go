package centrality

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/gilchrisn/graph-centrality-service/pkg/graph"
)

type testEdge struct {
	from, to string
	weight   int
}

// buildGraph adds nodes first (in the given order) and then the edges.
func buildGraph(nodes []string, edges ...testEdge) *graph.Graph {
	b := graph.NewBuilder()
	for _, n := range nodes {
		b.AddNode(n)
	}
	for _, e := range edges {
		w := e.weight
		if w == 0 {
			w = 1
		}
		b.AddEdge(e.from, e.to, w)
	}
	return b.Build()
}

func idx(t *testing.T, g *graph.Graph, name string) int {
	t.Helper()
	i, ok := g.Index(name)
	require.True(t, ok, "node %s", name)
	return i
}

func TestDistance(t *testing.T) {
	d := Unreached()
	assert.False(t, d.Reached())
	_, ok := d.Value()
	assert.False(t, ok)

	d = At(0)
	v, ok := d.Value()
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
	assert.True(t, d.Reached())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeUnit, m)

	m, err = ParseMode("weighted")
	require.NoError(t, err)
	assert.Equal(t, ModeWeighted, m)

	_, err = ParseMode("hops")
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestBFSDiamond(t *testing.T) {
	// s -> a -> t, s -> b -> t, t -> u
	g := buildGraph([]string{"s", "a", "b", "t", "u", "lonely"},
		testEdge{"s", "a", 1}, testEdge{"s", "b", 1},
		testEdge{"a", "t", 1}, testEdge{"b", "t", 1},
		testEdge{"t", "u", 1},
	)
	e, err := NewExplorer(g, ModeUnit)
	require.NoError(t, err)

	tr := e.Explore(idx(t, g, "s"))
	assert.Equal(t, 5, tr.Reachable())
	assert.Equal(t, DistanceMap{
		idx(t, g, "s"): 0,
		idx(t, g, "a"): 1,
		idx(t, g, "b"): 1,
		idx(t, g, "t"): 2,
		idx(t, g, "u"): 3,
	}, tr.DistanceMap())
	assert.Equal(t, 1+1+2+3.0, tr.DistanceSum())

	assert.Equal(t, 2.0, tr.Sigma[idx(t, g, "t")])
	assert.Equal(t, 2.0, tr.Sigma[idx(t, g, "u")])
	assert.ElementsMatch(t, []int{idx(t, g, "a"), idx(t, g, "b")}, tr.Preds[idx(t, g, "t")])
	assert.False(t, tr.Dist[idx(t, g, "lonely")].Reached())
	assert.Equal(t, idx(t, g, "s"), tr.Order[0])

	// Finishing order is non-decreasing in distance.
	prev := -1.0
	for _, v := range tr.Order {
		d, ok := tr.Dist[v].Value()
		require.True(t, ok)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestBFSSelfLoopAndParallelEdges(t *testing.T) {
	g := buildGraph(nil,
		testEdge{"a", "a", 1},
		testEdge{"a", "b", 1},
		testEdge{"a", "b", 1},
		testEdge{"b", "b", 1},
		testEdge{"b", "c", 1},
	)
	e, err := NewExplorer(g, ModeUnit)
	require.NoError(t, err)

	tr := e.Explore(idx(t, g, "a"))
	d, _ := tr.Dist[idx(t, g, "a")].Value()
	assert.Equal(t, 0.0, d)
	assert.Equal(t, 1.0, tr.Sigma[idx(t, g, "a")])
	assert.Empty(t, tr.Preds[idx(t, g, "a")])

	// Each parallel edge is a distinct shortest path.
	assert.Equal(t, 2.0, tr.Sigma[idx(t, g, "b")])
	assert.Equal(t, []int{0, 0}, tr.Preds[idx(t, g, "b")])
	assert.Equal(t, 2.0, tr.Sigma[idx(t, g, "c")])
}

func TestBFSIsolatedSource(t *testing.T) {
	g := buildGraph([]string{"x"}, testEdge{"a", "b", 1})
	e, err := NewExplorer(g, ModeUnit)
	require.NoError(t, err)

	tr := e.Explore(idx(t, g, "x"))
	assert.Equal(t, DistanceMap{idx(t, g, "x"): 0}, tr.DistanceMap())
	assert.Equal(t, 1, tr.Reachable())
}

func TestExplorerReuseResetsState(t *testing.T) {
	g := buildGraph(nil,
		testEdge{"a", "b", 1}, testEdge{"b", "c", 1}, testEdge{"d", "c", 1},
	)
	for _, mode := range []Mode{ModeUnit, ModeWeighted} {
		t.Run(string(mode), func(t *testing.T) {
			e, err := NewExplorer(g, mode)
			require.NoError(t, err)

			first := e.Explore(idx(t, g, "a")).DistanceMap()
			assert.Len(t, first, 3)

			tr := e.Explore(idx(t, g, "d"))
			assert.Equal(t, DistanceMap{idx(t, g, "d"): 0, idx(t, g, "c"): 1}, tr.DistanceMap())
			assert.Equal(t, 0.0, tr.Sigma[idx(t, g, "a")])
			assert.Equal(t, 0.0, tr.Sigma[idx(t, g, "b")])
			assert.Equal(t, []int{idx(t, g, "d")}, tr.Preds[idx(t, g, "c")])

			again := e.Explore(idx(t, g, "a")).DistanceMap()
			assert.Equal(t, first, again)
		})
	}
}

func TestNewExplorerRejectsBadWeights(t *testing.T) {
	tests := []struct {
		name   string
		weight int
		want   error
	}{
		{"negative", -1, ErrNegativeWeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(nil, testEdge{"a", "b", 2}, testEdge{"b", "c", tt.weight})
			_, err := NewExplorer(g, ModeWeighted)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			// Unit mode ignores labels entirely.
			_, err = NewExplorer(g, ModeUnit)
			assert.NoError(t, err)
		})
	}

	zero := graph.FromAdjacency([]string{"a", "b"}, [][]graph.Edge{{{To: 1, Weight: 0}}, nil})
	_, err := NewExplorer(zero, ModeWeighted)
	assert.True(t, errors.Is(err, ErrZeroWeight), "got %v", err)

	_, err = NewExplorer(zero, Mode("bellman-ford"))
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestDijkstraPathCounts(t *testing.T) {
	// Two cost-4 routes to t and a cheaper-looking but longer one.
	g := buildGraph(nil,
		testEdge{"s", "a", 1}, testEdge{"a", "t", 3},
		testEdge{"s", "b", 2}, testEdge{"b", "t", 2},
		testEdge{"s", "t", 5},
		testEdge{"t", "t", 1},
		testEdge{"t", "u", 1},
	)
	e, err := NewExplorer(g, ModeWeighted)
	require.NoError(t, err)

	tr := e.Explore(idx(t, g, "s"))
	d, ok := tr.Dist[idx(t, g, "t")].Value()
	require.True(t, ok)
	assert.Equal(t, 4.0, d)
	assert.Equal(t, 2.0, tr.Sigma[idx(t, g, "t")])
	assert.ElementsMatch(t, []int{idx(t, g, "a"), idx(t, g, "b")}, tr.Preds[idx(t, g, "t")])
	assert.Equal(t, 2.0, tr.Sigma[idx(t, g, "u")])
	assert.Equal(t, 5, tr.Reachable())
}

func TestDijkstraMatchesGonum(t *testing.T) {
	edges := []testEdge{
		{"a", "b", 7}, {"a", "c", 9}, {"a", "f", 14},
		{"b", "c", 10}, {"b", "d", 15},
		{"c", "d", 11}, {"c", "f", 2},
		{"d", "e", 6}, {"f", "e", 9}, {"e", "g", 1},
	}
	g := buildGraph([]string{"a", "b", "c", "d", "e", "f", "g", "h"}, edges...)

	ref := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for i := 0; i < g.NumNodes(); i++ {
		ref.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		ref.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(idx(t, g, e.from)),
			T: simple.Node(idx(t, g, e.to)),
			W: float64(e.weight),
		})
	}

	explorer, err := NewExplorer(g, ModeWeighted)
	require.NoError(t, err)
	for s := 0; s < g.NumNodes(); s++ {
		tr := explorer.Explore(s)
		shortest := path.DijkstraFrom(simple.Node(s), ref)
		for v := 0; v < g.NumNodes(); v++ {
			want := shortest.WeightTo(int64(v))
			got, ok := tr.Dist[v].Value()
			if math.IsInf(want, 1) {
				assert.False(t, ok, "source %d target %d", s, v)
				continue
			}
			require.True(t, ok, "source %d target %d", s, v)
			assert.Equal(t, want, got, "source %d target %d", s, v)
		}
	}
}

func TestBFSMatchesGonumHopDistances(t *testing.T) {
	edges := []testEdge{
		{"a", "b", -1}, {"b", "c", 1}, {"c", "a", 1},
		{"c", "d", -1}, {"d", "e", 1}, {"a", "e", 1}, {"f", "a", 1},
	}
	g := buildGraph(nil, edges...)

	ref := simple.NewDirectedGraph()
	for i := 0; i < g.NumNodes(); i++ {
		ref.AddNode(simple.Node(i))
	}
	for _, e := range edges {
		ref.SetEdge(simple.Edge{F: simple.Node(idx(t, g, e.from)), T: simple.Node(idx(t, g, e.to))})
	}

	explorer, err := NewExplorer(g, ModeUnit)
	require.NoError(t, err)
	for s := 0; s < g.NumNodes(); s++ {
		tr := explorer.Explore(s)
		shortest := path.DijkstraFrom(simple.Node(s), ref)
		for v := 0; v < g.NumNodes(); v++ {
			want := shortest.WeightTo(int64(v))
			got, ok := tr.Dist[v].Value()
			if math.IsInf(want, 1) {
				assert.False(t, ok)
				continue
			}
			assert.Equal(t, want, got, "source %d target %d", s, v)
		}
	}
}
