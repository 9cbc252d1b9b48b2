package centrality

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/gilchrisn/graph-centrality-service/pkg/graph"
)

// bruteForce computes both measures from an all-pairs distance matrix
// (Floyd-Warshall) and explicit pair dependencies. Path counts honour edge
// multiplicity; self-loops never lie on a shortest path. With weighted set,
// edge labels are the costs, otherwise every edge costs 1.
type bruteForce struct {
	n         int
	dist      [][]int // -1 when unreachable
	sigma     [][]float64
	closeness []float64
	rawBC     []float64
}

func newBruteForce(g *graph.Graph) *bruteForce {
	return computeBruteForce(g, false)
}

func newWeightedBruteForce(g *graph.Graph) *bruteForce {
	return computeBruteForce(g, true)
}

func computeBruteForce(g *graph.Graph, weighted bool) *bruteForce {
	n := g.NumNodes()
	bf := &bruteForce{n: n}

	cost := func(e graph.Edge) int {
		if weighted {
			return e.Weight
		}
		return 1
	}

	bf.dist = make([][]int, n)
	for u := 0; u < n; u++ {
		bf.dist[u] = make([]int, n)
		for v := range bf.dist[u] {
			bf.dist[u][v] = -1
		}
		bf.dist[u][u] = 0
	}
	for u := 0; u < n; u++ {
		for _, e := range g.Neighbors(u) {
			if e.To == u {
				continue
			}
			if d := bf.dist[u][e.To]; d < 0 || cost(e) < d {
				bf.dist[u][e.To] = cost(e)
			}
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if bf.dist[i][k] < 0 || bf.dist[k][j] < 0 {
					continue
				}
				through := bf.dist[i][k] + bf.dist[k][j]
				if bf.dist[i][j] < 0 || through < bf.dist[i][j] {
					bf.dist[i][j] = through
				}
			}
		}
	}

	// sigma[s][t] over targets in increasing distance; every tight edge
	// into t adds the count of its tail.
	bf.sigma = make([][]float64, n)
	for s := 0; s < n; s++ {
		bf.sigma[s] = make([]float64, n)
		bf.sigma[s][s] = 1

		var targets []int
		for t := 0; t < n; t++ {
			if t != s && bf.dist[s][t] > 0 {
				targets = append(targets, t)
			}
		}
		sort.Slice(targets, func(i, j int) bool { return bf.dist[s][targets[i]] < bf.dist[s][targets[j]] })

		for _, t := range targets {
			for u := 0; u < n; u++ {
				if u == t || bf.dist[s][u] < 0 {
					continue
				}
				for _, e := range g.Neighbors(u) {
					if e.To == t && bf.dist[s][u]+cost(e) == bf.dist[s][t] {
						bf.sigma[s][t] += bf.sigma[s][u]
					}
				}
			}
		}
	}

	bf.closeness = make([]float64, n)
	for s := 0; s < n; s++ {
		reach, total := 0, 0
		for t := 0; t < n; t++ {
			if bf.dist[s][t] >= 0 {
				reach++
				total += bf.dist[s][t]
			}
		}
		if total > 0 {
			bf.closeness[s] = float64(reach-1) / float64(total)
		}
	}

	bf.rawBC = make([]float64, n)
	for s := 0; s < n; s++ {
		for t := 0; t < n; t++ {
			if s == t || bf.dist[s][t] < 0 {
				continue
			}
			for v := 0; v < n; v++ {
				if v == s || v == t || bf.dist[s][v] < 0 || bf.dist[v][t] < 0 {
					continue
				}
				if bf.dist[s][v]+bf.dist[v][t] == bf.dist[s][t] {
					bf.rawBC[v] += bf.sigma[s][v] * bf.sigma[v][t] / bf.sigma[s][t]
				}
			}
		}
	}

	return bf
}

// randomGraph returns a graph with n nodes where each ordered pair gets an
// edge with probability p, a parallel duplicate with probability p/2 and
// each node a self-loop with probability p/2.
func randomGraph(rng *rand.Rand, n int, p float64) *graph.Graph {
	b := graph.NewBuilder()
	for i := 0; i < n; i++ {
		b.AddNode(fmt.Sprintf("n%d", i))
	}
	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			from, to := fmt.Sprintf("n%d", u), fmt.Sprintf("n%d", v)
			if u == v {
				if rng.Float64() < p/2 {
					b.AddEdge(from, to, 1)
				}
				continue
			}
			if rng.Float64() < p {
				b.AddEdge(from, to, rng.Intn(3)+1)
				if rng.Float64() < p/2 {
					b.AddEdge(from, to, 1)
				}
			}
		}
	}
	return b.Build()
}

// buildSimpleEdges returns the distinct non-loop edges of g.
func buildSimpleEdges(g *graph.Graph) [][2]int {
	seen := make(map[[2]int]bool)
	var out [][2]int
	for u := 0; u < g.NumNodes(); u++ {
		for _, e := range g.Neighbors(u) {
			key := [2]int{u, e.To}
			if e.To == u || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// fromPairs builds a graph whose node i is named "n<i>".
func fromPairs(n int, pairs [][2]int) *graph.Graph {
	b := graph.NewBuilder()
	for i := 0; i < n; i++ {
		b.AddNode(fmt.Sprintf("n%d", i))
	}
	for _, p := range pairs {
		b.AddEdge(fmt.Sprintf("n%d", p[0]), fmt.Sprintf("n%d", p[1]), 1)
	}
	return b.Build()
}
