package centrality

// AccumulateDependencies runs the reverse pass of Brandes' algorithm for
// one traversal and adds each non-source node's dependency into into.
// delta is scratch of length N; entries touched by the traversal are left
// zeroed on return so the slice can be reused for the next source.
func AccumulateDependencies(t *Traversal, delta, into []float64) {
	for i := len(t.Order) - 1; i >= 0; i-- {
		w := t.Order[i]
		// sigma[w] > 0 for every node on the finishing stack.
		for _, v := range t.Preds[w] {
			delta[v] += t.Sigma[v] / t.Sigma[w] * (1 + delta[w])
		}
		if w != t.Source {
			into[w] += delta[w]
		}
	}

	for _, w := range t.Order {
		delta[w] = 0
	}
}

// Normalize divides raw betweenness totals by (N-1)(N-2), the number of
// ordered pairs of other nodes. Graphs with N <= 2 have no such pairs and
// score zero everywhere.
func Normalize(raw []float64) []float64 {
	n := len(raw)
	out := make([]float64, n)
	if n <= 2 {
		return out
	}

	scale := float64(n-1) * float64(n-2)
	for i, v := range raw {
		out[i] = v / scale
	}
	return out
}
