package centrality

// ClosenessOf returns (R-1)/S for a traversal that reached R nodes with a
// total distance S, or 0 when the source reaches nothing else. Scores are
// relative to the source's reachable set and are not comparable in
// magnitude across components of different size.
func ClosenessOf(t *Traversal) float64 {
	total := t.DistanceSum()
	if total <= 0 {
		return 0
	}
	return float64(t.Reachable()-1) / total
}
