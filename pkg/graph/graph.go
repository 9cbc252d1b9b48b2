package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownNode is returned when an edge endpoint is outside [0, NumNodes).
	ErrUnknownNode = errors.New("edge references unknown node")
	// ErrDuplicateNode is returned when two indices share one identity.
	ErrDuplicateNode = errors.New("duplicate node identity")
)

// Edge is an outgoing edge. Weight carries the record label (for reddit
// hyperlinks the link sentiment) and is informational in unit mode.
type Edge struct {
	To     int `json:"to"`
	Weight int `json:"weight"`
}

// Graph is a directed multigraph over dense integer node indices.
// It is read-only once built and safe to share across goroutines.
type Graph struct {
	names    []string       // names[i] = identity of node i
	index    map[string]int // identity -> node index
	adj      [][]Edge       // adj[i] = outgoing edges of node i, insertion order
	numEdges int
}

// FromAdjacency wraps raw index data without checking it. Call Validate
// before handing the result to an algorithm.
func FromAdjacency(names []string, adj [][]Edge) *Graph {
	g := &Graph{
		names: names,
		index: make(map[string]int, len(names)),
		adj:   adj,
	}
	for i, name := range names {
		if _, exists := g.index[name]; !exists {
			g.index[name] = i
		}
	}
	for _, edges := range adj {
		g.numEdges += len(edges)
	}
	return g
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.names) }

// NumEdges returns the number of edges, parallel edges counted separately.
func (g *Graph) NumEdges() int { return g.numEdges }

// Neighbors returns the outgoing edges of node. The slice must not be modified.
func (g *Graph) Neighbors(node int) []Edge {
	if node < 0 || node >= len(g.adj) {
		return nil
	}
	return g.adj[node]
}

// Name returns the identity of node.
func (g *Graph) Name(node int) string {
	return g.names[node]
}

// Index returns the index assigned to name.
func (g *Graph) Index(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Names returns node identities in index order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// MinWeight returns the smallest edge weight and false when the graph has no edges.
func (g *Graph) MinWeight() (int, bool) {
	found := false
	min := 0
	for _, edges := range g.adj {
		for _, e := range edges {
			if !found || e.Weight < min {
				min = e.Weight
				found = true
			}
		}
	}
	return min, found
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	if len(g.adj) != len(g.names) {
		return fmt.Errorf("adjacency has %d rows for %d nodes: %w", len(g.adj), len(g.names), ErrUnknownNode)
	}

	seen := make(map[string]int, len(g.names))
	for i, name := range g.names {
		if prev, exists := seen[name]; exists {
			return fmt.Errorf("%q at indices %d and %d: %w", name, prev, i, ErrDuplicateNode)
		}
		seen[name] = i
	}

	for i, edges := range g.adj {
		for j, e := range edges {
			if e.To < 0 || e.To >= len(g.names) {
				return fmt.Errorf("edge %d of node %d (%s) targets %d, graph has %d nodes: %w",
					j, i, g.names[i], e.To, len(g.names), ErrUnknownNode)
			}
		}
	}

	return nil
}
