package graph

// Builder assigns indices to identities in first-seen order and collects
// edges. Parallel edges and self-loops are stored as given.
type Builder struct {
	g     *Graph
	built bool
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		g: &Graph{index: make(map[string]int)},
	}
}

// AddNode returns the index of name, assigning the next unused one if needed.
func (b *Builder) AddNode(name string) int {
	if b.built {
		panic("graph: AddNode after Build")
	}
	if i, ok := b.g.index[name]; ok {
		return i
	}
	i := len(b.g.names)
	b.g.names = append(b.g.names, name)
	b.g.index[name] = i
	b.g.adj = append(b.g.adj, nil)
	return i
}

// AddEdge records source -> target with the given weight.
func (b *Builder) AddEdge(source, target string, weight int) {
	u := b.AddNode(source)
	v := b.AddNode(target)
	b.g.adj[u] = append(b.g.adj[u], Edge{To: v, Weight: weight})
	b.g.numEdges++
}

// Build finalizes the graph. The builder must not be used afterwards.
func (b *Builder) Build() *Graph {
	b.built = true
	return b.g
}
