package workflow

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound is returned when a node lookup fails
var ErrNodeNotFound = errors.New("node not found")

// Graph is the editable workflow representation. It is pure structural
// bookkeeping: nodes, edges in declared order, and a designated entry.
// Soundness is checked by Compile, not here; duplicate names and
// dangling edge references are permitted until compilation.
type Graph struct {
	nodes []*Node
	edges []*Edge
	entry string
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{}
}

// AddNode appends a node to the graph
func (g *Graph) AddNode(n *Node) {
	g.nodes = append(g.nodes, n)
}

// RemoveNode removes the named node and every edge touching it
func (g *Graph) RemoveNode(name string) {
	nodes := g.nodes[:0]
	for _, n := range g.nodes {
		if n.Name != name {
			nodes = append(nodes, n)
		}
	}
	g.nodes = nodes

	edges := g.edges[:0]
	for _, e := range g.edges {
		if e.Source != name && e.Target != name {
			edges = append(edges, e)
		}
	}
	g.edges = edges
}

// AddEdge appends an edge. Edges sharing a source keep their declared
// order; the engine evaluates conditions in that order.
func (g *Graph) AddEdge(e *Edge) {
	g.edges = append(g.edges, e)
}

// RemoveEdge removes all edges from source to target
func (g *Graph) RemoveEdge(source, target string) {
	edges := g.edges[:0]
	for _, e := range g.edges {
		if e.Source != source || e.Target != target {
			edges = append(edges, e)
		}
	}
	g.edges = edges
}

// SetEntry designates the entry node
func (g *Graph) SetEntry(name string) {
	g.entry = name
}

// Entry returns the designated entry node name
func (g *Graph) Entry() string {
	return g.entry
}

// Node looks up a node by name
func (g *Graph) Node(name string) (*Node, error) {
	for _, n := range g.nodes {
		if n.Name == name {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
}

// Nodes returns the nodes in declared order
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns the outgoing edges of source in declared order
func (g *Graph) Edges(source string) []*Edge {
	var out []*Edge
	for _, e := range g.edges {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}

// AllEdges returns every edge in declared order
func (g *Graph) AllEdges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}
