package workflow

// Edge is a directed connection between two nodes, optionally guarded
// by a condition. A nil condition means the edge is always taken.
type Edge struct {
	Source    string
	Target    string
	Condition *Condition
}

// ConditionalEdge creates an edge guarded by a condition
func ConditionalEdge(source, target string, cond *Condition) *Edge {
	return &Edge{Source: source, Target: target, Condition: cond}
}

// SimpleEdge creates an unconditional edge
func SimpleEdge(source, target string) *Edge {
	return &Edge{Source: source, Target: target}
}

func (e *Edge) clone() *Edge {
	return &Edge{Source: e.Source, Target: e.Target, Condition: e.Condition.clone()}
}
