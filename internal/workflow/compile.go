package workflow

import (
	"fmt"
	"regexp"
)

// DefectCode classifies a compile defect
type DefectCode string

const (
	DefectNoEntry          DefectCode = "no-entry"
	DefectUnknownEntry     DefectCode = "unknown-entry"
	DefectUnknownNode      DefectCode = "unknown-node"
	DefectDuplicateName    DefectCode = "duplicate-name"
	DefectBadKind          DefectCode = "bad-kind"
	DefectNoOutgoing       DefectCode = "no-outgoing"
	DefectTerminalOutgoing DefectCode = "terminal-outgoing"
	DefectUnreachable      DefectCode = "unreachable"
	DefectNoTermination    DefectCode = "no-termination"
	DefectExtraDefault     DefectCode = "extra-default"
	DefectAmbiguousRoute   DefectCode = "ambiguous-route"
	DefectBadPattern       DefectCode = "bad-pattern"
)

// Defect is a single validation finding. Compilation reports every
// defect it finds in one pass rather than stopping at the first.
type Defect struct {
	Code    DefectCode
	Node    string
	Message string
}

func (d Defect) String() string {
	if d.Node == "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s: node %q: %s", d.Code, d.Node, d.Message)
}

// CompiledGraph is the validated, immutable execution form of a Graph.
// It is created only by Compile and is safe for concurrent read-only
// use across runs of the same workflow definition. Any edit to the
// source graph requires re-compilation.
type CompiledGraph struct {
	entry string
	order []string
	nodes map[string]*Node
	adj   map[string][]*Edge
}

// Entry returns the entry node name
func (cg *CompiledGraph) Entry() string {
	return cg.entry
}

// Node looks up a node by name
func (cg *CompiledGraph) Node(name string) (*Node, bool) {
	n, ok := cg.nodes[name]
	return n, ok
}

// Nodes returns the nodes in declared order
func (cg *CompiledGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(cg.order))
	for _, name := range cg.order {
		out = append(out, cg.nodes[name])
	}
	return out
}

// Edges returns the outgoing edges of the named node in declared order
func (cg *CompiledGraph) Edges(name string) []*Edge {
	return cg.adj[name]
}

// Len returns the number of nodes
func (cg *CompiledGraph) Len() int {
	return len(cg.order)
}

// Compile validates g and produces its immutable execution form, or an
// ordered list of defects (never both). Compilation is deterministic
// and side-effect free. Cycles are permitted - the run engine's step
// limit is the safety net - but a node with no path to any terminal at
// all is a defect.
func Compile(g *Graph) (*CompiledGraph, []Defect) {
	var defects []Defect
	report := func(code DefectCode, node, format string, args ...any) {
		defects = append(defects, Defect{Code: code, Node: node, Message: fmt.Sprintf(format, args...)})
	}

	nodes := g.Nodes()
	edges := g.AllEdges()

	byName := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		if !n.Kind.Valid() {
			report(DefectBadKind, n.Name, "unknown node kind %q", n.Kind)
		}
		if _, dup := byName[n.Name]; dup {
			report(DefectDuplicateName, n.Name, "node name declared more than once")
			continue
		}
		byName[n.Name] = n
	}

	entry := g.Entry()
	entryOK := true
	if entry == "" {
		report(DefectNoEntry, "", "no entry node designated")
		entryOK = false
	} else if _, ok := byName[entry]; !ok {
		report(DefectUnknownEntry, entry, "entry node is not part of the graph")
		entryOK = false
	}

	// Adjacency over edges whose endpoints both exist; dangling edges
	// are defects and excluded from traversal.
	adj := make(map[string][]*Edge)
	for _, e := range edges {
		valid := true
		if _, ok := byName[e.Source]; !ok {
			report(DefectUnknownNode, e.Source, "edge source does not exist")
			valid = false
		}
		if _, ok := byName[e.Target]; !ok {
			report(DefectUnknownNode, e.Target, "edge target of %q does not exist", e.Source)
			valid = false
		}
		if valid {
			adj[e.Source] = append(adj[e.Source], e)
		}
	}

	for _, n := range nodes {
		out := adj[n.Name]
		if n.Kind == KindTerminal {
			if len(out) > 0 {
				report(DefectTerminalOutgoing, n.Name, "terminal node has %d outgoing edge(s)", len(out))
			}
			continue
		}
		if len(out) == 0 {
			report(DefectNoOutgoing, n.Name, "non-terminal node has no outgoing edge")
		}
	}

	// Routing soundness per source: at most one default edge, condition
	// signatures pairwise distinct, patterns must compile.
	for _, n := range nodes {
		out := adj[n.Name]
		seen := make(map[string]bool, len(out))
		defaults := 0
		for _, e := range out {
			if e.Condition.IsDefault() {
				defaults++
				if defaults > 1 {
					report(DefectExtraDefault, n.Name, "more than one default edge")
				}
				continue
			}
			sig := e.Condition.Signature()
			if seen[sig] {
				report(DefectAmbiguousRoute, n.Name, "duplicate condition %s", e.Condition)
			}
			seen[sig] = true
			if e.Condition.Op == CondMatches {
				if _, err := regexp.Compile(e.Condition.Value); err != nil {
					report(DefectBadPattern, n.Name, "invalid pattern %q: %v", e.Condition.Value, err)
				}
			}
		}
	}

	// Reachability from entry
	if entryOK {
		reached := map[string]bool{entry: true}
		queue := []string{entry}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, e := range adj[cur] {
				if !reached[e.Target] {
					reached[e.Target] = true
					queue = append(queue, e.Target)
				}
			}
		}
		for _, n := range nodes {
			if !reached[n.Name] {
				report(DefectUnreachable, n.Name, "not reachable from entry %q", entry)
			}
		}
	}

	// Path to termination: reverse search from every terminal node
	rev := make(map[string][]string)
	for src, out := range adj {
		for _, e := range out {
			rev[e.Target] = append(rev[e.Target], src)
		}
	}
	terminates := make(map[string]bool)
	var queue []string
	for _, n := range nodes {
		if n.Kind == KindTerminal {
			terminates[n.Name] = true
			queue = append(queue, n.Name)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, src := range rev[cur] {
			if !terminates[src] {
				terminates[src] = true
				queue = append(queue, src)
			}
		}
	}
	for _, n := range nodes {
		if !terminates[n.Name] {
			report(DefectNoTermination, n.Name, "no path to any terminal node")
		}
	}

	if len(defects) > 0 {
		return nil, defects
	}

	cg := &CompiledGraph{
		entry: entry,
		order: make([]string, 0, len(nodes)),
		nodes: make(map[string]*Node, len(nodes)),
		adj:   make(map[string][]*Edge, len(adj)),
	}
	for _, n := range nodes {
		cg.order = append(cg.order, n.Name)
		cg.nodes[n.Name] = n.clone()
	}
	for src, out := range adj {
		cloned := make([]*Edge, len(out))
		for i, e := range out {
			cloned[i] = e.clone()
			_ = cloned[i].Condition.compile() // patterns already validated
		}
		cg.adj[src] = cloned
	}
	return cg, nil
}
