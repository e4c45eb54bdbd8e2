package workflow

// NodeKind identifies the behavior of a node. The set is closed: the
// executor dispatches over these kinds at compile time rather than
// through a runtime registry.
type NodeKind string

const (
	// KindAIPrompt renders a prompt template against the run context and
	// sends it to the AI backend. The reply is stored under the node name.
	KindAIPrompt NodeKind = "ai-prompt"

	// KindTransform renders a template against the run context without
	// calling the backend. Used for static text assembly.
	KindTransform NodeKind = "transform"

	// KindRouter performs deterministic branching. It calls no backend
	// and writes nothing; its edge conditions inspect context keys.
	KindRouter NodeKind = "router"

	// KindTerminal produces the final output and stops the run.
	KindTerminal NodeKind = "terminal"
)

// Valid reports whether k is a known node kind
func (k NodeKind) Valid() bool {
	switch k {
	case KindAIPrompt, KindTransform, KindRouter, KindTerminal:
		return true
	}
	return false
}

// Node is a unit of work in the workflow graph
type Node struct {
	// Name uniquely identifies the node within a graph
	Name string

	// Kind selects the node behavior
	Kind NodeKind

	// Prompt is the template for ai-prompt and transform nodes, and the
	// optional final-output template for terminal nodes. Placeholders of
	// the form {{key}} are substituted with context values.
	Prompt string

	// Config carries optional static per-node configuration
	Config map[string]any
}

func (n *Node) clone() *Node {
	c := *n
	if n.Config != nil {
		c.Config = make(map[string]any, len(n.Config))
		for k, v := range n.Config {
			c.Config[k] = v
		}
	}
	return &c
}
