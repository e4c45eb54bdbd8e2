package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifierGraph() *Graph {
	g := NewGraph()
	g.AddNode(&Node{Name: "start", Kind: KindAIPrompt, Prompt: "Classify: {{input}}"})
	g.AddNode(&Node{Name: "classify", Kind: KindRouter})
	g.AddNode(&Node{Name: "terminal_spam", Kind: KindTerminal})
	g.AddNode(&Node{Name: "terminal_ham", Kind: KindTerminal})
	g.AddEdge(SimpleEdge("start", "classify"))
	g.AddEdge(ConditionalEdge("classify", "terminal_spam", EqualsKey("start", "SPAM")))
	g.AddEdge(ConditionalEdge("classify", "terminal_ham", Default()))
	g.SetEntry("start")
	return g
}

func codes(defects []Defect) []DefectCode {
	out := make([]DefectCode, len(defects))
	for i, d := range defects {
		out[i] = d.Code
	}
	return out
}

func TestCompileValidGraph(t *testing.T) {
	cg, defects := Compile(classifierGraph())
	require.Empty(t, defects)
	require.NotNil(t, cg)

	assert.Equal(t, "start", cg.Entry())
	assert.Equal(t, 4, cg.Len())

	out := cg.Edges("classify")
	require.Len(t, out, 2)
	assert.Equal(t, "terminal_spam", out[0].Target)
	assert.True(t, out[1].Condition.IsDefault())
}

func TestCompileNeverReturnsBoth(t *testing.T) {
	g := classifierGraph()
	g.RemoveNode("terminal_spam")
	g.RemoveNode("terminal_ham")
	cg, defects := Compile(g)
	assert.Nil(t, cg)
	assert.NotEmpty(t, defects)
}

func TestCompileImmutableSnapshot(t *testing.T) {
	g := classifierGraph()
	cg, defects := Compile(g)
	require.Empty(t, defects)

	// Edits after compilation must not leak into the compiled form.
	n, err := g.Node("start")
	require.NoError(t, err)
	n.Prompt = "changed"
	g.RemoveNode("terminal_ham")

	cn, ok := cg.Node("start")
	require.True(t, ok)
	assert.Equal(t, "Classify: {{input}}", cn.Prompt)
	_, ok = cg.Node("terminal_ham")
	assert.True(t, ok)
}

func TestCompileNoEntry(t *testing.T) {
	g := classifierGraph()
	g.SetEntry("")
	_, defects := Compile(g)
	assert.Contains(t, codes(defects), DefectNoEntry)
}

func TestCompileUnknownEntry(t *testing.T) {
	g := classifierGraph()
	g.SetEntry("nope")
	_, defects := Compile(g)
	assert.Contains(t, codes(defects), DefectUnknownEntry)
}

func TestCompileDanglingEdge(t *testing.T) {
	g := classifierGraph()
	g.AddEdge(SimpleEdge("classify", "ghost"))
	cg, defects := Compile(g)
	assert.Nil(t, cg)
	assert.Contains(t, codes(defects), DefectUnknownNode)
}

func TestCompileDuplicateName(t *testing.T) {
	g := classifierGraph()
	g.AddNode(&Node{Name: "start", Kind: KindTransform, Prompt: "x"})
	_, defects := Compile(g)
	assert.Contains(t, codes(defects), DefectDuplicateName)
}

func TestCompileBadKind(t *testing.T) {
	g := classifierGraph()
	g.AddNode(&Node{Name: "odd", Kind: NodeKind("widget")})
	g.AddEdge(SimpleEdge("classify", "odd"))
	g.AddEdge(SimpleEdge("odd", "terminal_ham"))
	_, defects := Compile(g)
	assert.Contains(t, codes(defects), DefectBadKind)
}

func TestCompileSingleNonTerminalEntry(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{Name: "lonely", Kind: KindAIPrompt, Prompt: "x"})
	g.SetEntry("lonely")
	_, defects := Compile(g)

	found := false
	for _, d := range defects {
		if d.Code == DefectNoOutgoing && d.Node == "lonely" {
			found = true
		}
	}
	assert.True(t, found, "expected no-outgoing defect naming the node, got %v", defects)
}

func TestCompileTerminalOutgoing(t *testing.T) {
	g := classifierGraph()
	g.AddEdge(SimpleEdge("terminal_spam", "terminal_ham"))
	_, defects := Compile(g)
	assert.Contains(t, codes(defects), DefectTerminalOutgoing)
}

func TestCompileUnreachable(t *testing.T) {
	g := classifierGraph()
	g.AddNode(&Node{Name: "island", Kind: KindTransform, Prompt: "x"})
	g.AddEdge(SimpleEdge("island", "terminal_ham"))
	_, defects := Compile(g)

	found := false
	for _, d := range defects {
		if d.Code == DefectUnreachable && d.Node == "island" {
			found = true
		}
	}
	assert.True(t, found, "expected unreachable defect for island, got %v", defects)
}

func TestCompileCycleWithoutTermination(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{Name: "a", Kind: KindTransform, Prompt: "x"})
	g.AddNode(&Node{Name: "b", Kind: KindTransform, Prompt: "y"})
	g.AddEdge(SimpleEdge("a", "b"))
	g.AddEdge(SimpleEdge("b", "a"))
	g.SetEntry("a")

	cg, defects := Compile(g)
	assert.Nil(t, cg)
	assert.Contains(t, codes(defects), DefectNoTermination)
}

func TestCompileCycleWithEscapeIsValid(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{Name: "a", Kind: KindTransform, Prompt: "x"})
	g.AddNode(&Node{Name: "b", Kind: KindTransform, Prompt: "y"})
	g.AddNode(&Node{Name: "done", Kind: KindTerminal})
	g.AddEdge(SimpleEdge("a", "b"))
	g.AddEdge(ConditionalEdge("b", "done", Contains("stop")))
	g.AddEdge(ConditionalEdge("b", "a", Default()))
	g.SetEntry("a")

	cg, defects := Compile(g)
	assert.Empty(t, defects)
	assert.NotNil(t, cg)
}

func TestCompileExtraDefault(t *testing.T) {
	g := classifierGraph()
	g.AddEdge(ConditionalEdge("classify", "terminal_spam", Default()))
	_, defects := Compile(g)
	assert.Contains(t, codes(defects), DefectExtraDefault)
}

func TestCompileAmbiguousRoute(t *testing.T) {
	g := classifierGraph()
	g.AddEdge(ConditionalEdge("classify", "terminal_ham", EqualsKey("start", "SPAM")))
	_, defects := Compile(g)
	assert.Contains(t, codes(defects), DefectAmbiguousRoute)
}

func TestCompileBadPattern(t *testing.T) {
	g := classifierGraph()
	g.RemoveEdge("classify", "terminal_spam")
	g.AddEdge(ConditionalEdge("classify", "terminal_spam", Matches("[unclosed")))
	_, defects := Compile(g)
	assert.Contains(t, codes(defects), DefectBadPattern)
}

func TestCompileReportsAllDefectsInOnePass(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{Name: "a", Kind: NodeKind("bogus")})
	g.AddNode(&Node{Name: "a", Kind: KindTransform, Prompt: "x"})
	g.AddEdge(SimpleEdge("a", "ghost"))
	g.SetEntry("missing")

	_, defects := Compile(g)
	got := codes(defects)
	assert.Contains(t, got, DefectBadKind)
	assert.Contains(t, got, DefectDuplicateName)
	assert.Contains(t, got, DefectUnknownNode)
	assert.Contains(t, got, DefectUnknownEntry)
}

func TestCompileDeterministic(t *testing.T) {
	g := classifierGraph()
	g.AddEdge(SimpleEdge("classify", "ghost"))
	g.SetEntry("")

	_, first := Compile(g)
	_, second := Compile(g)
	assert.Equal(t, first, second)
}
