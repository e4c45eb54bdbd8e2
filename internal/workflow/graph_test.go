package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphNodeLookup(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{Name: "a", Kind: KindTransform, Prompt: "x"})
	g.AddNode(&Node{Name: "b", Kind: KindTerminal})

	n, err := g.Node("a")
	require.NoError(t, err)
	assert.Equal(t, KindTransform, n.Kind)

	_, err = g.Node("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestGraphEdgesDeclaredOrder(t *testing.T) {
	g := NewGraph()
	g.AddEdge(ConditionalEdge("a", "b", Equals("1")))
	g.AddEdge(ConditionalEdge("a", "c", Equals("2")))
	g.AddEdge(SimpleEdge("x", "y"))
	g.AddEdge(ConditionalEdge("a", "d", Default()))

	edges := g.Edges("a")
	require.Len(t, edges, 3)
	assert.Equal(t, "b", edges[0].Target)
	assert.Equal(t, "c", edges[1].Target)
	assert.Equal(t, "d", edges[2].Target)
}

func TestGraphRemoveNodeDropsEdges(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{Name: "a", Kind: KindTransform})
	g.AddNode(&Node{Name: "b", Kind: KindTerminal})
	g.AddEdge(SimpleEdge("a", "b"))
	g.AddEdge(SimpleEdge("b", "a"))

	g.RemoveNode("b")

	_, err := g.Node("b")
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Empty(t, g.Edges("a"))
	assert.Empty(t, g.Edges("b"))
}

func TestGraphRemoveEdge(t *testing.T) {
	g := NewGraph()
	g.AddEdge(SimpleEdge("a", "b"))
	g.AddEdge(ConditionalEdge("a", "c", Equals("x")))

	g.RemoveEdge("a", "b")

	edges := g.Edges("a")
	require.Len(t, edges, 1)
	assert.Equal(t, "c", edges[0].Target)
}

func TestConditionMatch(t *testing.T) {
	assert.True(t, Equals("SPAM").Match("SPAM"))
	assert.True(t, Equals("SPAM").Match("  SPAM\n"), "equality trims whitespace")
	assert.False(t, Equals("SPAM").Match("SPAM!"))

	assert.True(t, Contains("error").Match("an error occurred"))
	assert.False(t, Contains("error").Match("all good"))

	assert.True(t, Matches(`(?i)^yes\b`).Match("Yes, proceed"))
	assert.False(t, Matches(`^yes`).Match("maybe"))

	assert.False(t, Default().Match("anything"), "default edges never match directly")
	var nilCond *Condition
	assert.True(t, nilCond.IsDefault())
}

func TestConditionSignature(t *testing.T) {
	assert.Equal(t, Equals("x").Signature(), Equals("x").Signature())
	assert.NotEqual(t, Equals("x").Signature(), Contains("x").Signature())
	assert.NotEqual(t, Equals("x").Signature(), EqualsKey("k", "x").Signature())
	assert.Equal(t, Default().Signature(), (*Condition)(nil).Signature())
}
