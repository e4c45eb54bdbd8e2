package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftworks/weft/internal/workflow"
)

func classifierDefinition() *Definition {
	return &Definition{
		Name:  "classifier",
		Entry: "start",
		Nodes: []NodeDef{
			{Name: "start", Kind: "ai-prompt", Prompt: "Classify this message: {{input}}"},
			{Name: "classify", Kind: "router"},
			{Name: "terminal_spam", Kind: "terminal"},
			{Name: "terminal_ham", Kind: "terminal"},
		},
		Edges: []EdgeDef{
			{From: "start", To: "classify"},
			{From: "classify", To: "terminal_spam", Condition: &ConditionDef{Op: "equals", Key: "start", Value: "SPAM"}},
			{From: "classify", To: "terminal_ham", Condition: &ConditionDef{Op: "default"}},
		},
	}
}

func TestDefinitionToGraphCompiles(t *testing.T) {
	g, err := classifierDefinition().ToGraph()
	require.NoError(t, err)

	cg, defects := workflow.Compile(g)
	require.Empty(t, defects)
	assert.Equal(t, "start", cg.Entry())
	assert.Equal(t, 4, cg.Len())

	out := cg.Edges("classify")
	require.Len(t, out, 2)
	assert.Equal(t, workflow.CondEquals, out[0].Condition.Op)
	assert.Equal(t, "start", out[0].Condition.Key)
	assert.True(t, out[1].Condition.IsDefault())
}

func TestDefinitionToGraphUnknownOp(t *testing.T) {
	def := classifierDefinition()
	def.Edges[1].Condition.Op = "fuzzy-match"

	_, err := def.ToGraph()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuzzy-match")
}

func TestDefinitionGraphRoundTrip(t *testing.T) {
	def := classifierDefinition()
	g, err := def.ToGraph()
	require.NoError(t, err)

	back := FromGraph(def.Name, g)
	assert.Equal(t, def, back)
}

func TestWorkflowStoreSaveLoad(t *testing.T) {
	store := NewWorkflowStore(t.TempDir())
	def := classifierDefinition()

	require.NoError(t, store.Save(def))

	loaded, err := store.Load("classifier")
	require.NoError(t, err)
	assert.Equal(t, def, loaded)
}

func TestWorkflowStoreSaveUnnamed(t *testing.T) {
	store := NewWorkflowStore(t.TempDir())
	err := store.Save(&Definition{Entry: "start"})
	assert.Error(t, err)
}

func TestWorkflowStoreLoadMissing(t *testing.T) {
	store := NewWorkflowStore(t.TempDir())
	_, err := store.Load("nope")
	assert.Error(t, err)
}

func TestWorkflowStoreList(t *testing.T) {
	dir := t.TempDir()
	store := NewWorkflowStore(dir)

	def := classifierDefinition()
	require.NoError(t, store.Save(def))
	def.Name = "other"
	require.NoError(t, store.Save(def))

	// Broken yaml is skipped, not fatal
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(":\n\t- nope"), 0o644))

	names, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"classifier", "other"}, names)
}

func TestWorkflowStoreListMissingDir(t *testing.T) {
	store := NewWorkflowStore(filepath.Join(t.TempDir(), "absent"))
	names, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLoadFileDerivesName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anon.yaml")
	data := "entry: a\nnodes:\n  - name: a\n    kind: terminal\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	def, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "anon", def.Name)
}
