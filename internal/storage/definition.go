package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/weftworks/weft/internal/workflow"
	"github.com/weftworks/weft/pkg/logger"
)

// NodeDef is the storage form of a node
type NodeDef struct {
	Name   string         `yaml:"name"`
	Kind   string         `yaml:"kind"`
	Prompt string         `yaml:"prompt,omitempty"`
	Config map[string]any `yaml:"config,omitempty"`
}

// ConditionDef is the storage form of an edge condition
type ConditionDef struct {
	Op    string `yaml:"op"`
	Key   string `yaml:"key,omitempty"`
	Value string `yaml:"value,omitempty"`
}

// EdgeDef is the storage form of an edge
type EdgeDef struct {
	From      string        `yaml:"from"`
	To        string        `yaml:"to"`
	Condition *ConditionDef `yaml:"condition,omitempty"`
}

// Definition is the serializable workflow representation: plain
// structured data, the exact on-disk format being yaml.
type Definition struct {
	Name  string    `yaml:"name"`
	Entry string    `yaml:"entry"`
	Nodes []NodeDef `yaml:"nodes"`
	Edges []EdgeDef `yaml:"edges"`
}

// ToGraph converts the definition into an editable graph. Structural
// soundness is left to workflow.Compile; only syntactic problems
// (unknown condition ops) fail here.
func (d *Definition) ToGraph() (*workflow.Graph, error) {
	g := workflow.NewGraph()
	for _, nd := range d.Nodes {
		g.AddNode(&workflow.Node{
			Name:   nd.Name,
			Kind:   workflow.NodeKind(nd.Kind),
			Prompt: nd.Prompt,
			Config: nd.Config,
		})
	}
	for _, ed := range d.Edges {
		var cond *workflow.Condition
		if ed.Condition != nil {
			op, err := workflow.ParseConditionOp(ed.Condition.Op)
			if err != nil {
				return nil, fmt.Errorf("edge %s -> %s: %w", ed.From, ed.To, err)
			}
			cond = &workflow.Condition{Op: op, Key: ed.Condition.Key, Value: ed.Condition.Value}
		}
		g.AddEdge(workflow.ConditionalEdge(ed.From, ed.To, cond))
	}
	g.SetEntry(d.Entry)
	return g, nil
}

// FromGraph converts an editable graph into its storage form
func FromGraph(name string, g *workflow.Graph) *Definition {
	d := &Definition{Name: name, Entry: g.Entry()}
	for _, n := range g.Nodes() {
		d.Nodes = append(d.Nodes, NodeDef{
			Name:   n.Name,
			Kind:   string(n.Kind),
			Prompt: n.Prompt,
			Config: n.Config,
		})
	}
	for _, e := range g.AllEdges() {
		ed := EdgeDef{From: e.Source, To: e.Target}
		if e.Condition != nil {
			ed.Condition = &ConditionDef{
				Op:    string(e.Condition.Op),
				Key:   e.Condition.Key,
				Value: e.Condition.Value,
			}
		}
		d.Edges = append(d.Edges, ed)
	}
	return d
}

// WorkflowStore persists workflow definitions as yaml files in a
// directory, one file per workflow.
type WorkflowStore struct {
	dir string
}

// NewWorkflowStore creates a store over the given directory
func NewWorkflowStore(dir string) *WorkflowStore {
	return &WorkflowStore{dir: dir}
}

// Load reads the named workflow definition
func (s *WorkflowStore) Load(name string) (*Definition, error) {
	return LoadFile(filepath.Join(s.dir, name+".yaml"))
}

// Save writes the definition under its name
func (s *WorkflowStore) Save(def *Definition) error {
	if def.Name == "" {
		return fmt.Errorf("workflow definition has no name")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}
	data, err := yaml.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to encode workflow %q: %w", def.Name, err)
	}
	path := filepath.Join(s.dir, def.Name+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write workflow %q: %w", def.Name, err)
	}
	return nil
}

// List returns the names of all stored workflows
func (s *WorkflowStore) List() ([]string, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return nil, nil
	}

	var names []string
	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".yaml") {
			return nil
		}
		if _, err := LoadFile(path); err != nil {
			// Skip unparseable files but keep listing the rest
			logger.Warnf("Failed to load workflow from %s: %v", path, err)
			return nil
		}
		names = append(names, strings.TrimSuffix(info.Name(), ".yaml"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk workflows directory: %w", err)
	}
	return names, nil
}

// LoadFile reads a workflow definition from a yaml file
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	def := &Definition{}
	if err := yaml.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("failed to parse workflow file %s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}
	return def, nil
}
