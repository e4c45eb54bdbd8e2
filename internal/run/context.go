package run

import (
	"fmt"
	"time"
)

// StepRecord is one entry in a run's execution trace
type StepRecord struct {
	Node      string    `json:"node"`
	Input     string    `json:"input,omitempty"` // rendered prompt or inspected subject
	Output    string    `json:"output,omitempty"`
	Next      string    `json:"next,omitempty"` // chosen next node, empty when none
	Timestamp time.Time `json:"timestamp"`
	Err       string    `json:"error,omitempty"`
}

// Context is the mutable shared state threaded through one run: a
// key/value bag plus an append-only execution trace. It is owned
// exclusively by its run and written only by the run engine, so it
// needs no internal locking.
type Context struct {
	values map[string]any
	trace  []StepRecord
}

// NewContext creates a fresh context seeded with the given values
func NewContext(initial map[string]any) *Context {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &Context{values: values}
}

// Get returns the value stored under key
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the value under key rendered as a string
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.values[key]
	if !ok {
		return "", false
	}
	if s, isStr := v.(string); isStr {
		return s, true
	}
	return fmt.Sprintf("%v", v), true
}

// Set stores value under key, overwriting any previous value
func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

// AppendTrace appends a step record to the execution trace
func (c *Context) AppendTrace(rec StepRecord) {
	c.trace = append(c.trace, rec)
}

// Trace returns a copy of the execution trace in order
func (c *Context) Trace() []StepRecord {
	out := make([]StepRecord, len(c.trace))
	copy(out, c.trace)
	return out
}

// Values returns a copy of the key/value state
func (c *Context) Values() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
