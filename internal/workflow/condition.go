package workflow

import (
	"fmt"
	"regexp"
	"strings"
)

// ConditionOp is the closed set of routing predicates. Conditions only
// ever consume node output as opaque text matched against declared
// operands; they are never executable expressions.
type ConditionOp string

const (
	CondEquals   ConditionOp = "equals"
	CondContains ConditionOp = "contains"
	CondMatches  ConditionOp = "matches"
	CondDefault  ConditionOp = "default"
)

// ParseConditionOp converts a string to a ConditionOp
func ParseConditionOp(s string) (ConditionOp, error) {
	switch ConditionOp(strings.ToLower(s)) {
	case CondEquals:
		return CondEquals, nil
	case CondContains:
		return CondContains, nil
	case CondMatches:
		return CondMatches, nil
	case CondDefault:
		return CondDefault, nil
	}
	return "", fmt.Errorf("unknown condition op: %q", s)
}

// Condition guards an edge. When Key is empty the predicate applies to
// the source node's latest output; otherwise it applies to the context
// value stored under Key.
type Condition struct {
	Op    ConditionOp
	Key   string
	Value string

	re *regexp.Regexp // compiled pattern for CondMatches
}

// Equals matches when the subject equals value after trimming whitespace
func Equals(value string) *Condition {
	return &Condition{Op: CondEquals, Value: value}
}

// EqualsKey matches when the context value under key equals value
func EqualsKey(key, value string) *Condition {
	return &Condition{Op: CondEquals, Key: key, Value: value}
}

// Contains matches when the subject contains value as a substring
func Contains(value string) *Condition {
	return &Condition{Op: CondContains, Value: value}
}

// ContainsKey matches when the context value under key contains value
func ContainsKey(key, value string) *Condition {
	return &Condition{Op: CondContains, Key: key, Value: value}
}

// Matches matches when the subject matches the regular expression pattern
func Matches(pattern string) *Condition {
	return &Condition{Op: CondMatches, Value: pattern}
}

// MatchesKey matches when the context value under key matches pattern
func MatchesKey(key, pattern string) *Condition {
	return &Condition{Op: CondMatches, Key: key, Value: pattern}
}

// Default is the fallback edge condition, used only when no other
// condition on the same source matched
func Default() *Condition {
	return &Condition{Op: CondDefault}
}

// IsDefault reports whether c selects the fallback edge. A nil
// condition is treated as unconditional and therefore a default.
func (c *Condition) IsDefault() bool {
	return c == nil || c.Op == CondDefault
}

// Signature identifies the condition for ambiguity detection. Two edges
// from the same source with equal signatures are a compile defect.
func (c *Condition) Signature() string {
	if c.IsDefault() {
		return string(CondDefault)
	}
	return string(c.Op) + "\x00" + c.Key + "\x00" + c.Value
}

// Match evaluates the condition against the given subject text.
// Default conditions never match here; the engine applies them only
// after all declared conditions failed.
func (c *Condition) Match(subject string) bool {
	if c.IsDefault() {
		return false
	}
	switch c.Op {
	case CondEquals:
		return strings.TrimSpace(subject) == c.Value
	case CondContains:
		return strings.Contains(subject, c.Value)
	case CondMatches:
		re := c.re
		if re == nil {
			var err error
			re, err = regexp.Compile(c.Value)
			if err != nil {
				return false
			}
		}
		return re.MatchString(subject)
	}
	return false
}

// compile prepares the condition for repeated evaluation
func (c *Condition) compile() error {
	if c == nil || c.Op != CondMatches {
		return nil
	}
	re, err := regexp.Compile(c.Value)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", c.Value, err)
	}
	c.re = re
	return nil
}

func (c *Condition) clone() *Condition {
	if c == nil {
		return nil
	}
	cc := *c
	return &cc
}

// String renders the condition for defect messages and reports
func (c *Condition) String() string {
	if c.IsDefault() {
		return "default"
	}
	subject := "output"
	if c.Key != "" {
		subject = "context[" + c.Key + "]"
	}
	return fmt.Sprintf("%s %s %q", subject, c.Op, c.Value)
}
