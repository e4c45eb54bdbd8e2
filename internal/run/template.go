package run

import (
	"regexp"
)

var placeholderRE = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// renderTemplate substitutes {{key}} placeholders with context values.
// A placeholder referencing an absent key fails with a TemplateError.
func renderTemplate(node, tpl string, rc *Context) (string, error) {
	var missing string
	rendered := placeholderRE.ReplaceAllStringFunc(tpl, func(m string) string {
		key := placeholderRE.FindStringSubmatch(m)[1]
		val, ok := rc.GetString(key)
		if !ok {
			if missing == "" {
				missing = key
			}
			return m
		}
		return val
	})
	if missing != "" {
		return "", &TemplateError{Node: node, Key: missing}
	}
	return rendered, nil
}
