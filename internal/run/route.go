package run

import (
	"fmt"
	"regexp"
	"strings"
)

// RouteMarker is the token an ai-prompt node asks the model to end its
// reply with when the node has labeled outgoing routes. The routing
// layer consumes only the extracted key; the model reply is otherwise
// opaque text.
const RouteMarker = "ROUTING_KEY:"

// DefaultRouteKey is the key a model may emit to request the fallback
// edge explicitly.
const DefaultRouteKey = "__DEFAULT__"

var routeKeyRE = regexp.MustCompile(regexp.QuoteMeta(RouteMarker) + `\s*(\w+)\s*$`)
var routeStripRE = regexp.MustCompile(`\s*` + regexp.QuoteMeta(RouteMarker) + `\s*\w+\s*$`)

// routingInstructions builds the prompt suffix telling the model to
// close its reply with a routing key from the declared labels.
func routingInstructions(labels []string) string {
	opts := make([]string, 0, len(labels))
	for _, l := range labels {
		if l != "" && l != DefaultRouteKey {
			opts = append(opts, fmt.Sprintf("'%s'", l))
		}
	}
	optsText := "none"
	if len(opts) > 0 {
		optsText = strings.Join(opts, ", ")
	}
	return fmt.Sprintf(
		"\n\n--- ROUTING ---\nAfter your response, you MUST end with '%s <key>' (e.g., from [%s]).\n--- END ROUTING ---",
		RouteMarker, optsText,
	)
}

// extractRouteKey pulls the trailing routing key from a model reply,
// returning "" when no marker is present.
func extractRouteKey(content string) string {
	m := routeKeyRE.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// stripRouteMarker removes the trailing routing marker from a reply so
// stored context values carry only the response text.
func stripRouteMarker(content string) string {
	return strings.TrimSpace(routeStripRE.ReplaceAllString(content, ""))
}
