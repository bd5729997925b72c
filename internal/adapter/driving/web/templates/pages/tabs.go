package pages

import (
	"strings"

	"github.com/a-h/templ"
)

func tabLabel(action string) string {
	if action == "" {
		return action
	}
	return strings.ToUpper(action[:1]) + action[1:]
}

// tabAttributes links a tab to its action and marks the current one active.
func tabAttributes(current, action string) templ.Attributes {
	attrs := templ.Attributes{"href": "/?action=" + action}
	if action == current {
		attrs["class"] = "active"
	}
	return attrs
}
