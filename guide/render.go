package guide

import (
	"fmt"
	"strings"
)

// Markdown renders g as a single markdown document: heading, body, example
// as a fenced block and a resource list.
func (g GuideResult) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", g.Title)
	b.WriteString(strings.TrimSpace(g.Content))
	b.WriteString("\n")

	if g.Example != "" {
		b.WriteString("\n## Example\n\n```\n")
		b.WriteString(strings.TrimRight(g.Example, "\n"))
		b.WriteString("\n```\n")
	}

	if len(g.Resources) > 0 {
		b.WriteString("\n## Resources\n\n")
		for _, r := range g.Resources {
			fmt.Fprintf(&b, "- [%s](%s): %s\n", r.Title, r.URL, r.Description)
		}
	}

	return b.String()
}
