package guide_test

import (
	"strings"
	"testing"

	"github.com/hoangvvo/guide-agent/guide"
)

func TestGuideResult_Markdown(t *testing.T) {
	g := guide.GuideResult{
		Title:    "Title",
		Category: guide.CategoryGeneral,
		Content:  "Body text.\n",
		Example:  `{"a": 1}`,
		Resources: []guide.ResourceLink{
			{Title: "Docs", URL: "https://example.com/docs", Description: "Reference"},
		},
	}

	expected := "# Title\n\nBody text.\n\n## Example\n\n```\n{\"a\": 1}\n```\n\n## Resources\n\n- [Docs](https://example.com/docs): Reference\n"
	if got := g.Markdown(); got != expected {
		t.Errorf("unexpected markdown:\n%s\nexpected:\n%s", got, expected)
	}
}

func TestGuideResult_MarkdownOmitsEmptySections(t *testing.T) {
	g := guide.GuideResult{Title: "T", Category: guide.CategoryGeneral, Content: "body", Resources: []guide.ResourceLink{}}
	got := g.Markdown()
	if strings.Contains(got, "## Example") || strings.Contains(got, "## Resources") {
		t.Errorf("expected no optional sections, got:\n%s", got)
	}
}
