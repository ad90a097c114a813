package guide

import "slices"

// Category classifies a guide for display grouping. The set is closed.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryMastra      Category = "mastra"
	CategoryIntegration Category = "integration"
	CategoryWorkflow    Category = "workflow"
	CategoryProtocol    Category = "protocol"
	CategoryLanguage    Category = "language"
)

// Categories lists every declared category.
func Categories() []Category {
	return []Category{
		CategoryGeneral,
		CategoryMastra,
		CategoryIntegration,
		CategoryWorkflow,
		CategoryProtocol,
		CategoryLanguage,
	}
}

// Valid reports whether c is a member of the declared set.
func (c Category) Valid() bool {
	return slices.Contains(Categories(), c)
}

// Query is a developer question with an optional language hint.
// An empty Language means no hint was given.
type Query struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// GuideResult is a canned guide selected for a query.
type GuideResult struct {
	Title    string   `json:"title" yaml:"title"`
	Category Category `json:"category" yaml:"category"`
	// Markdown body.
	Content string `json:"content" yaml:"content"`
	// Optional code or JSON snippet. Empty when the guide has none.
	Example   string         `json:"example,omitempty" yaml:"example"`
	Resources []ResourceLink `json:"resources" yaml:"resources"`
}

// ResourceLink points at external documentation. URL is not parsed.
type ResourceLink struct {
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description" yaml:"description"`
}

// clone returns a copy that shares no mutable state with g.
func (g GuideResult) clone() GuideResult {
	out := g
	out.Resources = make([]ResourceLink, len(g.Resources))
	copy(out.Resources, g.Resources)
	return out
}
