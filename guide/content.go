package guide

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed content/guides.yaml
var guidesYAML []byte

// ErrInvalidTable is returned when a guide table fails validation.
var ErrInvalidTable = errors.New("invalid guide table")

// Table is the canonical content table keyed by topic. A topic holds either a
// single guide or a setup/overview pair selected by a sub-dispatcher.
type Table struct {
	guides map[string]GuideResult
	topics map[string]Topic
}

type tableFile struct {
	Topics map[string]topicEntry `yaml:"topics"`
}

type topicEntry struct {
	Guide    *GuideResult `yaml:"guide"`
	Setup    *GuideResult `yaml:"setup"`
	Overview *GuideResult `yaml:"overview"`
}

// ParseTable decodes and validates a YAML guide table.
func ParseTable(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse guide table: %w", err)
	}
	if len(file.Topics) == 0 {
		return nil, fmt.Errorf("%w: no topics", ErrInvalidTable)
	}

	t := &Table{
		guides: make(map[string]GuideResult),
		topics: make(map[string]Topic),
	}
	for name, entry := range file.Topics {
		switch {
		case entry.Guide != nil && entry.Setup == nil && entry.Overview == nil:
			if err := validateGuide(*entry.Guide); err != nil {
				return nil, fmt.Errorf("%w: topic %q: %v", ErrInvalidTable, name, err)
			}
			t.guides[name] = entry.Guide.clone()
		case entry.Guide == nil && entry.Setup != nil && entry.Overview != nil:
			if err := validateGuide(*entry.Setup); err != nil {
				return nil, fmt.Errorf("%w: topic %q setup: %v", ErrInvalidTable, name, err)
			}
			if err := validateGuide(*entry.Overview); err != nil {
				return nil, fmt.Errorf("%w: topic %q overview: %v", ErrInvalidTable, name, err)
			}
			t.topics[name] = Topic{Setup: entry.Setup.clone(), Overview: entry.Overview.clone()}
		default:
			return nil, fmt.Errorf("%w: topic %q must define either guide or both setup and overview", ErrInvalidTable, name)
		}
	}
	return t, nil
}

// MustParseTable is like ParseTable but panics on error.
func MustParseTable(data []byte) *Table {
	t, err := ParseTable(data)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultTable returns the table embedded in the binary.
func DefaultTable() *Table {
	return defaultTable
}

var defaultTable = MustParseTable(guidesYAML)

// Guide returns a copy of the single guide stored under name.
func (t *Table) Guide(name string) (GuideResult, bool) {
	g, ok := t.guides[name]
	if !ok {
		return GuideResult{}, false
	}
	return g.clone(), true
}

// Topic returns the two-variant topic stored under name.
func (t *Table) Topic(name string) (Topic, bool) {
	topic, ok := t.topics[name]
	return topic, ok
}

func validateGuide(g GuideResult) error {
	if strings.TrimSpace(g.Title) == "" {
		return errors.New("empty title")
	}
	if !g.Category.Valid() {
		return fmt.Errorf("unknown category %q, want one of %v", g.Category, Categories())
	}
	if strings.TrimSpace(g.Content) == "" {
		return errors.New("empty content")
	}
	for i, r := range g.Resources {
		if r.Title == "" || r.URL == "" || r.Description == "" {
			return fmt.Errorf("resource %d: title, url and description are required", i)
		}
	}
	return nil
}

// languagePlaceholder is substituted with a display name in templated guides.
const languagePlaceholder = "{language}"

func renderLanguage(g GuideResult, language string) GuideResult {
	r := strings.NewReplacer(languagePlaceholder, language)
	out := g.clone()
	out.Title = r.Replace(out.Title)
	out.Content = r.Replace(out.Content)
	out.Example = r.Replace(out.Example)
	for i := range out.Resources {
		out.Resources[i].Title = r.Replace(out.Resources[i].Title)
		out.Resources[i].Description = r.Replace(out.Resources[i].Description)
	}
	return out
}
