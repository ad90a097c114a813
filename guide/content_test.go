package guide_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/hoangvvo/guide-agent/guide"
)

const validGuide = `
      title: T
      category: general
      content: body
      resources:
        - title: R
          url: https://example.com
          description: D`

func TestParseTable(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		expectedErr string
	}{
		{
			name:        "malformed yaml",
			yaml:        "topics: [",
			expectedErr: "parse guide table",
		},
		{
			name:        "no topics",
			yaml:        "topics: {}",
			expectedErr: "no topics",
		},
		{
			name:        "unknown category",
			yaml:        "topics:\n  a:\n    guide:\n      title: T\n      category: nonsense\n      content: body",
			expectedErr: `unknown category "nonsense", want one of [general mastra integration workflow protocol language]`,
		},
		{
			name:        "empty title",
			yaml:        "topics:\n  a:\n    guide:\n      category: general\n      content: body",
			expectedErr: "empty title",
		},
		{
			name:        "empty content",
			yaml:        "topics:\n  a:\n    guide:\n      title: T\n      category: general",
			expectedErr: "empty content",
		},
		{
			name:        "incomplete resource",
			yaml:        "topics:\n  a:\n    guide:\n      title: T\n      category: general\n      content: body\n      resources:\n        - title: R",
			expectedErr: "resource 0",
		},
		{
			name:        "setup without overview",
			yaml:        "topics:\n  a:\n    setup:" + validGuide,
			expectedErr: "must define either guide or both setup and overview",
		},
		{
			name:        "guide and setup together",
			yaml:        "topics:\n  a:\n    guide:" + validGuide + "\n    setup:" + validGuide + "\n    overview:" + validGuide,
			expectedErr: "must define either guide or both setup and overview",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := guide.ParseTable([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.expectedErr) {
				t.Errorf("expected error containing %q, got %q", tt.expectedErr, err.Error())
			}
		})
	}
}

func TestParseTable_Valid(t *testing.T) {
	table, err := guide.ParseTable([]byte("topics:\n  a:\n    guide:" + validGuide + "\n  b:\n    setup:" + validGuide + "\n    overview:" + validGuide))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, ok := table.Guide("a"); !ok {
		t.Error("expected guide a")
	}
	if _, ok := table.Topic("b"); !ok {
		t.Error("expected topic b")
	}
	if _, ok := table.Guide("b"); ok {
		t.Error("topic b must not be exposed as a single guide")
	}
}

func TestNewDispatcher_MissingTopic(t *testing.T) {
	table, err := guide.ParseTable([]byte("topics:\n  general:\n    guide:" + validGuide))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err = guide.NewDispatcher(table)
	if !errors.Is(err, guide.ErrInvalidTable) {
		t.Errorf("expected ErrInvalidTable, got %v", err)
	}
}

func TestDefaultTable_Complete(t *testing.T) {
	table := guide.DefaultTable()
	for _, name := range []string{guide.RouteProtocol, guide.RouteLanguage, guide.RouteWorkflow, guide.RouteGeneral} {
		if _, ok := table.Guide(name); !ok {
			t.Errorf("expected single guide %q", name)
		}
	}
	for _, name := range []string{guide.RoutePython, guide.RouteMastra, guide.RouteIntegration} {
		topic, ok := table.Topic(name)
		if !ok {
			t.Errorf("expected topic %q", name)
			continue
		}
		if topic.Setup.Title == topic.Overview.Title {
			t.Errorf("topic %q variants share title %q", name, topic.Setup.Title)
		}
	}
}

func TestCategories(t *testing.T) {
	for _, c := range guide.Categories() {
		if !c.Valid() {
			t.Errorf("declared category %q is not valid", c)
		}
	}
	for _, c := range []guide.Category{"", "python", "General"} {
		if c.Valid() {
			t.Errorf("expected %q to be rejected", c)
		}
	}
}
