// Package guide selects canned documentation guides for developer queries.
//
// Dispatch tests an ordered list of keyword routes against the lower-cased
// query text and language hint. The first route that matches produces the
// guide; a default route guarantees that every query gets one. Dispatch does
// no I/O and keeps no state, so it is safe for concurrent use.
package guide

import (
	"fmt"
	"slices"
	"strings"
)

// Route names in priority order. The order is part of the contract: a query
// matching several routes always gets the earliest one.
const (
	RouteProtocol    = "protocol"
	RoutePython      = "python"
	RouteMastra      = "mastra"
	RouteLanguage    = "language"
	RouteWorkflow    = "workflow"
	RouteIntegration = "integration"
	RouteGeneral     = "general"
)

var (
	protocolKeywords    = []string{"a2a", "agent-to-agent", "agent to agent", "protocol", "json-rpc", "jsonrpc"}
	pythonHints         = []string{"python", "py"}
	pythonKeywords      = []string{"python"}
	mastraHints         = []string{"typescript", "ts", "javascript", "js", "node", "nodejs"}
	mastraKeywords      = []string{"mastra"}
	workflowKeywords    = []string{"workflow", "json", "example", "sample"}
	integrationKeywords = []string{"connect", "integrat", "agentverse", "register"}
	setupKeywords       = []string{"setup", "set up", "install", "initialize", "initialise", "start", "configure"}
)

// languageNames maps accepted language hints to display names.
var languageNames = map[string]string{
	"go":     "Go",
	"golang": "Go",
	"rust":   "Rust",
	"java":   "Java",
	"kotlin": "Kotlin",
	"csharp": "C#",
	"c#":     "C#",
	"dotnet": ".NET",
	"ruby":   "Ruby",
	"php":    "PHP",
	"swift":  "Swift",
	"dart":   "Dart",
	"elixir": "Elixir",
	"scala":  "Scala",
	"cpp":    "C++",
	"c++":    "C++",
}

// signal is a query normalised for matching.
type signal struct {
	text     string
	language string
}

func normalize(q Query) signal {
	return signal{
		text:     strings.ToLower(q.Text),
		language: strings.ToLower(strings.TrimSpace(q.Language)),
	}
}

type route struct {
	name   string
	match  func(s signal) bool
	handle func(q Query, s signal) GuideResult
}

// Dispatcher routes queries to guides from a Table.
type Dispatcher struct {
	table  *Table
	routes []route
}

// NewDispatcher builds the route list over table. The table must hold every
// topic the routes refer to.
func NewDispatcher(table *Table) (*Dispatcher, error) {
	protocol, err := requireGuide(table, RouteProtocol)
	if err != nil {
		return nil, err
	}
	python, err := requireTopic(table, RoutePython)
	if err != nil {
		return nil, err
	}
	mastra, err := requireTopic(table, RouteMastra)
	if err != nil {
		return nil, err
	}
	language, err := requireGuide(table, RouteLanguage)
	if err != nil {
		return nil, err
	}
	workflow, err := requireGuide(table, RouteWorkflow)
	if err != nil {
		return nil, err
	}
	integration, err := requireTopic(table, RouteIntegration)
	if err != nil {
		return nil, err
	}
	general, err := requireGuide(table, RouteGeneral)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{table: table}
	d.routes = []route{
		{
			name:   RouteProtocol,
			match:  func(s signal) bool { return containsAny(s.text, protocolKeywords) },
			handle: static(protocol),
		},
		{
			name: RoutePython,
			match: func(s signal) bool {
				return slices.Contains(pythonHints, s.language) || containsAny(s.text, pythonKeywords)
			},
			handle: python.handle,
		},
		{
			name: RouteMastra,
			match: func(s signal) bool {
				return slices.Contains(mastraHints, s.language) || containsAny(s.text, mastraKeywords)
			},
			handle: mastra.handle,
		},
		{
			name: RouteLanguage,
			match: func(s signal) bool {
				_, ok := languageNames[s.language]
				return ok
			},
			handle: func(_ Query, s signal) GuideResult {
				return renderLanguage(language, languageNames[s.language])
			},
		},
		{
			name:   RouteWorkflow,
			match:  func(s signal) bool { return containsAny(s.text, workflowKeywords) },
			handle: static(workflow),
		},
		{
			name:   RouteIntegration,
			match:  func(s signal) bool { return containsAny(s.text, integrationKeywords) },
			handle: integration.handle,
		},
		{
			name:   RouteGeneral,
			match:  func(signal) bool { return true },
			handle: static(general),
		},
	}
	return d, nil
}

var defaultDispatcher = mustNewDispatcher(defaultTable)

func mustNewDispatcher(table *Table) *Dispatcher {
	d, err := NewDispatcher(table)
	if err != nil {
		panic(err)
	}
	return d
}

// Default returns the dispatcher over the embedded table.
func Default() *Dispatcher {
	return defaultDispatcher
}

// Dispatch selects a guide for q using the embedded table.
func Dispatch(q Query) GuideResult {
	return defaultDispatcher.Dispatch(q)
}

// Dispatch returns the guide of the first route matching q.
func (d *Dispatcher) Dispatch(q Query) GuideResult {
	s := normalize(q)
	r := d.find(s)
	return r.handle(q, s)
}

// Match returns the name of the route that Dispatch would use for q.
func (d *Dispatcher) Match(q Query) string {
	return d.find(normalize(q)).name
}

// Routes returns the route names in priority order.
func (d *Dispatcher) Routes() []string {
	names := make([]string, len(d.routes))
	for i, r := range d.routes {
		names[i] = r.name
	}
	return names
}

// SubDispatch runs the setup/overview sub-dispatcher of a two-variant topic
// directly, skipping the top-level routes.
func (d *Dispatcher) SubDispatch(topic string, text string) (GuideResult, bool) {
	t, ok := d.table.Topic(topic)
	if !ok {
		return GuideResult{}, false
	}
	return t.Select(text), true
}

func (d *Dispatcher) find(s signal) route {
	for _, r := range d.routes {
		if r.match(s) {
			return r
		}
	}
	// unreachable: the general route matches everything
	return d.routes[len(d.routes)-1]
}

func requireGuide(table *Table, name string) (GuideResult, error) {
	g, ok := table.Guide(name)
	if !ok {
		return GuideResult{}, fmt.Errorf("%w: missing guide %q", ErrInvalidTable, name)
	}
	return g, nil
}

func requireTopic(table *Table, name string) (Topic, error) {
	t, ok := table.Topic(name)
	if !ok {
		return Topic{}, fmt.Errorf("%w: missing setup/overview topic %q", ErrInvalidTable, name)
	}
	return t, nil
}

func static(g GuideResult) func(Query, signal) GuideResult {
	return func(Query, signal) GuideResult {
		return g.clone()
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
