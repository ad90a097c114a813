// Package workflow runs fixed sequences of guide lookups.
package workflow

import (
	"context"
	"fmt"

	"github.com/hoangvvo/guide-agent/guide"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/hoangvvo/guide-agent/workflow")

const GuideWorkflowID = "guide-workflow"

const (
	StepSetup       = "setup-guide"
	StepIntegration = "integration-guide"
)

// Input is the input of the guide workflow.
type Input struct {
	Query string `json:"query"`
}

// Output holds the result of every stage. The results are kept as returned
// by the dispatcher, never merged.
type Output struct {
	Setup       guide.GuideResult `json:"setup"`
	Integration guide.GuideResult `json:"integration"`
}

// Step is a single stage of a workflow. Every step receives the workflow
// input unchanged.
type Step struct {
	ID          string
	Description string
	Run         func(ctx context.Context, in Input) (guide.GuideResult, error)
}

// Workflow runs its steps one after another and stops at the first error.
type Workflow struct {
	ID          string
	Description string
	steps       []Step
}

// New creates a workflow from steps. Step IDs must be unique.
func New(id, description string, steps ...Step) (*Workflow, error) {
	seen := make(map[string]struct{}, len(steps))
	for _, s := range steps {
		if s.ID == "" || s.Run == nil {
			return nil, fmt.Errorf("workflow %s: step must have an id and a run function", id)
		}
		if _, ok := seen[s.ID]; ok {
			return nil, fmt.Errorf("workflow %s: duplicate step %q", id, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return &Workflow{ID: id, Description: description, steps: steps}, nil
}

// NewGuideWorkflow returns the two-stage workflow that looks up the framework
// setup guide and then the integration guide for the same query. A nil
// dispatcher uses guide.Default().
func NewGuideWorkflow(d *guide.Dispatcher) *Workflow {
	if d == nil {
		d = guide.Default()
	}
	w, err := New(GuideWorkflowID, "Framework setup guide followed by the integration guide",
		Step{
			ID:          StepSetup,
			Description: "Look up the framework guide",
			Run:         subDispatchStep(d, guide.RouteMastra),
		},
		Step{
			ID:          StepIntegration,
			Description: "Look up the integration guide",
			Run:         subDispatchStep(d, guide.RouteIntegration),
		},
	)
	if err != nil {
		panic(err)
	}
	return w
}

func subDispatchStep(d *guide.Dispatcher, topic string) func(context.Context, Input) (guide.GuideResult, error) {
	return func(_ context.Context, in Input) (guide.GuideResult, error) {
		g, ok := d.SubDispatch(topic, in.Query)
		if !ok {
			return guide.GuideResult{}, fmt.Errorf("no setup/overview topic %q", topic)
		}
		return g, nil
	}
}

// Steps returns the steps in execution order.
func (w *Workflow) Steps() []Step {
	return append([]Step(nil), w.steps...)
}

// RunSteps executes every step in order and returns the results keyed by
// step ID.
func (w *Workflow) RunSteps(ctx context.Context, in Input) (map[string]guide.GuideResult, error) {
	results := make(map[string]guide.GuideResult, len(w.steps))
	for _, s := range w.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g, err := w.runStep(ctx, s, in)
		if err != nil {
			return nil, fmt.Errorf("workflow %s: step %s: %w", w.ID, s.ID, err)
		}
		results[s.ID] = g
	}
	return results, nil
}

// Run executes the guide workflow and maps step results to Output.
func (w *Workflow) Run(ctx context.Context, in Input) (*Output, error) {
	results, err := w.RunSteps(ctx, in)
	if err != nil {
		return nil, err
	}
	return &Output{
		Setup:       results[StepSetup],
		Integration: results[StepIntegration],
	}, nil
}

func (w *Workflow) runStep(ctx context.Context, s Step, in Input) (guide.GuideResult, error) {
	ctx, span := tracer.Start(ctx, "workflow.step")
	defer span.End()

	span.SetAttributes(
		attribute.String("workflow.id", w.ID),
		attribute.String("workflow.step.id", s.ID),
	)

	g, err := s.Run(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return guide.GuideResult{}, err
	}

	span.SetAttributes(
		attribute.String("guide.title", g.Title),
		attribute.String("guide.category", string(g.Category)),
	)
	return g, nil
}
