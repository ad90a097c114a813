package scorer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hoangvvo/guide-agent/llm"
	"github.com/hoangvvo/guide-agent/llm/llmtest"
	"github.com/hoangvvo/guide-agent/scorer"
)

func TestJudgeScorer_Score(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(llmtest.NewMockGenerateResultText(`{"score": 0.8, "reason": "Clear steps."}`))

	s := scorer.NewClarityScorer(model)
	got, err := s.Score(context.Background(), scorer.Input{
		Query:     "how do I set up mastra",
		Output:    "Run npm create mastra@latest.",
		Reference: "Use the create command.",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := scorer.Score{Scorer: "clarity", Score: 0.8, Reason: "Clear steps."}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("score mismatch (-want +got):\n%s", diff)
	}

	input := model.TrackedGenerateInputs()[0]
	if input.ResponseFormat == nil || input.ResponseFormat.JSON == nil {
		t.Fatal("expected a JSON response format")
	}
	prompt := llm.Text(input.Messages[0].Content())
	for _, want := range []string{"how do I set up mastra", "npm create mastra@latest", "Reference answer", "Criterion: clarity"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestJudgeScorer_InvalidJudgement(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		expectedErr string
	}{
		{"not json", "great answer", "invalid JSON"},
		{"missing score", `{"reason": "ok"}`, "no score"},
		{"above range", `{"score": 1.5, "reason": "ok"}`, "out of range"},
		{"below range", `{"score": -0.1, "reason": "ok"}`, "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := llmtest.NewMockLanguageModel()
			model.EnqueueGenerateResult(llmtest.NewMockGenerateResultText(tt.response))

			_, err := scorer.NewCorrectnessScorer(model).Score(context.Background(), scorer.Input{Query: "q", Output: "o"})
			if err == nil || !strings.Contains(err.Error(), tt.expectedErr) {
				t.Errorf("expected error containing %q, got %v", tt.expectedErr, err)
			}
		})
	}
}

func TestJudgeScorer_ModelError(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	modelErr := errors.New("unavailable")
	model.EnqueueGenerateResult(llmtest.NewMockGenerateResultError(modelErr))

	_, err := scorer.NewEngagementScorer(model).Score(context.Background(), scorer.Input{})
	if !errors.Is(err, modelErr) {
		t.Fatalf("expected wrapped model error, got %v", err)
	}
}

func TestSimilarityScorer(t *testing.T) {
	s := scorer.NewSimilarityScorer()

	t.Run("identical texts", func(t *testing.T) {
		got, err := s.Score(context.Background(), scorer.Input{Output: "run  the\ncommand", Reference: "run the command"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Score != 1 {
			t.Errorf("expected score 1, got %v", got.Score)
		}
	})

	t.Run("different texts", func(t *testing.T) {
		got, err := s.Score(context.Background(), scorer.Input{Output: "abcd", Reference: "abxy"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Score != 0.5 {
			t.Errorf("expected score 0.5, got %v", got.Score)
		}
	})

	t.Run("no reference", func(t *testing.T) {
		_, err := s.Score(context.Background(), scorer.Input{Output: "x"})
		if !errors.Is(err, scorer.ErrNoReference) {
			t.Errorf("expected ErrNoReference, got %v", err)
		}
	})
}

func TestSuite_Run(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	for range 4 {
		model.EnqueueGenerateResult(llmtest.NewMockGenerateResultText(`{"score": 1, "reason": "fine"}`))
	}

	scores, err := scorer.NewDefaultSuite(model).Run(context.Background(), scorer.Input{
		Query:     "q",
		Output:    "same",
		Reference: "same",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	names := make([]string, len(scores))
	for i, s := range scores {
		names[i] = s.Scorer
	}
	expected := []string{"clarity", "correctness", "engagement", "completeness", "content_similarity"}
	if diff := cmp.Diff(expected, names); diff != "" {
		t.Errorf("scorer order mismatch (-want +got):\n%s", diff)
	}
}

func TestSuite_SkipsScorersWithoutReference(t *testing.T) {
	scores, err := scorer.NewDefaultSuite(nil).Run(context.Background(), scorer.Input{Query: "q", Output: "o"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected no scores, got %+v", scores)
	}
}

func TestSuite_ReturnsFirstError(t *testing.T) {
	model := llmtest.NewMockLanguageModel()
	model.EnqueueGenerateResult(llmtest.NewMockGenerateResultText(`not json`))

	_, err := scorer.NewSuite(scorer.NewClarityScorer(model), scorer.NewSimilarityScorer()).
		Run(context.Background(), scorer.Input{Query: "q", Output: "o", Reference: "o"})
	if err == nil || !strings.Contains(err.Error(), "clarity") {
		t.Fatalf("expected clarity error, got %v", err)
	}
}
