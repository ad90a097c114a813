package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hoangvvo/guide-agent/llm"
)

const judgeSystemPrompt = `You are a strict reviewer of answers given by a documentation assistant for developers building A2A agents.
Grade the answer against the rubric only. Respond with JSON: {"score": number between 0 and 1, "reason": one or two sentences}.`

var judgeSchema = llm.JSONSchema{
	"type": "object",
	"properties": map[string]any{
		"score": map[string]any{
			"type":        "number",
			"description": "Grade between 0 and 1",
		},
		"reason": map[string]any{
			"type":        "string",
			"description": "Short justification of the grade",
		},
	},
	"required":             []string{"score", "reason"},
	"additionalProperties": false,
}

// JudgeScorer grades an answer by asking a language model to apply a rubric.
type JudgeScorer struct {
	name        string
	description string
	rubric      string
	model       llm.LanguageModel
}

// NewJudgeScorer creates a rubric scorer backed by model.
func NewJudgeScorer(name, description, rubric string, model llm.LanguageModel) *JudgeScorer {
	return &JudgeScorer{name: name, description: description, rubric: rubric, model: model}
}

func NewClarityScorer(model llm.LanguageModel) *JudgeScorer {
	return NewJudgeScorer("clarity", "How clear and well organised the answer is", `1.0: steps are ordered, terminology is explained, code blocks are labelled.
0.5: understandable but disorganised or uses unexplained jargon.
0.0: confusing or contradictory.`, model)
}

func NewCorrectnessScorer(model llm.LanguageModel) *JudgeScorer {
	return NewJudgeScorer("correctness", "Whether commands, code and links are accurate", `1.0: every command, code sample and link is accurate for the question asked.
0.5: mostly accurate with minor mistakes.
0.0: wrong or invented commands, APIs or URLs.`, model)
}

func NewEngagementScorer(model llm.LanguageModel) *JudgeScorer {
	return NewJudgeScorer("engagement", "How well the answer addresses the developer and suggests next steps", `1.0: answers the developer directly and suggests a concrete next step.
0.5: answers but reads like a generic document.
0.0: ignores the question.`, model)
}

func NewCompletenessScorer(model llm.LanguageModel) *JudgeScorer {
	return NewJudgeScorer("completeness", "Whether the answer covers everything the question needs", `1.0: covers prerequisites, the steps and where to learn more.
0.5: covers the main steps but leaves gaps.
0.0: leaves out most of what is needed.`, model)
}

func (s *JudgeScorer) Name() string {
	return s.name
}

func (s *JudgeScorer) Description() string {
	return s.description
}

func (s *JudgeScorer) Score(ctx context.Context, in Input) (Score, error) {
	resp, err := s.model.Generate(ctx, &llm.LanguageModelInput{
		SystemPrompt:   llm.Ptr(judgeSystemPrompt),
		Messages:       []llm.Message{llm.NewUserMessage(llm.NewTextPart(s.prompt(in)))},
		ResponseFormat: llm.NewResponseFormatJSON(s.name+"_score", llm.Ptr(s.description), &judgeSchema),
		Temperature:    llm.Ptr(0.0),
	})
	if err != nil {
		return Score{}, fmt.Errorf("%s: %w", s.name, err)
	}

	return parseJudgement(s.name, llm.Text(resp.Content))
}

func (s *JudgeScorer) prompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Criterion: %s\n\nRubric:\n%s\n\nQuestion:\n%s\n\nAnswer:\n%s\n", s.name, s.rubric, in.Query, in.Output)
	if in.Reference != "" {
		fmt.Fprintf(&b, "\nReference answer:\n%s\n", in.Reference)
	}
	return b.String()
}

func parseJudgement(name, text string) (Score, error) {
	var judgement struct {
		Score  *float64 `json:"score"`
		Reason string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &judgement); err != nil {
		return Score{}, fmt.Errorf("%s: judge returned invalid JSON: %w", name, err)
	}
	if judgement.Score == nil {
		return Score{}, fmt.Errorf("%s: judge returned no score", name)
	}
	if *judgement.Score < 0 || *judgement.Score > 1 {
		return Score{}, fmt.Errorf("%s: judge score %v out of range [0, 1]", name, *judgement.Score)
	}
	return Score{Scorer: name, Score: *judgement.Score, Reason: judgement.Reason}, nil
}
