// Package scorer grades agent answers. Judge scorers ask a language model to
// apply a rubric; the similarity scorer compares the answer to a reference
// text locally.
package scorer

import (
	"context"
	"errors"
)

// ErrNoReference is returned by scorers that need Input.Reference when it is
// empty. Suites skip such scorers.
var ErrNoReference = errors.New("scorer: reference text required")

// Input is the rendered exchange being graded.
type Input struct {
	Query     string `json:"query"`
	Output    string `json:"output"`
	Reference string `json:"reference,omitempty"`
}

// Score is a normalised grade in [0, 1].
type Score struct {
	Scorer string  `json:"scorer"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type Scorer interface {
	Name() string
	Description() string
	Score(ctx context.Context, in Input) (Score, error)
}
