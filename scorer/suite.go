package scorer

import (
	"context"
	"errors"

	"github.com/hoangvvo/guide-agent/llm"
	"golang.org/x/sync/errgroup"
)

// Suite runs several scorers concurrently.
type Suite struct {
	scorers []Scorer
}

func NewSuite(scorers ...Scorer) *Suite {
	return &Suite{scorers: scorers}
}

// NewDefaultSuite returns the four rubric scorers backed by judge plus the
// similarity scorer. A nil judge leaves only the similarity scorer.
func NewDefaultSuite(judge llm.LanguageModel) *Suite {
	var scorers []Scorer
	if judge != nil {
		scorers = append(scorers,
			NewClarityScorer(judge),
			NewCorrectnessScorer(judge),
			NewEngagementScorer(judge),
			NewCompletenessScorer(judge),
		)
	}
	scorers = append(scorers, NewSimilarityScorer())
	return NewSuite(scorers...)
}

func (s *Suite) Scorers() []Scorer {
	return append([]Scorer(nil), s.scorers...)
}

// Run scores in with every scorer. Results keep the scorer order; scorers
// that need a missing reference are left out. The first failure cancels the
// remaining scorers and is returned.
func (s *Suite) Run(ctx context.Context, in Input) ([]Score, error) {
	results := make([]*Score, len(s.scorers))

	g, ctx := errgroup.WithContext(ctx)
	for i, scorer := range s.scorers {
		g.Go(func() error {
			score, err := scorer.Score(ctx, in)
			if errors.Is(err, ErrNoReference) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = &score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores := make([]Score, 0, len(results))
	for _, r := range results {
		if r != nil {
			scores = append(scores, *r)
		}
	}
	return scores, nil
}
