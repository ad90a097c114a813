package scorer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// SimilarityScorer grades an answer by its Levenshtein distance to the
// reference text, normalised by the longer of the two.
type SimilarityScorer struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{dmp: diffmatchpatch.New()}
}

func (s *SimilarityScorer) Name() string {
	return "content_similarity"
}

func (s *SimilarityScorer) Description() string {
	return "Edit-distance similarity between the answer and a reference"
}

func (s *SimilarityScorer) Score(ctx context.Context, in Input) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}
	if in.Reference == "" {
		return Score{}, ErrNoReference
	}

	a := normalizeWhitespace(in.Reference)
	b := normalizeWhitespace(in.Output)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return Score{Scorer: s.Name(), Score: 1, Reason: "both texts are empty"}, nil
	}

	diffs := s.dmp.DiffMain(a, b, false)
	distance := s.dmp.DiffLevenshtein(diffs)
	score := 1 - float64(distance)/float64(longest)

	return Score{
		Scorer: s.Name(),
		Score:  score,
		Reason: fmt.Sprintf("edit distance %d over %d characters", distance, longest),
	}, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
