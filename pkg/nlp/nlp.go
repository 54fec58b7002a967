// Package nlp implements clients for summarization and zero-shot classification models.
// HFClient talks to Hugging Face inference API, LLMClient to any OpenAI-compatible chat API.
package nlp

import (
	"errors"
	"sort"
)

// ErrNoLabels returned when model responded without any label
var ErrNoLabels = errors.New("no labels in response")

// SummaryParams defines summary length bounds in tokens and decoding mode
type SummaryParams struct {
	MaxLength int
	MinLength int
	DoSample  bool
}

// Ranking is a list of candidate labels with scores, highest score first
type Ranking struct {
	Labels []string
	Scores []float64
}

// Top returns the best label and its score
func (r Ranking) Top() (label string, score float64, err error) {
	if len(r.Labels) == 0 || len(r.Labels) != len(r.Scores) {
		return "", 0, ErrNoLabels
	}
	return r.Labels[0], r.Scores[0], nil
}

// sortRanking orders labels by score descending, keeps labels and scores paired
func sortRanking(r Ranking) Ranking {
	n := min(len(r.Labels), len(r.Scores))
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return r.Scores[idx[a]] > r.Scores[idx[b]] })
	res := Ranking{Labels: make([]string, n), Scores: make([]float64, n)}
	for i, j := range idx {
		res.Labels[i], res.Scores[i] = r.Labels[j], r.Scores[j]
	}
	return res
}
