// Package enrich adds summary and topic category to stored articles without summary.
// Model failures are replaced by deterministic fallbacks, one failed article never stops the batch.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsagg/pkg/domain"
	"github.com/umputun/newsagg/pkg/nlp"
)

//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/summarizer.go -pkg mocks -skip-ensure -fmt goimports . Summarizer
//go:generate moq -out mocks/classifier.go -pkg mocks -skip-ensure -fmt goimports . Classifier

const (
	summaryInputLimit    = 1024 // characters sent to summarizer
	classifierInputLimit = 512  // characters sent to classifier
	fallbackSummaryLimit = 200  // characters of content used as summary when summarizer fails

	minSummaryLength = 30
	maxSummaryLength = 130

	// DefaultHypothesisTemplate is zero-shot hypothesis, {} is replaced by candidate label
	DefaultHypothesisTemplate = "This text is about {}."
	// DefaultBatchSize is number of articles processed per run
	DefaultBatchSize = 10
)

// Store is the subset of document store used by enrichment
type Store interface {
	Unsummarized(ctx context.Context, limit int) ([]domain.Article, error)
	UpdateEnrichment(ctx context.Context, id string, enr domain.Enrichment) error
}

// Summarizer makes abstractive summary of text
type Summarizer interface {
	Summarize(ctx context.Context, text string, params nlp.SummaryParams) (string, error)
}

// Classifier ranks candidate labels for text with zero-shot classification
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string, template string, multiLabel bool) (nlp.Ranking, error)
}

// Params defines pipeline parameters
type Params struct {
	BatchSize          int
	HypothesisTemplate string
	Labels             []string // candidate categories, domain.Labels if empty
}

// Pipeline enriches one batch of unsummarized articles per run
type Pipeline struct {
	Params
	store      Store
	summarizer Summarizer // nil means always fallback
	classifier Classifier // nil means category kept with zero score
}

// Stats summarizes an enrichment run
type Stats struct {
	Selected     int `json:"selected"`      // articles returned by store
	Summarized   int `json:"summarized"`    // summaries made by model
	Classified   int `json:"classified"`    // categories assigned by model
	ShortContent int `json:"short_content"` // articles below content threshold, no model calls
	Fallbacks    int `json:"fallbacks"`     // truncated content used as summary
	Failed       int `json:"failed"`        // store updates failed
}

func (s Stats) String() string {
	return fmt.Sprintf("selected:%d, summarized:%d, classified:%d, short:%d, fallbacks:%d, failed:%d",
		s.Selected, s.Summarized, s.Classified, s.ShortContent, s.Fallbacks, s.Failed)
}

// New makes enrichment pipeline. Summarizer and classifier can be nil if models are not available.
func New(store Store, summarizer Summarizer, classifier Classifier, params Params) *Pipeline {
	if params.BatchSize <= 0 {
		params.BatchSize = DefaultBatchSize
	}
	if params.HypothesisTemplate == "" {
		params.HypothesisTemplate = DefaultHypothesisTemplate
	}
	if len(params.Labels) == 0 {
		params.Labels = domain.Labels
	}
	return &Pipeline{Params: params, store: store, summarizer: summarizer, classifier: classifier}
}

// Run selects up to BatchSize articles without summary, enriches and updates them one by one
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	articles, err := p.store.Unsummarized(ctx, p.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("select unsummarized articles: %w", err)
	}
	stats.Selected = len(articles)
	lgr.Printf("[DEBUG] selected %d articles for enrichment", len(articles))

	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("enrichment interrupted: %w", err)
		}
		enr, res := p.Enrich(ctx, article)
		stats.add(res)

		if err := p.store.UpdateEnrichment(ctx, article.ID, enr); err != nil {
			lgr.Printf("[WARN] failed to update article %s: %v", article.ID, err)
			stats.Failed++
			continue
		}
		lgr.Printf("[DEBUG] enriched %s %q, category %s (%.2f)", article.ID, article.Title, enr.Category, enr.CategoryScore)
	}
	lgr.Printf("[INFO] enrichment completed, %s", stats)
	return stats, nil
}

// Result reports which paths Enrich took for an article
type Result struct {
	ShortContent bool
	Summarized   bool
	Fallback     bool
	Classified   bool
}

func (s *Stats) add(r Result) {
	if r.ShortContent {
		s.ShortContent++
	}
	if r.Summarized {
		s.Summarized++
	}
	if r.Fallback {
		s.Fallbacks++
	}
	if r.Classified {
		s.Classified++
	}
}

// Enrich computes summary and category for the article, it never fails
func (p *Pipeline) Enrich(ctx context.Context, article domain.Article) (domain.Enrichment, Result) {
	content := article.Content
	category := domain.OrDefault(article.Category, domain.DefaultCategory)
	length := domain.ContentLength(content)

	if length < domain.MinContentLength {
		return domain.Enrichment{Summary: content, Category: category, CategoryScore: 0}, Result{ShortContent: true}
	}

	var res Result
	enr := domain.Enrichment{Category: category}
	enr.Summary, res.Summarized = p.summarize(ctx, article.ID, content, length)
	res.Fallback = !res.Summarized

	if p.classifier != nil && length > domain.MinContentLength {
		if label, score, ok := p.classify(ctx, article.ID, content); ok {
			enr.Category, enr.CategoryScore = label, score
			res.Classified = true
		}
	}
	return enr, res
}

func (p *Pipeline) summarize(ctx context.Context, id, content string, length int) (summary string, ok bool) {
	if p.summarizer == nil {
		return FallbackSummary(content), false
	}
	maxLen, minLen := SummaryBounds(length)
	params := nlp.SummaryParams{MaxLength: maxLen, MinLength: minLen, DoSample: false}
	summary, err := p.summarizer.Summarize(ctx, domain.Truncate(content, summaryInputLimit), params)
	if err != nil {
		lgr.Printf("[WARN] summarizer failed for %s, using truncated content: %v", id, err)
		return FallbackSummary(content), false
	}
	if strings.TrimSpace(summary) == "" {
		lgr.Printf("[WARN] summarizer returned empty summary for %s, using truncated content", id)
		return FallbackSummary(content), false
	}
	return summary, true
}

func (p *Pipeline) classify(ctx context.Context, id, content string) (label string, score float64, ok bool) {
	ranking, err := p.classifier.Classify(ctx, domain.Truncate(content, classifierInputLimit), p.Labels, p.HypothesisTemplate, false)
	if err != nil {
		lgr.Printf("[WARN] classifier failed for %s, category kept: %v", id, err)
		return "", 0, false
	}
	label, score, err = ranking.Top()
	if err != nil {
		lgr.Printf("[WARN] classifier returned no labels for %s: %v", id, err)
		return "", 0, false
	}
	return label, domain.ClampScore(score), true
}

// SummaryBounds returns summary length bounds for content of given length.
// max is half of content clamped to [30,130], min is half of max but not above 30.
func SummaryBounds(contentLength int) (maxLen, minLen int) {
	maxLen = min(max(contentLength/2, minSummaryLength), maxSummaryLength)
	minLen = min(maxLen/2, minSummaryLength)
	return maxLen, minLen
}

// FallbackSummary is the first 200 characters of content with ellipsis
func FallbackSummary(content string) string {
	return domain.Truncate(content, fallbackSummaryLimit) + "..."
}
