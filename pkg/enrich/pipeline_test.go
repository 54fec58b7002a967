package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsagg/pkg/domain"
	"github.com/umputun/newsagg/pkg/enrich/mocks"
	"github.com/umputun/newsagg/pkg/nlp"
	"github.com/umputun/newsagg/pkg/store/sqlite"
)

func text(n int) string {
	const words = "market rally lifts tech shares as investors cheer results "
	return strings.Repeat(words, n/len(words)+1)[:n]
}

func workingSummarizer() *mocks.SummarizerMock {
	return &mocks.SummarizerMock{SummarizeFunc: func(ctx context.Context, text string, params nlp.SummaryParams) (string, error) {
		return "Tech shares rally.", nil
	}}
}

func workingClassifier() *mocks.ClassifierMock {
	return &mocks.ClassifierMock{ClassifyFunc: func(ctx context.Context, text string, labels []string, template string, multiLabel bool) (nlp.Ranking, error) {
		return nlp.Ranking{Labels: []string{"Business", "Technology"}, Scores: []float64{0.7, 0.2}}, nil
	}}
}

func storeWith(articles ...domain.Article) *mocks.StoreMock {
	return &mocks.StoreMock{
		UnsummarizedFunc: func(ctx context.Context, limit int) ([]domain.Article, error) {
			return articles, nil
		},
		UpdateEnrichmentFunc: func(ctx context.Context, id string, enr domain.Enrichment) error {
			return nil
		},
	}
}

func TestSummaryBounds(t *testing.T) {
	tbl := []struct{ length, maxLen, minLen int }{
		{100, 50, 25},
		{101, 50, 25},
		{60, 30, 15},
		{0, 30, 15},
		{200, 100, 30},
		{260, 130, 30},
		{5000, 130, 30},
	}
	for _, tt := range tbl {
		maxLen, minLen := SummaryBounds(tt.length)
		assert.Equal(t, tt.maxLen, maxLen, "max for %d", tt.length)
		assert.Equal(t, tt.minLen, minLen, "min for %d", tt.length)
	}

	for n := 100; n <= 3000; n++ {
		maxLen, minLen := SummaryBounds(n)
		require.GreaterOrEqual(t, maxLen, 30)
		require.LessOrEqual(t, maxLen, 130)
		require.LessOrEqual(t, minLen, maxLen/2)
		require.LessOrEqual(t, minLen, 30)
	}
}

func TestFallbackSummary(t *testing.T) {
	content := text(500)
	assert.Equal(t, content[:200]+"...", FallbackSummary(content))
	assert.Equal(t, "short...", FallbackSummary("short"))

	multibyte := strings.Repeat("ж", 300)
	assert.Equal(t, strings.Repeat("ж", 200)+"...", FallbackSummary(multibyte))
}

func TestPipeline_ShortContentSkipsModels(t *testing.T) {
	summarizer, classifier := workingSummarizer(), workingClassifier()
	tbl := []struct {
		name    string
		article domain.Article
		want    domain.Enrichment
	}{
		{name: "empty content", article: domain.Article{ID: "1", Category: "Business"},
			want: domain.Enrichment{Summary: "", Category: "Business"}},
		{name: "50 chars", article: domain.Article{ID: "2", Content: text(50), Category: "Health"},
			want: domain.Enrichment{Summary: text(50), Category: "Health"}},
		{name: "99 chars with padding", article: domain.Article{ID: "3", Content: "  " + text(99) + "\n", Category: "Science"},
			want: domain.Enrichment{Summary: "  " + text(99) + "\n", Category: "Science"}},
		{name: "no category", article: domain.Article{ID: "4", Content: "tiny"},
			want: domain.Enrichment{Summary: "tiny", Category: domain.DefaultCategory}},
	}

	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			p := New(storeWith(), summarizer, classifier, Params{})
			enr, res := p.Enrich(context.Background(), tt.article)
			assert.Equal(t, tt.want, enr)
			assert.InDelta(t, 0.0, enr.CategoryScore, 0)
			assert.Equal(t, Result{ShortContent: true}, res)
		})
	}
	assert.Empty(t, summarizer.SummarizeCalls())
	assert.Empty(t, classifier.ClassifyCalls())
}

func TestPipeline_ModelInputs(t *testing.T) {
	summarizer, classifier := workingSummarizer(), workingClassifier()
	content := text(3000)
	p := New(storeWith(), summarizer, classifier, Params{})

	enr, res := p.Enrich(context.Background(), domain.Article{ID: "1", Content: content, Category: "Technology"})
	assert.Equal(t, domain.Enrichment{Summary: "Tech shares rally.", Category: "Business", CategoryScore: 0.7}, enr)
	assert.Equal(t, Result{Summarized: true, Classified: true}, res)

	require.Len(t, summarizer.SummarizeCalls(), 1)
	sc := summarizer.SummarizeCalls()[0]
	assert.Equal(t, content[:1024], sc.Text)
	assert.Equal(t, nlp.SummaryParams{MaxLength: 130, MinLength: 30, DoSample: false}, sc.Params)

	require.Len(t, classifier.ClassifyCalls(), 1)
	cc := classifier.ClassifyCalls()[0]
	assert.Equal(t, content[:512], cc.Text)
	assert.Equal(t, domain.Labels, cc.Labels)
	assert.Equal(t, "This text is about {}.", cc.Template)
	assert.False(t, cc.MultiLabel)
}

func TestPipeline_ClassifierThreshold(t *testing.T) {
	classifier := workingClassifier()
	p := New(storeWith(), workingSummarizer(), classifier, Params{})

	// exactly 100 chars gets a summary but is not classified
	enr, res := p.Enrich(context.Background(), domain.Article{ID: "1", Content: text(100), Category: "Health"})
	assert.Equal(t, "Health", enr.Category)
	assert.InDelta(t, 0.0, enr.CategoryScore, 0)
	assert.True(t, res.Summarized)
	assert.False(t, res.Classified)
	assert.Empty(t, classifier.ClassifyCalls())
}

func TestPipeline_Fallbacks(t *testing.T) {
	content := text(400)

	t.Run("summarizer error", func(t *testing.T) {
		summarizer := &mocks.SummarizerMock{SummarizeFunc: func(ctx context.Context, text string, params nlp.SummaryParams) (string, error) {
			return "", errors.New("model overloaded")
		}}
		enr, res := New(storeWith(), summarizer, nil, Params{}).Enrich(context.Background(),
			domain.Article{ID: "1", Content: content, Category: "Business"})
		assert.Equal(t, content[:200]+"...", enr.Summary)
		assert.Equal(t, Result{Fallback: true}, res)
	})

	t.Run("empty summary", func(t *testing.T) {
		summarizer := &mocks.SummarizerMock{SummarizeFunc: func(ctx context.Context, text string, params nlp.SummaryParams) (string, error) {
			return "  ", nil
		}}
		enr, _ := New(storeWith(), summarizer, nil, Params{}).Enrich(context.Background(), domain.Article{ID: "1", Content: content})
		assert.Equal(t, content[:200]+"...", enr.Summary)
	})

	t.Run("no summarizer", func(t *testing.T) {
		enr, res := New(storeWith(), nil, nil, Params{}).Enrich(context.Background(), domain.Article{ID: "1", Content: content})
		assert.Equal(t, content[:200]+"...", enr.Summary)
		assert.Equal(t, domain.DefaultCategory, enr.Category)
		assert.Equal(t, Result{Fallback: true}, res)
	})

	t.Run("classifier error keeps category", func(t *testing.T) {
		classifier := &mocks.ClassifierMock{ClassifyFunc: func(ctx context.Context, text string, labels []string, template string, multiLabel bool) (nlp.Ranking, error) {
			return nlp.Ranking{}, errors.New("timeout")
		}}
		enr, res := New(storeWith(), workingSummarizer(), classifier, Params{}).Enrich(context.Background(),
			domain.Article{ID: "1", Content: content, Category: "Science"})
		assert.Equal(t, "Science", enr.Category)
		assert.InDelta(t, 0.0, enr.CategoryScore, 0)
		assert.False(t, res.Classified)
	})

	t.Run("classifier empty ranking", func(t *testing.T) {
		classifier := &mocks.ClassifierMock{ClassifyFunc: func(ctx context.Context, text string, labels []string, template string, multiLabel bool) (nlp.Ranking, error) {
			return nlp.Ranking{}, nil
		}}
		enr, res := New(storeWith(), workingSummarizer(), classifier, Params{}).Enrich(context.Background(),
			domain.Article{ID: "1", Content: content, Category: "Science"})
		assert.Equal(t, "Science", enr.Category)
		assert.InDelta(t, 0.0, enr.CategoryScore, 0)
		assert.False(t, res.Classified)
	})

	t.Run("score clamped", func(t *testing.T) {
		classifier := &mocks.ClassifierMock{ClassifyFunc: func(ctx context.Context, text string, labels []string, template string, multiLabel bool) (nlp.Ranking, error) {
			return nlp.Ranking{Labels: []string{"Sports"}, Scores: []float64{1.3}}, nil
		}}
		enr, _ := New(storeWith(), workingSummarizer(), classifier, Params{}).Enrich(context.Background(),
			domain.Article{ID: "1", Content: content})
		assert.Equal(t, "Sports", enr.Category)
		assert.InDelta(t, 1.0, enr.CategoryScore, 0)
	})
}

func TestPipeline_Run(t *testing.T) {
	st := storeWith(
		domain.Article{ID: "a", Content: text(400), Category: "Business"},
		domain.Article{ID: "b", Content: text(20), Category: "Health"},
		domain.Article{ID: "c", Content: text(400), Category: "Science"},
	)
	st.UpdateEnrichmentFunc = func(ctx context.Context, id string, enr domain.Enrichment) error {
		if id == "a" {
			return errors.New("version conflict")
		}
		return nil
	}

	stats, err := New(st, workingSummarizer(), workingClassifier(), Params{BatchSize: 3}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Selected: 3, Summarized: 2, Classified: 2, ShortContent: 1, Failed: 1}, stats)

	require.Len(t, st.UnsummarizedCalls(), 1)
	assert.Equal(t, 3, st.UnsummarizedCalls()[0].Limit)
	require.Len(t, st.UpdateEnrichmentCalls(), 3, "failed update doesn't stop the batch")
	assert.Equal(t, "c", st.UpdateEnrichmentCalls()[2].Id)
}

func TestPipeline_RunDefaultsAndErrors(t *testing.T) {
	t.Run("default batch size", func(t *testing.T) {
		st := storeWith()
		_, err := New(st, nil, nil, Params{}).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 10, st.UnsummarizedCalls()[0].Limit)
	})

	t.Run("select failure", func(t *testing.T) {
		st := &mocks.StoreMock{UnsummarizedFunc: func(ctx context.Context, limit int) ([]domain.Article, error) {
			return nil, errors.New("cluster unreachable")
		}}
		_, err := New(st, nil, nil, Params{}).Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cluster unreachable")
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		st := storeWith(domain.Article{ID: "a", Content: text(400)})
		_, err := New(st, nil, nil, Params{}).Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, st.UpdateEnrichmentCalls())
	})
}

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()
	st, err := sqlite.New(ctx, sqlite.Config{DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, st.EnsureIndex(ctx))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func insert(t *testing.T, st *sqlite.Store, a domain.Article) string {
	t.Helper()
	a.Date = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	id, err := st.Insert(context.Background(), &a)
	require.NoError(t, err)
	return id
}

func TestPipeline_EndToEnd(t *testing.T) {
	ctx := context.Background()

	t.Run("working models", func(t *testing.T) {
		st := setupStore(t)
		insert(t, st, domain.Article{Title: "chips", Content: text(500), Category: "Technology", URL: "https://e/1"})

		stats, err := New(st, workingSummarizer(), workingClassifier(), Params{}).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Summarized)

		res, err := st.Search(ctx, domain.SearchRequest{})
		require.NoError(t, err)
		require.Len(t, res.Articles, 1)
		doc := res.Articles[0]
		require.True(t, doc.HasSummary())
		assert.LessOrEqual(t, len(doc.SummaryText()), 130)
		assert.True(t, domain.IsLabel(doc.Category))
		assert.GreaterOrEqual(t, doc.CategoryScore, 0.0)
		assert.LessOrEqual(t, doc.CategoryScore, 1.0)

		// enriched document is not selected again
		stats, err = New(st, workingSummarizer(), workingClassifier(), Params{}).Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Selected)
	})

	t.Run("summarizer failure", func(t *testing.T) {
		st := setupStore(t)
		content := text(500)
		insert(t, st, domain.Article{Title: "t", Content: content, Category: "Technology"})
		summarizer := &mocks.SummarizerMock{SummarizeFunc: func(ctx context.Context, text string, params nlp.SummaryParams) (string, error) {
			return "", errors.New("inference endpoint down")
		}}

		_, err := New(st, summarizer, workingClassifier(), Params{}).Run(ctx)
		require.NoError(t, err)
		res, err := st.Search(ctx, domain.SearchRequest{})
		require.NoError(t, err)
		assert.Equal(t, content[:200]+"...", res.Articles[0].SummaryText())
	})

	t.Run("short content without classifier", func(t *testing.T) {
		st := setupStore(t)
		insert(t, st, domain.Article{Title: "t", Content: text(50), Category: "Health", CategoryScore: 0.4})
		summarizer := workingSummarizer()

		_, err := New(st, summarizer, nil, Params{}).Run(ctx)
		require.NoError(t, err)
		res, err := st.Search(ctx, domain.SearchRequest{})
		require.NoError(t, err)
		doc := res.Articles[0]
		assert.InDelta(t, 0.0, doc.CategoryScore, 0)
		assert.Equal(t, "Health", doc.Category)
		assert.Equal(t, text(50), doc.SummaryText())
		assert.Empty(t, summarizer.SummarizeCalls())
	})
}
