// Package ingest pulls top headlines per category, validates and normalizes them
// and stores accepted articles. Failures are contained per category and per article.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsagg/pkg/domain"
	"github.com/umputun/newsagg/pkg/headlines"
)

//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/feed.go -pkg mocks -skip-ensure -fmt goimports . Feed
//go:generate moq -out mocks/extractor.go -pkg mocks -skip-ensure -fmt goimports . Extractor

// Store is the subset of document store used by ingestion
type Store interface {
	Insert(ctx context.Context, article *domain.Article) (string, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
}

// Feed returns top headlines for a category
type Feed interface {
	TopHeadlines(ctx context.Context, category string) ([]headlines.Headline, error)
}

// Extractor fetches full article text by url
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Params defines connector parameters
type Params struct {
	Categories []string
	DedupByURL bool             // skip articles with url already stored
	Now        func() time.Time // clock for default article date, time.Now if nil
}

// Connector runs one ingestion pass over configured categories
type Connector struct {
	Params
	store     Store
	feed      Feed
	extractor Extractor // optional, nil disables extraction of short content
}

// Stats summarizes an ingestion run
type Stats struct {
	Fetched          int `json:"fetched"`           // records returned by feed
	Accepted         int `json:"accepted"`          // records stored
	Rejected         int `json:"rejected"`          // records failed validation or skipped as duplicates
	Failed           int `json:"failed"`            // records failed to store
	CategoriesFailed int `json:"categories_failed"` // categories the feed failed for
}

func (s Stats) String() string {
	return fmt.Sprintf("fetched:%d, accepted:%d, rejected:%d, failed:%d, categories failed:%d",
		s.Fetched, s.Accepted, s.Rejected, s.Failed, s.CategoriesFailed)
}

// New makes ingestion connector, extractor can be nil
func New(store Store, feed Feed, extractor Extractor, params Params) *Connector {
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Connector{Params: params, store: store, feed: feed, extractor: extractor}
}

// Run fetches all categories sequentially and stores valid articles.
// Returns error only if context canceled, all other failures are logged and counted.
func (c *Connector) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	for _, category := range c.Categories {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("ingestion interrupted: %w", err)
		}
		c.runCategory(ctx, category, &stats)
	}
	lgr.Printf("[INFO] ingestion completed, %s", stats)
	return stats, nil
}

func (c *Connector) runCategory(ctx context.Context, category string, stats *Stats) {
	items, err := c.feed.TopHeadlines(ctx, category)
	if err != nil {
		lgr.Printf("[WARN] failed to fetch %s headlines: %v", category, err)
		stats.CategoriesFailed++
		return
	}
	lgr.Printf("[DEBUG] fetched %d headlines for %s", len(items), category)
	stats.Fetched += len(items)

	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		item = c.expandContent(ctx, item)
		article, reason := Normalize(item, category, c.Now())
		if article == nil {
			lgr.Printf("[DEBUG] rejected %q from %s: %s", item.Title, category, reason)
			stats.Rejected++
			continue
		}

		if c.DedupByURL && article.URL != "" {
			exists, err := c.store.ExistsByURL(ctx, article.URL)
			if err != nil {
				lgr.Printf("[WARN] failed to check %s: %v", article.URL, err)
			}
			if exists {
				lgr.Printf("[DEBUG] skip known url %s", article.URL)
				stats.Rejected++
				continue
			}
		}

		id, err := c.store.Insert(ctx, article)
		if err != nil {
			lgr.Printf("[WARN] failed to store %q: %v", article.Title, err)
			stats.Failed++
			continue
		}
		lgr.Printf("[DEBUG] stored %s %q", id, article.Title)
		stats.Accepted++
	}
}

// expandContent replaces short feed content with extracted page text when extractor is set
func (c *Connector) expandContent(ctx context.Context, item headlines.Headline) headlines.Headline {
	if c.extractor == nil || item.URL == "" || domain.ContentLength(feedContent(item)) >= domain.MinContentLength {
		return item
	}
	text, err := c.extractor.Extract(ctx, item.URL)
	if err != nil {
		lgr.Printf("[DEBUG] can't extract %s: %v", item.URL, err)
		return item
	}
	if domain.ContentLength(text) > domain.ContentLength(feedContent(item)) {
		item.Content = text
	}
	return item
}

// Normalize validates a feed record and maps it to article.
// Returns nil article and rejection reason if the record is not acceptable.
func Normalize(item headlines.Headline, category string, now time.Time) (article *domain.Article, reason string) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil, "empty title"
	}
	content := feedContent(item)
	if content == "" {
		return nil, "empty content"
	}
	if n := domain.ContentLength(content); n < domain.MinContentLength {
		return nil, fmt.Sprintf("content too short, %d chars", n)
	}

	date := item.PublishedAt
	if date.IsZero() {
		date = now
	}
	return &domain.Article{
		Title:       title,
		Content:     content,
		Description: strings.TrimSpace(item.Description),
		URL:         strings.TrimSpace(item.URL),
		Source:      domain.OrDefault(item.SourceName, domain.DefaultSource),
		Date:        date.UTC(),
		Category:    domain.TitleCase(category),
		Author:      domain.OrDefault(item.Author, domain.DefaultAuthor),
	}, ""
}

// feedContent returns trimmed content falling back to description
func feedContent(item headlines.Headline) string {
	if content := strings.TrimSpace(item.Content); content != "" {
		return content
	}
	return strings.TrimSpace(item.Description)
}
