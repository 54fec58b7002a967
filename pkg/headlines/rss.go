package headlines

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSParams defines RSS client parameters
type RSSParams struct {
	Feeds     map[string]string // category -> feed url
	PageSize  int
	Timeout   time.Duration
	UserAgent string
}

// RSS fetches headlines from RSS/Atom feeds, one feed per category
type RSS struct {
	RSSParams
	client *http.Client
}

// NewRSS makes RSS client
func NewRSS(params RSSParams) *RSS {
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.Timeout == 0 {
		params.Timeout = 30 * time.Second
	}
	if params.UserAgent == "" {
		params.UserAgent = "Newsagg/1.0"
	}
	return &RSS{
		RSSParams: params,
		client: &http.Client{
			Timeout: params.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// TopHeadlines returns up to PageSize items of the category feed, html stripped
func (r *RSS) TopHeadlines(ctx context.Context, category string) ([]Headline, error) {
	feedURL, ok := r.Feeds[category]
	if !ok {
		return nil, fmt.Errorf("no feed for category %q", category)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.UserAgent)
	addFeedHeaders(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed %s: unexpected status code %d", feedURL, resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	res := make([]Headline, 0, min(len(feed.Items), r.PageSize))
	for _, item := range feed.Items {
		if len(res) >= r.PageSize {
			break
		}
		h := Headline{
			Title:       plainText(item.Title),
			Description: plainText(item.Description),
			Content:     plainText(item.Content),
			URL:         item.Link,
			SourceName:  feed.Title,
		}
		if item.Author != nil {
			h.Author = item.Author.Name
		}
		if item.PublishedParsed != nil {
			h.PublishedAt = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			h.PublishedAt = item.UpdatedParsed.UTC()
		}
		res = append(res, h)
	}
	return res, nil
}
