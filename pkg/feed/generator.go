// Package feed renders stored articles as RSS 2.0 export
package feed

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/umputun/newsagg/pkg/domain"
)

// Generator creates RSS feeds from articles
type Generator struct {
	baseURL string
	now     func() time.Time
}

// NewGenerator creates a new feed generator
func NewGenerator(baseURL string) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// GenerateRSS creates an RSS 2.0 feed from articles, category is empty for all categories
func (g *Generator) GenerateRSS(articles []domain.Article, category string) (string, error) {
	title := "Newsagg - All Categories"
	selfLink := g.baseURL + "/rss"
	if category != "" {
		title = "Newsagg - " + category
		selfLink = g.baseURL + "/rss/" + url.PathEscape(category)
	}

	items := make([]Item, 0, len(articles))
	for _, a := range articles {
		items = append(items, g.makeItem(a))
	}

	rss := RSS{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: Channel{
			Title:         title,
			Link:          g.baseURL + "/",
			Description:   "Summarized and categorized top headlines",
			Language:      "en",
			SelfLink:      AtomLink{Href: selfLink, Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: g.now().UTC().Format(time.RFC1123Z),
			Items:         items,
		},
	}

	output, err := xml.MarshalIndent(rss, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}
	return xml.Header + string(output), nil
}

// makeItem converts article to feed item, summary is preferred over description
func (g *Generator) makeItem(a domain.Article) Item {
	desc := a.SummaryText()
	if desc == "" {
		desc = a.Description
	}
	if a.CategoryScore > 0 {
		desc = fmt.Sprintf("%s (%.0f%%)\n\n%s", a.Category, a.CategoryScore*100, desc)
	}

	guid := GUID{Value: a.URL, IsPermaLink: true}
	if a.URL == "" {
		guid = GUID{Value: "newsagg:" + a.ID}
	}

	item := Item{
		Title:       a.Title,
		Link:        a.URL,
		GUID:        guid,
		Description: strings.TrimSpace(desc),
		PubDate:     a.Date.UTC().Format(time.RFC1123Z),
		Source:      a.Source,
		Category:    a.Category,
	}
	if a.Author != domain.DefaultAuthor {
		item.Author = a.Author
	}
	return item
}
