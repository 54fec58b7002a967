// Package content fetches article pages and extracts readable text with trafilatura
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"
)

// ErrNoContent returned when page has no extractable text
var ErrNoContent = errors.New("no content extracted")

const maxPageSize = 5 * 1024 * 1024

// Extractor extracts article text from URLs using trafilatura
type Extractor struct {
	client    *http.Client
	userAgent string
}

// NewExtractor creates content extractor with per-request timeout
func NewExtractor(timeout time.Duration, userAgent string) *Extractor {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; Newsagg/1.0)"
	}
	return &Extractor{client: &http.Client{Timeout: timeout}, userAgent: userAgent}
}

// Extract retrieves the page and returns its main text, trimmed
func (e *Extractor) Extract(ctx context.Context, pageURL string) (string, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	addBrowserHeaders(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, pageURL)
	}

	page, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", pageURL, err)
	}

	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		IncludeImages:   false,
		IncludeLinks:    false,
		Deduplicate:     true,
		OriginalURL:     parsedURL,
	}
	result, err := trafilatura.Extract(bytes.NewReader(page), opts)
	if err == nil && result != nil && strings.TrimSpace(result.ContentText) != "" {
		return strings.TrimSpace(result.ContentText), nil
	}

	// short pages often fail trafilatura heuristics, collect paragraphs directly
	text, perr := paragraphs(page)
	if perr != nil {
		return "", fmt.Errorf("extract content from %s: %w", pageURL, perr)
	}
	if text == "" {
		return "", fmt.Errorf("%s: %w", pageURL, ErrNoContent)
	}
	return text, nil
}

// paragraphs joins text of <p> elements, preferring those inside <article>
func paragraphs(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	sel := doc.Find("article p")
	if sel.Length() == 0 {
		sel = doc.Find("p")
	}
	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, p *goquery.Selection) {
		if txt := strings.Join(strings.Fields(p.Text()), " "); txt != "" {
			parts = append(parts, txt)
		}
	})
	return strings.Join(parts, "\n"), nil
}
