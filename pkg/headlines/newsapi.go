package headlines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-pkgz/lgr"
)

// ErrAPI is returned when feed responds with non-ok status
var ErrAPI = errors.New("headlines api error")

// NewsAPIParams defines NewsAPI client parameters
type NewsAPIParams struct {
	Endpoint string // full top-headlines url
	APIKey   string
	Language string
	Country  string
	PageSize int
	Timeout  time.Duration
}

// NewsAPI fetches top headlines per category from newsapi.org compatible endpoint
type NewsAPI struct {
	NewsAPIParams
	client *http.Client
}

type newsAPIResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// NewNewsAPI makes NewsAPI client
func NewNewsAPI(params NewsAPIParams) *NewsAPI {
	if params.Endpoint == "" {
		params.Endpoint = "https://newsapi.org/v2/top-headlines"
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.Timeout == 0 {
		params.Timeout = 30 * time.Second
	}
	return &NewsAPI{NewsAPIParams: params, client: &http.Client{Timeout: params.Timeout}}
}

// TopHeadlines returns top headlines for the category
func (n *NewsAPI) TopHeadlines(ctx context.Context, category string) ([]Headline, error) {
	u, err := url.Parse(n.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("category", category)
	if n.Language != "" {
		q.Set("language", n.Language)
	}
	if n.Country != "" {
		q.Set("country", n.Country)
	}
	q.Set("pageSize", strconv.Itoa(n.PageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", n.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s headlines: %w", category, err)
	}
	defer resp.Body.Close()

	var body newsAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10*1024*1024)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode %s headlines, status %d: %w", category, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" {
		return nil, fmt.Errorf("%w: status %d, %s: %s", ErrAPI, resp.StatusCode, body.Code, body.Message)
	}

	res := make([]Headline, 0, len(body.Articles))
	for _, a := range body.Articles {
		h := Headline{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			Author:      a.Author,
			SourceName:  a.Source.Name,
		}
		if a.PublishedAt != "" {
			ts, err := time.Parse(time.RFC3339, a.PublishedAt)
			if err != nil {
				lgr.Printf("[DEBUG] can't parse publishedAt %q of %s: %v", a.PublishedAt, a.URL, err)
			} else {
				h.PublishedAt = ts.UTC()
			}
		}
		res = append(res, h)
	}
	lgr.Printf("[DEBUG] got %d of %d %s headlines", len(res), body.TotalResults, category)
	return res, nil
}
