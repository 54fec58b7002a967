// Package elastic implements article store on top of elasticsearch index
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsagg/pkg/domain"
)

// Mapping is the fixed field mapping of the articles index
const Mapping = `{
  "mappings": {
    "properties": {
      "title":          {"type": "text"},
      "content":        {"type": "text"},
      "summary":        {"type": "text"},
      "url":            {"type": "keyword"},
      "source":         {"type": "keyword"},
      "date":           {"type": "date"},
      "category":       {"type": "keyword"},
      "category_score": {"type": "float"},
      "author":         {"type": "keyword"}
    }
  }
}`

// ErrNotFound returned when document or index doesn't exist
var ErrNotFound = errors.New("not found")

// Config holds elasticsearch connection parameters
type Config struct {
	Addresses  []string
	CloudID    string
	Username   string
	Password   string
	Index      string
	Timeout    time.Duration
	MaxRetries int
	Transport  http.RoundTripper // optional, for tests
}

// Store keeps articles in elasticsearch index
type Store struct {
	client  *elasticsearch.Client
	index   string
	timeout time.Duration
}

// New makes elasticsearch store. It doesn't connect, use Ping to verify the connection.
func New(cfg Config) (*Store, error) {
	if cfg.Index == "" {
		cfg.Index = "news"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	esCfg := elasticsearch.Config{
		Username:      cfg.Username,
		Password:      cfg.Password,
		MaxRetries:    cfg.MaxRetries,
		RetryOnStatus: []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		Transport:     cfg.Transport,
	}
	if cfg.MaxRetries <= 0 {
		esCfg.DisableRetry = true
	}
	if cfg.CloudID != "" {
		esCfg.CloudID = cfg.CloudID
	} else {
		esCfg.Addresses = cfg.Addresses
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("make elasticsearch client: %w", err)
	}
	return &Store{client: client, index: cfg.Index, timeout: cfg.Timeout}, nil
}

// document is the stored representation of an article, id lives outside of the source
type document struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Description   string   `json:"description,omitempty"`
	URL           string   `json:"url"`
	Source        string   `json:"source"`
	Date          flexTime `json:"date"`
	Category      string   `json:"category"`
	CategoryScore float64  `json:"category_score"`
	Author        string   `json:"author"`
	Summary       *string  `json:"summary,omitempty"`
}

type hit struct {
	ID     string   `json:"_id"`
	Source document `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []hit `json:"hits"`
	} `json:"hits"`
}

// Ping checks the cluster is reachable and the credentials are valid
func (s *Store) Ping(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Info(s.client.Info.WithContext(ctx))
	}, nil)
}

// EnsureIndex creates the index with fixed mapping if it doesn't exist yet
func (s *Store) EnsureIndex(ctx context.Context) error {
	err := s.do(ctx, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	}, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}

	lgr.Printf("[INFO] creating index %s", s.index)
	err = s.do(ctx, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Indices.Create(s.index,
			s.client.Indices.Create.WithBody(strings.NewReader(Mapping)),
			s.client.Indices.Create.WithContext(ctx))
	}, nil)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	return nil
}

// Insert adds a new document, the id is assigned by elasticsearch
func (s *Store) Insert(ctx context.Context, article *domain.Article) (string, error) {
	body, err := json.Marshal(toDocument(article))
	if err != nil {
		return "", fmt.Errorf("marshal article: %w", err)
	}

	var resp struct {
		ID string `json:"_id"`
	}
	err = s.do(ctx, func(ctx context.Context) (*esapi.Response, error) {
		// refresh so the document is visible to search and url dedup right away
		return s.client.Index(s.index, bytes.NewReader(body), s.client.Index.WithRefresh("true"),
			s.client.Index.WithContext(ctx))
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("index article %q: %w", article.Title, err)
	}
	article.ID = resp.ID
	return resp.ID, nil
}

// ExistsByURL checks if any document has the given url
func (s *Store) ExistsByURL(ctx context.Context, url string) (bool, error) {
	body, err := json.Marshal(map[string]any{"query": map[string]any{"term": map[string]any{"url": url}}})
	if err != nil {
		return false, fmt.Errorf("marshal query: %w", err)
	}
	var resp struct {
		Count int64 `json:"count"`
	}
	err = s.do(ctx, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Count(s.client.Count.WithIndex(s.index), s.client.Count.WithBody(bytes.NewReader(body)),
			s.client.Count.WithContext(ctx))
	}, &resp)
	if err != nil {
		return false, fmt.Errorf("count by url: %w", err)
	}
	return resp.Count > 0, nil
}

// Unsummarized returns up to limit documents without summary field
func (s *Store) Unsummarized(ctx context.Context, limit int) ([]domain.Article, error) {
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must_not": map[string]any{"exists": map[string]any{"field": "summary"}},
			},
		},
		"size": limit,
	}
	res, err := s.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search unsummarized: %w", err)
	}
	return res.Articles, nil
}

// UpdateEnrichment sets summary and category fields of the document, other fields are untouched
func (s *Store) UpdateEnrichment(ctx context.Context, id string, enr domain.Enrichment) error {
	body, err := json.Marshal(map[string]any{
		"doc": map[string]any{
			"summary":        enr.Summary,
			"category":       enr.Category,
			"category_score": domain.ClampScore(enr.CategoryScore),
		},
	})
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	err = s.do(ctx, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Update(s.index, id, bytes.NewReader(body), s.client.Update.WithContext(ctx))
	}, nil)
	if err != nil {
		return fmt.Errorf("update document %s: %w", id, err)
	}
	return nil
}

// Search runs filtered query
func (s *Store) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	res, err := s.search(ctx, buildSearchQuery(req))
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	return res, nil
}

// FilterOptions returns distinct sources and categories with date boundaries
func (s *Store) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	query := map[string]any{
		"size": 0,
		"aggs": map[string]any{
			"sources":    map[string]any{"terms": map[string]any{"field": "source", "size": 100}},
			"categories": map[string]any{"terms": map[string]any{"field": "category", "size": 100}},
			"min_date":   map[string]any{"min": map[string]any{"field": "date"}},
			"max_date":   map[string]any{"max": map[string]any{"field": "date"}},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal aggregations: %w", err)
	}

	type bucket struct {
		Key string `json:"key"`
	}
	var resp struct {
		Aggregations struct {
			Sources struct {
				Buckets []bucket `json:"buckets"`
			} `json:"sources"`
			Categories struct {
				Buckets []bucket `json:"buckets"`
			} `json:"categories"`
			MinDate struct {
				Value *float64 `json:"value"`
			} `json:"min_date"`
			MaxDate struct {
				Value *float64 `json:"value"`
			} `json:"max_date"`
		} `json:"aggregations"`
	}
	err = s.do(ctx, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Search(s.client.Search.WithIndex(s.index), s.client.Search.WithBody(bytes.NewReader(body)),
			s.client.Search.WithContext(ctx))
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("aggregate filters: %w", err)
	}

	opts := &domain.FilterOptions{Sources: []string{}, Categories: []string{}}
	for _, b := range resp.Aggregations.Sources.Buckets {
		opts.Sources = append(opts.Sources, b.Key)
	}
	for _, b := range resp.Aggregations.Categories.Buckets {
		opts.Categories = append(opts.Categories, b.Key)
	}
	opts.MinDate = millisToTime(resp.Aggregations.MinDate.Value)
	opts.MaxDate = millisToTime(resp.Aggregations.MaxDate.Value)
	return opts, nil
}

// Count returns number of documents in the index
func (s *Store) Count(ctx context.Context) (int64, error) {
	var resp struct {
		Count int64 `json:"count"`
	}
	err := s.do(ctx, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Count(s.client.Count.WithIndex(s.index), s.client.Count.WithContext(ctx))
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return resp.Count, nil
}

// Close does nothing, the client has no persistent resources to release
func (s *Store) Close() error { return nil }

func (s *Store) search(ctx context.Context, query map[string]any) (*domain.SearchResult, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	var resp searchResponse
	err = s.do(ctx, func(ctx context.Context) (*esapi.Response, error) {
		return s.client.Search(s.client.Search.WithIndex(s.index), s.client.Search.WithBody(bytes.NewReader(body)),
			s.client.Search.WithTrackTotalHits(true), s.client.Search.WithContext(ctx))
	}, &resp)
	if err != nil {
		return nil, err
	}

	res := &domain.SearchResult{Articles: make([]domain.Article, 0, len(resp.Hits.Hits)), Total: resp.Hits.Total.Value}
	for _, h := range resp.Hits.Hits {
		res.Articles = append(res.Articles, toArticle(h.ID, h.Source))
	}
	return res, nil
}

// do runs request with timeout, checks response status and decodes body into out if provided
func (s *Store) do(ctx context.Context, req func(ctx context.Context) (*esapi.Response, error), out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := req(ctx)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, res.Body)
		return ErrNotFound
	}
	if res.IsError() {
		return responseError(res)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func responseError(res *esapi.Response) error {
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 64*1024))
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Reason != "" {
		return fmt.Errorf("elasticsearch %s: %s: %s", res.Status(), e.Error.Type, e.Error.Reason)
	}
	return fmt.Errorf("elasticsearch %s: %s", res.Status(), strings.TrimSpace(string(body)))
}

// buildSearchQuery makes query DSL for the search request
func buildSearchQuery(req domain.SearchRequest) map[string]any {
	var must []any
	if q := strings.TrimSpace(req.Query); q != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{"query": q, "fields": []string{"title^2", "content", "summary"}},
		})
	}
	if len(req.Sources) > 0 {
		must = append(must, map[string]any{"terms": map[string]any{"source": req.Sources}})
	}
	if len(req.Categories) > 0 {
		must = append(must, map[string]any{"terms": map[string]any{"category": req.Categories}})
	}
	if lower, upper := req.DateBounds(); !lower.IsZero() || !upper.IsZero() {
		rng := map[string]any{}
		if !lower.IsZero() {
			rng["gte"] = lower.Format(time.RFC3339)
		}
		if !upper.IsZero() {
			rng["lt"] = upper.Format(time.RFC3339)
		}
		must = append(must, map[string]any{"range": map[string]any{"date": rng}})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(must) > 0 {
		query = map[string]any{"bool": map[string]any{"must": must}}
	}

	var sort []any
	switch req.EffectiveSort() {
	case domain.SortOldest:
		sort = []any{map[string]any{"date": map[string]any{"order": "asc"}}}
	case domain.SortRelevance:
		sort = []any{"_score"}
	default:
		sort = []any{map[string]any{"date": map[string]any{"order": "desc"}}}
	}

	return map[string]any{"query": query, "sort": sort, "size": req.EffectiveLimit()}
}

func toDocument(a *domain.Article) document {
	return document{
		Title:         a.Title,
		Content:       a.Content,
		Description:   a.Description,
		URL:           a.URL,
		Source:        a.Source,
		Date:          flexTime(a.Date.UTC()),
		Category:      a.Category,
		CategoryScore: domain.ClampScore(a.CategoryScore),
		Author:        a.Author,
		Summary:       a.Summary,
	}
}

func toArticle(id string, d document) domain.Article {
	return domain.Article{
		ID:            id,
		Title:         d.Title,
		Content:       d.Content,
		Description:   d.Description,
		URL:           d.URL,
		Source:        d.Source,
		Date:          time.Time(d.Date),
		Category:      d.Category,
		CategoryScore: d.CategoryScore,
		Author:        d.Author,
		Summary:       d.Summary,
	}
}

func millisToTime(v *float64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.UnixMilli(int64(*v)).UTC()
	return &t
}
