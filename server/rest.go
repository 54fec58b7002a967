package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsagg/pkg/domain"
	"github.com/umputun/newsagg/pkg/scheduler"
)

const dateLayout = "2006-01-02"

// articlesResponse is a page of search results
type articlesResponse struct {
	Articles []domain.Article `json:"articles"`
	Total    int64            `json:"total"`
	Count    int              `json:"count"`
	Sort     domain.SortMode  `json:"sort"`
}

// statusResponse reports server and store state
type statusResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Time      time.Time         `json:"time"`
	Articles  int64             `json:"articles"`
	Error     string            `json:"error,omitempty"`
	Scheduler *scheduler.Status `json:"scheduler,omitempty"`
}

// articlesHandler searches articles by free text and filters
// GET /api/v1/articles?q=...&source=...&category=...&from=YYYY-MM-DD&to=YYYY-MM-DD&sort=newest|oldest|relevance&limit=N
func (s *Server) articlesHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r.URL.Query())
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	res, err := s.store.Search(r.Context(), req)
	if err != nil {
		lgr.Printf("[WARN] search failed: %v", err)
		renderError(w, r, fmt.Errorf("search failed: %w", err), http.StatusInternalServerError)
		return
	}

	articles := res.Articles
	if articles == nil {
		articles = []domain.Article{}
	}
	renderJSON(w, r, http.StatusOK, articlesResponse{
		Articles: articles,
		Total:    res.Total,
		Count:    len(articles),
		Sort:     req.EffectiveSort(),
	})
}

// filtersHandler returns distinct sources, categories and date range of stored articles
func (s *Server) filtersHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := s.store.FilterOptions(r.Context())
	if err != nil {
		lgr.Printf("[WARN] filter options failed: %v", err)
		renderError(w, r, fmt.Errorf("filter options failed: %w", err), http.StatusInternalServerError)
		return
	}
	renderJSON(w, r, http.StatusOK, opts)
}

// statusHandler returns server status, store unavailability reported as 503
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: "ok", Version: s.version, Time: time.Now().UTC()}
	if s.status != nil {
		st := s.status.Status()
		resp.Scheduler = &st
	}

	count, err := s.store.Count(r.Context())
	if err != nil {
		lgr.Printf("[WARN] store count failed: %v", err)
		resp.Status, resp.Error = "store unavailable", err.Error()
		renderJSON(w, r, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Articles = count
	renderJSON(w, r, http.StatusOK, resp)
}

// parseSearchRequest makes search request from query parameters, rejects malformed values
func parseSearchRequest(q url.Values) (domain.SearchRequest, error) {
	req := domain.SearchRequest{
		Query:      strings.TrimSpace(q.Get("q")),
		Sources:    nonEmpty(q["source"]),
		Categories: nonEmpty(q["category"]),
	}

	var err error
	if req.From, err = parseDate(q.Get("from")); err != nil {
		return req, fmt.Errorf("invalid from: %w", err)
	}
	if req.To, err = parseDate(q.Get("to")); err != nil {
		return req, fmt.Errorf("invalid to: %w", err)
	}
	if !req.From.IsZero() && !req.To.IsZero() && req.From.After(req.To) {
		return req, errors.New("from date is after to date")
	}

	if req.Sort, err = domain.ParseSortMode(q.Get("sort")); err != nil {
		return req, err
	}

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return req, fmt.Errorf("invalid limit %q", v)
		}
		req.Limit = limit
	}
	return req, nil
}

func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q, expected YYYY-MM-DD", v)
	}
	return t, nil
}

// nonEmpty returns trimmed non-empty values
func nonEmpty(vals []string) []string {
	var res []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}
