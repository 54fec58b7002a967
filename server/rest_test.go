package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsagg/pkg/domain"
	"github.com/umputun/newsagg/pkg/enrich"
	"github.com/umputun/newsagg/pkg/ingest"
	"github.com/umputun/newsagg/pkg/scheduler"
	"github.com/umputun/newsagg/server/mocks"
)

func TestServer_articlesHandler(t *testing.T) {
	summary := "Rates unchanged."
	store := &mocks.StoreMock{
		SearchFunc: func(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
			return &domain.SearchResult{
				Articles: []domain.Article{{ID: "1", Title: "Fed holds rates", Source: "Reuters", Category: "Business",
					Date: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), Summary: &summary}},
				Total: 7,
			}, nil
		},
	}
	srv := New(testConfig(":8080"), store, nil, "1.0.0", false)

	req := httptest.NewRequest("GET",
		"/api/v1/articles?q=fed+rates&source=Reuters&source=BBC&category=Business&from=2024-03-01&to=2024-03-02&sort=relevance&limit=5",
		http.NoBody)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp articlesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.Total)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, domain.SortRelevance, resp.Sort)
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, "Fed holds rates", resp.Articles[0].Title)
	assert.Equal(t, "Rates unchanged.", resp.Articles[0].SummaryText())

	require.Len(t, store.SearchCalls(), 1)
	got := store.SearchCalls()[0].Req
	assert.Equal(t, "fed rates", got.Query)
	assert.Equal(t, []string{"Reuters", "BBC"}, got.Sources)
	assert.Equal(t, []string{"Business"}, got.Categories)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got.From)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), got.To)
	assert.Equal(t, domain.SortRelevance, got.Sort)
	assert.Equal(t, 5, got.Limit)
}

func TestServer_articlesHandlerEmpty(t *testing.T) {
	store := &mocks.StoreMock{
		SearchFunc: func(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
			return &domain.SearchResult{}, nil
		},
	}
	srv := New(testConfig(":8080"), store, nil, "1.0.0", false)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/articles?sort=relevance", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"articles":[],"total":0,"count":0,"sort":"newest"}`, w.Body.String(),
		"relevance without query falls back to newest")
}

func TestServer_articlesHandlerErrors(t *testing.T) {
	store := &mocks.StoreMock{
		SearchFunc: func(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
			if req.Query == "boom" {
				return nil, errors.New("connection refused")
			}
			return &domain.SearchResult{}, nil
		},
	}
	srv := New(testConfig(":8080"), store, nil, "1.0.0", false)

	tbl := []struct {
		name  string
		query string
		code  int
		err   string
	}{
		{"bad from", "from=01-03-2024", http.StatusBadRequest, "invalid from"},
		{"bad to", "to=yesterday", http.StatusBadRequest, "invalid to"},
		{"reversed range", "from=2024-03-05&to=2024-03-01", http.StatusBadRequest, "from date is after to date"},
		{"bad sort", "sort=popular", http.StatusBadRequest, "unknown sort mode"},
		{"bad limit", "limit=ten", http.StatusBadRequest, "invalid limit"},
		{"negative limit", "limit=-1", http.StatusBadRequest, "invalid limit"},
		{"store failure", "q=boom", http.StatusInternalServerError, "connection refused"},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/articles?"+tt.query, http.NoBody))
			assert.Equal(t, tt.code, w.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp["error"], tt.err)
		})
	}
	assert.Len(t, store.SearchCalls(), 1, "invalid requests never reach the store")
}

func TestParseSearchRequest(t *testing.T) {
	tbl := []struct {
		name  string
		query string
		want  domain.SearchRequest
	}{
		{"empty", "", domain.SearchRequest{Sort: domain.SortNewest}},
		{"trimmed query", "q=++climate+", domain.SearchRequest{Query: "climate", Sort: domain.SortNewest}},
		{"blank filters skipped", "source=&source=+BBC+&category=",
			domain.SearchRequest{Sources: []string{"BBC"}, Sort: domain.SortNewest}},
		{"same day range", "from=2024-03-01&to=2024-03-01", domain.SearchRequest{Sort: domain.SortNewest,
			From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}},
		{"oldest", "sort=OLDEST", domain.SearchRequest{Sort: domain.SortOldest}},
		{"zero limit", "limit=0", domain.SearchRequest{Sort: domain.SortNewest}},
		{"big limit kept, clamped by store", "limit=1000", domain.SearchRequest{Sort: domain.SortNewest, Limit: 1000}},
	}
	for _, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got, err := parseSearchRequest(q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServer_filtersHandler(t *testing.T) {
	minDate := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	maxDate := time.Date(2024, 3, 3, 20, 0, 0, 0, time.UTC)
	store := &mocks.StoreMock{
		FilterOptionsFunc: func(ctx context.Context) (*domain.FilterOptions, error) {
			return &domain.FilterOptions{Sources: []string{"BBC", "Reuters"}, Categories: []string{"Business"},
				MinDate: &minDate, MaxDate: &maxDate}, nil
		},
	}
	srv := New(testConfig(":8080"), store, nil, "1.0.0", false)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/filters", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sources":["BBC","Reuters"],"categories":["Business"],
		"min_date":"2024-03-01T08:00:00Z","max_date":"2024-03-03T20:00:00Z"}`, w.Body.String())

	t.Run("empty store", func(t *testing.T) {
		store.FilterOptionsFunc = func(ctx context.Context) (*domain.FilterOptions, error) {
			return &domain.FilterOptions{Sources: []string{}, Categories: []string{}}, nil
		}
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/filters", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"sources":[],"categories":[]}`, w.Body.String())
	})

	t.Run("store error", func(t *testing.T) {
		store.FilterOptionsFunc = func(ctx context.Context) (*domain.FilterOptions, error) {
			return nil, errors.New("index missing")
		}
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/filters", http.NoBody))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "index missing")
	})
}

func TestServer_statusHandler(t *testing.T) {
	store := &mocks.StoreMock{CountFunc: func(ctx context.Context) (int64, error) { return 42, nil }}

	t.Run("without scheduler", func(t *testing.T) {
		srv := New(testConfig(":8080"), store, nil, "1.2.3", false)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/status", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp["status"])
		assert.Equal(t, "1.2.3", resp["version"])
		assert.InDelta(t, 42, resp["articles"], 0)
		assert.NotContains(t, resp, "scheduler")
	})

	t.Run("with scheduler", func(t *testing.T) {
		status := &mocks.StatusProviderMock{StatusFunc: func() scheduler.Status {
			return scheduler.Status{Runs: 3, Ingest: ingest.Stats{Accepted: 10}, Enrich: enrich.Stats{Summarized: 8}}
		}}
		srv := New(testConfig(":8080"), store, status, "1.2.3", false)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/status", http.NoBody))
		require.Equal(t, http.StatusOK, w.Code)

		var resp statusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Scheduler)
		assert.Equal(t, 3, resp.Scheduler.Runs)
		assert.Equal(t, 10, resp.Scheduler.Ingest.Accepted)
		assert.Equal(t, 8, resp.Scheduler.Enrich.Summarized)
		assert.Len(t, status.StatusCalls(), 1)
	})

	t.Run("store unavailable", func(t *testing.T) {
		failing := &mocks.StoreMock{CountFunc: func(ctx context.Context) (int64, error) {
			return 0, errors.New("no route to host")
		}}
		srv := New(testConfig(":8080"), failing, nil, "1.2.3", false)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/status", http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp statusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "store unavailable", resp.Status)
		assert.Equal(t, "no route to host", resp.Error)
	})
}
