package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsagg/pkg/domain"
	"github.com/umputun/newsagg/server/mocks"
)

func TestServer_rssHandler(t *testing.T) {
	summary := "Shares rallied after earnings."
	store := &mocks.StoreMock{
		SearchFunc: func(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
			return &domain.SearchResult{Articles: []domain.Article{{
				ID: "1", Title: "Stocks up", URL: "https://news.example.com/stocks", Source: "Reuters",
				Date: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), Category: "Business", CategoryScore: 0.9,
				Summary: &summary,
			}}, Total: 1}, nil
		},
	}
	srv := New(testConfig(":8080"), store, nil, "1.0.0", false)

	tbl := []struct {
		name     string
		path     string
		category []string
		limit    int
		selfLink string
		title    string
	}{
		{"all", "/rss", nil, defaultRSSLimit, "https://news.example.com/rss", "Newsagg - All Categories"},
		{"path category", "/rss/business", []string{"Business"}, defaultRSSLimit,
			"https://news.example.com/rss/Business", "Newsagg - Business"},
		{"query category and limit", "/rss?category=health&limit=5", []string{"Health"}, 5,
			"https://news.example.com/rss/Health", "Newsagg - Health"},
		{"bad limit ignored", "/rss?limit=abc", nil, defaultRSSLimit, "https://news.example.com/rss", "Newsagg - All Categories"},
	}
	for i, tt := range tbl {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, httptest.NewRequest("GET", tt.path, http.NoBody))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/rss+xml; charset=utf-8", w.Header().Get("Content-Type"))

			body := w.Body.String()
			assert.Contains(t, body, "<title>"+tt.title+"</title>")
			assert.Contains(t, body, `href="`+tt.selfLink+`"`)
			assert.Contains(t, body, "<title>Stocks up</title>")

			require.Len(t, store.SearchCalls(), i+1)
			req := store.SearchCalls()[i].Req
			assert.Equal(t, tt.category, req.Categories)
			assert.Equal(t, tt.limit, req.Limit)
			assert.Equal(t, domain.SortNewest, req.Sort)
		})
	}
}

func TestServer_rssHandlerError(t *testing.T) {
	store := &mocks.StoreMock{
		SearchFunc: func(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
			return nil, errors.New("timeout")
		},
	}
	srv := New(testConfig(":8080"), store, nil, "1.0.0", false)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/rss", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to generate RSS feed")
}
