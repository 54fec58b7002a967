package server

import (
	"net/http"
	"strconv"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsagg/pkg/domain"
	"github.com/umputun/newsagg/pkg/feed"
)

const defaultRSSLimit = 50

// rssHandler serves RSS feed of latest articles
// Supports both /rss/{category} and /rss?category=... patterns
func (s *Server) rssHandler(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	if category == "" {
		category = r.URL.Query().Get("category")
	}
	if category != "" {
		category = domain.TitleCase(category)
	}

	limit := defaultRSSLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	req := domain.SearchRequest{Sort: domain.SortNewest, Limit: limit}
	if category != "" {
		req.Categories = []string{category}
	}
	res, err := s.store.Search(r.Context(), req)
	if err != nil {
		lgr.Printf("[ERROR] failed to get articles for RSS: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	rss, err := feed.NewGenerator(s.config.GetBaseURL()).GenerateRSS(res.Articles, category)
	if err != nil {
		lgr.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		lgr.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}
