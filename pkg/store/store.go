// Package store provides the document store holding articles. Two backends are supported:
// elasticsearch for production and embedded sqlite (FTS5) for local runs and tests.
// Both implement the same Store interface and are selected by configuration.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/umputun/newsagg/pkg/domain"
	"github.com/umputun/newsagg/pkg/store/elastic"
	"github.com/umputun/newsagg/pkg/store/sqlite"
)

// Store is the full set of document operations used by the ingestion, enrichment and query layers
type Store interface {
	EnsureIndex(ctx context.Context) error
	Insert(ctx context.Context, article *domain.Article) (string, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
	Unsummarized(ctx context.Context, limit int) ([]domain.Article, error)
	UpdateEnrichment(ctx context.Context, id string, enr domain.Enrichment) error
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
	FilterOptions(ctx context.Context) (*domain.FilterOptions, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Config defines backend selection and connection parameters
type Config struct {
	Backend string // elastic or sqlite
	Index   string

	Elastic elastic.Config
	SQLite  sqlite.Config
}

// compile-time checks
var (
	_ Store = (*elastic.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// New makes a store for configured backend and makes sure the index exists
func New(ctx context.Context, cfg Config) (Store, error) {
	var st Store
	switch cfg.Backend {
	case "elastic", "":
		ecfg := cfg.Elastic
		ecfg.Index = cfg.Index
		es, err := elastic.New(ecfg)
		if err != nil {
			return nil, fmt.Errorf("make elastic store: %w", err)
		}
		st = es
	case "sqlite":
		scfg := cfg.SQLite
		scfg.Table = cfg.Index
		sq, err := sqlite.New(ctx, scfg)
		if err != nil {
			return nil, fmt.Errorf("make sqlite store: %w", err)
		}
		st = sq
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := st.Ping(pingCtx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("ping %s store: %w", cfg.Backend, err)
	}

	if err := st.EnsureIndex(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("ensure index %s: %w", cfg.Index, err)
	}
	return st, nil
}
