// Package sqlite implements article store on embedded sqlite with FTS5 full-text index.
// It mirrors elasticsearch store semantics and used for local runs without a cluster.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/umputun/newsagg/pkg/domain"
)

//go:embed schema.sql
var schemaTmpl string

// ErrNotFound returned when article with given id doesn't exist
var ErrNotFound = errors.New("not found")

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config represents database configuration
type Config struct {
	DSN          string
	MaxOpenConns int
	Table        string
}

// Store keeps articles in sqlite table
type Store struct {
	db    *sqlx.DB
	table string
}

type articleRow struct {
	ID            int64          `db:"id"`
	Title         string         `db:"title"`
	Content       string         `db:"content"`
	Description   string         `db:"description"`
	URL           string         `db:"url"`
	Source        string         `db:"source"`
	Date          int64          `db:"date"`
	Category      string         `db:"category"`
	CategoryScore float64        `db:"category_score"`
	Author        string         `db:"author"`
	Summary       sql.NullString `db:"summary"`
}

// New opens the database and applies connection settings
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:newsagg.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if cfg.Table == "" {
		cfg.Table = "news"
	}
	if !tableNameRe.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}

	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000", // 5 second timeout for locks
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return &Store{db: db, table: cfg.Table}, nil
}

// EnsureIndex creates table, full-text index and triggers if missing
func (s *Store) EnsureIndex(ctx context.Context) error {
	schema := strings.ReplaceAll(schemaTmpl, "{{table}}", s.table)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Insert adds a new article, returns the assigned id
func (s *Store) Insert(ctx context.Context, article *domain.Article) (string, error) {
	row := toRow(article)
	query := fmt.Sprintf(`INSERT INTO %s (title, content, description, url, source, date, category, category_score, author, summary)
		VALUES (:title, :content, :description, :url, :source, :date, :category, :category_score, :author, :summary)`, s.table)

	var id int64
	err := s.withRetry(ctx, func() error {
		res, err := s.db.NamedExecContext(ctx, query, row)
		if err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("get insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	article.ID = strconv.FormatInt(id, 10)
	return article.ID, nil
}

// ExistsByURL checks if an article with the url is already stored
func (s *Store) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE url = ?)", s.table)
	if err := s.db.GetContext(ctx, &exists, query, url); err != nil {
		return false, fmt.Errorf("check url exists: %w", err)
	}
	return exists, nil
}

// Unsummarized returns up to limit articles without summary, oldest inserts first
func (s *Store) Unsummarized(ctx context.Context, limit int) ([]domain.Article, error) {
	query := fmt.Sprintf("SELECT * FROM %s WHERE summary IS NULL ORDER BY id LIMIT ?", s.table)
	var rows []articleRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("get unsummarized articles: %w", err)
	}
	return toArticles(rows), nil
}

// UpdateEnrichment sets summary, category and score of the article
func (s *Store) UpdateEnrichment(ctx context.Context, id string, enr domain.Enrichment) error {
	rowID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid article id %q: %w", id, err)
	}
	query := fmt.Sprintf("UPDATE %s SET summary = ?, category = ?, category_score = ? WHERE id = ?", s.table)

	return s.withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, enr.Summary, enr.Category, domain.ClampScore(enr.CategoryScore), rowID)
		if err != nil {
			return fmt.Errorf("update enrichment: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("article %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Search runs filtered query, free text goes through FTS5 with bm25 ranking
func (s *Store) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	countQuery, countArgs, err := s.searchBuilder(req, "COUNT(*)").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err = s.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	sb := s.searchBuilder(req, "a.*").Limit(uint64(req.EffectiveLimit())) //nolint:gosec // limit is bounded positive
	switch req.EffectiveSort() {
	case domain.SortOldest:
		sb = sb.OrderBy("a.date ASC", "a.id ASC")
	case domain.SortRelevance:
		sb = sb.OrderBy(fmt.Sprintf("bm25(%s_fts, 2.0, 1.0, 1.0)", s.table), "a.date DESC")
	default:
		sb = sb.OrderBy("a.date DESC", "a.id DESC")
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}
	var rows []articleRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	return &domain.SearchResult{Articles: toArticles(rows), Total: total}, nil
}

// searchBuilder makes select with FROM and WHERE parts shared by count and search queries
func (s *Store) searchBuilder(req domain.SearchRequest, columns ...string) sq.SelectBuilder {
	sb := sq.Select(columns...)
	if match := ftsQuery(req.Query); match != "" {
		fts := s.table + "_fts"
		sb = sb.From(fts).
			Join(fmt.Sprintf("%s a ON a.id = %s.rowid", s.table, fts)).
			Where(fts+" MATCH ?", match)
	} else {
		sb = sb.From(s.table + " a")
	}
	if len(req.Sources) > 0 {
		sb = sb.Where(sq.Eq{"a.source": req.Sources})
	}
	if len(req.Categories) > 0 {
		sb = sb.Where(sq.Eq{"a.category": req.Categories})
	}
	lower, upper := req.DateBounds()
	if !lower.IsZero() {
		sb = sb.Where(sq.GtOrEq{"a.date": lower.Unix()})
	}
	if !upper.IsZero() {
		sb = sb.Where(sq.Lt{"a.date": upper.Unix()})
	}
	return sb
}

// ftsQuery turns free text into FTS5 expression matching any of the terms.
// Each term is quoted so user input can't inject FTS syntax.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, `""`)
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// FilterOptions returns sources and categories ordered by popularity, along with date range
func (s *Store) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	opts := &domain.FilterOptions{Sources: []string{}, Categories: []string{}}

	distinct := "SELECT %[1]s FROM %[2]s GROUP BY %[1]s ORDER BY COUNT(*) DESC, %[1]s LIMIT 100"
	if err := s.db.SelectContext(ctx, &opts.Sources, fmt.Sprintf(distinct, "source", s.table)); err != nil {
		return nil, fmt.Errorf("get sources: %w", err)
	}
	if err := s.db.SelectContext(ctx, &opts.Categories, fmt.Sprintf(distinct, "category", s.table)); err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	if opts.Sources == nil {
		opts.Sources = []string{}
	}
	if opts.Categories == nil {
		opts.Categories = []string{}
	}

	var bounds struct {
		Min sql.NullInt64 `db:"min_date"`
		Max sql.NullInt64 `db:"max_date"`
	}
	query := fmt.Sprintf("SELECT MIN(date) AS min_date, MAX(date) AS max_date FROM %s", s.table)
	if err := s.db.GetContext(ctx, &bounds, query); err != nil {
		return nil, fmt.Errorf("get date range: %w", err)
	}
	if bounds.Min.Valid {
		t := time.Unix(bounds.Min.Int64, 0).UTC()
		opts.MinDate = &t
	}
	if bounds.Max.Valid {
		t := time.Unix(bounds.Max.Int64, 0).UTC()
		opts.MaxDate = &t
	}
	return opts, nil
}

// Count returns number of stored articles
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+s.table); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// Ping verifies the database connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// withRetry runs write operation retrying on sqlite lock errors only
func (s *Store) withRetry(ctx context.Context, fn func() error) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		if err := fn(); err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: err}
		}
		return nil
	}, errCritical)

	var ce *criticalError
	if errors.As(err, &ce) {
		return ce.err
	}
	return err
}

var errCritical = errors.New("critical")

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string        { return e.err.Error() }
func (e *criticalError) Unwrap() error        { return e.err }
func (e *criticalError) Is(target error) bool { return target == errCritical }

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}

func toRow(a *domain.Article) articleRow {
	row := articleRow{
		Title:         a.Title,
		Content:       a.Content,
		Description:   a.Description,
		URL:           a.URL,
		Source:        a.Source,
		Date:          a.Date.Unix(),
		Category:      a.Category,
		CategoryScore: domain.ClampScore(a.CategoryScore),
		Author:        a.Author,
	}
	if a.Summary != nil {
		row.Summary = sql.NullString{String: *a.Summary, Valid: true}
	}
	return row
}

func toArticles(rows []articleRow) []domain.Article {
	res := make([]domain.Article, 0, len(rows))
	for _, r := range rows {
		a := domain.Article{
			ID:            strconv.FormatInt(r.ID, 10),
			Title:         r.Title,
			Content:       r.Content,
			Description:   r.Description,
			URL:           r.URL,
			Source:        r.Source,
			Date:          time.Unix(r.Date, 0).UTC(),
			Category:      r.Category,
			CategoryScore: r.CategoryScore,
			Author:        r.Author,
		}
		if r.Summary.Valid {
			summary := r.Summary.String
			a.Summary = &summary
		}
		res = append(res, a)
	}
	return res
}
