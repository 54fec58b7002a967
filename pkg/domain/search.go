package domain

import (
	"fmt"
	"strings"
	"time"
)

// SortMode defines order of search results
type SortMode string

// supported sort modes
const (
	SortNewest    SortMode = "newest"
	SortOldest    SortMode = "oldest"
	SortRelevance SortMode = "relevance"
)

// ParseSortMode converts user input to SortMode, empty means newest first
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortRelevance:
		return SortRelevance, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q", s)
	}
}

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// SearchRequest describes a filtered query over articles.
// Zero From/To mean unbounded, both are days and To is inclusive.
type SearchRequest struct {
	Query      string
	Sources    []string
	Categories []string
	From       time.Time
	To         time.Time
	Sort       SortMode
	Limit      int
}

// EffectiveSort returns the sort mode actually applied, relevance requires a free-text query
func (r SearchRequest) EffectiveSort() SortMode {
	switch r.Sort {
	case SortOldest:
		return SortOldest
	case SortRelevance:
		if strings.TrimSpace(r.Query) != "" {
			return SortRelevance
		}
		return SortNewest
	default:
		return SortNewest
	}
}

// EffectiveLimit returns limit bounded by MaxSearchLimit with default for unset
func (r SearchRequest) EffectiveLimit() int {
	switch {
	case r.Limit <= 0:
		return DefaultSearchLimit
	case r.Limit > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return r.Limit
	}
}

// DateBounds returns half-open [lower, upper) range covering From..To days inclusively.
// Zero values mean no bound on that side.
func (r SearchRequest) DateBounds() (lower, upper time.Time) {
	if !r.From.IsZero() {
		lower = startOfDay(r.From)
	}
	if !r.To.IsZero() {
		upper = startOfDay(r.To).AddDate(0, 0, 1)
	}
	return lower, upper
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SearchResult holds a page of matched articles and the total number of matches
type SearchResult struct {
	Articles []Article `json:"articles"`
	Total    int64     `json:"total"`
}

// FilterOptions lists values available for filtering, used to populate option lists
type FilterOptions struct {
	Sources    []string   `json:"sources"`
	Categories []string   `json:"categories"`
	MinDate    *time.Time `json:"min_date,omitempty"`
	MaxDate    *time.Time `json:"max_date,omitempty"`
}
