package domain

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// MinContentLength is the shortest trimmed content (in characters) worth storing or sending to a model
	MinContentLength = 100

	DefaultSource   = "Unknown"
	DefaultAuthor   = "Unknown"
	DefaultCategory = "Uncategorized"
)

// Labels is the fixed set of categories the classifier chooses from
var Labels = []string{"Politics", "Technology", "Business", "Sports", "Entertainment", "Health", "Science"}

// Article represents a news article document in the store
type Article struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Description   string    `json:"description,omitempty"`
	URL           string    `json:"url"`
	Source        string    `json:"source"`
	Date          time.Time `json:"date"`
	Category      string    `json:"category"`
	CategoryScore float64   `json:"category_score"`
	Author        string    `json:"author"`
	Summary       *string   `json:"summary,omitempty"` // nil until enriched
}

// HasSummary reports whether the article was processed by enrichment
func (a *Article) HasSummary() bool {
	return a.Summary != nil
}

// SummaryText returns summary or empty string for not enriched articles
func (a *Article) SummaryText() string {
	if a.Summary == nil {
		return ""
	}
	return *a.Summary
}

// Enrichment is the partial update written back by the enrichment pipeline
type Enrichment struct {
	Summary       string
	Category      string
	CategoryScore float64
}

// IsLabel checks if the category belongs to the fixed label set
func IsLabel(category string) bool {
	for _, l := range Labels {
		if l == category {
			return true
		}
	}
	return false
}

// TitleCase converts feed category like "technology" to "Technology"
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// ContentLength returns length of trimmed text in characters
func ContentLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// Truncate cuts s to at most n characters, never splitting a multibyte rune
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// ClampScore keeps confidence in [0, 1]
func ClampScore(score float64) float64 {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// OrDefault returns trimmed s, or def if s is blank
func OrDefault(s, def string) string {
	if v := strings.TrimSpace(s); v != "" {
		return v
	}
	return def
}
