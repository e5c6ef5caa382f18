package qms

import (
	"fmt"
	"strings"
)

// Default search configuration values
const (
	DefaultSearchLimit    = 20
	DefaultSearchLanguage = "english"
	maxSearchLimit        = 100
)

// SearchOptions configures document full-text search
type SearchOptions struct {
	// Query is the search string (required)
	Query string

	// Pagination
	Limit  int
	Offset int

	// Language is the Postgres text search configuration used for stemming
	// See: https://www.postgresql.org/docs/current/textsearch-controls.html
	Language string

	// Filter narrows the candidate set before ranking
	Filter DocumentFilter

	// MatchAny matches documents containing any query term instead of all
	MatchAny bool
}

// AnyTermQuery rewrites the query as an OR of its words for web-style
// query parsers
func (opts *SearchOptions) AnyTermQuery() string {
	return strings.Join(strings.Fields(opts.Query), " or ")
}

// ApplyDefaults fills in default values for unset fields
func (opts *SearchOptions) ApplyDefaults() {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Language == "" {
		opts.Language = DefaultSearchLanguage
	}
}

// Validate checks that required fields are set and values are reasonable
func (opts *SearchOptions) Validate() error {
	if opts.Query == "" {
		return fmt.Errorf("search query cannot be empty")
	}
	if opts.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if opts.Limit > maxSearchLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", maxSearchLimit, opts.Limit)
	}
	if opts.Offset < 0 {
		return fmt.Errorf("offset cannot be negative")
	}
	return nil
}

// SearchResult is a matched document with its relevance score.
// Snippet is a highlighted excerpt of the matching content.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
	Snippet  string   `json:"snippet"`
}

// SearchResults contains the full search response with pagination metadata
type SearchResults struct {
	Results    []SearchResult `json:"results"`
	TotalCount int            `json:"total_count"`
	HasMore    bool           `json:"has_more"`
	Offset     int            `json:"offset"`
	Limit      int            `json:"limit"`
}

// NewSearchResults creates a SearchResults with calculated HasMore flag
func NewSearchResults(results []SearchResult, totalCount int, opts *SearchOptions) *SearchResults {
	if results == nil {
		results = []SearchResult{}
	}
	return &SearchResults{
		Results:    results,
		TotalCount: totalCount,
		HasMore:    (opts.Offset + len(results)) < totalCount,
		Offset:     opts.Offset,
		Limit:      opts.Limit,
	}
}
