package qms

import (
	"context"

	"qms/internal/domain/models/qms"
)

// SearchService answers document searches and AI-assisted questions
type SearchService interface {
	Search(ctx context.Context, opts *qms.SearchOptions) (*qms.SearchResults, error)
	Ask(ctx context.Context, req *AskRequest) (*AskResponse, error)
}

type AskRequest struct {
	Question string             `json:"question"`
	Filter   qms.DocumentFilter `json:"-"`
}

// AskResponse is the generated answer and the documents it was grounded on
type AskResponse struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	Model     string   `json:"model"`
	Generated bool     `json:"generated"` // false when no documents matched and no LLM call was made
}

type Source struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
}

// Answerer turns a grounded prompt into an answer. Implementations wrap an
// LLM provider.
type Answerer interface {
	Answer(ctx context.Context, prompt string) (answer string, model string, err error)
}
