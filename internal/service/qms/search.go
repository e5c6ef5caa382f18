package qms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"qms/internal/config"
	"qms/internal/domain"
	qmsModels "qms/internal/domain/models/qms"
	qmsRepo "qms/internal/domain/repositories/qms"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/service/qms/richtext"
)

const (
	maxQuestionLength   = 1000
	askContextDocuments = 5
	maxDocumentContext  = 6000 // characters of rendered markdown per document
)

const askInstructions = `You are a quality assurance assistant for a dietary supplement manufacturer.
Answer the question using only the documents below. Cite documents by title.
If the documents do not contain the answer, say so.`

// searchService implements the SearchService interface
type searchService struct {
	documents qmsRepo.DocumentRepository
	answerer  qmsSvc.Answerer
	renderer  *richtext.Renderer
	logger    *slog.Logger
}

// NewSearchService creates the search service. answerer may be nil, in
// which case Ask only reports the matching documents.
func NewSearchService(stores Stores, answerer qmsSvc.Answerer, renderer *richtext.Renderer, logger *slog.Logger) qmsSvc.SearchService {
	return &searchService{
		documents: stores.Documents,
		answerer:  answerer,
		renderer:  renderer,
		logger:    logger,
	}
}

// Search runs a full-text query over document titles and content
func (s *searchService) Search(ctx context.Context, opts *qmsModels.SearchOptions) (*qmsModels.SearchResults, error) {
	opts.Query = strings.TrimSpace(opts.Query)
	if opts.Query == "" {
		return nil, domain.Validationf("search query is required")
	}
	if opts.Limit > config.MaxSearchLimit {
		return nil, domain.Validationf("limit cannot exceed %d", config.MaxSearchLimit)
	}
	return s.documents.Search(ctx, opts)
}

// Ask retrieves the best matching documents and has the LLM answer the
// question from them
func (s *searchService) Ask(ctx context.Context, req *qmsSvc.AskRequest) (*qmsSvc.AskResponse, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Question, validation.Required, notBlank, validation.RuneLength(1, maxQuestionLength)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	results, err := s.documents.Search(ctx, &qmsModels.SearchOptions{
		Query:    strings.TrimSpace(req.Question),
		Limit:    askContextDocuments,
		Filter:   req.Filter,
		MatchAny: true,
	})
	if err != nil {
		return nil, err
	}

	sources := make([]qmsSvc.Source, 0, len(results.Results))
	for _, r := range results.Results {
		sources = append(sources, qmsSvc.Source{
			DocumentID: r.Document.ID,
			Title:      r.Document.Title,
			Score:      r.Score,
		})
	}

	if len(results.Results) == 0 {
		return &qmsSvc.AskResponse{
			Answer:  "No documents matched the question.",
			Sources: sources,
		}, nil
	}
	if s.answerer == nil {
		return &qmsSvc.AskResponse{
			Answer:  fmt.Sprintf("Found %d matching documents. AI answers are not configured.", len(sources)),
			Sources: sources,
		}, nil
	}

	prompt := s.buildPrompt(req.Question, results.Results)
	answer, model, err := s.answerer.Answer(ctx, prompt)
	if err != nil {
		s.logger.Error("answer generation failed", "error", err, "sources", len(sources))
		return nil, domain.NewStorageError("generate answer", err)
	}

	s.logger.Info("question answered", "sources", len(sources), "model", model)
	return &qmsSvc.AskResponse{
		Answer:    answer,
		Sources:   sources,
		Model:     model,
		Generated: true,
	}, nil
}

func (s *searchService) buildPrompt(question string, hits []qmsModels.SearchResult) string {
	var b strings.Builder
	b.WriteString(askInstructions)
	b.WriteString("\n\n")
	for i := range hits {
		rendered := s.renderer.Document(&hits[i].Document)
		if len(rendered) > maxDocumentContext {
			cut := maxDocumentContext
			for cut > 0 && !utf8.RuneStart(rendered[cut]) {
				cut--
			}
			rendered = rendered[:cut] + "\n[truncated]"
		}
		fmt.Fprintf(&b, "<document id=%q>\n%s\n</document>\n\n", hits[i].Document.ID, rendered)
	}
	fmt.Fprintf(&b, "Question: %s\n", strings.TrimSpace(question))
	return b.String()
}
