package memory

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"qms/internal/domain"
	models "qms/internal/domain/models/qms"
	qmsRepo "qms/internal/domain/repositories/qms"
)

// DocumentRepository implements qmsRepo.DocumentRepository over a Store
type DocumentRepository struct {
	store *Store
}

// NewDocumentRepository creates a document repository backed by store
func NewDocumentRepository(store *Store) qmsRepo.DocumentRepository {
	return &DocumentRepository{store: store}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.store.write(ctx, func(t *tables, now time.Time) error {
		doc.ID = newID()
		doc.CreatedAt = now
		doc.UpdatedAt = now
		if doc.AssignedUserIDs == nil {
			doc.AssignedUserIDs = []string{}
		}
		t.documents[doc.ID] = doc.Clone()
		return nil
	})
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc *models.Document
	r.store.read(func(t *tables) {
		if d, ok := t.documents[id]; ok {
			doc = d.Clone()
		}
	})
	if doc == nil {
		return nil, domain.NotFoundf("document %s", id)
	}
	return doc, nil
}

// GetForUpdate is GetByID: ExecTx already serializes transactions.
func (r *DocumentRepository) GetForUpdate(ctx context.Context, id string) (*models.Document, error) {
	return r.GetByID(ctx, id)
}

func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	docs := []models.Document{}
	r.store.read(func(t *tables) {
		for _, d := range t.documents {
			if filter.Matches(d) {
				docs = append(docs, *d.Clone())
			}
		}
	})
	sortDocuments(docs)
	return docs, nil
}

func sortDocuments(docs []models.Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Title != docs[j].Title {
			return docs[i].Title < docs[j].Title
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
}

func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	return r.store.write(ctx, func(t *tables, now time.Time) error {
		existing, ok := t.documents[doc.ID]
		if !ok {
			return domain.NotFoundf("document %s", doc.ID)
		}
		doc.CreatedAt = existing.CreatedAt
		doc.UpdatedAt = now
		t.documents[doc.ID] = doc.Clone()
		return nil
	})
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func(t *tables, _ time.Time) error {
		if _, ok := t.documents[id]; !ok {
			return domain.NotFoundf("document %s", id)
		}
		delete(t.documents, id)
		return nil
	})
}

// Search does case-insensitive matching of every query term against title
// and flattened content. Title hits score double, like the postgres ranking.
func (r *DocumentRepository) Search(ctx context.Context, opts *models.SearchOptions) (*models.SearchResults, error) {
	opts.ApplyDefaults()
	if err := opts.Validate(); err != nil {
		return nil, domain.Validationf("invalid search options: %v", err)
	}

	terms := strings.Fields(strings.ToLower(opts.Query))
	if len(terms) == 0 {
		return nil, domain.Validationf("search query cannot be blank")
	}
	var matches []models.SearchResult

	r.store.read(func(t *tables) {
		for _, d := range t.documents {
			if !opts.Filter.Matches(d) {
				continue
			}
			title := strings.ToLower(d.Title)
			text := d.Content.Text()
			lower := strings.ToLower(text)

			var score float64
			hits := 0
			first := ""
			for _, term := range terms {
				inTitle := strings.Contains(title, term)
				inText := strings.Contains(lower, term)
				if !inTitle && !inText {
					continue
				}
				hits++
				if first == "" {
					first = term
				}
				if inTitle {
					score += 2
				}
				if inText {
					score++
				}
			}
			if hits == 0 || (!opts.MatchAny && hits < len(terms)) {
				continue
			}
			matches = append(matches, models.SearchResult{
				Document: *d.Clone(),
				Score:    score,
				Snippet:  snippet(text, lower, first),
			})
		}
	})

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Document.Title < matches[j].Document.Title
	})

	total := len(matches)
	start := min(opts.Offset, total)
	end := min(start+opts.Limit, total)
	return models.NewSearchResults(matches[start:end], total, opts), nil
}

// snippet returns up to 80 bytes of text around the first hit of term.
func snippet(text, lower, term string) string {
	if len(lower) != len(text) {
		text = lower
	}
	idx := strings.Index(lower, term)
	if idx < 0 {
		return text[:runeStart(text, min(80, len(text)))]
	}
	start := runeStart(text, max(idx-30, 0))
	end := runeStart(text, min(idx+len(term)+50, len(text)))
	return text[start:end]
}

// runeStart moves i back to the first byte of the rune it falls in
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
