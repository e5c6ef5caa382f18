package qms

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"qms/internal/domain"
	qmsModels "qms/internal/domain/models/qms"
	qmsSvc "qms/internal/domain/services/qms"
	"qms/internal/service/qms/richtext"
)

type fakeAnswerer struct {
	prompt string
	err    error
}

func (f *fakeAnswerer) Answer(ctx context.Context, prompt string) (string, string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", "", f.err
	}
	return "Lot L-100 passed lead testing.", "test-model", nil
}

func seedSearchDocs(t *testing.T, env *testEnv) *qmsModels.Document {
	t.Helper()
	ctx := context.Background()

	lead := env.createCOA(t, "Batch 100 COA")
	content := &qmsModels.DocumentContent{Sections: map[string]qmsModels.Section{
		"header":     {"lotNumber": "L-100"},
		"results":    {"tests": []any{map[string]any{"test": "Lead", "result": "<b>0.1 ppm</b>"}}},
		"conclusion": {"overallResult": "Pass"},
	}}
	if _, err := env.workflow.SaveContent(ctx, creator, lead.ID, &qmsSvc.SaveContentRequest{Content: content}); err != nil {
		t.Fatal(err)
	}
	env.createCOA(t, "Label review")
	return lead
}

func TestSearchService_Search(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	lead := seedSearchDocs(t, env)
	svc := NewSearchService(env.stores, nil, richtext.NewRenderer(richtext.NewSanitizer()), discardLogger())

	results, err := svc.Search(ctx, &qmsModels.SearchOptions{Query: "  batch  "})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results.TotalCount != 1 || results.Results[0].Document.ID != lead.ID {
		t.Errorf("results = %+v", results)
	}

	if _, err := svc.Search(ctx, &qmsModels.SearchOptions{Query: " "}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank query error = %v, want ErrValidation", err)
	}
	if _, err := svc.Search(ctx, &qmsModels.SearchOptions{Query: "lead", Limit: 1000}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("oversized limit error = %v, want ErrValidation", err)
	}
}

func TestSearchService_Ask(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	lead := seedSearchDocs(t, env)
	answerer := &fakeAnswerer{}
	svc := NewSearchService(env.stores, answerer, richtext.NewRenderer(richtext.NewSanitizer()), discardLogger())

	resp, err := svc.Ask(ctx, &qmsSvc.AskRequest{Question: "which batch passed lead"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !resp.Generated || resp.Model != "test-model" || resp.Answer == "" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Sources) == 0 || resp.Sources[0].DocumentID != lead.ID {
		t.Errorf("sources = %+v", resp.Sources)
	}
	for _, want := range []string{"Batch 100 COA", "result=**0.1 ppm**", "Question: which batch passed lead"} {
		if !strings.Contains(answerer.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, answerer.prompt)
		}
	}
}

func TestSearchService_AskEdgeCases(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedSearchDocs(t, env)
	renderer := richtext.NewRenderer(richtext.NewSanitizer())

	t.Run("no matches skips the model", func(t *testing.T) {
		answerer := &fakeAnswerer{}
		svc := NewSearchService(env.stores, answerer, renderer, discardLogger())
		resp, err := svc.Ask(ctx, &qmsSvc.AskRequest{Question: "zirconium"})
		if err != nil {
			t.Fatal(err)
		}
		if resp.Generated || answerer.prompt != "" {
			t.Errorf("model should not be called without sources: %+v", resp)
		}
	})

	t.Run("no answerer configured", func(t *testing.T) {
		svc := NewSearchService(env.stores, nil, renderer, discardLogger())
		resp, err := svc.Ask(ctx, &qmsSvc.AskRequest{Question: "batch"})
		if err != nil {
			t.Fatal(err)
		}
		if resp.Generated || len(resp.Sources) != 1 {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("model failure", func(t *testing.T) {
		svc := NewSearchService(env.stores, &fakeAnswerer{err: errors.New("rate limited")}, renderer, discardLogger())
		if _, err := svc.Ask(ctx, &qmsSvc.AskRequest{Question: "lead"}); !errors.Is(err, domain.ErrStorage) {
			t.Errorf("Ask() error = %v, want ErrStorage", err)
		}
	})

	t.Run("blank question", func(t *testing.T) {
		svc := NewSearchService(env.stores, &fakeAnswerer{}, renderer, discardLogger())
		if _, err := svc.Ask(ctx, &qmsSvc.AskRequest{Question: "  "}); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Ask() error = %v, want ErrValidation", err)
		}
	})
}

func TestSearchService_PromptTruncatesOnRuneBoundary(t *testing.T) {
	svc := NewSearchService(Stores{}, &fakeAnswerer{}, richtext.NewRenderer(richtext.NewSanitizer()), discardLogger()).(*searchService)

	var hits []qmsModels.SearchResult
	for pad := 0; pad < 3; pad++ {
		hits = append(hits, qmsModels.SearchResult{Document: qmsModels.Document{
			ID:    "doc-" + strings.Repeat("x", pad+1),
			Title: "Allergen statement",
			Content: qmsModels.DocumentContent{Sections: map[string]qmsModels.Section{
				"conclusion": {"notes": strings.Repeat("a", pad) + strings.Repeat("€", 3000)},
			}},
		}})
	}

	prompt := svc.buildPrompt("does it contain nuts", hits)
	if !utf8.ValidString(prompt) {
		t.Fatal("prompt is not valid UTF-8")
	}
	if n := strings.Count(prompt, "[truncated]"); n != len(hits) {
		t.Errorf("truncated documents = %d, want %d", n, len(hits))
	}
}
