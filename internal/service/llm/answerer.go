package llm

import (
	"context"
	"fmt"
	"strings"

	llmprovider "github.com/haowjy/meridian-llm-go"

	qmsSvc "qms/internal/domain/services/qms"
)

const blockTypeText = "text"

// ProviderAnswerer answers search questions with a single non-streaming
// generation
type ProviderAnswerer struct {
	provider llmprovider.Provider
	model    string
}

var _ qmsSvc.Answerer = (*ProviderAnswerer)(nil)

// NewProviderAnswerer creates an answerer over provider using model.
// The model must be one the provider serves.
func NewProviderAnswerer(provider llmprovider.Provider, model string) (*ProviderAnswerer, error) {
	if !provider.SupportsModel(model) {
		return nil, fmt.Errorf("model %q is not supported by provider %s", model, provider.Name())
	}
	return &ProviderAnswerer{provider: provider, model: model}, nil
}

// Answer sends prompt as one user message and joins the text blocks of
// the response
func (a *ProviderAnswerer) Answer(ctx context.Context, prompt string) (string, string, error) {
	req := &llmprovider.GenerateRequest{
		Messages: []llmprovider.Message{
			{
				Role: "user",
				Blocks: []*llmprovider.Block{
					{
						BlockType:   blockTypeText,
						Sequence:    0,
						TextContent: &prompt,
					},
				},
			},
		},
		Model: a.model,
	}

	resp, err := a.provider.GenerateResponse(ctx, req)
	if err != nil {
		return "", "", fmt.Errorf("generate answer: %w", err)
	}

	var parts []string
	for _, block := range resp.Blocks {
		if block == nil || block.BlockType != blockTypeText || block.TextContent == nil {
			continue
		}
		if text := strings.TrimSpace(*block.TextContent); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", resp.Model, fmt.Errorf("provider returned no text")
	}

	model := resp.Model
	if model == "" {
		model = a.model
	}
	return strings.Join(parts, "\n\n"), model, nil
}
