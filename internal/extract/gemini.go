package extract

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiModel implements TextModel on top of the Gemini API. Credentials are
// picked up from the environment by the genai client.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a Gemini-backed text model. The client is shared
// across calls; create one per process.
func NewGeminiModel(ctx context.Context, model string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiModel: create genai client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

// GenerateText implements TextModel with a single text-only generation call.
func (m *GeminiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenerateText: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenerateText: empty response from model")
	}
	return text, nil
}

var _ TextModel = (*GeminiModel)(nil)
