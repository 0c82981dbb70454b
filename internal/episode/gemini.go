package episode

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// implements Picker using Google Gemini
type GeminiPicker struct {
	client *genai.Client
	model  string
}

func NewGeminiPicker(
	ctx context.Context,
	apiKey string,
	opts PickerOptions,
) (*GeminiPicker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiPicker{
		client: client,
		model:  model,
	}, nil
}

func (p *GeminiPicker) Pick(
	ctx context.Context,
	rec Recording,
	candidates []Episode,
) (Choice, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(BuildPrompt(rec, candidates)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return Choice{}, fmt.Errorf("disambiguation failed: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 {
		return Choice{}, fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			responseText += part.Text
		}
		if responseText != "" {
			break
		}
	}
	if responseText == "" {
		return Choice{}, fmt.Errorf("no text in Gemini response")
	}

	return parseChoice(responseText, len(candidates))
}
