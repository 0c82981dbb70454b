package episode

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Picker using Anthropic Claude
type AnthropicPicker struct {
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropicPicker(
	ctx context.Context,
	apiKey string,
	opts PickerOptions,
) (*AnthropicPicker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicPicker{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (p *AnthropicPicker) Pick(
	ctx context.Context,
	rec Recording,
	candidates []Episode,
) (Choice, error) {
	message, err := p.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     p.model,
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewTextBlock(BuildPrompt(rec, candidates)),
				),
			},
		},
	)
	if err != nil {
		return Choice{}, fmt.Errorf("disambiguation failed: %w", err)
	}

	if message == nil || len(message.Content) == 0 {
		return Choice{}, fmt.Errorf("empty response from Anthropic")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}
	if responseText == "" {
		return Choice{}, fmt.Errorf("no text in Anthropic response")
	}

	return parseChoice(responseText, len(candidates))
}
