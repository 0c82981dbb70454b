package episode

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Picker using OpenAI Chat Completions
type OpenAIPicker struct {
	client openai.Client
	model  string
}

func NewOpenAIPicker(
	ctx context.Context,
	apiKey string,
	opts PickerOptions,
) (*OpenAIPicker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := opts.Model
	if model == "" {
		model = "gpt-5-mini"
	}

	return &OpenAIPicker{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (p *OpenAIPicker) Pick(
	ctx context.Context,
	rec Recording,
	candidates []Episode,
) (Choice, error) {
	completion, err := p.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(BuildPrompt(rec, candidates)),
			},
			Model: p.model,
		},
	)
	if err != nil {
		return Choice{}, fmt.Errorf("disambiguation failed: %w", err)
	}

	if completion == nil || len(completion.Choices) == 0 {
		return Choice{}, fmt.Errorf("empty response from OpenAI")
	}
	responseText := completion.Choices[0].Message.Content
	if responseText == "" {
		return Choice{}, fmt.Errorf("no text in OpenAI response")
	}

	return parseChoice(responseText, len(candidates))
}
