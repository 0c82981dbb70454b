package episode

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// llm answer for one ambiguous recording
type Choice struct {
	Index      int     `json:"index"` // 1-based candidate position
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// interface for picking one of several candidate episodes
type Picker interface {
	Pick(ctx context.Context, rec Recording, candidates []Episode) (Choice, error)
}

// llm service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

type PickerOptions struct {
	Model string
}

// creates Picker based on provider
func NewPicker(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts PickerOptions,
) (Picker, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiPicker(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIPicker(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicPicker(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported disambiguation provider: %s", provider)
	}
}

type promptCandidate struct {
	Index      int    `json:"index"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	FirstAired string `json:"first_aired,omitempty"`
	Overview   string `json:"overview,omitempty"`
}

// BuildPrompt creates the disambiguation prompt for LLM providers
func BuildPrompt(rec Recording, candidates []Episode) string {
	var sb strings.Builder

	sb.WriteString("A TV recording matched several episodes of the same series. ")
	sb.WriteString("Pick the episode that was recorded.\n\n")

	sb.WriteString("Recording:\n")
	sb.WriteString(fmt.Sprintf("  Series: %s\n", rec.Series))
	if rec.EpisodeName != "" {
		sb.WriteString(fmt.Sprintf("  Episode title: %s\n", rec.EpisodeName))
	}
	if rec.AirDate != "" {
		sb.WriteString(fmt.Sprintf("  Original air date: %s\n", rec.AirDate))
	}
	if rec.Description != "" {
		sb.WriteString(fmt.Sprintf("  Guide description: %s\n", rec.Description))
	}

	sb.WriteString("\nIMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Compare the guide description with each candidate overview.\n")
	sb.WriteString("2. Return ONLY a JSON object with 'index', 'confidence' and 'reason' fields.\n")
	sb.WriteString("3. 'index' is the index of the chosen candidate.\n")
	sb.WriteString("4. 'confidence' is a number between 0 and 1.\n")
	sb.WriteString("5. Do not add any explanation or markdown formatting.\n\n")

	items := make([]promptCandidate, 0, len(candidates))
	for i, c := range candidates {
		items = append(items, promptCandidate{
			Index:      i + 1,
			Code:       c.Code(),
			Name:       c.Name,
			FirstAired: c.FirstAired,
			Overview:   c.Overview,
		})
	}
	sb.WriteString("Candidates JSON:\n")
	candidatesJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(candidatesJSON)

	sb.WriteString("\n\nOutput the JSON object only:")

	return sb.String()
}

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// parseChoice finds the first JSON object in text carrying an index within
// 1..count.
func parseChoice(text string, count int) (Choice, error) {
	text = cleanJSONResponse(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if choice, ok := tryExtractChoice(raw); ok {
			if choice.Index < 1 || choice.Index > count {
				return Choice{}, fmt.Errorf("choice index %d out of range 1..%d", choice.Index, count)
			}
			return choice, nil
		}
	}
	return Choice{}, fmt.Errorf(
		"no valid choice JSON found in response: %s",
		truncateString(text, 200),
	)
}

func tryExtractChoice(raw json.RawMessage) (Choice, bool) {
	var choice Choice
	if err := json.Unmarshal(raw, &choice); err == nil && choice.Index != 0 {
		return choice, true
	}

	// some models wrap the object in a one-element array
	var list []Choice
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0].Index != 0 {
		return list[0], true
	}
	return Choice{}, false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
