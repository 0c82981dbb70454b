package episode

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestNewPickerReturnsProviders(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		provider Provider
		check    func(Picker) bool
	}{
		{ProviderGemini, func(p Picker) bool { _, ok := p.(*GeminiPicker); return ok }},
		{ProviderOpenAI, func(p Picker) bool { _, ok := p.(*OpenAIPicker); return ok }},
		{ProviderAnthropic, func(p Picker) bool { _, ok := p.(*AnthropicPicker); return ok }},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			picker, err := NewPicker(ctx, tt.provider, "fake-key", PickerOptions{})
			if err != nil {
				t.Fatalf("NewPicker(%s) returned error: %v", tt.provider, err)
			}
			if !tt.check(picker) {
				t.Errorf("unexpected picker type %T", picker)
			}
		})
	}
}

func TestNewPickerRejects(t *testing.T) {
	ctx := context.Background()
	if _, err := NewPicker(ctx, Provider("unknown"), "fake-key", PickerOptions{}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := NewPicker(ctx, ProviderOpenAI, "", PickerOptions{}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestBuildPrompt(t *testing.T) {
	rec := Recording{
		Series:      "Parking Wars",
		EpisodeName: "Towed",
		Description: "Philadelphia drivers.",
		AirDate:     "2009-03-03",
	}
	prompt := BuildPrompt(rec, testCandidates)

	for _, want := range []string{
		"Series: Parking Wars",
		"Episode title: Towed",
		"Original air date: 2009-03-03",
		"Guide description: Philadelphia drivers.",
		`"index": 2`,
		`"code": "s02e05"`,
		`"overview": "A car is towed."`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Choice
		wantErr bool
	}{
		{
			name: "plain object",
			text: `{"index": 2, "confidence": 0.9, "reason": "air date"}`,
			want: Choice{Index: 2, Confidence: 0.9, Reason: "air date"},
		},
		{
			name: "markdown fence",
			text: "```json\n{\"index\": 1, \"confidence\": 0.5}\n```",
			want: Choice{Index: 1, Confidence: 0.5},
		},
		{
			name: "leading prose",
			text: "The answer is {\"index\": 2, \"confidence\": 1}",
			want: Choice{Index: 2, Confidence: 1},
		},
		{
			name: "wrapped in array",
			text: `[{"index": 1, "confidence": 0.7}]`,
			want: Choice{Index: 1, Confidence: 0.7},
		},
		{name: "out of range", text: `{"index": 3, "confidence": 1}`, wantErr: true},
		{name: "no json", text: "I cannot tell.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChoice(tt.text, 2)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseChoice returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseChoice() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Integration test: only runs if GEMINI_API_KEY is set
func TestGeminiPickerIntegration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set; skipping integration test")
	}

	ctx := context.Background()
	picker, err := NewGeminiPicker(ctx, apiKey, PickerOptions{})
	if err != nil {
		t.Fatalf("failed to create picker: %v", err)
	}

	rec := Recording{Series: "Parking Wars", EpisodeName: "Towed", AirDate: "2008-01-08"}
	choice, err := picker.Pick(ctx, rec, testCandidates)
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if choice.Index != 1 {
		t.Errorf("expected candidate 1 by air date, got %+v", choice)
	}
}
