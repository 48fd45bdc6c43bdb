package reports

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const reportInstructions = "You are a personal finance assistant.\n\n" +
	"Write a short report for the person whose bookkeeping figures follow.\n" +
	"Rules:\n" +
	"- Use only the figures given; do not invent transactions.\n" +
	"- Start with a one-sentence overview of income, expense and balance.\n" +
	"- Point out the largest expense categories and anything unusual.\n" +
	"- End with at most three practical suggestions.\n" +
	"- Plain text only, no Markdown, under 250 words.\n"

// GeminiGenerator writes reports with a Gemini model.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a Gemini API client. An empty apiKey falls back
// to the GEMINI_API_KEY / GOOGLE_API_KEY environment variables.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Model() string {
	return g.model
}

func (g *GeminiGenerator) Generate(ctx context.Context, s *Summary) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildPrompt(s)},
			},
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", g.model)
	}
	return text, nil
}

func buildPrompt(s *Summary) string {
	return reportInstructions + "\nFigures (amounts in major currency units):\n" + formatSummary(s)
}
