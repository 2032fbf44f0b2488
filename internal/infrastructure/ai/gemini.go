package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const systemPrompt = `You are a copywriter for a services marketplace.
Rewrite the user's ad so it is clear, persuasive and free of spelling mistakes.
Keep the original language, facts, prices and contact details. Do not invent features.
Reply with the improved ad text only, without quotes, headings or commentary.`

// generator is the slice of genai.Models the improver calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini rewrites ad copy with a Gemini model.
type Gemini struct {
	models      generator
	model       string
	temperature float32
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{models: client.Models, model: model, temperature: 0.7}, nil
}

// BuildPrompt wraps the ad text in the user turn sent to the model.
func BuildPrompt(text string) string {
	return "Improve this ad:\n\n" + strings.TrimSpace(text)
}

func (g *Gemini) Improve(ctx context.Context, text string) (string, error) {
	temp := g.temperature
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       &temp,
	}
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(text)), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", fmt.Errorf("gemini returned no text")
	}
	return out, nil
}

// Name identifies the backing model in logs.
func (g *Gemini) Name() string {
	return "gemini:" + g.model
}
