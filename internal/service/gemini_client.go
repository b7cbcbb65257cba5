package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"photodoctor/internal/config"
)

// Generator turns a prompt pair and a photo into raw model text
type Generator interface {
	Generate(ctx context.Context, system, user string, image []byte, mime string) (string, error)
}

// GeminiClient calls the Gemini API through the official Go SDK
type GeminiClient struct {
	client *genai.Client
	config *config.AIConfig
}

// NewGeminiClient opens a Gemini client. Close it on shutdown.
func NewGeminiClient(ctx context.Context, cfg *config.AIConfig) (*GeminiClient, error) {
	if !cfg.IsEnabled() {
		return nil, errors.New("gemini: API key not configured")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiClient{client: cl, config: cfg}, nil
}

// Generate sends one multimodal request and returns the first text part
func (g *GeminiClient) Generate(ctx context.Context, system, user string, image []byte, mime string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(g.config.TimeoutMS)*time.Millisecond)
	defer cancel()

	m := g.client.GenerativeModel(g.config.Models.Vision)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(g.config.Temperature),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(user),
		genai.Blob{MIMEType: mime, Data: image},
	)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	out := firstText(resp)
	if out == "" {
		return "", errors.New("gemini: empty response")
	}
	return out, nil
}

// Close releases the underlying connection
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok && strings.TrimSpace(string(t)) != "" {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
