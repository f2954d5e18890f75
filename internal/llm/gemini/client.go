package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"storycast/internal/llm"
)

var _ llm.Completer = (*Client)(nil)

type Client struct {
	client *genai.Client
	model  string
}

type Config struct {
	APIKey   string
	Project  string
	Location string
	Model    string
	BaseURL  string
}

// NewClient uses the Gemini API when an API key is set and Vertex AI otherwise.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	clientConfig := &genai.ClientConfig{
		Project:  cfg.Project,
		Location: cfg.Location,
		Backend:  genai.BackendVertexAI,
	}
	if cfg.APIKey != "" {
		clientConfig = &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  cfg.Model,
	}, nil
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", llm.ErrNoResponse
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", llm.ErrEmptyResponse
	}

	return text, nil
}
