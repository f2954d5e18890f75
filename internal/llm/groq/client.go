package groq

import (
	"context"
	"fmt"

	"github.com/conneroisu/groq-go"

	"storycast/internal/llm"
)

// Groq maps temperature 0 to 1e-8 server side; sending it explicitly keeps
// the field from being dropped as a zero value.
const minTemperature = 1e-8

var _ llm.Completer = (*Client)(nil)

type Client struct {
	client *groq.Client
	model  groq.ChatModel
}

type Option func(*options)

type options struct {
	baseURL string
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		client *groq.Client
		err    error
	)
	if o.baseURL != "" {
		client, err = groq.NewClient(apiKey, groq.WithBaseURL(o.baseURL))
	} else {
		client, err = groq.NewClient(apiKey)
	}
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client: client,
		model:  groq.ChatModel(model),
	}, nil
}

func (c *Client) Model() string {
	return string(c.model)
}

// WithModel returns a client sharing the connection but using another model.
func (c *Client) WithModel(model string) *Client {
	return &Client{client: c.client, model: groq.ChatModel(model)}
}

func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	messages := make([]groq.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, groq.ChatCompletionMessage{Role: groq.RoleSystem, Content: req.System})
	}
	messages = append(messages, groq.ChatCompletionMessage{Role: groq.RoleUser, Content: req.Prompt})

	temperature := float32(req.Temperature)
	if temperature == 0 {
		temperature = minTemperature
	}

	chatReq := groq.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &groq.ChatResponseFormat{Type: "json_object"}
	}

	resp, err := c.client.ChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", llm.ErrNoResponse
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", llm.ErrEmptyResponse
	}

	return content, nil
}
