// Package imagegen fetches generated background and thumbnail images from a
// Pollinations-style prompt endpoint.
package imagegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"storycast/pkg/httputil"
	"storycast/pkg/prompts"
)

const (
	DefaultBaseURL = "https://image.pollinations.ai/prompt/"

	// bodies smaller than this are error pages, not images
	minImageBytes = 100
	maxImageBytes = 32 << 20
)

var (
	ErrEmptyPrompt = errors.New("image prompt is empty")
	errTooSmall    = errors.New("image response too small")
)

// GenerationFailedError is returned after every attempt failed.
type GenerationFailedError struct {
	Attempts int
	Last     error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("image generation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *GenerationFailedError) Unwrap() error {
	return e.Last
}

type Options struct {
	BaseURL    string
	Model      string
	Width      int
	Height     int
	Backoff    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	width      int
	height     int
	backoff    time.Duration
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = httputil.DefaultRetryConfig().Delay
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		model:      opts.Model,
		width:      opts.Width,
		height:     opts.Height,
		backoff:    backoff,
	}
}

// WithSize returns a copy of the client that requests width x height images.
func (c *Client) WithSize(width, height int) *Client {
	clone := *c
	clone.width = width
	clone.height = height
	return &clone
}

// Fetch requests an image for prompt, making at most maxRetries attempts. The
// wait after attempt n is n times the backoff unit.
func (c *Client) Fetch(ctx context.Context, prompt string, maxRetries int) (image.Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	var img image.Image
	err := httputil.Retry(ctx, httputil.RetryConfig{MaxAttempts: maxRetries, Delay: c.backoff}, func(attempt int) error {
		fetched, err := c.fetchOnce(ctx, prompt)
		if err != nil {
			slog.Warn("Image fetch failed", "attempt", attempt, "error", err)
			return err
		}
		img = fetched
		return nil
	})

	var exhausted *httputil.ExhaustedError
	if errors.As(err, &exhausted) {
		return nil, &GenerationFailedError{Attempts: exhausted.Attempts, Last: exhausted.Last}
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (c *Client) fetchOnce(ctx context.Context, prompt string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.imageURL(prompt), nil)
	if err != nil {
		return nil, httputil.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &httputil.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) < minImageBytes {
		return nil, fmt.Errorf("%w: %d bytes", errTooSmall, len(data))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func (c *Client) imageURL(prompt string) string {
	query := url.Values{}
	if c.width > 0 {
		query.Set("width", strconv.Itoa(c.width))
	}
	if c.height > 0 {
		query.Set("height", strconv.Itoa(c.height))
	}
	if c.model != "" {
		query.Set("model", c.model)
	}
	query.Set("nologo", "true")
	query.Set("seed", strconv.Itoa(rand.IntN(1_000_000)))

	return c.baseURL + url.PathEscape(prompt) + "?" + query.Encode()
}

// BuildPrompt renders the background prompt for a topic or story excerpt.
func BuildPrompt(p *prompts.Prompts, subject, format string) (string, error) {
	return p.RenderBackground(prompts.ImageParams{Context: strings.TrimSpace(subject), Format: format})
}

// Format describes the aspect of a width x height image for prompts.
func Format(width, height int) string {
	if height > width {
		return "vertical 9:16"
	}
	return "horizontal 16:9"
}

// Save writes img to path, as JPEG for .jpg/.jpeg and PNG otherwise.
func Save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("encode image: %w", err)
	}
	return f.Close()
}
