package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"ragqa/internal/domain"
	"ragqa/internal/embedding"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client is an OpenAI-compatible embeddings client implementing domain.Encoder.
// It also accepts Ollama-native response shapes.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int
	maxRunes   int
	dimension  atomic.Int64
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL       string
	APIKeyEnv     string
	Model         string
	Timeout       time.Duration
	MaxRetries    int
	MaxInputRunes int
	// Dimension, when non-zero, is the expected vector size.
	Dimension int
}

// NewClient creates a new embeddings client using the provided configuration.
// An API key is only required for the public OpenAI endpoint.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		return nil, &domain.ModelUnavailableError{Encoder: "openai", Err: errors.New("model is required")}
	}
	key := ""
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" && strings.HasPrefix(cfg.BaseURL, defaultBaseURL) {
		return nil, &domain.ModelUnavailableError{Encoder: "openai", Err: fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)}
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	maxRunes := cfg.MaxInputRunes
	if maxRunes == 0 {
		maxRunes = embedding.DefaultMaxInputRunes
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: cfg.MaxRetries,
		maxRunes:   maxRunes,
	}
	c.dimension.Store(int64(cfg.Dimension))
	return c, nil
}

// Name returns the identifier of this encoder implementation.
func (c *Client) Name() string { return fmt.Sprintf("openai:%s-r%d", c.model, c.maxRunes) }

// Dimension returns the vector size, learned from the first response when not configured.
func (c *Client) Dimension() int { return int(c.dimension.Load()) }

// Ping verifies the server answers with a usable embedding.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Encode(ctx, []string{"ping"}); err != nil {
		return &domain.ModelUnavailableError{Encoder: c.Name(), Err: err}
	}
	return nil
}

// Encode returns embedding vectors for the given texts.
func (c *Client) Encode(ctx context.Context, texts []string) ([]domain.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	inputs := make([]string, len(texts))
	for i, text := range texts {
		cleaned, err := embedding.Clean(text, c.maxRunes)
		if err != nil {
			return nil, &domain.EncodingError{Encoder: c.Name(), Err: fmt.Errorf("text %d: %w", i, err)}
		}
		// The public API rejects empty strings.
		if cleaned == "" {
			cleaned = " "
		}
		inputs[i] = cleaned
	}

	raw, err := c.request(ctx, inputs)
	if err != nil {
		return nil, &domain.EncodingError{Encoder: c.Name(), Err: err}
	}
	if len(raw) != len(texts) {
		return nil, domain.NewEncodingError(c.Name(), "expected %d embeddings, got %d", len(texts), len(raw))
	}

	out := make([]domain.Vector, len(raw))
	for i, v := range raw {
		if len(v) == 0 {
			return nil, domain.NewEncodingError(c.Name(), "empty embedding at %d", i)
		}
		if !c.dimension.CompareAndSwap(0, int64(len(v))) && int64(len(v)) != c.dimension.Load() {
			return nil, domain.NewEncodingError(c.Name(), "embedding %d has dimension %d, want %d", i, len(v), c.dimension.Load())
		}
		out[i] = domain.NewVector(v)
	}
	return out, nil
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func (c *Client) request(ctx context.Context, inputs []string) ([][]float32, error) {
	url := fmt.Sprintf("%s/embeddings", c.baseURL)
	data, err := json.Marshal(embeddingRequest{Input: inputs, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt < c.maxRetries && ctx.Err() == nil {
				if werr := wait(ctx, retryDelay(attempt)); werr != nil {
					return nil, werr
				}
				continue
			}
			return nil, fmt.Errorf("failed to send request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			delay := retryDelay(attempt)
			// Respect Retry-After if provided
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
				delay = time.Duration(secs) * time.Second
			}
			_ = resp.Body.Close()
			if attempt < c.maxRetries {
				if werr := wait(ctx, delay); werr != nil {
					return nil, werr
				}
				continue
			}
			return nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("embeddings request failed: %s: %s", resp.Status, strings.TrimSpace(string(payload)))
		}
		return decode(payload, len(inputs))
	}
}

func decode(payload []byte, n int) ([][]float32, error) {
	// Try OpenAI-compatible response first
	var openaiOut struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil && len(openaiOut.Data) > 0 {
		out := make([][]float32, n)
		for _, d := range openaiOut.Data {
			if d.Index < 0 || d.Index >= n {
				return nil, fmt.Errorf("invalid embedding index: %d", d.Index)
			}
			out[d.Index] = d.Embedding
		}
		return out, nil
	}
	// Fallback to Ollama-native shapes: { "embeddings": [[...]] } or { "embedding": [...] }
	var ollamaOut struct {
		Embeddings [][]float32 `json:"embeddings"`
		Embedding  []float32   `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(ollamaOut.Embeddings) > 0 {
		return ollamaOut.Embeddings, nil
	}
	if len(ollamaOut.Embedding) > 0 {
		return [][]float32{ollamaOut.Embedding}, nil
	}
	return nil, errors.New("no embedding returned")
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		attempt = 5
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
