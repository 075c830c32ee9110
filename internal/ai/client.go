package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a completion, optionally constrained to JSON output.
type Generator interface {
	GenerateCompletion(ctx context.Context, prompt string, jsonMode bool) (string, error)
}

// Client talks to an Ollama-compatible endpoint for embeddings and
// generation. All calls carry a request timeout and a bounded retry with
// exponential backoff on transient failures (network errors, 429, 5xx).
type Client struct {
	BaseURL    string
	EmbedModel string
	GenModel   string

	HTTPClient   *http.Client
	MaxRetries   int
	RetryBackoff time.Duration
}

func NewClient(baseURL, embedModel, genModel string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if embedModel == "" {
		embedModel = "nomic-embed-text"
	}
	if genModel == "" {
		genModel = "llama3.2:latest"
	}
	return &Client{
		BaseURL:      baseURL,
		EmbedModel:   embedModel,
		GenModel:     genModel,
		HTTPClient:   &http.Client{Timeout: 60 * time.Second},
		MaxRetries:   2,
		RetryBackoff: 500 * time.Millisecond,
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model:  c.EmbedModel,
		Prompt: text,
	}

	var parsed embeddingResponse
	if err := c.postJSON(ctx, "/api/embeddings", reqBody, &parsed); err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, errors.New("embedding response was empty")
	}
	return parsed.Embedding, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"` // "json" enables JSON mode
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (c *Client) GenerateCompletion(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	reqBody := generateRequest{
		Model:  c.GenModel,
		Prompt: prompt,
		Stream: false,
	}
	if jsonMode {
		reqBody.Format = "json"
	}

	var parsed generateResponse
	if err := c.postJSON(ctx, "/api/generate", reqBody, &parsed); err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	return parsed.Response, nil
}

// postJSON executes one POST with retries. A non-2xx status that is not
// retryable (4xx other than 429) fails immediately.
func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.RetryBackoff << (attempt - 1)
			log.Printf("retrying %s after %v (attempt %d/%d): %v", path, backoff, attempt, c.MaxRetries, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		retryable, err := c.doOnce(ctx, path, jsonData, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, path string, jsonData []byte, out interface{}) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return retryable, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}
	return false, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
