// Package model provides an Embedder backed by an HTTP sentence-
// embedding server (an Ollama-compatible /api/embeddings endpoint).
// The default model is all-MiniLM-L6-v2 at 384 dimensions.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/markdownkeeper/markdownkeeper/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "all-MiniLM-L6-v2"
	DefaultTimeout = 30 * time.Second
	DefaultDim     = 384
)

// Config configures the HTTP model backend.
type Config struct {
	BaseURL   string
	Model     string
	Timeout   time.Duration
	Dimension int
}

// Embedder calls an HTTP embedding server for each document or chunk.
// It has no native batch endpoint, so EmbedBatch issues one request
// per text; callers needing throughput should pipeline calls
// themselves rather than expect server-side batching here.
type Embedder struct {
	client *http.Client
	config Config
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// New constructs the model backend, filling defaults for any unset
// Config field.
func New(cfg Config) *Embedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = DefaultDim
	}
	return &Embedder{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Embed requests one embedding and L2-normalizes the result; the
// server may already normalize, but the Retriever's cosine scoring
// depends on unit-norm vectors regardless of backend, so this is
// enforced here rather than trusted.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.config.Model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.BaseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("model backend error (status %d): %s", resp.StatusCode, respBody)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	vec := make([]float32, len(parsed.Embedding))
	for i, v := range parsed.Embedding {
		vec[i] = float32(v)
	}
	return l2Normalize(vec), nil
}

// EmbedBatch embeds each text in turn; the backend has no native batch
// endpoint.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// Dimension returns the configured vector length.
func (e *Embedder) Dimension() int { return e.config.Dimension }

// BackendID identifies this backend's algorithm and model for
// staleness detection.
func (e *Embedder) BackendID() string { return "model:" + e.config.Model }

// Ping embeds a short probe string to verify the backend is reachable
// before the caller commits to semantic mode.
func (e *Embedder) Ping(ctx context.Context) error {
	_, err := e.Embed(ctx, "ping")
	return err
}

// Close releases the underlying HTTP client's idle connections.
func (e *Embedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

func l2Normalize(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return v
	}
	norm := float32(1.0 / math.Sqrt(sumSquares))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * norm
	}
	return out
}
