package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docrag/internal/domain"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "nomic-embed-text"
	DefaultTimeout     = 60 * time.Second
)

// OllamaEmbedder calls Ollama's /api/embeddings endpoint, one prompt per request.
type OllamaEmbedder struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

func NewOllamaEmbedder(model, baseURL string, timeout time.Duration) *OllamaEmbedder {
	if model == "" {
		model = DefaultOllamaModel
	}
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OllamaEmbedder{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "ollama embed"

	jsonData, err := json.Marshal(ollamaRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.NewEmbeddingServiceError(op, 0, nil, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewEmbeddingServiceError(op, resp.StatusCode, nil, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewEmbeddingServiceError(op, resp.StatusCode, body, nil)
	}

	var out ollamaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, domain.NewEmbeddingServiceError(op, resp.StatusCode, body, fmt.Errorf("failed to parse response: %w", err))
	}
	if out.Error != "" {
		return nil, domain.NewEmbeddingServiceError(op, resp.StatusCode, body, fmt.Errorf("service error: %s", out.Error))
	}
	if len(out.Embedding) == 0 {
		return nil, domain.NewEmbeddingServiceError(op, resp.StatusCode, body, fmt.Errorf("empty embedding"))
	}

	return out.Embedding, nil
}

func (e *OllamaEmbedder) ModelName() string {
	return e.model
}
