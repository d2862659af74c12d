package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"docrag/internal/domain"
)

const DefaultOpenAIURL = "https://api.openai.com/v1"

// OpenAIEmbedder talks to any OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewOpenAIEmbedder(apiKeyEnv, model, baseURL string, timeout time.Duration) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key not found in environment variable %s", domain.ErrInvalidConfiguration, apiKeyEnv)
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &OpenAIEmbedder{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "openai embed"

	jsonData, err := json.Marshal(embeddingRequest{Input: []string{text}, Model: e.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.NewEmbeddingServiceError(op, 0, nil, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewEmbeddingServiceError(op, resp.StatusCode, nil, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewEmbeddingServiceError(op, resp.StatusCode, body, nil)
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, domain.NewEmbeddingServiceError(op, resp.StatusCode, body, fmt.Errorf("failed to parse response: %w", err))
	}
	if embResp.Error != nil {
		return nil, domain.NewEmbeddingServiceError(op, resp.StatusCode, body, fmt.Errorf("API error: %s", embResp.Error.Message))
	}

	for _, data := range embResp.Data {
		if data.Index == 0 && len(data.Embedding) > 0 {
			return data.Embedding, nil
		}
	}
	return nil, domain.NewEmbeddingServiceError(op, resp.StatusCode, body, fmt.Errorf("empty embedding"))
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
