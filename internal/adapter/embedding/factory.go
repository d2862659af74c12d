package embedding

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"docrag/config"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// New builds the embedder selected by cfg.Provider. It is rate limited when
// cfg.RequestsPerSecond > 0 and retried when cfg.MaxRetries > 0.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (port.Embedder, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second

	var embedder port.Embedder
	switch cfg.Provider {
	case "ollama", "":
		embedder = NewOllamaEmbedder(cfg.Model, cfg.BaseURL, timeout)
	case "openai":
		e, err := NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL, timeout)
		if err != nil {
			return nil, err
		}
		embedder = e
	case "mock":
		embedder = NewMockEmbedder(cfg.Dimension)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrInvalidConfiguration, cfg.Provider)
	}

	if cfg.RequestsPerSecond > 0 {
		embedder = NewRateLimitedEmbedder(embedder, cfg.RequestsPerSecond, cfg.Burst)
	}
	if cfg.MaxRetries > 0 {
		rc := DefaultRetryConfig()
		rc.MaxRetries = cfg.MaxRetries
		embedder = NewRetryEmbedder(embedder, rc, logger)
	}
	return embedder, nil
}
