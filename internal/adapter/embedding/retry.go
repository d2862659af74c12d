package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"docrag/internal/port"
)

// RetryConfig configures RetryEmbedder. MaxRetries counts attempts after
// the first one.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		Multiplier:   2.0,
	}
}

// RetryEmbedder retries failed embedding calls with exponential backoff.
type RetryEmbedder struct {
	inner  port.Embedder
	cfg    RetryConfig
	logger *zap.Logger
}

func NewRetryEmbedder(inner port.Embedder, cfg RetryConfig, logger *zap.Logger) *RetryEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	return &RetryEmbedder{inner: inner, cfg: cfg, logger: logger}
}

func (r *RetryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	delay := r.cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vec, err := r.inner.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if attempt >= r.cfg.MaxRetries {
			break
		}

		r.logger.Warn("embedding failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * r.cfg.Multiplier)
		if r.cfg.MaxDelay > 0 && delay > r.cfg.MaxDelay {
			delay = r.cfg.MaxDelay
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", r.cfg.MaxRetries, lastErr)
}

func (r *RetryEmbedder) ModelName() string {
	return r.inner.ModelName()
}
