package embedding

import (
	"context"

	"golang.org/x/time/rate"

	"docrag/internal/port"
)

// RateLimitedEmbedder spaces out calls to the inner embedder with a token
// bucket so a large build does not flood the embedding service.
type RateLimitedEmbedder struct {
	inner   port.Embedder
	limiter *rate.Limiter
}

// NewRateLimitedEmbedder allows requestsPerSecond sustained calls with bursts
// of up to burst. A burst below 1 is raised to 1.
func NewRateLimitedEmbedder(inner port.Embedder, requestsPerSecond float64, burst int) *RateLimitedEmbedder {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedEmbedder{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (r *RateLimitedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, text)
}

func (r *RateLimitedEmbedder) ModelName() string {
	return r.inner.ModelName()
}
