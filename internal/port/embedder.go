package port

import "context"

// Embedder turns text into a fixed-length vector via an external service.
type Embedder interface {
	// Embed returns the embedding for text. Failures are reported as
	// *domain.EmbeddingServiceError.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string
}
