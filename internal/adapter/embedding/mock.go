package embedding

import (
	"context"
	"hash/fnv"
	"strings"
)

// MockEmbedder derives vectors from the words of the text. Texts sharing
// words get similar vectors, which makes it usable for offline demos.
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	if dimension <= 0 {
		dimension = 64
	}
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[int(h.Sum32()%uint32(e.dimension))] += 1
	}
	return vec, nil
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
