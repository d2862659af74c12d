package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func TestOllamaEmbedder_Embed(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"embedding":[0.5,-1,2.25]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", srv.URL+"/", time.Second)
	vec, err := e.Embed(context.Background(), "annual leave policy")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, -1, 2.25}, vec)
	assert.Equal(t, "nomic-embed-text", got.Model)
	assert.Equal(t, "annual leave policy", got.Prompt)
	assert.Equal(t, "nomic-embed-text", e.ModelName())
}

func TestOllamaEmbedder_Defaults(t *testing.T) {
	e := NewOllamaEmbedder("", "", 0)
	assert.Equal(t, DefaultOllamaModel, e.model)
	assert.Equal(t, DefaultOllamaURL, e.baseURL)
	assert.Equal(t, DefaultTimeout, e.client.Timeout)
}

func TestOllamaEmbedder_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{"non-2xx", http.StatusInternalServerError, `model "x" not found`, http.StatusInternalServerError},
		{"malformed json", http.StatusOK, `{"embedding":`, http.StatusOK},
		{"empty embedding", http.StatusOK, `{"embedding":[]}`, http.StatusOK},
		{"service error field", http.StatusOK, `{"error":"out of memory"}`, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			e := NewOllamaEmbedder("m", srv.URL, time.Second)
			vec, err := e.Embed(context.Background(), "q")
			assert.Nil(t, vec)

			var svcErr *domain.EmbeddingServiceError
			require.True(t, errors.As(err, &svcErr))
			assert.Equal(t, tc.wantStatus, svcErr.StatusCode)
			assert.Equal(t, tc.body, svcErr.Body)
		})
	}
}

func TestOllamaEmbedder_TruncatesBody(t *testing.T) {
	long := strings.Repeat("x", 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, long, http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder("m", srv.URL, time.Second).Embed(context.Background(), "q")

	var svcErr *domain.EmbeddingServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusBadGateway, svcErr.StatusCode)
	assert.Len(t, svcErr.Body, 300)
}

func TestOllamaEmbedder_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	e := NewOllamaEmbedder("m", srv.URL, 50*time.Millisecond)
	_, err := e.Embed(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, domain.IsEmbeddingServiceError(err))
}

func TestOllamaEmbedder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOllamaEmbedder("m", url, time.Second).Embed(context.Background(), "q")
	assert.True(t, domain.IsEmbeddingServiceError(err))
}
