package embedding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"docrag/config"
	"docrag/internal/domain"
)

type countingEmbedder struct {
	calls int
	fails int
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.calls++
	if c.calls <= c.fails {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }

func TestMockEmbedder(t *testing.T) {
	e := NewMockEmbedder(16)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Leave Policy")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "leave policy")
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.Equal(t, "mock", e.ModelName())

	zero, err := e.Embed(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), zero)
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{}
	c := NewCachedEmbedder(inner, 2)
	ctx := context.Background()

	v1, err := c.Embed(ctx, "a")
	require.NoError(t, err)
	v2, err := c.Embed(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "counting", c.ModelName())

	_, _ = c.Embed(ctx, "bb")
	_, _ = c.Embed(ctx, "ccc")
	assert.Equal(t, 2, c.Len())

	_, _ = c.Embed(ctx, "a")
	assert.Equal(t, 4, inner.calls, "evicted entry is recomputed")
}

func TestCachedEmbedder_DoesNotCacheErrors(t *testing.T) {
	inner := &countingEmbedder{fails: 1, err: errors.New("boom")}
	c := NewCachedEmbedder(inner, 0)

	_, err := c.Embed(context.Background(), "a")
	require.Error(t, err)

	_, err = c.Embed(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryEmbedder(t *testing.T) {
	svcErr := domain.NewEmbeddingServiceError("test", 503, []byte("busy"), nil)

	t.Run("recovers", func(t *testing.T) {
		inner := &countingEmbedder{fails: 2, err: svcErr}
		r := NewRetryEmbedder(inner, RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, Multiplier: 2}, zaptest.NewLogger(t))

		vec, err := r.Embed(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, []float32{3, 1}, vec)
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("gives up", func(t *testing.T) {
		inner := &countingEmbedder{fails: 10, err: svcErr}
		r := NewRetryEmbedder(inner, RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond}, nil)

		_, err := r.Embed(context.Background(), "abc")
		require.Error(t, err)
		assert.True(t, domain.IsEmbeddingServiceError(err))
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("no retries", func(t *testing.T) {
		inner := &countingEmbedder{fails: 1, err: svcErr}
		r := NewRetryEmbedder(inner, RetryConfig{}, nil)

		_, err := r.Embed(context.Background(), "abc")
		require.Error(t, err)
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		inner := &countingEmbedder{}
		r := NewRetryEmbedder(inner, DefaultRetryConfig(), nil)

		_, err := r.Embed(ctx, "abc")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, inner.calls)
	})
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig().Embedding

	e, err := New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, e)

	cfg.Provider = "mock"
	cfg.Dimension = 8
	e, err = New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &MockEmbedder{}, e)

	cfg.MaxRetries = 2
	e, err = New(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &RetryEmbedder{}, e)

	cfg.MaxRetries = 0
	cfg.RequestsPerSecond = 5
	e, err = New(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &RateLimitedEmbedder{}, e)

	cfg.Provider = "voyage"
	_, err = New(cfg, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestRateLimitedEmbedder(t *testing.T) {
	inner := &countingEmbedder{}
	r := NewRateLimitedEmbedder(inner, 1000, 0)

	for i := 0; i < 3; i++ {
		_, err := r.Embed(context.Background(), "text")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, "counting", r.ModelName())
}

func TestRateLimitedEmbedder_CancelledContext(t *testing.T) {
	inner := &countingEmbedder{}
	r := NewRateLimitedEmbedder(inner, 0.001, 1)

	_, err := r.Embed(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = r.Embed(ctx, "second")
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

type blockingEmbedder struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (b *blockingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return []float32{1, 2}, nil
	}
}

func (b *blockingEmbedder) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *blockingEmbedder) ModelName() string { return "blocking" }

func TestCachedEmbedder_SharesConcurrentMisses(t *testing.T) {
	inner := &blockingEmbedder{release: make(chan struct{})}
	c := NewCachedEmbedder(inner, 10)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vec, err := c.Embed(context.Background(), "same question")
			assert.NoError(t, err)
			assert.Equal(t, []float32{1, 2}, vec)
		}()
	}

	assert.Eventually(t, func() bool { return inner.callCount() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, c.Len())
}

func TestCachedEmbedder_CancelledCallerDoesNotFailOthers(t *testing.T) {
	inner := &blockingEmbedder{release: make(chan struct{})}
	c := NewCachedEmbedder(inner, 10)

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()

	first := make(chan error, 1)
	go func() {
		_, err := c.Embed(ctx1, "shared text")
		first <- err
	}()
	require.Eventually(t, func() bool { return inner.callCount() == 1 }, time.Second, time.Millisecond)

	type result struct {
		vec []float32
		err error
	}
	second := make(chan result, 1)
	go func() {
		vec, err := c.Embed(context.Background(), "shared text")
		second <- result{vec, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel1()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(inner.release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Equal(t, []float32{1, 2}, r.vec)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}

	assert.Equal(t, 1, inner.callCount())
	assert.Equal(t, 1, c.Len())
}
