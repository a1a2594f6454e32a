package embedding

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"golang.org/x/time/rate"
)

// ErrProvider is returned when the embedding provider fails. Callers treat
// it as a retriable infrastructure failure, not a bad query.
var ErrProvider = goerr.New("embedding provider failure")

const (
	// DefaultDimension is the embedding vector size requested from the provider.
	DefaultDimension = 768

	// DefaultRateLimit caps provider calls per second. Generous enough that
	// only a full corpus re-embed ever waits on it.
	DefaultRateLimit = 25
	DefaultRateBurst = 50

	// maxInputChars bounds the text sent to the provider. Longer inputs keep
	// the head and tail so both the intro and the latest amendments of a
	// document survive.
	maxInputChars = 5000
	headChars     = 2000
	tailChars     = 2000

	truncationMarker = "\n...[contenu tronqué]...\n"
)

// Cache computes embeddings through an LLM client and memoizes them by
// exact input text. Entries are never evicted: the working set is one
// corpus snapshot plus user queries, refreshed with the process.
type Cache struct {
	llmClient gollem.LLMClient
	dimension int
	limiter   *rate.Limiter

	mu      sync.RWMutex
	vectors map[string][]float64
}

// Option is a functional option for Cache configuration
type Option func(*Cache)

// WithDimension sets the requested embedding dimension
func WithDimension(dimension int) Option {
	return func(c *Cache) {
		c.dimension = dimension
	}
}

// WithRateLimit bounds provider calls to rps requests per second with the
// given burst, replacing the default limiter. A zero or negative rps
// disables limiting entirely.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Cache) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		} else {
			c.limiter = nil
		}
	}
}

// New creates a new embedding cache backed by the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (*Cache, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &Cache{
		llmClient: llmClient,
		dimension: DefaultDimension,
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateBurst),
		vectors:   make(map[string][]float64),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// normalize prepares text for embedding. Inputs over maxInputChars keep the
// first headChars and last tailChars around a marker, so two calls with the
// same oversized document hit the same cache entry.
func normalize(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= maxInputChars {
		return text
	}
	return string(runes[:headChars]) + truncationMarker + string(runes[len(runes)-tailChars:])
}

// GetOrCompute returns the embedding for text, computing it at most once
// per distinct normalized input.
func (c *Cache) GetOrCompute(ctx context.Context, text string) ([]float64, error) {
	key := normalize(text)
	if key == "" {
		return nil, goerr.New("empty text")
	}

	c.mu.RLock()
	cached, ok := c.vectors[key]
	c.mu.RUnlock()
	if ok {
		return append([]float64(nil), cached...), nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, goerr.Wrap(err, "rate limiter interrupted")
		}
	}

	embeddings, err := c.llmClient.GenerateEmbedding(ctx, c.dimension, []string{key})
	if err != nil {
		return nil, goerr.Wrap(ErrProvider, "failed to generate embedding", goerr.V("cause", err.Error()))
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, goerr.Wrap(ErrProvider, "no embedding returned")
	}

	vec := embeddings[0]

	c.mu.Lock()
	c.vectors[key] = vec
	c.mu.Unlock()

	return append([]float64(nil), vec...), nil
}

// Size returns the number of cached vectors
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}
