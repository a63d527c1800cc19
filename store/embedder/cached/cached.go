// Package cached wraps any Embedder with a ristretto cache so repeated
// texts (re-run queries, identical invoice fields) skip the backing model.
package cached

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/ledgerlens/ledgerlens/store"
)

// Embedder memoizes a backing embedder. Cache cost is the vector byte size.
type Embedder struct {
	inner store.Embedder
	cache *ristretto.Cache
}

// New wraps inner with a cache bounded to roughly maxBytes of vectors.
// A non-positive maxBytes defaults to 32 MiB.
func New(inner store.Embedder, maxBytes int64) (*Embedder, error) {
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}

	vecCost := int64(inner.Dimensions() * 4)
	if vecCost == 0 {
		return nil, fmt.Errorf("cached embedder: inner embedder reports zero dimensions")
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * (maxBytes / vecCost),
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	return &Embedder{inner: inner, cache: cache}, nil
}

// Embed returns a cached vector when the exact text was embedded before,
// otherwise delegates and caches the result. Callers get a fresh copy each
// time; cached vectors are never aliased.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			out := make([]float32, len(vec))
			copy(out, vec)
			return out, nil
		}
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	stored := make([]float32, len(vec))
	copy(stored, vec)
	e.cache.Set(text, stored, int64(len(stored)*4))

	return vec, nil
}

// Dimensions returns the backing embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Wait blocks until pending cache writes are applied. Tests use this to
// make hits deterministic.
func (e *Embedder) Wait() {
	e.cache.Wait()
}
