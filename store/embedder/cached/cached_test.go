package cached_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ledgerlens/ledgerlens/store"
	"github.com/ledgerlens/ledgerlens/store/embedder/cached"
	"github.com/ledgerlens/ledgerlens/store/embedder/mock"
)

// countingEmbedder tracks how many times the backing model is invoked.
type countingEmbedder struct {
	inner store.Embedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

func TestCacheHitSkipsBackingEmbedder(t *testing.T) {
	counting := &countingEmbedder{inner: mock.New(64)}
	e, err := cached.New(counting, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	first, err := e.Embed(ctx, "Employee: Alice")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	e.Wait()

	second, err := e.Embed(ctx, "Employee: Alice")
	if err != nil {
		t.Fatalf("Embed (cached): %v", err)
	}

	if counting.calls != 1 {
		t.Errorf("backing embedder called %d times, want 1", counting.calls)
	}
	if len(first) != len(second) {
		t.Fatalf("vector lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cached vector differs at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestCachedVectorsNotAliased(t *testing.T) {
	e, err := cached.New(mock.New(16), 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	v1, err := e.Embed(ctx, "same text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	e.Wait()
	v2, err := e.Embed(ctx, "same text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	v1[0] = 42
	if v2[0] == 42 {
		t.Error("mutating one returned vector changed another")
	}
	v3, err := e.Embed(ctx, "same text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if v3[0] == 42 {
		t.Error("mutating a returned vector poisoned the cache")
	}
}

func TestErrorsNotCached(t *testing.T) {
	failing := &flakyEmbedder{failFirst: true}
	e, err := cached.New(failing, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if _, err := e.Embed(ctx, "query"); err == nil {
		t.Fatal("expected first Embed to fail")
	}
	e.Wait()
	if _, err := e.Embed(ctx, "query"); err != nil {
		t.Fatalf("second Embed should succeed: %v", err)
	}
}

// flakyEmbedder fails its first call, then behaves.
type flakyEmbedder struct {
	failFirst bool
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.failFirst {
		f.failFirst = false
		return nil, fmt.Errorf("model unavailable")
	}
	return make([]float32, 8), nil
}

func (f *flakyEmbedder) Dimensions() int { return 8 }
