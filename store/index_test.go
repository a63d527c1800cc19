package store_test

import (
	"errors"
	"testing"

	"github.com/ledgerlens/ledgerlens/store"
)

func TestFlatIndexAddAssignsSequentialSlots(t *testing.T) {
	idx := store.NewFlatIndex(3)

	for want := 0; want < 5; want++ {
		slot, err := idx.Add([]float32{1, 0, 0})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if slot != want {
			t.Errorf("Add returned slot %d, want %d", slot, want)
		}
		if idx.Count() != want+1 {
			t.Errorf("Count = %d after %d adds", idx.Count(), want+1)
		}
	}
}

func TestFlatIndexDimensionMismatch(t *testing.T) {
	idx := store.NewFlatIndex(4)

	_, err := idx.Add([]float32{1, 2})
	var dimErr *store.DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("Add with wrong dimension returned %v, want DimensionMismatchError", err)
	}
	if dimErr.Want != 4 || dimErr.Got != 2 {
		t.Errorf("DimensionMismatchError = %+v, want {4 2}", dimErr)
	}
	if idx.Count() != 0 {
		t.Errorf("failed Add mutated the index: count = %d", idx.Count())
	}

	if _, err := idx.Search([]float32{1, 2, 3}, 1); !errors.As(err, &dimErr) {
		t.Errorf("Search with wrong dimension returned %v, want DimensionMismatchError", err)
	}
}

func TestFlatIndexEmptySearch(t *testing.T) {
	idx := store.NewFlatIndex(2)

	for _, k := range []int{0, 1, 100} {
		hits, err := idx.Search([]float32{1, 0}, k)
		if err != nil {
			t.Fatalf("Search(k=%d) on empty index failed: %v", k, err)
		}
		if len(hits) != 0 {
			t.Errorf("Search(k=%d) on empty index returned %d hits", k, len(hits))
		}
	}
}

func TestFlatIndexSearchRanking(t *testing.T) {
	idx := store.NewFlatIndex(2)

	// Unit vectors at known angles from the query (1, 0).
	vectors := [][]float32{
		{0, 1},              // orthogonal
		{1, 0},              // identical
		{0.70710678, 0.70710678}, // 45 degrees
	}
	for _, v := range vectors {
		if _, err := idx.Add(v); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	hits, err := idx.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Search returned %d hits, want 2", len(hits))
	}
	if hits[0].Slot != 1 {
		t.Errorf("best hit is slot %d, want 1", hits[0].Slot)
	}
	if hits[1].Slot != 2 {
		t.Errorf("second hit is slot %d, want 2", hits[1].Slot)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("scores not descending: %v then %v", hits[0].Score, hits[1].Score)
	}
	if hits[0].Score < 0.999 {
		t.Errorf("identical vector scored %v, want ~1.0", hits[0].Score)
	}
}

func TestFlatIndexSearchNormalizesQuery(t *testing.T) {
	idx := store.NewFlatIndex(2)
	if _, err := idx.Add([]float32{1, 0}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Scaled query must score the same as the unit query.
	hits, err := idx.Search([]float32{10, 0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if hits[0].Score < 0.999 || hits[0].Score > 1.001 {
		t.Errorf("scaled query scored %v, want ~1.0", hits[0].Score)
	}
}
