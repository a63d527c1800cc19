package store

import (
	"math"
	"sort"
)

// Hit is a single similarity match: the slot of the stored vector and its
// inner-product score against the query.
type Hit struct {
	Slot  int
	Score float64
}

// FlatIndex is a flat inner-product similarity index. Vectors are stored
// densely in insertion order; slot i is the i-th vector ever added. Slots
// are never reordered or compacted, so slot order is stable for the life
// of the index.
//
// Callers are expected to add unit-normalized vectors, which makes the
// inner product equal to cosine similarity.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Dimension returns the configured vector dimension.
func (x *FlatIndex) Dimension() int {
	return x.dim
}

// Count returns the number of stored vectors.
func (x *FlatIndex) Count() int {
	return len(x.vectors)
}

// Add appends a vector and returns its slot, which always equals the count
// prior to the call.
func (x *FlatIndex) Add(vec []float32) (int, error) {
	if len(vec) != x.dim {
		return 0, &DimensionMismatchError{Want: x.dim, Got: len(vec)}
	}
	stored := make([]float32, x.dim)
	copy(stored, vec)
	x.vectors = append(x.vectors, stored)
	return len(x.vectors) - 1, nil
}

// Search returns up to k hits ranked by descending inner product of the
// L2-normalized query against each stored vector. An empty index yields an
// empty result for any k; k <= 0 yields an empty result.
func (x *FlatIndex) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != x.dim {
		return nil, &DimensionMismatchError{Want: x.dim, Got: len(query)}
	}
	if len(x.vectors) == 0 || k <= 0 {
		return nil, nil
	}

	q := Normalize(query)

	hits := make([]Hit, len(x.vectors))
	for i, vec := range x.vectors {
		hits[i] = Hit{Slot: i, Score: dot(q, vec)}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// vectorAt returns the stored vector at the given slot.
func (x *FlatIndex) vectorAt(slot int) []float32 {
	return x.vectors[slot]
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Normalize returns a unit-L2-norm copy of vec. A zero vector is returned
// unchanged.
func Normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	out := make([]float32, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	inv := 1 / math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out
}
