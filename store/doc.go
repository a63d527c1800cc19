// Package store provides the embedding-indexed analysis store: a flat
// inner-product similarity index bound to an ordered metadata list, with
// filtered vector search, aggregate statistics, and synchronous file
// persistence.
//
// Architecture:
//   - FlatIndex: dense slot-ordered vector index (cosine similarity over
//     unit-norm vectors)
//   - Store: append-only add/search/statistics surface over the index plus
//     parallel AnalysisRecord metadata
//   - Embedder: text-to-vector boundary (mock for tests, openai for API
//     use, onnx for fully local embedding)
//
// The store is append-only: analyses are immutable once written,
// and slot i of the index is permanently paired with the i-th metadata
// record. Persistence is two files written together after every add and
// reloaded at startup; a failed reload degrades to an empty store.
package store
