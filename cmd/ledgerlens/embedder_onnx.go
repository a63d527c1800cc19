//go:build onnx

package main

import (
	"github.com/ledgerlens/ledgerlens/config"
	"github.com/ledgerlens/ledgerlens/store"
	"github.com/ledgerlens/ledgerlens/store/embedder/onnx"
)

func buildONNXEmbedder(cfg *config.Config) (store.Embedder, error) {
	return onnx.New(onnx.Config{
		ModelPath:     cfg.ONNXModelPath,
		TokenizerPath: cfg.ONNXTokenizerPath,
		LibraryPath:   cfg.ONNXLibraryPath,
		Dimensions:    cfg.EmbeddingDims,
	})
}
