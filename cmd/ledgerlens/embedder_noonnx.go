//go:build !onnx

package main

import (
	"fmt"

	"github.com/ledgerlens/ledgerlens/config"
	"github.com/ledgerlens/ledgerlens/store"
)

func buildONNXEmbedder(cfg *config.Config) (store.Embedder, error) {
	return nil, fmt.Errorf("onnx embedding support requires building with -tags onnx")
}
