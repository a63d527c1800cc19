// Package openai provides an Embedder backed by the OpenAI embeddings API,
// or any OpenAI-compatible endpoint.
package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Config configures the OpenAI embedder.
type Config struct {
	// APIKey authenticates against the endpoint.
	APIKey string

	// BaseURL overrides the API endpoint for OpenAI-compatible providers.
	// Empty uses the official endpoint.
	BaseURL string

	// Model is the embedding model name (default "text-embedding-3-small").
	Model string

	// Dimensions is the vector size the model produces (default 1536,
	// matching text-embedding-3-small).
	Dimensions int
}

// Embedder calls the embeddings API for each text.
type Embedder struct {
	client *openai.Client
	model  string
	dims   int
}

// New creates an OpenAI-backed embedder.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedder: APIKey is required")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.SmallEmbedding3)
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1536
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Embedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		dims:   cfg.Dimensions,
	}, nil
}

// Embed requests an embedding for the text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	vec := resp.Data[0].Embedding
	if len(vec) != e.dims {
		return nil, fmt.Errorf("model returned %d dimensions, configured for %d", len(vec), e.dims)
	}
	return vec, nil
}

// Dimensions returns the configured embedding size.
func (e *Embedder) Dimensions() int {
	return e.dims
}
