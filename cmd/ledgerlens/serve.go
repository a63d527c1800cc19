package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/ledgerlens/ledgerlens/analyzer"
	"github.com/ledgerlens/ledgerlens/chat"
	"github.com/ledgerlens/ledgerlens/config"
	"github.com/ledgerlens/ledgerlens/pdfproc"
	"github.com/ledgerlens/ledgerlens/server"
	"github.com/ledgerlens/ledgerlens/store"
	"github.com/ledgerlens/ledgerlens/store/embedder/cached"
	"github.com/ledgerlens/ledgerlens/store/embedder/mock"
	"github.com/ledgerlens/ledgerlens/store/embedder/openai"
)

var listenAddr string

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (overrides LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if cfg.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("configure embedder: %w", err)
	}

	st, err := store.New(embedder, store.Config{
		Dir:          cfg.DataDir,
		IndexFile:    cfg.IndexFile,
		MetadataFile: cfg.MetadataFile,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	log.Printf("[SERVE] Store ready with %d analyses", st.Count())

	sessions := chat.NewManager(cfg.MaxContextLength, cfg.SessionTimeout)

	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey))
	llm := analyzer.New(&client, analyzer.WithModel(cfg.Model))

	srv := server.New(st, sessions, llm, pdfproc.New(), server.Config{
		MaxFileSize: cfg.MaxFileSize,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("[SERVE] Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// buildEmbedder selects the embedding backend and wraps it with the
// in-process cache. The onnx backend compiles in behind the "onnx" build
// tag; without it, selecting onnx is a configuration error.
func buildEmbedder(cfg *config.Config) (store.Embedder, error) {
	var inner store.Embedder
	var err error

	switch cfg.EmbeddingProvider {
	case "openai":
		inner, err = openai.New(openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.EmbeddingDims,
		})
	case "onnx":
		inner, err = buildONNXEmbedder(cfg)
	case "mock":
		inner = mock.New(cfg.EmbeddingDims)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
	if err != nil {
		return nil, err
	}

	return cached.New(inner, 0)
}
