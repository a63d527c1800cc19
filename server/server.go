// Package server exposes the analysis store and chat surface over HTTP.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ledgerlens/ledgerlens/analyzer"
	"github.com/ledgerlens/ledgerlens/chat"
	"github.com/ledgerlens/ledgerlens/pdfproc"
	"github.com/ledgerlens/ledgerlens/store"
)

// searchK is how many analyses back a chat answer.
const searchK = 5

// Server wires the core components behind the HTTP API.
type Server struct {
	echo     *echo.Echo
	store    *store.Store
	sessions *chat.Manager
	llm      *analyzer.Analyzer
	pdf      *pdfproc.Processor

	maxFileSize int64
}

// Config configures the server.
type Config struct {
	// MaxFileSize caps each uploaded file in bytes (default 50 MiB).
	MaxFileSize int64
}

// New creates the server and registers its routes.
func New(st *store.Store, sessions *chat.Manager, llm *analyzer.Analyzer, pdf *pdfproc.Processor, cfg Config) *Server {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 50 << 20
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:        e,
		store:       st,
		sessions:    sessions,
		llm:         llm,
		pdf:         pdf,
		maxFileSize: cfg.MaxFileSize,
	}

	e.GET("/", s.handleRoot)
	e.POST("/analyze-invoices", s.handleAnalyzeInvoices)
	e.POST("/chat", s.handleChat)
	e.GET("/statistics", s.handleStatistics)
	e.GET("/health", s.handleHealth)
	e.DELETE("/conversations/:id", s.handleClearConversation)

	return s
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	log.Printf("[SERVER] Listening on %s", addr)
	return s.echo.Start(addr)
}

// Shutdown stops the server and expires idle sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.CleanupExpired()
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleRoot(c echo.Context) error {
	stats := s.store.Statistics()
	sessionStats := s.sessions.Stats()

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Invoice Reimbursement System API",
		"status":  "running",
		"statistics": map[string]any{
			"total_analyses":      stats.TotalAnalyses,
			"active_sessions":     sessionStats.ActiveSessions,
			"employees_processed": len(stats.Employees),
			"total_reimbursed":    stats.TotalReimbursed,
		},
	})
}

func (s *Server) handleStatistics(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"vector_store":  s.store.Statistics(),
		"conversations": s.sessions.Stats(),
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleClearConversation(c echo.Context) error {
	id := c.Param("id")
	s.sessions.ClearSession(id)
	return c.JSON(http.StatusOK, map[string]string{
		"message": "conversation session " + id + " cleared",
	})
}
