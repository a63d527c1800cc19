package server

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ledgerlens/ledgerlens/core"
)

// AnalyzeResponse reports the outcome of a batch analysis run.
type AnalyzeResponse struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	ProcessedInvoices int      `json:"processed_invoices"`
	Errors            []string `json:"errors"`
}

// ChatRequest is a conversational query, optionally continuing a session.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse carries the assistant's markdown answer, the session to
// continue with, and the source analyses the answer drew from.
type ChatResponse struct {
	Response  string       `json:"response"`
	SessionID string       `json:"session_id"`
	Sources   []ChatSource `json:"sources"`
}

// ChatSource identifies one analysis used to ground a chat answer.
type ChatSource struct {
	EmployeeName    string  `json:"employee_name"`
	InvoiceFilename string  `json:"invoice_filename"`
	Status          string  `json:"reimbursement_status"`
	SimilarityScore float64 `json:"similarity_score"`
}

// handleAnalyzeInvoices accepts a policy PDF plus a ZIP of invoice PDFs,
// analyzes each invoice against the policy, and stores the results.
func (s *Server) handleAnalyzeInvoices(c echo.Context) error {
	employeeName := c.FormValue("employee_name")
	if employeeName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "employee_name is required")
	}

	policyPath, err := s.saveUpload(c, "policy_file", ".pdf")
	if err != nil {
		return err
	}
	defer os.Remove(policyPath)

	zipPath, err := s.saveUpload(c, "invoices_zip", ".zip")
	if err != nil {
		return err
	}
	defer os.Remove(zipPath)

	policyText, err := s.pdf.ExtractText(policyPath)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("failed to process policy PDF: %v", err))
	}

	invoices, err := s.pdf.ProcessZip(zipPath)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("failed to process invoices ZIP: %v", err))
	}
	log.Printf("[SERVER] Analyzing %d invoices for %s", len(invoices), employeeName)

	ctx := c.Request().Context()
	var processed int
	var errs []string
	for _, inv := range invoices {
		res, err := s.llm.AnalyzeInvoice(ctx, inv.Content, policyText, employeeName, inv.Filename)
		if err != nil {
			errs = append(errs, fmt.Sprintf("failed to analyze %s: %v", inv.Filename, err))
			continue
		}

		if _, err := s.store.Add(ctx, res); err != nil {
			errs = append(errs, fmt.Sprintf("failed to store %s: %v", inv.Filename, err))
			continue
		}
		processed++
	}

	message := fmt.Sprintf("Successfully processed %d invoices", processed)
	if len(errs) > 0 {
		message += fmt.Sprintf(" with %d errors", len(errs))
	}
	if errs == nil {
		errs = []string{}
	}

	return c.JSON(http.StatusOK, AnalyzeResponse{
		Success:           processed > 0,
		Message:           message,
		ProcessedInvoices: processed,
		Errors:            errs,
	})
}

// handleChat runs one turn of the retrieval-augmented conversation loop.
func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	sessionID := s.sessions.GetOrCreateSession(req.SessionID)
	s.sessions.AddMessage(sessionID, core.RoleUser, req.Query)
	history := s.sessions.History(sessionID)

	ctx := c.Request().Context()

	results, err := s.store.Search(ctx, req.Query, searchK, nil)
	if err != nil {
		log.Printf("[SERVER] Search failed for session %s: %v", sessionID, err)
		return c.JSON(http.StatusOK, ChatResponse{
			Response:  fmt.Sprintf("I apologize, but I encountered an error while processing your request: %v", err),
			SessionID: sessionID,
			Sources:   []ChatSource{},
		})
	}

	response, err := s.llm.GenerateChatResponse(ctx, req.Query, results, history)
	if err != nil {
		log.Printf("[SERVER] Response generation failed for session %s: %v", sessionID, err)
		return c.JSON(http.StatusOK, ChatResponse{
			Response:  fmt.Sprintf("I apologize, but I encountered an error while processing your request: %v", err),
			SessionID: sessionID,
			Sources:   []ChatSource{},
		})
	}

	s.sessions.AddMessage(sessionID, core.RoleAssistant, response)

	sources := make([]ChatSource, 0, 3)
	for i, result := range results {
		if i == 3 {
			break
		}
		sources = append(sources, ChatSource{
			EmployeeName:    result.Record.EmployeeName,
			InvoiceFilename: result.Record.InvoiceFilename,
			Status:          string(result.Record.Status),
			SimilarityScore: result.Score,
		})
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Response:  response,
		SessionID: sessionID,
		Sources:   sources,
	})
}

// saveUpload validates the form file's extension and size and spools it to
// a temp file the handler must remove.
func (s *Server) saveUpload(c echo.Context, field, wantExt string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s is required", field))
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), wantExt) {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be a %s file", field, wantExt))
	}
	if fh.Size > s.maxFileSize {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s too large", field))
	}

	src, err := fh.Open()
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "failed to read upload")
	}
	defer src.Close()

	return spoolTemp(src, wantExt)
}

func spoolTemp(src multipart.File, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "failed to create temp file")
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", echo.NewHTTPError(http.StatusInternalServerError, "failed to save upload")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", echo.NewHTTPError(http.StatusInternalServerError, "failed to save upload")
	}
	return tmp.Name(), nil
}
