// Package pdfproc extracts text from invoice and policy PDFs and walks ZIP
// archives of invoices.
package pdfproc

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Invoice is one extracted invoice from a ZIP archive.
type Invoice struct {
	Filename string
	Content  string
}

// Processor extracts PDF text. The extraction function is a field so tests
// can exercise ZIP walking without real PDF bytes.
type Processor struct {
	extract func(path string) (string, error)
}

// New creates a Processor using the default PDF text extractor.
func New() *Processor {
	return &Processor{extract: extractText}
}

// ExtractText returns the plain text of a PDF file. A PDF that yields no
// text at all is an error: downstream analysis has nothing to work with.
func (p *Processor) ExtractText(filePath string) (string, error) {
	text, err := p.extract(filePath)
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", filePath, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text could be extracted from %s", filePath)
	}
	return strings.TrimSpace(text), nil
}

// ProcessZip extracts every PDF in the archive and returns filename/content
// pairs. Entries that fail extraction are logged and skipped so one bad
// invoice does not sink the batch; an archive yielding no invoices at all
// is an error.
func (p *Processor) ProcessZip(zipPath string) ([]Invoice, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", zipPath, err)
	}
	defer r.Close()

	var invoices []Invoice
	for _, entry := range r.File {
		if entry.FileInfo().IsDir() || !isPDFEntry(entry.Name) {
			continue
		}

		text, err := p.extractEntry(entry)
		if err != nil {
			log.Printf("[PDF] Skipping %s: %v", entry.Name, err)
			continue
		}

		invoices = append(invoices, Invoice{
			Filename: path.Base(entry.Name),
			Content:  text,
		})
		log.Printf("[PDF] Processed %s", entry.Name)
	}

	if len(invoices) == 0 {
		return nil, fmt.Errorf("no valid PDF files found in %s", zipPath)
	}
	return invoices, nil
}

// extractEntry copies the entry to a temp file and runs text extraction on
// it; the PDF reader needs random access, which zip entries don't offer.
func (p *Processor) extractEntry(entry *zip.File) (string, error) {
	rc, err := entry.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "invoice-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	text, err := p.extract(tmp.Name())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text extracted")
	}
	return strings.TrimSpace(text), nil
}

// isPDFEntry filters archive noise: resource-fork directories and hidden
// files that macOS zips carry alongside the real documents.
func isPDFEntry(name string) bool {
	if strings.HasPrefix(name, "__MACOSX/") || strings.Contains(name, "/__MACOSX/") {
		return false
	}
	base := path.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(strings.ToLower(base), ".pdf")
}

// extractText reads every page's plain text.
func extractText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}
