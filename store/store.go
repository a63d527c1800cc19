package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlens/ledgerlens/core"
)

// embedContentLimit caps how much raw invoice text goes into the embedding
// source; the rest adds noise without improving retrieval.
const embedContentLimit = 500

// Embedder converts text to a fixed-dimension vector.
// Implementations: mock (testing), openai (API), onnx (local model).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Config configures a Store's persistence location.
type Config struct {
	// Dir is the directory holding both persisted artifacts.
	Dir string

	// IndexFile is the vector index artifact filename (default "invoices.idx").
	IndexFile string

	// MetadataFile is the metadata blob filename (default "invoices.meta").
	MetadataFile string
}

func (c *Config) applyDefaults() {
	if c.Dir == "" {
		c.Dir = "./data"
	}
	if c.IndexFile == "" {
		c.IndexFile = "invoices.idx"
	}
	if c.MetadataFile == "" {
		c.MetadataFile = "invoices.meta"
	}
}

// Store binds an Embedder, a FlatIndex, and an ordered metadata list into a
// single add/search surface with synchronous file persistence.
//
// Records are append-only. The vector at slot i and records[i] are always
// the same insertion; index.Count() == len(records) holds after every Add.
// A single lock guards both so readers never observe one ahead of the other.
type Store struct {
	mu       sync.RWMutex
	embedder Embedder
	index    *FlatIndex
	records  []AnalysisRecord
	idToSlot map[string]int

	indexPath string
	metaPath  string
}

// Stats summarizes the stored analyses.
type Stats struct {
	TotalAnalyses        int            `json:"total_analyses"`
	Employees            []string       `json:"employees"`
	StatusDistribution   map[string]int `json:"status_distribution"`
	TotalReimbursed      float64        `json:"total_reimbursed"`
	AverageReimbursement float64        `json:"average_reimbursement"`
	ReimbursementCount   int            `json:"reimbursement_count"`
}

// New creates a Store backed by the given embedder, reloading any previously
// persisted state from cfg.Dir. Load failures (missing files, corrupt data,
// dimension mismatch) degrade to a fresh empty store; they never fail
// construction.
func New(embedder Embedder, cfg Config) (*Store, error) {
	cfg.applyDefaults()

	s := &Store{
		embedder: embedder,
		index:    NewFlatIndex(embedder.Dimensions()),
		idToSlot: make(map[string]int),
	}
	if err := s.initPaths(cfg); err != nil {
		return nil, err
	}

	if err := s.load(); err != nil {
		log.Printf("[STORE] Load failed, starting fresh: %v", err)
		s.index = NewFlatIndex(embedder.Dimensions())
		s.records = nil
		s.idToSlot = make(map[string]int)
	} else if n := len(s.records); n > 0 {
		log.Printf("[STORE] Loaded %d persisted analyses", n)
	}

	return s, nil
}

// Add embeds the analysis, appends it to the index and metadata list, and
// persists the updated store. It returns the generated document id.
//
// When the durable write fails, the in-memory insertion is kept and the doc
// id is returned together with a *PersistenceError: the record is queryable
// but not yet on disk.
func (s *Store) Add(ctx context.Context, res core.AnalysisResult) (string, error) {
	text := buildEmbeddingText(res)

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embed analysis: %w", err)
	}
	vec = Normalize(vec)

	docID := uuid.New().String()
	rec := newRecord(docID, res, text, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	// Vector and metadata append as one unit under the lock so readers
	// never see the index and record list disagree.
	slot, err := s.index.Add(vec)
	if err != nil {
		return "", err
	}
	s.records = append(s.records, rec)
	s.idToSlot[docID] = slot

	if err := s.saveLocked(); err != nil {
		log.Printf("[STORE] Save failed after add %s (in-memory state kept): %v", docID, err)
		return docID, err
	}

	log.Printf("[STORE] Added analysis %s (%s, %s)", docID, rec.EmployeeName, rec.Status)
	return docID, nil
}

// Search embeds the query and returns up to k records ranked by descending
// similarity. The index is over-fetched at min(2k, count) before filters are
// applied; heavy filtering can therefore return fewer than k results even
// when more matches exist deeper in the ranking. An empty store returns an
// empty result without error.
func (s *Store) Search(ctx context.Context, query string, k int, filters Filters) ([]Result, error) {
	s.mu.RLock()
	count := s.index.Count()
	s.mu.RUnlock()
	if count == 0 || k <= 0 {
		return nil, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vec = Normalize(vec)

	fetch := 2 * k
	if fetch > count {
		fetch = count
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.index.Search(vec, fetch)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		rec := s.records[hit.Slot] // copy
		if len(filters) > 0 && !matchesFilters(&rec, filters) {
			continue
		}
		results = append(results, Result{Record: rec, Score: hit.Score})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// GetAll returns every record matching the filters, in insertion order,
// with a placeholder score of 1.0.
func (s *Store) GetAll(filters Filters) []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Result, 0, len(s.records))
	for i := range s.records {
		rec := s.records[i] // copy
		if len(filters) > 0 && !matchesFilters(&rec, filters) {
			continue
		}
		results = append(results, Result{Record: rec, Score: 1.0})
	}
	return results
}

// Count returns the number of stored analyses.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Count()
}

// Statistics summarizes the stored analyses. Calling it twice with no
// intervening Add returns identical results.
func (s *Store) Statistics() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalAnalyses:      len(s.records),
		Employees:          []string{},
		StatusDistribution: make(map[string]int),
	}

	seen := make(map[string]bool)
	for i := range s.records {
		rec := &s.records[i]

		if rec.EmployeeName != "" && !seen[rec.EmployeeName] {
			seen[rec.EmployeeName] = true
			stats.Employees = append(stats.Employees, rec.EmployeeName)
		}

		status := string(rec.Status)
		if status == "" {
			status = "Unknown"
		}
		stats.StatusDistribution[status]++

		if rec.ReimbursementAmount != nil {
			stats.TotalReimbursed += *rec.ReimbursementAmount
			stats.ReimbursementCount++
		}
	}

	sort.Strings(stats.Employees)
	if stats.ReimbursementCount > 0 {
		stats.AverageReimbursement = stats.TotalReimbursed / float64(stats.ReimbursementCount)
	}
	return stats
}

// buildEmbeddingText concatenates the analysis fields, in fixed order, into
// the text the record's embedding is computed from. Raw invoice content is
// truncated to embedContentLimit characters.
func buildEmbeddingText(res core.AnalysisResult) string {
	content := res.InvoiceContent
	if len(content) > embedContentLimit {
		content = content[:embedContentLimit]
	}

	parts := []string{
		fmt.Sprintf("Employee: %s", res.EmployeeName),
		fmt.Sprintf("Status: %s", res.Status),
		fmt.Sprintf("Amount: %s", formatAmount(res.ReimbursementAmount)),
		fmt.Sprintf("Reason: %s", res.Reason),
		fmt.Sprintf("Invoice Content: %s", content),
		fmt.Sprintf("Category: %s", res.ExpenseCategory),
		fmt.Sprintf("Date: %s", res.InvoiceDate),
	}
	return strings.Join(parts, " ")
}

func formatAmount(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%g", *f)
}

func newRecord(docID string, res core.AnalysisResult, text string, ts time.Time) AnalysisRecord {
	return AnalysisRecord{
		DocID:               docID,
		EmployeeName:        res.EmployeeName,
		InvoiceFilename:     res.InvoiceFilename,
		Status:              res.Status,
		ReimbursementAmount: res.ReimbursementAmount,
		TotalInvoiceAmount:  res.TotalInvoiceAmount,
		Reason:              res.Reason,
		InvoiceDate:         res.InvoiceDate,
		InvoiceNumber:       res.InvoiceNumber,
		ExpenseCategory:     res.ExpenseCategory,
		PolicyViolations:    cloneList(res.PolicyViolations),
		ApprovedItems:       cloneList(res.ApprovedItems),
		RejectedItems:       cloneList(res.RejectedItems),
		ContentText:         text,
		Timestamp:           ts,
	}
}

func cloneList(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
