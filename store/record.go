package store

import (
	"time"

	"github.com/ledgerlens/ledgerlens/core"
)

// AnalysisRecord is the metadata row stored alongside each indexed vector.
// Records are append-only: once inserted, a record's slot and content are
// never mutated or deleted.
type AnalysisRecord struct {
	DocID           string                   `json:"doc_id"`
	EmployeeName    string                   `json:"employee_name"`
	InvoiceFilename string                   `json:"invoice_filename"`
	Status          core.ReimbursementStatus `json:"reimbursement_status"`

	ReimbursementAmount *float64 `json:"reimbursement_amount"`
	TotalInvoiceAmount  *float64 `json:"total_invoice_amount"`

	Reason        string `json:"reason"`
	InvoiceDate   string `json:"invoice_date,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`

	ExpenseCategory  string   `json:"expense_category"`
	PolicyViolations []string `json:"policy_violations"`
	ApprovedItems    []string `json:"approved_items"`
	RejectedItems    []string `json:"rejected_items"`

	// ContentText is the exact text the record's embedding was computed
	// from: the fixed-order field concatenation plus the truncated invoice
	// content.
	ContentText string `json:"content_text"`

	Timestamp time.Time `json:"timestamp"`
}

// Result is a single retrieval hit: a copy of the matched record plus its
// similarity score. GetAll uses a constant placeholder score of 1.0.
type Result struct {
	Record AnalysisRecord `json:"metadata"`
	Score  float64        `json:"score"`
}

// field resolves a filter key to the record's field value. Keys use the
// wire names of the analysis payload. Unknown keys report ok=false so the
// filter layer can treat them as a pass-through.
func (r *AnalysisRecord) field(key string) (any, bool) {
	switch key {
	case "doc_id":
		return r.DocID, true
	case "employee_name":
		return r.EmployeeName, true
	case "invoice_filename":
		return r.InvoiceFilename, true
	case "reimbursement_status":
		return string(r.Status), true
	case "reimbursement_amount":
		if r.ReimbursementAmount == nil {
			return nil, true
		}
		return *r.ReimbursementAmount, true
	case "total_invoice_amount":
		if r.TotalInvoiceAmount == nil {
			return nil, true
		}
		return *r.TotalInvoiceAmount, true
	case "reason":
		return r.Reason, true
	case "invoice_date":
		return r.InvoiceDate, true
	case "invoice_number":
		return r.InvoiceNumber, true
	case "expense_category":
		return r.ExpenseCategory, true
	case "content_text":
		return r.ContentText, true
	default:
		return nil, false
	}
}
