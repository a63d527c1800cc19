package core

import "time"

// ReimbursementStatus is the policy decision for an analyzed invoice.
type ReimbursementStatus string

const (
	StatusFullyReimbursed     ReimbursementStatus = "Fully Reimbursed"
	StatusPartiallyReimbursed ReimbursementStatus = "Partially Reimbursed"
	StatusDeclined            ReimbursementStatus = "Declined"
)

// ValidStatuses lists every accepted reimbursement status.
var ValidStatuses = []ReimbursementStatus{
	StatusFullyReimbursed,
	StatusPartiallyReimbursed,
	StatusDeclined,
}

// Valid reports whether s is one of the three accepted statuses.
func (s ReimbursementStatus) Valid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// AnalysisResult is the structured payload the analysis layer produces for
// each invoice. It is the input to store.Store.Add.
//
// The producer is responsible for supplying a valid Status; the store does
// not re-validate it. Optional numeric fields are nil when the model could
// not extract them; optional string fields are empty. Missing list fields
// are treated as empty lists.
type AnalysisResult struct {
	EmployeeName    string              `json:"employee_name"`
	InvoiceFilename string              `json:"invoice_filename"`
	Status          ReimbursementStatus `json:"reimbursement_status"`

	ReimbursementAmount *float64 `json:"reimbursement_amount"`
	TotalInvoiceAmount  *float64 `json:"total_invoice_amount"`

	Reason         string `json:"reason"`
	InvoiceContent string `json:"invoice_content"`
	InvoiceDate    string `json:"invoice_date,omitempty"`
	InvoiceNumber  string `json:"invoice_number,omitempty"`

	ExpenseCategory  string   `json:"expense_category"`
	PolicyViolations []string `json:"policy_violations"`
	ApprovedItems    []string `json:"approved_items"`
	RejectedItems    []string `json:"rejected_items"`
}

// Message roles for conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversational exchange entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
