package analyzer

import (
	"fmt"
	"strings"

	"github.com/ledgerlens/ledgerlens/core"
	"github.com/ledgerlens/ledgerlens/store"
)

const analysisSystemPrompt = `You are an expert financial analyst assessing employee expense reimbursements against company policy. Respond with a single JSON object and nothing else.`

const chatSystemPrompt = `You are an assistant for an invoice reimbursement system. Answer user questions from the provided invoice analysis data, in clear markdown. When no relevant data is available, say so plainly.`

// chat prompt limits, matching the retrieval surface: 5 analyses of
// context, last 3 exchanges of history.
const (
	maxContextResults = 5
	maxHistoryLines   = 3
)

func buildAnalysisPrompt(invoiceContent, policyContent, employeeName, invoiceFilename string) string {
	var b strings.Builder

	b.WriteString("COMPANY REIMBURSEMENT POLICY:\n")
	b.WriteString(policyContent)
	b.WriteString("\n\nEMPLOYEE INVOICE TO ANALYZE:\n")
	fmt.Fprintf(&b, "Employee Name: %s\nInvoice File: %s\nInvoice Content:\n%s\n\n", employeeName, invoiceFilename, invoiceContent)

	b.WriteString(`Analyze this invoice against the policy and reply with JSON in exactly this shape:
{
    "reimbursement_status": "Fully Reimbursed" | "Partially Reimbursed" | "Declined",
    "reimbursement_amount": <number or null>,
    "total_invoice_amount": <number or null>,
    "reason": "<detailed explanation of the decision>",
    "policy_violations": ["<any policy violations>"],
    "approved_items": ["<approved expense items>"],
    "rejected_items": ["<rejected expense items>"],
    "invoice_date": "<extracted date or null>",
    "invoice_number": "<extracted invoice number or null>",
    "expense_category": "<category such as travel, meal, cab>"
}

Cite specific policy sections in the reason, calculate exact amounts from policy limits, and extract the key invoice details.`)

	return b.String()
}

func buildChatPrompt(query string, results []store.Result, history []core.Message) string {
	var b strings.Builder

	if n := len(history); n > 0 {
		b.WriteString("CONVERSATION HISTORY:\n")
		start := n - maxHistoryLines
		if start < 0 {
			start = 0
		}
		for _, msg := range history[start:] {
			fmt.Fprintf(&b, "- %s: %s\n", msg.Role, msg.Content)
		}
		b.WriteString("\n")
	}

	if len(results) > 0 {
		b.WriteString("RELEVANT INVOICE ANALYSES:\n\n")
		for i, result := range results {
			if i == maxContextResults {
				break
			}
			rec := result.Record
			fmt.Fprintf(&b, "Invoice %d:\n", i+1)
			fmt.Fprintf(&b, "- Employee: %s\n", valueOr(rec.EmployeeName, "N/A"))
			fmt.Fprintf(&b, "- Status: %s\n", valueOr(string(rec.Status), "N/A"))
			fmt.Fprintf(&b, "- Amount: %s\n", amountOr(rec.ReimbursementAmount, "N/A"))
			fmt.Fprintf(&b, "- Date: %s\n", valueOr(rec.InvoiceDate, "N/A"))
			fmt.Fprintf(&b, "- Reason: %s\n\n", valueOr(rec.Reason, "N/A"))
		}
	}

	fmt.Fprintf(&b, "USER QUERY: %s\n\n", query)
	b.WriteString("Answer from the analyses above. Include specific details and relevant statistics when available, and organized summaries when asked.")

	return b.String()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func amountOr(f *float64, fallback string) string {
	if f == nil {
		return fallback
	}
	return fmt.Sprintf("$%.2f", *f)
}
