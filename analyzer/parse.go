package analyzer

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ledgerlens/ledgerlens/core"
)

var amountPattern = regexp.MustCompile(`\$?(\d+\.?\d*)`)

// ParseAnalysisResponse converts raw model output into an AnalysisResult.
// It extracts the brace-delimited JSON object from anywhere in the text;
// when none is present it falls back to keyword parsing. The returned
// result always carries a valid status and a non-empty reason.
func ParseAnalysisResponse(text string) core.AnalysisResult {
	raw, ok := extractJSON(text)
	if !ok {
		return parseFallback(text)
	}

	res := core.AnalysisResult{
		Status:           core.ReimbursementStatus(raw.Get("reimbursement_status").String()),
		Reason:           raw.Get("reason").String(),
		InvoiceDate:      raw.Get("invoice_date").String(),
		InvoiceNumber:    raw.Get("invoice_number").String(),
		ExpenseCategory:  raw.Get("expense_category").String(),
		PolicyViolations: stringList(raw.Get("policy_violations")),
		ApprovedItems:    stringList(raw.Get("approved_items")),
		RejectedItems:    stringList(raw.Get("rejected_items")),
	}
	res.ReimbursementAmount = optionalNumber(raw.Get("reimbursement_amount"))
	res.TotalInvoiceAmount = optionalNumber(raw.Get("total_invoice_amount"))

	if res.Reason == "" {
		res.Reason = "Analysis incomplete"
	}
	if !res.Status.Valid() {
		res.Status = core.StatusDeclined
		res.Reason = "Unable to determine reimbursement status"
	}
	return res
}

// extractJSON returns the first-to-last brace span of the text as parsed
// JSON. Models routinely wrap the object in prose or code fences; the span
// extraction strips both.
func extractJSON(text string) (gjson.Result, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return gjson.Result{}, false
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return gjson.Result{}, false
	}
	return gjson.Parse(candidate), true
}

// parseFallback recovers what it can from an unstructured reply: status
// keywords, the first two dollar amounts (total, then reimbursed), and the
// reply text itself as the reason.
func parseFallback(text string) core.AnalysisResult {
	res := core.AnalysisResult{
		Status:           core.StatusDeclined,
		Reason:           "Unable to parse analysis response",
		ExpenseCategory:  "Unknown",
		PolicyViolations: []string{},
		ApprovedItems:    []string{},
		RejectedItems:    []string{},
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "fully reimbursed") {
		res.Status = core.StatusFullyReimbursed
	} else if strings.Contains(lower, "partially reimbursed") {
		res.Status = core.StatusPartiallyReimbursed
	}

	matches := amountPattern.FindAllStringSubmatch(text, 2)
	if len(matches) > 0 {
		res.TotalInvoiceAmount = parseAmount(matches[0][1])
	}
	if len(matches) > 1 {
		res.ReimbursementAmount = parseAmount(matches[1][1])
	}

	if len(text) > 50 {
		reason := text
		if len(reason) > 500 {
			reason = reason[:500] + "..."
		}
		res.Reason = reason
	}
	return res
}

func parseAmount(s string) *float64 {
	r := gjson.Parse(s)
	if r.Type != gjson.Number {
		return nil
	}
	v := r.Float()
	return &v
}

func optionalNumber(r gjson.Result) *float64 {
	if r.Type != gjson.Number {
		return nil
	}
	v := r.Float()
	return &v
}

func stringList(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	for _, item := range r.Array() {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
