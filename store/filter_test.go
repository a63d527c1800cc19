package store

import (
	"testing"

	"github.com/ledgerlens/ledgerlens/core"
)

func testRecord() AnalysisRecord {
	amt := 120.0
	return AnalysisRecord{
		DocID:               "doc-1",
		EmployeeName:        "Alice Smith",
		InvoiceFilename:     "taxi-march.pdf",
		Status:              core.StatusPartiallyReimbursed,
		ReimbursementAmount: &amt,
		Reason:              "daily cab limit exceeded",
		ExpenseCategory:     "travel",
		InvoiceDate:         "2024-03-15",
	}
}

func TestFilterStringSubstringCaseInsensitive(t *testing.T) {
	rec := testRecord()

	cases := []struct {
		name    string
		filters Filters
		want    bool
	}{
		{"lowercase substring", Filters{"employee_name": "alice"}, true},
		{"exact", Filters{"employee_name": "Alice Smith"}, true},
		{"mismatch", Filters{"employee_name": "Bob"}, false},
		{"status substring", Filters{"reimbursement_status": "partially"}, true},
		{"category", Filters{"expense_category": "TRAVEL"}, true},
		{"two filters both match", Filters{"employee_name": "alice", "expense_category": "travel"}, true},
		{"two filters one fails", Filters{"employee_name": "alice", "expense_category": "meal"}, false},
	}

	for _, tc := range cases {
		if got := matchesFilters(&rec, tc.filters); got != tc.want {
			t.Errorf("%s: matchesFilters = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFilterStringAgainstNumericField(t *testing.T) {
	rec := testRecord()

	// A string filter against a non-string field compares the field's
	// string form, case-insensitively and exactly.
	if !matchesFilters(&rec, Filters{"reimbursement_amount": "120"}) {
		t.Error("string \"120\" should match amount 120")
	}
	if matchesFilters(&rec, Filters{"reimbursement_amount": "12"}) {
		t.Error("string \"12\" should not substring-match amount 120")
	}
}

func TestFilterNumericExactEquality(t *testing.T) {
	rec := testRecord()

	if !matchesFilters(&rec, Filters{"reimbursement_amount": 120.0}) {
		t.Error("float 120.0 should match amount 120")
	}
	if !matchesFilters(&rec, Filters{"reimbursement_amount": 120}) {
		t.Error("int 120 should match amount 120")
	}
	if matchesFilters(&rec, Filters{"reimbursement_amount": 119.99}) {
		t.Error("119.99 should not match amount 120")
	}

	// A nil amount never equals a numeric filter.
	rec.ReimbursementAmount = nil
	if matchesFilters(&rec, Filters{"reimbursement_amount": 120.0}) {
		t.Error("nil amount should not match a numeric filter")
	}
}

func TestFilterListMembership(t *testing.T) {
	rec := testRecord()

	if !matchesFilters(&rec, Filters{"expense_category": []string{"meal", "travel"}}) {
		t.Error("category travel should be a member of [meal travel]")
	}
	if matchesFilters(&rec, Filters{"expense_category": []string{"meal", "cab"}}) {
		t.Error("category travel should not be a member of [meal cab]")
	}
	if !matchesFilters(&rec, Filters{"reimbursement_amount": []any{100.0, 120.0}}) {
		t.Error("amount 120 should be a member of [100 120]")
	}
}

func TestFilterUnknownKeyPassesThrough(t *testing.T) {
	rec := testRecord()

	// Unknown filter keys never exclude a record.
	if !matchesFilters(&rec, Filters{"no_such_field": "anything"}) {
		t.Error("unknown filter key should pass through")
	}
	if !matchesFilters(&rec, Filters{"no_such_field": "x", "employee_name": "alice"}) {
		t.Error("unknown key combined with a matching filter should pass")
	}
	if matchesFilters(&rec, Filters{"no_such_field": "x", "employee_name": "Bob"}) {
		t.Error("unknown key should not rescue a failing filter")
	}
}
