package store

import (
	"fmt"
	"strings"
)

// Filters constrain retrieval by metadata field. Keys are the wire names of
// the analysis payload (e.g. "employee_name", "reimbursement_status").
//
// Matching rules:
//   - string value: case-insensitive substring match against a string field,
//     or case-insensitive equality against the string form of any other field
//   - numeric value: exact equality
//   - slice value: the record's field must be a member of the slice
//
// A filter key that does not name a record field is a pass-through: it never
// excludes a record. This leniency is deliberate; callers issuing ad-hoc
// filter maps over the chat surface should get results, not errors.
type Filters map[string]any

// matchesFilters reports whether the record satisfies every filter entry.
func matchesFilters(rec *AnalysisRecord, filters Filters) bool {
	for key, want := range filters {
		got, ok := rec.field(key)
		if !ok {
			continue // ON_UNKNOWN_FIELD = PASS_THROUGH
		}
		if !matchValue(got, want) {
			return false
		}
	}
	return true
}

func matchValue(got, want any) bool {
	switch w := want.(type) {
	case string:
		if s, ok := got.(string); ok {
			return strings.Contains(strings.ToLower(s), strings.ToLower(w))
		}
		return strings.EqualFold(stringify(got), w)
	case int, int32, int64, float32, float64:
		wf, _ := toFloat(w)
		gf, ok := toFloat(got)
		return ok && gf == wf
	case []string:
		for _, item := range w {
			if s, ok := got.(string); ok && s == item {
				return true
			}
		}
		return false
	case []any:
		for _, item := range w {
			if equalValues(got, item) {
				return true
			}
		}
		return false
	default:
		// Unsupported filter value types never exclude a record.
		return true
	}
}

func equalValues(got, want any) bool {
	if gf, ok := toFloat(got); ok {
		if wf, ok := toFloat(want); ok {
			return gf == wf
		}
	}
	return stringify(got) == stringify(want)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
