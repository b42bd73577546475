package content

import (
	"cmp"
	"slices"
	"strings"

	"github.com/maruel/ksid"
)

// FilterOp is one of the supported filter operators.
type FilterOp string

const (
	FilterEquals      FilterOp = "equals"
	FilterNotEquals   FilterOp = "notEquals"
	FilterContains    FilterOp = "contains"
	FilterNotContains FilterOp = "notContains"
	FilterIsEmpty     FilterOp = "isEmpty"
	FilterIsNotEmpty  FilterOp = "isNotEmpty"
	FilterGt          FilterOp = "gt"
	FilterLt          FilterOp = "lt"
	FilterGte         FilterOp = "gte"
	FilterLte         FilterOp = "lte"
)

var filterOps = map[FilterOp]bool{
	FilterEquals:      true,
	FilterNotEquals:   true,
	FilterContains:    true,
	FilterNotContains: true,
	FilterIsEmpty:     true,
	FilterIsNotEmpty:  true,
	FilterGt:          true,
	FilterLt:          true,
	FilterGte:         true,
	FilterLte:         true,
}

// IsValidFilterOp reports whether op is a known operator.
func IsValidFilterOp(op FilterOp) bool {
	return filterOps[op]
}

// Filter is one condition over a column's effective value. Multiple filters
// combine with AND.
type Filter struct {
	ColumnID ksid.ID  `json:"column_id"`
	Op       FilterOp `json:"op"`
	Value    any      `json:"value,omitempty"`
}

// SortDirection orders a sort ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort is a single sort key over a column's effective value.
type Sort struct {
	ColumnID  ksid.ID       `json:"column_id"`
	Direction SortDirection `json:"direction"`
}

// ResolvedEntry pairs an entry with its effective values, computed columns
// included. Filters, sorts, and view projection all operate on these.
type ResolvedEntry struct {
	Entry  *Entry
	Values map[string]any
}

// Rows zips entries with their resolved value maps.
func Rows(entries []*Entry, values []map[string]any) []ResolvedEntry {
	rows := make([]ResolvedEntry, len(entries))
	for i, e := range entries {
		rows[i] = ResolvedEntry{Entry: e, Values: values[i]}
	}
	return rows
}

// FilterRows keeps the rows matching every filter.
func FilterRows(rows []ResolvedEntry, filters []Filter) []ResolvedEntry {
	if len(filters) == 0 {
		return rows
	}
	out := make([]ResolvedEntry, 0, len(rows))
	for _, row := range rows {
		if matchesAll(row.Values, filters) {
			out = append(out, row)
		}
	}
	return out
}

func matchesAll(values map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !matchFilter(values[f.ColumnID.String()], f) {
			return false
		}
	}
	return true
}

func matchFilter(v any, f Filter) bool {
	switch f.Op {
	case FilterIsEmpty:
		return isEmptyValue(v)
	case FilterIsNotEmpty:
		return !isEmptyValue(v)
	case FilterEquals:
		return valueEquals(v, f.Value)
	case FilterNotEquals:
		return !valueEquals(v, f.Value)
	case FilterContains:
		return valueContains(v, f.Value)
	case FilterNotContains:
		return !valueContains(v, f.Value)
	case FilterGt, FilterLt, FilterGte, FilterLte:
		if isEmptyValue(v) || f.Value == nil {
			return false
		}
		c := compareValues(v, f.Value)
		switch f.Op {
		case FilterGt:
			return c > 0
		case FilterLt:
			return c < 0
		case FilterGte:
			return c >= 0
		default:
			return c <= 0
		}
	default:
		return false
	}
}

func valueEquals(v, want any) bool {
	if v == nil || want == nil {
		return v == nil && want == nil
	}
	if list := asList(v); list != nil {
		return slices.Equal(list, toStringList(want))
	}
	if a, ok := toNumber(v); ok {
		if b, ok := toNumber(want); ok {
			return a == b
		}
	}
	if a, ok := v.(bool); ok {
		b, bok := toBool(want)
		return bok && a == b
	}
	return formatScalar(v) == formatScalar(want)
}

// valueContains does substring matching on text cells (case-insensitive)
// and membership on list cells.
func valueContains(v, want any) bool {
	if v == nil || want == nil {
		return false
	}
	if list := asList(v); list != nil {
		return slices.Contains(list, formatScalar(want))
	}
	return strings.Contains(strings.ToLower(formatScalar(v)), strings.ToLower(formatScalar(want)))
}

func asList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		return toStringList(t)
	default:
		return nil
	}
}

// compareValues orders two effective values: numerically when both sides are
// numbers, lexicographically otherwise. ISO date strings order correctly as
// plain strings.
func compareValues(a, b any) int {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			return cmp.Compare(an, bn)
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := toBool(b); ok {
			return boolCompare(ab, bb)
		}
	}
	as, bs := formatScalar(a), formatScalar(b)
	if al := asList(a); al != nil {
		as = strings.Join(al, ", ")
	}
	if bl := asList(b); bl != nil {
		bs = strings.Join(bl, ", ")
	}
	return cmp.Compare(as, bs)
}

func boolCompare(a, b bool) int {
	if a == b {
		return 0
	}
	if b {
		return -1
	}
	return 1
}

// SortRows sorts rows by the sort key. The sort is stable and ties break on
// creation time then ID, so equal keys keep creation order in both
// directions. Empty cells always sort last. A nil sort leaves creation order.
func SortRows(rows []ResolvedEntry, s *Sort) {
	if s == nil {
		slices.SortStableFunc(rows, compareCreation)
		return
	}
	key := s.ColumnID.String()
	desc := s.Direction == SortDesc
	slices.SortStableFunc(rows, func(a, b ResolvedEntry) int {
		av, bv := a.Values[key], b.Values[key]
		ae, be := isEmptyValue(av), isEmptyValue(bv)
		if ae || be {
			if ae && be {
				return compareCreation(a, b)
			}
			if ae {
				return 1
			}
			return -1
		}
		c := compareValues(av, bv)
		if desc {
			c = -c
		}
		if c == 0 {
			return compareCreation(a, b)
		}
		return c
	})
}

func compareCreation(a, b ResolvedEntry) int {
	if c := cmp.Compare(a.Entry.Created, b.Entry.Created); c != 0 {
		return c
	}
	return strings.Compare(a.Entry.ID.String(), b.Entry.ID.String())
}
