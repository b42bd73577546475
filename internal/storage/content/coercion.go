package content

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the accepted input formats for date cells, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// CoerceValue converts a raw input value into the canonical stored shape for
// the column's type. Unconvertible values collapse to nil (an empty cell)
// rather than erroring: a bad cell never rejects the row carrying it.
// Computed columns always coerce to nil since their values are never stored.
func CoerceValue(col *Column, v any) any {
	if v == nil || col.Type.IsComputed() {
		return nil
	}
	switch col.Type {
	case ColumnTypeText, ColumnTypeURL:
		return coerceText(v)
	case ColumnTypeNumber:
		if n, ok := toNumber(v); ok {
			return n
		}
		return nil
	case ColumnTypeCheckbox:
		// Unrecognized input stores false, not an empty cell.
		b, _ := toBool(v)
		return b
	case ColumnTypeDate:
		return coerceDate(v)
	case ColumnTypeSelect:
		if s, ok := v.(string); ok && s != "" {
			return s
		}
		return nil
	case ColumnTypeStatus:
		return coerceStatus(col, v)
	case ColumnTypeMultiSelect:
		if l := toStringList(v); len(l) != 0 {
			return dedup(l)
		}
		return nil
	case ColumnTypeRelation:
		return coerceRelation(col, v)
	default:
		return nil
	}
}

// CoerceEntryData coerces a property map against the schema. Keys that do not
// name a column are dropped; values that coerce to nil are omitted so an
// explicit null clears the cell.
func CoerceEntryData(db *Database, data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for i := range db.Columns {
		col := &db.Columns[i]
		raw, ok := data[col.Key()]
		if !ok {
			continue
		}
		if v := CoerceValue(col, raw); v != nil {
			out[col.Key()] = v
		}
	}
	return out
}

func coerceText(v any) any {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return nil
	}
}

func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1", "checked":
			return true, true
		case "false", "no", "0", "", "unchecked":
			return false, true
		}
	}
	return false, false
}

func coerceDate(v any) any {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if _, err := time.Parse(layout, s); err == nil {
				return s
			}
		}
		return nil
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return nil
	}
}

// coerceStatus matches the value against the column's options
// case-insensitively and stores the canonical option name.
func coerceStatus(col *Column, v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	for _, opt := range col.StatusOptions {
		if strings.EqualFold(opt.Name, s) {
			return opt.Name
		}
	}
	return nil
}

// coerceRelation normalizes to a single ID string for cardinality one and a
// de-duplicated, order-preserving ID list for cardinality many. Dangling IDs
// are kept as-is; they resolve to nothing at read time.
func coerceRelation(col *Column, v any) any {
	ids := toStringList(v)
	if len(ids) == 0 {
		return nil
	}
	if col.Relation != nil && col.Relation.Cardinality == CardinalityOne {
		return ids[0]
	}
	return dedup(ids)
}

func toStringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return slices.DeleteFunc(slices.Clone(t), func(s string) bool { return s == "" })
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
