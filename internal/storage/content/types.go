// Package content implements the database engine: schemas, entries,
// coercion, computed columns, queries, and view projection.
package content

import (
	"maps"
	"slices"
	"strings"

	"github.com/maruel/ksid"
)

// SchemaVersion is written to every database metadata file.
const SchemaVersion = "1.0"

// ColumnType represents the type of a database column.
type ColumnType string

const (
	// ColumnTypeText stores free-form text.
	ColumnTypeText ColumnType = "text"
	// ColumnTypeNumber stores float64 values.
	ColumnTypeNumber ColumnType = "number"
	// ColumnTypeSelect stores a single option name.
	ColumnTypeSelect ColumnType = "select"
	// ColumnTypeMultiSelect stores a list of option names.
	ColumnTypeMultiSelect ColumnType = "multi_select"
	// ColumnTypeStatus is a select with a fixed option palette.
	ColumnTypeStatus ColumnType = "status"
	// ColumnTypeDate stores ISO 8601 date strings.
	ColumnTypeDate ColumnType = "date"
	// ColumnTypeCheckbox stores booleans.
	ColumnTypeCheckbox ColumnType = "checkbox"
	// ColumnTypeURL stores text rendered as a link.
	ColumnTypeURL ColumnType = "url"
	// ColumnTypeRelation stores entry IDs pointing into another database.
	ColumnTypeRelation ColumnType = "relation"
	// ColumnTypeRollup aggregates a column across related entries. Never stored.
	ColumnTypeRollup ColumnType = "rollup"
	// ColumnTypeFormula computes a value from the entry's own columns. Never stored.
	ColumnTypeFormula ColumnType = "formula"
)

// columnTypes is the set of valid column types.
var columnTypes = map[ColumnType]bool{
	ColumnTypeText:        true,
	ColumnTypeNumber:      true,
	ColumnTypeSelect:      true,
	ColumnTypeMultiSelect: true,
	ColumnTypeStatus:      true,
	ColumnTypeDate:        true,
	ColumnTypeCheckbox:    true,
	ColumnTypeURL:         true,
	ColumnTypeRelation:    true,
	ColumnTypeRollup:      true,
	ColumnTypeFormula:     true,
}

// IsComputed reports whether values of this type are derived at read time
// rather than stored.
func (t ColumnType) IsComputed() bool {
	return t == ColumnTypeRollup || t == ColumnTypeFormula
}

// RollupAggregation selects how a rollup column reduces related values.
type RollupAggregation string

const (
	RollupCount           RollupAggregation = "count"
	RollupCountValues     RollupAggregation = "count_values"
	RollupPercentEmpty    RollupAggregation = "percent_empty"
	RollupPercentNotEmpty RollupAggregation = "percent_not_empty"
	RollupSum             RollupAggregation = "sum"
	RollupAvg             RollupAggregation = "avg"
	RollupMin             RollupAggregation = "min"
	RollupMax             RollupAggregation = "max"
	RollupConcat          RollupAggregation = "concat"
)

var rollupAggregations = map[RollupAggregation]bool{
	RollupCount:           true,
	RollupCountValues:     true,
	RollupPercentEmpty:    true,
	RollupPercentNotEmpty: true,
	RollupSum:             true,
	RollupAvg:             true,
	RollupMin:             true,
	RollupMax:             true,
	RollupConcat:          true,
}

// Cardinality restricts how many targets a relation column holds per entry.
type Cardinality string

const (
	// CardinalityOne stores a single entry ID.
	CardinalityOne Cardinality = "one"
	// CardinalityMany stores a de-duplicated list of entry IDs.
	CardinalityMany Cardinality = "many"
)

// FormulaResultType declares the type a formula's result is coerced to.
type FormulaResultType string

const (
	FormulaResultText   FormulaResultType = "text"
	FormulaResultNumber FormulaResultType = "number"
	FormulaResultDate   FormulaResultType = "date"
	FormulaResultBool   FormulaResultType = "bool"
)

var formulaResultTypes = map[FormulaResultType]bool{
	FormulaResultText:   true,
	FormulaResultNumber: true,
	FormulaResultDate:   true,
	FormulaResultBool:   true,
}

// StatusOption is one state of a status column.
type StatusOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// statusColors is the palette allowed for status options.
var statusColors = map[string]bool{
	"default": true,
	"gray":    true,
	"brown":   true,
	"orange":  true,
	"yellow":  true,
	"green":   true,
	"blue":    true,
	"purple":  true,
	"pink":    true,
	"red":     true,
}

// RelationConfig configures a relation column.
type RelationConfig struct {
	TargetDatabaseID ksid.ID     `json:"target_database_id"`
	Cardinality      Cardinality `json:"cardinality"`
}

// RollupConfig configures a rollup column. RelationColumnID names a relation
// column of the same database; TargetColumnID names a column of that
// relation's target database.
type RollupConfig struct {
	RelationColumnID ksid.ID           `json:"relation_column_id"`
	TargetColumnID   ksid.ID           `json:"target_column_id"`
	Aggregation      RollupAggregation `json:"aggregation"`
}

// FormulaConfig configures a formula column.
type FormulaConfig struct {
	Expression string            `json:"expression"`
	ResultType FormulaResultType `json:"result_type"`
}

// Column is one column of a database schema. ID is assigned on creation and
// never changes; stored entry properties are keyed by it so renames are free.
type Column struct {
	ID            ksid.ID         `json:"id"`
	Name          string          `json:"name"`
	Type          ColumnType      `json:"type"`
	Options       []string        `json:"options,omitempty"`
	StatusOptions []StatusOption  `json:"status_options,omitempty"`
	Relation      *RelationConfig `json:"relation,omitempty"`
	Rollup        *RollupConfig   `json:"rollup,omitempty"`
	Formula       *FormulaConfig  `json:"formula,omitempty"`
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() Column {
	out := *c
	out.Options = slices.Clone(c.Options)
	out.StatusOptions = slices.Clone(c.StatusOptions)
	if c.Relation != nil {
		r := *c.Relation
		out.Relation = &r
	}
	if c.Rollup != nil {
		r := *c.Rollup
		out.Rollup = &r
	}
	if c.Formula != nil {
		f := *c.Formula
		out.Formula = &f
	}
	return out
}

// Key returns the property map key for this column.
func (c *Column) Key() string {
	return c.ID.String()
}

// Database is the schema plus identity of one inline database.
type Database struct {
	ID       ksid.ID      `json:"id"`
	OrgID    ksid.ID      `json:"org_id"`
	Name     string       `json:"name"`
	Version  string       `json:"version"`
	Columns  []Column     `json:"columns"`
	Views    []View       `json:"views,omitempty"`
	Created  Time `json:"created"`
	Modified Time `json:"modified"`
}

// Clone returns a deep copy of the database.
func (d *Database) Clone() *Database {
	out := *d
	out.Columns = make([]Column, len(d.Columns))
	for i := range d.Columns {
		out.Columns[i] = d.Columns[i].Clone()
	}
	out.Views = make([]View, len(d.Views))
	for i := range d.Views {
		out.Views[i] = d.Views[i].Clone()
	}
	return &out
}

// GetID returns the database ID.
func (d *Database) GetID() ksid.ID {
	return d.ID
}

// Column returns the column with the given ID, or nil.
func (d *Database) Column(id ksid.ID) *Column {
	for i := range d.Columns {
		if d.Columns[i].ID == id {
			return &d.Columns[i]
		}
	}
	return nil
}

// ColumnByName returns the first column matching name case-insensitively, or nil.
func (d *Database) ColumnByName(name string) *Column {
	for i := range d.Columns {
		if strings.EqualFold(d.Columns[i].Name, name) {
			return &d.Columns[i]
		}
	}
	return nil
}

// TitleColumn returns the column used as an entry's display title:
// the first text column, falling back to the first column.
func (d *Database) TitleColumn() *Column {
	for i := range d.Columns {
		if d.Columns[i].Type == ColumnTypeText {
			return &d.Columns[i]
		}
	}
	if len(d.Columns) > 0 {
		return &d.Columns[0]
	}
	return nil
}

// View returns the view with the given ID, or nil.
func (d *Database) View(id ksid.ID) *View {
	for i := range d.Views {
		if d.Views[i].ID == id {
			return &d.Views[i]
		}
	}
	return nil
}

// Entry is one row of a database. Properties are keyed by column ID string;
// computed column values are never stored.
type Entry struct {
	ID         ksid.ID        `json:"id"`
	Properties map[string]any `json:"properties"`
	Created    Time   `json:"created"`
	Modified   Time   `json:"modified"`
}

// Clone returns a copy of the entry with a fresh property map.
// Nested slices are cloned so callers can mutate list values safely.
func (e *Entry) Clone() *Entry {
	out := *e
	out.Properties = make(map[string]any, len(e.Properties))
	maps.Copy(out.Properties, e.Properties)
	for k, v := range out.Properties {
		if s, ok := v.([]string); ok {
			out.Properties[k] = slices.Clone(s)
		} else if s, ok := v.([]any); ok {
			out.Properties[k] = slices.Clone(s)
		}
	}
	return &out
}

// GetID returns the entry ID.
func (e *Entry) GetID() ksid.ID {
	return e.ID
}

// Title returns the entry's display title per the database's title column.
func (e *Entry) Title(db *Database) string {
	col := db.TitleColumn()
	if col == nil {
		return ""
	}
	if s, ok := e.Properties[col.Key()].(string); ok {
		return s
	}
	return ""
}
