// Defines shared data types and enums for the API.

package dto

import "github.com/docgrid/docgrid/internal/storage"

// Time is a type alias for storage.Time so timestamps serialize as numbers.
type Time = storage.Time

// StatusOption is one state of a status column.
type StatusOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// RelationConfig configures a relation column.
type RelationConfig struct {
	TargetDatabaseID string `json:"target_database_id"`
	Cardinality      string `json:"cardinality"`
}

// RollupConfig configures a rollup column.
type RollupConfig struct {
	RelationColumnID string `json:"relation_column_id"`
	TargetColumnID   string `json:"target_column_id,omitempty"`
	Aggregation      string `json:"aggregation"`
}

// FormulaConfig configures a formula column.
type FormulaConfig struct {
	Expression string `json:"expression"`
	ResultType string `json:"result_type"`
}

// Column represents a database column with its configuration.
type Column struct {
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Options       []string        `json:"options,omitempty"`
	StatusOptions []StatusOption  `json:"status_options,omitempty"`
	Relation      *RelationConfig `json:"relation,omitempty"`
	Rollup        *RollupConfig   `json:"rollup,omitempty"`
	Formula       *FormulaConfig  `json:"formula,omitempty"`
}

// Filter is one predicate of a view. Filters combine with AND.
type Filter struct {
	ColumnID string `json:"column_id"`
	Op       string `json:"op"`
	Value    any    `json:"value,omitempty"`
}

// Sort orders rows by a single column.
type Sort struct {
	ColumnID  string `json:"column_id"`
	Direction string `json:"direction"`
}

// View represents a saved view configuration.
type View struct {
	ID            string         `json:"id,omitempty"`
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	Filters       []Filter       `json:"filters,omitempty"`
	Sort          *Sort          `json:"sort,omitempty"`
	GroupBy       string         `json:"group_by,omitempty"`
	HiddenColumns []string       `json:"hidden_columns,omitempty"`
	ColumnOrder   []string       `json:"column_order,omitempty"`
	ColumnWidths  map[string]int `json:"column_widths,omitempty"`
}

// Commit represents one entry in the version history.
type Commit struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
	Author  string `json:"author"`
	Email   string `json:"email"`
	When    string `json:"when"`
}

// RowFailure reports one row that could not be imported or created.
type RowFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// SearchResult is one match from a search query.
type SearchResult struct {
	DatabaseID   string `json:"database_id"`
	DatabaseName string `json:"database_name"`
	EntryID      string `json:"entry_id"`
	Title        string `json:"title"`
	ColumnID     string `json:"column_id"`
	Snippet      string `json:"snippet"`
}

// EntryRef points at an entry in a database.
type EntryRef struct {
	DatabaseID string `json:"database_id"`
	EntryID    string `json:"entry_id"`
}
