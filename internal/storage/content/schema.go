package content

import (
	"strings"

	"github.com/maruel/ksid"
)

// defaultStatusOptions seeds a status column created without options.
func defaultStatusOptions() []StatusOption {
	return []StatusOption{
		{ID: ksid.NewID().String(), Name: "Not started", Color: "gray"},
		{ID: ksid.NewID().String(), Name: "In progress", Color: "blue"},
		{ID: ksid.NewID().String(), Name: "Done", Color: "green"},
	}
}

// NormalizeColumn fills in generated parts of a column definition: option
// IDs, default colors, and the default status palette.
func NormalizeColumn(col *Column) {
	if col.Type == ColumnTypeStatus && len(col.StatusOptions) == 0 {
		col.StatusOptions = defaultStatusOptions()
		return
	}
	for i := range col.StatusOptions {
		if col.StatusOptions[i].ID == "" {
			col.StatusOptions[i].ID = ksid.NewID().String()
		}
		if col.StatusOptions[i].Color == "" {
			col.StatusOptions[i].Color = "default"
		}
	}
}

// ValidateColumn checks a column definition against the database it belongs
// to. It returns a ColumnConfigError on the first problem found; a column
// that fails here must never be persisted.
func ValidateColumn(db *Database, col *Column) error {
	if strings.TrimSpace(col.Name) == "" {
		return invalidColumnConfig(col.Name, "name is required")
	}
	if !columnTypes[col.Type] {
		return invalidColumnConfig(col.Name, "unknown column type %q", col.Type)
	}
	if col.Relation != nil && col.Type != ColumnTypeRelation {
		return invalidColumnConfig(col.Name, "relation config on non-relation column")
	}
	if col.Rollup != nil && col.Type != ColumnTypeRollup {
		return invalidColumnConfig(col.Name, "rollup config on non-rollup column")
	}
	if col.Formula != nil && col.Type != ColumnTypeFormula {
		return invalidColumnConfig(col.Name, "formula config on non-formula column")
	}
	switch col.Type {
	case ColumnTypeStatus:
		seen := make(map[string]bool, len(col.StatusOptions))
		for _, opt := range col.StatusOptions {
			if strings.TrimSpace(opt.Name) == "" {
				return invalidColumnConfig(col.Name, "status option name is required")
			}
			key := strings.ToLower(opt.Name)
			if seen[key] {
				return invalidColumnConfig(col.Name, "duplicate status option %q", opt.Name)
			}
			seen[key] = true
			if opt.Color != "" && !statusColors[opt.Color] {
				return invalidColumnConfig(col.Name, "unknown status color %q", opt.Color)
			}
		}
	case ColumnTypeRelation:
		if col.Relation == nil {
			return invalidColumnConfig(col.Name, "relation config is required")
		}
		if col.Relation.TargetDatabaseID.IsZero() {
			return invalidColumnConfig(col.Name, "relation target database is required")
		}
		if col.Relation.TargetDatabaseID == db.ID {
			return invalidColumnConfig(col.Name, "relation cannot target its own database")
		}
		if col.Relation.Cardinality != CardinalityOne && col.Relation.Cardinality != CardinalityMany {
			return invalidColumnConfig(col.Name, "unknown cardinality %q", col.Relation.Cardinality)
		}
	case ColumnTypeRollup:
		if col.Rollup == nil {
			return invalidColumnConfig(col.Name, "rollup config is required")
		}
		if !rollupAggregations[col.Rollup.Aggregation] {
			return invalidColumnConfig(col.Name, "unknown aggregation %q", col.Rollup.Aggregation)
		}
		rel := db.Column(col.Rollup.RelationColumnID)
		if rel == nil || rel.Type != ColumnTypeRelation {
			return invalidColumnConfig(col.Name, "rollup must point at a relation column of the same database")
		}
		if col.Rollup.TargetColumnID.IsZero() {
			return invalidColumnConfig(col.Name, "rollup target column is required")
		}
	case ColumnTypeFormula:
		if col.Formula == nil {
			return invalidColumnConfig(col.Name, "formula config is required")
		}
		if !formulaResultTypes[col.Formula.ResultType] {
			return invalidColumnConfig(col.Name, "unknown result type %q", col.Formula.ResultType)
		}
		if _, err := ParseFormula(col.Formula.Expression); err != nil {
			return invalidColumnConfig(col.Name, "bad expression: %s", err)
		}
	}
	return nil
}

// ValidateColumns validates a whole schema, including cross-column checks
// that single-column validation cannot see.
func ValidateColumns(db *Database) error {
	seen := make(map[string]bool, len(db.Columns))
	for i := range db.Columns {
		col := &db.Columns[i]
		if err := ValidateColumn(db, col); err != nil {
			return err
		}
		key := strings.ToLower(col.Name)
		if seen[key] {
			return invalidColumnConfig(col.Name, "duplicate column name")
		}
		seen[key] = true
	}
	return nil
}
