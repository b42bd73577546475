package content

import (
	"context"
	"strings"

	"github.com/maruel/ksid"
)

// DatabaseSource loads databases and their entries for cross-database
// resolution. The storage service implements it with its read-through cache.
type DatabaseSource interface {
	GetDatabase(ctx context.Context, orgID, databaseID ksid.ID) (*Database, error)
	GetEntries(ctx context.Context, orgID, databaseID ksid.ID) ([]*Entry, error)
}

// Resolver computes effective cell values: stored values for plain columns,
// derived values for rollups and formulas. Resolution never fails; anything
// unresolvable (deleted targets, dangling IDs, cyclic definitions, type
// mismatches) yields nil.
type Resolver struct {
	src   DatabaseSource
	orgID ksid.ID
}

// NewResolver creates a resolver scoped to one org.
func NewResolver(src DatabaseSource, orgID ksid.ID) *Resolver {
	return &Resolver{src: src, orgID: orgID}
}

// Value returns the effective value of one cell.
func (r *Resolver) Value(ctx context.Context, db *Database, e *Entry, col *Column) any {
	return r.value(ctx, newResolveState(), db, e, col)
}

// ResolveEntry returns all effective values of an entry, keyed by column ID.
// Each computed column gets a fresh cycle-detection state so one cyclic
// definition cannot blank out its siblings.
func (r *Resolver) ResolveEntry(ctx context.Context, db *Database, e *Entry) map[string]any {
	out := make(map[string]any, len(db.Columns))
	for i := range db.Columns {
		col := &db.Columns[i]
		if v := r.value(ctx, newResolveState(), db, e, col); v != nil {
			out[col.Key()] = v
		}
	}
	return out
}

// ResolveAll resolves every entry of a database.
func (r *Resolver) ResolveAll(ctx context.Context, db *Database, entries []*Entry) []map[string]any {
	out := make([]map[string]any, len(entries))
	for i, e := range entries {
		out[i] = r.ResolveEntry(ctx, db, e)
	}
	return out
}

// visitKey identifies a computed column during one resolution pass. A column
// revisited while it is still being computed is part of a cycle and resolves
// to nil.
type visitKey struct {
	db  ksid.ID
	col ksid.ID
}

type resolveState struct {
	visited  map[visitKey]bool
	dbs      map[ksid.ID]*Database
	dbMisses map[ksid.ID]bool
	entries  map[ksid.ID]map[string]*Entry
}

func newResolveState() *resolveState {
	return &resolveState{
		visited:  map[visitKey]bool{},
		dbs:      map[ksid.ID]*Database{},
		dbMisses: map[ksid.ID]bool{},
		entries:  map[ksid.ID]map[string]*Entry{},
	}
}

func (r *Resolver) value(ctx context.Context, st *resolveState, db *Database, e *Entry, col *Column) any {
	switch col.Type {
	case ColumnTypeRollup:
		return r.rollup(ctx, st, db, e, col)
	case ColumnTypeFormula:
		return r.formula(ctx, st, db, e, col)
	default:
		return e.Properties[col.Key()]
	}
}

func (r *Resolver) rollup(ctx context.Context, st *resolveState, db *Database, e *Entry, col *Column) any {
	cfg := col.Rollup
	if cfg == nil {
		return nil
	}
	key := visitKey{db: db.ID, col: col.ID}
	if st.visited[key] {
		return nil
	}
	st.visited[key] = true
	defer delete(st.visited, key)

	relCol := db.Column(cfg.RelationColumnID)
	if relCol == nil || relCol.Type != ColumnTypeRelation || relCol.Relation == nil {
		return nil
	}
	ids := toStringList(e.Properties[relCol.Key()])
	if cfg.Aggregation == RollupCount {
		// Count is over the stored relation value itself, dangling ids included.
		return float64(len(ids))
	}
	targetDB := r.database(ctx, st, relCol.Relation.TargetDatabaseID)
	if targetDB == nil {
		return nil
	}
	byID := r.entriesByID(ctx, st, targetDB)
	var linked []*Entry
	for _, id := range ids {
		if te, ok := byID[id]; ok {
			linked = append(linked, te)
		}
	}
	targetCol := targetDB.Column(cfg.TargetColumnID)
	if targetCol == nil {
		return nil
	}
	values := make([]any, len(linked))
	for i, te := range linked {
		values[i] = r.value(ctx, st, targetDB, te, targetCol)
	}
	return aggregate(cfg.Aggregation, values)
}

func (r *Resolver) formula(ctx context.Context, st *resolveState, db *Database, e *Entry, col *Column) any {
	cfg := col.Formula
	if cfg == nil {
		return nil
	}
	key := visitKey{db: db.ID, col: col.ID}
	if st.visited[key] {
		return nil
	}
	st.visited[key] = true
	defer delete(st.visited, key)

	f, err := ParseFormula(cfg.Expression)
	if err != nil {
		return nil
	}
	raw := f.Eval(func(name string) any {
		ref := db.ColumnByName(name)
		if ref == nil {
			return nil
		}
		return r.value(ctx, st, db, e, ref)
	})
	return CoerceFormulaResult(cfg.ResultType, raw)
}

func (r *Resolver) database(ctx context.Context, st *resolveState, id ksid.ID) *Database {
	if db, ok := st.dbs[id]; ok {
		return db
	}
	if st.dbMisses[id] {
		return nil
	}
	db, err := r.src.GetDatabase(ctx, r.orgID, id)
	if err != nil {
		st.dbMisses[id] = true
		return nil
	}
	st.dbs[id] = db
	return db
}

func (r *Resolver) entriesByID(ctx context.Context, st *resolveState, db *Database) map[string]*Entry {
	if byID, ok := st.entries[db.ID]; ok {
		return byID
	}
	byID := map[string]*Entry{}
	if entries, err := r.src.GetEntries(ctx, r.orgID, db.ID); err == nil {
		for _, e := range entries {
			byID[e.ID.String()] = e
		}
	}
	st.entries[db.ID] = byID
	return byID
}

// isEmptyValue reports whether a cell renders as empty. An unchecked
// checkbox is a value, not an empty cell.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

func aggregate(agg RollupAggregation, values []any) any {
	switch agg {
	case RollupCountValues:
		n := 0
		for _, v := range values {
			if !isEmptyValue(v) {
				n++
			}
		}
		return float64(n)
	case RollupPercentEmpty, RollupPercentNotEmpty:
		if len(values) == 0 {
			return float64(0)
		}
		n := 0
		for _, v := range values {
			if isEmptyValue(v) == (agg == RollupPercentEmpty) {
				n++
			}
		}
		return 100 * float64(n) / float64(len(values))
	case RollupSum, RollupAvg, RollupMin, RollupMax:
		return aggregateNumeric(agg, values)
	case RollupConcat:
		var parts []string
		for _, v := range values {
			if isEmptyValue(v) {
				continue
			}
			switch t := v.(type) {
			case []string:
				parts = append(parts, t...)
			case []any:
				for _, e := range t {
					if s := formatScalar(e); s != "" {
						parts = append(parts, s)
					}
				}
			default:
				if s := formatScalar(v); s != "" {
					parts = append(parts, s)
				}
			}
		}
		if len(parts) == 0 {
			return nil
		}
		return strings.Join(parts, ", ")
	default:
		return nil
	}
}

// aggregateNumeric reduces the numeric values, ignoring everything else.
// No numeric input at all yields nil rather than a misleading zero.
func aggregateNumeric(agg RollupAggregation, values []any) any {
	var nums []float64
	for _, v := range values {
		if n, ok := v.(float64); ok {
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		return nil
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		switch agg {
		case RollupSum, RollupAvg:
			acc += n
		case RollupMin:
			acc = min(acc, n)
		case RollupMax:
			acc = max(acc, n)
		}
	}
	if agg == RollupAvg {
		acc /= float64(len(nums))
	}
	return acc
}
