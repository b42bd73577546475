package content

import (
	"context"
	"testing"

	"github.com/maruel/ksid"
)

type fakeSource struct {
	dbs     map[ksid.ID]*Database
	entries map[ksid.ID][]*Entry
}

func (s *fakeSource) GetDatabase(_ context.Context, _ ksid.ID, id ksid.ID) (*Database, error) {
	if db, ok := s.dbs[id]; ok {
		return db, nil
	}
	return nil, ErrDatabaseNotFound
}

func (s *fakeSource) GetEntries(_ context.Context, _ ksid.ID, id ksid.ID) ([]*Entry, error) {
	if _, ok := s.dbs[id]; !ok {
		return nil, ErrDatabaseNotFound
	}
	return s.entries[id], nil
}

func newEntry(props map[string]any) *Entry {
	return &Entry{ID: ksid.NewID(), Properties: props, Created: Now(), Modified: Now()}
}

// rollupFixture builds a tasks database relating to a projects database,
// with a rollup on projects aggregating the tasks' Points column.
type rollupFixture struct {
	src      *fakeSource
	projects *Database
	tasks    *Database
	relCol   Column // on projects, points at tasks
	pointsID ksid.ID
	rollupID ksid.ID
}

func newRollupFixture(agg RollupAggregation) *rollupFixture {
	f := &rollupFixture{}
	f.tasks = &Database{ID: ksid.NewID(), Name: "Tasks"}
	points := Column{ID: ksid.NewID(), Name: "Points", Type: ColumnTypeNumber}
	f.pointsID = points.ID
	f.tasks.Columns = []Column{
		{ID: ksid.NewID(), Name: "Title", Type: ColumnTypeText},
		points,
	}

	f.projects = &Database{ID: ksid.NewID(), Name: "Projects"}
	f.relCol = Column{ID: ksid.NewID(), Name: "Tasks", Type: ColumnTypeRelation,
		Relation: &RelationConfig{TargetDatabaseID: f.tasks.ID, Cardinality: CardinalityMany}}
	rollup := Column{ID: ksid.NewID(), Name: "Total", Type: ColumnTypeRollup,
		Rollup: &RollupConfig{RelationColumnID: f.relCol.ID, TargetColumnID: points.ID, Aggregation: agg}}
	f.rollupID = rollup.ID
	f.projects.Columns = []Column{f.relCol, rollup}

	f.src = &fakeSource{
		dbs:     map[ksid.ID]*Database{f.tasks.ID: f.tasks, f.projects.ID: f.projects},
		entries: map[ksid.ID][]*Entry{},
	}
	return f
}

func (f *rollupFixture) addTask(points any) *Entry {
	props := map[string]any{}
	if points != nil {
		props[f.pointsID.String()] = points
	}
	e := newEntry(props)
	f.src.entries[f.tasks.ID] = append(f.src.entries[f.tasks.ID], e)
	return e
}

func (f *rollupFixture) project(taskIDs ...string) *Entry {
	props := map[string]any{}
	if len(taskIDs) != 0 {
		props[f.relCol.ID.String()] = taskIDs
	}
	return newEntry(props)
}

func TestRollupCount(t *testing.T) {
	ctx := t.Context()
	f := newRollupFixture(RollupCount)
	r := NewResolver(f.src, ksid.NewID())
	a := f.addTask(3.0)
	b := f.addTask(nil)

	rollupCol := f.projects.Column(f.rollupID)
	got := r.Value(ctx, f.projects, f.project(a.ID.String(), b.ID.String()), rollupCol)
	if got != 2.0 {
		t.Fatalf("got %v, want 2", got)
	}
	// Empty link list and absent link both count zero.
	if got := r.Value(ctx, f.projects, f.project(), rollupCol); got != 0.0 {
		t.Fatalf("absent link: got %v, want 0", got)
	}
	// Count is over the stored ids, so a dangling id still counts.
	if got := r.Value(ctx, f.projects, f.project(a.ID.String(), "nosuchid"), rollupCol); got != 2.0 {
		t.Fatalf("dangling: got %v, want 2", got)
	}
}

func TestRollupAggregations(t *testing.T) {
	ctx := t.Context()
	f := newRollupFixture(RollupSum)
	r := NewResolver(f.src, ksid.NewID())
	a := f.addTask(3.0)
	b := f.addTask(5.0)
	c := f.addTask(nil)
	p := f.project(a.ID.String(), b.ID.String(), c.ID.String())
	rollup := f.projects.Column(f.rollupID)

	tests := []struct {
		agg  RollupAggregation
		want any
	}{
		{RollupSum, 8.0},
		{RollupAvg, 4.0},
		{RollupMin, 3.0},
		{RollupMax, 5.0},
		{RollupCountValues, 2.0},
		{RollupPercentEmpty, 100.0 / 3},
		{RollupPercentNotEmpty, 200.0 / 3},
		{RollupConcat, "3, 5"},
	}
	for _, tt := range tests {
		rollup.Rollup.Aggregation = tt.agg
		if got := r.Value(ctx, f.projects, p, rollup); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.agg, got, tt.want)
		}
	}
}

func TestRollupDeletedTargetColumn(t *testing.T) {
	ctx := t.Context()
	f := newRollupFixture(RollupSum)
	r := NewResolver(f.src, ksid.NewID())
	a := f.addTask(3.0)

	// Drop the Points column from the target schema after rollup creation.
	f.tasks.Columns = f.tasks.Columns[:1]
	got := r.Value(ctx, f.projects, f.project(a.ID.String()), f.projects.Column(f.rollupID))
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestRollupDeletedTargetDatabase(t *testing.T) {
	ctx := t.Context()
	f := newRollupFixture(RollupSum)
	r := NewResolver(f.src, ksid.NewID())
	a := f.addTask(3.0)

	delete(f.src.dbs, f.tasks.ID)
	got := r.Value(ctx, f.projects, f.project(a.ID.String()), f.projects.Column(f.rollupID))
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestFormulaColumn(t *testing.T) {
	ctx := t.Context()
	price := Column{ID: ksid.NewID(), Name: "Price", Type: ColumnTypeNumber}
	qty := Column{ID: ksid.NewID(), Name: "Qty", Type: ColumnTypeNumber}
	total := Column{ID: ksid.NewID(), Name: "Total", Type: ColumnTypeFormula,
		Formula: &FormulaConfig{Expression: `prop("Price") * prop("Qty")`, ResultType: FormulaResultNumber}}
	db := &Database{ID: ksid.NewID(), Columns: []Column{price, qty, total}}
	src := &fakeSource{dbs: map[ksid.ID]*Database{db.ID: db}, entries: map[ksid.ID][]*Entry{}}
	r := NewResolver(src, ksid.NewID())

	e := newEntry(map[string]any{price.Key(): 10.0, qty.Key(): 4.0})
	if got := r.Value(ctx, db, e, db.Column(total.ID)); got != 40.0 {
		t.Fatalf("got %v", got)
	}
	// Missing operand degrades to an empty cell.
	e2 := newEntry(map[string]any{price.Key(): 10.0})
	if got := r.Value(ctx, db, e2, db.Column(total.ID)); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestFormulaCycleResolvesToNil(t *testing.T) {
	ctx := t.Context()
	a := Column{ID: ksid.NewID(), Name: "A", Type: ColumnTypeFormula,
		Formula: &FormulaConfig{Expression: `prop("B") + 1`, ResultType: FormulaResultNumber}}
	b := Column{ID: ksid.NewID(), Name: "B", Type: ColumnTypeFormula,
		Formula: &FormulaConfig{Expression: `prop("A") + 1`, ResultType: FormulaResultNumber}}
	db := &Database{ID: ksid.NewID(), Columns: []Column{a, b}}
	src := &fakeSource{dbs: map[ksid.ID]*Database{db.ID: db}, entries: map[ksid.ID][]*Entry{}}
	r := NewResolver(src, ksid.NewID())

	e := newEntry(map[string]any{})
	if got := r.Value(ctx, db, e, db.Column(a.ID)); got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestResolveEntrySkipsNilValues(t *testing.T) {
	ctx := t.Context()
	name := Column{ID: ksid.NewID(), Name: "Name", Type: ColumnTypeText}
	bad := Column{ID: ksid.NewID(), Name: "Bad", Type: ColumnTypeFormula,
		Formula: &FormulaConfig{Expression: `prop("Gone")`, ResultType: FormulaResultText}}
	db := &Database{ID: ksid.NewID(), Columns: []Column{name, bad}}
	src := &fakeSource{dbs: map[ksid.ID]*Database{db.ID: db}, entries: map[ksid.ID][]*Entry{}}
	r := NewResolver(src, ksid.NewID())

	values := r.ResolveEntry(ctx, db, newEntry(map[string]any{name.Key(): "x"}))
	if values[name.Key()] != "x" {
		t.Fatalf("got %v", values)
	}
	if _, ok := values[bad.Key()]; ok {
		t.Fatal("broken formula produced a value")
	}
}
