package storage

import (
	"errors"
	"testing"

	"github.com/docgrid/docgrid/internal/storage/content"
	"github.com/docgrid/docgrid/internal/storage/git"
	"github.com/maruel/ksid"
)

func newTestService(t *testing.T) *DatabaseService {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(dir, git.NewManager(dir, "", ""), DefaultServerConfig().Quotas)
	if err != nil {
		t.Fatal(err)
	}
	return NewDatabaseService(store)
}

func createTestDatabase(t *testing.T, svc *DatabaseService, orgID ksid.ID) *content.Database {
	t.Helper()
	db, err := svc.CreateDatabase(t.Context(), orgID, "Tasks", []content.Column{
		{Name: "Name", Type: content.ColumnTypeText},
		{Name: "Points", Type: content.ColumnTypeNumber},
		{Name: "Done", Type: content.ColumnTypeCheckbox},
	}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func TestCreateDatabaseAssignsColumnIDs(t *testing.T) {
	svc := newTestService(t)
	db := createTestDatabase(t, svc, ksid.NewID())
	if len(db.Columns) != 3 {
		t.Fatalf("got %d columns", len(db.Columns))
	}
	for _, c := range db.Columns {
		if c.ID.IsZero() {
			t.Fatalf("column %q has no ID", c.Name)
		}
	}
	got, err := svc.GetDatabase(t.Context(), db.OrgID, db.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Tasks" {
		t.Fatalf("got %q", got.Name)
	}
}

func TestCreateDatabaseRejectsBadSchema(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateDatabase(t.Context(), ksid.NewID(), "Bad", []content.Column{
		{Name: "F", Type: content.ColumnTypeFormula,
			Formula: &content.FormulaConfig{Expression: "1 +", ResultType: content.FormulaResultNumber}},
	}, git.Author{})
	var cfgErr *content.ColumnConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ColumnConfigError", err)
	}
}

func TestCreateEntryCoercesBadNumberToEmpty(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	db := createTestDatabase(t, svc, orgID)
	points := db.ColumnByName("Points")

	e, err := svc.CreateEntry(t.Context(), orgID, db.ID, map[string]any{
		db.ColumnByName("Name").Key(): "Alice",
		points.Key():                  "notanumber",
	}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Properties[points.Key()]; ok {
		t.Fatalf("bad number stored: %v", e.Properties[points.Key()])
	}
	if e.Properties[db.ColumnByName("Name").Key()] != "Alice" {
		t.Fatalf("got %v", e.Properties)
	}
}

func TestUpdateCellIdempotent(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	db := createTestDatabase(t, svc, orgID)
	points := db.ColumnByName("Points")

	e, err := svc.CreateEntry(t.Context(), orgID, db.ID, nil, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	first, err := svc.UpdateCell(t.Context(), orgID, db.ID, e.ID, points.ID, 42.0, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.UpdateCell(t.Context(), orgID, db.ID, e.ID, points.ID, 42.0, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	if first.Properties[points.Key()] != 42.0 || second.Properties[points.Key()] != 42.0 {
		t.Fatalf("got %v then %v", first.Properties, second.Properties)
	}
	if len(first.Properties) != len(second.Properties) {
		t.Fatal("repeated write changed the property set")
	}
}

func TestDuplicateEntry(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	db := createTestDatabase(t, svc, orgID)
	name := db.ColumnByName("Name")

	e, err := svc.CreateEntry(t.Context(), orgID, db.ID, map[string]any{name.Key(): "Original"}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	dup, err := svc.DuplicateEntry(t.Context(), orgID, db.ID, e.ID, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	if dup.ID == e.ID {
		t.Fatal("duplicate kept the same ID")
	}
	if dup.Properties[name.Key()] != "Original" {
		t.Fatalf("got %v", dup.Properties)
	}
	entries, err := svc.GetEntries(t.Context(), orgID, db.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
}

func TestUpdateEntryPartialAndClear(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	db := createTestDatabase(t, svc, orgID)
	name := db.ColumnByName("Name")
	points := db.ColumnByName("Points")

	e, err := svc.CreateEntry(t.Context(), orgID, db.ID, map[string]any{
		name.Key():   "Alice",
		points.Key(): 10.0,
	}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	// Patch one key, clear another, leave the rest alone.
	got, err := svc.UpdateEntry(t.Context(), orgID, db.ID, e.ID, map[string]any{
		points.Key(): nil,
	}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Properties[name.Key()] != "Alice" {
		t.Fatalf("untouched key changed: %v", got.Properties)
	}
	if _, ok := got.Properties[points.Key()]; ok {
		t.Fatal("null did not clear the cell")
	}
}

func TestDeleteColumnKeepsOrphanedValues(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	db := createTestDatabase(t, svc, orgID)
	points := db.ColumnByName("Points")

	e, err := svc.CreateEntry(t.Context(), orgID, db.ID, map[string]any{points.Key(): 5.0}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.DeleteColumn(t.Context(), orgID, db.ID, points.ID, git.Author{}); err != nil {
		t.Fatal(err)
	}
	// No cascading rewrite: the stored property survives as an orphan.
	got, err := svc.GetEntry(t.Context(), orgID, db.ID, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Properties[points.Key()] != 5.0 {
		t.Fatalf("orphaned value gone: %v", got.Properties)
	}
}

func TestCacheInvalidationOnMutation(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	db := createTestDatabase(t, svc, orgID)

	if entries, _ := svc.GetEntries(t.Context(), orgID, db.ID); len(entries) != 0 {
		t.Fatalf("got %d entries", len(entries))
	}
	// The read above populated the cache; the write must invalidate it.
	if _, err := svc.CreateEntry(t.Context(), orgID, db.ID, nil, git.Author{}); err != nil {
		t.Fatal(err)
	}
	entries, err := svc.GetEntries(t.Context(), orgID, db.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("stale cache: got %d entries", len(entries))
	}
}

func TestBulkCreateEntries(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	db := createTestDatabase(t, svc, orgID)
	name := db.ColumnByName("Name")

	res, err := svc.BulkCreateEntries(t.Context(), orgID, db.ID, []map[string]any{
		{name.Key(): "a"},
		{name.Key(): "b"},
	}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Created != 2 || res.Total != 2 || len(res.Failures) != 0 {
		t.Fatalf("got %+v", res)
	}
	entries, _ := svc.GetEntries(t.Context(), orgID, db.ID)
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
}

func TestSearchEntries(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	db := createTestDatabase(t, svc, orgID)
	name := db.ColumnByName("Name")

	if _, err := svc.CreateEntry(t.Context(), orgID, db.ID, map[string]any{name.Key(): "Quarterly report"}, git.Author{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateEntry(t.Context(), orgID, db.ID, map[string]any{name.Key(): "Standup notes"}, git.Author{}); err != nil {
		t.Fatal(err)
	}
	results, err := svc.SearchEntries(t.Context(), orgID, "QUARTERLY", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Title != "Quarterly report" || results[0].DatabaseID != db.ID {
		t.Fatalf("got %+v", results)
	}
	if results, _ := svc.SearchEntries(t.Context(), orgID, "", 10); len(results) != 0 {
		t.Fatalf("empty query returned %d results", len(results))
	}
}

func TestBacklinks(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	targets := createTestDatabase(t, svc, orgID)
	te, err := svc.CreateEntry(t.Context(), orgID, targets.ID, nil, git.Author{})
	if err != nil {
		t.Fatal(err)
	}

	sources, err := svc.CreateDatabase(t.Context(), orgID, "Projects", []content.Column{
		{Name: "Tasks", Type: content.ColumnTypeRelation,
			Relation: &content.RelationConfig{TargetDatabaseID: targets.ID, Cardinality: content.CardinalityMany}},
	}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	se, err := svc.CreateEntry(t.Context(), orgID, sources.ID, map[string]any{
		sources.Columns[0].Key(): []string{te.ID.String()},
	}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}

	refs, err := svc.Backlinks(t.Context(), orgID, te.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0].EntryID != se.ID || refs[0].DatabaseID != sources.ID {
		t.Fatalf("got %+v", refs)
	}

	if err := svc.DeleteEntry(t.Context(), orgID, sources.ID, se.ID, git.Author{}); err != nil {
		t.Fatal(err)
	}
	if refs, _ := svc.Backlinks(t.Context(), orgID, te.ID); len(refs) != 0 {
		t.Fatalf("stale backlink: %+v", refs)
	}
}

func TestAddColumnRejectsRollupWithMissingTargetColumn(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	targets := createTestDatabase(t, svc, orgID)
	source, err := svc.CreateDatabase(t.Context(), orgID, "Projects", []content.Column{
		{Name: "Name", Type: content.ColumnTypeText},
		{Name: "Tasks", Type: content.ColumnTypeRelation,
			Relation: &content.RelationConfig{TargetDatabaseID: targets.ID, Cardinality: content.CardinalityMany}},
	}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.AddColumn(t.Context(), orgID, source.ID, content.Column{
		Name: "Total", Type: content.ColumnTypeRollup,
		Rollup: &content.RollupConfig{
			RelationColumnID: source.ColumnByName("Tasks").ID,
			TargetColumnID:   ksid.NewID(),
			Aggregation:      content.RollupSum,
		},
	}, git.Author{})
	var cfgErr *content.ColumnConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ColumnConfigError", err)
	}

	// A target column that actually exists is accepted.
	db, err := svc.AddColumn(t.Context(), orgID, source.ID, content.Column{
		Name: "Total", Type: content.ColumnTypeRollup,
		Rollup: &content.RollupConfig{
			RelationColumnID: source.ColumnByName("Tasks").ID,
			TargetColumnID:   targets.ColumnByName("Points").ID,
			Aggregation:      content.RollupSum,
		},
	}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	if db.ColumnByName("Total") == nil {
		t.Fatal("rollup column not added")
	}
}

func TestUpdateColumnRejectsMissingRelationTarget(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	db := createTestDatabase(t, svc, orgID)
	col := *db.ColumnByName("Points")
	col.Type = content.ColumnTypeRelation
	col.Relation = &content.RelationConfig{TargetDatabaseID: ksid.NewID(), Cardinality: content.CardinalityMany}

	_, err := svc.UpdateColumn(t.Context(), orgID, db.ID, col, git.Author{})
	var cfgErr *content.ColumnConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ColumnConfigError", err)
	}
}

func TestListDatabasesForRelationExcludesSelf(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	a := createTestDatabase(t, svc, orgID)
	b, err := svc.CreateDatabase(t.Context(), orgID, "Other", []content.Column{
		{Name: "Name", Type: content.ColumnTypeText},
	}, git.Author{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.ListDatabasesForRelation(t.Context(), orgID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("got %+v", got)
	}
}

func TestGetHistory(t *testing.T) {
	svc := newTestService(t)
	orgID := ksid.NewID()
	db := createTestDatabase(t, svc, orgID)
	if _, err := svc.CreateEntry(t.Context(), orgID, db.ID, nil, git.Author{Name: "alice", Email: "a@example.com"}); err != nil {
		t.Fatal(err)
	}
	commits, err := svc.GetHistory(t.Context(), orgID, db.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits", len(commits))
	}
	// Newest first.
	if commits[0].Author != "alice" {
		t.Fatalf("got author %q", commits[0].Author)
	}
}

func TestForbiddenAcrossOrgs(t *testing.T) {
	svc := newTestService(t)
	db := createTestDatabase(t, svc, ksid.NewID())
	_, err := svc.GetDatabase(t.Context(), ksid.NewID(), db.ID)
	if !errors.Is(err, content.ErrDatabaseNotFound) {
		t.Fatalf("got %v", err)
	}
}
