package content

import (
	"slices"
	"testing"

	"github.com/maruel/ksid"
)

func TestProjectKanbanBuckets(t *testing.T) {
	status := Column{ID: ksid.NewID(), Name: "Stage", Type: ColumnTypeSelect, Options: []string{"A", "B"}}
	db := &Database{ID: ksid.NewID(), Columns: []Column{
		{ID: ksid.NewID(), Name: "Name", Type: ColumnTypeText},
		status,
	}}
	v := &View{ID: ksid.NewID(), Name: "Board", Type: ViewTypeKanban, GroupBy: status.ID}

	rows := []ResolvedEntry{}
	for i, stage := range []any{"A", "B", nil} {
		e := &Entry{ID: ksid.NewID(), Created: Time(int64(i))}
		vals := map[string]any{}
		if stage != nil {
			vals[status.Key()] = stage
		}
		rows = append(rows, ResolvedEntry{Entry: e, Values: vals})
	}

	board := ProjectKanban(db, v, rows)
	if len(board.Buckets) != 3 {
		t.Fatalf("got %d buckets", len(board.Buckets))
	}
	for i, want := range []struct {
		key  string
		rows int
	}{{"A", 1}, {"B", 1}, {UncategorizedBucket, 1}} {
		if board.Buckets[i].Key != want.key || len(board.Buckets[i].Rows) != want.rows {
			t.Fatalf("bucket %d: %q with %d rows, want %q with %d",
				i, board.Buckets[i].Key, len(board.Buckets[i].Rows), want.key, want.rows)
		}
	}
}

func TestProjectKanbanOmitsEmptyUncategorized(t *testing.T) {
	status := Column{ID: ksid.NewID(), Name: "Stage", Type: ColumnTypeSelect, Options: []string{"A"}}
	db := &Database{ID: ksid.NewID(), Columns: []Column{status}}
	v := &View{ID: ksid.NewID(), Name: "Board", Type: ViewTypeKanban, GroupBy: status.ID}

	e := &Entry{ID: ksid.NewID()}
	rows := []ResolvedEntry{{Entry: e, Values: map[string]any{status.Key(): "A"}}}
	board := ProjectKanban(db, v, rows)
	if len(board.Buckets) != 1 || board.Buckets[0].Key != "A" {
		t.Fatalf("got %+v", board.Buckets)
	}
}

func TestProjectKanbanStaleOptionGoesUncategorized(t *testing.T) {
	status := Column{ID: ksid.NewID(), Name: "Stage", Type: ColumnTypeStatus,
		StatusOptions: []StatusOption{{ID: "1", Name: "Open", Color: "blue"}}}
	db := &Database{ID: ksid.NewID(), Columns: []Column{status}}
	v := &View{ID: ksid.NewID(), Name: "Board", Type: ViewTypeKanban, GroupBy: status.ID}

	e := &Entry{ID: ksid.NewID()}
	rows := []ResolvedEntry{{Entry: e, Values: map[string]any{status.Key(): "Removed"}}}
	board := ProjectKanban(db, v, rows)
	last := board.Buckets[len(board.Buckets)-1]
	if last.Key != UncategorizedBucket || len(last.Rows) != 1 {
		t.Fatalf("stale option not in uncategorized: %+v", board.Buckets)
	}
	if board.Buckets[0].Color != "blue" {
		t.Fatalf("bucket color %q", board.Buckets[0].Color)
	}
}

func TestVisibleColumnsReconcilesOrder(t *testing.T) {
	a := Column{ID: ksid.NewID(), Name: "A", Type: ColumnTypeText}
	b := Column{ID: ksid.NewID(), Name: "B", Type: ColumnTypeText}
	c := Column{ID: ksid.NewID(), Name: "C", Type: ColumnTypeText}
	db := &Database{ID: ksid.NewID(), Columns: []Column{a, b, c}}

	stale := ksid.NewID()
	v := &View{
		Name:          "t",
		Type:          ViewTypeTable,
		ColumnOrder:   []ksid.ID{c.ID, stale, a.ID},
		HiddenColumns: []ksid.ID{b.ID},
	}
	got := VisibleColumns(db, v)
	if !slices.Equal(got, []ksid.ID{c.ID, a.ID}) {
		t.Fatalf("got %v", got)
	}
}

func TestProjectTableAppliesFilterAndSort(t *testing.T) {
	name := Column{ID: ksid.NewID(), Name: "Name", Type: ColumnTypeText}
	score := Column{ID: ksid.NewID(), Name: "Score", Type: ColumnTypeNumber}
	db := &Database{ID: ksid.NewID(), Columns: []Column{name, score}}
	v := &View{
		Name:    "t",
		Type:    ViewTypeTable,
		Filters: []Filter{{ColumnID: score.ID, Op: FilterGte, Value: 10.0}},
		Sort:    &Sort{ColumnID: score.ID, Direction: SortDesc},
	}

	rows := []ResolvedEntry{}
	for i, s := range []float64{5, 30, 10} {
		e := &Entry{ID: ksid.NewID(), Created: Time(int64(i))}
		rows = append(rows, ResolvedEntry{Entry: e, Values: map[string]any{
			name.Key():  "e",
			score.Key(): s,
		}})
	}

	table := ProjectTable(db, v, rows)
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows", len(table.Rows))
	}
	if table.Rows[0].Cells[score.Key()] != 30.0 || table.Rows[1].Cells[score.Key()] != 10.0 {
		t.Fatalf("bad order: %v", table.Rows)
	}
}

func TestProjectGallery(t *testing.T) {
	name := Column{ID: ksid.NewID(), Name: "Name", Type: ColumnTypeText}
	url := Column{ID: ksid.NewID(), Name: "Link", Type: ColumnTypeURL}
	db := &Database{ID: ksid.NewID(), Columns: []Column{name, url}}
	v := &View{Name: "g", Type: ViewTypeGallery}

	e := &Entry{ID: ksid.NewID()}
	rows := []ResolvedEntry{{Entry: e, Values: map[string]any{
		name.Key(): "Card one",
		url.Key():  "https://example.com",
	}}}
	g := ProjectGallery(db, v, rows)
	if len(g.Cards) != 1 || g.Cards[0].Title != "Card one" {
		t.Fatalf("got %+v", g)
	}
	if _, ok := g.Cards[0].Cells[name.Key()]; ok {
		t.Fatal("title column repeated in cells")
	}
}

func TestProjectGalleryKeepsCreationOrder(t *testing.T) {
	name := Column{ID: ksid.NewID(), Name: "Name", Type: ColumnTypeText}
	db := &Database{ID: ksid.NewID(), Columns: []Column{name}}
	v := &View{Name: "g", Type: ViewTypeGallery,
		Sort: &Sort{ColumnID: name.ID, Direction: SortAsc}}

	rows := []ResolvedEntry{
		{Entry: &Entry{ID: ksid.NewID()}, Values: map[string]any{name.Key(): "Zebra"}},
		{Entry: &Entry{ID: ksid.NewID()}, Values: map[string]any{name.Key(): "Apple"}},
	}
	g := ProjectGallery(db, v, rows)
	if len(g.Cards) != 2 {
		t.Fatalf("got %d cards", len(g.Cards))
	}
	if g.Cards[0].Title != "Zebra" || g.Cards[1].Title != "Apple" {
		t.Fatalf("sort applied to gallery: %+v", g.Cards)
	}
}

func TestValidateView(t *testing.T) {
	text := Column{ID: ksid.NewID(), Name: "Name", Type: ColumnTypeText}
	db := &Database{ID: ksid.NewID(), Columns: []Column{text}}

	if err := ValidateView(db, &View{Name: "t", Type: ViewTypeTable}); err != nil {
		t.Fatalf("valid view rejected: %v", err)
	}
	if err := ValidateView(db, &View{Name: "t", Type: "timeline"}); err == nil {
		t.Fatal("unknown view type accepted")
	}
	// Kanban cannot group by a text column.
	if err := ValidateView(db, &View{Name: "t", Type: ViewTypeKanban, GroupBy: text.ID}); err == nil {
		t.Fatal("kanban on text column accepted")
	}
	if err := ValidateView(db, &View{Name: "t", Type: ViewTypeKanban}); err == nil {
		t.Fatal("kanban without group column accepted")
	}
	if err := ValidateView(db, &View{Name: "t", Type: ViewTypeTable,
		Filters: []Filter{{ColumnID: text.ID, Op: "between"}}}); err == nil {
		t.Fatal("unknown filter op accepted")
	}
}

func TestDefaultKanbanGroup(t *testing.T) {
	text := Column{ID: ksid.NewID(), Name: "Name", Type: ColumnTypeText}
	sel := Column{ID: ksid.NewID(), Name: "Stage", Type: ColumnTypeSelect, Options: []string{"A"}}
	db := &Database{ID: ksid.NewID(), Columns: []Column{text, sel}}

	if got := DefaultKanbanGroup(db); got != sel.ID {
		t.Fatalf("got %v, want %v", got, sel.ID)
	}
	noSel := &Database{ID: ksid.NewID(), Columns: []Column{text}}
	if got := DefaultKanbanGroup(noSel); !got.IsZero() {
		t.Fatalf("got %v, want zero", got)
	}
}
