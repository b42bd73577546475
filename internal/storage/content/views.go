package content

import (
	"maps"
	"slices"

	"github.com/maruel/ksid"
)

// ViewType selects how a database renders.
type ViewType string

const (
	ViewTypeTable   ViewType = "table"
	ViewTypeKanban  ViewType = "kanban"
	ViewTypeGallery ViewType = "gallery"
)

var viewTypes = map[ViewType]bool{
	ViewTypeTable:   true,
	ViewTypeKanban:  true,
	ViewTypeGallery: true,
}

// UncategorizedBucket collects kanban entries whose group cell is empty or
// names an option that no longer exists.
const UncategorizedBucket = "Uncategorized"

// View is a saved presentation of a database: filters, a sort key, and
// layout state. Views never affect stored data.
type View struct {
	ID            ksid.ID        `json:"id"`
	Name          string         `json:"name"`
	Type          ViewType       `json:"type"`
	Filters       []Filter       `json:"filters,omitempty"`
	Sort          *Sort          `json:"sort,omitempty"`
	GroupBy       ksid.ID        `json:"group_by,omitzero"`
	HiddenColumns []ksid.ID      `json:"hidden_columns,omitempty"`
	ColumnOrder   []ksid.ID      `json:"column_order,omitempty"`
	ColumnWidths  map[string]int `json:"column_widths,omitempty"`
}

// Clone returns a deep copy of the view.
func (v *View) Clone() View {
	out := *v
	out.Filters = slices.Clone(v.Filters)
	if v.Sort != nil {
		s := *v.Sort
		out.Sort = &s
	}
	out.HiddenColumns = slices.Clone(v.HiddenColumns)
	out.ColumnOrder = slices.Clone(v.ColumnOrder)
	out.ColumnWidths = maps.Clone(v.ColumnWidths)
	return out
}

// ValidateView checks a view definition against the database schema.
func ValidateView(db *Database, v *View) error {
	if v.Name == "" {
		return errNameEmpty
	}
	if !viewTypes[v.Type] {
		return invalidColumnConfig(v.Name, "unknown view type %q", v.Type)
	}
	for _, f := range v.Filters {
		if !IsValidFilterOp(f.Op) {
			return invalidColumnConfig(v.Name, "unknown filter operator %q", f.Op)
		}
		if db.Column(f.ColumnID) == nil {
			return ErrColumnNotFound
		}
	}
	if v.Sort != nil {
		if v.Sort.Direction != SortAsc && v.Sort.Direction != SortDesc {
			return invalidColumnConfig(v.Name, "unknown sort direction %q", v.Sort.Direction)
		}
		if db.Column(v.Sort.ColumnID) == nil {
			return ErrColumnNotFound
		}
	}
	if v.Type == ViewTypeKanban {
		if v.GroupBy.IsZero() {
			return invalidColumnConfig(v.Name, "kanban requires a select or status group column")
		}
		col := db.Column(v.GroupBy)
		if col == nil {
			return ErrColumnNotFound
		}
		if col.Type != ColumnTypeSelect && col.Type != ColumnTypeStatus {
			return invalidColumnConfig(v.Name, "kanban group column must be select or status")
		}
	}
	return nil
}

// DefaultKanbanGroup returns the first select or status column, or the zero
// ID when the schema has none.
func DefaultKanbanGroup(db *Database) ksid.ID {
	for i := range db.Columns {
		if db.Columns[i].Type == ColumnTypeSelect || db.Columns[i].Type == ColumnTypeStatus {
			return db.Columns[i].ID
		}
	}
	return 0
}

// ApplyView filters then sorts rows per the view definition.
func ApplyView(rows []ResolvedEntry, v *View) []ResolvedEntry {
	rows = FilterRows(rows, v.Filters)
	SortRows(rows, v.Sort)
	return rows
}

// VisibleColumns returns the column IDs a view shows, in display order:
// the view's explicit order first, then schema order for anything the order
// does not mention, with stale IDs and hidden columns dropped.
func VisibleColumns(db *Database, v *View) []ksid.ID {
	hidden := make(map[ksid.ID]bool, len(v.HiddenColumns))
	for _, id := range v.HiddenColumns {
		hidden[id] = true
	}
	out := make([]ksid.ID, 0, len(db.Columns))
	placed := make(map[ksid.ID]bool, len(db.Columns))
	for _, id := range v.ColumnOrder {
		if db.Column(id) != nil && !hidden[id] && !placed[id] {
			out = append(out, id)
			placed[id] = true
		}
	}
	for i := range db.Columns {
		id := db.Columns[i].ID
		if !hidden[id] && !placed[id] {
			out = append(out, id)
		}
	}
	return out
}

// TableRow is one projected row. Cells hold effective values keyed by
// column ID, restricted to the view's visible columns.
type TableRow struct {
	EntryID ksid.ID        `json:"entry_id"`
	Cells   map[string]any `json:"cells"`
}

// TableProjection is a database rendered as a table.
type TableProjection struct {
	Columns []ksid.ID  `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// KanbanBucket is one column of a kanban board.
type KanbanBucket struct {
	Key   string     `json:"key"`
	Color string     `json:"color,omitempty"`
	Rows  []TableRow `json:"rows"`
}

// KanbanProjection is a database rendered as a board grouped by a select or
// status column.
type KanbanProjection struct {
	GroupBy ksid.ID        `json:"group_by"`
	Buckets []KanbanBucket `json:"buckets"`
}

// GalleryCard is one card of a gallery.
type GalleryCard struct {
	EntryID ksid.ID        `json:"entry_id"`
	Title   string         `json:"title"`
	Cells   map[string]any `json:"cells"`
}

// GalleryProjection is a database rendered as cards.
type GalleryProjection struct {
	Cards []GalleryCard `json:"cards"`
}

// ProjectTable renders rows as a table per the view.
func ProjectTable(db *Database, v *View, rows []ResolvedEntry) *TableProjection {
	cols := VisibleColumns(db, v)
	out := &TableProjection{Columns: cols, Rows: make([]TableRow, 0, len(rows))}
	for _, row := range ApplyView(rows, v) {
		out.Rows = append(out.Rows, projectRow(cols, row))
	}
	return out
}

// ProjectKanban renders rows as a board. One bucket per option of the group
// column in option order, with an Uncategorized bucket appended for entries
// whose group cell is empty or stale. The Uncategorized bucket is omitted
// when nothing lands in it.
func ProjectKanban(db *Database, v *View, rows []ResolvedEntry) *KanbanProjection {
	cols := VisibleColumns(db, v)
	group := db.Column(v.GroupBy)
	out := &KanbanProjection{GroupBy: v.GroupBy}
	index := map[string]int{}
	if group != nil {
		for _, opt := range group.StatusOptions {
			index[opt.Name] = len(out.Buckets)
			out.Buckets = append(out.Buckets, KanbanBucket{Key: opt.Name, Color: opt.Color, Rows: []TableRow{}})
		}
		for _, name := range group.Options {
			if _, ok := index[name]; !ok {
				index[name] = len(out.Buckets)
				out.Buckets = append(out.Buckets, KanbanBucket{Key: name, Rows: []TableRow{}})
			}
		}
	}
	uncategorized := KanbanBucket{Key: UncategorizedBucket, Rows: []TableRow{}}
	for _, row := range ApplyView(rows, v) {
		key := ""
		if group != nil {
			key, _ = row.Values[group.Key()].(string)
		}
		if i, ok := index[key]; ok {
			out.Buckets[i].Rows = append(out.Buckets[i].Rows, projectRow(cols, row))
		} else {
			uncategorized.Rows = append(uncategorized.Rows, projectRow(cols, row))
		}
	}
	if len(uncategorized.Rows) > 0 {
		out.Buckets = append(out.Buckets, uncategorized)
	}
	return out
}

// ProjectGallery renders rows as cards titled by the database's title column.
// Cards keep creation order; a view's Sort has no effect on galleries.
func ProjectGallery(db *Database, v *View, rows []ResolvedEntry) *GalleryProjection {
	cols := VisibleColumns(db, v)
	title := db.TitleColumn()
	if title != nil {
		cols = slices.DeleteFunc(slices.Clone(cols), func(id ksid.ID) bool { return id == title.ID })
	}
	out := &GalleryProjection{Cards: make([]GalleryCard, 0, len(rows))}
	for _, row := range FilterRows(rows, v.Filters) {
		card := GalleryCard{EntryID: row.Entry.ID, Cells: projectRow(cols, row).Cells}
		if title != nil {
			card.Title, _ = row.Values[title.Key()].(string)
		}
		out.Cards = append(out.Cards, card)
	}
	return out
}

func projectRow(cols []ksid.ID, row ResolvedEntry) TableRow {
	cells := make(map[string]any, len(cols))
	for _, id := range cols {
		if v, ok := row.Values[id.String()]; ok {
			cells[id.String()] = v
		}
	}
	return TableRow{EntryID: row.Entry.ID, Cells: cells}
}
