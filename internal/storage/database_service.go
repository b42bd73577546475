package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/docgrid/docgrid/internal/storage/content"
	"github.com/docgrid/docgrid/internal/storage/git"
	"github.com/maruel/ksid"
)

var (
	errDatabaseIDRequired = errors.New("database id is required")
	errEntryIDRequired    = errors.New("entry id is required")
	errColumnIDRequired   = errors.New("column id is required")
	errNameRequired       = errors.New("name is required")
)

// RowFailure records one failed row of a bulk create.
type RowFailure struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BulkResult reports the outcome of a bulk create: how many rows committed
// and which failed. A failed row never rolls back the rows before it.
type BulkResult struct {
	Created  int          `json:"created"`
	Total    int          `json:"total"`
	Failures []RowFailure `json:"failures,omitempty"`
}

// SearchResult is one entry matched by a text search.
type SearchResult struct {
	DatabaseID   ksid.ID `json:"database_id"`
	DatabaseName string  `json:"database_name"`
	EntryID      ksid.ID `json:"entry_id"`
	Title        string  `json:"title"`
	ColumnID     ksid.ID `json:"column_id"`
	Snippet      string  `json:"snippet"`
}

// DatabaseSummary is a database reference without its entries, used by
// relation pickers and listings.
type DatabaseSummary struct {
	ID         ksid.ID `json:"id"`
	Name       string  `json:"name"`
	EntryCount int     `json:"entry_count"`
}

// DatabaseService implements all database, column, entry, and view mutations
// on top of the FileStore. Reads go through an entry cache keyed by database
// ID; every successful mutation invalidates the touched database before
// returning.
type DatabaseService struct {
	store *FileStore
	cache *Cache[*content.Entry]
	links *content.LinkIndex
}

// NewDatabaseService creates the service.
func NewDatabaseService(store *FileStore) *DatabaseService {
	return &DatabaseService{
		store: store,
		cache: NewCache[*content.Entry](),
		links: &content.LinkIndex{},
	}
}

// GetDatabase loads a database's schema and views.
func (s *DatabaseService) GetDatabase(ctx context.Context, orgID, dbID ksid.ID) (*content.Database, error) {
	if orgID.IsZero() {
		return nil, errOrgIDRequired
	}
	if dbID.IsZero() {
		return nil, errDatabaseIDRequired
	}
	return s.store.ReadDatabase(orgID, dbID)
}

// GetEntries loads a database's entries through the cache. The returned
// slice and its entries are shared; callers must not mutate them.
func (s *DatabaseService) GetEntries(ctx context.Context, orgID, dbID ksid.ID) ([]*content.Entry, error) {
	if entries, ok := s.cache.Get(dbID); ok {
		return entries, nil
	}
	entries, err := s.store.ReadEntries(orgID, dbID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(dbID, entries)
	return entries, nil
}

// GetEntry loads one entry.
func (s *DatabaseService) GetEntry(ctx context.Context, orgID, dbID, entryID ksid.ID) (*content.Entry, error) {
	entries, err := s.GetEntries(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == entryID {
			return e, nil
		}
	}
	return nil, content.ErrEntryNotFound
}

// invalidate drops cached state for a mutated database.
func (s *DatabaseService) invalidate(dbID ksid.ID) {
	s.cache.Invalidate(dbID)
}

// checkColumnTargets verifies the cross-database references a column config
// carries. Relation targets must exist at definition time, and a rollup's
// target column must exist in its relation's target database. Either may
// dangle later if the target is deleted.
func (s *DatabaseService) checkColumnTargets(ctx context.Context, orgID ksid.ID, db *content.Database, col *content.Column) error {
	switch col.Type {
	case content.ColumnTypeRelation:
		if col.Relation != nil && !s.store.DatabaseExists(orgID, col.Relation.TargetDatabaseID) {
			return &content.ColumnConfigError{Column: col.Name, Reason: "relation target database does not exist"}
		}
	case content.ColumnTypeRollup:
		if col.Rollup == nil {
			return nil
		}
		rel := db.Column(col.Rollup.RelationColumnID)
		if rel == nil || rel.Relation == nil {
			// ValidateColumn already rejects this.
			return nil
		}
		target, err := s.GetDatabase(ctx, orgID, rel.Relation.TargetDatabaseID)
		if err != nil {
			return &content.ColumnConfigError{Column: col.Name, Reason: "rollup relation targets a missing database"}
		}
		if target.Column(col.Rollup.TargetColumnID) == nil {
			return &content.ColumnConfigError{Column: col.Name, Reason: "rollup target column does not exist in the target database"}
		}
	}
	return nil
}

// CreateDatabase creates a database with the given schema. Column IDs are
// assigned here; the whole schema is validated before anything is written.
func (s *DatabaseService) CreateDatabase(ctx context.Context, orgID ksid.ID, name string, columns []content.Column, author git.Author) (*content.Database, error) {
	if orgID.IsZero() {
		return nil, errOrgIDRequired
	}
	if strings.TrimSpace(name) == "" {
		return nil, errNameRequired
	}
	now := Now()
	db := &content.Database{
		ID:       ksid.NewID(),
		OrgID:    orgID,
		Name:     name,
		Version:  content.SchemaVersion,
		Columns:  make([]content.Column, len(columns)),
		Created:  now,
		Modified: now,
	}
	for i := range columns {
		db.Columns[i] = columns[i].Clone()
		db.Columns[i].ID = ksid.NewID()
		content.NormalizeColumn(&db.Columns[i])
	}
	if err := content.ValidateColumns(db); err != nil {
		return nil, err
	}
	for i := range db.Columns {
		if err := s.checkColumnTargets(ctx, orgID, db, &db.Columns[i]); err != nil {
			return nil, err
		}
	}
	if err := s.store.WriteDatabase(ctx, db, true, author); err != nil {
		return nil, err
	}
	return db, nil
}

// ListDatabases returns summaries of every database of an org, sorted by name.
func (s *DatabaseService) ListDatabases(ctx context.Context, orgID ksid.ID) ([]DatabaseSummary, error) {
	seq, err := s.store.IterDatabases(orgID)
	if err != nil {
		return nil, err
	}
	var out []DatabaseSummary
	for db := range seq {
		entries, err := s.GetEntries(ctx, orgID, db.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, DatabaseSummary{ID: db.ID, Name: db.Name, EntryCount: len(entries)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListDatabasesForRelation returns the databases a relation column may
// target: every database of the org except the one being configured.
// Self-relations are not supported.
func (s *DatabaseService) ListDatabasesForRelation(ctx context.Context, orgID, excludeID ksid.ID) ([]DatabaseSummary, error) {
	all, err := s.ListDatabases(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, d := range all {
		if d.ID != excludeID {
			out = append(out, d)
		}
	}
	return out, nil
}

// RenameDatabase updates a database's display name.
func (s *DatabaseService) RenameDatabase(ctx context.Context, orgID, dbID ksid.ID, name string, author git.Author) (*content.Database, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errNameRequired
	}
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	db.Name = name
	db.Modified = Now()
	if err := s.store.WriteDatabase(ctx, db, false, author); err != nil {
		return nil, err
	}
	return db, nil
}

// DeleteDatabase removes a database and all its entries. Relations pointing
// at it are left dangling and resolve to empty values.
func (s *DatabaseService) DeleteDatabase(ctx context.Context, orgID, dbID ksid.ID, author git.Author) error {
	if err := s.store.DeleteDatabase(ctx, orgID, dbID, author); err != nil {
		return err
	}
	s.invalidate(dbID)
	s.links.RemoveDatabase(dbID)
	return nil
}

// AddColumn appends a column to a database's schema. The column ID is
// assigned here. Existing entries simply have no value for it.
func (s *DatabaseService) AddColumn(ctx context.Context, orgID, dbID ksid.ID, col content.Column, author git.Author) (*content.Database, error) {
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	col = col.Clone()
	col.ID = ksid.NewID()
	content.NormalizeColumn(&col)
	if err := content.ValidateColumn(db, &col); err != nil {
		return nil, err
	}
	if err := s.checkColumnTargets(ctx, orgID, db, &col); err != nil {
		return nil, err
	}
	if db.ColumnByName(col.Name) != nil {
		return nil, &content.ColumnConfigError{Column: col.Name, Reason: "duplicate column name"}
	}
	db.Columns = append(db.Columns, col)
	db.Modified = Now()
	if err := s.store.WriteDatabase(ctx, db, false, author); err != nil {
		return nil, err
	}
	s.invalidate(dbID)
	return db, nil
}

// UpdateColumn replaces a column's definition. The ID is immutable; name,
// type, and config may all change. Stored values are not rewritten, they are
// re-coerced on read through the new type's rules.
func (s *DatabaseService) UpdateColumn(ctx context.Context, orgID, dbID ksid.ID, col content.Column, author git.Author) (*content.Database, error) {
	if col.ID.IsZero() {
		return nil, errColumnIDRequired
	}
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	existing := db.Column(col.ID)
	if existing == nil {
		return nil, content.ErrColumnNotFound
	}
	col = col.Clone()
	content.NormalizeColumn(&col)
	if err := content.ValidateColumn(db, &col); err != nil {
		return nil, err
	}
	if err := s.checkColumnTargets(ctx, orgID, db, &col); err != nil {
		return nil, err
	}
	if other := db.ColumnByName(col.Name); other != nil && other.ID != col.ID {
		return nil, &content.ColumnConfigError{Column: col.Name, Reason: "duplicate column name"}
	}
	*existing = col
	db.Modified = Now()
	if err := s.store.WriteDatabase(ctx, db, false, author); err != nil {
		return nil, err
	}
	s.invalidate(dbID)
	return db, nil
}

// DeleteColumn removes a column definition. Entry property maps keep the
// orphaned key; rollups and formulas referencing the column resolve to empty
// values from now on.
func (s *DatabaseService) DeleteColumn(ctx context.Context, orgID, dbID, columnID ksid.ID, author git.Author) (*content.Database, error) {
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range db.Columns {
		if db.Columns[i].ID == columnID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, content.ErrColumnNotFound
	}
	db.Columns = append(db.Columns[:idx], db.Columns[idx+1:]...)
	db.Modified = Now()
	if err := s.store.WriteDatabase(ctx, db, false, author); err != nil {
		return nil, err
	}
	s.invalidate(dbID)
	return db, nil
}

// CreateEntry creates an entry from raw properties. Each value is coerced to
// its column's type; unconvertible cells store as empty, never as an error.
func (s *DatabaseService) CreateEntry(ctx context.Context, orgID, dbID ksid.ID, properties map[string]any, author git.Author) (*content.Entry, error) {
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	now := Now()
	e := &content.Entry{
		ID:         ksid.NewID(),
		Properties: content.CoerceEntryData(db, properties),
		Created:    now,
		Modified:   now,
	}
	if err := s.store.AppendEntry(ctx, orgID, dbID, e, author); err != nil {
		return nil, err
	}
	s.invalidate(dbID)
	s.links.Update(db, e)
	return e, nil
}

// UpdateEntry applies a partial property update. Only the keys present in
// properties change; a null value clears the cell.
func (s *DatabaseService) UpdateEntry(ctx context.Context, orgID, dbID, entryID ksid.ID, properties map[string]any, author git.Author) (*content.Entry, error) {
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	e, err := s.GetEntry(ctx, orgID, dbID, entryID)
	if err != nil {
		return nil, err
	}
	e = e.Clone()
	for i := range db.Columns {
		col := &db.Columns[i]
		raw, ok := properties[col.Key()]
		if !ok {
			continue
		}
		if v := content.CoerceValue(col, raw); v != nil {
			e.Properties[col.Key()] = v
		} else {
			delete(e.Properties, col.Key())
		}
	}
	e.Modified = Now()
	if err := s.store.UpdateEntry(ctx, orgID, dbID, e, author); err != nil {
		return nil, err
	}
	s.invalidate(dbID)
	s.links.Update(db, e)
	return e, nil
}

// UpdateCell writes a single cell. Writing the same value twice is
// idempotent apart from the modification time.
func (s *DatabaseService) UpdateCell(ctx context.Context, orgID, dbID, entryID, columnID ksid.ID, value any, author git.Author) (*content.Entry, error) {
	if columnID.IsZero() {
		return nil, errColumnIDRequired
	}
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	col := db.Column(columnID)
	if col == nil {
		return nil, content.ErrColumnNotFound
	}
	if col.Type.IsComputed() {
		return nil, &content.ColumnConfigError{Column: col.Name, Reason: "computed columns cannot be written"}
	}
	return s.UpdateEntry(ctx, orgID, dbID, entryID, map[string]any{col.Key(): value}, author)
}

// DuplicateEntry copies an entry under a new ID with fresh timestamps.
// Relation cells are copied by reference, so both entries link the same
// targets.
func (s *DatabaseService) DuplicateEntry(ctx context.Context, orgID, dbID, entryID ksid.ID, author git.Author) (*content.Entry, error) {
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	src, err := s.GetEntry(ctx, orgID, dbID, entryID)
	if err != nil {
		return nil, err
	}
	dup := src.Clone()
	dup.ID = ksid.NewID()
	now := Now()
	dup.Created = now
	dup.Modified = now
	if err := s.store.AppendEntry(ctx, orgID, dbID, dup, author); err != nil {
		return nil, err
	}
	s.invalidate(dbID)
	s.links.Update(db, dup)
	return dup, nil
}

// DeleteEntry removes an entry. Relation cells elsewhere that point at it
// are left dangling and resolve to empty values.
func (s *DatabaseService) DeleteEntry(ctx context.Context, orgID, dbID, entryID ksid.ID, author git.Author) error {
	if entryID.IsZero() {
		return errEntryIDRequired
	}
	if err := s.store.DeleteEntry(ctx, orgID, dbID, entryID, author); err != nil {
		return err
	}
	s.invalidate(dbID)
	s.links.Remove(entryID)
	return nil
}

// BulkCreateEntries creates many entries in one commit. Rows are coerced and
// checked independently; a bad row is recorded in the result and the rest
// still commit.
func (s *DatabaseService) BulkCreateEntries(ctx context.Context, orgID, dbID ksid.ID, rows []map[string]any, author git.Author) (*BulkResult, error) {
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	existing, err := s.GetEntries(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	result := &BulkResult{Total: len(rows)}
	budget := s.store.quotas.MaxEntriesPerDatabase - len(existing)
	var batch []*content.Entry
	for i, row := range rows {
		if len(batch) >= budget {
			result.Failures = append(result.Failures, RowFailure{Row: i, Error: ErrQuotaEntries.Error()})
			continue
		}
		now := Now()
		batch = append(batch, &content.Entry{
			ID:         ksid.NewID(),
			Properties: content.CoerceEntryData(db, row),
			Created:    now,
			Modified:   now,
		})
	}
	if len(batch) != 0 {
		if err := s.store.AppendEntries(ctx, orgID, dbID, batch, author); err != nil {
			return nil, err
		}
		s.invalidate(dbID)
		for _, e := range batch {
			s.links.Update(db, e)
		}
	}
	result.Created = len(batch)
	return result, nil
}

// ResolveRows loads and resolves every entry of a database, computed columns
// included, in creation order.
func (s *DatabaseService) ResolveRows(ctx context.Context, orgID ksid.ID, db *content.Database) ([]content.ResolvedEntry, error) {
	entries, err := s.GetEntries(ctx, orgID, db.ID)
	if err != nil {
		return nil, err
	}
	r := content.NewResolver(s, orgID)
	return content.Rows(entries, r.ResolveAll(ctx, db, entries)), nil
}

// SearchEntries scans every database of the org for entries whose text-like
// cells contain the query, case-insensitively. Results are capped at limit.
func (s *DatabaseService) SearchEntries(ctx context.Context, orgID ksid.ID, query string, limit int) ([]SearchResult, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	seq, err := s.store.IterDatabases(orgID)
	if err != nil {
		return nil, err
	}
	results := []SearchResult{}
	for db := range seq {
		entries, err := s.GetEntries(ctx, orgID, db.ID)
		if err != nil {
			continue
		}
		for _, e := range entries {
			col, snippet := matchEntry(db, e, query)
			if col == nil {
				continue
			}
			results = append(results, SearchResult{
				DatabaseID:   db.ID,
				DatabaseName: db.Name,
				EntryID:      e.ID,
				Title:        e.Title(db),
				ColumnID:     col.ID,
				Snippet:      snippet,
			})
			if len(results) >= limit {
				return results, nil
			}
		}
	}
	return results, nil
}

// matchEntry returns the first text-like column whose stored value contains
// the lowercased query.
func matchEntry(db *content.Database, e *content.Entry, query string) (*content.Column, string) {
	for i := range db.Columns {
		col := &db.Columns[i]
		switch col.Type {
		case content.ColumnTypeText, content.ColumnTypeURL, content.ColumnTypeSelect, content.ColumnTypeStatus:
			if s, ok := e.Properties[col.Key()].(string); ok && strings.Contains(strings.ToLower(s), query) {
				return col, s
			}
		case content.ColumnTypeMultiSelect:
			if vals, ok := e.Properties[col.Key()].([]string); ok {
				for _, s := range vals {
					if strings.Contains(strings.ToLower(s), query) {
						return col, s
					}
				}
			}
		}
	}
	return nil, ""
}

// Backlinks returns the entries whose relation cells point at the given
// entry. The index is built lazily from the whole org on first use.
func (s *DatabaseService) Backlinks(ctx context.Context, orgID, entryID ksid.ID) ([]content.EntryRef, error) {
	err := s.links.EnsureBuilt(func() (iter.Seq2[*content.Database, *content.Entry], error) {
		seq, err := s.store.IterDatabases(orgID)
		if err != nil {
			return nil, err
		}
		return func(yield func(*content.Database, *content.Entry) bool) {
			for db := range seq {
				entries, err := s.GetEntries(ctx, orgID, db.ID)
				if err != nil {
					continue
				}
				for _, e := range entries {
					if !yield(db, e) {
						return
					}
				}
			}
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.links.Backlinks(entryID), nil
}

// GetHistory returns the most recent commits touching a database.
func (s *DatabaseService) GetHistory(ctx context.Context, orgID, dbID ksid.ID, n int) ([]*git.Commit, error) {
	if dbID.IsZero() {
		return nil, errDatabaseIDRequired
	}
	return s.store.GetHistory(ctx, orgID, dbID, n)
}

// GetDatabaseAtCommit returns a database's schema as of a given commit.
func (s *DatabaseService) GetDatabaseAtCommit(ctx context.Context, orgID, dbID ksid.ID, hash string) (*content.Database, error) {
	data, err := s.store.GetFileAtCommit(ctx, orgID, dbID, hash, "metadata.json")
	if err != nil {
		return nil, err
	}
	db := &content.Database{}
	if err := json.Unmarshal(data, db); err != nil {
		return nil, fmt.Errorf("failed to parse database metadata: %w", err)
	}
	return db, nil
}

// CreateView adds a saved view to a database.
func (s *DatabaseService) CreateView(ctx context.Context, orgID, dbID ksid.ID, view content.View, author git.Author) (*content.Database, error) {
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	view = view.Clone()
	view.ID = ksid.NewID()
	if view.Type == content.ViewTypeKanban && view.GroupBy.IsZero() {
		view.GroupBy = content.DefaultKanbanGroup(db)
	}
	if err := content.ValidateView(db, &view); err != nil {
		return nil, err
	}
	db.Views = append(db.Views, view)
	db.Modified = Now()
	if err := s.store.WriteDatabase(ctx, db, false, author); err != nil {
		return nil, err
	}
	return db, nil
}

// UpdateView replaces a saved view's definition.
func (s *DatabaseService) UpdateView(ctx context.Context, orgID, dbID ksid.ID, view content.View, author git.Author) (*content.Database, error) {
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	existing := db.View(view.ID)
	if existing == nil {
		return nil, content.ErrViewNotFound
	}
	view = view.Clone()
	if view.Type == content.ViewTypeKanban && view.GroupBy.IsZero() {
		view.GroupBy = content.DefaultKanbanGroup(db)
	}
	if err := content.ValidateView(db, &view); err != nil {
		return nil, err
	}
	*existing = view
	db.Modified = Now()
	if err := s.store.WriteDatabase(ctx, db, false, author); err != nil {
		return nil, err
	}
	return db, nil
}

// DeleteView removes a saved view.
func (s *DatabaseService) DeleteView(ctx context.Context, orgID, dbID, viewID ksid.ID, author git.Author) (*content.Database, error) {
	db, err := s.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range db.Views {
		if db.Views[i].ID == viewID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, content.ErrViewNotFound
	}
	db.Views = append(db.Views[:idx], db.Views[idx+1:]...)
	db.Modified = Now()
	if err := s.store.WriteDatabase(ctx, db, false, author); err != nil {
		return nil, err
	}
	return db, nil
}
