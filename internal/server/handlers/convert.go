// Converts between storage entities and API DTOs.

package handlers

import (
	"time"

	"github.com/docgrid/docgrid/internal/server/dto"
	"github.com/docgrid/docgrid/internal/storage"
	"github.com/docgrid/docgrid/internal/storage/content"
	"github.com/docgrid/docgrid/internal/storage/git"
	"github.com/maruel/ksid"
)

// decodeID parses a path or body ID, reporting the named field on failure.
func decodeID(s, field string) (ksid.ID, error) {
	id, err := ksid.Parse(s)
	if err != nil {
		return 0, dto.InvalidFormat(field, "not a valid ID")
	}
	return id, nil
}

// decodeOptionalID parses an ID that may be absent.
func decodeOptionalID(s, field string) (ksid.ID, error) {
	if s == "" {
		return 0, nil
	}
	return decodeID(s, field)
}

// gitAuthor builds the commit identity for a request. The configured default
// applies when the request names no author.
func (cfg *Config) gitAuthor(name string) git.Author {
	if name == "" {
		name = cfg.DefaultAuthor
	}
	return git.Author{Name: name}
}

func columnToDTO(c content.Column) dto.Column {
	out := dto.Column{
		ID:      c.ID.String(),
		Name:    c.Name,
		Type:    string(c.Type),
		Options: c.Options,
	}
	for _, o := range c.StatusOptions {
		out.StatusOptions = append(out.StatusOptions, dto.StatusOption{ID: o.ID, Name: o.Name, Color: o.Color})
	}
	if c.Relation != nil {
		out.Relation = &dto.RelationConfig{
			TargetDatabaseID: c.Relation.TargetDatabaseID.String(),
			Cardinality:      string(c.Relation.Cardinality),
		}
	}
	if c.Rollup != nil {
		out.Rollup = &dto.RollupConfig{
			RelationColumnID: c.Rollup.RelationColumnID.String(),
			Aggregation:      string(c.Rollup.Aggregation),
		}
		if !c.Rollup.TargetColumnID.IsZero() {
			out.Rollup.TargetColumnID = c.Rollup.TargetColumnID.String()
		}
	}
	if c.Formula != nil {
		out.Formula = &dto.FormulaConfig{
			Expression: c.Formula.Expression,
			ResultType: string(c.Formula.ResultType),
		}
	}
	return out
}

func columnsToDTO(cols []content.Column) []dto.Column {
	out := make([]dto.Column, len(cols))
	for i, c := range cols {
		out[i] = columnToDTO(c)
	}
	return out
}

// columnFromDTO builds a storage column from the wire form. ID fields inside
// configs must parse; semantic validation happens in the service.
func columnFromDTO(c dto.Column) (content.Column, error) {
	out := content.Column{
		Name:    c.Name,
		Type:    content.ColumnType(c.Type),
		Options: c.Options,
	}
	for _, o := range c.StatusOptions {
		out.StatusOptions = append(out.StatusOptions, content.StatusOption{ID: o.ID, Name: o.Name, Color: o.Color})
	}
	if c.Relation != nil {
		target, err := decodeID(c.Relation.TargetDatabaseID, "relation.target_database_id")
		if err != nil {
			return content.Column{}, err
		}
		out.Relation = &content.RelationConfig{
			TargetDatabaseID: target,
			Cardinality:      content.Cardinality(c.Relation.Cardinality),
		}
	}
	if c.Rollup != nil {
		relCol, err := decodeID(c.Rollup.RelationColumnID, "rollup.relation_column_id")
		if err != nil {
			return content.Column{}, err
		}
		targetCol, err := decodeOptionalID(c.Rollup.TargetColumnID, "rollup.target_column_id")
		if err != nil {
			return content.Column{}, err
		}
		out.Rollup = &content.RollupConfig{
			RelationColumnID: relCol,
			TargetColumnID:   targetCol,
			Aggregation:      content.RollupAggregation(c.Rollup.Aggregation),
		}
	}
	if c.Formula != nil {
		out.Formula = &content.FormulaConfig{
			Expression: c.Formula.Expression,
			ResultType: content.FormulaResultType(c.Formula.ResultType),
		}
	}
	return out, nil
}

func viewToDTO(v content.View) dto.View {
	out := dto.View{
		ID:           v.ID.String(),
		Name:         v.Name,
		Type:         string(v.Type),
		ColumnWidths: v.ColumnWidths,
	}
	if !v.GroupBy.IsZero() {
		out.GroupBy = v.GroupBy.String()
	}
	for _, f := range v.Filters {
		out.Filters = append(out.Filters, dto.Filter{ColumnID: f.ColumnID.String(), Op: string(f.Op), Value: f.Value})
	}
	if v.Sort != nil {
		out.Sort = &dto.Sort{ColumnID: v.Sort.ColumnID.String(), Direction: string(v.Sort.Direction)}
	}
	for _, id := range v.HiddenColumns {
		out.HiddenColumns = append(out.HiddenColumns, id.String())
	}
	for _, id := range v.ColumnOrder {
		out.ColumnOrder = append(out.ColumnOrder, id.String())
	}
	return out
}

func viewsToDTO(views []content.View) []dto.View {
	out := make([]dto.View, len(views))
	for i, v := range views {
		out[i] = viewToDTO(v)
	}
	return out
}

func viewFromDTO(v dto.View) (content.View, error) {
	out := content.View{
		Name:         v.Name,
		Type:         content.ViewType(v.Type),
		ColumnWidths: v.ColumnWidths,
	}
	groupBy, err := decodeOptionalID(v.GroupBy, "group_by")
	if err != nil {
		return content.View{}, err
	}
	out.GroupBy = groupBy
	for _, f := range v.Filters {
		colID, err := decodeID(f.ColumnID, "filters.column_id")
		if err != nil {
			return content.View{}, err
		}
		out.Filters = append(out.Filters, content.Filter{ColumnID: colID, Op: content.FilterOp(f.Op), Value: f.Value})
	}
	if v.Sort != nil {
		colID, err := decodeID(v.Sort.ColumnID, "sort.column_id")
		if err != nil {
			return content.View{}, err
		}
		out.Sort = &content.Sort{ColumnID: colID, Direction: content.SortDirection(v.Sort.Direction)}
	}
	for _, s := range v.HiddenColumns {
		id, err := decodeID(s, "hidden_columns")
		if err != nil {
			return content.View{}, err
		}
		out.HiddenColumns = append(out.HiddenColumns, id)
	}
	for _, s := range v.ColumnOrder {
		id, err := decodeID(s, "column_order")
		if err != nil {
			return content.View{}, err
		}
		out.ColumnOrder = append(out.ColumnOrder, id)
	}
	return out, nil
}

func databaseToResponse(db *content.Database) *dto.DatabaseResponse {
	return &dto.DatabaseResponse{
		ID:       db.ID.String(),
		Name:     db.Name,
		Version:  db.Version,
		Columns:  columnsToDTO(db.Columns),
		Views:    viewsToDTO(db.Views),
		Created:  db.Created,
		Modified: db.Modified,
	}
}

func databaseToSummary(s storage.DatabaseSummary) dto.DatabaseSummary {
	return dto.DatabaseSummary{ID: s.ID.String(), Name: s.Name, EntryCount: s.EntryCount}
}

func databasesToSummaries(list []storage.DatabaseSummary) []dto.DatabaseSummary {
	out := make([]dto.DatabaseSummary, len(list))
	for i, s := range list {
		out[i] = databaseToSummary(s)
	}
	return out
}

func entryToResponse(e *content.Entry, values map[string]any) dto.EntryResponse {
	return dto.EntryResponse{
		ID:         e.ID.String(),
		Properties: e.Properties,
		Values:     values,
		Created:    e.Created,
		Modified:   e.Modified,
	}
}

func commitToDTO(c *git.Commit) *dto.Commit {
	return &dto.Commit{
		Hash:    c.Hash,
		Message: c.Message,
		Author:  c.Author,
		Email:   c.AuthorEmail,
		When:    c.AuthorDate.UTC().Format(time.RFC3339),
	}
}

func commitsToDTO(commits []*git.Commit) []*dto.Commit {
	out := make([]*dto.Commit, len(commits))
	for i, c := range commits {
		out[i] = commitToDTO(c)
	}
	return out
}

func searchResultsToDTO(results []storage.SearchResult) []dto.SearchResult {
	out := make([]dto.SearchResult, len(results))
	for i, r := range results {
		out[i] = dto.SearchResult{
			DatabaseID:   r.DatabaseID.String(),
			DatabaseName: r.DatabaseName,
			EntryID:      r.EntryID.String(),
			Title:        r.Title,
			ColumnID:     r.ColumnID.String(),
			Snippet:      r.Snippet,
		}
	}
	return out
}

func rowFailuresToDTO(failures []storage.RowFailure) []dto.RowFailure {
	out := make([]dto.RowFailure, len(failures))
	for i, f := range failures {
		out[i] = dto.RowFailure{Row: f.Row, Error: f.Error}
	}
	return out
}

func tableRowsToDTO(rows []content.TableRow) []dto.TableRow {
	out := make([]dto.TableRow, len(rows))
	for i, r := range rows {
		out[i] = dto.TableRow{EntryID: r.EntryID.String(), Cells: r.Cells}
	}
	return out
}

func tableProjectionToDTO(db *content.Database, p *content.TableProjection) *dto.TableProjectionResponse {
	cols := make([]dto.Column, 0, len(p.Columns))
	for _, id := range p.Columns {
		if c := db.Column(id); c != nil {
			cols = append(cols, columnToDTO(*c))
		}
	}
	return &dto.TableProjectionResponse{Columns: cols, Rows: tableRowsToDTO(p.Rows)}
}

func kanbanProjectionToDTO(p *content.KanbanProjection) *dto.KanbanProjectionResponse {
	out := &dto.KanbanProjectionResponse{GroupBy: p.GroupBy.String()}
	for _, b := range p.Buckets {
		out.Buckets = append(out.Buckets, dto.KanbanBucket{Key: b.Key, Color: b.Color, Rows: tableRowsToDTO(b.Rows)})
	}
	return out
}

func galleryProjectionToDTO(p *content.GalleryProjection) *dto.GalleryProjectionResponse {
	out := &dto.GalleryProjectionResponse{Cards: make([]dto.GalleryCard, len(p.Cards))}
	for i, c := range p.Cards {
		out.Cards[i] = dto.GalleryCard{EntryID: c.EntryID.String(), Title: c.Title, Cells: c.Cells}
	}
	return out
}

func entryRefsToDTO(refs []content.EntryRef) []dto.EntryRef {
	out := make([]dto.EntryRef, len(refs))
	for i, r := range refs {
		out[i] = dto.EntryRef{DatabaseID: r.DatabaseID.String(), EntryID: r.EntryID.String()}
	}
	return out
}
