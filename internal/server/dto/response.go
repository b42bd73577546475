package dto

// --- Common Responses ---

// OkResponse is a simple success response.
type OkResponse struct {
	Ok bool `json:"ok"`
}

// --- Database Responses ---

// ListDatabasesResponse is a response containing a list of databases.
type ListDatabasesResponse struct {
	Databases []DatabaseSummary `json:"databases"`
}

// DatabaseSummary is a brief representation of a database for list responses.
type DatabaseSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	EntryCount int    `json:"entry_count"`
}

// DatabaseResponse is a response containing a database schema.
type DatabaseResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Columns  []Column `json:"columns"`
	Views    []View   `json:"views,omitempty"`
	Created  Time     `json:"created"`
	Modified Time     `json:"modified"`
}

// CreateDatabaseResponse is a response from creating a database.
type CreateDatabaseResponse struct {
	ID string `json:"id"`
}

// DeleteDatabaseResponse is a response from deleting a database.
type DeleteDatabaseResponse = OkResponse

// GetDatabaseHistoryResponse is a response containing version history.
type GetDatabaseHistoryResponse struct {
	History []*Commit `json:"history"`
}

// GetDatabaseVersionResponse is a response containing a schema at a commit.
type GetDatabaseVersionResponse struct {
	Database DatabaseResponse `json:"database"`
}

// --- Column Responses ---

// ColumnResponse is a response from creating or updating a column.
type ColumnResponse struct {
	Column Column `json:"column"`
}

// DeleteColumnResponse is a response from deleting a column.
type DeleteColumnResponse = OkResponse

// --- Entry Responses ---

// EntryResponse is an entry with its stored and computed values. Values
// holds one cell per column, computed columns included, nulls omitted.
type EntryResponse struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
	Values     map[string]any `json:"values,omitempty"`
	Created    Time           `json:"created"`
	Modified   Time           `json:"modified"`
}

// ListEntriesResponse is a response containing resolved entries.
type ListEntriesResponse struct {
	Entries []EntryResponse `json:"entries"`
}

// CreateEntryResponse is a response from creating an entry.
type CreateEntryResponse struct {
	ID string `json:"id"`
}

// DeleteEntryResponse is a response from deleting an entry.
type DeleteEntryResponse = OkResponse

// BulkCreateEntriesResponse reports the outcome of a bulk create.
type BulkCreateEntriesResponse struct {
	Created  int          `json:"created"`
	Total    int          `json:"total"`
	Failures []RowFailure `json:"failures,omitempty"`
}

// GetBacklinksResponse lists the entries that link to an entry.
type GetBacklinksResponse struct {
	Backlinks []EntryRef `json:"backlinks"`
}

// --- View Responses ---

// ViewResponse is a response from creating or updating a view.
type ViewResponse struct {
	View View `json:"view"`
}

// DeleteViewResponse is a response from deleting a view.
type DeleteViewResponse = OkResponse

// TableRow is one row of a table projection.
type TableRow struct {
	EntryID string         `json:"entry_id"`
	Cells   map[string]any `json:"cells"`
}

// TableProjectionResponse is a table view rendered against current data.
type TableProjectionResponse struct {
	Columns []Column   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// KanbanBucket is one column of a kanban projection.
type KanbanBucket struct {
	Key   string     `json:"key"`
	Color string     `json:"color,omitempty"`
	Rows  []TableRow `json:"rows"`
}

// KanbanProjectionResponse is a kanban view rendered against current data.
type KanbanProjectionResponse struct {
	GroupBy string         `json:"group_by"`
	Buckets []KanbanBucket `json:"buckets"`
}

// GalleryCard is one card of a gallery projection.
type GalleryCard struct {
	EntryID string         `json:"entry_id"`
	Title   string         `json:"title"`
	Cells   map[string]any `json:"cells"`
}

// GalleryProjectionResponse is a gallery view rendered against current data.
type GalleryProjectionResponse struct {
	Cards []GalleryCard `json:"cards"`
}

// ProjectViewResponse carries exactly one projection, matching the view type.
type ProjectViewResponse struct {
	Type    string                     `json:"type"`
	Table   *TableProjectionResponse   `json:"table,omitempty"`
	Kanban  *KanbanProjectionResponse  `json:"kanban,omitempty"`
	Gallery *GalleryProjectionResponse `json:"gallery,omitempty"`
}

// --- Search Responses ---

// SearchResponse is a response containing search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// --- Import Responses ---

// ImportCSVResponse reports the outcome of a CSV import.
type ImportCSVResponse struct {
	State    string       `json:"state"` // "done" or "failed"
	Created  int          `json:"created"`
	Total    int          `json:"total"`
	Failures []RowFailure `json:"failures,omitempty"`
	Summary  string       `json:"summary"`
}

// --- Health Responses ---

// HealthResponse is a response from a health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
