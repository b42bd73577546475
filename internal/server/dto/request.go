package dto

// --- Databases ---

// ListDatabasesRequest is a request to list all databases in an organization.
type ListDatabasesRequest struct {
	OrgID string `path:"orgID"`
}

// Validate validates the list databases request fields.
func (r *ListDatabasesRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	return nil
}

// CreateDatabaseRequest is a request to create a database.
type CreateDatabaseRequest struct {
	OrgID   string   `path:"orgID"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns,omitempty"`
	Author  string   `json:"author,omitempty"`
}

// Validate validates the create database request fields.
func (r *CreateDatabaseRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.Name == "" {
		return MissingField("name")
	}
	return nil
}

// GetDatabaseRequest is a request to get a database schema.
type GetDatabaseRequest struct {
	OrgID string `path:"orgID"`
	ID    string `path:"id"`
}

// Validate validates the get database request fields.
func (r *GetDatabaseRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// RenameDatabaseRequest is a request to rename a database.
type RenameDatabaseRequest struct {
	OrgID  string `path:"orgID"`
	ID     string `path:"id"`
	Name   string `json:"name"`
	Author string `json:"author,omitempty"`
}

// Validate validates the rename database request fields.
func (r *RenameDatabaseRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.ID == "" {
		return MissingField("id")
	}
	if r.Name == "" {
		return MissingField("name")
	}
	return nil
}

// DeleteDatabaseRequest is a request to delete a database.
type DeleteDatabaseRequest struct {
	OrgID  string `path:"orgID"`
	ID     string `path:"id"`
	Author string `json:"author,omitempty"`
}

// Validate validates the delete database request fields.
func (r *DeleteDatabaseRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// ListRelationTargetsRequest is a request to list databases that a relation
// column of the given database may target.
type ListRelationTargetsRequest struct {
	OrgID string `path:"orgID"`
	ID    string `path:"id"`
}

// Validate validates the list relation targets request fields.
func (r *ListRelationTargetsRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.ID == "" {
		return MissingField("id")
	}
	return nil
}

// GetDatabaseHistoryRequest is a request to list database version history.
type GetDatabaseHistoryRequest struct {
	OrgID string `path:"orgID"`
	ID    string `path:"id"`
	Limit int    `query:"limit"` // Max commits to return (1-1000, default 100).
}

// Validate validates the get database history request fields.
func (r *GetDatabaseHistoryRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.ID == "" {
		return MissingField("id")
	}
	if r.Limit < 0 || r.Limit > 1000 {
		return BadRequest("limit must be between 0 and 1000")
	}
	return nil
}

// GetDatabaseVersionRequest is a request to get a database schema at a commit.
type GetDatabaseVersionRequest struct {
	OrgID string `path:"orgID"`
	ID    string `path:"id"`
	Hash  string `path:"hash"`
}

// Validate validates the get database version request fields.
func (r *GetDatabaseVersionRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.ID == "" {
		return MissingField("id")
	}
	if r.Hash == "" {
		return MissingField("hash")
	}
	return nil
}

// --- Columns ---

// AddColumnRequest is a request to add a column to a database.
type AddColumnRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	Author     string `json:"author,omitempty"`
	Column
}

// Validate validates the add column request fields.
func (r *AddColumnRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.Name == "" {
		return MissingField("name")
	}
	if r.Type == "" {
		return MissingField("type")
	}
	return nil
}

// UpdateColumnRequest is a request to update a column definition.
type UpdateColumnRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	ColumnID   string `path:"columnID"`
	Author     string `json:"author,omitempty"`
	Column
}

// Validate validates the update column request fields.
func (r *UpdateColumnRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.ColumnID == "" {
		return MissingField("columnID")
	}
	if r.Name == "" {
		return MissingField("name")
	}
	if r.Type == "" {
		return MissingField("type")
	}
	return nil
}

// DeleteColumnRequest is a request to delete a column.
type DeleteColumnRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	ColumnID   string `path:"columnID"`
	Author     string `json:"author,omitempty"`
}

// Validate validates the delete column request fields.
func (r *DeleteColumnRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.ColumnID == "" {
		return MissingField("columnID")
	}
	return nil
}

// --- Entries ---

// ListEntriesRequest is a request to list entries with computed values.
type ListEntriesRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	ViewID     string `query:"view"` // Optional view to filter and sort by.
}

// Validate validates the list entries request fields.
func (r *ListEntriesRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	return nil
}

// GetEntryRequest is a request to get a single entry.
type GetEntryRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	EntryID    string `path:"entryID"`
}

// Validate validates the get entry request fields.
func (r *GetEntryRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.EntryID == "" {
		return MissingField("entryID")
	}
	return nil
}

// CreateEntryRequest is a request to create an entry.
type CreateEntryRequest struct {
	OrgID      string         `path:"orgID"`
	DatabaseID string         `path:"id"`
	Properties map[string]any `json:"properties"`
	Author     string         `json:"author,omitempty"`
}

// Validate validates the create entry request fields.
func (r *CreateEntryRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	return nil
}

// UpdateEntryRequest is a request to update entry properties. Only keys
// present in Properties change; a null value clears the cell.
type UpdateEntryRequest struct {
	OrgID      string         `path:"orgID"`
	DatabaseID string         `path:"id"`
	EntryID    string         `path:"entryID"`
	Properties map[string]any `json:"properties"`
	Author     string         `json:"author,omitempty"`
}

// Validate validates the update entry request fields.
func (r *UpdateEntryRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.EntryID == "" {
		return MissingField("entryID")
	}
	if r.Properties == nil {
		return MissingField("properties")
	}
	return nil
}

// UpdateCellRequest is a request to set a single cell. A null value clears
// the cell.
type UpdateCellRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	EntryID    string `path:"entryID"`
	ColumnID   string `path:"columnID"`
	Value      any    `json:"value"`
	Author     string `json:"author,omitempty"`
}

// Validate validates the update cell request fields.
func (r *UpdateCellRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.EntryID == "" {
		return MissingField("entryID")
	}
	if r.ColumnID == "" {
		return MissingField("columnID")
	}
	return nil
}

// DuplicateEntryRequest is a request to duplicate an entry.
type DuplicateEntryRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	EntryID    string `path:"entryID"`
	Author     string `json:"author,omitempty"`
}

// Validate validates the duplicate entry request fields.
func (r *DuplicateEntryRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.EntryID == "" {
		return MissingField("entryID")
	}
	return nil
}

// DeleteEntryRequest is a request to delete an entry.
type DeleteEntryRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	EntryID    string `path:"entryID"`
	Author     string `json:"author,omitempty"`
}

// Validate validates the delete entry request fields.
func (r *DeleteEntryRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.EntryID == "" {
		return MissingField("entryID")
	}
	return nil
}

// BulkCreateEntriesRequest is a request to create many entries in one commit.
type BulkCreateEntriesRequest struct {
	OrgID      string           `path:"orgID"`
	DatabaseID string           `path:"id"`
	Rows       []map[string]any `json:"rows"`
	Author     string           `json:"author,omitempty"`
}

// Validate validates the bulk create entries request fields.
func (r *BulkCreateEntriesRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if len(r.Rows) == 0 {
		return MissingField("rows")
	}
	return nil
}

// GetBacklinksRequest is a request to list entries linking to an entry.
type GetBacklinksRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	EntryID    string `path:"entryID"`
}

// Validate validates the get backlinks request fields.
func (r *GetBacklinksRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.EntryID == "" {
		return MissingField("entryID")
	}
	return nil
}

// --- Views ---

// CreateViewRequest is a request to add a view to a database.
type CreateViewRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	Author     string `json:"author,omitempty"`
	View
}

// Validate validates the create view request fields.
func (r *CreateViewRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.Name == "" {
		return MissingField("name")
	}
	if r.Type == "" {
		return MissingField("type")
	}
	return nil
}

// UpdateViewRequest is a request to update a view configuration.
type UpdateViewRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	ViewID     string `path:"viewID"`
	Author     string `json:"author,omitempty"`
	View
}

// Validate validates the update view request fields.
func (r *UpdateViewRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.ViewID == "" {
		return MissingField("viewID")
	}
	if r.Name == "" {
		return MissingField("name")
	}
	if r.Type == "" {
		return MissingField("type")
	}
	return nil
}

// DeleteViewRequest is a request to delete a view.
type DeleteViewRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	ViewID     string `path:"viewID"`
	Author     string `json:"author,omitempty"`
}

// Validate validates the delete view request fields.
func (r *DeleteViewRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.ViewID == "" {
		return MissingField("viewID")
	}
	return nil
}

// ProjectViewRequest is a request to render a view as its projection.
type ProjectViewRequest struct {
	OrgID      string `path:"orgID"`
	DatabaseID string `path:"id"`
	ViewID     string `path:"viewID"`
}

// Validate validates the project view request fields.
func (r *ProjectViewRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.ViewID == "" {
		return MissingField("viewID")
	}
	return nil
}

// --- Search ---

// SearchRequest is a request to search entries across databases.
type SearchRequest struct {
	OrgID string `path:"orgID"`
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"` // Max results (1-200, default 50).
}

// Validate validates the search request fields.
func (r *SearchRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.Limit < 0 || r.Limit > 200 {
		return BadRequest("limit must be between 0 and 200")
	}
	return nil
}

// --- Import ---

// ImportCSVRequest is a request to import CSV data into a database. When
// Mapping is empty, headers are matched to column names case-insensitively.
type ImportCSVRequest struct {
	OrgID      string            `path:"orgID"`
	DatabaseID string            `path:"id"`
	CSV        string            `json:"csv"`
	Mapping    map[string]string `json:"mapping,omitempty"` // header -> column ID
	Author     string            `json:"author,omitempty"`
}

// Validate validates the import CSV request fields.
func (r *ImportCSVRequest) Validate() error {
	if r.OrgID == "" {
		return MissingField("orgID")
	}
	if r.DatabaseID == "" {
		return MissingField("id")
	}
	if r.CSV == "" {
		return MissingField("csv")
	}
	return nil
}

// --- Health ---

// HealthRequest is a request for a health check.
type HealthRequest struct{}

// Validate is a no-op for HealthRequest.
func (r *HealthRequest) Validate() error {
	return nil
}
