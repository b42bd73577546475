package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docgrid/docgrid/internal/server/dto"
	"github.com/docgrid/docgrid/internal/server/handlers"
	"github.com/docgrid/docgrid/internal/server/ratelimit"
	"github.com/docgrid/docgrid/internal/storage"
	"github.com/docgrid/docgrid/internal/storage/git"
	"github.com/maruel/ksid"
)

type testEnv struct {
	server *httptest.Server
	orgID  string
}

func setupTestEnv(t *testing.T) *testEnv {
	tempDir := t.TempDir()

	gitMgr := git.NewManager(tempDir, "test", "test@example.com")
	fileStore, err := storage.NewFileStore(tempDir, gitMgr, storage.DefaultServerConfig().Quotas)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	svc := &handlers.Services{
		Database: storage.NewDatabaseService(fileStore),
	}
	cfg := &handlers.Config{
		Version:       "test",
		Quotas:        storage.DefaultServerConfig().Quotas,
		DefaultAuthor: "test",
	}
	limits := ratelimit.NewConfig(storage.RateLimits{}) // disabled

	server := httptest.NewServer(NewRouter(svc, cfg, limits))
	t.Cleanup(server.Close)

	return &testEnv{server: server, orgID: ksid.NewID().String()}
}

// doJSON performs an HTTP request, decodes the JSON response, and returns the
// status code. Body is always read and closed before returning.
func (e *testEnv) doJSON(t *testing.T, method, path string, body, response any) int {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do request: %v", err)
	}

	data, err := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		t.Fatalf("ReadAll/Close: %v", err)
	}

	if response != nil && len(data) > 0 {
		if err := json.Unmarshal(data, response); err != nil {
			t.Fatalf("Unmarshal response: %v\nBody: %s", err, string(data))
		}
	}

	return resp.StatusCode
}

// createDatabase sets up a database named Tasks with a text, number and
// select column and returns the database ID plus the column IDs by name.
func (e *testEnv) createDatabase(t *testing.T) (string, map[string]string) {
	t.Helper()
	createReq := dto.CreateDatabaseRequest{
		Name: "Tasks",
		Columns: []dto.Column{
			{Name: "Name", Type: "text"},
			{Name: "Points", Type: "number"},
			{Name: "Stage", Type: "select", Options: []string{"A", "B"}},
		},
	}
	var created dto.CreateDatabaseResponse
	status := e.doJSON(t, http.MethodPost, "/api/"+e.orgID+"/databases", createReq, &created)
	if status != http.StatusOK {
		t.Fatalf("POST databases: got status %d, want %d", status, http.StatusOK)
	}

	var db dto.DatabaseResponse
	status = e.doJSON(t, http.MethodGet, "/api/"+e.orgID+"/databases/"+created.ID, nil, &db)
	if status != http.StatusOK {
		t.Fatalf("GET database: got status %d, want %d", status, http.StatusOK)
	}
	cols := make(map[string]string, len(db.Columns))
	for _, c := range db.Columns {
		cols[c.Name] = c.ID
	}
	return created.ID, cols
}

func TestIntegration(t *testing.T) {
	t.Parallel()
	t.Run("Health", func(t *testing.T) {
		t.Parallel()
		env := setupTestEnv(t)

		var health dto.HealthResponse
		status := env.doJSON(t, http.MethodGet, "/api/health", nil, &health)
		if status != http.StatusOK {
			t.Errorf("GET /api/health: got status %d, want %d", status, http.StatusOK)
		}
		if health.Status != "ok" {
			t.Errorf("Health status: got %q, want %q", health.Status, "ok")
		}
		if health.Version != "test" {
			t.Errorf("Health version: got %q, want %q", health.Version, "test")
		}
	})

	t.Run("DatabaseWorkflow", func(t *testing.T) {
		t.Parallel()
		env := setupTestEnv(t)
		dbID, cols := env.createDatabase(t)

		// List shows the new database.
		var list dto.ListDatabasesResponse
		status := env.doJSON(t, http.MethodGet, "/api/"+env.orgID+"/databases", nil, &list)
		if status != http.StatusOK {
			t.Fatalf("GET databases: got status %d, want %d", status, http.StatusOK)
		}
		if len(list.Databases) != 1 || list.Databases[0].Name != "Tasks" {
			t.Fatalf("ListDatabases = %+v, want one database named Tasks", list.Databases)
		}

		// Rename.
		var renamed dto.DatabaseResponse
		status = env.doJSON(t, http.MethodPut, "/api/"+env.orgID+"/databases/"+dbID,
			dto.RenameDatabaseRequest{Name: "Chores"}, &renamed)
		if status != http.StatusOK {
			t.Fatalf("PUT database: got status %d, want %d", status, http.StatusOK)
		}
		if renamed.Name != "Chores" {
			t.Errorf("Name after rename = %q, want Chores", renamed.Name)
		}

		// Create an entry; the malformed number is stored as empty.
		var entry dto.CreateEntryResponse
		status = env.doJSON(t, http.MethodPost, "/api/"+env.orgID+"/databases/"+dbID+"/entries",
			dto.CreateEntryRequest{Properties: map[string]any{
				cols["Name"]:   "Laundry",
				cols["Points"]: "notanumber",
			}}, &entry)
		if status != http.StatusOK {
			t.Fatalf("POST entry: got status %d, want %d", status, http.StatusOK)
		}

		var entries dto.ListEntriesResponse
		status = env.doJSON(t, http.MethodGet, "/api/"+env.orgID+"/databases/"+dbID+"/entries", nil, &entries)
		if status != http.StatusOK {
			t.Fatalf("GET entries: got status %d, want %d", status, http.StatusOK)
		}
		if len(entries.Entries) != 1 {
			t.Fatalf("got %d entries, want 1", len(entries.Entries))
		}
		got := entries.Entries[0]
		if got.Properties[cols["Name"]] != "Laundry" {
			t.Errorf("Name = %v, want Laundry", got.Properties[cols["Name"]])
		}
		if v, ok := got.Properties[cols["Points"]]; ok {
			t.Errorf("Points = %v, want absent", v)
		}

		// Set a cell, then clear it.
		var updated dto.EntryResponse
		cellPath := "/api/" + env.orgID + "/databases/" + dbID + "/entries/" + entry.ID + "/cells/" + cols["Points"]
		status = env.doJSON(t, http.MethodPut, cellPath, dto.UpdateCellRequest{Value: 5}, &updated)
		if status != http.StatusOK {
			t.Fatalf("PUT cell: got status %d, want %d", status, http.StatusOK)
		}
		if updated.Properties[cols["Points"]] != 5.0 {
			t.Errorf("Points after set = %v, want 5", updated.Properties[cols["Points"]])
		}
		var cleared dto.EntryResponse
		status = env.doJSON(t, http.MethodPut, cellPath, dto.UpdateCellRequest{Value: nil}, &cleared)
		if status != http.StatusOK {
			t.Fatalf("PUT cell clear: got status %d, want %d", status, http.StatusOK)
		}
		if v, ok := cleared.Properties[cols["Points"]]; ok {
			t.Errorf("Points after clear = %v, want absent", v)
		}

		// Duplicate gets a new ID with equal properties.
		var dup dto.CreateEntryResponse
		status = env.doJSON(t, http.MethodPost,
			"/api/"+env.orgID+"/databases/"+dbID+"/entries/"+entry.ID+"/duplicate", nil, &dup)
		if status != http.StatusOK {
			t.Fatalf("POST duplicate: got status %d, want %d", status, http.StatusOK)
		}
		if dup.ID == entry.ID {
			t.Error("duplicate kept the original ID")
		}

		// Delete.
		var deleted dto.DeleteEntryResponse
		status = env.doJSON(t, http.MethodDelete,
			"/api/"+env.orgID+"/databases/"+dbID+"/entries/"+entry.ID, nil, &deleted)
		if status != http.StatusOK || !deleted.Ok {
			t.Fatalf("DELETE entry: got status %d ok=%v", status, deleted.Ok)
		}
	})

	t.Run("KanbanView", func(t *testing.T) {
		t.Parallel()
		env := setupTestEnv(t)
		dbID, cols := env.createDatabase(t)

		for _, stage := range []any{"A", "B", nil} {
			props := map[string]any{cols["Name"]: "task"}
			if stage != nil {
				props[cols["Stage"]] = stage
			}
			status := env.doJSON(t, http.MethodPost, "/api/"+env.orgID+"/databases/"+dbID+"/entries",
				dto.CreateEntryRequest{Properties: props}, nil)
			if status != http.StatusOK {
				t.Fatalf("POST entry: got status %d, want %d", status, http.StatusOK)
			}
		}

		var view dto.ViewResponse
		status := env.doJSON(t, http.MethodPost, "/api/"+env.orgID+"/databases/"+dbID+"/views",
			dto.CreateViewRequest{View: dto.View{Name: "Board", Type: "kanban", GroupBy: cols["Stage"]}}, &view)
		if status != http.StatusOK {
			t.Fatalf("POST view: got status %d, want %d", status, http.StatusOK)
		}

		var projected dto.ProjectViewResponse
		status = env.doJSON(t, http.MethodGet,
			"/api/"+env.orgID+"/databases/"+dbID+"/views/"+view.View.ID, nil, &projected)
		if status != http.StatusOK {
			t.Fatalf("GET view: got status %d, want %d", status, http.StatusOK)
		}
		if projected.Type != "kanban" || projected.Kanban == nil {
			t.Fatalf("projection type = %q kanban=%v, want kanban projection", projected.Type, projected.Kanban)
		}
		buckets := projected.Kanban.Buckets
		if len(buckets) != 3 {
			t.Fatalf("got %d buckets, want 3", len(buckets))
		}
		for i, want := range []string{"A", "B", "Uncategorized"} {
			if buckets[i].Key != want {
				t.Errorf("bucket[%d].Key = %q, want %q", i, buckets[i].Key, want)
			}
			if len(buckets[i].Rows) != 1 {
				t.Errorf("bucket %q has %d rows, want 1", buckets[i].Key, len(buckets[i].Rows))
			}
		}
	})

	t.Run("CSVImport", func(t *testing.T) {
		t.Parallel()
		env := setupTestEnv(t)
		dbID, cols := env.createDatabase(t)

		var result dto.ImportCSVResponse
		status := env.doJSON(t, http.MethodPost, "/api/"+env.orgID+"/databases/"+dbID+"/import",
			dto.ImportCSVRequest{CSV: "Name,Points\nAlice,30\nBob,notanumber\n"}, &result)
		if status != http.StatusOK {
			t.Fatalf("POST import: got status %d, want %d", status, http.StatusOK)
		}
		if result.Created != 2 || result.Total != 2 {
			t.Fatalf("import = %d of %d, want 2 of 2", result.Created, result.Total)
		}
		if result.State != "done" {
			t.Errorf("import state = %q, want done", result.State)
		}

		var entries dto.ListEntriesResponse
		status = env.doJSON(t, http.MethodGet, "/api/"+env.orgID+"/databases/"+dbID+"/entries", nil, &entries)
		if status != http.StatusOK {
			t.Fatalf("GET entries: got status %d, want %d", status, http.StatusOK)
		}
		if len(entries.Entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries.Entries))
		}
		if entries.Entries[0].Properties[cols["Points"]] != 30.0 {
			t.Errorf("first Points = %v, want 30", entries.Entries[0].Properties[cols["Points"]])
		}
		if v, ok := entries.Entries[1].Properties[cols["Points"]]; ok {
			t.Errorf("second Points = %v, want absent", v)
		}
	})

	t.Run("Search", func(t *testing.T) {
		t.Parallel()
		env := setupTestEnv(t)
		dbID, cols := env.createDatabase(t)

		status := env.doJSON(t, http.MethodPost, "/api/"+env.orgID+"/databases/"+dbID+"/entries",
			dto.CreateEntryRequest{Properties: map[string]any{cols["Name"]: "Quarterly report"}}, nil)
		if status != http.StatusOK {
			t.Fatalf("POST entry: got status %d, want %d", status, http.StatusOK)
		}

		var results dto.SearchResponse
		status = env.doJSON(t, http.MethodPost, "/api/"+env.orgID+"/search",
			dto.SearchRequest{Query: "quarterly"}, &results)
		if status != http.StatusOK {
			t.Fatalf("POST search: got status %d, want %d", status, http.StatusOK)
		}
		if len(results.Results) != 1 || results.Results[0].Title != "Quarterly report" {
			t.Fatalf("search results = %+v, want one match", results.Results)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		t.Parallel()
		env := setupTestEnv(t)

		// Unknown database is a 404 with a stable code.
		var errResp dto.ErrorResponse
		status := env.doJSON(t, http.MethodGet,
			"/api/"+env.orgID+"/databases/"+ksid.NewID().String(), nil, &errResp)
		if status != http.StatusNotFound {
			t.Fatalf("GET unknown database: got status %d, want %d", status, http.StatusNotFound)
		}
		if errResp.Error.Code != dto.CodeDatabaseNotFound {
			t.Errorf("error code = %q, want %q", errResp.Error.Code, dto.CodeDatabaseNotFound)
		}

		// Missing name is a validation error.
		status = env.doJSON(t, http.MethodPost, "/api/"+env.orgID+"/databases",
			dto.CreateDatabaseRequest{}, &errResp)
		if status != http.StatusBadRequest {
			t.Fatalf("POST database without name: got status %d, want %d", status, http.StatusBadRequest)
		}
		if errResp.Error.Code != dto.CodeMissingField {
			t.Errorf("error code = %q, want %q", errResp.Error.Code, dto.CodeMissingField)
		}

		// Invalid column config fails fast at definition time.
		status = env.doJSON(t, http.MethodPost, "/api/"+env.orgID+"/databases",
			dto.CreateDatabaseRequest{Name: "Bad", Columns: []dto.Column{
				{Name: "R", Type: "rollup", Rollup: &dto.RollupConfig{
					RelationColumnID: ksid.NewID().String(), Aggregation: "sum",
				}},
			}}, &errResp)
		if status != http.StatusBadRequest {
			t.Fatalf("POST bad schema: got status %d, want %d", status, http.StatusBadRequest)
		}
		if errResp.Error.Code != dto.CodeInvalidColumnConfig {
			t.Errorf("error code = %q, want %q", errResp.Error.Code, dto.CodeInvalidColumnConfig)
		}
	})
}
