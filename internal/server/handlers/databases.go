package handlers

import (
	"context"

	"github.com/docgrid/docgrid/internal/server/dto"
	"github.com/docgrid/docgrid/internal/storage"
	"github.com/docgrid/docgrid/internal/storage/content"
)

// DatabaseHandler handles database and column HTTP requests.
type DatabaseHandler struct {
	svc *storage.DatabaseService
	cfg *Config
}

// NewDatabaseHandler creates a new database handler.
func NewDatabaseHandler(svc *storage.DatabaseService, cfg *Config) *DatabaseHandler {
	return &DatabaseHandler{svc: svc, cfg: cfg}
}

// ListDatabases returns a list of all databases in the organization.
func (h *DatabaseHandler) ListDatabases(ctx context.Context, req *dto.ListDatabasesRequest) (*dto.ListDatabasesResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	list, err := h.svc.ListDatabases(ctx, orgID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.ListDatabasesResponse{Databases: databasesToSummaries(list)}, nil
}

// CreateDatabase creates a new database with an optional initial schema.
func (h *DatabaseHandler) CreateDatabase(ctx context.Context, req *dto.CreateDatabaseRequest) (*dto.CreateDatabaseResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	columns := make([]content.Column, 0, len(req.Columns))
	for _, c := range req.Columns {
		col, err := columnFromDTO(c)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	db, err := h.svc.CreateDatabase(ctx, orgID, req.Name, columns, h.cfg.gitAuthor(req.Author))
	if err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.CreateDatabaseResponse{ID: db.ID.String()}, nil
}

// GetDatabase returns a database schema by ID.
func (h *DatabaseHandler) GetDatabase(ctx context.Context, req *dto.GetDatabaseRequest) (*dto.DatabaseResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	db, err := h.svc.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return databaseToResponse(db), nil
}

// RenameDatabase renames a database.
func (h *DatabaseHandler) RenameDatabase(ctx context.Context, req *dto.RenameDatabaseRequest) (*dto.DatabaseResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	db, err := h.svc.RenameDatabase(ctx, orgID, dbID, req.Name, h.cfg.gitAuthor(req.Author))
	if err != nil {
		return nil, mapStorageError(err)
	}
	return databaseToResponse(db), nil
}

// DeleteDatabase deletes a database and all its entries.
func (h *DatabaseHandler) DeleteDatabase(ctx context.Context, req *dto.DeleteDatabaseRequest) (*dto.DeleteDatabaseResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeleteDatabase(ctx, orgID, dbID, h.cfg.gitAuthor(req.Author)); err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.DeleteDatabaseResponse{Ok: true}, nil
}

// ListRelationTargets returns the databases a relation column may point at.
func (h *DatabaseHandler) ListRelationTargets(ctx context.Context, req *dto.ListRelationTargetsRequest) (*dto.ListDatabasesResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	list, err := h.svc.ListDatabasesForRelation(ctx, orgID, dbID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.ListDatabasesResponse{Databases: databasesToSummaries(list)}, nil
}

// GetHistory returns the version history of a database, newest first.
func (h *DatabaseHandler) GetHistory(ctx context.Context, req *dto.GetDatabaseHistoryRequest) (*dto.GetDatabaseHistoryResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = 100
	}
	commits, err := h.svc.GetHistory(ctx, orgID, dbID, limit)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.GetDatabaseHistoryResponse{History: commitsToDTO(commits)}, nil
}

// GetVersion returns a database schema as of a commit.
func (h *DatabaseHandler) GetVersion(ctx context.Context, req *dto.GetDatabaseVersionRequest) (*dto.GetDatabaseVersionResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	db, err := h.svc.GetDatabaseAtCommit(ctx, orgID, dbID, req.Hash)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.GetDatabaseVersionResponse{Database: *databaseToResponse(db)}, nil
}

// AddColumn appends a column to a database schema.
func (h *DatabaseHandler) AddColumn(ctx context.Context, req *dto.AddColumnRequest) (*dto.ColumnResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	col, err := columnFromDTO(req.Column)
	if err != nil {
		return nil, err
	}
	db, err := h.svc.AddColumn(ctx, orgID, dbID, col, h.cfg.gitAuthor(req.Author))
	if err != nil {
		return nil, mapStorageError(err)
	}
	// The new column is the last one.
	return &dto.ColumnResponse{Column: columnToDTO(db.Columns[len(db.Columns)-1])}, nil
}

// UpdateColumn replaces a column definition. The column ID never changes.
func (h *DatabaseHandler) UpdateColumn(ctx context.Context, req *dto.UpdateColumnRequest) (*dto.ColumnResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	colID, err := decodeID(req.ColumnID, "columnID")
	if err != nil {
		return nil, err
	}
	col, err := columnFromDTO(req.Column)
	if err != nil {
		return nil, err
	}
	col.ID = colID
	db, err := h.svc.UpdateColumn(ctx, orgID, dbID, col, h.cfg.gitAuthor(req.Author))
	if err != nil {
		return nil, mapStorageError(err)
	}
	updated := db.Column(colID)
	return &dto.ColumnResponse{Column: columnToDTO(*updated)}, nil
}

// DeleteColumn removes a column from the schema. Stored cell values stay on
// disk and are ignored on read.
func (h *DatabaseHandler) DeleteColumn(ctx context.Context, req *dto.DeleteColumnRequest) (*dto.DeleteColumnResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	colID, err := decodeID(req.ColumnID, "columnID")
	if err != nil {
		return nil, err
	}
	if _, err := h.svc.DeleteColumn(ctx, orgID, dbID, colID, h.cfg.gitAuthor(req.Author)); err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.DeleteColumnResponse{Ok: true}, nil
}
