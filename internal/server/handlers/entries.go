package handlers

import (
	"context"

	"github.com/docgrid/docgrid/internal/server/dto"
	"github.com/docgrid/docgrid/internal/storage"
	"github.com/docgrid/docgrid/internal/storage/content"
)

// EntryHandler handles entry HTTP requests.
type EntryHandler struct {
	svc *storage.DatabaseService
	cfg *Config
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(svc *storage.DatabaseService, cfg *Config) *EntryHandler {
	return &EntryHandler{svc: svc, cfg: cfg}
}

// ListEntries returns all entries of a database with computed values,
// optionally filtered and sorted by a view.
func (h *EntryHandler) ListEntries(ctx context.Context, req *dto.ListEntriesRequest) (*dto.ListEntriesResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	db, err := h.svc.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	rows, err := h.svc.ResolveRows(ctx, orgID, db)
	if err != nil {
		return nil, mapStorageError(err)
	}
	if req.ViewID != "" {
		viewID, err := decodeID(req.ViewID, "view")
		if err != nil {
			return nil, err
		}
		view := db.View(viewID)
		if view == nil {
			return nil, dto.NotFound("view")
		}
		rows = content.ApplyView(rows, view)
	}
	out := make([]dto.EntryResponse, len(rows))
	for i, row := range rows {
		out[i] = entryToResponse(row.Entry, row.Values)
	}
	return &dto.ListEntriesResponse{Entries: out}, nil
}

// GetEntry returns a single entry with its computed values.
func (h *EntryHandler) GetEntry(ctx context.Context, req *dto.GetEntryRequest) (*dto.EntryResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	entryID, err := decodeID(req.EntryID, "entryID")
	if err != nil {
		return nil, err
	}
	db, err := h.svc.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	entry, err := h.svc.GetEntry(ctx, orgID, dbID, entryID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	resolver := content.NewResolver(h.svc, orgID)
	values := resolver.ResolveEntry(ctx, db, entry)
	resp := entryToResponse(entry, values)
	return &resp, nil
}

// CreateEntry creates an entry. Properties are coerced to their column types;
// values that cannot coerce are stored as empty.
func (h *EntryHandler) CreateEntry(ctx context.Context, req *dto.CreateEntryRequest) (*dto.CreateEntryResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	entry, err := h.svc.CreateEntry(ctx, orgID, dbID, req.Properties, h.cfg.gitAuthor(req.Author))
	if err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.CreateEntryResponse{ID: entry.ID.String()}, nil
}

// UpdateEntry applies a partial update to an entry's properties.
func (h *EntryHandler) UpdateEntry(ctx context.Context, req *dto.UpdateEntryRequest) (*dto.EntryResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	entryID, err := decodeID(req.EntryID, "entryID")
	if err != nil {
		return nil, err
	}
	entry, err := h.svc.UpdateEntry(ctx, orgID, dbID, entryID, req.Properties, h.cfg.gitAuthor(req.Author))
	if err != nil {
		return nil, mapStorageError(err)
	}
	resp := entryToResponse(entry, nil)
	return &resp, nil
}

// UpdateCell sets a single cell. A null value clears it.
func (h *EntryHandler) UpdateCell(ctx context.Context, req *dto.UpdateCellRequest) (*dto.EntryResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	entryID, err := decodeID(req.EntryID, "entryID")
	if err != nil {
		return nil, err
	}
	colID, err := decodeID(req.ColumnID, "columnID")
	if err != nil {
		return nil, err
	}
	entry, err := h.svc.UpdateCell(ctx, orgID, dbID, entryID, colID, req.Value, h.cfg.gitAuthor(req.Author))
	if err != nil {
		return nil, mapStorageError(err)
	}
	resp := entryToResponse(entry, nil)
	return &resp, nil
}

// DuplicateEntry copies an entry under a new ID.
func (h *EntryHandler) DuplicateEntry(ctx context.Context, req *dto.DuplicateEntryRequest) (*dto.CreateEntryResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	entryID, err := decodeID(req.EntryID, "entryID")
	if err != nil {
		return nil, err
	}
	entry, err := h.svc.DuplicateEntry(ctx, orgID, dbID, entryID, h.cfg.gitAuthor(req.Author))
	if err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.CreateEntryResponse{ID: entry.ID.String()}, nil
}

// DeleteEntry deletes an entry.
func (h *EntryHandler) DeleteEntry(ctx context.Context, req *dto.DeleteEntryRequest) (*dto.DeleteEntryResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	entryID, err := decodeID(req.EntryID, "entryID")
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeleteEntry(ctx, orgID, dbID, entryID, h.cfg.gitAuthor(req.Author)); err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.DeleteEntryResponse{Ok: true}, nil
}

// BulkCreateEntries creates many entries in a single commit. Rows that fail
// are reported without aborting the rest.
func (h *EntryHandler) BulkCreateEntries(ctx context.Context, req *dto.BulkCreateEntriesRequest) (*dto.BulkCreateEntriesResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	result, err := h.svc.BulkCreateEntries(ctx, orgID, dbID, req.Rows, h.cfg.gitAuthor(req.Author))
	if err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.BulkCreateEntriesResponse{
		Created:  result.Created,
		Total:    result.Total,
		Failures: rowFailuresToDTO(result.Failures),
	}, nil
}

// GetBacklinks lists the entries whose relation cells point at an entry.
func (h *EntryHandler) GetBacklinks(ctx context.Context, req *dto.GetBacklinksRequest) (*dto.GetBacklinksResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	entryID, err := decodeID(req.EntryID, "entryID")
	if err != nil {
		return nil, err
	}
	refs, err := h.svc.Backlinks(ctx, orgID, entryID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.GetBacklinksResponse{Backlinks: entryRefsToDTO(refs)}, nil
}
