package handlers

import (
	"context"

	"github.com/docgrid/docgrid/internal/server/dto"
	"github.com/docgrid/docgrid/internal/storage"
	"github.com/docgrid/docgrid/internal/storage/content"
)

// ViewHandler handles view HTTP requests.
type ViewHandler struct {
	svc *storage.DatabaseService
	cfg *Config
}

// NewViewHandler creates a new view handler.
func NewViewHandler(svc *storage.DatabaseService, cfg *Config) *ViewHandler {
	return &ViewHandler{svc: svc, cfg: cfg}
}

// CreateView adds a view to a database.
func (h *ViewHandler) CreateView(ctx context.Context, req *dto.CreateViewRequest) (*dto.ViewResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	view, err := viewFromDTO(req.View)
	if err != nil {
		return nil, err
	}
	db, err := h.svc.CreateView(ctx, orgID, dbID, view, h.cfg.gitAuthor(req.Author))
	if err != nil {
		return nil, mapStorageError(err)
	}
	// The new view is the last one.
	return &dto.ViewResponse{View: viewToDTO(db.Views[len(db.Views)-1])}, nil
}

// UpdateView replaces a view configuration. The view ID never changes.
func (h *ViewHandler) UpdateView(ctx context.Context, req *dto.UpdateViewRequest) (*dto.ViewResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	viewID, err := decodeID(req.ViewID, "viewID")
	if err != nil {
		return nil, err
	}
	view, err := viewFromDTO(req.View)
	if err != nil {
		return nil, err
	}
	view.ID = viewID
	db, err := h.svc.UpdateView(ctx, orgID, dbID, view, h.cfg.gitAuthor(req.Author))
	if err != nil {
		return nil, mapStorageError(err)
	}
	updated := db.View(viewID)
	return &dto.ViewResponse{View: viewToDTO(*updated)}, nil
}

// DeleteView removes a view from a database.
func (h *ViewHandler) DeleteView(ctx context.Context, req *dto.DeleteViewRequest) (*dto.DeleteViewResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	viewID, err := decodeID(req.ViewID, "viewID")
	if err != nil {
		return nil, err
	}
	if _, err := h.svc.DeleteView(ctx, orgID, dbID, viewID, h.cfg.gitAuthor(req.Author)); err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.DeleteViewResponse{Ok: true}, nil
}

// ProjectView renders a view against current data. The response carries the
// projection matching the view's type.
func (h *ViewHandler) ProjectView(ctx context.Context, req *dto.ProjectViewRequest) (*dto.ProjectViewResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	dbID, err := decodeID(req.DatabaseID, "id")
	if err != nil {
		return nil, err
	}
	viewID, err := decodeID(req.ViewID, "viewID")
	if err != nil {
		return nil, err
	}
	db, err := h.svc.GetDatabase(ctx, orgID, dbID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	view := db.View(viewID)
	if view == nil {
		return nil, dto.NotFound("view")
	}
	rows, err := h.svc.ResolveRows(ctx, orgID, db)
	if err != nil {
		return nil, mapStorageError(err)
	}
	out := &dto.ProjectViewResponse{Type: string(view.Type)}
	switch view.Type {
	case content.ViewTypeKanban:
		out.Kanban = kanbanProjectionToDTO(content.ProjectKanban(db, view, rows))
	case content.ViewTypeGallery:
		out.Gallery = galleryProjectionToDTO(content.ProjectGallery(db, view, rows))
	default:
		out.Table = tableProjectionToDTO(db, content.ProjectTable(db, view, rows))
	}
	return out, nil
}
