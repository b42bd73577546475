package handlers

import (
	"context"

	"github.com/docgrid/docgrid/internal/server/dto"
	"github.com/docgrid/docgrid/internal/storage"
)

// SearchHandler handles search HTTP requests.
type SearchHandler struct {
	svc *storage.DatabaseService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(svc *storage.DatabaseService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search matches text cells across all databases of the organization,
// case-insensitively. An empty query returns no results.
func (h *SearchHandler) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	orgID, err := decodeID(req.OrgID, "orgID")
	if err != nil {
		return nil, err
	}
	results, err := h.svc.SearchEntries(ctx, orgID, req.Query, req.Limit)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return &dto.SearchResponse{Results: searchResultsToDTO(results)}, nil
}
