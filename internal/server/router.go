// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/docgrid/docgrid/internal/server/handlers"
	"github.com/docgrid/docgrid/internal/server/ratelimit"
)

// NewRouter creates and configures the HTTP router for the API.
func NewRouter(svc *handlers.Services, cfg *handlers.Config, limits *ratelimit.Config) http.Handler {
	mux := &http.ServeMux{}
	dh := handlers.NewDatabaseHandler(svc.Database, cfg)
	eh := handlers.NewEntryHandler(svc.Database, cfg)
	vh := handlers.NewViewHandler(svc.Database, cfg)
	sh := handlers.NewSearchHandler(svc.Database)
	ih := handlers.NewImportHandler(svc.Database, cfg)

	// Health check
	hh := handlers.NewHealthHandler(cfg.Version)
	mux.Handle("/api/health", Wrap(hh.Health, cfg, limits))

	// Database endpoints
	mux.Handle("GET /api/{orgID}/databases", Wrap(dh.ListDatabases, cfg, limits))
	mux.Handle("POST /api/{orgID}/databases", Wrap(dh.CreateDatabase, cfg, limits))
	mux.Handle("GET /api/{orgID}/databases/{id}", Wrap(dh.GetDatabase, cfg, limits))
	mux.Handle("PUT /api/{orgID}/databases/{id}", Wrap(dh.RenameDatabase, cfg, limits))
	mux.Handle("DELETE /api/{orgID}/databases/{id}", Wrap(dh.DeleteDatabase, cfg, limits))
	mux.Handle("GET /api/{orgID}/databases/{id}/relation-targets", Wrap(dh.ListRelationTargets, cfg, limits))
	mux.Handle("GET /api/{orgID}/databases/{id}/history", Wrap(dh.GetHistory, cfg, limits))
	mux.Handle("GET /api/{orgID}/databases/{id}/history/{hash}", Wrap(dh.GetVersion, cfg, limits))

	// Column endpoints
	mux.Handle("POST /api/{orgID}/databases/{id}/columns", Wrap(dh.AddColumn, cfg, limits))
	mux.Handle("PUT /api/{orgID}/databases/{id}/columns/{columnID}", Wrap(dh.UpdateColumn, cfg, limits))
	mux.Handle("DELETE /api/{orgID}/databases/{id}/columns/{columnID}", Wrap(dh.DeleteColumn, cfg, limits))

	// Entry endpoints
	mux.Handle("GET /api/{orgID}/databases/{id}/entries", Wrap(eh.ListEntries, cfg, limits))
	mux.Handle("POST /api/{orgID}/databases/{id}/entries", Wrap(eh.CreateEntry, cfg, limits))
	mux.Handle("POST /api/{orgID}/databases/{id}/entries/bulk", Wrap(eh.BulkCreateEntries, cfg, limits))
	mux.Handle("GET /api/{orgID}/databases/{id}/entries/{entryID}", Wrap(eh.GetEntry, cfg, limits))
	mux.Handle("PATCH /api/{orgID}/databases/{id}/entries/{entryID}", Wrap(eh.UpdateEntry, cfg, limits))
	mux.Handle("DELETE /api/{orgID}/databases/{id}/entries/{entryID}", Wrap(eh.DeleteEntry, cfg, limits))
	mux.Handle("PUT /api/{orgID}/databases/{id}/entries/{entryID}/cells/{columnID}", Wrap(eh.UpdateCell, cfg, limits))
	mux.Handle("POST /api/{orgID}/databases/{id}/entries/{entryID}/duplicate", Wrap(eh.DuplicateEntry, cfg, limits))
	mux.Handle("GET /api/{orgID}/databases/{id}/entries/{entryID}/backlinks", Wrap(eh.GetBacklinks, cfg, limits))

	// View endpoints
	mux.Handle("POST /api/{orgID}/databases/{id}/views", Wrap(vh.CreateView, cfg, limits))
	mux.Handle("PUT /api/{orgID}/databases/{id}/views/{viewID}", Wrap(vh.UpdateView, cfg, limits))
	mux.Handle("DELETE /api/{orgID}/databases/{id}/views/{viewID}", Wrap(vh.DeleteView, cfg, limits))
	mux.Handle("GET /api/{orgID}/databases/{id}/views/{viewID}", Wrap(vh.ProjectView, cfg, limits))

	// Import endpoint
	mux.Handle("POST /api/{orgID}/databases/{id}/import", Wrap(ih.ImportCSV, cfg, limits))

	// Search endpoint
	mux.Handle("POST /api/{orgID}/search", Wrap(sh.Search, cfg, limits))

	return mux
}
