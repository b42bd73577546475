package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/docgrid/docgrid/internal/importer"
	"github.com/docgrid/docgrid/internal/server/dto"
	"github.com/docgrid/docgrid/internal/storage"
)

// ImportHandler handles CSV import HTTP requests.
type ImportHandler struct {
	svc *storage.DatabaseService
	cfg *Config
}

// NewImportHandler creates a new import handler.
func NewImportHandler(svc *storage.DatabaseService, cfg *Config) *ImportHandler {
	return &ImportHandler{svc: svc, cfg: cfg}
}

// ImportCSV imports CSV rows into a database. The first row must be a header
// line. Headers map to columns by name unless the request carries an explicit
// mapping. Rows that fail are reported; the rest import anyway.
func (h *ImportHandler) ImportCSV(ctx context.Context, req *dto.ImportCSVRequest) (*dto.ImportCSVResponse, error) {
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

	progress := &importer.LogProgress{Logger: slog.Default()}
	im := importer.New(h.svc, orgID, dbID, h.cfg.gitAuthor(req.Author), h.cfg.Quotas.MaxImportRows, progress)

	if err := im.Parse(strings.NewReader(req.CSV)); err != nil {
		return nil, importError(err)
	}
	if len(req.Mapping) > 0 {
		mapping, err := buildMapping(im.Headers(), req.Mapping)
		if err != nil {
			return nil, err
		}
		if err := im.SetMapping(mapping); err != nil {
			return nil, importError(err)
		}
	} else if err := im.AutoMap(db); err != nil {
		return nil, importError(err)
	}

	result, err := im.Run(ctx)
	if err != nil {
		return nil, mapStorageError(err)
	}

	failures := make([]dto.RowFailure, len(result.Failures))
	for i, f := range result.Failures {
		failures[i] = dto.RowFailure{Row: f.Row, Error: f.Error}
	}
	return &dto.ImportCSVResponse{
		State:    string(im.State()),
		Created:  result.Created,
		Total:    result.Total,
		Failures: failures,
		Summary:  result.Summary(),
	}, nil
}

// buildMapping resolves an explicit header-to-column mapping against the
// parsed CSV headers.
func buildMapping(headers []string, mapping map[string]string) ([]importer.ColumnMapping, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.TrimSpace(h)] = i
	}
	out := make([]importer.ColumnMapping, 0, len(mapping))
	for header, colIDStr := range mapping {
		i, ok := index[header]
		if !ok {
			return nil, dto.BadRequest("mapping references unknown CSV header: " + header)
		}
		colID, err := decodeID(colIDStr, "mapping")
		if err != nil {
			return nil, err
		}
		out = append(out, importer.ColumnMapping{CSVIndex: i, Header: header, ColumnID: colID})
	}
	return out, nil
}

// importError maps importer sentinels to client errors.
func importError(err error) error {
	switch {
	case errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrNothingMapped),
		errors.Is(err, importer.ErrBadState):
		return dto.NewAPIError(http.StatusBadRequest, dto.CodeImportFailed, err.Error()).Wrap(err)
	case errors.Is(err, importer.ErrTooManyRows):
		return dto.QuotaExceeded(err.Error()).Wrap(err)
	default:
		return dto.BadRequest(err.Error()).Wrap(err)
	}
}
