// Maps storage errors to API errors.

package handlers

import (
	"errors"
	"net/http"

	"github.com/docgrid/docgrid/internal/server/dto"
	"github.com/docgrid/docgrid/internal/storage"
	"github.com/docgrid/docgrid/internal/storage/content"
)

// mapStorageError translates errors from the storage layer into APIErrors so
// clients get stable codes and statuses. Unrecognized errors become a 500
// with the cause preserved for logging.
func mapStorageError(err error) error {
	if err == nil {
		return nil
	}

	var cfgErr *content.ColumnConfigError
	if errors.As(err, &cfgErr) {
		return dto.NewAPIError(http.StatusBadRequest, dto.CodeInvalidColumnConfig, cfgErr.Error()).
			WithDetail("column", cfgErr.Column).Wrap(err)
	}

	switch {
	case errors.Is(err, content.ErrDatabaseNotFound):
		return dto.NotFound("database").Wrap(err)
	case errors.Is(err, content.ErrEntryNotFound):
		return dto.NotFound("entry").Wrap(err)
	case errors.Is(err, content.ErrColumnNotFound):
		return dto.NotFound("column").Wrap(err)
	case errors.Is(err, content.ErrViewNotFound):
		return dto.NotFound("view").Wrap(err)
	case errors.Is(err, content.ErrForbidden):
		return dto.Forbidden("access denied").Wrap(err)
	case errors.Is(err, storage.ErrQuotaDatabases),
		errors.Is(err, storage.ErrQuotaEntries):
		return dto.QuotaExceeded(err.Error()).Wrap(err)
	default:
		return dto.InternalWithError(err)
	}
}
