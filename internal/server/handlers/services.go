// Defines shared service dependencies for handlers.

package handlers

import (
	"github.com/docgrid/docgrid/internal/storage"
)

// Services holds all service dependencies for handlers.
type Services struct {
	Database *storage.DatabaseService
}

// Config holds configuration values needed by handlers.
type Config struct {
	Version string
	Quotas  storage.ServerQuotas
	// DefaultAuthor is the git identity used when a request carries none.
	DefaultAuthor string
}
