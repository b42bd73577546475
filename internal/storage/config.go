// Server configuration loaded from server_config.json in the data directory.

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// serverConfigFile is the name of the config file inside the data directory.
const serverConfigFile = "server_config.json"

// ServerQuotas limits resource consumption per organization.
type ServerQuotas struct {
	// MaxDatabasesPerOrg caps how many databases an organization can hold. 0 means unlimited.
	MaxDatabasesPerOrg int `json:"max_databases_per_org"`
	// MaxEntriesPerDatabase caps rows per database. 0 means unlimited.
	MaxEntriesPerDatabase int `json:"max_entries_per_database"`
	// MaxRequestBodyBytes caps HTTP request bodies. 0 disables the limit.
	MaxRequestBodyBytes int64 `json:"max_request_body_bytes"`
	// MaxImportRows caps how many CSV rows a single import may carry. 0 means unlimited.
	MaxImportRows int `json:"max_import_rows"`
}

// RateLimits configures the token bucket tiers applied by the HTTP layer.
type RateLimits struct {
	Enabled        bool `json:"enabled"`
	ReadPerMinute  int  `json:"read_per_minute"`
	WritePerMinute int  `json:"write_per_minute"`
	Burst          int  `json:"burst"`
}

// ServerConfig holds server-wide settings persisted as JSON.
type ServerConfig struct {
	// GitAuthorName and GitAuthorEmail are the default commit identity when
	// the caller supplies none.
	GitAuthorName  string       `json:"git_author_name"`
	GitAuthorEmail string       `json:"git_author_email"`
	Quotas         ServerQuotas `json:"quotas"`
	RateLimits     RateLimits   `json:"rate_limits"`
}

// DefaultServerConfig returns the configuration used when no file exists.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		GitAuthorName:  "docgrid",
		GitAuthorEmail: "docgrid@localhost",
		Quotas: ServerQuotas{
			MaxDatabasesPerOrg:    1000,
			MaxEntriesPerDatabase: 50000,
			MaxRequestBodyBytes:   10 << 20,
			MaxImportRows:         10000,
		},
		RateLimits: RateLimits{
			Enabled:        true,
			ReadPerMinute:  600,
			WritePerMinute: 120,
			Burst:          30,
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *ServerConfig) Validate() error {
	if c.Quotas.MaxDatabasesPerOrg < 0 {
		return errors.New("max_databases_per_org cannot be negative")
	}
	if c.Quotas.MaxEntriesPerDatabase < 0 {
		return errors.New("max_entries_per_database cannot be negative")
	}
	if c.Quotas.MaxRequestBodyBytes < 0 {
		return errors.New("max_request_body_bytes cannot be negative")
	}
	if c.Quotas.MaxImportRows < 0 {
		return errors.New("max_import_rows cannot be negative")
	}
	if c.RateLimits.Enabled {
		if c.RateLimits.ReadPerMinute <= 0 || c.RateLimits.WritePerMinute <= 0 {
			return errors.New("rate limits must be positive when enabled")
		}
		if c.RateLimits.Burst <= 0 {
			return errors.New("rate limit burst must be positive when enabled")
		}
	}
	return nil
}

// LoadServerConfig reads server_config.json from dataDir, creating it with
// defaults if missing.
func LoadServerConfig(dataDir string) (*ServerConfig, error) {
	path := filepath.Join(dataDir, serverConfigFile)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is constructed from the dataDir flag, not user input
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", serverConfigFile, err)
		}
		cfg := DefaultServerConfig()
		if err := cfg.Save(dataDir); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg := &ServerConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", serverConfigFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", serverConfigFile, err)
	}
	return cfg, nil
}

// Save writes the configuration to dataDir as indented JSON.
func (c *ServerConfig) Save(dataDir string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dataDir, serverConfigFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // G306: 0o644 is intentional for config files
		return fmt.Errorf("failed to write %s: %w", serverConfigFile, err)
	}
	return nil
}
