package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"github.com/docgrid/docgrid/internal/storage"
)

// Scope determines how rate limit buckets are keyed.
type Scope int

const (
	// ScopeIP keys buckets by client IP address.
	ScopeIP Scope = iota
	// ScopeOrg keys buckets by the organization in the request path.
	ScopeOrg
)

// Tier is a named rate limit with its own bucket space.
type Tier struct {
	Name    string
	Limiter *Limiter
	Scope   Scope
}

// Config holds the rate limit tiers for the server.
type Config struct {
	// Read applies to GET requests and search, keyed by IP.
	Read Tier
	// Write applies to mutating requests, keyed by organization.
	Write Tier
}

// NewConfig builds the tiers from server settings. Returns nil when rate
// limiting is disabled; a nil Config matches no tier.
func NewConfig(rl storage.RateLimits) *Config {
	if !rl.Enabled {
		return nil
	}
	return &Config{
		Read: Tier{
			Name:    "read",
			Limiter: NewLimiter(rl.ReadPerMinute, time.Minute, rl.Burst),
			Scope:   ScopeIP,
		},
		Write: Tier{
			Name:    "write",
			Limiter: NewLimiter(rl.WritePerMinute, time.Minute, rl.Burst),
			Scope:   ScopeOrg,
		},
	}
}

// Close stops all limiters.
func (c *Config) Close() {
	if c == nil {
		return
	}
	c.Read.Limiter.Close()
	c.Write.Limiter.Close()
}

// Match returns the tier for a request, or nil if it is exempt.
func (c *Config) Match(method, path string) *Tier {
	if c == nil {
		return nil
	}
	if path == "/health" || path == "/api/health" {
		return nil
	}
	// Search is a POST but reads data, so it gets the read tier.
	if strings.HasSuffix(path, "/search") {
		return &c.Read
	}
	switch method {
	case http.MethodGet, http.MethodHead:
		return &c.Read
	default:
		return &c.Write
	}
}
