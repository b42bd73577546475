package ratelimit

import (
	"testing"

	"github.com/docgrid/docgrid/internal/storage"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(storage.RateLimits{
		Enabled:        true,
		ReadPerMinute:  300,
		WritePerMinute: 60,
		Burst:          10,
	})
	defer cfg.Close()

	if cfg.Read.Scope != ScopeIP {
		t.Error("Read tier should have IP scope")
	}
	if cfg.Write.Scope != ScopeOrg {
		t.Error("Write tier should have Org scope")
	}

	if cfg.Read.Limiter == nil {
		t.Error("Read limiter should not be nil")
	}
	if cfg.Write.Limiter == nil {
		t.Error("Write limiter should not be nil")
	}
}

func TestNewConfig_Disabled(t *testing.T) {
	cfg := NewConfig(storage.RateLimits{Enabled: false})
	defer cfg.Close()

	if cfg != nil {
		t.Fatal("disabled rate limits should produce a nil config")
	}
	if tier := cfg.Match("GET", "/api/pages"); tier != nil {
		t.Errorf("nil config should match no tier, got %s", tier.Name)
	}
}

func TestConfig_Match(t *testing.T) {
	cfg := NewConfig(storage.RateLimits{
		Enabled:        true,
		ReadPerMinute:  300,
		WritePerMinute: 60,
		Burst:          10,
	})
	defer cfg.Close()

	tests := []struct {
		method   string
		path     string
		wantTier string
	}{
		{"GET", "/api/health", ""}, // No rate limit for health check
		{"GET", "/api/abc/databases", "read"},
		{"GET", "/api/abc/databases/123/entries", "read"},
		{"POST", "/api/abc/databases", "write"},
		{"DELETE", "/api/abc/databases/123", "write"},
		{"PUT", "/api/abc/databases/123/entries/456/cells/789", "write"},
		{"POST", "/api/abc/search", "read"}, // Search is a read operation
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			tier := cfg.Match(tt.method, tt.path)
			if tt.wantTier == "" {
				if tier != nil {
					t.Errorf("expected nil tier, got %s", tier.Name)
				}
			} else {
				if tier == nil {
					t.Errorf("expected tier %s, got nil", tt.wantTier)
				} else if tier.Name != tt.wantTier {
					t.Errorf("expected tier %s, got %s", tt.wantTier, tier.Name)
				}
			}
		})
	}
}
