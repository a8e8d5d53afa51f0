package backend

import (
	"time"

	"github.com/depls-dev/depls"
)

// Config mirrors the initialization-options JSON document,
// unmarshaled from the LSP initialize request's initializationOptions
// field. Every field is optional; DefaultConfig supplies the
// documented defaults.
type Config struct {
	InlayHints  InlayHintsConfig  `json:"inlay_hints"`
	Diagnostics DiagnosticsConfig `json:"diagnostics"`
	Cache       CacheConfig       `json:"cache"`
	Security    SecurityConfig    `json:"security"`
	Ignore      []string          `json:"ignore"`
	Registries  RegistriesConfig  `json:"registries"`
}

type InlayHintsConfig struct {
	Enabled      bool `json:"enabled"`
	ShowUpToDate bool `json:"show_up_to_date"`
}

type DiagnosticsConfig struct {
	Enabled bool `json:"enabled"`
}

type CacheConfig struct {
	TTLSecs    int `json:"ttl_secs"`
	DebounceMS int `json:"debounce_ms"`
}

type SecurityConfig struct {
	Enabled         bool   `json:"enabled"`
	ShowInHints     bool   `json:"show_in_hints"`
	ShowDiagnostics bool   `json:"show_diagnostics"`
	MinSeverity     string `json:"min_severity"`
	CacheTTLSecs    int    `json:"cache_ttl_secs"`
}

type RegistriesConfig struct {
	NPM NPMRegistryConfig `json:"npm"`
}

type NPMRegistryConfig struct {
	URL    string                     `json:"url"`
	Scoped map[string]NPMScopedConfig `json:"scoped"`
}

type NPMScopedConfig struct {
	URL  string         `json:"url"`
	Auth *NPMAuthConfig `json:"auth,omitempty"`
}

type NPMAuthConfig struct {
	Type     string `json:"type"`
	Variable string `json:"variable"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		InlayHints:  InlayHintsConfig{Enabled: true, ShowUpToDate: true},
		Diagnostics: DiagnosticsConfig{Enabled: true},
		Cache:       CacheConfig{TTLSecs: 3600, DebounceMS: 200},
		Security: SecurityConfig{
			Enabled: true, ShowInHints: true, ShowDiagnostics: true,
			MinSeverity: "low", CacheTTLSecs: 21600,
		},
	}
}

// MinSeverity parses Security.MinSeverity into a depls.Severity, falling
// back to SeverityLow on an unrecognized string (the parsed default).
func (c Config) MinSeverity() depls.Severity {
	switch c.Security.MinSeverity {
	case "medium":
		return depls.SeverityMedium
	case "high":
		return depls.SeverityHigh
	case "critical":
		return depls.SeverityCritical
	default:
		return depls.SeverityLow
	}
}

func (c Config) cacheTTL() time.Duration {
	if c.Cache.TTLSecs <= 0 {
		return 0
	}
	return time.Duration(c.Cache.TTLSecs) * time.Second
}

func (c Config) vulnCacheTTL() time.Duration {
	if c.Security.CacheTTLSecs <= 0 {
		return 0
	}
	return time.Duration(c.Security.CacheTTLSecs) * time.Second
}

func (c Config) debounceDelay() time.Duration {
	if c.Cache.DebounceMS <= 0 {
		return 0
	}
	return time.Duration(c.Cache.DebounceMS) * time.Millisecond
}
