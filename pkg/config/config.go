// Package config holds runtime configuration for the citation engine,
// loadable from a YAML file with defaults for everything but the service
// base URL.
package config

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/devcite/pkg/document"
	"github.com/coolbeans/devcite/pkg/registry"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML parses a duration string or integer nanosecond value.
func (duration *Duration) UnmarshalYAML(value *yaml.Node) error {
	var asString string
	if err := value.Decode(&asString); err == nil {
		parsed, err := time.ParseDuration(asString)
		if err != nil {
			return fmt.Errorf("parsing duration %q: %w", asString, err)
		}
		*duration = Duration(parsed)
		return nil
	}

	var asInt int64
	if err := value.Decode(&asInt); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\" or nanoseconds")
	}
	*duration = Duration(asInt)
	return nil
}

// Std returns the wrapped time.Duration.
func (duration Duration) Std() time.Duration {
	return time.Duration(duration)
}

// Config holds all settings for a citation resolution run.
type Config struct {
	// BaseURL is the content service base URL. Required for resolution.
	BaseURL string `yaml:"base_url"`

	// AuthToken is sent as a bearer Authorization header. Optional.
	AuthToken string `yaml:"auth_token"`

	// SessionCookie is forwarded verbatim in the Cookie header. Optional.
	SessionCookie string `yaml:"session_cookie"`

	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent"`

	// Timeout is the per-request HTTP timeout.
	Timeout Duration `yaml:"timeout"`

	// RateLimit is the minimum interval between document fetches.
	RateLimit Duration `yaml:"rate_limit"`

	// CacheDir enables the disk cache when set.
	CacheDir string `yaml:"cache_dir"`

	// CacheTTL is the time-to-live for cached resolution results.
	CacheTTL Duration `yaml:"cache_ttl"`

	// MaxDocuments caps resolutions per registry build.
	MaxDocuments int `yaml:"max_documents"`

	// SyntaxDir is an optional directory of YAML marker-syntax files.
	SyntaxDir string `yaml:"syntax_dir"`
}

// Default returns a Config with sensible defaults. BaseURL must still be
// supplied by the caller.
func Default() Config {
	return Config{
		UserAgent:    document.DefaultUserAgent,
		Timeout:      Duration(document.DefaultTimeout),
		RateLimit:    Duration(document.DefaultRequestInterval),
		CacheTTL:     Duration(document.DefaultCacheTTL),
		MaxDocuments: registry.DefaultMaxDocuments,
	}
}

// Load reads a YAML config file over the defaults. Fields absent from the
// file keep their default values.
func Load(path string) (Config, error) {
	loaded := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return loaded, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return loaded, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return loaded, nil
}

// ResolverConfig converts the config into a document.ResolverConfig,
// attaching the disk cache when CacheDir is set.
func (config Config) ResolverConfig() (document.ResolverConfig, error) {
	resolverConfig := document.ResolverConfig{
		BaseURL:       config.BaseURL,
		RateLimit:     config.RateLimit.Std(),
		UserAgent:     config.UserAgent,
		SessionCookie: config.SessionCookie,
		AuthToken:     config.AuthToken,
	}

	if config.Timeout.Std() > 0 {
		resolverConfig.HTTPClient = &http.Client{Timeout: config.Timeout.Std()}
	}

	if config.CacheDir != "" {
		diskCache, err := document.NewDiskCache(config.CacheDir, config.CacheTTL.Std())
		if err != nil {
			return resolverConfig, err
		}
		resolverConfig.Cache = diskCache
	}
	return resolverConfig, nil
}
