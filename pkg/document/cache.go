package document

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultCacheTTL is the default time-to-live for cached resolution results.
const DefaultCacheTTL = 1 * time.Hour

// DiskCache provides persistent, file-based caching of resolution results.
// Each entry is a JSON file keyed by the SHA-256 hash of the document id.
// Failed resolutions are cached alongside successes so rebuilds over the
// same content do not hammer the service with known-dead ids.
type DiskCache struct {
	cacheDir string
	cacheTTL time.Duration
}

// diskCacheEntry wraps a Result with an expiration timestamp.
type diskCacheEntry struct {
	Result    Result    `json:"result"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewDiskCache creates a disk cache in the given directory with the given
// TTL, creating the directory if needed. A non-positive TTL falls back to
// DefaultCacheTTL.
func NewDiskCache(cacheDir string, cacheTTL time.Duration) (*DiskCache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", cacheDir, err)
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &DiskCache{cacheDir: cacheDir, cacheTTL: cacheTTL}, nil
}

// Get retrieves a cached result for the given document id.
// Returns the result and true if found and not expired.
func (cache *DiskCache) Get(id string) (Result, bool) {
	data, err := os.ReadFile(cache.pathFor(id))
	if err != nil {
		return Result{}, false
	}

	var entry diskCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Result{}, false
	}

	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(cache.pathFor(id))
		return Result{}, false
	}

	return entry.Result, true
}

// Set stores a resolution result for the given document id.
func (cache *DiskCache) Set(id string, result Result) error {
	entry := diskCacheEntry{
		Result:    result,
		ExpiresAt: time.Now().Add(cache.cacheTTL),
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	cacheFilePath := cache.pathFor(id)
	if err := os.WriteFile(cacheFilePath, data, 0o644); err != nil {
		return fmt.Errorf("writing cache file %s: %w", cacheFilePath, err)
	}
	return nil
}

// keyFor returns the SHA-256 hash of the id, used as the cache filename.
func (cache *DiskCache) keyFor(id string) string {
	hash := sha256.Sum256([]byte(id))
	return hex.EncodeToString(hash[:])
}

// pathFor returns the full file path for a cached id.
func (cache *DiskCache) pathFor(id string) string {
	return filepath.Join(cache.cacheDir, cache.keyFor(id)+".json")
}
