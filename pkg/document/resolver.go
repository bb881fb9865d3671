package document

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Default configuration values for the resolver.
const (
	// DefaultTimeout is the default per-request HTTP timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultRequestInterval is the default minimum interval between requests.
	DefaultRequestInterval = 100 * time.Millisecond

	// DefaultUserAgent is the default User-Agent header.
	DefaultUserAgent = "devcite-resolver/1.0"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 * 1024 * 1024
)

// publicDevelopmentPath is the document-by-id endpoint path template.
const publicDevelopmentPath = "/api/developments/public/"

// ResolverConfig holds configuration for a Resolver.
type ResolverConfig struct {
	// BaseURL is the content service base URL (scheme and host).
	BaseURL string

	// HTTPClient is the underlying client. If nil, a default client with
	// DefaultTimeout is used, wrapped with rate limiting.
	HTTPClient HTTPClient

	// RateLimit is the minimum interval between requests. Zero disables it.
	RateLimit time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// SessionCookie is forwarded verbatim in the Cookie header, carrying the
	// caller's session credentials. Optional.
	SessionCookie string

	// AuthToken, when set, is sent as a bearer Authorization header. Optional.
	AuthToken string

	// Cache is an optional disk cache for resolution results.
	Cache *DiskCache
}

// DefaultResolverConfig returns a ResolverConfig with sensible defaults.
// BaseURL must still be supplied by the caller.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		RateLimit: DefaultRequestInterval,
		UserAgent: DefaultUserAgent,
	}
}

// Result is the outcome of resolving one document id. A fetch failure is a
// normal outcome, not an error: Resolved is false, Document is nil, and the
// caller continues with its remaining ids.
type Result struct {
	// ID is the requested document id.
	ID string `json:"id"`

	// Resolved reports whether a document was obtained.
	Resolved bool `json:"resolved"`

	// Document is the normalized document when Resolved is true.
	Document *Document `json:"document,omitempty"`

	// StatusCode is the HTTP status, when a response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Error describes the failure when Resolved is false.
	Error string `json:"error,omitempty"`

	// FetchedAt is when the resolution was attempted.
	FetchedAt time.Time `json:"fetched_at"`

	// Cached indicates the result came from the disk cache.
	Cached bool `json:"cached,omitempty"`
}

// Resolver fetches development documents by id from the content service.
// Failures are reported in the Result, never as a Go error, so a batch of
// resolutions degrades per-document rather than aborting. No retries.
type Resolver struct {
	httpClient    HTTPClient
	baseURL       string
	userAgent     string
	sessionCookie string
	authToken     string
	cache         *DiskCache
	logger        *zap.Logger
}

// NewResolver creates a Resolver with the given configuration. A nil logger
// disables logging.
func NewResolver(config ResolverConfig, logger *zap.Logger) *Resolver {
	underlyingClient := config.HTTPClient
	if underlyingClient == nil {
		underlyingClient = &http.Client{Timeout: DefaultTimeout}
	}

	var client HTTPClient = underlyingClient
	if config.RateLimit > 0 {
		client = NewRateLimitedHTTPClient(underlyingClient, config.RateLimit)
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		httpClient:    client,
		baseURL:       strings.TrimRight(config.BaseURL, "/"),
		userAgent:     userAgent,
		sessionCookie: config.SessionCookie,
		authToken:     config.AuthToken,
		cache:         config.Cache,
		logger:        logger,
	}
}

// Resolve fetches the document for the given id. Any failure (empty id,
// network error, non-2xx status, undecodable body) yields an unresolved
// Result; the id keeps whatever citation number it already holds and the
// renderer shows a placeholder for it.
func (resolver *Resolver) Resolve(ctx context.Context, id string) Result {
	if strings.TrimSpace(id) == "" {
		return Result{ID: id, Error: "empty document id", FetchedAt: time.Now()}
	}

	if resolver.cache != nil {
		if cachedResult, found := resolver.cache.Get(id); found {
			cachedResult.Cached = true
			return cachedResult
		}
	}

	result := resolver.fetch(ctx, id)

	if resolver.cache != nil {
		// Failures are cached too, so one dead id does not get refetched on
		// every rebuild within the TTL.
		_ = resolver.cache.Set(id, result)
	}
	return result
}

// fetch performs the single HTTP GET for a document id.
func (resolver *Resolver) fetch(ctx context.Context, id string) Result {
	documentURL := resolver.baseURL + publicDevelopmentPath + url.PathEscape(id)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return Result{
			ID:        id,
			Error:     fmt.Sprintf("creating request: %v", err),
			FetchedAt: time.Now(),
		}
	}
	request.Header.Set("User-Agent", resolver.userAgent)
	request.Header.Set("Accept", "application/json")
	if resolver.sessionCookie != "" {
		request.Header.Set("Cookie", resolver.sessionCookie)
	}
	if resolver.authToken != "" {
		request.Header.Set("Authorization", "Bearer "+resolver.authToken)
	}

	response, err := resolver.httpClient.Do(request)
	if err != nil {
		resolver.logger.Debug("document fetch failed",
			zap.String("id", id),
			zap.Error(err))
		return Result{ID: id, Error: err.Error(), FetchedAt: time.Now()}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		resolver.logger.Debug("document unavailable",
			zap.String("id", id),
			zap.Int("status", response.StatusCode))
		return Result{
			ID:         id,
			StatusCode: response.StatusCode,
			Error:      fmt.Sprintf("HTTP %d", response.StatusCode),
			FetchedAt:  time.Now(),
		}
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return Result{
			ID:         id,
			StatusCode: response.StatusCode,
			Error:      fmt.Sprintf("reading body: %v", err),
			FetchedAt:  time.Now(),
		}
	}

	doc, err := Normalize(body, id)
	if err != nil {
		return Result{
			ID:         id,
			StatusCode: response.StatusCode,
			Error:      err.Error(),
			FetchedAt:  time.Now(),
		}
	}

	return Result{
		ID:         id,
		Resolved:   true,
		Document:   doc,
		StatusCode: response.StatusCode,
		FetchedAt:  time.Now(),
	}
}
