package document

import (
	"net/http"
	"sync"
	"time"
)

// HTTPClient is an interface matching the Do method of *http.Client.
// It allows injection of mock clients for testing and custom transports.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RateLimitedHTTPClient wraps an HTTPClient and enforces a minimum interval
// between requests. The content service sits behind the same session the
// interactive application uses, so resolution traffic stays polite.
type RateLimitedHTTPClient struct {
	underlying      HTTPClient
	requestInterval time.Duration
	lastRequest     time.Time
	mu              sync.Mutex
}

// NewRateLimitedHTTPClient creates a rate-limited HTTP client enforcing the
// given minimum interval between requests. A zero interval disables waiting.
func NewRateLimitedHTTPClient(underlying HTTPClient, requestInterval time.Duration) *RateLimitedHTTPClient {
	return &RateLimitedHTTPClient{
		underlying:      underlying,
		requestInterval: requestInterval,
	}
}

// Do executes an HTTP request, waiting out the rate limit first.
func (client *RateLimitedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	client.mu.Lock()

	if !client.lastRequest.IsZero() && client.requestInterval > 0 {
		elapsed := time.Since(client.lastRequest)
		if elapsed < client.requestInterval {
			waitDuration := client.requestInterval - elapsed
			client.mu.Unlock()
			time.Sleep(waitDuration)
			client.mu.Lock()
		}
	}

	client.lastRequest = time.Now()
	client.mu.Unlock()

	return client.underlying.Do(req)
}
