package document

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestResolver(serverURL string) *Resolver {
	config := DefaultResolverConfig()
	config.BaseURL = serverURL
	config.RateLimit = 0
	return NewResolver(config, nil)
}

func TestResolveSuccess(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/api/developments/public/dev-1" {
			t.Errorf("path = %q, want document-by-id path", request.URL.Path)
		}
		responseWriter.Header().Set("Content-Type", "application/json")
		responseWriter.Write([]byte(`{"_id": "dev-1", "title": "Rate cut outlook", "summary": "Cuts expected."}`))
	}))
	defer testServer.Close()

	result := newTestResolver(testServer.URL).Resolve(context.Background(), "dev-1")

	if !result.Resolved {
		t.Fatalf("expected resolved result, got error %q", result.Error)
	}
	if result.Document.Title != "Rate cut outlook" {
		t.Errorf("title = %q", result.Document.Title)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", result.StatusCode)
	}
}

func TestResolveNotFoundIsUnresolvedNotError(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusNotFound)
	}))
	defer testServer.Close()

	result := newTestResolver(testServer.URL).Resolve(context.Background(), "missing")

	if result.Resolved {
		t.Fatal("expected unresolved result for 404")
	}
	if result.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", result.StatusCode)
	}
	if result.Document != nil {
		t.Error("document should be nil on failure")
	}
}

func TestResolveNetworkErrorIsUnresolved(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	testServer.Close() // connection refused from here on

	result := newTestResolver(testServer.URL).Resolve(context.Background(), "dev-1")

	if result.Resolved {
		t.Fatal("expected unresolved result for network error")
	}
	if result.Error == "" {
		t.Error("expected error description")
	}
}

func TestResolveEmptyID(t *testing.T) {
	result := newTestResolver("http://localhost:0").Resolve(context.Background(), "   ")

	if result.Resolved {
		t.Fatal("expected unresolved result for empty id")
	}
}

func TestResolveUndecodableBodyIsUnresolved(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.Write([]byte("<html>not json</html>"))
	}))
	defer testServer.Close()

	result := newTestResolver(testServer.URL).Resolve(context.Background(), "dev-1")

	if result.Resolved {
		t.Fatal("expected unresolved result for undecodable body")
	}
}

func TestResolveSendsCredentials(t *testing.T) {
	var gotCookie, gotAuthorization string
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		gotCookie = request.Header.Get("Cookie")
		gotAuthorization = request.Header.Get("Authorization")
		responseWriter.Write([]byte(`{"id": "dev-1"}`))
	}))
	defer testServer.Close()

	config := DefaultResolverConfig()
	config.BaseURL = testServer.URL
	config.RateLimit = 0
	config.SessionCookie = "session=abc"
	config.AuthToken = "tok"
	resolver := NewResolver(config, nil)

	resolver.Resolve(context.Background(), "dev-1")

	if gotCookie != "session=abc" {
		t.Errorf("cookie = %q, want session cookie forwarded", gotCookie)
	}
	if gotAuthorization != "Bearer tok" {
		t.Errorf("authorization = %q, want bearer token", gotAuthorization)
	}
}

func TestResolveEscapesID(t *testing.T) {
	var gotPath string
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		gotPath = request.URL.EscapedPath()
		responseWriter.Write([]byte(`{"id": "a/b"}`))
	}))
	defer testServer.Close()

	newTestResolver(testServer.URL).Resolve(context.Background(), "a/b")

	if gotPath != "/api/developments/public/a%2Fb" {
		t.Errorf("path = %q, want escaped id", gotPath)
	}
}

func TestResolveContextCancellation(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		time.Sleep(200 * time.Millisecond)
		responseWriter.Write([]byte(`{"id": "slow"}`))
	}))
	defer testServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result := newTestResolver(testServer.URL).Resolve(ctx, "slow")

	if result.Resolved {
		t.Fatal("expected unresolved result after context timeout")
	}
}

func TestResolveUsesCache(t *testing.T) {
	requestCount := 0
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		requestCount++
		responseWriter.Write([]byte(`{"id": "dev-1", "summary": "cached"}`))
	}))
	defer testServer.Close()

	diskCache, err := NewDiskCache(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	config := DefaultResolverConfig()
	config.BaseURL = testServer.URL
	config.RateLimit = 0
	config.Cache = diskCache
	resolver := NewResolver(config, nil)

	first := resolver.Resolve(context.Background(), "dev-1")
	second := resolver.Resolve(context.Background(), "dev-1")

	if requestCount != 1 {
		t.Errorf("request count = %d, want 1 (second hit cached)", requestCount)
	}
	if first.Cached {
		t.Error("first result should not be cached")
	}
	if !second.Cached || !second.Resolved {
		t.Errorf("second result = %+v, want cached resolved", second)
	}
}

func TestResolveCachesFailures(t *testing.T) {
	requestCount := 0
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		requestCount++
		responseWriter.WriteHeader(http.StatusNotFound)
	}))
	defer testServer.Close()

	diskCache, err := NewDiskCache(t.TempDir(), time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	config := DefaultResolverConfig()
	config.BaseURL = testServer.URL
	config.RateLimit = 0
	config.Cache = diskCache
	resolver := NewResolver(config, nil)

	resolver.Resolve(context.Background(), "dead")
	second := resolver.Resolve(context.Background(), "dead")

	if requestCount != 1 {
		t.Errorf("request count = %d, want 1 (failure cached)", requestCount)
	}
	if second.Resolved {
		t.Error("cached failure should stay unresolved")
	}
}
