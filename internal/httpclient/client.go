// Package httpclient provides shared HTTP clients with connection pooling.
//
// Callers MUST close response bodies:
//
//	resp, err := httpclient.Default().Get(url)
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()  // Required even on non-2xx status
//
// Creating separate http.Client instances per request wastes connection pool
// resources; all feed and provider traffic goes through these shared clients.
package httpclient

import (
	"net"
	"net/http"
	"sync"
	"time"
)

var (
	// Shared transport for connection pooling
	sharedTransport *http.Transport
	transportOnce   sync.Once

	// Shared clients
	defaultClient     *http.Client
	longTimeoutClient *http.Client
	streamingClient   *http.Client
	clientOnce        sync.Once
)

// getSharedTransport returns the shared transport with connection pooling settings.
func getSharedTransport() *http.Transport {
	transportOnce.Do(func() {
		sharedTransport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		}
	})
	return sharedTransport
}

func initClients() {
	clientOnce.Do(func() {
		transport := getSharedTransport()

		// Default client: 30s timeout, suitable for feed fetches and REST APIs
		defaultClient = &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		}

		// Long timeout client: 2 minute timeout, for LLM API calls
		longTimeoutClient = &http.Client{
			Transport: transport,
			Timeout:   120 * time.Second,
		}

		// Streaming client: no timeout, for SSE/streaming responses
		streamingClient = &http.Client{
			Transport: transport,
			// No timeout - streaming responses can take indefinitely
		}
	})
}

// Default returns a shared HTTP client with a 30-second timeout.
// Suitable for RSS feeds, subreddit listings, and other short requests.
func Default() *http.Client {
	initClients()
	return defaultClient
}

// LongTimeout returns a shared HTTP client with a 2-minute timeout.
// Suitable for LLM API calls that may take longer to respond.
func LongTimeout() *http.Client {
	initClients()
	return longTimeoutClient
}

// Streaming returns a shared HTTP client with no timeout.
// Suitable for SSE/streaming responses that may continue indefinitely.
// Callers should use context cancellation to control request lifetime.
func Streaming() *http.Client {
	initClients()
	return streamingClient
}
