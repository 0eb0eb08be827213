package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mkowalski/newsreel/internal/httpclient"
	"github.com/mkowalski/newsreel/internal/logging"
)

// Compile-time interface satisfaction checks
var (
	_ Provider          = (*HTTPProvider)(nil)
	_ StreamingProvider = (*HTTPProvider)(nil)
)

// ProviderConfig defines how to communicate with an LLM API
type ProviderConfig struct {
	Name     string
	Endpoint string

	// StreamEndpoint is used for streaming requests when the API selects
	// streaming by URL rather than a "stream" body flag. Empty means the
	// regular endpoint with body["stream"] = true.
	StreamEndpoint string

	APIKey       string // Actual API key (resolved from env)
	Model        string
	AuthHeader   string            // "x-api-key" or "Authorization"
	AuthPrefix   string            // "" or "Bearer "
	ExtraHeaders map[string]string // Additional headers (e.g., anthropic-version)

	// Request building
	BuildBody func(cfg *ProviderConfig, req Request) map[string]any

	// Response parsing
	ParseResponse func(body []byte) (content, model string, err error)

	// Stream parsing (returns content delta, done flag)
	ParseStreamLine func(line string, state *StreamState) (content string, done bool)
}

// StreamState holds state during stream parsing
type StreamState struct {
	Model string
}

// HTTPProvider is a generic HTTP-based LLM provider
type HTTPProvider struct {
	config *ProviderConfig
	client *http.Client
}

// NewHTTPProvider creates a provider from config
func NewHTTPProvider(cfg *ProviderConfig) *HTTPProvider {
	return &HTTPProvider{
		config: cfg,
		client: httpclient.LongTimeout(),
	}
}

func (p *HTTPProvider) Name() string {
	return p.config.Name
}

func (p *HTTPProvider) Available() bool {
	// Ollama doesn't need an API key
	if p.config.Name == "ollama" {
		return true
	}
	return p.config.APIKey != ""
}

func (p *HTTPProvider) Generate(ctx context.Context, req Request) (Response, error) {
	if !p.Available() {
		return Response{}, &ProviderError{Provider: p.config.Name, Err: ErrProviderUnavailable}
	}

	logging.Debug("HTTP provider request", "provider", p.config.Name, "model", p.config.Model)

	body := p.config.BuildBody(p.config, req)
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.Endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}

	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, &ProviderError{
			Provider: p.config.Name,
			Err:      fmt.Errorf("%w: %v", ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &ProviderError{
			Provider: p.config.Name,
			Err:      fmt.Errorf("%w: read response: %v", ErrProviderUnavailable, err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return Response{}, p.statusError(resp, respBody)
	}

	content, model, err := p.config.ParseResponse(respBody)
	if err != nil {
		return Response{}, &ProviderError{
			Provider: p.config.Name,
			Err:      fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}
	if strings.TrimSpace(content) == "" {
		return Response{}, &ProviderError{
			Provider: p.config.Name,
			Err:      fmt.Errorf("%w: empty content", ErrMalformedResponse),
		}
	}

	logging.Debug("API response", "provider", p.config.Name, "model", model, "content_len", len(content))

	return Response{
		Content:     content,
		Model:       model,
		RawResponse: string(respBody),
	}, nil
}

func (p *HTTPProvider) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	if !p.Available() {
		return nil, &ProviderError{Provider: p.config.Name, Err: ErrProviderUnavailable}
	}

	logging.Debug("HTTP provider stream", "provider", p.config.Name, "model", p.config.Model)

	endpoint := p.config.Endpoint
	body := p.config.BuildBody(p.config, req)
	if p.config.StreamEndpoint != "" {
		endpoint = p.config.StreamEndpoint
	} else {
		body["stream"] = true
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	p.setHeaders(httpReq)

	// No overall timeout for streaming; the caller's context bounds the attempt
	resp, err := httpclient.Streaming().Do(httpReq)
	if err != nil {
		return nil, &ProviderError{
			Provider: p.config.Name,
			Err:      fmt.Errorf("%w: %v", ErrProviderUnavailable, err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, p.statusError(resp, body)
	}

	chunks := make(chan StreamChunk, 10)

	go func() {
		defer close(chunks)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		state := &StreamState{}

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				chunks <- StreamChunk{Error: ctx.Err(), Done: true}
				return
			default:
			}

			line := scanner.Text()
			if line == "" {
				continue
			}

			content, done := p.config.ParseStreamLine(line, state)
			if content != "" {
				chunks <- StreamChunk{Content: content, Model: state.Model}
			}
			if done {
				chunks <- StreamChunk{Done: true, Model: state.Model}
				return
			}
		}

		if err := scanner.Err(); err != nil {
			chunks <- StreamChunk{Error: err, Done: true}
		}
		// Channel closed without a Done chunk: the caller treats this as a
		// mid-stream disconnect
	}()

	return chunks, nil
}

func (p *HTTPProvider) statusError(resp *http.Response, body []byte) error {
	logging.Warn("API error", "provider", p.config.Name, "status", resp.StatusCode, "body", truncateBody(body))

	if resp.StatusCode == http.StatusTooManyRequests {
		return &ProviderError{
			Provider:   p.config.Name,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        ErrRateLimited,
		}
	}
	return &ProviderError{
		Provider:   p.config.Name,
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("%w: %s", ErrProviderUnavailable, truncateBody(body)),
	}
}

func (p *HTTPProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")

	if p.config.AuthHeader != "" && p.config.APIKey != "" {
		req.Header.Set(p.config.AuthHeader, p.config.AuthPrefix+p.config.APIKey)
	}

	for k, v := range p.config.ExtraHeaders {
		req.Header.Set(k, v)
	}
}

// parseRetryAfter interprets a Retry-After header given in seconds.
// Returns 0 for absent or unparseable values; capped at 30s.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	d := time.Duration(seconds) * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

func truncateBody(body []byte) string {
	const max = 500
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// Helper for parsing SSE data lines
func parseSSEData(line string) (string, bool) {
	if strings.HasPrefix(line, "data: ") {
		return strings.TrimPrefix(line, "data: "), true
	}
	return "", false
}
