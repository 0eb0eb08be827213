package llm

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy for the orchestrator. Only ErrAllProvidersExhausted is fatal
// to a run; everything else is recovered internally via retry or fallback.
var (
	// ErrProviderUnavailable covers transport failures, timeouts, 5xx
	// responses, and providers missing credentials.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRateLimited is a 429-equivalent. The provider may supply a
	// Retry-After hint carried on ProviderError.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedResponse means the provider answered but the content is
	// not usable: unparseable body, missing sections, empty text.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrContentOutOfBounds marks a soft failure: the script parsed but its
	// word count falls outside the configured envelope.
	ErrContentOutOfBounds = errors.New("content out of bounds")

	// ErrAllProvidersExhausted is returned once every provider has used up
	// its attempt budget without a usable response.
	ErrAllProvidersExhausted = errors.New("all providers exhausted")
)

// ProviderError annotates a failure with its origin. RetryAfter is zero
// unless the provider sent an explicit wait hint.
type ProviderError struct {
	Provider   string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %v (status %d)", e.Provider, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// BoundsError reports content whose word count falls outside the allowed
// envelope. Soft: the response remains usable if nothing better arrives.
type BoundsError struct {
	Words  int
	Min    int
	Max    int
	Target int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("content out of bounds: %d words, want %d-%d", e.Words, e.Min, e.Max)
}

func (e *BoundsError) Unwrap() error { return ErrContentOutOfBounds }

// Distance is how far the word count sits from the target. Lower is better
// when choosing among out-of-bounds candidates.
func (e *BoundsError) Distance() int {
	d := e.Words - e.Target
	if d < 0 {
		d = -d
	}
	return d
}
