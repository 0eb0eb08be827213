package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mkowalski/newsreel/internal/logging"
	"github.com/mkowalski/newsreel/internal/metrics"
)

// State is the orchestrator's position in one generation run.
type State string

const (
	StatePending     State = "PENDING"
	StateAttempting  State = "ATTEMPTING"
	StateRetrying    State = "RETRYING"
	StateFallingBack State = "FALLING_BACK"
	StateSucceeded   State = "SUCCEEDED"
	StateExhausted   State = "EXHAUSTED"
)

// Attempt records one provider call. Raw is populated only in debug mode.
type Attempt struct {
	Provider string
	Number   int // 1-based within the provider's budget
	Duration time.Duration
	Err      error // nil on success
	Soft     bool  // content arrived but fell outside the word envelope
	Raw      string
}

// Options tunes one Orchestrator. Zero values fall back to defaults.
type Options struct {
	MaxRetries      int           // attempt budget per provider
	RequestTimeout  time.Duration // bound on each individual attempt
	Streaming       bool          // prefer GenerateStream when the provider supports it
	BackoffBase     time.Duration
	BackoffCeiling  time.Duration
	RequestInterval time.Duration // minimum spacing between billed calls
	DebugMode       bool          // retain raw response bodies per attempt
	Validate        func(Response) error
}

// Result is the outcome of one generation run, including the full attempt
// log. Degraded marks a run that shipped an out-of-bounds candidate because
// nothing in bounds ever arrived.
type Result struct {
	Response Response
	Provider string
	State    State
	Attempts []Attempt
	Degraded bool
}

// AttemptCount is the total number of provider calls made.
func (r Result) AttemptCount() int { return len(r.Attempts) }

// Orchestrator drives generation attempts against a primary provider with
// bounded retries, then a fallback provider with its own independent budget.
// Attempts are strictly sequential; primary and fallback never run
// concurrently.
type Orchestrator struct {
	primary  Provider
	fallback Provider // nil disables fallback
	opts     Options
	limiter  *rate.Limiter
}

// NewOrchestrator creates an Orchestrator. fallback may be nil.
func NewOrchestrator(primary, fallback Provider, opts Options) *Orchestrator {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 120 * time.Second
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}
	if opts.BackoffCeiling <= 0 {
		opts.BackoffCeiling = 30 * time.Second
	}

	o := &Orchestrator{
		primary:  primary,
		fallback: fallback,
		opts:     opts,
	}
	if opts.RequestInterval > 0 {
		o.limiter = rate.NewLimiter(rate.Every(opts.RequestInterval), 1)
	}
	return o
}

// Generate runs the full attempt state machine for one request. It returns
// an error only when the run is cancelled or every provider exhausts its
// budget without producing usable content; every other failure mode is
// absorbed by retry, fallback, or degradation.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	res := Result{State: StatePending}

	var providers []Provider
	if o.primary != nil {
		providers = append(providers, o.primary)
	}
	if o.fallback != nil {
		providers = append(providers, o.fallback)
	}
	if len(providers) == 0 {
		res.State = StateExhausted
		return res, fmt.Errorf("%w: no providers configured", ErrAllProvidersExhausted)
	}

	start := time.Now()
	defer func() {
		metrics.GenerationSeconds.Observe(time.Since(start).Seconds())
	}()

	// Best out-of-bounds candidate across both providers
	var (
		best         *Response
		bestDist     int
		bestProvider string
	)

	for pi, provider := range providers {
		if pi > 0 {
			res.State = StateFallingBack
			logging.Info("Primary exhausted, falling back", "provider", provider.Name())
		}

		if !provider.Available() {
			res.Attempts = append(res.Attempts, Attempt{
				Provider: provider.Name(),
				Number:   1,
				Err:      &ProviderError{Provider: provider.Name(), Err: ErrProviderUnavailable},
			})
			metrics.ProviderAttempts.WithLabelValues(provider.Name(), "unavailable").Inc()
			logging.Warn("Provider not configured, skipping", "provider", provider.Name())
			continue
		}

		for n := 1; n <= o.opts.MaxRetries; n++ {
			if o.limiter != nil {
				if err := o.limiter.Wait(ctx); err != nil {
					return res, err
				}
			}

			res.State = StateAttempting
			attemptStart := time.Now()
			resp, err := o.attempt(ctx, provider, req)
			attempt := Attempt{
				Provider: provider.Name(),
				Number:   n,
				Duration: time.Since(attemptStart),
			}
			if o.opts.DebugMode {
				attempt.Raw = resp.RawResponse
			}

			if err == nil && o.opts.Validate != nil {
				err = o.opts.Validate(resp)
			}

			if err == nil {
				res.Attempts = append(res.Attempts, attempt)
				res.Response = resp
				res.Provider = provider.Name()
				res.State = StateSucceeded
				metrics.ProviderAttempts.WithLabelValues(provider.Name(), "ok").Inc()
				logging.Info("Generation succeeded",
					"provider", provider.Name(),
					"attempt", n,
					"content_len", len(resp.Content),
				)
				return res, nil
			}

			var be *BoundsError
			if errors.As(err, &be) {
				attempt.Err = err
				attempt.Soft = true
				res.Attempts = append(res.Attempts, attempt)
				metrics.ProviderAttempts.WithLabelValues(provider.Name(), "out_of_bounds").Inc()
				logging.Warn("Content out of bounds",
					"provider", provider.Name(),
					"attempt", n,
					"words", be.Words,
					"want_min", be.Min,
					"want_max", be.Max,
				)
				if best == nil || be.Distance() < bestDist {
					kept := resp
					best = &kept
					bestDist = be.Distance()
					bestProvider = provider.Name()
				}
				// The provider is healthy and answering; no backoff needed
				continue
			}

			attempt.Err = err
			res.Attempts = append(res.Attempts, attempt)
			metrics.ProviderAttempts.WithLabelValues(provider.Name(), outcomeLabel(err)).Inc()
			logging.Warn("Generation attempt failed",
				"provider", provider.Name(),
				"attempt", n,
				"error", err,
			)

			if ctx.Err() != nil {
				return res, ctx.Err()
			}

			if n < o.opts.MaxRetries {
				res.State = StateRetrying
				wait := backoffDelay(o.opts.BackoffBase, o.opts.BackoffCeiling, n)
				if hint := retryAfterHint(err); hint > wait {
					wait = hint
				}
				logging.Debug("Backing off before retry",
					"provider", provider.Name(),
					"attempt", n,
					"wait", wait,
				)
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return res, ctx.Err()
				}
			}
		}
	}

	if best != nil {
		// Everything parsed but nothing landed in bounds: ship the candidate
		// closest to target rather than fail the run
		res.Response = *best
		res.Provider = bestProvider
		res.State = StateSucceeded
		res.Degraded = true
		logging.Warn("All attempts out of bounds, using closest candidate",
			"provider", bestProvider,
			"word_distance", bestDist,
		)
		return res, nil
	}

	res.State = StateExhausted
	logging.Error("All providers exhausted", "attempts", len(res.Attempts))
	return res, fmt.Errorf("%w after %d attempts", ErrAllProvidersExhausted, len(res.Attempts))
}

// attempt runs one bounded provider call, streaming if enabled and supported.
func (o *Orchestrator) attempt(ctx context.Context, p Provider, req Request) (Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.opts.RequestTimeout)
	defer cancel()

	if o.opts.Streaming {
		if sp, ok := p.(StreamingProvider); ok {
			return collectStream(attemptCtx, sp, req)
		}
	}
	return p.Generate(attemptCtx, req)
}

// collectStream accumulates chunks into a complete response. Partial content
// is discarded on any mid-stream failure: sections from different
// generations must never be mixed.
func collectStream(ctx context.Context, sp StreamingProvider, req Request) (Response, error) {
	chunks, err := sp.GenerateStream(ctx, req)
	if err != nil {
		return Response{}, err
	}

	var sb strings.Builder
	var model string
	done := false
	for chunk := range chunks {
		if chunk.Error != nil {
			return Response{}, &ProviderError{
				Provider: sp.Name(),
				Err:      fmt.Errorf("%w: stream: %v", ErrProviderUnavailable, chunk.Error),
			}
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		sb.WriteString(chunk.Content)
		if chunk.Done {
			done = true
			break
		}
	}
	if !done {
		// Channel closed with no completion marker: mid-stream disconnect
		return Response{}, &ProviderError{
			Provider: sp.Name(),
			Err:      fmt.Errorf("%w: stream ended before completion", ErrProviderUnavailable),
		}
	}

	if strings.TrimSpace(sb.String()) == "" {
		return Response{}, &ProviderError{
			Provider: sp.Name(),
			Err:      fmt.Errorf("%w: empty stream", ErrMalformedResponse),
		}
	}

	return Response{Content: sb.String(), Model: model}, nil
}

// backoffDelay grows exponentially with the attempt number: base, 2x, 4x,
// up to ceiling.
func backoffDelay(base, ceiling time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base << (attempt - 1)
	if d <= 0 || d > ceiling {
		return ceiling
	}
	return d
}

func retryAfterHint(err error) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrContentOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrProviderUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
