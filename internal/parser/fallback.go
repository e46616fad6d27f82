package parser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/logger"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// circuitState tracks rate-limit backoff for a single extractor.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackExtractor tries extractors in order, skipping those whose circuit
// is open after a rate limit. Truncated responses and unsupported file types
// are returned without trying the next extractor.
type FallbackExtractor struct {
	extractors []port.InvoiceExtractor
	circuits   []*circuitState
	names      []string
}

// NewFallbackExtractor creates a FallbackExtractor from an ordered list of extractors and their names.
func NewFallbackExtractor(extractors []port.InvoiceExtractor, names []string) *FallbackExtractor {
	circuits := make([]*circuitState, len(extractors))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackExtractor{
		extractors: extractors,
		circuits:   circuits,
		names:      names,
	}
}

func (f *FallbackExtractor) Extract(ctx context.Context, input port.ExtractInput) (*domain.OCRResult, error) {
	log := logger.WithComponent("parser.fallback")
	now := time.Now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, p := range f.extractors {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Info().Str("provider", f.names[i]).Time("reset_at", resetAt).Msg("skipping provider, circuit open")
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := p.Extract(ctx, input)
		if err == nil {
			if out.ModelUsed == "" {
				out.ModelUsed = f.names[i]
			}
			return out, nil
		}

		log.Warn().Err(err).Str("provider", f.names[i]).Msg("provider failed")
		lastErr = err

		var truncErr *TruncatedResponseError
		if errors.As(err, &truncErr) || errors.Is(err, domain.ErrUnsupportedFileType) {
			return nil, err
		}

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	if lastErr == nil {
		// All extractors were skipped due to open circuits
		retryAfter := earliestReset.Sub(now)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all providers rate limited"), int(retryAfter.Seconds()))
	}

	if allRateLimited {
		retryAfter := earliestReset.Sub(now)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all providers rate limited"), int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}
