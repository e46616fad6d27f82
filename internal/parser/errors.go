package parser

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// RateLimitError indicates an OCR provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// ErrMissingFields means the provider answered with well-formed JSON that
// lacks the documentType or invoices fields.
var ErrMissingFields = errors.New("response missing required fields (documentType or invoices array)")

// TruncatedResponseError means the provider's JSON was cut off and could not
// be repaired. ClaimedCount is the invoiceCount the response announced, or
// "unknown".
type TruncatedResponseError struct {
	ClaimedCount string
	Salvaged     int
	Err          error
}

func (e *TruncatedResponseError) Error() string {
	return fmt.Sprintf(
		"failed to parse OCR response: it appears to be truncated or invalid JSON "+
			"(document claims %s invoices, %d salvaged); try processing fewer invoices at once",
		e.ClaimedCount, e.Salvaged,
	)
}

func (e *TruncatedResponseError) Unwrap() error {
	return e.Err
}
