// retry/policy.go
package retry

import (
	"strings"
	"time"

	"github.com/identityops/idassign/directory"
)

const (
	DefaultBaseDelay  = 1 * time.Second
	DefaultMaxDelay   = 60 * time.Second
	DefaultMaxRetries = 3
)

// Policy decides whether a failure is worth retrying and how long to wait
// between attempts. Deterministic exponential backoff, no jitter.
type Policy struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

// Default returns the stock policy: 1s base, 60s cap, 3 retries.
func Default() Policy {
	return Policy{
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
		MaxRetries: DefaultMaxRetries,
	}
}

// retryableCodes are the structured API error classes treated as transient.
var retryableCodes = map[directory.ErrorCode]bool{
	directory.ErrCodeThrottling:         true,
	directory.ErrCodeServiceUnavailable: true,
	directory.ErrCodeInternal:           true,
}

// transientSignatures match wrapped or opaque errors whose text indicates a
// transient transport or service condition.
var transientSignatures = []string{
	"throttl",
	"rate exceeded",
	"too many requests",
	"service unavailable",
	"internal server error",
	"connection refused",
	"connection reset",
	"broken pipe",
	"timeout",
	"timed out",
	"no such host",
	"dns",
	"tls handshake",
	"temporarily unavailable",
}

// ShouldRetry reports whether err is a transient failure. Structured API
// errors are classified by code; everything else falls back to substring
// heuristics over the error text. Validation, not-found, and access-denied
// failures are never retried.
func (p Policy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	if apiErr, ok := directory.AsAPIError(err); ok {
		return retryableCodes[apiErr.Code]
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Delay computes the backoff before retry number attempt (0-based):
// base * 2^attempt, capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
