package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// RetryPolicy decides, for a given attempt outcome, whether another attempt
// should be made and how long to wait first. It is immutable after
// construction and safe for concurrent use.
type RetryPolicy struct {
	maxAttempts   int
	backoffFactor time.Duration
	statusCodes   map[int]struct{}
	methods       map[string]struct{}
}

// NewRetryPolicy creates a retry policy. maxAttempts is the total number of
// attempts including the first and must be at least 1. backoffFactor scales
// the exponential wait and must be non-negative. An empty statusCodes or
// methods set is valid and means nothing is retried.
func NewRetryPolicy(maxAttempts int, backoffFactor time.Duration, statusCodes []int, methods []string) (*RetryPolicy, error) {
	if maxAttempts < 1 {
		return nil, errors.New("maxAttempts must be at least 1")
	}

	if backoffFactor < 0 {
		return nil, errors.New("backoffFactor must be non-negative")
	}

	p := &RetryPolicy{
		maxAttempts:   maxAttempts,
		backoffFactor: backoffFactor,
		statusCodes:   make(map[int]struct{}, len(statusCodes)),
		methods:       make(map[string]struct{}, len(methods)),
	}

	for _, code := range statusCodes {
		p.statusCodes[code] = struct{}{}
	}

	for _, method := range methods {
		p.methods[strings.ToUpper(method)] = struct{}{}
	}

	return p, nil
}

// ShouldRetry reports whether another attempt should be made after the
// attempt with the given 0-based index finished with the given outcome.
// A non-nil err means the attempt failed at the network level before a
// status code was received; statusCode is ignored in that case.
//
// Caller-initiated cancellation is handled by [Session] before the policy
// is consulted, so a deadline error reaching this method is a per-attempt
// read timeout and is treated as transient.
func (p *RetryPolicy) ShouldRetry(method string, attemptIndex int, statusCode int, err error) bool {
	if attemptIndex+1 >= p.maxAttempts {
		return false
	}

	if _, ok := p.methods[strings.ToUpper(method)]; !ok {
		return false
	}

	if err != nil {
		return retryableError(err)
	}

	_, ok := p.statusCodes[statusCode]
	return ok
}

// BackoffDuration returns the wait before the attempt with the given
// 0-based index: zero for the first attempt, backoffFactor * 2^(n-1) for
// attempt n >= 1.
func (p *RetryPolicy) BackoffDuration(attemptIndex int) time.Duration {
	if attemptIndex <= 0 || p.backoffFactor == 0 {
		return 0
	}

	shift := attemptIndex - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}

	return p.backoffFactor * (1 << shift)
}

// maxBackoffShift caps the doubling so the duration cannot overflow.
const maxBackoffShift = 32

// retryableError reports whether a network-level failure is transient.
// Connection refused, connection reset, and read timeouts are transient.
// Context cancellation means the caller gave up, and DNS resolution
// failures rarely resolve themselves within a retry window.
func retryableError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}

	return true
}

// retryableOutcome reports whether a received response would be retried for
// the given method, ignoring the attempt bound. Used to distinguish an
// exhausted-but-retryable terminal outcome from a plain non-retryable one.
func (p *RetryPolicy) retryableOutcome(method string, statusCode int) bool {
	if _, ok := p.methods[strings.ToUpper(method)]; !ok {
		return false
	}

	_, ok := p.statusCodes[statusCode]
	return ok
}

func (p *RetryPolicy) String() string {
	return fmt.Sprintf("retry policy: %d attempt(s), backoff factor %v, %d status code(s), %d method(s)",
		p.maxAttempts, p.backoffFactor, len(p.statusCodes), len(p.methods))
}
