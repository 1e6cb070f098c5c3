package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// HeaderXRequestID is the header carrying the per-request correlation ID.
const HeaderXRequestID = "X-Request-ID"

// Request describes one logical HTTP request issued through a [Session].
type Request struct {
	// URL is the absolute request URL.
	URL string

	// Headers are added to the session's default headers for this
	// request only.
	Headers map[string]string

	// Body is the raw request body, if any.
	Body []byte

	// Timeout overrides the session's default per-attempt timeout for
	// this request. Zero keeps the session default; a negative value
	// disables the timeout for this request.
	Timeout time.Duration
}

// Response is the terminal outcome of a logical request, including
// responses with non-2xx status codes that were not retryable.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Stats      Stats
}

// Stats contains request execution statistics.
type Stats struct {
	// Attempts is the number of attempts made, including the first.
	Attempts int

	// ElapsedTime covers the whole retry loop, waits included.
	ElapsedTime time.Duration
}

// Session is a long-lived HTTP client that transparently applies the retry
// policy, the default timeout, and the identity headers to every request
// issued through it. The configuration is read-only after [New], so a
// session may be shared across goroutines; each logical request runs its
// own independent retry loop.
type Session struct {
	rc      *resty.Client
	policy  *RetryPolicy
	limiter *rate.Limiter
	log     RequestLogger
}

// New creates a session. All options are optional and fall back to the
// documented defaults; invalid values fail here, never at request time.
func New(opts ...Option) (*Session, error) {
	options := newSessionOptions()
	for _, opt := range opts {
		opt(options)
	}

	if err := options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	policy, err := NewRetryPolicy(options.maxAttempts, options.backoffFactor, options.statusCodes, options.methods)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	rc := resty.NewWithClient(&http.Client{
		Transport: &timeoutTransport{next: options.transport, timeout: options.timeout},
	})

	rc.SetLogger(options.requestLogger)
	rc.SetHeader("User-Agent", options.userAgent)
	rc.SetHeaders(options.requestHeaders)

	rc.SetRetryCount(options.maxAttempts - 1)
	// The policy owns wait computation; widen resty's clamp bounds so the
	// deterministic schedule passes through unchanged.
	rc.SetRetryWaitTime(0)
	rc.SetRetryMaxWaitTime(time.Duration(math.MaxInt64))
	rc.SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
		return policy.BackoffDuration(resp.Request.Attempt), nil
	})
	rc.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if resp == nil || resp.Request == nil {
			return false
		}

		// The caller gave up; don't spend the remaining attempts.
		if resp.Request.Context().Err() != nil {
			return false
		}

		return policy.ShouldRetry(resp.Request.Method, resp.Request.Attempt-1, resp.StatusCode(), err)
	})
	rc.AddRetryHook(func(resp *resty.Response, err error) {
		if resp == nil || resp.Request == nil {
			return
		}

		options.requestLogger.Warnf("retrying %s %s after attempt %d: status=%d err=%v",
			resp.Request.Method, resp.Request.URL, resp.Request.Attempt, resp.StatusCode(), err)
	})

	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		// One ID per logical request; unchanged across retries and
		// never overwritten when the caller set its own.
		if r.Header.Get(HeaderXRequestID) == "" {
			r.SetHeader(HeaderXRequestID, uuid.NewString())
		}

		return nil
	})

	var limiter *rate.Limiter
	if options.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.rateLimit), options.rateBurst)
	}

	options.requestLogger.Debugf("session configured: %s, timeout %v", policy, options.timeout)

	return &Session{
		rc:      rc,
		policy:  policy,
		limiter: limiter,
		log:     options.requestLogger,
	}, nil
}

// Do issues one logical request and runs its retry loop to a terminal
// outcome. It returns the final response on success, including non-2xx
// responses that were not retryable. It fails with a [MaxRetriesError]
// when attempts are exhausted while the last outcome was still retryable,
// and propagates network-level errors wrapped, so callers can inspect them
// with [errors.Is] and [errors.As].
func (s *Session) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if s == nil {
		return nil, errors.New("session is nil")
	}

	if req == nil || strings.TrimSpace(req.URL) == "" {
		return nil, errors.New("request URL must be set")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	method = strings.ToUpper(method)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	if req.Timeout != 0 {
		ctx = withRequestTimeout(ctx, req.Timeout)
	}

	r := s.rc.R().SetContext(ctx)
	for header, value := range req.Headers {
		r.SetHeader(header, value)
	}

	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(method, req.URL)

	attempts := 1
	if resp != nil && resp.Request != nil && resp.Request.Attempt > 0 {
		attempts = resp.Request.Attempt
	}

	if err != nil {
		s.log.Errorf("%s %s failed after %d attempt(s): %v", method, req.URL, attempts, err)
		return nil, fmt.Errorf("%s %s failed after %d attempt(s): %w", method, req.URL, attempts, err)
	}

	if attempts >= s.policy.maxAttempts && s.policy.retryableOutcome(method, resp.StatusCode()) {
		maxErr := &MaxRetriesError{
			Method:     method,
			URL:        req.URL,
			Attempts:   attempts,
			StatusCode: resp.StatusCode(),
		}
		s.log.Errorf("%v", maxErr)
		return nil, maxErr
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Headers:    resp.Header(),
		Body:       resp.Body(),
		Stats: Stats{
			Attempts:    attempts,
			ElapsedTime: resp.Time(),
		},
	}, nil
}

// Get issues a GET request through the session.
func (s *Session) Get(ctx context.Context, req *Request) (*Response, error) {
	return s.Do(ctx, http.MethodGet, req)
}

// Head issues a HEAD request through the session.
func (s *Session) Head(ctx context.Context, req *Request) (*Response, error) {
	return s.Do(ctx, http.MethodHead, req)
}

// Post issues a POST request through the session.
func (s *Session) Post(ctx context.Context, req *Request) (*Response, error) {
	return s.Do(ctx, http.MethodPost, req)
}

// Put issues a PUT request through the session.
func (s *Session) Put(ctx context.Context, req *Request) (*Response, error) {
	return s.Do(ctx, http.MethodPut, req)
}

// Patch issues a PATCH request through the session. PATCH is not in the
// default retryable method set.
func (s *Session) Patch(ctx context.Context, req *Request) (*Response, error) {
	return s.Do(ctx, http.MethodPatch, req)
}

// Delete issues a DELETE request through the session.
func (s *Session) Delete(ctx context.Context, req *Request) (*Response, error) {
	return s.Do(ctx, http.MethodDelete, req)
}

// Options issues an OPTIONS request through the session.
func (s *Session) Options(ctx context.Context, req *Request) (*Response, error) {
	return s.Do(ctx, http.MethodOptions, req)
}

// Trace issues a TRACE request through the session.
func (s *Session) Trace(ctx context.Context, req *Request) (*Response, error) {
	return s.Do(ctx, http.MethodTrace, req)
}

// Close releases the session's pooled connections. The session remains
// usable afterwards; new requests will dial fresh connections.
func (s *Session) Close() {
	if s == nil {
		return
	}

	s.rc.GetClient().CloseIdleConnections()
}
