package session

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Defaults applied by [New] when the corresponding option is not given.
const (
	// DefaultMaxAttempts is the total number of attempts per request,
	// including the first.
	DefaultMaxAttempts = 5

	// DefaultBackoffFactor scales the exponential wait between attempts.
	DefaultBackoffFactor = 300 * time.Millisecond

	// DefaultTimeout is applied to each attempt unless overridden with
	// [WithTimeout] or per request.
	DefaultTimeout = 5 * time.Second

	// DefaultUserAgent identifies the session as a Chrome browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.1; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/56.0.2924.76 Safari/537.36"
)

// DefaultRetryableStatusCodes returns the response codes treated as transient.
// Servers and reverse proxies don't always adhere to the HTTP spec, so the
// common server errors are retried, and 429 is retried because rate limits
// clear on their own.
func DefaultRetryableStatusCodes() []int {
	return []int{
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	}
}

// DefaultRetryableMethods returns the verbs eligible for retry. POST is
// included on purpose: most APIs don't perform an insert and return an
// error code in the same call.
func DefaultRetryableMethods() []string {
	return []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPut,
		http.MethodPost,
		http.MethodDelete,
		http.MethodOptions,
		http.MethodTrace,
	}
}

type Option func(*Options)

type Options struct {
	maxAttempts    int
	backoffFactor  time.Duration
	statusCodes    []int
	methods        []string
	timeout        time.Duration
	userAgent      string
	requestHeaders map[string]string
	requestLogger  RequestLogger
	transport      http.RoundTripper
	rateLimit      float64
	rateBurst      int
}

func newSessionOptions() *Options {
	return &Options{
		maxAttempts:    DefaultMaxAttempts,
		backoffFactor:  DefaultBackoffFactor,
		statusCodes:    DefaultRetryableStatusCodes(),
		methods:        DefaultRetryableMethods(),
		timeout:        DefaultTimeout,
		userAgent:      DefaultUserAgent,
		requestHeaders: map[string]string{},
		requestLogger:  &NoopLogger{},
		transport:      defaultTransport(),
	}
}

// WithMaxAttempts sets the total number of attempts per request, including
// the first. Values below 1 cause [New] to fail.
func WithMaxAttempts(attempts int) Option {
	return func(o *Options) {
		o.maxAttempts = attempts
	}
}

// WithBackoffFactor sets the factor scaling the exponential wait between
// attempts. Zero disables waiting; negative values cause [New] to fail.
func WithBackoffFactor(factor time.Duration) Option {
	return func(o *Options) {
		o.backoffFactor = factor
	}
}

// WithRetryableStatusCodes replaces the set of status codes treated as
// transient. Calling it with no arguments means no status code is retried.
func WithRetryableStatusCodes(codes ...int) Option {
	return func(o *Options) {
		o.statusCodes = append([]int(nil), codes...)
	}
}

// WithRetryableMethods replaces the set of verbs eligible for retry.
// Method names are case-insensitive. Calling it with no arguments means no
// request is retried.
func WithRetryableMethods(methods ...string) Option {
	return func(o *Options) {
		o.methods = make([]string, 0, len(methods))
		for _, m := range methods {
			o.methods = append(o.methods, strings.ToUpper(m))
		}
	}
}

// WithTimeout sets the default per-attempt timeout. Zero disables the
// default timeout entirely; negative values cause [New] to fail.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
// Blank values are ignored and the default is retained.
func WithUserAgent(userAgent string) Option {
	return func(o *Options) {
		if strings.TrimSpace(userAgent) != "" {
			o.userAgent = userAgent
		}
	}
}

// WithRequestHeader adds a default header sent with every request. Blank
// header names are ignored, and User-Agent is protected; use
// [WithUserAgent] for that.
func WithRequestHeader(header, value string) Option {
	return func(o *Options) {
		header = strings.TrimSpace(header)

		if header == "" || strings.EqualFold(header, "User-Agent") {
			return
		}

		o.requestHeaders[header] = value
	}
}

// WithRequestLogger sets the logger used for request and retry logging.
// Nil loggers are ignored and the default [NoopLogger] is retained.
func WithRequestLogger(logger RequestLogger) Option {
	return func(o *Options) {
		if logger != nil {
			o.requestLogger = logger
		}
	}
}

// WithTransport replaces the underlying round tripper used to send
// requests. Useful for tests and for composing additional middleware.
// Nil values are ignored and the default pooled transport is retained.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *Options) {
		if transport != nil {
			o.transport = transport
		}
	}
}

// WithRateLimit enables a client-side rate limiter: each request waits
// until the limiter admits it. requestsPerSecond must be positive and
// burst at least 1, otherwise [New] fails. The default is no rate limit.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(o *Options) {
		o.rateLimit = requestsPerSecond
		o.rateBurst = burst
	}
}

// Validate checks the options for consistency. [New] calls it so that
// configuration mistakes surface at construction time, never at request
// time.
func (o *Options) Validate() error {
	if o.maxAttempts < 1 {
		return fmt.Errorf("maxAttempts must be at least 1")
	}

	if o.backoffFactor < 0 {
		return fmt.Errorf("backoffFactor must be non-negative")
	}

	if o.timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	if o.requestLogger == nil {
		return fmt.Errorf("requestLogger must not be nil")
	}

	if o.transport == nil {
		return fmt.Errorf("transport must not be nil")
	}

	if o.rateLimit < 0 {
		return fmt.Errorf("rateLimit must be non-negative")
	}

	if o.rateLimit > 0 && o.rateBurst < 1 {
		return fmt.Errorf("rateBurst must be at least 1")
	}

	return nil
}
