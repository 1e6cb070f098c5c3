// Package session provides a pre-configured HTTP session for scraping and
// automation scripts: failed or rate-limited requests are retried with
// deterministic exponential backoff, every request gets a default timeout
// unless it carries its own, and outgoing requests present a consistent
// browser-like identity.
//
// The session wraps [github.com/go-resty/resty/v2] with a retry policy,
// a timeout-injecting transport, and pluggable logging.
//
// # Basic Usage
//
//	s, err := session.New(
//	    session.WithMaxAttempts(3),
//	    session.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	resp, err := s.Get(ctx, &session.Request{URL: "https://example.com"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.StatusCode)
//
// # Configuration
//
// All configuration is supplied as [Option] functions passed to [New].
// Every option has a documented default; all configuration is validated by
// [New], which fails fast on invalid values.
//
// # Retry Behaviour
//
// A request is retried while attempts remain when the response status code
// is in the retryable set (by default 429, 500, 502, 503, 504) and the
// method is in the retryable method set, or when the attempt failed with a
// transient network error (connection refused, reset, read timeout).
// Context cancellation and DNS resolution errors are never retried. The
// default method set deliberately includes POST: most APIs either perform
// the write or return an error, not both.
//
// The wait before retry attempt n is backoffFactor * 2^(n-1), with no wait
// before the first attempt and no jitter, so retry schedules are exactly
// reproducible. Retry-After response headers are not consulted.
//
// When attempts run out while the last outcome was still retryable, the
// request fails with a [MaxRetriesError]. A response with a non-retryable
// status code (for example 404) is returned to the caller as a normal
// [Response], never as an error.
//
// # Timeouts
//
// The session applies [DefaultTimeout] to each attempt unless configured
// otherwise with [WithTimeout]; WithTimeout(0) disables the default
// entirely. A [Request] can override the session default for a single call
// through its Timeout field (a negative value disables the timeout for
// that call). The timeout covers one attempt, not the whole retry loop; a
// deadline or cancellation on the caller's context short-circuits both the
// in-flight attempt and any pending backoff wait.
//
// # Identity
//
// Every request carries the User-Agent configured with [WithUserAgent]
// (default [DefaultUserAgent], a Chrome-like string) and an X-Request-ID
// header, generated per logical request unless the caller sets one.
//
// # Logging
//
// Implement [RequestLogger] and supply it via [WithRequestLogger] to
// integrate with your logging library, or use the bundled
// [NewZerologLogger]. The default [NoopLogger] discards all log output.
// Logging is scoped to the session it was configured on, never global.
package session
