package session

import (
	"net/http"
	"testing"
	"time"
)

func TestNewSessionOptions(t *testing.T) {
	t.Parallel()

	opts := newSessionOptions()

	if opts.maxAttempts != 5 {
		t.Errorf("expected maxAttempts=5, got %d", opts.maxAttempts)
	}

	if opts.backoffFactor != 300*time.Millisecond {
		t.Errorf("expected backoffFactor=300ms, got %v", opts.backoffFactor)
	}

	if opts.timeout != 5*time.Second {
		t.Errorf("expected timeout=5s, got %v", opts.timeout)
	}

	if opts.userAgent != DefaultUserAgent {
		t.Errorf("expected default user agent, got %s", opts.userAgent)
	}

	if opts.requestLogger == nil {
		t.Error("expected requestLogger to be set")
	}

	if opts.transport == nil {
		t.Error("expected transport to be set")
	}

	if opts.rateLimit != 0 {
		t.Errorf("expected no rate limit, got %v", opts.rateLimit)
	}

	wantCodes := []int{429, 500, 502, 503, 504}
	if len(opts.statusCodes) != len(wantCodes) {
		t.Fatalf("expected %d status codes, got %d", len(wantCodes), len(opts.statusCodes))
	}
	for i, code := range wantCodes {
		if opts.statusCodes[i] != code {
			t.Errorf("expected status code %d at index %d, got %d", code, i, opts.statusCodes[i])
		}
	}

	wantMethods := []string{"HEAD", "GET", "PUT", "POST", "DELETE", "OPTIONS", "TRACE"}
	if len(opts.methods) != len(wantMethods) {
		t.Fatalf("expected %d methods, got %d", len(wantMethods), len(opts.methods))
	}
	for i, method := range wantMethods {
		if opts.methods[i] != method {
			t.Errorf("expected method %s at index %d, got %s", method, i, opts.methods[i])
		}
	}
}

func TestWithMaxAttempts(t *testing.T) {
	t.Parallel()

	opts := newSessionOptions()
	WithMaxAttempts(8)(opts)

	if opts.maxAttempts != 8 {
		t.Errorf("expected maxAttempts=8, got %d", opts.maxAttempts)
	}
}

func TestWithBackoffFactor(t *testing.T) {
	t.Parallel()

	opts := newSessionOptions()
	WithBackoffFactor(time.Second)(opts)

	if opts.backoffFactor != time.Second {
		t.Errorf("expected backoffFactor=1s, got %v", opts.backoffFactor)
	}
}

func TestWithRetryableStatusCodes(t *testing.T) {
	t.Parallel()

	t.Run("replaces set", func(t *testing.T) {
		t.Parallel()

		opts := newSessionOptions()
		WithRetryableStatusCodes(500, 503)(opts)

		if len(opts.statusCodes) != 2 || opts.statusCodes[0] != 500 || opts.statusCodes[1] != 503 {
			t.Errorf("expected [500 503], got %v", opts.statusCodes)
		}
	})

	t.Run("empty means retry nothing", func(t *testing.T) {
		t.Parallel()

		opts := newSessionOptions()
		WithRetryableStatusCodes()(opts)

		if len(opts.statusCodes) != 0 {
			t.Errorf("expected empty set, got %v", opts.statusCodes)
		}
	})
}

func TestWithRetryableMethods(t *testing.T) {
	t.Parallel()

	opts := newSessionOptions()
	WithRetryableMethods("get", "Post")(opts)

	if len(opts.methods) != 2 || opts.methods[0] != "GET" || opts.methods[1] != "POST" {
		t.Errorf("expected upper-cased [GET POST], got %v", opts.methods)
	}
}

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    time.Duration
		expected time.Duration
	}{
		{"valid", 10 * time.Second, 10 * time.Second},
		{"zero disables", 0, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := newSessionOptions()
			WithTimeout(tt.input)(opts)

			if opts.timeout != tt.expected {
				t.Errorf("expected timeout=%v, got %v", tt.expected, opts.timeout)
			}
		})
	}
}

func TestWithUserAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"valid", "my-scraper/1.0", "my-scraper/1.0"},
		{"empty ignored", "", DefaultUserAgent},
		{"whitespace ignored", "   ", DefaultUserAgent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := newSessionOptions()
			WithUserAgent(tt.input)(opts)

			if opts.userAgent != tt.expected {
				t.Errorf("expected userAgent=%q, got %q", tt.expected, opts.userAgent)
			}
		})
	}
}

func TestWithRequestHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		header        string
		value         string
		expectIgnored bool
	}{
		{"valid header", "X-Custom", "value", false},
		{"empty header ignored", "", "value", true},
		{"whitespace header ignored", "   ", "value", true},
		{"User-Agent protected", "User-Agent", "curl/8.0", true},
		{"user-agent protected (case insensitive)", "user-agent", "curl/8.0", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := newSessionOptions()
			WithRequestHeader(tt.header, tt.value)(opts)

			if tt.expectIgnored {
				if len(opts.requestHeaders) != 0 {
					t.Errorf("expected header to be ignored, got %v", opts.requestHeaders)
				}
			} else if opts.requestHeaders[tt.header] != tt.value {
				t.Errorf("expected header %s=%s, got %s", tt.header, tt.value, opts.requestHeaders[tt.header])
			}
		})
	}
}

func TestWithRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("valid logger", func(t *testing.T) {
		t.Parallel()

		opts := newSessionOptions()
		logger := &NoopLogger{}
		WithRequestLogger(logger)(opts)

		if opts.requestLogger != logger {
			t.Error("expected requestLogger to be set")
		}
	})

	t.Run("nil ignored", func(t *testing.T) {
		t.Parallel()

		opts := newSessionOptions()
		originalLogger := opts.requestLogger
		WithRequestLogger(nil)(opts)

		if opts.requestLogger != originalLogger {
			t.Error("nil logger should be ignored")
		}
	})
}

func TestWithTransport(t *testing.T) {
	t.Parallel()

	t.Run("valid transport", func(t *testing.T) {
		t.Parallel()

		opts := newSessionOptions()
		WithTransport(http.DefaultTransport)(opts)

		if opts.transport != http.DefaultTransport {
			t.Error("expected transport to be set")
		}
	})

	t.Run("nil ignored", func(t *testing.T) {
		t.Parallel()

		opts := newSessionOptions()
		originalTransport := opts.transport
		WithTransport(nil)(opts)

		if opts.transport != originalTransport {
			t.Error("nil transport should be ignored")
		}
	})
}

func TestWithRateLimit(t *testing.T) {
	t.Parallel()

	opts := newSessionOptions()
	WithRateLimit(2.5, 3)(opts)

	if opts.rateLimit != 2.5 {
		t.Errorf("expected rateLimit=2.5, got %v", opts.rateLimit)
	}

	if opts.rateBurst != 3 {
		t.Errorf("expected rateBurst=3, got %d", opts.rateBurst)
	}
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		modify    func(*Options)
		wantError string
	}{
		{
			name:      "valid defaults",
			modify:    func(_ *Options) {},
			wantError: "",
		},
		{
			name:      "zero maxAttempts",
			modify:    func(o *Options) { o.maxAttempts = 0 },
			wantError: "maxAttempts must be at least 1",
		},
		{
			name:      "negative maxAttempts",
			modify:    func(o *Options) { o.maxAttempts = -3 },
			wantError: "maxAttempts must be at least 1",
		},
		{
			name:      "negative backoffFactor",
			modify:    func(o *Options) { o.backoffFactor = -time.Second },
			wantError: "backoffFactor must be non-negative",
		},
		{
			name:      "negative timeout",
			modify:    func(o *Options) { o.timeout = -time.Second },
			wantError: "timeout must be non-negative",
		},
		{
			name:      "nil requestLogger",
			modify:    func(o *Options) { o.requestLogger = nil },
			wantError: "requestLogger must not be nil",
		},
		{
			name:      "nil transport",
			modify:    func(o *Options) { o.transport = nil },
			wantError: "transport must not be nil",
		},
		{
			name:      "negative rateLimit",
			modify:    func(o *Options) { o.rateLimit = -1 },
			wantError: "rateLimit must be non-negative",
		},
		{
			name: "rate limit without burst",
			modify: func(o *Options) {
				o.rateLimit = 10
				o.rateBurst = 0
			},
			wantError: "rateBurst must be at least 1",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := newSessionOptions()
			tt.modify(opts)

			err := opts.Validate()

			if tt.wantError == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.wantError)
				} else if err.Error() != tt.wantError {
					t.Errorf("expected error %q, got %q", tt.wantError, err.Error())
				}
			}
		})
	}
}
