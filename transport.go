package session

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"
)

// defaultTransport returns a pooled transport with sane timeouts and
// connection limits, shared by all requests of one session.
func defaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// requestTimeoutKey carries a per-request timeout override through the
// request context to the transport.
type requestTimeoutKey struct{}

func withRequestTimeout(ctx context.Context, timeout time.Duration) context.Context {
	return context.WithValue(ctx, requestTimeoutKey{}, timeout)
}

// timeoutTransport decorates a round tripper with a per-attempt timeout:
// the default unless the request context carries an override. Because each
// retry attempt is a separate RoundTrip call, the timeout covers a single
// attempt from dial through body read, never the whole retry loop.
type timeoutTransport struct {
	next    http.RoundTripper
	timeout time.Duration
}

func (t *timeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	timeout := t.timeout
	if override, ok := req.Context().Value(requestTimeoutKey{}).(time.Duration); ok {
		timeout = override
	}

	if timeout <= 0 {
		return t.next.RoundTrip(req)
	}

	ctx, cancel := context.WithTimeout(req.Context(), timeout)

	resp, err := t.next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}

	// The deadline must stay armed while the caller reads the body;
	// releasing it here would kill the connection mid-read.
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// CloseIdleConnections forwards to the wrapped transport so
// [Session.Close] can release pooled connections through the decorator.
func (t *timeoutTransport) CloseIdleConnections() {
	if tr, ok := t.next.(interface{ CloseIdleConnections() }); ok {
		tr.CloseIdleConnections()
	}
}

// cancelBody releases the attempt context once the body is fully read or
// closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil {
		b.cancel()
	}

	return n, err
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
