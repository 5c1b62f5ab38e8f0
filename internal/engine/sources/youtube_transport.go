package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps any single YouTube response (watch pages run ~1-2 MB).
const maxBodyBytes = 8 << 20

// CredentialMode says whether a request carries the ambient YouTube session.
type CredentialMode int

const (
	CredentialsInclude CredentialMode = iota
	CredentialsOmit
)

func (m CredentialMode) String() string {
	if m == CredentialsOmit {
		return "omit"
	}
	return "include"
}

// Request is a single outbound call.
type Request struct {
	Method      string
	URL         string
	Header      http.Header
	Body        []byte
	Credentials CredentialMode
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport performs one request. Implementations must honor ctx cancellation
// and must not retry on their own.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// --- net/http ---

var ytCookieURL = &url.URL{Scheme: "https", Host: "www.youtube.com", Path: "/"}

// HTTPTransport sends requests with net/http. Include mode uses a client whose
// cookie jar is seeded with the configured session; omit mode uses one with no jar.
type HTTPTransport struct {
	session   *http.Client
	anonymous *http.Client
}

// NewHTTPTransport builds a transport on top of base (nil = http.DefaultClient).
// cookies is a raw Cookie header value, e.g. "SID=...; HSID=...".
func NewHTTPTransport(base *http.Client, cookies string) (*HTTPTransport, error) {
	if base == nil {
		base = http.DefaultClient
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if cookies != "" {
		parsed, err := http.ParseCookie(cookies)
		if err != nil {
			return nil, fmt.Errorf("parse session cookies: %w", err)
		}
		for _, c := range parsed {
			c.Domain = ".youtube.com"
			c.Path = "/"
		}
		jar.SetCookies(ytCookieURL, parsed)
	}

	session := *base
	session.Jar = jar
	anonymous := *base
	anonymous.Jar = nil
	return &HTTPTransport{session: &session, anonymous: &anonymous}, nil
}

func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	hreq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	if hreq.Header.Get("User-Agent") == "" {
		hreq.Header.Set("User-Agent", engine.RandomUserAgent())
	}

	client := t.session
	if req.Credentials == CredentialsOmit {
		client = t.anonymous
	}
	resp, err := client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// --- go-stealth ---

// BrowserTransport sends requests through the Chrome-fingerprinted BrowserClient.
// Include mode attaches the configured session as a Cookie header.
type BrowserTransport struct {
	client  *engine.BrowserClient
	cookies string
}

func NewBrowserTransport(client *engine.BrowserClient, cookies string) *BrowserTransport {
	return &BrowserTransport{client: client, cookies: cookies}
}

type browserResult struct {
	data   []byte
	status int
	err    error
}

// Do runs the blocking BrowserClient call in a goroutine so ctx cancellation
// returns immediately; the abandoned call finishes on its own timeout.
func (t *BrowserTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	headers := engine.ChromeHeaders()
	for k := range req.Header {
		headers[strings.ToLower(k)] = req.Header.Get(k)
	}
	if req.Credentials == CredentialsInclude && t.cookies != "" {
		headers["cookie"] = t.cookies
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	ch := make(chan browserResult, 1)
	go func() {
		var body io.Reader
		if req.Body != nil {
			body = bytes.NewReader(req.Body)
		}
		data, _, status, err := t.client.Do(method, req.URL, headers, body)
		ch <- browserResult{data: data, status: status, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("browser fetch: %w", res.err)
		}
		return &Response{StatusCode: res.status, Body: res.data}, nil
	}
}

// --- throttling ---

// RateLimitedTransport waits on a token bucket before every request.
type RateLimitedTransport struct {
	next    Transport
	limiter *rate.Limiter
}

// NewRateLimitedTransport wraps next; rps <= 0 returns next unchanged.
func NewRateLimitedTransport(next Transport, rps float64, burst int) Transport {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedTransport{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (t *RateLimitedTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return t.next.Do(ctx, req)
}

// NewTransport builds the transport described by c: BrowserClient when enabled
// and available, net/http otherwise, optionally throttled.
func NewTransport(c *engine.Config) (Transport, error) {
	if c == nil {
		return nil, errors.New("nil engine config")
	}
	var base Transport
	if c.UseBrowserTransport && c.BrowserClient != nil {
		base = NewBrowserTransport(c.BrowserClient, c.SessionCookies)
	} else {
		ht, err := NewHTTPTransport(c.HTTPClient, c.SessionCookies)
		if err != nil {
			return nil, err
		}
		base = ht
	}
	return NewRateLimitedTransport(base, c.RateLimit, c.RateBurst), nil
}
