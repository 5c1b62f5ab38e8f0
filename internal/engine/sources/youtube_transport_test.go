package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewriteHost sends every request to srv regardless of the URL host, so the
// session jar still sees youtube.com URLs.
type rewriteHost struct {
	srv *httptest.Server
}

func (r rewriteHost) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = "http"
	out.URL.Host = r.srv.Listener.Addr().String()
	return http.DefaultTransport.RoundTrip(out)
}

func TestHTTPTransportCredentials(t *testing.T) {
	var gotCookie, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("body"))
	}))
	defer srv.Close()

	ht, err := NewHTTPTransport(&http.Client{Transport: rewriteHost{srv}}, "SID=abc; HSID=def")
	require.NoError(t, err)

	resp, err := ht.Do(context.Background(), &Request{URL: urlEnManual, Credentials: CredentialsInclude})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "body", string(resp.Body))
	assert.Contains(t, gotCookie, "SID=abc")
	assert.Contains(t, gotCookie, "HSID=def")
	assert.NotEmpty(t, gotUA)

	_, err = ht.Do(context.Background(), &Request{URL: urlEnManual, Credentials: CredentialsOmit})
	require.NoError(t, err)
	assert.Empty(t, gotCookie, "omit mode sends no cookies")
}

func TestHTTPTransportHeadersAndBody(t *testing.T) {
	var gotMethod, gotCT, gotUA string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotUA = r.Header.Get("User-Agent")
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		gotBody = buf[:n]
	}))
	defer srv.Close()

	ht, err := NewHTTPTransport(srv.Client(), "")
	require.NoError(t, err)
	_, err = ht.Do(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Header: androidHeaders(),
		Body:   []byte(`{"videoId":"abc"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, ytAndroidUA, gotUA)
	assert.Equal(t, `{"videoId":"abc"}`, string(gotBody))
}

func TestHTTPTransportBadCookies(t *testing.T) {
	_, err := NewHTTPTransport(nil, "not a cookie")
	assert.Error(t, err)
}

func TestHTTPTransportCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ht, err := NewHTTPTransport(srv.Client(), "")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = ht.Do(ctx, &Request{URL: srv.URL})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimitedTransport(t *testing.T) {
	next := newFakeTransport(func(*Request) (*Response, error) { return respond(200, "ok"), nil })

	assert.Same(t, Transport(next), NewRateLimitedTransport(next, 0, 5), "disabled limiter returns next")

	limited := NewRateLimitedTransport(next, 1, 1)
	_, err := limited.Do(context.Background(), &Request{URL: "u"})
	require.NoError(t, err)

	// the bucket is empty; a short deadline cannot wait a full second
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Do(ctx, &Request{URL: "u"})
	require.Error(t, err)
	assert.Equal(t, 1, next.count())
}

func TestNewTransport(t *testing.T) {
	_, err := NewTransport(nil)
	assert.Error(t, err)

	tr, err := NewTransport(&engine.Config{})
	require.NoError(t, err)
	assert.IsType(t, &HTTPTransport{}, tr)

	tr, err = NewTransport(&engine.Config{RateLimit: 2, RateBurst: 1})
	require.NoError(t, err)
	assert.IsType(t, &RateLimitedTransport{}, tr)

	tr, err = NewTransport(&engine.Config{UseBrowserTransport: true})
	require.NoError(t, err)
	assert.IsType(t, &HTTPTransport{}, tr, "browser transport needs a client")
}

func TestTransportFunc(t *testing.T) {
	var seen string
	tf := TransportFunc(func(_ context.Context, req *Request) (*Response, error) {
		seen = req.URL
		return respond(204, ""), nil
	})
	resp, err := tf.Do(context.Background(), &Request{URL: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", seen)
	assert.True(t, resp.OK())
}
