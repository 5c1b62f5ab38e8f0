package sources

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// FetchErrorKind classifies a failed caption fetch.
type FetchErrorKind string

const (
	FetchStatus             FetchErrorKind = "status"
	FetchEmptyBody          FetchErrorKind = "empty-body"
	FetchUnrecognizedFormat FetchErrorKind = "unrecognized-format"
	FetchTransport          FetchErrorKind = "transport"
)

// FetchError is a single failed caption retrieval.
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int   // FetchStatus only
	Err        error // FetchTransport only
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchStatus:
		return fmt.Sprintf("status %d", e.StatusCode)
	case FetchEmptyBody:
		return "empty body"
	case FetchUnrecognizedFormat:
		return "unrecognized format (not XML/JSON)"
	}
	if e.Err != nil {
		return "transport: " + e.Err.Error()
	}
	return "transport error"
}

func (e *FetchError) Unwrap() error { return e.Err }

// TrackFetcher retrieves and parses one caption URL per call.
type TrackFetcher struct {
	transport Transport
}

func NewTrackFetcher(t Transport) *TrackFetcher {
	return &TrackFetcher{transport: t}
}

// Fetch performs one GET of url under mode. A parseable payload with zero entries
// is returned as (nil, nil); deciding whether that is acceptable is up to the caller.
// Context cancellation is returned as the bare ctx error, not a FetchError.
func (f *TrackFetcher) Fetch(ctx context.Context, url string, mode CredentialMode) ([]Entry, error) {
	engine.IncrFetchAttempts()
	resp, err := f.transport.Do(ctx, &Request{
		Method:      http.MethodGet,
		URL:         url,
		Credentials: mode,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		engine.IncrFetchErrors()
		return nil, &FetchError{Kind: FetchTransport, Err: err}
	}
	if !resp.OK() {
		engine.IncrFetchErrors()
		return nil, &FetchError{Kind: FetchStatus, StatusCode: resp.StatusCode}
	}
	if strings.TrimSpace(string(resp.Body)) == "" {
		engine.IncrFetchErrors()
		return nil, &FetchError{Kind: FetchEmptyBody}
	}
	format := SniffFormat(resp.Body)
	if format == FormatUnknown {
		engine.IncrFetchErrors()
		return nil, &FetchError{Kind: FetchUnrecognizedFormat}
	}
	return ParsePayload(format, resp.Body), nil
}

var fmtParamRe = regexp.MustCompile(`fmt=\w+`)

// wantsJSON3 reports whether the caption URL already requests event JSON.
func wantsJSON3(u string) bool {
	return strings.Contains(u, "fmt=json3")
}

// json3URL rewrites the first fmt=<x> parameter to fmt=json3, or appends one.
func json3URL(u string) string {
	if loc := fmtParamRe.FindStringIndex(u); loc != nil {
		return u[:loc[0]] + "fmt=json3" + u[loc[1]:]
	}
	if strings.Contains(u, "?") {
		return u + "&fmt=json3"
	}
	return u + "?fmt=json3"
}
