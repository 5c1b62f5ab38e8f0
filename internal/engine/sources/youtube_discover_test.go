package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeDiscovererMarkup(t *testing.T) {
	escaped := `{"baseUrl":"https://www.youtube.com/api/timedtext?v=abc\u0026lang=de","languageCode":"de"}`
	markup := watchPage(trackEnASR, escaped, `{"baseUrl":"","languageCode":"es"}`)

	d := NewScrapeDiscoverer(nil)
	disc := d.Discover(context.Background(), DiscoverRequest{VideoID: "abc", PageMarkup: markup})

	require.False(t, disc.Empty(), disc.Reason)
	require.Len(t, disc.Tracks, 2, "track with empty baseUrl is skipped")
	assert.Equal(t, CaptionTrack{BaseURL: urlEnASR, LanguageCode: "en", Kind: KindASR, Origin: OriginScrape}, disc.Tracks[0])
	assert.Equal(t, "https://www.youtube.com/api/timedtext?v=abc&lang=de", disc.Tracks[1].BaseURL)
	assert.Equal(t, KindManual, disc.Tracks[1].Kind)
}

func TestScrapeDiscovererBareAssignment(t *testing.T) {
	markup := `window["ytInitialPlayerResponse"] = null; ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` + trackFr + `]}}};`
	disc := NewScrapeDiscoverer(nil).Discover(context.Background(), DiscoverRequest{PageMarkup: markup})
	require.Len(t, disc.Tracks, 1)
	assert.Equal(t, urlFr, disc.Tracks[0].BaseURL)
}

func TestScrapeDiscovererEmpty(t *testing.T) {
	tests := []struct {
		name       string
		markup     string
		wantReason string
	}{
		{"no player response", `<html><body><script>var x = 1;</script></body></html>`, "ytInitialPlayerResponse not found"},
		{"unterminated object", `<script>var ytInitialPlayerResponse = {"captions": {</script>`, "ytInitialPlayerResponse not found"},
		{"malformed json", `<script>var ytInitialPlayerResponse = {"captions": nope};</script>`, "malformed ytInitialPlayerResponse"},
		{"no captions", `<script>var ytInitialPlayerResponse = {"videoDetails":{}};</script>`, "no captions in ytInitialPlayerResponse"},
		{"unplayable", `<script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"LOGIN_REQUIRED","reason":"Sign in to confirm your age"}};</script>`, "captions unavailable: Sign in to confirm your age"},
		{"no markup, no transport", "", "no page markup"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disc := NewScrapeDiscoverer(nil).Discover(context.Background(), DiscoverRequest{VideoID: "abc", PageMarkup: tt.markup})
			assert.True(t, disc.Empty())
			assert.Contains(t, disc.Reason, tt.wantReason)
		})
	}
}

func TestScrapeDiscovererFetchesWatchPage(t *testing.T) {
	ft := newFakeTransport(func(*Request) (*Response, error) {
		return respond(200, watchPage(trackEnManual)), nil
	})
	disc := NewScrapeDiscoverer(ft).Discover(context.Background(), DiscoverRequest{VideoID: "dQw4w9WgXcQ"})

	require.Len(t, disc.Tracks, 1)
	require.Equal(t, 1, ft.count())
	req := ft.calls[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", req.URL)
	assert.Equal(t, CredentialsInclude, req.Credentials)
}

func TestScrapeDiscovererWatchPageStatus(t *testing.T) {
	ft := newFakeTransport(func(*Request) (*Response, error) { return respond(429, ""), nil })
	disc := NewScrapeDiscoverer(ft).Discover(context.Background(), DiscoverRequest{VideoID: "abc"})
	assert.True(t, disc.Empty())
	assert.Equal(t, "watch page: status 429", disc.Reason)
}

func TestAPIDiscoverer(t *testing.T) {
	body := `{"playabilityStatus":{"status":"OK"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` +
		trackFr + `,` + trackEnASR + `]}}}`
	ft := newFakeTransport(func(*Request) (*Response, error) { return respond(200, body), nil })

	disc := NewAPIDiscoverer(ft).Discover(context.Background(), DiscoverRequest{VideoID: "abc", AccessKey: "k&y"})

	require.Len(t, disc.Tracks, 2)
	for _, tr := range disc.Tracks {
		assert.Equal(t, OriginAPI, tr.Origin)
	}
	require.Equal(t, 1, ft.count())
	req := ft.calls[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://www.youtube.com/youtubei/v1/player?key=k%26y&prettyPrint=false", req.URL)
	assert.Equal(t, CredentialsInclude, req.Credentials)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(req.Header.Get("User-Agent"), "com.google.android.youtube/20.10.38"))

	var sent innertubeReq
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Equal(t, "abc", sent.VideoID)
	assert.Equal(t, "ANDROID", sent.Context.Client.ClientName)
	assert.Equal(t, "20.10.38", sent.Context.Client.ClientVersion)
}

func TestAPIDiscovererEmpty(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		resp       *Response
		wantReason string
		wantCalls  int
	}{
		{"no key", "", nil, "no access key", 0},
		{"server error", "k", respond(500, "oops"), "android player: status 500", 1},
		{"not json", "k", respond(200, "<html>"), "decode player", 1},
		{"no captions", "k", respond(200, `{}`), "no captions in player response", 1},
		{"unplayable", "k", respond(200, `{"playabilityStatus":{"status":"ERROR","reason":"Video unavailable"}}`), "captions unavailable: Video unavailable", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := newFakeTransport(func(*Request) (*Response, error) { return tt.resp, nil })
			disc := NewAPIDiscoverer(ft).Discover(context.Background(), DiscoverRequest{VideoID: "abc", AccessKey: tt.key})
			assert.True(t, disc.Empty())
			assert.Contains(t, disc.Reason, tt.wantReason)
			assert.Equal(t, tt.wantCalls, ft.count())
		})
	}
}
