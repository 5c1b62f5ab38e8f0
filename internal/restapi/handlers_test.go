package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	transcriptIn engine.TranscriptInput
	transcript   engine.TranscriptOutput
	summary      engine.SummarizeOutput
	err          error
	wait         bool
}

func (f *fakeService) Transcript(ctx context.Context, in engine.TranscriptInput) (engine.TranscriptOutput, error) {
	f.transcriptIn = in
	if f.wait {
		<-ctx.Done()
		return engine.TranscriptOutput{}, fmt.Errorf("acquire: %w", ctx.Err())
	}
	return f.transcript, f.err
}

func (f *fakeService) Summarize(_ context.Context, _ engine.SummarizeInput) (engine.SummarizeOutput, error) {
	return f.summary, f.err
}

func post(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(NewRouter(&fakeService{}, Config{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestTranscriptHandler(t *testing.T) {
	svc := &fakeService{transcript: engine.TranscriptOutput{
		VideoID: "dQw4w9WgXcQ", Language: "en", Kind: "manual", Origin: "scrape",
		Lines: []string{"[0:00] Hello"}, Transcript: "[0:00] Hello",
	}}
	srv := httptest.NewServer(NewRouter(svc, Config{}))
	defer srv.Close()

	resp, out := post(t, srv, "/api/transcript", `{"url":"https://youtu.be/dQw4w9WgXcQ","access_key":"k"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "dQw4w9WgXcQ", out["video_id"])
	assert.Equal(t, "[0:00] Hello", out["transcript"])
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", svc.transcriptIn.URL)
	assert.Equal(t, "k", svc.transcriptIn.AccessKey)
}

func TestTranscriptHandlerErrors(t *testing.T) {
	failure := &sources.AcquisitionError{VideoID: "dQw4w9WgXcQ", Attempts: []sources.Attempt{
		{Strategy: sources.StrategyScrape, Reason: "no caption tracks: ytInitialPlayerResponse not found"},
		{Strategy: sources.StrategyAPI, Reason: "no access key provided for API fallback"},
	}}
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"bad json", `{"url":`, nil, http.StatusBadRequest, "invalid JSON body"},
		{"bad video", `{}`, fmt.Errorf("%w: url or video_id is required", sources.ErrInvalidVideoID), http.StatusBadRequest, "url or video_id is required"},
		{"total failure", `{"video_id":"dQw4w9WgXcQ"}`, failure, http.StatusBadGateway, "[api] no access key provided for API fallback"},
		{"llm disabled", `{"video_id":"dQw4w9WgXcQ"}`, engine.ErrLLMDisabled, http.StatusServiceUnavailable, "not configured"},
		{"unexpected", `{"video_id":"dQw4w9WgXcQ"}`, fmt.Errorf("boom"), http.StatusInternalServerError, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(NewRouter(&fakeService{err: tt.err}, Config{}))
			defer srv.Close()

			resp, out := post(t, srv, "/api/transcript", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, out["error"], tt.wantError)
		})
	}
}

func TestTranscriptHandlerTimeout(t *testing.T) {
	srv := httptest.NewServer(NewRouter(&fakeService{wait: true}, Config{RequestTimeout: 20 * time.Millisecond}))
	defer srv.Close()

	resp, out := post(t, srv, "/api/transcript", `{"video_id":"dQw4w9WgXcQ"}`)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Equal(t, "timed out", out["error"])
}

func TestSummarizeHandler(t *testing.T) {
	svc := &fakeService{summary: engine.SummarizeOutput{VideoID: "dQw4w9WgXcQ", Language: "en", Summary: "## Key messages"}}
	srv := httptest.NewServer(NewRouter(svc, Config{}))
	defer srv.Close()

	resp, out := post(t, srv, "/api/summarize", `{"video_id":"dQw4w9WgXcQ","length_mode":"extra_short","include_core":false}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "## Key messages", out["summary"])
}

func TestCORSPreflight(t *testing.T) {
	srv := httptest.NewServer(NewRouter(&fakeService{}, Config{CORSOrigins: []string{"https://app.example.com"}}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/transcript", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestCORSOptions(t *testing.T) {
	assert.Equal(t, []string{"*"}, CORSOptions(nil).AllowedOrigins)
	assert.False(t, CORSOptions(nil).AllowCredentials)
	assert.True(t, CORSOptions([]string{"https://a.example"}).AllowCredentials)
}
