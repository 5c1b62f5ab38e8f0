package sources

import (
	"context"
	"strings"
	"sync"
)

// fakeTransport records every request and answers through handler.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []*Request
	handler func(req *Request) (*Response, error)
}

func newFakeTransport(handler func(req *Request) (*Response, error)) *fakeTransport {
	return &fakeTransport{handler: handler}
}

func (f *fakeTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.handler(req)
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransport) countMethod(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func respond(status int, body string) *Response {
	return &Response{StatusCode: status, Body: []byte(body)}
}

// watchPage wraps caption track JSON objects in a minimal watch page.
func watchPage(tracks ...string) string {
	return `<!DOCTYPE html><html><head><title>video</title></head><body>` +
		`<script nonce="x">var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},` +
		`"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[` + strings.Join(tracks, ",") + `]}},` +
		`"videoDetails":{"title":"a {curly} title"}};var meta = document.createElement('meta');</script>` +
		`</body></html>`
}

const (
	trackEnManual = `{"baseUrl":"https://www.youtube.com/api/timedtext?v=abc&lang=en","languageCode":"en"}`
	trackEnASR    = `{"baseUrl":"https://www.youtube.com/api/timedtext?v=abc&lang=en&kind=asr","languageCode":"en","kind":"asr"}`
	trackFr       = `{"baseUrl":"https://www.youtube.com/api/timedtext?v=abc&lang=fr","languageCode":"fr"}`

	urlEnManual = "https://www.youtube.com/api/timedtext?v=abc&lang=en"
	urlEnASR    = "https://www.youtube.com/api/timedtext?v=abc&lang=en&kind=asr"
	urlFr       = "https://www.youtube.com/api/timedtext?v=abc&lang=fr"
)

const xmlThree = `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
	`<text start="0.5" dur="2.1">Hello</text>` +
	`<text start="83.2" dur="1.5">rock &amp; roll</text>` +
	`<text start="   " dur="1">   </text>` +
	`<text start="3725" dur="3">the end</text>` +
	`</transcript>`

const json3Three = `{"wireMagic":"pb3","events":[` +
	`{"tStartMs":0,"dDurationMs":4000,"segs":[{"utf8":"Hello"},{"utf8":"\n"},{"utf8":" there"}]},` +
	`{"tStartMs":1000,"id":1,"wWinId":1},` +
	`{"tStartMs":5000,"segs":[{"utf8":"second"}]},` +
	`{"tStartMs":7000,"segs":[{"utf8":"\n"}]},` +
	`{"tStartMs":83000,"segs":[{"utf8":"third"}]}` +
	`]}`
