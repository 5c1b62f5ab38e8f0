package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/google/uuid"
)

// YouTube transcript acquisition.
// Scrape discovery → select → per-track retry matrix; on exhaustion the same
// again with API discovery; otherwise one aggregated failure.

// ErrNoTranscript is wrapped by every *AcquisitionError.
var ErrNoTranscript = errors.New("no transcript available")

// Retry matrix step labels, as they appear in diagnostics.
const (
	labelInclude = "Include"
	labelJSONInc = "JSON/Inc"
	labelOmit    = "Omit"
)

// Transcript is a successfully acquired, non-empty transcript.
type Transcript struct {
	VideoID string
	Track   CaptionTrack
	Entries []Entry
}

// Lines renders each entry as "[m:ss] text".
func (t *Transcript) Lines() []string {
	lines := make([]string, len(t.Entries))
	for i, e := range t.Entries {
		lines[i] = "[" + FormatTimestamp(e.Offset) + "] " + e.Text
	}
	return lines
}

// String is the form handed to summarization: every entry as "[m:ss] text ",
// concatenated and trimmed at the end.
func (t *Transcript) String() string {
	return RenderEntries(t.Entries)
}

// RenderEntries concatenates entries as "[m:ss] text " and trims the result.
func RenderEntries(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteByte('[')
		sb.WriteString(FormatTimestamp(e.Offset))
		sb.WriteString("] ")
		sb.WriteString(e.Text)
		sb.WriteByte(' ')
	}
	return strings.TrimSpace(sb.String())
}

// Attempt is one failed step, kept for the final diagnostic.
// Discovery-level failures have no Label.
type Attempt struct {
	Strategy Strategy
	Track    CaptionTrack
	Label    string
	Reason   string
	Status   int // HTTP status of a refused fetch, 0 otherwise
}

func (a Attempt) String() string {
	if a.Label == "" {
		return fmt.Sprintf("[%s] %s", a.Strategy, a.Reason)
	}
	return fmt.Sprintf("[%s] %s: %s", a.Track.LanguageCode, a.Label, a.Reason)
}

// AcquisitionError is the terminal failure: every strategy and track exhausted.
type AcquisitionError struct {
	VideoID  string
	Attempts []Attempt
}

// Diagnostic returns one line per failed attempt.
func (e *AcquisitionError) Diagnostic() string {
	lines := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		lines[i] = a.String()
	}
	return strings.Join(lines, "\n")
}

func (e *AcquisitionError) Error() string {
	return "failed to fetch transcript. Details:\n" + e.Diagnostic()
}

func (e *AcquisitionError) Unwrap() error { return ErrNoTranscript }

// State is a step of the acquisition state machine.
type State int

const (
	StateIdle State = iota
	StateTryingDom
	StateTryingAPI
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateTryingDom:
		return "trying_dom"
	case StateTryingAPI:
		return "trying_api"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "idle"
}

// AcquireRequest is the input of Acquire.
type AcquireRequest struct {
	VideoID    string
	PageMarkup string // optional; the watch page is fetched when empty
	AccessKey  string // optional; without it the API strategy is skipped
}

// Acquirer is the transcript pipeline entry point. It holds no per-call state
// and is safe for concurrent use.
type Acquirer struct {
	fetcher  *TrackFetcher
	scrape   Discoverer
	api      Discoverer
	observer func(State)
}

// AcquirerOption configures an Acquirer.
type AcquirerOption func(*Acquirer)

// WithDiscoverers replaces the scrape and API strategies.
func WithDiscoverers(scrape, api Discoverer) AcquirerOption {
	return func(a *Acquirer) {
		a.scrape = scrape
		a.api = api
	}
}

// WithStateObserver registers fn to be called on every state transition.
func WithStateObserver(fn func(State)) AcquirerOption {
	return func(a *Acquirer) { a.observer = fn }
}

// NewAcquirer builds an Acquirer whose fetches and discoveries all go through t.
func NewAcquirer(t Transport, opts ...AcquirerOption) *Acquirer {
	a := &Acquirer{
		fetcher: NewTrackFetcher(t),
		scrape:  NewScrapeDiscoverer(t),
		api:     NewAPIDiscoverer(t),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewAcquirerFromConfig builds an Acquirer on the transport described by c.
func NewAcquirerFromConfig(c *engine.Config, opts ...AcquirerOption) (*Acquirer, error) {
	t, err := NewTransport(c)
	if err != nil {
		return nil, err
	}
	return NewAcquirer(t, opts...), nil
}

// acquisition is the per-call state: the attempt log and the current state.
type acquisition struct {
	req      AcquireRequest
	log      *slog.Logger
	state    State
	attempts []Attempt
	observer func(State)
}

func (r *acquisition) enter(s State) {
	r.state = s
	r.log.Debug("youtube: acquisition state", slog.String("state", s.String()))
	if r.observer != nil {
		r.observer(s)
	}
}

func (r *acquisition) record(a Attempt) {
	r.attempts = append(r.attempts, a)
}

// Acquire obtains the best available transcript for req.VideoID.
// It returns *AcquisitionError when nothing worked, or the ctx error (wrapped)
// when the caller cancels.
func (a *Acquirer) Acquire(ctx context.Context, req AcquireRequest) (*Transcript, error) {
	engine.IncrTranscriptRequests()
	if strings.TrimSpace(req.VideoID) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidVideoID)
	}

	run := &acquisition{
		req: req,
		log: slog.With(
			slog.String("acq", uuid.NewString()),
			slog.String("id", req.VideoID),
		),
		observer: a.observer,
	}
	run.enter(StateIdle)
	run.log.Info("youtube: acquiring transcript", slog.Bool("has_key", req.AccessKey != ""))

	run.enter(StateTryingDom)
	tr, err := a.tryStrategy(ctx, run, a.scrape)
	if tr == nil && err == nil {
		if req.AccessKey == "" {
			run.record(Attempt{Strategy: StrategyAPI, Reason: "no access key provided for API fallback"})
			run.log.Warn("youtube: scrape exhausted, no access key for API fallback",
				slog.Int("attempts", len(run.attempts)))
		} else {
			run.log.Warn("youtube: scrape exhausted, trying API",
				slog.Int("attempts", len(run.attempts)))
			run.enter(StateTryingAPI)
			tr, err = a.tryStrategy(ctx, run, a.api)
		}
	}

	if err != nil {
		run.log.Warn("youtube: acquisition cancelled",
			slog.String("during", run.state.String()), slog.Any("error", err))
		run.enter(StateFailed)
		engine.IncrTranscriptFailures()
		return nil, fmt.Errorf("acquire %s: %w", req.VideoID, err)
	}
	if tr != nil {
		run.enter(StateSucceeded)
		engine.IncrTranscriptSuccesses()
		run.log.Info("youtube: transcript acquired",
			slog.String("lang", tr.Track.LanguageCode),
			slog.String("kind", string(tr.Track.Kind)),
			slog.String("origin", string(tr.Track.Origin)),
			slog.Int("entries", len(tr.Entries)),
			slog.Int("failed_attempts", len(run.attempts)))
		return tr, nil
	}

	run.enter(StateFailed)
	engine.IncrTranscriptFailures()
	failure := &AcquisitionError{VideoID: req.VideoID, Attempts: run.attempts}
	run.log.Warn("youtube: transcript unavailable", slog.Int("attempts", len(run.attempts)))
	return nil, failure
}

// tryStrategy runs one discovery strategy and walks its tracks through the
// retry matrix. (nil, nil) means the strategy is exhausted; a non-nil error is
// always a context error.
func (a *Acquirer) tryStrategy(ctx context.Context, run *acquisition, d Discoverer) (*Transcript, error) {
	disc := d.Discover(ctx, DiscoverRequest{
		VideoID:    run.req.VideoID,
		PageMarkup: run.req.PageMarkup,
		AccessKey:  run.req.AccessKey,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if disc.Empty() {
		run.record(Attempt{Strategy: d.Strategy(), Reason: "no caption tracks: " + disc.Reason})
		run.log.Debug("youtube: discovery empty",
			slog.String("strategy", string(d.Strategy())), slog.String("reason", disc.Reason))
		return nil, nil
	}

	for _, track := range SelectTracks(disc.Tracks) {
		entries, err := a.tryTrack(ctx, run, d.Strategy(), track)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			return &Transcript{VideoID: run.req.VideoID, Track: track, Entries: entries}, nil
		}
	}
	return nil, nil
}

type matrixStep struct {
	label string
	url   string
	mode  CredentialMode
}

// retryMatrix lists the fetch attempts for one track, in order.
func retryMatrix(baseURL string) []matrixStep {
	steps := []matrixStep{{label: labelInclude, url: baseURL, mode: CredentialsInclude}}
	if !wantsJSON3(baseURL) {
		steps = append(steps, matrixStep{label: labelJSONInc, url: json3URL(baseURL), mode: CredentialsInclude})
	}
	return append(steps, matrixStep{label: labelOmit, url: baseURL, mode: CredentialsOmit})
}

// tryTrack runs the retry matrix for one track and stops at the first step
// that yields at least one entry.
func (a *Acquirer) tryTrack(ctx context.Context, run *acquisition, strategy Strategy, track CaptionTrack) ([]Entry, error) {
	for _, step := range retryMatrix(track.BaseURL) {
		entries, err := a.fetcher.Fetch(ctx, step.url, step.mode)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		reason := "no transcript entries"
		if err != nil {
			reason = err.Error()
		}
		run.record(Attempt{Strategy: strategy, Track: track, Label: step.label, Reason: reason, Status: statusOf(err)})
		run.log.Debug("youtube: track attempt failed",
			slog.String("lang", track.LanguageCode),
			slog.String("step", step.label),
			slog.String("reason", reason))
	}
	return nil, nil
}

// statusOf extracts the HTTP status from a failed fetch, 0 when not applicable.
func statusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind == FetchStatus {
		return fe.StatusCode
	}
	return 0
}

// Blocked reports whether tracks were found but every fetch was refused with an
// auth, geo, or rate-limit status. It separates "captions exist but retrieval was
// blocked" from "no captions exist".
func (e *AcquisitionError) Blocked() bool {
	n := 0
	for _, at := range e.Attempts {
		if at.Label == "" {
			continue
		}
		n++
		switch at.Status {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		default:
			return false
		}
	}
	return n > 0
}
