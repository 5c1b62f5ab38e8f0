package transcriptserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
)

const truncatedMarker = "\n...(truncated)"

// Acquirer is the transcript pipeline.
type Acquirer interface {
	Acquire(ctx context.Context, req sources.AcquireRequest) (*sources.Transcript, error)
}

// Service backs both the MCP tools and the REST API.
type Service struct {
	acquirer   Acquirer
	summarizer engine.Summarizer
	defaultKey string
	maxChars   int
}

// NewService wires the pipeline and summarizer with defaults from c.
func NewService(a Acquirer, s engine.Summarizer, c *engine.Config) *Service {
	svc := &Service{acquirer: a, summarizer: s, maxChars: 20000}
	if c != nil {
		svc.defaultKey = c.InnertubeKey
		if c.MaxTranscriptChars > 0 {
			svc.maxChars = c.MaxTranscriptChars
		}
	}
	return svc
}

// ResolveVideoID prefers rawURL and falls back to videoID.
func ResolveVideoID(rawURL, videoID string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		s = strings.TrimSpace(videoID)
	}
	if s == "" {
		return "", fmt.Errorf("%w: url or video_id is required", sources.ErrInvalidVideoID)
	}
	return sources.ExtractVideoID(s)
}

// Transcript acquires a transcript, consulting the result cache unless in.Refresh.
// Only successful acquisitions are cached.
func (s *Service) Transcript(ctx context.Context, in engine.TranscriptInput) (engine.TranscriptOutput, error) {
	id, err := ResolveVideoID(in.URL, in.VideoID)
	if err != nil {
		return engine.TranscriptOutput{}, err
	}

	cacheKey := engine.CacheKey("youtube_transcript", id)
	if !in.Refresh {
		if out, ok := toolutil.CacheLoadJSON[engine.TranscriptOutput](ctx, cacheKey); ok {
			out.Cached = true
			return out, nil
		}
	}

	key := in.AccessKey
	if key == "" {
		key = s.defaultKey
	}

	var tr *sources.Transcript
	err = engine.TrackOperation(ctx, "youtube_transcript", func(ctx context.Context) error {
		var aerr error
		tr, aerr = s.acquirer.Acquire(ctx, sources.AcquireRequest{
			VideoID:    id,
			PageMarkup: in.PageMarkup,
			AccessKey:  key,
		})
		return aerr
	})
	if err != nil {
		return engine.TranscriptOutput{}, err
	}

	out := engine.TranscriptOutput{
		VideoID:    tr.VideoID,
		Language:   tr.Track.LanguageCode,
		Kind:       string(tr.Track.Kind),
		Origin:     string(tr.Track.Origin),
		Lines:      tr.Lines(),
		Transcript: tr.String(),
	}
	toolutil.CacheStoreJSON(ctx, cacheKey, out)
	return out, nil
}

// Summarize acquires the transcript (cached), caps it at the configured length
// and asks the LLM for a summary.
func (s *Service) Summarize(ctx context.Context, in engine.SummarizeInput) (engine.SummarizeOutput, error) {
	tr, err := s.Transcript(ctx, engine.TranscriptInput{URL: in.URL, VideoID: in.VideoID, AccessKey: in.AccessKey})
	if err != nil {
		return engine.SummarizeOutput{}, err
	}

	text, truncated := s.capTranscript(tr.Transcript)
	if truncated {
		slog.Info("summarize: transcript truncated",
			slog.String("id", tr.VideoID),
			slog.Int("runes", utf8.RuneCountInString(tr.Transcript)),
			slog.Int("limit", s.maxChars))
	}

	var summary string
	err = engine.TrackOperation(ctx, "youtube_summarize", func(ctx context.Context) error {
		var serr error
		summary, serr = s.summarizer.Summarize(ctx, text, in.Options())
		return serr
	})
	if err != nil {
		return engine.SummarizeOutput{}, fmt.Errorf("summarize %s: %w", tr.VideoID, err)
	}
	return engine.SummarizeOutput{
		VideoID:   tr.VideoID,
		Language:  tr.Language,
		Summary:   summary,
		Truncated: truncated,
	}, nil
}

func (s *Service) capTranscript(text string) (string, bool) {
	if utf8.RuneCountInString(text) <= s.maxChars {
		return text, false
	}
	return engine.TruncateRunes(text, s.maxChars, "") + truncatedMarker, true
}

// IsInputError reports whether err was caused by a bad video reference.
func IsInputError(err error) bool {
	return errors.Is(err, sources.ErrInvalidVideoID)
}
