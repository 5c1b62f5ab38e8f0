package sources

import (
	"sort"
	"strings"
)

// TrackKind distinguishes human-authored captions from ASR output.
type TrackKind string

const (
	KindManual TrackKind = "manual"
	KindASR    TrackKind = "asr"
)

// TrackOrigin records which discovery strategy produced a track.
type TrackOrigin string

const (
	OriginScrape TrackOrigin = "scrape"
	OriginAPI    TrackOrigin = "api"
)

// CaptionTrack describes one caption stream. It is immutable once discovered.
type CaptionTrack struct {
	BaseURL      string      `json:"base_url"`
	LanguageCode string      `json:"language_code"`
	Kind         TrackKind   `json:"kind"`
	Origin       TrackOrigin `json:"origin"`
}

// IsEnglish reports whether the track language is "en" or an "en-" variant.
func (t CaptionTrack) IsEnglish() bool {
	return t.LanguageCode == "en" || strings.HasPrefix(t.LanguageCode, "en-")
}

// SelectTracks orders tracks for attempt: manual English, then ASR English,
// then every other track in discovery order. No track is dropped.
func SelectTracks(tracks []CaptionTrack) []CaptionTrack {
	english := make([]CaptionTrack, 0, len(tracks))
	var other []CaptionTrack
	for _, t := range tracks {
		if t.IsEnglish() {
			english = append(english, t)
		} else {
			other = append(other, t)
		}
	}
	sort.SliceStable(english, func(i, j int) bool {
		return english[i].Kind != KindASR && english[j].Kind == KindASR
	})
	return append(english, other...)
}
