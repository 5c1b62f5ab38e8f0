package sources

import (
	"net/http"
	"strings"
)

// YouTube Innertube API: low-level constants, wire types, and request headers.
// Discovery logic lives in youtube_discover.go.

const (
	ytWatchURL       = "https://www.youtube.com/watch?v="
	ytInnertubeURL   = "https://www.youtube.com/youtubei/v1/player"
	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
)

// --- ANDROID client types (/player endpoint) ---

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

// innertubePlayerResp is the shared shape of the /player response and the
// ytInitialPlayerResponse object embedded in the watch page.
type innertubePlayerResp struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrackJSON `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrackJSON struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

func (r *innertubePlayerResp) captionTracks() []captionTrackJSON {
	if r.Captions == nil {
		return nil
	}
	return r.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
}

func (r *innertubePlayerResp) playabilityReason() string {
	if r.PlayabilityStatus == nil {
		return ""
	}
	return r.PlayabilityStatus.Reason
}

// tracksFrom converts wire tracks into CaptionTracks tagged with their origin.
// Tracks without a base URL cannot be fetched and are skipped.
func tracksFrom(raw []captionTrackJSON, origin TrackOrigin) []CaptionTrack {
	tracks := make([]CaptionTrack, 0, len(raw))
	for _, t := range raw {
		if strings.TrimSpace(t.BaseURL) == "" {
			continue
		}
		kind := KindManual
		if t.Kind == "asr" {
			kind = KindASR
		}
		tracks = append(tracks, CaptionTrack{
			BaseURL:      t.BaseURL,
			LanguageCode: t.LanguageCode,
			Kind:         kind,
			Origin:       origin,
		})
	}
	return tracks
}

// newAndroidPlayerReq builds the /player payload impersonating the ANDROID app.
func newAndroidPlayerReq(videoID string) innertubeReq {
	return innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	}
}

func androidHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", ytAndroidUA)
	h.Set("X-Youtube-Client-Name", "3")
	h.Set("X-Youtube-Client-Version", ytAndroidVersion)
	return h
}

func watchPageHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return h
}
