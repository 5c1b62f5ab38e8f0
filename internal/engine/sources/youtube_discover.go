package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Caption track discovery.
// Scrape: ytInitialPlayerResponse embedded in the watch page (fast, but recent
//         layouts often ship it without captions).
// API:    ANDROID Innertube /player with an access key (the resilience backstop).

// Strategy names a discovery strategy.
type Strategy string

const (
	StrategyScrape Strategy = "scrape"
	StrategyAPI    Strategy = "api"
)

// DiscoverRequest carries everything a strategy may need.
type DiscoverRequest struct {
	VideoID    string
	PageMarkup string // serialized watch page; fetched when empty
	AccessKey  string // Innertube key for the API strategy
}

// Discovery is the outcome of one strategy. Reason explains an empty result.
type Discovery struct {
	Tracks []CaptionTrack
	Reason string
}

// Empty reports whether no tracks were found.
func (d Discovery) Empty() bool { return len(d.Tracks) == 0 }

// Discoverer locates caption tracks. It never fails: problems surface as an
// empty Discovery with a Reason.
type Discoverer interface {
	Strategy() Strategy
	Discover(ctx context.Context, req DiscoverRequest) Discovery
}

// --- scrape ---

// ScrapeDiscoverer reads caption tracks from watch page markup.
type ScrapeDiscoverer struct {
	transport Transport // used only when no markup is supplied; may be nil
}

func NewScrapeDiscoverer(t Transport) *ScrapeDiscoverer {
	return &ScrapeDiscoverer{transport: t}
}

func (d *ScrapeDiscoverer) Strategy() Strategy { return StrategyScrape }

func (d *ScrapeDiscoverer) Discover(ctx context.Context, req DiscoverRequest) Discovery {
	engine.IncrScrapeDiscoveries()
	markup := req.PageMarkup
	if markup == "" {
		if d.transport == nil || req.VideoID == "" {
			return Discovery{Reason: "no page markup"}
		}
		resp, err := d.transport.Do(ctx, &Request{
			Method:      http.MethodGet,
			URL:         ytWatchURL + url.QueryEscape(req.VideoID),
			Header:      watchPageHeaders(),
			Credentials: CredentialsInclude,
		})
		if err != nil {
			return Discovery{Reason: "watch page: " + err.Error()}
		}
		if !resp.OK() {
			return Discovery{Reason: fmt.Sprintf("watch page: status %d", resp.StatusCode)}
		}
		markup = string(resp.Body)
	}
	return tracksFromMarkup(markup)
}

var playerResponseRE = regexp.MustCompile(`(?:var\s+)?ytInitialPlayerResponse\s*=\s*`)

// tracksFromMarkup locates and decodes the embedded player response.
func tracksFromMarkup(markup string) Discovery {
	data := findPlayerResponse(markup)
	if data == nil {
		return Discovery{Reason: "ytInitialPlayerResponse not found"}
	}
	var player innertubePlayerResp
	if err := json.Unmarshal(data, &player); err != nil {
		return Discovery{Reason: "malformed ytInitialPlayerResponse: " + err.Error()}
	}
	return discoveryFrom(&player, OriginScrape, "ytInitialPlayerResponse")
}

// findPlayerResponse looks in <script> bodies first and falls back to the raw
// markup, which covers bare JSON blobs and fragments goquery can't place.
func findPlayerResponse(markup string) []byte {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup)); err == nil {
		var found []byte
		doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = playerResponseJSON(s.Text())
			return found == nil
		})
		if found != nil {
			return found
		}
	}
	return playerResponseJSON(markup)
}

func playerResponseJSON(s string) []byte {
	for _, loc := range playerResponseRE.FindAllStringIndex(s, -1) {
		if data := extractJSON([]byte(s[loc[1]:])); data != nil {
			return data
		}
	}
	return nil
}

// --- api ---

// APIDiscoverer queries the Innertube /player endpoint as the ANDROID client.
type APIDiscoverer struct {
	transport Transport
	endpoint  string
}

func NewAPIDiscoverer(t Transport) *APIDiscoverer {
	return &APIDiscoverer{transport: t, endpoint: ytInnertubeURL}
}

func (d *APIDiscoverer) Strategy() Strategy { return StrategyAPI }

func (d *APIDiscoverer) Discover(ctx context.Context, req DiscoverRequest) Discovery {
	engine.IncrAPIDiscoveries()
	if req.AccessKey == "" {
		return Discovery{Reason: "no access key"}
	}
	body, err := json.Marshal(newAndroidPlayerReq(req.VideoID))
	if err != nil {
		return Discovery{Reason: "encode player request: " + err.Error()}
	}
	resp, err := d.transport.Do(ctx, &Request{
		Method:      http.MethodPost,
		URL:         d.endpoint + "?key=" + url.QueryEscape(req.AccessKey) + "&prettyPrint=false",
		Header:      androidHeaders(),
		Body:        body,
		Credentials: CredentialsInclude,
	})
	if err != nil {
		return Discovery{Reason: "android player: " + err.Error()}
	}
	if !resp.OK() {
		return Discovery{Reason: fmt.Sprintf("android player: status %d", resp.StatusCode)}
	}
	var player innertubePlayerResp
	if err := json.Unmarshal(resp.Body, &player); err != nil {
		return Discovery{Reason: "decode player: " + err.Error()}
	}
	return discoveryFrom(&player, OriginAPI, "player response")
}

func discoveryFrom(player *innertubePlayerResp, origin TrackOrigin, source string) Discovery {
	tracks := tracksFrom(player.captionTracks(), origin)
	if len(tracks) > 0 {
		return Discovery{Tracks: tracks}
	}
	if reason := player.playabilityReason(); reason != "" {
		return Discovery{Reason: "captions unavailable: " + reason}
	}
	return Discovery{Reason: "no captions in " + source}
}
