package engine

// --- Tool inputs ---

type TranscriptInput struct {
	URL        string `json:"url,omitempty" jsonschema:"YouTube video URL (watch, youtu.be, shorts, embed, live)"`
	VideoID    string `json:"video_id,omitempty" jsonschema:"11-character YouTube video id; used when url is empty"`
	AccessKey  string `json:"access_key,omitempty" jsonschema:"Innertube API key for the player API fallback (default: server key)"`
	PageMarkup string `json:"page_markup,omitempty" jsonschema:"Serialized watch page HTML, if already loaded; fetched when empty"`
	Refresh    bool   `json:"refresh,omitempty" jsonschema:"Bypass the result cache"`
}

type SummarizeInput struct {
	URL             string `json:"url,omitempty" jsonschema:"YouTube video URL"`
	VideoID         string `json:"video_id,omitempty" jsonschema:"11-character YouTube video id; used when url is empty"`
	AccessKey       string `json:"access_key,omitempty" jsonschema:"Innertube API key for the player API fallback (default: server key)"`
	LengthMode      string `json:"length_mode,omitempty" jsonschema:"Summary length: normal (default) or extra_short"`
	IncludeCore     *bool  `json:"include_core,omitempty" jsonschema:"Lead with 3-5 key-message bullets (default: true)"`
	IncludeSections *bool  `json:"include_sections,omitempty" jsonschema:"Add a per-section summary with timestamps (default: true)"`
}

// Options resolves the summary options, defaulting unset flags to true.
func (in SummarizeInput) Options() SummaryOptions {
	opts := DefaultSummaryOptions()
	if in.IncludeCore != nil {
		opts.IncludeCore = *in.IncludeCore
	}
	if in.IncludeSections != nil {
		opts.IncludeSections = *in.IncludeSections
	}
	if in.LengthMode == LengthExtraShort {
		opts.LengthMode = LengthExtraShort
	}
	return opts
}

// --- Output types (JSON responses) ---

type TranscriptOutput struct {
	VideoID    string   `json:"video_id"`
	Language   string   `json:"language"`
	Kind       string   `json:"kind"`   // manual | asr
	Origin     string   `json:"origin"` // scrape | api
	Lines      []string `json:"lines"`  // "[m:ss] text"
	Transcript string   `json:"transcript"`
	Cached     bool     `json:"cached,omitempty"`
}

type SummarizeOutput struct {
	VideoID   string `json:"video_id"`
	Language  string `json:"language"`
	Summary   string `json:"summary"`
	Truncated bool   `json:"truncated,omitempty"`
}
