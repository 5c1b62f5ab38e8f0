package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMAPIKey            string
	LLMAPIKeyFallbacks   []string
	LLMAPIBase           string
	LLMModel             string
	LLMTemperature       float64
	LLMMaxTokens         int
	MaxTranscriptChars   int           // transcript cap before summarization
	InnertubeKey         string        // default access key for the /player fallback
	SessionCookies       string        // raw Cookie header sent in credentials=include mode
	RateLimit            float64       // outbound YouTube requests per second; 0 = unlimited
	RateBurst            int
	UseBrowserTransport  bool          // route YouTube traffic through BrowserClient
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
	BrowserClient        *BrowserClient // nil = plain net/http transport only
	LLMClient            *llm.Client    // nil = summarization disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, transcriptserver).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
