package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	TranscriptRequests  atomic.Int64
	TranscriptSuccesses atomic.Int64
	TranscriptFailures  atomic.Int64
	ScrapeDiscoveries   atomic.Int64
	APIDiscoveries      atomic.Int64
	FetchAttempts       atomic.Int64
	FetchErrors         atomic.Int64
	LLMCalls            atomic.Int64
	LLMErrors           atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"transcript_requests":  metrics.TranscriptRequests.Load(),
		"transcript_successes": metrics.TranscriptSuccesses.Load(),
		"transcript_failures":  metrics.TranscriptFailures.Load(),
		"scrape_discoveries":   metrics.ScrapeDiscoveries.Load(),
		"api_discoveries":      metrics.APIDiscoveries.Load(),
		"fetch_attempts":       metrics.FetchAttempts.Load(),
		"fetch_errors":         metrics.FetchErrors.Load(),
		"llm_calls":            metrics.LLMCalls.Load(),
		"llm_errors":           metrics.LLMErrors.Load(),
		"cache_hits":           hits,
		"cache_misses":         misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"transcript_requests", "transcript_successes", "transcript_failures",
		"scrape_discoveries", "api_discoveries",
		"fetch_attempts", "fetch_errors",
		"llm_calls", "llm_errors",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ sub-package.
func IncrTranscriptRequests()  { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptSuccesses() { metrics.TranscriptSuccesses.Add(1) }
func IncrTranscriptFailures()  { metrics.TranscriptFailures.Add(1) }
func IncrScrapeDiscoveries()   { metrics.ScrapeDiscoveries.Add(1) }
func IncrAPIDiscoveries()      { metrics.APIDiscoveries.Add(1) }
func IncrFetchAttempts()       { metrics.FetchAttempts.Add(1) }
func IncrFetchErrors()         { metrics.FetchErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
