package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
)

// ErrLLMDisabled is returned when no LLM client is configured.
var ErrLLMDisabled = errors.New("llm: no client configured")

// Summarizer turns a rendered transcript into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, opts SummaryOptions) (string, error)
}

// LLMSummarizer summarizes through the OpenAI-compatible go-kit client.
type LLMSummarizer struct {
	client *llm.Client
}

// NewLLMSummarizer returns a Summarizer backed by client (nil disables it).
func NewLLMSummarizer(client *llm.Client) *LLMSummarizer {
	return &LLMSummarizer{client: client}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, transcript string, opts SummaryOptions) (string, error) {
	if s.client == nil {
		return "", ErrLLMDisabled
	}
	if strings.TrimSpace(transcript) == "" {
		return "", errors.New("llm: empty transcript")
	}
	prompt := BuildSummaryPrompt(transcript, opts)
	raw, err := RetryDo(ctx, LLMRetry, func() (string, error) {
		metrics.LLMCalls.Add(1)
		return s.client.Complete(ctx, "", prompt)
	})
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", fmt.Errorf("llm: summarize: %w", err)
	}
	summary := stripFences(raw)
	if summary == "" {
		metrics.LLMErrors.Add(1)
		return "", errors.New("llm: empty summary")
	}
	return summary, nil
}

var fenceOpenRe = regexp.MustCompile("^```[a-zA-Z]*\\s*")

// stripFences removes a markdown code fence wrapping the whole LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
