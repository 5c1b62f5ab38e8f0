package engine

import (
	"fmt"
	"strings"
)

// Summary length modes.
const (
	LengthNormal     = "normal"
	LengthExtraShort = "extra_short"
)

// SummaryOptions shapes the summary prompt.
type SummaryOptions struct {
	IncludeCore     bool   // lead with 3-5 key-message bullets
	IncludeSections bool   // follow with a per-section summary with timestamps
	LengthMode      string // LengthNormal or LengthExtraShort
}

// DefaultSummaryOptions is core bullets plus sections at normal length.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{IncludeCore: true, IncludeSections: true, LengthMode: LengthNormal}
}

var summaryGuidelines = []string{
	"1. Return the summary and only the summary, without any additional text.",
	"2. Merge repeated points and ideas into one point.",
	"3. Make the text easy to read - spacious, no long blocks of text. Use indentation with titles and subtitles for easy context.",
	"4. Remove any promotional or self-promotional content.",
	"5. Use markdown to format the text.",
}

const (
	guidelineExtraShort = "6. Write just one sentence per important key message."
	guidelineNormal     = "6. Keep it short (not more than 500 words, 300 words is preferred) and to the point but don't miss any important insights and messages the speaker is trying to convey."

	structureCore     = "Start with a short paragraph summarizing the key messages in the video in 3-5 bullets."
	structureSections = "Then provide a summary of key messages by section, providing timestamps for each section."
	structurePlain    = "Provide a concise summary of the video."
)

// summaryPrompt args: guidelines, structure, transcript.
const summaryPrompt = `You are a professional assistant that specializes in summarizing YouTube videos for busy business professionals that don't have time to watch them.

A transcript will be provided below. Each line starts with an [m:ss] timestamp.

Provide a summary following these guidelines:
%s

%s

Here is the transcript of the video:

"%s"`

// BuildSummaryPrompt renders the summary prompt for transcript.
func BuildSummaryPrompt(transcript string, opts SummaryOptions) string {
	guidelines := append([]string(nil), summaryGuidelines...)
	if opts.LengthMode == LengthExtraShort {
		guidelines = append(guidelines, guidelineExtraShort)
	} else {
		guidelines = append(guidelines, guidelineNormal)
	}

	var structure []string
	if opts.IncludeCore {
		structure = append(structure, structureCore)
	}
	if opts.IncludeSections {
		structure = append(structure, structureSections)
	}
	if len(structure) == 0 {
		structure = append(structure, structurePlain)
	}

	return fmt.Sprintf(summaryPrompt,
		strings.Join(guidelines, "\n"),
		strings.Join(structure, "\n"),
		transcript)
}
