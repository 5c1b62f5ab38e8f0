package transcriptserver

import (
	"context"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools registers youtube_transcript and youtube_summarize on server.
func RegisterTools(server *mcp.Server, svc *Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_transcript",
		Description: "Fetch the transcript of a YouTube video. Prefers manual English captions, then auto-generated English, then any other language. Returns timestamped lines ([m:ss] text), the concatenated transcript, and which track was used. On failure the error lists every attempt that was made.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, svc.transcriptTool)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "youtube_summarize",
		Description: "Summarize a YouTube video from its transcript. Returns a markdown summary with key-message bullets and a per-section breakdown with timestamps. length_mode=extra_short gives one sentence per key message.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, svc.summarizeTool)
}

func (s *Service) transcriptTool(ctx context.Context, _ *mcp.CallToolRequest, input engine.TranscriptInput) (*mcp.CallToolResult, engine.TranscriptOutput, error) {
	out, err := s.Transcript(ctx, input)
	if err != nil {
		return nil, engine.TranscriptOutput{}, err
	}
	return nil, out, nil
}

func (s *Service) summarizeTool(ctx context.Context, _ *mcp.CallToolRequest, input engine.SummarizeInput) (*mcp.CallToolResult, engine.SummarizeOutput, error) {
	out, err := s.Summarize(ctx, input)
	if err != nil {
		return nil, engine.SummarizeOutput{}, err
	}
	return nil, out, nil
}
