package sessionmemory

import (
	"context"
	"fmt"
	"strings"

	"github.com/noble-ngs/tutor-runtime/internal/llmprovider"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// LLMSummarizer summarizes surplus history with a single completion call,
// following the teacher's internal/compaction single-chunk summarize path.
type LLMSummarizer struct {
	Provider llmprovider.Provider
}

func (s *LLMSummarizer) Summarize(ctx context.Context, previousSummary string, messages []tutor.Message, maxTokens int) (string, error) {
	if s.Provider == nil {
		return "", fmt.Errorf("sessionmemory: no provider configured for summarization")
	}

	var sb strings.Builder
	if previousSummary != "" {
		sb.WriteString("Previous summary:\n")
		sb.WriteString(previousSummary)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Conversation to fold into the summary:\n")
	for _, m := range messages {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", m.Role, m.Content))
	}

	req := &llmprovider.CompletionRequest{
		System: "Summarize this tutoring conversation concisely, preserving which " +
			"concepts were taught, the student's demonstrated strengths and " +
			"weaknesses, and any open threads. Merge with the previous summary " +
			"if one is given. Output prose only, no preamble.",
		Messages:  []llmprovider.CompletionMessage{{Role: "user", Content: sb.String()}},
		MaxTokens: maxTokens,
	}
	chunks, err := s.Provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	text, _, err := llmprovider.Collect(ctx, chunks)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
