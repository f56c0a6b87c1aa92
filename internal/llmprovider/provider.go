// Package llmprovider defines the streaming LLM backend interface shared
// by every agent, the supervisor's LLM-fallback routing call, and
// GenerativeEngine's question-authoring calls. Concrete backends
// (Anthropic, OpenAI) live in this package as separate files; a stub
// backend used by tests lives in stub.go.
package llmprovider

import "context"

// Provider is the LLM backend abstraction. Implementations must be safe
// for concurrent use: the turn runner, supervisor, and generative engine
// may all call Complete concurrently across different sessions.
type Provider interface {
	// Complete sends a prompt and streams the response back chunk by
	// chunk. The returned channel is closed once the stream ends,
	// successfully or not; a terminal chunk always carries either
	// Done=true or a non-nil Error.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name identifies the backend for logging and routing.
	Name() string

	// SupportsTools reports whether the backend can honor Tools in a
	// CompletionRequest.
	SupportsTools() bool
}

// CompletionRequest is a single completion call.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []CompletionMessage
	Tools       []ToolSpec
	MaxTokens   int
	Temperature float64
}

// CompletionMessage is one turn of conversation history sent to the
// provider, including any tool-call/tool-result round trip.
type CompletionMessage struct {
	Role        string
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolSpec describes one tool an agent may invoke, in the shape every
// provider's function-calling API expects.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolCall is a model-issued request to invoke a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult is the runner's answer to a ToolCall, fed back to the model
// on the next Complete call.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// CompletionChunk is one piece of a streamed response. Exactly one of
// Text, Done, or Error is meaningful per chunk; Done and Error chunks
// are always last.
type CompletionChunk struct {
	Text         string
	ToolCall     *ToolCall
	Done         bool
	Error        error
	InputTokens  int
	OutputTokens int
}

// Collect drains a completion stream into a single reply, concatenating
// text chunks and gathering any tool call. It is a convenience for
// callers (fixed handlers, tests) that don't need incremental streaming.
func Collect(ctx context.Context, chunks <-chan *CompletionChunk) (text string, toolCall *ToolCall, err error) {
	for {
		select {
		case <-ctx.Done():
			return text, toolCall, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return text, toolCall, err
			}
			if chunk.Error != nil {
				return text, toolCall, chunk.Error
			}
			if chunk.ToolCall != nil {
				toolCall = chunk.ToolCall
			}
			text += chunk.Text
			if chunk.Done {
				return text, toolCall, nil
			}
		}
	}
}
