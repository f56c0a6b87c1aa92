package llmprovider

import "context"

// StubProvider is a deterministic in-memory Provider for tests: it
// returns canned replies keyed by the last user message's content, or
// Default if no key matches. It never makes a network call.
type StubProvider struct {
	Replies map[string]string
	Default string
}

func (s *StubProvider) Name() string        { return "stub" }
func (s *StubProvider) SupportsTools() bool { return false }

func (s *StubProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	text := s.Default
	if len(req.Messages) > 0 {
		last := req.Messages[len(req.Messages)-1].Content
		if reply, ok := s.Replies[last]; ok {
			text = reply
		}
	}

	chunks := make(chan *CompletionChunk, 2)
	chunks <- &CompletionChunk{Text: text}
	chunks <- &CompletionChunk{Done: true}
	close(chunks)
	return chunks, nil
}
