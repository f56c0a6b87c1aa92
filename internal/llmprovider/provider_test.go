package llmprovider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectConcatenatesTextAndCapturesToolCall(t *testing.T) {
	chunks := make(chan *CompletionChunk, 3)
	chunks <- &CompletionChunk{Text: "hello "}
	chunks <- &CompletionChunk{Text: "world", ToolCall: &ToolCall{Name: "lookup"}}
	chunks <- &CompletionChunk{Done: true}
	close(chunks)

	text, tc, err := Collect(context.Background(), chunks)
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
	require.NotNil(t, tc)
	require.Equal(t, "lookup", tc.Name)
}

func TestCollectPropagatesError(t *testing.T) {
	chunks := make(chan *CompletionChunk, 1)
	chunks <- &CompletionChunk{Error: context.DeadlineExceeded}
	close(chunks)

	_, _, err := Collect(context.Background(), chunks)
	require.Error(t, err)
}

func TestStubProviderReturnsKeyedReply(t *testing.T) {
	stub := &StubProvider{
		Replies: map[string]string{"hello": "hi there"},
		Default: "I don't understand",
	}
	chunks, err := stub.Complete(context.Background(), &CompletionRequest{
		Messages: []CompletionMessage{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	text, _, err := Collect(context.Background(), chunks)
	require.NoError(t, err)
	require.Equal(t, "hi there", text)
}
