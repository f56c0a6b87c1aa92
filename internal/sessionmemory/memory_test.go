package sessionmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

type stubSummarizer struct {
	summary string
	err     error
	calls   int
}

func (s *stubSummarizer) Summarize(ctx context.Context, previousSummary string, messages []tutor.Message, maxTokens int) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.summary, nil
}

func msg(content string) tutor.Message {
	return tutor.Message{Role: tutor.RoleUser, Content: content, Timestamp: time.Now()}
}

func TestStoreLoadEmptySession(t *testing.T) {
	store := New(nil, nil, nil)
	messages, summary := store.Load("unknown")
	require.Empty(t, messages)
	require.Empty(t, summary)
}

func TestStoreAppendUnderLimitKeepsEverythingVerbatim(t *testing.T) {
	store := New(nil, nil, nil)
	for i := 0; i < 10; i++ {
		store.Append(context.Background(), "s1", msg("hello"))
	}
	messages, summary := store.Load("s1")
	require.Len(t, messages, 10)
	require.Empty(t, summary)
}

func TestStoreAppendOverLimitSummarizesSurplus(t *testing.T) {
	summarizer := &stubSummarizer{summary: "student practiced linear equations"}
	store := New(summarizer, nil, nil)

	for i := 0; i < MaxMessages+5; i++ {
		store.Append(context.Background(), "s1", msg("message"))
	}

	// The append that pushes the deque past MaxMessages trims it to
	// KeepVerbatim; the four appends after it are kept on top.
	messages, summary := store.Load("s1")
	require.Len(t, messages, KeepVerbatim+4)
	require.Equal(t, "student practiced linear equations", summary)
	require.Equal(t, 1, summarizer.calls)
}

func TestStoreAppendSummarizationFailureDropsWithoutUpdatingSummary(t *testing.T) {
	summarizer := &stubSummarizer{err: errors.New("provider down")}
	store := New(summarizer, nil, nil)

	for i := 0; i < MaxMessages+5; i++ {
		store.Append(context.Background(), "s1", msg("message"))
	}

	messages, summary := store.Load("s1")
	require.Len(t, messages, KeepVerbatim+4)
	require.Empty(t, summary)
}

func TestStoreEvictIdleRemovesOldSessions(t *testing.T) {
	store := New(nil, nil, nil)
	store.Append(context.Background(), "s1", msg("hello"))

	evicted := store.EvictIdle(time.Now().Add(48 * time.Hour))
	require.Equal(t, 1, evicted)

	messages, _ := store.Load("s1")
	require.Empty(t, messages)
}

type recordingSink struct {
	sessionID string
	messages  []tutor.Message
}

func (r *recordingSink) Append(ctx context.Context, sessionID string, message tutor.Message) {
	r.sessionID = sessionID
	r.messages = append(r.messages, message)
}

func TestStoreAppendForwardsToSink(t *testing.T) {
	sink := &recordingSink{}
	store := New(nil, sink, nil)
	store.Append(context.Background(), "s1", msg("hi"))

	require.Equal(t, "s1", sink.sessionID)
	require.Len(t, sink.messages, 1)
}
