// Package sessionmemory implements the process-wide SessionMemory map
// (spec §4.8): a bounded, per-session message deque with idle eviction
// and best-effort summarization of surplus history, adapted from the
// teacher's internal/sessions memory store and internal/compaction
// summarizer.
package sessionmemory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// MaxMessages is M: the deque length that triggers summarization.
const MaxMessages = 40

// KeepVerbatim is the number of most recent messages retained in full
// once the deque exceeds MaxMessages (Open Question #1 decision).
const KeepVerbatim = 20

// charsPerToken is the character-to-token estimation ratio used to log
// the estimated size of summarized surplus history, following the
// teacher's internal/compaction heuristic.
const charsPerToken = 4

// maxSummaryTokens bounds the summarization call's output.
const maxSummaryTokens = 400

// idleTimeout is the default period after which an untouched session is
// evicted lazily.
const idleTimeout = 24 * time.Hour

// Summarizer produces a new summary for the oldest surplus of a
// session's history, optionally building on a previous summary.
type Summarizer interface {
	Summarize(ctx context.Context, previousSummary string, messages []tutor.Message, maxTokens int) (string, error)
}

// Sink optionally receives every appended message for durable
// persistence; it is never required for correctness.
type Sink interface {
	Append(ctx context.Context, sessionID string, message tutor.Message)
}

type entry struct {
	mu         sync.Mutex
	messages   []tutor.Message
	summary    string
	lastAccess time.Time
}

// Store is the process-wide SessionMemory map. Safe for concurrent use
// across sessions; operations against the same session id serialize on
// that session's own lock.
type Store struct {
	mu          sync.RWMutex
	entries     map[string]*entry
	summarizer  Summarizer
	sink        Sink
	idleTimeout time.Duration
	logger      *slog.Logger
}

func New(summarizer Summarizer, sink Sink, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entries:     make(map[string]*entry),
		summarizer:  summarizer,
		sink:        sink,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// SetIdleTimeout overrides the default 24h idle eviction window, e.g.
// from loaded configuration.
func (s *Store) SetIdleTimeout(d time.Duration) {
	if d > 0 {
		s.idleTimeout = d
	}
}

func (s *Store) entryFor(sessionID string) *entry {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[sessionID]; ok {
		return e
	}
	e = &entry{lastAccess: time.Now()}
	s.entries[sessionID] = e
	return e
}

// Load returns a copy of the session's message history and summary.
func (s *Store) Load(sessionID string) (messages []tutor.Message, summary string) {
	e := s.entryFor(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastAccess = time.Now()

	out := make([]tutor.Message, len(e.messages))
	copy(out, e.messages)
	return out, e.summary
}

// Append adds the user and assistant messages from a completed turn to
// the session's deque, then summarizes and drops surplus history beyond
// MaxMessages (spec §4.7 step 5). Summarization is best-effort: on
// failure the oldest entries are dropped with no summary update.
func (s *Store) Append(ctx context.Context, sessionID string, newMessages ...tutor.Message) {
	e := s.entryFor(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastAccess = time.Now()

	e.messages = append(e.messages, newMessages...)
	for _, m := range newMessages {
		if s.sink != nil {
			s.sink.Append(ctx, sessionID, m)
		}
	}

	if len(e.messages) <= MaxMessages {
		return
	}

	surplusCount := len(e.messages) - KeepVerbatim
	surplus := e.messages[:surplusCount]
	kept := e.messages[surplusCount:]

	if s.summarizer == nil {
		e.messages = kept
		return
	}

	summary, err := s.summarizer.Summarize(ctx, e.summary, surplus, maxSummaryTokens)
	if err != nil {
		s.logger.Warn("sessionmemory: summarization failed, dropping surplus without update",
			"session_id", sessionID, "dropped", len(surplus), "error", err)
		e.messages = kept
		return
	}

	s.logger.Info("sessionmemory: summarized surplus history",
		"session_id", sessionID, "dropped", len(surplus), "estimated_tokens", estimateTokens(surplus))
	e.summary = summary
	e.messages = kept
}

// EvictIdle removes sessions untouched for longer than the store's idle
// timeout. Intended to be called periodically by a background sweeper.
func (s *Store) EvictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.entries {
		e.mu.Lock()
		idle := now.Sub(e.lastAccess)
		e.mu.Unlock()
		if idle > s.idleTimeout {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}

// estimateTokens approximates token count via the teacher's
// characters-per-token heuristic.
func estimateTokens(messages []tutor.Message) int {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	return (chars + charsPerToken - 1) / charsPerToken
}
