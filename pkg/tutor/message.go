// Package tutor defines the shared data model for the tutoring agent
// runtime: messages, per-turn state, routing decisions, and questions.
package tutor

import "time"

// Role indicates the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is an immutable conversational turn fragment. Once appended to a
// session's history it is never mutated.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// UserProfile carries caller-supplied personalization for a turn.
type UserProfile struct {
	LanguagePreference string `json:"language_preference,omitempty"`
	Channel            string `json:"channel,omitempty"`
	ForceAgent         string `json:"force_agent,omitempty"`
}

// TurnState is assembled fresh for every request and never persisted whole;
// only its Messages are folded into session memory once the turn completes.
type TurnState struct {
	SessionID   string
	History     []Message
	UserMessage Message
	Profile     *UserProfile

	// Scratch is working metadata agents and tools may read and write
	// during a single turn (e.g. resolved concept, hint stage).
	Scratch map[string]any

	// Response accumulates the fields the agent fills in as it runs.
	Response map[string]any
}

// LastMessage returns the user message, which is always the last entry
// in the full message sequence (history + current) when an agent runs.
func (t *TurnState) LastMessage() Message {
	return t.UserMessage
}

// FullHistory returns the prior history with the current user message
// appended, preserving the invariant that the user message is last.
func (t *TurnState) FullHistory() []Message {
	out := make([]Message, 0, len(t.History)+1)
	out = append(out, t.History...)
	out = append(out, t.UserMessage)
	return out
}
