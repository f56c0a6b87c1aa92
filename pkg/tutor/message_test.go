package tutor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTurnStateFullHistoryOrdersUserMessageLast(t *testing.T) {
	turn := &TurnState{
		SessionID: "s1",
		History: []Message{
			{Role: RoleUser, Content: "hi", Timestamp: time.Now()},
			{Role: RoleAssistant, Content: "hello", Timestamp: time.Now()},
		},
		UserMessage: Message{Role: RoleUser, Content: "what's next", Timestamp: time.Now()},
	}

	full := turn.FullHistory()
	require.Len(t, full, 3)
	require.Equal(t, "what's next", full[len(full)-1].Content)
	require.Equal(t, turn.UserMessage, turn.LastMessage())
}
