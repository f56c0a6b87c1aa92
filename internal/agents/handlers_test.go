package agents

import (
	"testing"

	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

func stateWithMessage(text string) *tutor.TurnState {
	return &tutor.TurnState{UserMessage: tutor.Message{Role: tutor.RoleUser, Content: text}}
}

func TestFixedHandlerGreetingNeverTerminal(t *testing.T) {
	reply, handled := FixedHandler(stateWithMessage("good morning"), "")
	if !handled {
		t.Fatal("expected greeting to be handled")
	}
	if reply.Terminal {
		t.Fatal("greeting must never close the session")
	}
}

func TestFixedHandlerIdentityQuestion(t *testing.T) {
	reply, handled := FixedHandler(stateWithMessage("who are you?"), "")
	if !handled {
		t.Fatal("expected identity question to be handled")
	}
	if reply.Text == "" {
		t.Fatal("expected a fixed introduction")
	}
}

func TestFixedHandlerClosureIsTerminal(t *testing.T) {
	reply, handled := FixedHandler(stateWithMessage("bye"), "")
	if !handled || !reply.Terminal {
		t.Fatal("expected exact 'bye' to close the session")
	}

	reply, handled = FixedHandler(stateWithMessage("that's all for today, goodbye"), "")
	if !handled || !reply.Terminal {
		t.Fatal("expected closure phrase to close the session")
	}
}

func TestFixedHandlerFollowUpExampleUsesLastConcept(t *testing.T) {
	reply, handled := FixedHandler(stateWithMessage("can you give an example"), "linear_equations")
	if !handled {
		t.Fatal("expected follow-up example to be handled")
	}
	if reply.Text == "" {
		t.Fatal("expected a worked example")
	}
}

func TestFixedHandlerFollowUpExampleWithoutPriorConceptFallsThrough(t *testing.T) {
	_, handled := FixedHandler(stateWithMessage("can you give an example"), "")
	if handled {
		t.Fatal("expected no fixed handler without a prior taught concept")
	}
}

func TestFixedHandlerUnmatchedMessageFallsThrough(t *testing.T) {
	_, handled := FixedHandler(stateWithMessage("explain quadratic equations to me"), "")
	if handled {
		t.Fatal("expected non-fixed message to fall through to the agent")
	}
}
