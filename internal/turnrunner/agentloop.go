package turnrunner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noble-ngs/tutor-runtime/internal/agents"
	"github.com/noble-ngs/tutor-runtime/internal/llmprovider"
	"github.com/noble-ngs/tutor-runtime/internal/tutorerr"
	"github.com/noble-ngs/tutor-runtime/pkg/tutor"
)

// toolLoopCap is T in spec §4.7: the maximum number of tool-call round
// trips the runner permits an agent within one turn.
const toolLoopCap = 4

type loopResult struct {
	text     string
	question *tutor.Question
}

// runAgent drives one agent's tool-calling loop (spec §4.5 "Tool-calling
// contract"): the agent emits either final text or a tool call; the
// runner executes the tool and re-invokes the agent with the result
// appended, capped at toolLoopCap round trips. onToken, if non-nil, is
// called with each streamed text fragment as it arrives.
func (r *Runner) runAgent(ctx context.Context, cfg tutor.AgentConfig, summary string, history []tutor.Message, userText string, onToken func(string)) (loopResult, error) {
	system := cfg.SystemPrompt
	if summary != "" {
		system += "\n\nPrior conversation summary: " + summary
	}

	messages := toCompletionMessages(history)
	messages = append(messages, llmprovider.CompletionMessage{Role: "user", Content: userText})

	var tools []llmprovider.ToolSpec
	if r.provider.SupportsTools() {
		tools = agents.ToolSpecsFor(cfg.AllowedTools)
	}

	var lastText string
	var question *tutor.Question

	for i := 0; i < toolLoopCap; i++ {
		req := &llmprovider.CompletionRequest{
			System:      system,
			Messages:    messages,
			Tools:       tools,
			MaxTokens:   cfg.TokenBudget,
			Temperature: cfg.Temperature,
		}
		chunks, err := r.provider.Complete(ctx, req)
		if err != nil {
			return loopResult{}, tutorerr.Wrap(tutorerr.KindProviderUnavailable, "agent LLM call failed", err)
		}

		text, toolCall, err := collectWithTokens(ctx, chunks, onToken)
		if err != nil {
			return loopResult{}, tutorerr.Wrap(tutorerr.KindProviderUnavailable, "agent LLM call failed", err)
		}
		lastText = text

		if toolCall == nil {
			return loopResult{text: text, question: question}, nil
		}

		rawArgs, marshalErr := json.Marshal(toolCall.Arguments)
		if marshalErr != nil {
			return loopResult{}, fmt.Errorf("turnrunner: marshal tool arguments: %w", marshalErr)
		}

		result, dispatchErr := r.tools.Dispatch(ctx, toolCall.Name, rawArgs)

		var resultContent string
		isError := dispatchErr != nil
		switch {
		case isError:
			resultContent = dispatchErr.Error()
		default:
			if q, ok := result.(*tutor.Question); ok {
				question = q
			}
			payload, encodeErr := json.Marshal(result)
			if encodeErr != nil {
				resultContent = fmt.Sprintf("%v", result)
			} else {
				resultContent = string(payload)
			}
		}

		messages = append(messages,
			llmprovider.CompletionMessage{Role: "assistant", Content: text, ToolCalls: []llmprovider.ToolCall{*toolCall}},
			llmprovider.CompletionMessage{Role: "tool", ToolResults: []llmprovider.ToolResult{{
				ToolCallID: toolCall.ID,
				Content:    resultContent,
				IsError:    isError,
			}}},
		)
	}

	return loopResult{text: lastText, question: question},
		tutorerr.Wrap(tutorerr.KindToolLoopExceeded, "exceeded tool-call loop limit", tutorerr.ErrToolLoopExceeded)
}

func toCompletionMessages(history []tutor.Message) []llmprovider.CompletionMessage {
	out := make([]llmprovider.CompletionMessage, 0, len(history))
	for _, m := range history {
		out = append(out, llmprovider.CompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// collectWithTokens drains a completion stream like llmprovider.Collect,
// additionally forwarding each text fragment to onToken as it arrives.
func collectWithTokens(ctx context.Context, chunks <-chan *llmprovider.CompletionChunk, onToken func(string)) (string, *llmprovider.ToolCall, error) {
	var text string
	var toolCall *llmprovider.ToolCall
	for {
		select {
		case <-ctx.Done():
			return text, toolCall, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return text, toolCall, nil
			}
			if chunk.Error != nil {
				return text, toolCall, chunk.Error
			}
			if chunk.ToolCall != nil {
				toolCall = chunk.ToolCall
			}
			if chunk.Text != "" {
				text += chunk.Text
				if onToken != nil {
					onToken(chunk.Text)
				}
			}
			if chunk.Done {
				return text, toolCall, nil
			}
		}
	}
}
