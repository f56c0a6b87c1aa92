package llmprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider is the Claude-backed Provider.
type AnthropicProvider struct {
	client       anthropic.Client
	defaultModel string
}

// AnthropicConfig configures an AnthropicProvider. Only APIKey is
// required; everything else has a sensible default.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llmprovider: anthropic API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:       anthropic.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
	}, nil
}

func (p *AnthropicProvider) Name() string        { return "anthropic" }
func (p *AnthropicProvider) SupportsTools() bool { return true }

func (p *AnthropicProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages, err := toAnthropicMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("llmprovider: anthropic: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokensOrDefault(req.MaxTokens)),
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := toAnthropicTools(req.Tools)
		if err != nil {
			return nil, fmt.Errorf("llmprovider: anthropic: %w", err)
		}
		params.Tools = tools
	}

	chunks := make(chan *CompletionChunk)
	stream := p.client.Messages.NewStreaming(ctx, params)

	go func() {
		defer close(chunks)

		var toolCall *ToolCall
		var toolInput strings.Builder

		for stream.Next() {
			event := stream.Current()

			switch event.Type {
			case "content_block_start":
				block := event.AsContentBlockStart().ContentBlock
				if block.Type == "tool_use" {
					tu := block.AsToolUse()
					toolCall = &ToolCall{ID: tu.ID, Name: tu.Name}
					toolInput.Reset()
				}
			case "content_block_delta":
				delta := event.AsContentBlockDelta().Delta
				switch delta.Type {
				case "text_delta":
					if delta.Text != "" {
						chunks <- &CompletionChunk{Text: delta.Text}
					}
				case "input_json_delta":
					toolInput.WriteString(delta.PartialJSON)
				}
			case "content_block_stop":
				if toolCall != nil {
					args, err := parseToolArguments(toolInput.String())
					if err != nil {
						chunks <- &CompletionChunk{Error: fmt.Errorf("llmprovider: anthropic: malformed tool arguments: %w", err)}
						return
					}
					toolCall.Arguments = args
					chunks <- &CompletionChunk{ToolCall: toolCall}
					toolCall = nil
				}
			case "message_delta":
				usage := event.AsMessageDelta().Usage
				if usage.OutputTokens > 0 {
					chunks <- &CompletionChunk{OutputTokens: int(usage.OutputTokens)}
				}
			case "message_stop":
				chunks <- &CompletionChunk{Done: true}
				return
			case "error":
				chunks <- &CompletionChunk{Error: fmt.Errorf("llmprovider: anthropic: stream error")}
				return
			}
		}
		if err := stream.Err(); err != nil {
			chunks <- &CompletionChunk{Error: fmt.Errorf("llmprovider: anthropic: %w", err)}
		}
	}()

	return chunks, nil
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return 1024
	}
	return n
}

func toAnthropicMessages(messages []CompletionMessage) ([]anthropic.MessageParam, error) {
	var out []anthropic.MessageParam
	for _, msg := range messages {
		if msg.Role == "system" {
			continue
		}

		var content []anthropic.ContentBlockParamUnion
		if msg.Content != "" {
			content = append(content, anthropic.NewTextBlock(msg.Content))
		}
		for _, tr := range msg.ToolResults {
			content = append(content, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
		}
		for _, tc := range msg.ToolCalls {
			content = append(content, anthropic.NewToolUseBlock(tc.ID, tc.Arguments, tc.Name))
		}

		if msg.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(content...))
		} else {
			out = append(out, anthropic.NewUserMessage(content...))
		}
	}
	return out, nil
}

func toAnthropicTools(tools []ToolSpec) ([]anthropic.ToolUnionParam, error) {
	var out []anthropic.ToolUnionParam
	for _, t := range tools {
		raw, err := json.Marshal(t.Schema)
		if err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", t.Name, err)
		}
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", t.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, t.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", t.Name)
		}
		param.OfTool.Description = anthropic.String(t.Description)
		out = append(out, param)
	}
	return out, nil
}

func parseToolArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	return args, nil
}
