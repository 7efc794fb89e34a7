// Package anthropic implements model.Reasoner on the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/inverlab/finagent/core"
	"github.com/inverlab/finagent/model"
)

// Options configure the Anthropic reasoner (model id, temperature, token
// budget, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Reasoner wraps the Anthropic Messages API behind model.Reasoner.
type Reasoner struct {
	client *anthropic.Client
	opts   Options
}

// NewReasoner creates an Anthropic reasoner using the official client.
func NewReasoner(optFns ...func(o *Options)) *Reasoner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Reasoner{client: &client, opts: opts}
}

// NewReasonerFromClient creates an Anthropic reasoner from an existing client.
func NewReasonerFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Reasoner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Reasoner{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.4,
		MaxTokens:   4096,
	}
}

// Propose implements model.Reasoner. Streaming requests fall back to a
// single final response; the transport layer re-chunks for SSE clients.
func (r *Reasoner) Propose(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       r.opts.Model,
			Messages:    buildMessages(req.Contents),
			MaxTokens:   r.opts.MaxTokens,
			Temperature: anthropic.Float(r.opts.Temperature),
		}
		if system := systemBlocks(req); len(system) > 0 {
			params.System = system
		}
		if len(req.Tools) > 0 {
			params.Tools = buildTools(req.Tools)
		}

		resp, err := r.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		var parts []core.Part
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				if text := block.AsText().Text; text != "" {
					parts = append(parts, core.TextPart{Text: text})
				}
			case "tool_use":
				tu := block.AsToolUse()
				args := ""
				if tu.Input != nil {
					if raw, err := json.Marshal(tu.Input); err == nil {
						args = string(raw)
					}
				}
				parts = append(parts, core.ToolCallPart{ToolCall: core.ToolCall{
					ID:        tu.ID,
					Name:      tu.Name,
					Arguments: args,
				}})
			}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}
		out <- model.Response{
			Partial:      false,
			Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
			FinishReason: finishReason,
		}
	}()

	return out, errCh
}

// buildMessages converts normalized contents to the Anthropic message
// format. Tool results become tool_result blocks inside a user message, the
// shape the Messages API expects.
func buildMessages(contents []core.Content) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, c := range contents {
		switch c.Role {
		case core.RoleSystem:
			continue // handled via params.System
		case core.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for _, tr := range c.ToolResults() {
				text := tr.Output
				if tr.Error != "" {
					text = tr.Error
				}
				blocks = append(blocks, anthropic.NewToolResultBlock(tr.ID, text, tr.Error != ""))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewUserMessage(blocks...))
			}
		case core.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if text := c.Text(); text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(text))
			}
			for _, tc := range c.ToolCalls() {
				var input any
				if tc.Arguments != "" {
					_ = json.Unmarshal([]byte(tc.Arguments), &input)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			if text := c.Text(); text != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
			}
		}
	}
	return messages
}

func systemBlocks(req model.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if req.Instructions != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.Instructions})
	}
	for _, c := range req.Contents {
		if c.Role != core.RoleSystem {
			continue
		}
		if text := c.Text(); text != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: text})
		}
	}
	return blocks
}

func buildTools(defs []model.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		schema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if p, ok := d.Parameters["properties"]; ok {
			schema.Properties = p
		}
		switch r := d.Parameters["required"].(type) {
		case []string:
			schema.Required = r
		case []any:
			for _, v := range r {
				if s, ok := v.(string); ok {
					schema.Required = append(schema.Required, s)
				}
			}
		}
		tools = append(tools, anthropic.ToolUnionParamOfTool(schema, d.Name))
	}
	return tools
}

// Info returns metadata describing this Anthropic reasoner.
func (r *Reasoner) Info() model.Info {
	return model.Info{
		Name:          string(r.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
