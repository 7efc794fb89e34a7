// Package openai implements model.Reasoner on the OpenAI Chat Completions
// API (streaming and tool calling) and model.Embedder on the embeddings
// endpoint. It adapts the normalized Request/Response structures into the
// SDK message format and back.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/inverlab/finagent/core"
	"github.com/inverlab/finagent/model"
)

// aggCall aggregates partial tool call streaming deltas (id, name, args) so
// complete tool call parts can be reconstructed at finish.
type aggCall struct{ id, name, args string }

// Options configure the OpenAI reasoner. Fields mirror a deliberately small
// subset of Chat Completion parameters; extend via functional options.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Reasoner wraps the OpenAI Chat Completions API behind model.Reasoner.
type Reasoner struct {
	client *openai.Client
	opts   Options
}

// NewReasoner creates an OpenAI reasoner using the default client, which
// reads OPENAI_API_KEY from the environment.
func NewReasoner(optFns ...func(o *Options)) *Reasoner {
	client := openai.NewClient()
	return NewReasonerFromClient(&client, optFns...)
}

// NewReasonerFromClient creates an OpenAI reasoner from an existing client.
func NewReasonerFromClient(client *openai.Client, optFns ...func(o *Options)) *Reasoner {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.4,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Reasoner{client: client, opts: opts}
}

// Propose implements unified streaming / non-streaming generation.
func (r *Reasoner) Propose(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		messages := buildMessages(req)
		params := r.buildParams(req, messages)
		if req.Stream {
			r.handleStreaming(ctx, params, out, errCh)
			return
		}
		r.handleNonStreaming(ctx, params, out, errCh)
	}()
	return out, errCh
}

// buildMessages converts normalized contents into OpenAI chat messages.
// Tool results are attached immediately after the assistant message that
// requested them, which is the ordering the API requires.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	// Index tool results by call id, preserving first-seen order.
	toolResults := map[string]string{}
	var order []string
	for _, c := range req.Contents {
		if c.Role != core.RoleTool {
			continue
		}
		for _, tr := range c.ToolResults() {
			if tr.ID == "" {
				continue
			}
			if _, exists := toolResults[tr.ID]; exists {
				continue
			}
			text := tr.Output
			if tr.Error != "" {
				text = tr.Error
			}
			toolResults[tr.ID] = text
			order = append(order, tr.ID)
		}
	}

	for _, c := range req.Contents {
		if c.Role == core.RoleTool {
			continue
		}
		text := c.Text()
		switch c.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(text))
		case core.RoleAssistant:
			calls := c.ToolCalls()
			if len(calls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(calls))
			for _, tc := range calls {
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
			for _, tc := range calls {
				if resp, ok := toolResults[tc.ID]; ok {
					messages = append(messages, openai.ToolMessage(resp, tc.ID))
					delete(toolResults, tc.ID)
				}
			}
		default:
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}
	for _, id := range order {
		if resp, ok := toolResults[id]; ok {
			messages = append(messages, openai.ToolMessage(resp, id))
		}
	}
	return messages
}

// buildParams assembles the request parameters including tool definitions.
func (r *Reasoner) buildParams(
	req model.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               r.opts.Model,
		Temperature:         openai.Float(r.opts.Temperature),
		MaxCompletionTokens: openai.Int(r.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Name,
				Description: openai.String(tdef.Description),
				Parameters:  tdef.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// handleStreaming forwards partial and final events from the stream.
func (r *Reasoner) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := r.client.Chat.Completions.NewStreaming(ctx, params)
	var textBuilder strings.Builder
	toolAgg := map[int64]*aggCall{}
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				textBuilder.WriteString(ch.Delta.Content)
				out <- model.Response{
					Partial: true,
					Content: core.NewTextContent(core.RoleAssistant, ch.Delta.Content),
				}
			}
			for _, tc := range ch.Delta.ToolCalls {
				ac, ok := toolAgg[tc.Index]
				if !ok {
					ac = &aggCall{}
					toolAgg[tc.Index] = ac
				}
				if tc.ID != "" {
					ac.id = tc.ID
				}
				if tc.Function.Name != "" {
					ac.name = tc.Function.Name
				}
				if tc.Function.Arguments != "" {
					ac.args += tc.Function.Arguments
				}
			}
			if ch.FinishReason != "" {
				out <- finalChunk(ch.FinishReason, &textBuilder, toolAgg)
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
	}
}

func finalChunk(finishReason string, builder *strings.Builder, toolAgg map[int64]*aggCall) model.Response {
	parts := make([]core.Part, 0, len(toolAgg)+1)
	if builder.Len() > 0 {
		parts = append(parts, core.TextPart{Text: builder.String()})
	}
	for _, ac := range toolAgg {
		parts = append(parts, core.ToolCallPart{ToolCall: core.ToolCall{
			ID:        ac.id,
			Name:      ac.name,
			Arguments: ac.args,
		}})
	}
	return model.Response{
		Partial:      false,
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: finishReason,
	}
}

// handleNonStreaming processes a single (non-streaming) completion.
func (r *Reasoner) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai api error: %w", err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("no choices returned")
		return
	}
	ch0 := resp.Choices[0]
	parts := make([]core.Part, 0, len(ch0.Message.ToolCalls)+1)
	if ch0.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: ch0.Message.Content})
	}
	for _, tc := range ch0.Message.ToolCalls {
		parts = append(parts, core.ToolCallPart{ToolCall: core.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}
	out <- model.Response{
		ID:           resp.ID,
		Partial:      false,
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// Info returns metadata describing this OpenAI reasoner.
func (r *Reasoner) Info() model.Info {
	return model.Info{
		Name:          r.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
