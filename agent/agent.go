package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/inverlab/finagent/core"
	"github.com/inverlab/finagent/logging"
	"github.com/inverlab/finagent/model"
	"github.com/inverlab/finagent/tool"
)

// DefaultMaxModelCalls bounds how many reasoning passes a single exchange may
// consume before the loop gives up.
const DefaultMaxModelCalls = 10

// DefaultHistoryWindow is the number of most recent exchanges replayed to the
// reasoner. Older turns stay in the session store but are not sent.
const DefaultHistoryWindow = 10

// Options configure an Agent.
type Options struct {
	// Instruction supplies the system prompt. Defaults to the standing
	// investment-assistant persona.
	Instruction Instruction
	// MaxModelCalls bounds reasoning passes per exchange.
	MaxModelCalls int
	// HistoryWindow is the number of recent exchanges replayed as context.
	HistoryWindow int
	// Logger receives loop diagnostics.
	Logger logging.Logger
}

// Agent runs the bounded decide/act loop: it proposes with the reasoner,
// executes any requested tool calls through the registry, feeds the results
// back, and repeats until the reasoner produces a plain answer or the call
// budget runs out.
type Agent struct {
	reasoner      model.Reasoner
	registry      *tool.Registry
	instruction   Instruction
	maxModelCalls int
	historyWindow int
	logger        logging.Logger
}

// Result is the outcome of one exchange.
type Result struct {
	// Answer is the assistant's final text. On exhaustion it carries the
	// best partial answer the loop saw, possibly empty.
	Answer string
	// ModelCalls is the number of reasoning passes consumed.
	ModelCalls int
	// ToolCalls is the number of tool invocations executed.
	ToolCalls int
	// Usage aggregates token usage across all passes.
	Usage model.TokenUsage
}

// New constructs an Agent over a reasoner and a tool registry.
func New(reasoner model.Reasoner, registry *tool.Registry, optFns ...func(o *Options)) *Agent {
	opts := Options{
		Instruction:   NewInstructionFromText(DefaultInstructions),
		MaxModelCalls: DefaultMaxModelCalls,
		HistoryWindow: DefaultHistoryWindow,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{
		reasoner:      reasoner,
		registry:      registry,
		instruction:   opts.Instruction,
		maxModelCalls: opts.MaxModelCalls,
		historyWindow: opts.HistoryWindow,
		logger:        logging.OrNoOp(opts.Logger),
	}
}

// Respond runs the loop over the given conversation, whose last turn is the
// user's new input. When the call budget is exhausted the returned error
// wraps core.ErrReasoningExhausted and the Result still carries the best
// partial answer available.
func (a *Agent) Respond(ctx context.Context, turns []core.Turn) (*Result, error) {
	instructions, err := a.instruction.Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve instructions: %w", err)
	}

	contents := turnsToContents(windowTurns(turns, a.historyWindow))
	tools := a.registry.Definitions()
	result := &Result{}
	partial := ""

	for result.ModelCalls < a.maxModelCalls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.ModelCalls++

		final, err := a.propose(ctx, model.Request{
			Instructions: instructions,
			Contents:     contents,
			Tools:        tools,
		})
		if err != nil {
			return nil, fmt.Errorf("reasoning pass %d: %w", result.ModelCalls, err)
		}
		result.Usage.Add(final.Usage)

		calls := final.Content.ToolCalls()
		if len(calls) == 0 {
			result.Answer = final.Content.Text()
			return result, nil
		}
		if text := final.Content.Text(); text != "" {
			partial = text
		}

		contents = append(contents, final.Content)
		resultContent := core.Content{Role: core.RoleTool}
		for _, call := range calls {
			start := time.Now()
			output := a.registry.Invoke(ctx, call.Name, call.Arguments)
			result.ToolCalls++
			a.logger.Debug("agent.tool_call",
				"tool", call.Name,
				"call_id", call.ID,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			resultContent.Parts = append(resultContent.Parts, core.ToolResultPart{
				ToolResult: core.ToolResult{ID: call.ID, Name: call.Name, Output: output},
			})
		}
		contents = append(contents, resultContent)
	}

	a.logger.Warn("agent.exhausted", "model_calls", result.ModelCalls, "tool_calls", result.ToolCalls)
	result.Answer = partial
	return result, fmt.Errorf("after %d reasoning passes: %w", result.ModelCalls, core.ErrReasoningExhausted)
}

// propose runs one non-streaming reasoning pass and returns the final
// response. Streaming happens at the transport layer, never inside the loop,
// so tool calls always arrive fully assembled.
func (a *Agent) propose(ctx context.Context, req model.Request) (*model.Response, error) {
	respCh, errCh := a.reasoner.Propose(ctx, req)

	var final *model.Response
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !resp.Partial {
				r := resp
				final = &r
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}
	if final == nil {
		return nil, fmt.Errorf("reasoner produced no final response")
	}
	return final, nil
}

// windowTurns keeps the turns belonging to the last n user exchanges. The
// trailing user turn counts as the start of the newest exchange.
func windowTurns(turns []core.Turn, n int) []core.Turn {
	if n <= 0 {
		return turns
	}
	exchanges := 0
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == core.RoleUser {
			exchanges++
			if exchanges == n {
				return turns[i:]
			}
		}
	}
	return turns
}

func turnsToContents(turns []core.Turn) []core.Content {
	contents := make([]core.Content, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, core.NewTextContent(t.Role, t.Content))
	}
	return contents
}
