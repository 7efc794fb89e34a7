package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/inverlab/finagent/agent"
	"github.com/inverlab/finagent/core"
	"github.com/inverlab/finagent/logging"
	"github.com/inverlab/finagent/model"
)

// ExhaustedFallbackAnswer is persisted when the loop runs out of budget
// without any partial answer to salvage.
const ExhaustedFallbackAnswer = "Não consegui concluir a análise dentro do limite de etapas. " +
	"Tente reformular a pergunta ou dividi-la em partes menores."

// Options configure a Runner.
type Options struct {
	// Logger receives exchange diagnostics.
	Logger logging.Logger
}

// Runner executes exchanges: load history, run the reasoning loop, persist
// the outcome. Safe for concurrent use; per-session write ordering is the
// store's concern.
type Runner struct {
	agent  *agent.Agent
	store  core.SessionStore
	logger logging.Logger
}

// Outcome is the result of one exchange.
type Outcome struct {
	// SessionID identifies the conversation, generated when the caller
	// passed none.
	SessionID string
	// Answer is the assistant's reply as persisted.
	Answer string
	// Exhausted reports that the loop hit its call budget and the answer
	// is best-effort.
	Exhausted bool
	// ModelCalls and ToolCalls count the work the exchange consumed.
	ModelCalls int
	ToolCalls  int
	// Usage aggregates token usage across the exchange.
	Usage model.TokenUsage
}

// New constructs a Runner.
func New(a *agent.Agent, store core.SessionStore, optFns ...func(o *Options)) *Runner {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{agent: a, store: store, logger: logging.OrNoOp(opts.Logger)}
}

// Run executes one exchange for the session. An empty sessionID starts a new
// conversation. Unknown session IDs behave as empty histories, so a caller
// may mint its own IDs. Storage errors are returned unwrapped enough for
// errors.Is(err, core.ErrStorageUnavailable) checks.
func (r *Runner) Run(ctx context.Context, sessionID, input string) (*Outcome, error) {
	if sessionID == "" {
		sessionID = core.NewID()
	}

	turns, err := r.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	userTurn := core.NewUserTurn(input)
	turns = append(turns, userTurn)

	res, err := r.agent.Respond(ctx, turns)
	exhausted := false
	switch {
	case err == nil:
	case errors.Is(err, core.ErrReasoningExhausted):
		exhausted = true
		r.logger.Warn("runner.exhausted", "session_id", sessionID, "model_calls", res.ModelCalls)
		if res.Answer == "" {
			res.Answer = ExhaustedFallbackAnswer
		}
	default:
		return nil, fmt.Errorf("respond in session %s: %w", sessionID, err)
	}

	turns = append(turns, core.NewAssistantTurn(res.Answer))
	// The exchange already produced an answer; a caller hanging up must not
	// lose the history write.
	if err := r.store.Save(context.WithoutCancel(ctx), sessionID, turns); err != nil {
		return nil, fmt.Errorf("save session %s: %w", sessionID, err)
	}

	r.logger.Info("runner.exchange",
		"session_id", sessionID,
		"model_calls", res.ModelCalls,
		"tool_calls", res.ToolCalls,
		"exhausted", exhausted,
	)
	return &Outcome{
		SessionID:  sessionID,
		Answer:     res.Answer,
		Exhausted:  exhausted,
		ModelCalls: res.ModelCalls,
		ToolCalls:  res.ToolCalls,
		Usage:      res.Usage,
	}, nil
}
