package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/inverlab/finagent/cache"
	"github.com/inverlab/finagent/logging"
	"github.com/inverlab/finagent/model"
)

// RegisterOptions hold the per-tool dispatch policy.
type RegisterOptions struct {
	// CacheTTL enables result caching for this tool when positive. The
	// cache key is derived from the tool name and its serialized arguments.
	CacheTTL time.Duration
	// Timeout bounds a single invocation. Zero means no tool-level bound
	// beyond the caller's context.
	Timeout time.Duration
}

// Registry holds the named capabilities available to the orchestrator and
// dispatches invocations with each tool's policy applied. A failing tool
// never propagates an error past Invoke; the failure is rendered as the
// tool's output so the reasoner decides the next step. Safe for concurrent
// use after registration.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	policies map[string]RegisterOptions
	order    []string

	cache  *cache.Cache
	logger logging.Logger
}

// NewRegistry constructs a Registry. The cache may be nil when no tool
// declares a cache policy.
func NewRegistry(c *cache.Cache, logger logging.Logger) *Registry {
	return &Registry{
		tools:    make(map[string]Tool),
		policies: make(map[string]RegisterOptions),
		cache:    c,
		logger:   logging.OrNoOp(logger),
	}
}

// Register adds a tool with optional policy overrides. Names must be unique
// and descriptions non-empty.
func (r *Registry) Register(t Tool, optFns ...func(o *RegisterOptions)) error {
	if t.Name() == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if t.Description() == "" {
		return fmt.Errorf("tool %q: description must not be empty", t.Name())
	}
	opts := RegisterOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	r.policies[t.Name()] = opts
	r.order = append(r.order, t.Name())
	return nil
}

// Definitions returns the tool definitions to expose to the reasoner, in
// registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Invoke dispatches to the named tool with JSON-serialized arguments,
// applying the tool's cache and timeout policy. The returned string is
// always usable as tool output: faults are rendered as tool-local error
// text, never raised.
func (r *Registry) Invoke(ctx context.Context, name, rawArgs string) string {
	r.mu.RLock()
	t, ok := r.tools[name]
	policy := r.policies[name]
	r.mu.RUnlock()
	if !ok {
		return NewToolError(name, "no such tool", CodeUnknownTool).Error()
	}

	start := time.Now()
	var output string
	var err error
	if policy.CacheTTL > 0 && r.cache != nil {
		output, err = r.cache.GetOrCompute(cache.Key(name, rawArgs), policy.CacheTTL, func() (string, error) {
			return r.execute(ctx, t, policy, rawArgs)
		})
	} else {
		output, err = r.execute(ctx, t, policy, rawArgs)
	}

	if err != nil {
		r.logger.Warn("tool.invoke.failed", "tool", name, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		if toolErr, ok := err.(*ToolError); ok {
			return toolErr.Error()
		}
		return NewToolError(name, err.Error(), CodeExecution).Error()
	}
	r.logger.Info("tool.invoke.ok", "tool", name, "duration_ms", time.Since(start).Milliseconds())
	return output
}

// execute parses and validates arguments, then calls the tool under its
// timeout. The tool runs in its own goroutine so a tool that ignores
// context cancellation cannot stall the loop past its deadline.
func (r *Registry) execute(ctx context.Context, t Tool, policy RegisterOptions, rawArgs string) (string, error) {
	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", NewToolError(t.Name(), fmt.Sprintf("invalid arguments: %v", err), CodeValidation)
		}
	}
	if err := ValidateParameters(args, t.Parameters()); err != nil {
		return "", NewToolError(t.Name(), err.Error(), CodeValidation)
	}

	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}

	type result struct {
		output string
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		output, err := t.Call(ctx, args)
		resCh <- result{output: output, err: err}
	}()

	select {
	case <-ctx.Done():
		// Caller hang-up is not a tool timeout; only an elapsed deadline is.
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", NewToolError(t.Name(), ctx.Err().Error(), CodeExecution)
		}
		return "", NewToolError(t.Name(), ctx.Err().Error(), CodeTimeout)
	case res := <-resCh:
		if res.err != nil {
			if toolErr, ok := res.err.(*ToolError); ok {
				return "", toolErr
			}
			return "", NewToolError(t.Name(), res.err.Error(), CodeExecution)
		}
		return res.output, nil
	}
}
