package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inverlab/finagent/cache"
)

func echoTool() *FunctionTool {
	return NewFunctionTool(
		"echo",
		"Echo the given text back to the caller",
		StringParameter("text", "Text to echo"),
		func(ctx context.Context, args map[string]any) (string, error) {
			return args["text"].(string), nil
		},
	)
}

func TestRegistryRegisterAndDefinitions(t *testing.T) {
	r := NewRegistry(cache.New(), nil)
	require.NoError(t, r.Register(echoTool()))
	require.NoError(t, r.Register(NewFunctionTool(
		"second", "Second tool", StringParameter("q", "Query"),
		func(ctx context.Context, args map[string]any) (string, error) { return "ok", nil },
	)))

	defs := r.Definitions()
	require.Len(t, defs, 2)
	// Registration order is preserved for the reasoner.
	assert.Equal(t, "echo", defs[0].Name)
	assert.Equal(t, "second", defs[1].Name)
	assert.NotEmpty(t, defs[0].Description)
	assert.NotNil(t, defs[0].Parameters)
}

func TestRegistryRejectsDuplicatesAndEmptyDescriptions(t *testing.T) {
	r := NewRegistry(cache.New(), nil)
	require.NoError(t, r.Register(echoTool()))
	assert.Error(t, r.Register(echoTool()))
	assert.Error(t, r.Register(NewFunctionTool("bare", "", nil,
		func(ctx context.Context, args map[string]any) (string, error) { return "", nil })))
}

func TestInvokeSuccess(t *testing.T) {
	r := NewRegistry(cache.New(), nil)
	require.NoError(t, r.Register(echoTool()))

	out := r.Invoke(context.Background(), "echo", `{"text":"olá"}`)
	assert.Equal(t, "olá", out)
}

func TestInvokeUnknownTool(t *testing.T) {
	r := NewRegistry(cache.New(), nil)
	out := r.Invoke(context.Background(), "missing", `{}`)
	assert.Contains(t, out, CodeUnknownTool)
	assert.Contains(t, out, "missing")
}

func TestInvokeValidationFailure(t *testing.T) {
	r := NewRegistry(cache.New(), nil)
	require.NoError(t, r.Register(echoTool()))

	out := r.Invoke(context.Background(), "echo", `{}`)
	assert.Contains(t, out, CodeValidation)

	out = r.Invoke(context.Background(), "echo", `{"text":`)
	assert.Contains(t, out, CodeValidation)
}

func TestInvokeExecutionFailure(t *testing.T) {
	r := NewRegistry(cache.New(), nil)
	require.NoError(t, r.Register(NewFunctionTool(
		"failing", "Always fails", StringParameter("q", "Query"),
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("upstream unreachable")
		},
	)))

	out := r.Invoke(context.Background(), "failing", `{"q":"x"}`)
	assert.Contains(t, out, CodeExecution)
	assert.Contains(t, out, "upstream unreachable")
}

func TestInvokeCachePolicy(t *testing.T) {
	r := NewRegistry(cache.New(), nil)
	calls := 0
	require.NoError(t, r.Register(NewFunctionTool(
		"counted", "Counts invocations", StringParameter("q", "Query"),
		func(ctx context.Context, args map[string]any) (string, error) {
			calls++
			return "resultado", nil
		},
	), func(o *RegisterOptions) {
		o.CacheTTL = time.Hour
	}))

	assert.Equal(t, "resultado", r.Invoke(context.Background(), "counted", `{"q":"selic"}`))
	assert.Equal(t, "resultado", r.Invoke(context.Background(), "counted", `{"q":"selic"}`))
	assert.Equal(t, 1, calls)

	// Different arguments miss the cache.
	r.Invoke(context.Background(), "counted", `{"q":"ipca"}`)
	assert.Equal(t, 2, calls)
}

func TestInvokeErrorsAreNotCached(t *testing.T) {
	r := NewRegistry(cache.New(), nil)
	calls := 0
	require.NoError(t, r.Register(NewFunctionTool(
		"flaky", "Fails once", StringParameter("q", "Query"),
		func(ctx context.Context, args map[string]any) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("temporary failure")
			}
			return "ok", nil
		},
	), func(o *RegisterOptions) {
		o.CacheTTL = time.Hour
	}))

	out := r.Invoke(context.Background(), "flaky", `{"q":"x"}`)
	assert.Contains(t, out, "temporary failure")
	out = r.Invoke(context.Background(), "flaky", `{"q":"x"}`)
	assert.Equal(t, "ok", out)
}

func TestInvokeTimeout(t *testing.T) {
	r := NewRegistry(cache.New(), nil)
	require.NoError(t, r.Register(NewFunctionTool(
		"slow", "Blocks until cancelled", StringParameter("q", "Query"),
		func(ctx context.Context, args map[string]any) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(5 * time.Second):
				return "too late", nil
			}
		},
	), func(o *RegisterOptions) {
		o.Timeout = 20 * time.Millisecond
	}))

	out := r.Invoke(context.Background(), "slow", `{"q":"x"}`)
	assert.Contains(t, out, CodeTimeout)
}

func TestInvokeCallerCancellationIsNotATimeout(t *testing.T) {
	r := NewRegistry(cache.New(), nil)
	require.NoError(t, r.Register(NewFunctionTool(
		"slow", "Blocks until cancelled", StringParameter("q", "Query"),
		func(ctx context.Context, args map[string]any) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	), func(o *RegisterOptions) {
		o.Timeout = 5 * time.Second
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := r.Invoke(ctx, "slow", `{"q":"x"}`)
	assert.Contains(t, out, CodeExecution)
	assert.NotContains(t, out, CodeTimeout)
}

func TestNamesSorted(t *testing.T) {
	r := NewRegistry(cache.New(), nil)
	fn := func(ctx context.Context, args map[string]any) (string, error) { return "ok", nil }
	require.NoError(t, r.Register(NewFunctionTool("zeta", "Última", StringParameter("q", "Consulta"), fn)))
	require.NoError(t, r.Register(NewFunctionTool("alpha", "Primeira", StringParameter("q", "Consulta"), fn)))

	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
}

func TestFunctionToolPreservesToolErrors(t *testing.T) {
	ft := NewFunctionTool(
		"custom", "Returns a typed error", StringParameter("q", "Query"),
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", NewToolError("custom", "chave não configurada", CodeNotConfigured)
		},
	)
	_, err := ft.Call(context.Background(), map[string]any{"q": "x"})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeNotConfigured, toolErr.Code)
}
