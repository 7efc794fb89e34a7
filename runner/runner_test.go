package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inverlab/finagent/agent"
	"github.com/inverlab/finagent/cache"
	"github.com/inverlab/finagent/core"
	"github.com/inverlab/finagent/model"
	"github.com/inverlab/finagent/session"
	"github.com/inverlab/finagent/tool"
)

func newTestRunner(t *testing.T, reasoner model.Reasoner, store core.SessionStore, optFns ...func(o *agent.Options)) *Runner {
	t.Helper()
	registry := tool.NewRegistry(cache.New(), nil)
	return New(agent.New(reasoner, registry, optFns...), store)
}

func TestRunPersistsUserAndAssistantTurns(t *testing.T) {
	reasoner := model.NewMockReasoner()
	reasoner.EnqueueAnswer("Olá! Como posso ajudar?")
	store := session.NewInMemoryStore()
	run := newTestRunner(t, reasoner, store)

	outcome, err := run.Run(context.Background(), "s1", "oi")
	require.NoError(t, err)
	assert.Equal(t, "s1", outcome.SessionID)
	assert.Equal(t, "Olá! Como posso ajudar?", outcome.Answer)
	assert.False(t, outcome.Exhausted)

	turns, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, core.RoleUser, turns[0].Role)
	assert.Equal(t, "oi", turns[0].Content)
	assert.Equal(t, core.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Olá! Como posso ajudar?", turns[1].Content)
}

func TestRunGeneratesSessionID(t *testing.T) {
	reasoner := model.NewMockReasoner()
	reasoner.EnqueueAnswer("resposta")
	run := newTestRunner(t, reasoner, session.NewInMemoryStore())

	outcome, err := run.Run(context.Background(), "", "pergunta")
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.SessionID)
}

func TestRunAppendsToExistingHistory(t *testing.T) {
	reasoner := model.NewMockReasoner()
	reasoner.EnqueueAnswer("primeira resposta")
	reasoner.EnqueueAnswer("segunda resposta")
	store := session.NewInMemoryStore()
	run := newTestRunner(t, reasoner, store)

	_, err := run.Run(context.Background(), "s1", "primeira pergunta")
	require.NoError(t, err)
	_, err = run.Run(context.Background(), "s1", "segunda pergunta")
	require.NoError(t, err)

	turns, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, "segunda pergunta", turns[2].Content)
	assert.Equal(t, "segunda resposta", turns[3].Content)
}

func TestRunExhaustionPersistsBestEffortAnswer(t *testing.T) {
	reasoner := model.NewMockReasoner()
	registry := tool.NewRegistry(cache.New(), nil)
	require.NoError(t, registry.Register(tool.NewFunctionTool(
		"noop", "Ferramenta de teste", tool.StringParameter("q", "Consulta"),
		func(ctx context.Context, args map[string]any) (string, error) { return "ok", nil },
	)))
	for i := 0; i < 4; i++ {
		reasoner.EnqueueToolCall("call", "noop", `{"q":"x"}`)
	}
	store := session.NewInMemoryStore()
	run := New(agent.New(reasoner, registry, func(o *agent.Options) {
		o.MaxModelCalls = 2
	}), store)

	outcome, err := run.Run(context.Background(), "s1", "loop infinito")
	require.NoError(t, err)
	assert.True(t, outcome.Exhausted)
	assert.Equal(t, ExhaustedFallbackAnswer, outcome.Answer)

	// The degraded answer is still persisted as a normal assistant turn.
	turns, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, ExhaustedFallbackAnswer, turns[1].Content)
}

func TestRunClientHangUpDoesNotLoseHistory(t *testing.T) {
	reasoner := model.NewMockReasoner()
	reasoner.EnqueueAnswer("resposta")
	inner := session.NewInMemoryStore()
	store := &hangUpStore{
		inner:       inner,
		saveStarted: make(chan struct{}),
		proceed:     make(chan struct{}),
	}
	run := newTestRunner(t, reasoner, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := run.Run(ctx, "s1", "pergunta")
		done <- err
	}()

	// The client disconnects after the answer is produced but before the
	// history write lands. The write must still complete.
	<-store.saveStarted
	cancel()
	close(store.proceed)
	require.NoError(t, <-done)

	turns, err := inner.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "resposta", turns[1].Content)
}

func TestRunSurfacesStorageFailures(t *testing.T) {
	reasoner := model.NewMockReasoner()
	reasoner.EnqueueAnswer("resposta")
	run := newTestRunner(t, reasoner, failingStore{})

	_, err := run.Run(context.Background(), "s1", "pergunta")
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
}

func TestRunDoesNotPersistOnReasonerFailure(t *testing.T) {
	reasoner := model.NewMockReasoner()
	reasoner.Fail(errors.New("provider down"))
	store := session.NewInMemoryStore()
	run := newTestRunner(t, reasoner, store)

	_, err := run.Run(context.Background(), "s1", "pergunta")
	require.Error(t, err)

	turns, loadErr := store.Load(context.Background(), "s1")
	require.NoError(t, loadErr)
	assert.Empty(t, turns)
}

// hangUpStore pauses the history write until the test releases it, then
// refuses to persist under a dead context the way a real backend would.
type hangUpStore struct {
	inner       core.SessionStore
	saveStarted chan struct{}
	proceed     chan struct{}
}

func (s *hangUpStore) Load(ctx context.Context, sessionID string) ([]core.Turn, error) {
	return s.inner.Load(ctx, sessionID)
}

func (s *hangUpStore) Save(ctx context.Context, sessionID string, turns []core.Turn) error {
	close(s.saveStarted)
	<-s.proceed
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.inner.Save(ctx, sessionID, turns)
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]core.Turn, error) {
	return nil, core.ErrStorageUnavailable
}

func (failingStore) Save(context.Context, string, []core.Turn) error {
	return core.ErrStorageUnavailable
}
