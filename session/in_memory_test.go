package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inverlab/finagent/core"
)

func TestInMemoryunknownSessionIsEmpty(t *testing.T) {
	store := NewInMemoryStore()
	turns, err := store.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, turns)
	assert.NotNil(t, turns)
}

func TestInMemorySaveReplacesHistory(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", []core.Turn{
		core.NewUserTurn("oi"),
		core.NewAssistantTurn("olá, como posso ajudar?"),
	}))
	require.NoError(t, store.Save(ctx, "s1", []core.Turn{
		core.NewUserTurn("oi"),
		core.NewAssistantTurn("olá, como posso ajudar?"),
		core.NewUserTurn("qual a Selic?"),
		core.NewAssistantTurn("13.75% ao ano."),
	}))

	turns, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, core.RoleUser, turns[2].Role)
	assert.Equal(t, "qual a Selic?", turns[2].Content)
}

func TestInMemoryLoadReturnsCopy(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", []core.Turn{core.NewUserTurn("original")}))

	turns, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	turns[0].Content = "mutated"

	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content)
}

func TestInMemorySessionsAreIsolated(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "a", []core.Turn{core.NewUserTurn("para a")}))
	require.NoError(t, store.Save(ctx, "b", []core.Turn{core.NewUserTurn("para b")}))

	turns, err := store.Load(ctx, "a")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "para a", turns[0].Content)
}
