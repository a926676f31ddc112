package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minerva/internal/conversation"
	"minerva/internal/graph"
	"minerva/internal/memory"
	"minerva/internal/prompts"
	"minerva/internal/search"
)

// noModel answers every prompt the same way; classifier prompts get NO so
// turns stay write-free.
type noModel struct {
	reply string
	err   error
}

func (m *noModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	p := prompts.Defaults()
	if len(input) > 0 && input[0].Role == schema.System {
		switch input[0].Content {
		case p.DecidePersonal, p.DecidePreference, p.DecideSearch:
			return schema.AssistantMessage("NO", nil), nil
		}
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

type noSearch struct{}

func (noSearch) Search(ctx context.Context, queryContext, previousQuery string) (search.Context, error) {
	return search.Context{}, nil
}

func newTestAgent(m *noModel, repo conversation.Repository, store *memory.Store) *Agent {
	p := prompts.Defaults()
	g := graph.New(m, store, noSearch{}, p, graph.Config{HistoryLimit: 100})
	return New(g, repo, store, p, Config{ResetKeyword: "start a new conversation"})
}

func TestAsk_ReturnsAnswer(t *testing.T) {
	repo := conversation.NewMemoryRepository()
	a := newTestAgent(&noModel{reply: "the answer"}, repo, memory.NewStore(nil))

	got := a.Ask(context.Background(), "user-1", "a question")
	assert.Equal(t, "the answer", got)

	stored, err := repo.Load(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, schema.User, stored[0].Role)
	assert.Equal(t, schema.Assistant, stored[1].Role)
}

func TestAsk_ResetClearsSession(t *testing.T) {
	ctx := context.Background()
	repo := conversation.NewMemoryRepository()
	store := memory.NewStore(nil)
	a := newTestAgent(&noModel{reply: "ok"}, repo, store)

	a.Ask(ctx, "user-1", "remember this")
	store.Put("user-1", memory.KeyMainContext, "stale context")

	p := prompts.Defaults()
	got := a.Ask(ctx, "user-1", "please start a new conversation now")
	assert.Equal(t, p.Greeting, got)

	stored, err := repo.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, stored, "conversation log cleared")
	assert.Equal(t, "", store.Get("user-1", memory.KeyMainContext), "namespace cleared")
}

func TestAsk_DegradesToApologyOnFailure(t *testing.T) {
	a := newTestAgent(&noModel{err: errors.New("model down")},
		conversation.NewMemoryRepository(), memory.NewStore(nil))

	got := a.Ask(context.Background(), "user-1", "hello")
	assert.Equal(t, prompts.Defaults().Apology, got)
}

func TestAsk_SameUserTurnsAreSerialized(t *testing.T) {
	ctx := context.Background()
	repo := conversation.NewMemoryRepository()
	a := newTestAgent(&noModel{reply: "ok"}, repo, memory.NewStore(nil))

	const turns = 8
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Ask(ctx, "user-1", "hello")
		}()
	}
	wg.Wait()

	stored, err := repo.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, stored, 2*turns, "no turn may clobber another turn's log write")
}

func TestAsk_DistinctUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := conversation.NewMemoryRepository()
	store := memory.NewStore(nil)
	a := newTestAgent(&noModel{reply: "ok"}, repo, store)

	var wg sync.WaitGroup
	for _, user := range []string{"user-a", "user-b"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				a.Ask(ctx, user, "hello from "+user)
			}
		}(user)
	}
	wg.Wait()

	for _, user := range []string{"user-a", "user-b"} {
		stored, err := repo.Load(ctx, user)
		require.NoError(t, err)
		assert.Len(t, stored, 10)
		for _, m := range stored {
			if m.Role == schema.User {
				assert.Equal(t, "hello from "+user, m.Content)
			}
		}
	}
}
