package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	in := []Message{NewUserMessage("hi"), NewAssistantMessage("hello")}
	require.NoError(t, repo.Save(ctx, "user-1", in))

	out, err := repo.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMemoryRepository_MissingUserIsEmpty(t *testing.T) {
	repo := NewMemoryRepository()

	out, err := repo.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestMemoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.Save(ctx, "user-1", []Message{NewUserMessage("hi")}))
	require.NoError(t, repo.Delete(ctx, "user-1"))

	out, err := repo.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestMemoryRepository_UsersDoNotShareLogs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.Save(ctx, "user-1", []Message{NewUserMessage("mine")}))
	require.NoError(t, repo.Save(ctx, "user-2", []Message{NewUserMessage("yours")}))

	one, err := repo.Load(ctx, "user-1")
	require.NoError(t, err)
	two, err := repo.Load(ctx, "user-2")
	require.NoError(t, err)

	assert.Equal(t, "mine", one[0].Content)
	assert.Equal(t, "yours", two[0].Content)
}
