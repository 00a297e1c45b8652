package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitquest/pkg/types"
)

func TestMemoryUserStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	user := types.NewUserRecord()
	user.Preferences = []string{"Fitness"}
	require.NoError(t, store.CreateUser(ctx, "u1", user))

	got, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fitness"}, got.Preferences)

	_, err = store.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryUserStore_DuplicateCreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	require.NoError(t, store.CreateUser(ctx, "u1", types.NewUserRecord()))
	assert.Error(t, store.CreateUser(ctx, "u1", types.NewUserRecord()))
}

func TestMemoryUserStore_GetReturnsIsolatedCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()
	require.NoError(t, store.CreateUser(ctx, "u1", types.NewUserRecord()))

	first, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	first.Preferences = append(first.Preferences, "Cooking")
	first.CategoryProgress["Cooking"] = 7

	second, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, second.Preferences, "mutating a returned copy must not leak into the store")
	assert.Empty(t, second.CategoryProgress)
}

func TestMemoryUserStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()
	require.NoError(t, store.CreateUser(ctx, "u1", types.NewUserRecord()))

	err := store.Update(ctx, "u1", func(user *types.UserRecord) error {
		user.Rerolls = 3
		return nil
	})
	require.NoError(t, err)

	got, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rerolls)

	assert.ErrorIs(t, store.Update(ctx, "missing", func(*types.UserRecord) error { return nil }),
		ErrUserNotFound)
}

func TestMemoryUserStore_AbortedUpdateLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()
	require.NoError(t, store.CreateUser(ctx, "u1", types.NewUserRecord()))

	boom := errors.New("callback rejected")
	err := store.Update(ctx, "u1", func(user *types.UserRecord) error {
		user.Rerolls = 99
		user.SuggestionHistory = append(user.SuggestionHistory, "t1")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, got.Rerolls)
	assert.Empty(t, got.SuggestionHistory)
}

func TestMemoryCatalogStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCatalogStore([]types.TaskCatalogEntry{
		{ID: "t1", Title: "Stretch", CategoryTitle: "Fitness"},
		{ID: "t2", Title: "Meal prep", CategoryTitle: "Cooking"},
	})

	entries, err := store.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	task, err := store.GetTask(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "Meal prep", task.Title)

	_, err = store.GetTask(ctx, "ghost")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	store.Replace([]types.TaskCatalogEntry{{ID: "t3", Title: "Read", CategoryTitle: "Learning"}})
	entries, err = store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "t3", entries[0].ID)

	_, err = store.GetTask(ctx, "t1")
	assert.ErrorIs(t, err, ErrTaskNotFound, "replaced entries are gone from the index")
}
