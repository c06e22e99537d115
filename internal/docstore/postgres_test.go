package docstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/nwaiyar/pocketbank/internal/database"
)

func setupPostgresTest(t *testing.T) (*Postgres, context.Context) {
	t.Helper()

	pool := database.TestDB(t)
	ctx := context.Background()

	err := database.RunMigrations(ctx, pool)
	require.NoError(t, err)
	database.CleanupTables(t, pool)

	return NewPostgres(pool), ctx
}

func TestPostgres_SetGet(t *testing.T) {
	store, ctx := setupPostgresTest(t)

	t.Run("missing key returns ErrNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("upsert replaces whole document", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "doc1", map[string]any{"a": 1, "b": 2}))
		require.NoError(t, store.Set(ctx, "doc1", map[string]any{"a": 9}))

		raw, err := store.Get(ctx, "doc1")
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(raw, &doc))
		require.NotContains(t, doc, "b")
		require.EqualValues(t, 9, doc["a"])
	})
}

func TestPostgres_Delete(t *testing.T) {
	store, ctx := setupPostgresTest(t)

	require.NoError(t, store.Set(ctx, "doc1", map[string]int{"n": 1}))
	require.NoError(t, store.Delete(ctx, "doc1"))
	_, err := store.Get(ctx, "doc1")
	require.ErrorIs(t, err, ErrNotFound)

	// Absent key is a success, not a failure.
	require.NoError(t, store.Delete(ctx, "doc1"))
}

func TestPostgres_List(t *testing.T) {
	store, ctx := setupPostgresTest(t)

	require.NoError(t, store.Set(ctx, "recurring_u1_b1", map[string]int{"n": 1}))
	require.NoError(t, store.Set(ctx, "recurring_u1_b2", map[string]int{"n": 2}))
	require.NoError(t, store.Set(ctx, "recurring_u2_b1", map[string]int{"n": 3}))
	require.NoError(t, store.Set(ctx, "recurringXu1Xextra", map[string]int{"n": 4}))

	docs, err := store.List(ctx, "recurring_u1_")
	require.NoError(t, err)
	require.Len(t, docs, 2, "underscores in the prefix must not act as LIKE wildcards")

	keys := []string{docs[0].Key, docs[1].Key}
	require.ElementsMatch(t, []string{"recurring_u1_b1", "recurring_u1_b2"}, keys)
}
