package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	URL     string    `json:"url"`
	Updated time.Time `json:"updated"`
}

func openTestStore(t *testing.T) Store {
	t.Helper()
	store, err := Open(context.Background(), Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteSetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Set(ctx, "videos", "abc", testDoc{URL: "https://a", Updated: now}))

	var got testDoc
	require.NoError(t, store.Get(ctx, "videos", "abc", &got))
	assert.Equal(t, "https://a", got.URL)
	assert.True(t, now.Equal(got.Updated))

	require.NoError(t, store.Delete(ctx, "videos", "abc"))
	err := store.Get(ctx, "videos", "abc", &got)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteSetOverwrites(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Set(ctx, "videos", "abc", testDoc{URL: "first"}))
	require.NoError(t, store.Set(ctx, "videos", "abc", testDoc{URL: "second"}))

	var got testDoc
	require.NoError(t, store.Get(ctx, "videos", "abc", &got))
	assert.Equal(t, "second", got.URL)
}

func TestSQLiteCollectionsAreSeparate(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Set(ctx, "videos", "abc", testDoc{URL: "video"}))

	var got testDoc
	err := store.Get(ctx, "images", "abc", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	store := openTestStore(t)
	assert.NoError(t, store.Delete(context.Background(), "videos", "missing"))
	assert.NoError(t, store.Delete(context.Background(), "videos", "missing"))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "firestore"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "sqlite"})
	assert.Error(t, err)
}
