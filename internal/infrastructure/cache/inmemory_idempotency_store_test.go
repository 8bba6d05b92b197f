package cache

import (
	"context"
	"testing"
	"time"

	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResponse() *shared.StoredResponse {
	return &shared.StoredResponse{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"success":true}`),
		RequestHash: "abc",
	}
}

func TestInMemoryIdempotencyStore_ReserveAndSave(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("first reservation wins", func(t *testing.T) {
		ok, err := store.Reserve(ctx, "key-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Reserve(ctx, "key-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "in-flight key cannot be reserved twice")

		_, found, err := store.Get(ctx, "key-1")
		require.NoError(t, err)
		assert.False(t, found, "reservation is not a stored response")
	})

	t.Run("saved response is replayed", func(t *testing.T) {
		ok, err := store.Reserve(ctx, "key-2", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, store.Save(ctx, "key-2", sampleResponse(), time.Hour))

		resp, found, err := store.Get(ctx, "key-2")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, 201, resp.StatusCode)
		assert.Equal(t, `{"success":true}`, string(resp.Body))

		ok, err = store.Reserve(ctx, "key-2", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "stored key cannot be reserved")
	})

	t.Run("release frees a reservation but keeps responses", func(t *testing.T) {
		_, err := store.Reserve(ctx, "key-3", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "key-3"))

		ok, err := store.Reserve(ctx, "key-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, store.Release(ctx, "key-2"))
		_, found, err := store.Get(ctx, "key-2")
		require.NoError(t, err)
		assert.True(t, found)
	})
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "short", sampleResponse(), time.Minute))
	require.NoError(t, store.Save(ctx, "long", sampleResponse(), time.Hour))
	_, err := store.Reserve(ctx, "pending", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Size())

	now = now.Add(2 * time.Minute)

	_, found, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found)

	ok, err := store.Reserve(ctx, "pending", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired reservation can be taken again")

	now = now.Add(2 * time.Minute)
	store.cleanup()
	assert.Equal(t, 1, store.Size())

	_, found, err = store.Get(ctx, "long")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestInMemoryIdempotencyStore_ConcurrentReserve(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const numGoroutines = 100

	results := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			ok, err := store.Reserve(ctx, "concurrent", time.Hour)
			results <- err == nil && ok
		}()
	}

	won := 0
	for i := 0; i < numGoroutines; i++ {
		if <-results {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one goroutine should reserve the key")
}

func TestInMemoryIdempotencyStore_SaveCopiesResponse(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	resp := sampleResponse()
	require.NoError(t, store.Save(ctx, "copy", resp, time.Hour))
	resp.StatusCode = 500

	got, found, err := store.Get(ctx, "copy")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 201, got.StatusCode)
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestFactory_FallsBackWithoutRedis(t *testing.T) {
	t.Run("in-memory store when redis is not configured", func(t *testing.T) {
		f := NewFactory(config.RedisConfig{})
		store, err := f.CreateIdempotencyStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)

		locker, err := f.CreateLocker()
		require.NoError(t, err)
		assert.Nil(t, locker)
		assert.NoError(t, f.Close())
	})

	t.Run("error when fallback is disabled", func(t *testing.T) {
		f := NewFactory(config.RedisConfig{}, WithInMemoryFallback(false))
		_, err := f.CreateIdempotencyStore()
		assert.Error(t, err)
	})
}
