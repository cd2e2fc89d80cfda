package repository

import (
	"context"
	"testing"
	"time"

	"tourbook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStateRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	repo := NewRedisStateRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSelection", func(t *testing.T) {
		state := &models.SelectionState{
			SessionID: "sess-1",
			Phase:     "full_range",
			Start:     "2026-10-20",
			End:       "2026-10-23",
		}
		require.NoError(t, repo.SetSelection(ctx, state))

		got, err := repo.GetSelection(ctx, "sess-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "full_range", got.Phase)
		assert.Equal(t, "2026-10-20", got.Start)
		assert.Equal(t, "2026-10-23", got.End)

		assert.Equal(t, time.Hour, s.TTL(selectionKeyPrefix+"sess-1"))
	})

	t.Run("GetMissingSelection", func(t *testing.T) {
		got, err := repo.GetSelection(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SelectionExpires", func(t *testing.T) {
		require.NoError(t, repo.SetSelection(ctx, &models.SelectionState{SessionID: "short", Phase: "start_only", Start: "2026-10-20"}))
		s.FastForward(time.Hour + time.Second)
		got, err := repo.GetSelection(ctx, "short")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearSelection", func(t *testing.T) {
		require.NoError(t, repo.SetSelection(ctx, &models.SelectionState{SessionID: "sess-2", Phase: "start_only"}))
		require.NoError(t, repo.ClearSelection(ctx, "sess-2"))

		got, err := repo.GetSelection(ctx, "sess-2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CorruptValue", func(t *testing.T) {
		require.NoError(t, s.Set(selectionKeyPrefix+"bad", "{not json"))
		_, err := repo.GetSelection(ctx, "bad")
		assert.Error(t, err)
	})

	t.Run("RateLimit", func(t *testing.T) {
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, "clicker", 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, "clicker", 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, "clicker", 2, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, "clicker", 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("RateLimitWindowAlwaysExpires", func(t *testing.T) {
		window := time.Minute

		_, err := repo.CheckRateLimit(ctx, "fresh", 5, window)
		require.NoError(t, err)
		assert.Equal(t, window, s.TTL(clickKeyPrefix+"fresh"))

		// a counter left without a TTL picks one up on the next click
		_, err = s.Incr(clickKeyPrefix+"stuck", 10)
		require.NoError(t, err)
		allowed, err := repo.CheckRateLimit(ctx, "stuck", 5, window)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, window, s.TTL(clickKeyPrefix+"stuck"))

		s.FastForward(window + time.Millisecond)
		allowed, err = repo.CheckRateLimit(ctx, "stuck", 5, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisStateRepository(nil, time.Hour)
		_, err := repo.GetSelection(ctx, "x")
		assert.ErrorIs(t, err, errNoRedis)
		assert.ErrorIs(t, repo.SetSelection(ctx, &models.SelectionState{SessionID: "x"}), errNoRedis)
		assert.ErrorIs(t, repo.ClearSelection(ctx, "x"), errNoRedis)
		_, err = repo.CheckRateLimit(ctx, "x", 1, time.Second)
		assert.ErrorIs(t, err, errNoRedis)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
		assert.Error(t, Ping(ctx, nil))
	})

	t.Run("ServerDown", func(t *testing.T) {
		s.Close()
		_, err := repo.GetSelection(ctx, "sess-1")
		assert.Error(t, err)
	})
}

func TestNewRedisClient(t *testing.T) {
	s := miniredis.RunT(t)
	client := NewRedisClient(configFor(s.Addr()))
	defer Close(client)
	assert.NoError(t, Ping(context.Background(), client))
}
