package claims

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), srv
}

func TestCacheFetchPopulatesOnMiss(t *testing.T) {
	cache, srv := newTestCache(t)
	loads := 0
	loader := func(context.Context) (*Claim, error) {
		loads++
		return &Claim{ID: "c1", Region: "us-east"}, nil
	}

	got, err := cache.Fetch(context.Background(), "c1", loader)
	require.NoError(t, err)
	assert.Equal(t, "us-east", got.Region)
	assert.Equal(t, 1, loads)
	assert.True(t, srv.Exists("claims:claim:c1"))

	// Second fetch served from Redis, loader untouched.
	_, err = cache.Fetch(context.Background(), "c1", loader)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
}

func TestCacheFetchPropagatesLoaderError(t *testing.T) {
	cache, _ := newTestCache(t)
	wantErr := errors.New("boom")

	_, err := cache.Fetch(context.Background(), "c1", func(context.Context) (*Claim, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestCacheInvalidateForcesReload(t *testing.T) {
	cache, _ := newTestCache(t)
	loads := 0
	loader := func(context.Context) (*Claim, error) {
		loads++
		return &Claim{ID: "c1"}, nil
	}

	_, err := cache.Fetch(context.Background(), "c1", loader)
	require.NoError(t, err)
	cache.Invalidate(context.Background(), "c1")
	_, err = cache.Fetch(context.Background(), "c1", loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestCacheCorruptEntryReloads(t *testing.T) {
	cache, srv := newTestCache(t)
	require.NoError(t, srv.Set("claims:claim:c1", "{not json"))

	got, err := cache.Fetch(context.Background(), "c1", func(context.Context) (*Claim, error) {
		return &Claim{ID: "c1", Region: "eu-west"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west", got.Region)
}

func TestCacheNilClientFallsThrough(t *testing.T) {
	cache := NewCache(nil, time.Minute)

	got, err := cache.Fetch(context.Background(), "c1", func(context.Context) (*Claim, error) {
		return &Claim{ID: "c1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	cache.Invalidate(context.Background(), "c1")
}
