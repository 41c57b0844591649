package feed

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, st Store) {
	ctx := context.Background()

	t.Run("load unknown view", func(t *testing.T) {
		_, err := st.Load(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrViewNotFound)
	})

	t.Run("update unknown view", func(t *testing.T) {
		_, err := st.Update(ctx, uuid.NewString(), func(s State) State { return s })
		assert.ErrorIs(t, err, ErrViewNotFound)
	})

	t.Run("save load update delete", func(t *testing.T) {
		view := uuid.NewString()
		require.NoError(t, st.Save(ctx, view, Start(page("c2", "a"))))

		got, err := st.Load(ctx, view)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, ids(got.Posts))

		updated, err := st.Update(ctx, view, func(s State) State {
			next, _ := Reduce(s, PageLoaded{From: "c2", Page: page("", "b")})
			return next
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(updated.Posts))

		got, err = st.Load(ctx, view)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(got.Posts))
		assert.False(t, got.HasMore())

		require.NoError(t, st.Delete(ctx, view))
		_, err = st.Load(ctx, view)
		assert.ErrorIs(t, err, ErrViewNotFound)
	})

	t.Run("concurrent loads with one cursor append once", func(t *testing.T) {
		view := uuid.NewString()
		require.NoError(t, st.Save(ctx, view, Start(page("c2", "a"))))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = st.Update(ctx, view, func(s State) State {
					next, _ := Reduce(s, PageLoaded{From: "c2", Page: page("c3", "b")})
					return next
				})
			}()
		}
		wg.Wait()

		got, err := st.Load(ctx, view)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(got.Posts))
	})
}

func TestMemoryStore(t *testing.T) {
	st := NewMemoryStore(time.Minute)
	defer st.Close()
	exerciseStore(t, st)
}

func TestMemoryStoreExpiresViews(t *testing.T) {
	st := NewMemoryStore(50 * time.Millisecond)
	defer st.Close()
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, "v", Start(page("", "a"))))
	time.Sleep(120 * time.Millisecond)

	_, err := st.Load(ctx, "v")
	assert.ErrorIs(t, err, ErrViewNotFound)
	assert.Equal(t, 0, st.Len())
}

func TestMemoryStoreNonPositiveTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Minute} {
		var st *MemoryStore
		require.NotPanics(t, func() { st = NewMemoryStore(ttl) })
		require.NoError(t, st.Save(context.Background(), "v", Start(page("c2", "a"))))
		_, err := st.Load(context.Background(), "v")
		assert.NoError(t, err)
		st.Close()
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	exerciseStore(t, NewRedisStore(client, time.Minute))
}
