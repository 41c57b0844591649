package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps view states in Redis so several server instances can
// serve the same page view.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a RedisStore. Keys are "view:<id>" and expire ttl
// after the last write.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultViewTTL
	}
	return &RedisStore{client: client, ttl: ttl, prefix: "view:"}
}

func (r *RedisStore) key(view string) string { return r.prefix + view }

func (r *RedisStore) Save(ctx context.Context, view string, s State) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("feed: encode state: %w", err)
	}
	return r.client.Set(ctx, r.key(view), b, r.ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context, view string) (State, error) {
	b, err := r.client.Get(ctx, r.key(view)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrViewNotFound
	}
	if err != nil {
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("feed: decode state: %w", err)
	}
	return s, nil
}

// maxUpdateRetries bounds optimistic retries when another writer touches the
// same view between WATCH and EXEC.
const maxUpdateRetries = 5

func (r *RedisStore) Update(ctx context.Context, view string, fn func(State) State) (State, error) {
	key := r.key(view)
	var next State
	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrViewNotFound
		}
		if err != nil {
			return err
		}
		var cur State
		if err := json.Unmarshal(b, &cur); err != nil {
			return fmt.Errorf("feed: decode state: %w", err)
		}
		next = fn(cur)
		out, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("feed: encode state: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, r.ttl)
			return nil
		})
		return err
	}
	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return State{}, err
		}
		return next, nil
	}
	return State{}, fmt.Errorf("feed: update view %s: too much contention", view)
}

func (r *RedisStore) Delete(ctx context.Context, view string) error {
	return r.client.Del(ctx, r.key(view)).Err()
}
