package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wricardo/monopoly-game/game/engine"
)

const (
	redisSeqKey   = "save:seq"
	redisIndexKey = "save:index"
)

func redisSaveKey(id string) string { return "save:" + id }

// RedisStore keeps snapshots as JSON strings. Ids come from an INCR counter
// and a sorted set indexes them in save order.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to url (redis://host:port/db) and pings it
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Save stores state under the next sequence id
func (s *RedisStore) Save(ctx context.Context, state engine.GameState) (*Record, error) {
	seq, err := s.client.Incr(ctx, redisSeqKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate save id: %w", err)
	}

	rec := &Record{
		ID:        strconv.FormatInt(seq, 10),
		State:     state.Clone(),
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal save: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisSaveKey(rec.ID), data, 0)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{Score: float64(seq), Member: rec.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store save: %w", err)
	}

	return rec, nil
}

// Load fetches one snapshot
func (s *RedisStore) Load(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, redisSaveKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get save: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal save: %w", err)
	}
	return &rec, nil
}

// List returns snapshots in save order, skipping index entries whose value
// has gone
func (s *RedisStore) List(ctx context.Context) ([]*Record, error) {
	ids, err := s.client.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read save index: %w", err)
	}

	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close closes the client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
