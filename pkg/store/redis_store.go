// auditcfg/pkg/store/redis_store.go

package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"rgehrsitz/auditcfg/pkg/config"
	"rgehrsitz/auditcfg/pkg/logging"
)

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis server at addr and verifies the
// connection with a PING.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	logging.Logger.Info().Str("addr", addr).Int("db", db).Msg("Connecting to Redis")

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, logging.NewError(logging.ErrorTypeStore, "failed to connect to Redis", err,
			map[string]interface{}{"addr": addr})
	}

	logging.Logger.Info().Msg("Successfully connected to Redis")
	return &RedisStore{client: client}, nil
}

// PublishSnapshot stores the snapshot as JSON under key and announces the
// key on channel.
func (s *RedisStore) PublishSnapshot(ctx context.Context, key, channel string, snap *config.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		logging.Logger.Error().Err(err).Str("key", key).Msg("Failed to marshal snapshot")
		return logging.NewError(logging.ErrorTypeStore, "failed to marshal snapshot", err, map[string]interface{}{"key": key})
	}

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		logging.Logger.Error().Err(err).Str("key", key).Msg("Failed to store snapshot in Redis")
		return logging.NewError(logging.ErrorTypeStore, "failed to store snapshot", err, map[string]interface{}{"key": key})
	}

	if channel == "" {
		return nil
	}
	if err := s.client.Publish(ctx, channel, key).Err(); err != nil {
		logging.Logger.Error().Err(err).Str("channel", channel).Str("key", key).Msg("Failed to announce snapshot")
		return logging.NewError(logging.ErrorTypeStore, "failed to announce snapshot", err,
			map[string]interface{}{"key": key, "channel": channel})
	}
	logging.Logger.Debug().Str("channel", channel).Str("key", key).Int("bytes", len(data)).Msg("Published snapshot")
	return nil
}

// FetchSnapshot returns the snapshot stored under key, or nil if there is none.
func (s *RedisStore) FetchSnapshot(ctx context.Context, key string) (*config.Snapshot, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logging.Logger.Debug().Str("key", key).Msg("Snapshot not found in Redis")
		return nil, nil
	} else if err != nil {
		logging.Logger.Error().Err(err).Str("key", key).Msg("Failed to get snapshot from Redis")
		return nil, logging.NewError(logging.ErrorTypeStore, "failed to get snapshot", err, map[string]interface{}{"key": key})
	}

	var snap config.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logging.Logger.Error().Err(err).Str("key", key).Msg("Failed to unmarshal snapshot")
		return nil, logging.NewError(logging.ErrorTypeStore, "failed to unmarshal snapshot", err, map[string]interface{}{"key": key})
	}
	return &snap, nil
}

// ScanSnapshots lists the keys matching pattern.
func (s *RedisStore) ScanSnapshots(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, logging.NewError(logging.ErrorTypeStore, "failed to scan snapshots", err, map[string]interface{}{"pattern": pattern})
	}
	return keys, nil
}

// Subscribe listens for snapshot announcements on channels.
func (s *RedisStore) Subscribe(ctx context.Context, channels ...string) (*redis.PubSub, error) {
	logging.Logger.Info().Strs("channels", channels).Msg("Subscribing to Redis channels")

	pubsub := s.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, logging.NewError(logging.ErrorTypeStore, "failed to subscribe", err,
			map[string]interface{}{"channels": channels})
	}
	return pubsub, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
