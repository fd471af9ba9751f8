package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "dialog:state:"

// RedisStateStore persists snapshots in Redis with a TTL so abandoned
// dialogs expire on their own.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateStore constructs the store.
func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStateStore{client: client, ttl: ttl}
}

func stateKey(conversationID string) string {
	return stateKeyPrefix + conversationID
}

// Load fetches the active snapshot, or nil when none exists.
func (s *RedisStateStore) Load(ctx context.Context, conversationID string) (*Snapshot, error) {
	raw, err := s.client.Get(ctx, stateKey(conversationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load dialog state: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode dialog state: %w", err)
	}
	if snapshot.Tokens == nil {
		snapshot.Tokens = map[string]string{}
	}
	return &snapshot, nil
}

// Save serializes and stores the snapshot under the conversation key.
func (s *RedisStateStore) Save(ctx context.Context, conversationID string, snapshot *Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, stateKey(conversationID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save dialog state: %w", err)
	}
	return nil
}

// Clear tears down the conversation's dialog state.
func (s *RedisStateStore) Clear(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, stateKey(conversationID)).Err(); err != nil {
		return fmt.Errorf("clear dialog state: %w", err)
	}
	return nil
}
