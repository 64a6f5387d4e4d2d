package convstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "convstate:"

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a Store backed by Redis so that conversation
// state survives restarts and is shared when more than one bot instance
// runs behind a webhook. Expiry is delegated to Redis key TTLs.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

func redisKey(userID int64) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, userID)
}

func (r *redisStore) Set(ctx context.Context, userID int64, stage Stage, report *PendingReport) error {
	now := time.Now()
	entry := Entry{
		Stage:         stage,
		Report:        report,
		CreatedAt:     now,
		LastTouchedAt: now,
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal conversation state: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(userID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("store conversation state: %w", err)
	}
	return nil
}

func (r *redisStore) Get(ctx context.Context, userID int64) (*Entry, error) {
	payload, err := r.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation state: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		// Corrupt state is unrecoverable, drop it so the user can restart.
		_ = r.client.Del(ctx, redisKey(userID)).Err()
		return nil, nil
	}
	return &entry, nil
}

func (r *redisStore) Clear(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear conversation state: %w", err)
	}
	return nil
}
