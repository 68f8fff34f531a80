package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"resume-builder/internal/domain"
)

const sessionKeyPrefix = "resume:session:"

type redisKV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisSessions caches sessions as JSON values that expire after ttl.
type RedisSessions struct {
	client redisKV
	ttl    time.Duration
}

func NewRedisSessions(client redisKV, ttl time.Duration) *RedisSessions {
	return &RedisSessions{client: client, ttl: ttl}
}

func (r *RedisSessions) Save(ctx context.Context, s *domain.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+s.ID, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("caching session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	b, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}
	var s domain.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &s, nil
}
