package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"idsim/internal/rp/models"
	"idsim/pkg/platform/sentinel"
)

const (
	policyKeyPrefix = "rp_policy:"
	policyIndexKey  = "rp_policy:index"
)

// RedisStore keeps one JSON value per request id. A TTL, when set, bounds
// how long a policy survives a request whose closing event never arrives.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTTL expires stored policies after ttl. Zero keeps them until Dispose.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) key(requestID string) string {
	return s.prefix + policyKeyPrefix + requestID
}

func (s *RedisStore) indexKey() string {
	return s.prefix + policyIndexKey
}

func (s *RedisStore) Save(ctx context.Context, p *models.RequestPolicy) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal request policy: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(p.RequestID), data, s.ttl)
		pipe.SAdd(ctx, s.indexKey(), p.RequestID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save request policy: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, requestID string) (*models.RequestPolicy, error) {
	data, err := s.client.Get(ctx, s.key(requestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("request policy %s: %w", requestID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find request policy: %w", err)
	}
	var p models.RequestPolicy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal request policy: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) Dispose(ctx context.Context, requestID string) (bool, error) {
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.key(requestID))
		pipe.SRem(ctx, s.indexKey(), requestID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("dispose request policy: %w", err)
	}
	return deleted.Val() > 0, nil
}

// Count reports indexed policies. Entries expired by TTL stay in the index
// until disposed.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count request policies: %w", err)
	}
	return int(n), nil
}
