package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"idsim/internal/correlation/models"
	"idsim/pkg/platform/sentinel"
)

const (
	pendingKeyPrefix = "pending:"
	pendingIndexKey  = "pending:index"
	maxWatchRetries  = 10
)

// RedisStore keeps pending operations as JSON strings, one key per token.
// No TTL is set: pending records live until their terminal callback.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key, e.g. per participant node.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedis constructs a Redis-backed store.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) key(token string) string {
	return s.prefix + pendingKeyPrefix + token
}

func (s *RedisStore) indexKey() string {
	return s.prefix + pendingIndexKey
}

// Create writes the record and its index entry in one MULTI under WATCH, so
// a reused token never overwrites a live record and the index never drifts.
func (s *RedisStore) Create(ctx context.Context, op *models.PendingOperation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("marshal pending operation: %w", err)
	}
	key := s.key(op.Token)
	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("pending operation %s: %w", op.Token, sentinel.ErrConflict)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, s.indexKey(), op.Token)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, sentinel.ErrConflict) {
			return fmt.Errorf("create pending operation: %w", err)
		}
		return err
	}
	return fmt.Errorf("create pending operation %s: too many concurrent writers: %w", op.Token, sentinel.ErrConflict)
}

func (s *RedisStore) Find(ctx context.Context, token string) (*models.PendingOperation, error) {
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pending operation %s: %w", token, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find pending operation: %w", err)
	}
	return decode(data)
}

// Update applies fn under WATCH, retrying when another writer touched the
// key between read and write.
func (s *RedisStore) Update(ctx context.Context, token string, fn func(*models.PendingOperation) error) error {
	key := s.key(token)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("pending operation %s: %w", token, sentinel.ErrNotFound)
		}
		if err != nil {
			return err
		}
		op, err := decode(data)
		if err != nil {
			return err
		}
		if err := fn(op); err != nil {
			return err
		}
		updated, err := json.Marshal(op)
		if err != nil {
			return fmt.Errorf("marshal pending operation: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update pending operation %s: too many concurrent writers: %w", token, sentinel.ErrConflict)
}

// Delete removes the record and its index entry in one MULTI and returns
// what was stored.
func (s *RedisStore) Delete(ctx context.Context, token string) (*models.PendingOperation, error) {
	var got *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		got = pipe.GetDel(ctx, s.key(token))
		pipe.SRem(ctx, s.indexKey(), token)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("delete pending operation: %w", err)
	}
	data, err := got.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete pending operation: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count pending operations: %w", err)
	}
	return int(n), nil
}

func decode(data []byte) (*models.PendingOperation, error) {
	var op models.PendingOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("unmarshal pending operation: %w", err)
	}
	return &op, nil
}
