// AngelaMos | 2026
// store.go

package metric

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store is the primary read path for metrics: one sorted set per user,
// scored by timestamp in unix milliseconds.
type Store interface {
	Put(ctx context.Context, m *Metric) error
	ListByUser(ctx context.Context, userID string) ([]Metric, error)
}

type redisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) Store {
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) key(userID string) string {
	return s.prefix + ":" + userID
}

func (s *redisStore) Put(ctx context.Context, m *Metric) error {
	member, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode metric: %w", err)
	}

	err = s.client.ZAdd(ctx, s.key(m.UserID), redis.Z{
		Score:  float64(m.Timestamp.UnixMilli()),
		Member: member,
	}).Err()
	if err != nil {
		return fmt.Errorf("put metric: %w", err)
	}

	return nil
}

func (s *redisStore) ListByUser(
	ctx context.Context,
	userID string,
) ([]Metric, error) {
	members, err := s.client.ZRevRange(ctx, s.key(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}

	metrics := make([]Metric, 0, len(members))
	for _, raw := range members {
		var m Metric
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decode metric: %w", err)
		}
		metrics = append(metrics, m)
	}

	return metrics, nil
}
