package redisseq

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "gebeya:order_seq"

// Sequence hands out order-number suffixes from a Redis counter, so they stay
// unique across every process sharing the instance.
type Sequence struct {
	client *redis.Client
	key    string
}

func New(client *redis.Client, key string) *Sequence {
	if key == "" {
		key = DefaultKey
	}
	return &Sequence{client: client, key: key}
}

func (s *Sequence) Next(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", s.key, err)
	}
	return n, nil
}
