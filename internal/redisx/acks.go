package redisx

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// AckStore keeps acknowledged notification ids in a redis set.
type AckStore struct {
	RDB redis.Cmdable
	Key string
}

func (s *AckStore) key() string {
	if s.Key == "" {
		return KeyNotificationAcks
	}
	return s.Key
}

func (s *AckStore) Load(ctx context.Context) ([]string, error) {
	return s.RDB.SMembers(ctx, s.key()).Result()
}

// Save replaces the stored set with ids.
func (s *AckStore) Save(ctx context.Context, ids []string) error {
	_, err := s.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.key())
		if len(ids) > 0 {
			members := make([]any, len(ids))
			for i, id := range ids {
				members[i] = id
			}
			p.SAdd(ctx, s.key(), members...)
		}
		return nil
	})
	return err
}
