package upload

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisSessionPrefix = "closerclub:upload:session:"

// RedisSessionStore keeps upload sessions in redis, one key per file
// identity. Keys expire server-side as a backstop to Cleanup.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, fileID string) (*Session, error) {
	data, err := s.rdb.Get(ctx, redisSessionPrefix+fileID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisSessionPrefix+session.FileID, data, s.ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, fileID string) error {
	return s.rdb.Del(ctx, redisSessionPrefix+fileID).Err()
}

func (s *RedisSessionStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	iter := s.rdb.Scan(ctx, 0, redisSessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil || sess.CreatedAt.Before(cutoff) {
			if err := s.rdb.Del(ctx, key).Err(); err == nil {
				removed++
			}
		}
	}
	return removed, iter.Err()
}
