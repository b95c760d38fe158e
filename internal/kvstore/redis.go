package kvstore

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// redisStore implements Store on a Redis connection.
type redisStore struct {
	client *redis.Client
}

// NewRedis creates a Store backed by Redis. The connection is verified with
// a ping so misconfiguration surfaces at startup rather than mid-request.
func NewRedis(ctx context.Context, addr, password string, db int) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, eris.Wrap(err, "kvstore: ping redis")
	}

	return &redisStore{client: client}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", classify(err, "get "+key)
	}
	return val, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return classify(err, "set "+key)
	}
	return nil
}

func (s *redisStore) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return classify(err, "del "+key)
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

// classify maps connection-level failures to ErrUnavailable so callers can
// distinguish "store down" from a bad command.
func classify(err error, op string) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return eris.Wrap(ErrUnavailable, op)
	}
	return eris.Wrap(err, "kvstore: "+op)
}
