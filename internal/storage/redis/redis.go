package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"account_service/internal/storage"

	"github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
	}, nil
}

// NewWithClient wraps an existing client; used by tests.
func NewWithClient(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

func sessionPrefix(userID int64) string {
	return fmt.Sprintf("u-%d-", userID)
}

func resetKey(token string) string {
	return "reset_" + token
}

// SessionExists reports whether the given session token is live.
func (r *RedisRepo) SessionExists(ctx context.Context, token string) (bool, error) {
	const op = "storage.redis.SessionExists"

	n, err := r.client.Exists(ctx, token).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

// RevokeUserSessions deletes every session key under the user's prefix.
// SCAN is iterated to the end so large result sets are fully drained; a
// single LIST-style page is not enough to guarantee the invariant that no
// stale token outlives a credential change.
func (r *RedisRepo) RevokeUserSessions(ctx context.Context, userID int64) error {
	const op = "storage.redis.RevokeUserSessions"

	iter := r.client.Scan(ctx, 0, sessionPrefix(userID)+"*", 100).Iterator()

	batch := make([]string, 0, 100)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := flush(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) SaveResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	const op = "storage.redis.SaveResetToken"

	err := r.client.Set(ctx, resetKey(token), strconv.FormatInt(userID, 10), ttl).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) ResetTokenAvailable(ctx context.Context, token string) (bool, error) {
	const op = "storage.redis.ResetTokenAvailable"

	n, err := r.client.Exists(ctx, resetKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

// ConsumeResetToken returns the user id stored under the token and removes
// the key in the same GETDEL call, so two concurrent confirmations cannot
// both succeed.
func (r *RedisRepo) ConsumeResetToken(ctx context.Context, token string) (int64, error) {
	const op = "storage.redis.ConsumeResetToken"

	val, err := r.client.GetDel(ctx, resetKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, storage.ErrTokenNotFound
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: corrupt token value: %w", op, err)
	}

	return userID, nil
}

func (r *RedisRepo) Close() {
	r.client.Close()
}
