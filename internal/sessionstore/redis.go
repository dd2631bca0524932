package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/domain"
)

// connectTimeout bounds the initial PING.
const connectTimeout = 5 * time.Second

// Redis stores sessions in Redis with SET ... EX.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

var _ auth.SessionStore = (*Redis)(nil)

// OpenRedis connects to the Redis server at redisURL and checks it answers.
func OpenRedis(ctx context.Context, redisURL string, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	logger.Info("Redis session store connected", "addr", opts.Addr, "db", opts.DB)
	return &Redis{client: client, logger: logger}, nil
}

// Save implements auth.SessionStore.
func (r *Redis) Save(ctx context.Context, sessionID string, identity domain.Identity, ttl time.Duration) error {
	data, err := encode(identity)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(sessionID), data, ttl).Err()
}

// Load implements auth.SessionStore.
func (r *Redis) Load(ctx context.Context, sessionID string) (domain.Identity, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Identity{}, auth.ErrSessionNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}
	return decode(data)
}

// Delete implements auth.SessionStore.
func (r *Redis) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, sessionKey(sessionID)).Err()
}

// Ping implements auth.SessionStore.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
