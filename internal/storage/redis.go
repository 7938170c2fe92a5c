package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/logging"
)

// KeyPrefix is prepended to every slice key stored in Redis.
const KeyPrefix = "annotations:"

// RedisOptions configures the Redis snapshotter.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// TTL is the expiry set on every save. Zero keeps snapshots forever.
	TTL time.Duration
}

// Redis keeps snapshots in Redis as JSON documents.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a client. It does not connect; call Ping to check the
// server is reachable.
func NewRedis(opts RedisOptions) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Redis{client: client, ttl: opts.TTL}
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Save writes store under KeyPrefix+key.
func (r *Redis) Save(ctx context.Context, key string, store *annotation.Store) error {
	data, err := json.Marshal(store)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, KeyPrefix+key, data, r.ttl).Err()
}

// Load reads the snapshot for key. A missing key returns (nil, nil).
func (r *Redis) Load(ctx context.Context, key string) (*annotation.Store, error) {
	data, err := r.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	store, err := decode(key, data)
	if err != nil {
		logging.L().Error("failed to decode annotation snapshot",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return store, nil
}

// Close releases the client's connections.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Open returns a Redis snapshotter when the server answers a ping, and
// otherwise logs a warning and falls back to Memory.
func Open(ctx context.Context, opts RedisOptions) Snapshotter {
	r := NewRedis(opts)
	if err := r.Ping(ctx); err != nil {
		logging.L().Warn("redis unavailable, keeping annotations in memory",
			zap.String("addr", opts.Addr), zap.Error(err))
		_ = r.Close()
		return NewMemory()
	}
	logging.L().Info("persisting annotations to redis", zap.String("addr", opts.Addr))
	return r
}
