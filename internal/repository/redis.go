package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tourbook/internal/config"
	"tourbook/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	selectionKeyPrefix = "tourbook:selection:"
	clickKeyPrefix     = "tourbook:clicks:"
)

var errNoRedis = errors.New("redis client is nil")

// RedisStateRepository keeps calendar selections in Redis with a sliding TTL.
type RedisStateRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisStateRepository(client *redis.Client, ttl time.Duration) *RedisStateRepository {
	return &RedisStateRepository{client: client, ttl: ttl}
}

func (r *RedisStateRepository) GetSelection(ctx context.Context, sessionID string) (*models.SelectionState, error) {
	if r.client == nil {
		return nil, errNoRedis
	}
	val, err := r.client.Get(ctx, selectionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get selection from redis: %w", err)
	}

	var state models.SelectionState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, fmt.Errorf("unmarshal selection: %w", err)
	}
	return &state, nil
}

func (r *RedisStateRepository) SetSelection(ctx context.Context, state *models.SelectionState) error {
	if r.client == nil {
		return errNoRedis
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	if err := r.client.Set(ctx, selectionKeyPrefix+state.SessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set selection in redis: %w", err)
	}
	return nil
}

func (r *RedisStateRepository) ClearSelection(ctx context.Context, sessionID string) error {
	if r.client == nil {
		return errNoRedis
	}
	if err := r.client.Del(ctx, selectionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete selection from redis: %w", err)
	}
	return nil
}

// CheckRateLimit counts clicks in a fixed window starting at the first click.
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, sessionID string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNoRedis
	}
	key := clickKeyPrefix + sessionID
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("count click: %w", err)
	}
	return incr.Val() <= int64(limit), nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return errNoRedis
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
