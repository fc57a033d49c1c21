package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mansoorceksport/hutraz/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore keeps each state key as a Redis string under a prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Load retrieves a value with OTel tracing
func (r *RedisStore) Load(ctx context.Context, key string) (_ json.RawMessage, err error) {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("store.key", key)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.String("store.result", "miss"))
			return nil, nil
		}
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	span.SetAttributes(attribute.String("store.result", "hit"))
	return data, nil
}

// Save stores a value without expiry, with OTel tracing
func (r *RedisStore) Save(ctx context.Context, key string, value json.RawMessage) (err error) {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("store.key", key),
			attribute.Int("store.bytes", len(value)),
		),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := r.client.Set(ctx, r.prefix+key, []byte(value), 0).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
