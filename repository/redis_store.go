package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/lawaid/soulsystem-backend/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the registry document under a single Redis key and uses
// WATCH/MULTI so concurrent writers from other processes are detected.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "soulsystem:registry"
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (*models.Registry, string, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return models.NewRegistry(), "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("redis get %s: %w", s.key, err)
	}
	doc, err := models.DecodeRegistry(data)
	if err != nil {
		return nil, "", fmt.Errorf("decode registry from redis: %w", err)
	}
	return doc, contentVersion(data), nil
}

func (s *RedisStore) Save(ctx context.Context, doc *models.Registry, expected string) (string, error) {
	data, err := doc.Encode()
	if err != nil {
		return "", fmt.Errorf("encode registry: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, s.key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if contentVersion(current) != expected {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}, s.key)

	switch {
	case err == nil:
		return contentVersion(data), nil
	case errors.Is(err, ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return "", ErrVersionConflict
	default:
		return "", fmt.Errorf("redis save %s: %w", s.key, err)
	}
}
