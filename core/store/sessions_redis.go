package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"restaurant-manager/core/utils"
)

const sessionRecordPurpose = "restaurant-manager/session-record"

func NewRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisSessionStore stores records encrypted at rest so tokens never sit in redis in clear text.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	enc    *utils.Encryptor
}

func NewRedisSessionStore(client *redis.Client, prefix, secret string) (*RedisSessionStore, error) {
	enc, err := utils.NewEncryptorFromSecret(secret, sessionRecordPurpose)
	if err != nil {
		return nil, err
	}
	return &RedisSessionStore{client: client, prefix: prefix, enc: enc}, nil
}

func (r *RedisSessionStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisSessionStore) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	blob, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	plain, err := r.enc.DecryptBlob(blob)
	if err != nil {
		return nil, fmt.Errorf("decrypt session: %w", err)
	}
	var rec SessionRecord
	if err := json.Unmarshal(plain, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RedisSessionStore) SaveSession(ctx context.Context, id string, rec *SessionRecord, ttl time.Duration) error {
	plain, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	blob, err := r.enc.EncryptToBlob(plain)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(id), blob, ttl).Err()
}

func (r *RedisSessionStore) DeleteSession(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *RedisSessionStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
