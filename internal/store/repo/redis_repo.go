package repo

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	fieldValue   = "value"
	fieldVersion = "version"
)

// RedisRepo keeps every key as a hash {value, version}; writes use WATCH/MULTI.
type RedisRepo struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisRepo(rdb *redis.Client, prefix string) *RedisRepo {
	return &RedisRepo{rdb: rdb, prefix: prefix}
}

func (r *RedisRepo) key(k string) string { return r.prefix + k }

func (r *RedisRepo) Get(ctx context.Context, key string) ([]byte, int64, error) {
	vals, err := r.rdb.HMGet(ctx, r.key(key), fieldValue, fieldVersion).Result()
	if err != nil {
		return nil, 0, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, 0, ErrNotFound
	}
	var version int64
	if s, ok := vals[1].(string); ok {
		version, _ = strconv.ParseInt(s, 10, 64)
	}
	return []byte(raw), version, nil
}

func (r *RedisRepo) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	k := r.key(key)
	var next int64
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, k, fieldVersion).Int64()
		if errors.Is(err, redis.Nil) {
			cur = 0
		} else if err != nil {
			return err
		}
		if cur != expected {
			return ErrVersionConflict
		}
		next = cur + 1
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, k, fieldValue, value, fieldVersion, next)
			return nil
		})
		return err
	}, k)
	if errors.Is(err, redis.TxFailedErr) {
		return 0, ErrVersionConflict
	}
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *RedisRepo) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}
