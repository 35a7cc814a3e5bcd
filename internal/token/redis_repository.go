package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "refresh_tokens"

// RedisRepository keeps one hash per account (field = record id, value =
// JSON record) plus an owner key per record so Delete works from the id
// alone. Keys carry no TTL: expired records stay listed until deleted.
type RedisRepository struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisRepository(rdb redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisRepository{rdb: rdb, prefix: prefix}
}

func (r *RedisRepository) accountKey(accountID string) string {
	return r.prefix + ":account:" + accountID
}

func (r *RedisRepository) ownerKey(id string) string {
	return r.prefix + ":owner:" + id
}

func (r *RedisRepository) Insert(ctx context.Context, rt *RefreshToken) error {
	blob, err := json.Marshal(rt)
	if err != nil {
		return fmt.Errorf("encode refresh token: %w", err)
	}
	id, accountID := rt.ID.String(), rt.AccountID.String()
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.accountKey(accountID), id, blob)
		pipe.Set(ctx, r.ownerKey(id), accountID, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

// ListActive returns the account's non-revoked records, oldest first.
func (r *RedisRepository) ListActive(ctx context.Context, accountID uuid.UUID) ([]RefreshToken, error) {
	fields, err := r.rdb.HGetAll(ctx, r.accountKey(accountID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	tokens := make([]RefreshToken, 0, len(fields))
	for id, blob := range fields {
		var rt RefreshToken
		if err := json.Unmarshal([]byte(blob), &rt); err != nil {
			return nil, fmt.Errorf("decode refresh token %s: %w", id, err)
		}
		if !rt.Revoked {
			tokens = append(tokens, rt)
		}
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].CreatedAt.Before(tokens[j].CreatedAt)
	})
	return tokens, nil
}

// Delete removes a record by id. Deleting an absent id is not an error.
func (r *RedisRepository) Delete(ctx context.Context, id uuid.UUID) error {
	field := id.String()
	accountID, err := r.rdb.Get(ctx, r.ownerKey(field)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.accountKey(accountID), field)
		pipe.Del(ctx, r.ownerKey(field))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

// DeleteExpired removes every record whose expiry is at or before now.
func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	iter := r.rdb.Scan(ctx, 0, r.accountKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := r.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("redis error: %w", err)
		}

		var expired []string
		for id, blob := range fields {
			var rt RefreshToken
			if err := json.Unmarshal([]byte(blob), &rt); err != nil {
				return removed, fmt.Errorf("decode refresh token %s: %w", id, err)
			}
			if rt.Expired(now) {
				expired = append(expired, id)
			}
		}
		if len(expired) == 0 {
			continue
		}

		owners := make([]string, 0, len(expired))
		for _, id := range expired {
			owners = append(owners, r.ownerKey(id))
		}
		var hdel *redis.IntCmd
		_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			hdel = pipe.HDel(ctx, key, expired...)
			pipe.Del(ctx, owners...)
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("redis error: %w", err)
		}
		removed += hdel.Val()
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis error: %w", err)
	}
	return removed, nil
}
