package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inventario/inventario/internal/shared"
)

// incrementScript bumps a cart line only while the owning session exists, so a
// concurrent logout can never resurrect a cart for a dead token. It replies -1
// for a missing session and -2 when the sum would pass ARGV[4].
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
local current = tonumber(redis.call('HGET', KEYS[2], ARGV[1]) or '0')
local add = tonumber(ARGV[2])
if add < 1 or add > tonumber(ARGV[4]) - current then
  return -2
end
local qty = redis.call('HINCRBY', KEYS[2], ARGV[1], ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[2], ARGV[3])
end
return qty
`)

// touchScript refreshes last_activity and the TTLs only while the session
// hash exists, so a touch racing a logout cannot recreate it.
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'last_activity', ARGV[1])
if tonumber(ARGV[2]) > 0 then
  for i = 1, #KEYS do
    redis.call('PEXPIRE', KEYS[i], ARGV[2])
  end
end
return 1
`)

// RedisStore keeps sessions in Redis hashes. Every key carries the idle
// timeout as TTL, refreshed on activity, so abandoned sessions expire without
// a sweep. Cart lines are hash fields updated with HINCRBY/HDEL, which are
// atomic per item.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore. ttl should equal the idle timeout.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(token string) string { return "session:" + token }
func cartKey(token string) string    { return "cart:" + token }
func flashKey(token string) string   { return "flash:" + token }

// Get loads the session hash.
func (s *RedisStore) Get(ctx context.Context, token string) (Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil {
		return Session{}, err
	}
	if len(fields) == 0 {
		return Session{}, ErrSessionNotFound
	}
	role, err := shared.ParseRole(fields["role"])
	if err != nil {
		return Session{}, fmt.Errorf("session: stored role: %w", err)
	}
	created, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	active, _ := strconv.ParseInt(fields["last_activity"], 10, 64)
	return Session{
		Token:        token,
		Username:     fields["username"],
		Role:         role,
		CreatedAt:    time.Unix(0, created).UTC(),
		LastActivity: time.Unix(0, active).UTC(),
	}, nil
}

// Rotate deletes oldToken and writes next in a MULTI/EXEC block.
func (s *RedisStore) Rotate(ctx context.Context, oldToken string, next Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if oldToken != "" {
			pipe.Del(ctx, sessionKey(oldToken), cartKey(oldToken), flashKey(oldToken))
		}
		pipe.HSet(ctx, sessionKey(next.Token),
			"username", next.Username,
			"role", next.Role.String(),
			"created_at", next.CreatedAt.UnixNano(),
			"last_activity", next.LastActivity.UnixNano(),
		)
		s.expire(ctx, pipe, sessionKey(next.Token))
		return nil
	})
	return err
}

// Touch records activity and extends every key scoped to the token. A
// session deleted meanwhile is reported as ErrSessionNotFound.
func (s *RedisStore) Touch(ctx context.Context, token string, at time.Time) error {
	keys := []string{sessionKey(token), cartKey(token), flashKey(token)}
	res, err := touchScript.Run(ctx, s.client, keys, at.UnixNano(), s.ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if res == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes the session and everything scoped to it.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	err := s.client.Del(ctx, sessionKey(token), cartKey(token), flashKey(token)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Sweep is a no-op: key TTLs already evict idle sessions.
func (s *RedisStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

// IncrementItem adds qty to the cart line and returns the new quantity.
func (s *RedisStore) IncrementItem(ctx context.Context, token string, itemID int64, qty int) (int, error) {
	keys := []string{sessionKey(token), cartKey(token)}
	res, err := incrementScript.Run(ctx, s.client, keys,
		strconv.FormatInt(itemID, 10), qty, s.ttl.Milliseconds(), shared.MaxCartQuantity).Int64()
	if err != nil {
		return 0, err
	}
	switch res {
	case -1:
		return 0, ErrSessionNotFound
	case -2:
		return 0, shared.ErrInvalidQuantity
	}
	return int(res), nil
}

// RemoveItem deletes the cart line.
func (s *RedisStore) RemoveItem(ctx context.Context, token string, itemID int64) error {
	exists, err := s.client.Exists(ctx, sessionKey(token)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrSessionNotFound
	}
	return s.client.HDel(ctx, cartKey(token), strconv.FormatInt(itemID, 10)).Err()
}

// Items returns the cart lines.
func (s *RedisStore) Items(ctx context.Context, token string) (map[int64]int, error) {
	fields, err := s.client.HGetAll(ctx, cartKey(token)).Result()
	if err != nil {
		return nil, err
	}
	items := make(map[int64]int, len(fields))
	for rawID, rawQty := range fields {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(rawQty)
		if err != nil || qty <= 0 {
			continue
		}
		items[id] = qty
	}
	return items, nil
}

// PushFlash queues a flash message.
func (s *RedisStore) PushFlash(ctx context.Context, token string, msg shared.FlashMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, flashKey(token), data)
		s.expire(ctx, pipe, flashKey(token))
		return nil
	})
	return err
}

// PopFlash retrieves and clears the oldest flash message.
func (s *RedisStore) PopFlash(ctx context.Context, token string) (*shared.FlashMessage, error) {
	data, err := s.client.LPop(ctx, flashKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var msg shared.FlashMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *RedisStore) expire(ctx context.Context, pipe redis.Pipeliner, key string) {
	if s.ttl > 0 {
		pipe.PExpire(ctx, key, s.ttl)
	}
}

var _ Store = (*RedisStore)(nil)
