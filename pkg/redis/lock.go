package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another process holds the lock
var ErrLocked = errors.New("lock held by another process")

// releaseScript 본인 토큰일 때만 삭제
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Lock is a single-holder lock (SET NX PX) used to keep one writer per run
type Lock struct {
	client *Client
	key    string
	token  string
}

// Acquire takes the lock for ttl. A disabled client always succeeds.
func Acquire(ctx context.Context, client *Client, key string, ttl time.Duration) (*Lock, error) {
	l := &Lock{client: client, key: "lock:" + key}
	if !client.Enabled() {
		return l, nil
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("lock token: %w", err)
	}
	l.token = hex.EncodeToString(buf)

	ok, err := client.rdb.SetNX(ctx, l.key, l.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock acquire failed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrLocked)
	}

	return l, nil
}

// Release frees the lock if still held by this holder
func (l *Lock) Release(ctx context.Context) error {
	if !l.client.Enabled() {
		return nil
	}
	return releaseScript.Run(ctx, l.client.rdb, []string{l.key}, l.token).Err()
}
