package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "lock:"

// ErrLockNotAcquired - блокировку не удалось получить за отведенное время
var ErrLockNotAcquired = errors.New("lock not acquired")

// Снимаем блокировку только если она все еще наша
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker - распределенная блокировка по ключу (SET NX PX)
type Locker struct {
	client   *Client
	ttl      time.Duration
	wait     time.Duration
	interval time.Duration
}

// NewLocker создает блокировку.
// ttl - время жизни ключа, wait - сколько ждать освобождения, interval - период повторных попыток.
func NewLocker(client *Client, ttl, wait, interval time.Duration) *Locker {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Locker{client: client, ttl: ttl, wait: wait, interval: interval}
}

// Acquire ждет блокировку по ключу и возвращает функцию освобождения
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	fullKey := lockPrefix + key

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return func() {
				// Освобождаем даже если контекст запроса уже отменен
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client.GetClient(), []string{fullKey}, token).Err()
			}, nil
		}

		if !time.Now().Add(l.interval).Before(deadline) {
			return nil, ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.interval):
		}
	}
}
