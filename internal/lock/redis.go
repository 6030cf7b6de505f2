package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ms-booking/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a SET NX lock with an owner token. The TTL bounds how long a
// crashed holder can block the key.
type Redis struct {
	Client       *redis.Client
	TTL          time.Duration
	PollInterval time.Duration
	Logger       *logger.Logger
}

func NewRedis(client *redis.Client, ttl, poll time.Duration, log *logger.Logger) *Redis {
	if log == nil {
		log = logger.Nop()
	}
	return &Redis{Client: client, TTL: ttl, PollInterval: poll, Logger: log}
}

// Lock polls until the key is free or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	token := uuid.NewString()
	ticker := time.NewTicker(r.PollInterval)
	defer ticker.Stop()

	for {
		ok, err := r.Client.SetNX(ctx, key, token, r.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.Client, []string{key}, token).Err(); err != nil {
				r.Logger.Error("REDIS", fmt.Sprintf("Failed to release %s: %v", key, err))
			}
		})
	}, nil
}
