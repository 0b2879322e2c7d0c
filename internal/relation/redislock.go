package relation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"alcyxob/fitness-content/internal/config"
	"alcyxob/fitness-content/internal/domain"
)

// releaseScript deletes the lease only when it still carries our token, so a
// lease that expired and was taken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance talking to one Redis.
// Leases expire after ttl so a crashed holder cannot block an owner forever.
type RedisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	poll   time.Duration
	logger *slog.Logger
}

// NewRedis opens a client for the lock store. DialTimeout and MaxRetries
// bound how long a lock attempt spends on an unreachable server.
func NewRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		MaxRetries:  cfg.MaxRetries,
	})
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, poll: 25 * time.Millisecond, logger: logger}
}

// Lock polls until the lease is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	// reached records that Redis answered at least once, so a later deadline
	// means the lease stayed taken rather than the server being down.
	reached := false
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || (reached && ctx.Err() != nil) {
				return nil, ctx.Err()
			}
			return nil, errors.Wrapf(domain.ErrStoreUnavailable, "acquire lease %s: %v", key, err)
		}
		reached = true
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() { l.release(key, token) })
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	// The request context may already be cancelled; the release must still run.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
		l.logger.Warn("failed to release lease, it will expire on its own", "key", key, "error", err)
	}
}
