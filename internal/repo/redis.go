package repo

import (
	"CineVault/config"
	"CineVault/model"
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

type RedisLock struct {
	rdb   *redis.Client
	key   string
	token string
	ttl   time.Duration
}

// InitRedis initializes Redis client.
func InitRedis() {
	RedisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.AppConfig.RedisHost, config.AppConfig.RedisPort),
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})
	_, err := RedisClient.Ping(context.Background()).Result()
	if err != nil {
		log.Fatal("init redis fail", err)
	}
	log.Println("init redis success")
	Redis = RedisClient
}

// EnableKeyspaceNotifications enables Redis keyspace events.
func EnableKeyspaceNotifications(ctx context.Context) error {
	if Redis == nil {
		return errors.New("redis not initialized")
	}
	return Redis.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err()
}

// NewRedisLock creates a Redis lock helper.
func NewRedisLock(rdb *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		rdb: rdb,
		key: key,
		ttl: ttl,
	}
}

// Lock acquires a Redis-based lock.
func (l *RedisLock) Lock(ctx context.Context) error {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("lock is busy")
	}
	l.token = token
	return nil
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Unlock releases a Redis-based lock.
func (l *RedisLock) Unlock(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	_, err := unlockScript.Run(
		ctx,
		l.rdb,
		[]string{l.key},
		l.token,
	).Result()
	return err
}

// TrackBlacklistExpiry sets a TTL key so the expiry listener can
// deactivate the blacklist entry when it runs out.
func TrackBlacklistExpiry(ctx context.Context, entryID uint64, expiresAt time.Time) error {
	if Redis == nil {
		return errors.New("redis not initialized")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	key := "blacklist:" + strconv.FormatUint(entryID, 10)
	return Redis.Set(ctx, key, "1", ttl).Err()
}

// ListenRedisExpired listens for Redis expired events.
func ListenRedisExpired(ctx context.Context, rdb *redis.Client, ready chan<- struct{}) {
	pubsub := rdb.Subscribe(ctx, "__keyevent@0__:expired")
	_, err := pubsub.Receive(ctx)
	if err != nil {
		log.Fatalf("subscribe failed: %v", err)
	}
	close(ready)
	ch := pubsub.Channel()

	for msg := range ch {
		handleExpiredKey(ctx, msg.Payload)
	}
}

// handleExpiredKey dispatches expired-key handlers.
func handleExpiredKey(ctx context.Context, key string) {
	switch {
	case strings.HasPrefix(key, "blacklist:"):
		handleBlacklistExpired(ctx, key)
	default:
	}
}

// handleBlacklistExpired deactivates a blacklist entry whose window ended.
func handleBlacklistExpired(_ context.Context, key string) {
	raw := strings.TrimPrefix(key, "blacklist:")
	entryID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return
	}
	Db.Model(&model.BlacklistedIP{}).
		Where("id = ?", entryID).
		Update("is_active", false)

	log.Println("blacklist entry expired:", entryID)
}
