package config

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the client backing the token-bucket limiter on the
// credential endpoints.  The limiter is the only Redis consumer, so the
// surface is minimal: REDIS_ADDR (or REDIS_HOST/REDIS_PORT), an optional
// REDIS_PASSWORD, and REDIS_DB.  A nil return means the server could not be
// reached within the dial budget; callers disable rate limiting rather than
// hold sign-ins hostage to a cache outage.
func NewRedisClient() *redis.Client {
	addr := envStr("REDIS_ADDR", "")
	if addr == "" {
		addr = envStr("REDIS_HOST", "localhost") + ":" + envStr("REDIS_PORT", "6379")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          envInt("REDIS_DB", 0),
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
