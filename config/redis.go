package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is nil when REDIS_URL is not configured
var Redis *redis.Client

// ConnectRedis connects to REDIS_URL. A missing or unreachable Redis leaves
// the client nil; callers fall back to in-process behaviour.
func ConnectRedis(cfg *Config) *redis.Client {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, running without Redis")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("Invalid REDIS_URL: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis ping failed, running without Redis: %v", err)
		_ = client.Close()
		return nil
	}

	log.Println("Connected to Redis")
	Redis = client
	return client
}
