package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zekoya/storefront/utils"
)

// ReportCache stores rendered report payloads. A nil Redis client turns it
// into a no-op.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// Get decodes the cached value into dest and reports whether it was found
func (rc *ReportCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if rc == nil || rc.client == nil {
		return false
	}
	raw, err := rc.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			utils.LogError("Report cache read failed for %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		utils.LogError("Report cache entry %s is corrupt: %v", key, err)
		return false
	}
	return true
}

// Set stores value under key for the cache TTL
func (rc *ReportCache) Set(ctx context.Context, key string, value interface{}) {
	if rc == nil || rc.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		utils.LogError("Failed to encode report cache entry %s: %v", key, err)
		return
	}
	if err := rc.client.Set(ctx, key, raw, rc.ttl).Err(); err != nil {
		utils.LogError("Report cache write failed for %s: %v", key, err)
	}
}

// Invalidate drops every cached report. Called after writes that change sales figures.
func (rc *ReportCache) Invalidate(ctx context.Context) {
	if rc == nil || rc.client == nil {
		return
	}
	iter := rc.client.Scan(ctx, 0, "reports:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := rc.client.Del(ctx, iter.Val()).Err(); err != nil {
			utils.LogError("Failed to drop report cache key %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		utils.LogError("Report cache scan failed: %v", err)
	}
}
