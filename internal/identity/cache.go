package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go-gin-event-tickets/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "identity:"

// CachedResolver remembers verified credentials in Redis so repeated requests
// with the same token skip signature checks. Entries never outlive the token.
type CachedResolver struct {
	verifier Verifier
	client   *redis.Client
	ttl      time.Duration
	now      func() time.Time
}

func NewCachedResolver(v Verifier, client *redis.Client, ttl time.Duration) *CachedResolver {
	return &CachedResolver{verifier: v, client: client, ttl: ttl, now: time.Now}
}

func (r *CachedResolver) cacheKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (r *CachedResolver) ResolveUsername(ctx context.Context, credential string) (string, error) {
	log := logger.WithComponent("identity")
	key := r.cacheKey(credential)

	cached, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var id Identity
		if jsonErr := json.Unmarshal([]byte(cached), &id); jsonErr == nil && r.stillValid(id) {
			return id.Username, nil
		}
	case !errors.Is(err, redis.Nil):
		// Redis 不可用時直接驗證
		log.Warn("identity cache read failed", zap.Error(err))
	}

	id, err := r.verifier.Verify(ctx, credential)
	if err != nil {
		return "", err
	}

	if ttl := r.entryTTL(id); ttl > 0 {
		payload, _ := json.Marshal(id)
		if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
			log.Warn("identity cache write failed", zap.Error(err))
		}
	}
	return id.Username, nil
}

func (r *CachedResolver) stillValid(id Identity) bool {
	return id.ExpiresAt.IsZero() || r.now().Before(id.ExpiresAt)
}

func (r *CachedResolver) entryTTL(id Identity) time.Duration {
	ttl := r.ttl
	if !id.ExpiresAt.IsZero() {
		if untilExpiry := id.ExpiresAt.Sub(r.now()); untilExpiry < ttl {
			ttl = untilExpiry
		}
	}
	return ttl
}
