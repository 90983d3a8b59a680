// Package data provides data access layer implementations.
// It handles database connections, caches and the upstream valuation providers.
package data

import (
	"fmt"
	"time"

	"CarValuator/internal/conf"
	"CarValuator/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLocalCacheSize = 10000
	defaultCacheTTL       = 24 * time.Hour
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedisClient,
	NewCacheClient,
	NewMySQLClient,
	NewValuationRepo,
	NewProviderLogRepo,
	NewSuperCarClient,
	NewPremiumCarClient,
	NewFailoverNotifier,
	wire.Bind(new(ProviderCallRecorder), new(*ProviderLogRepo)),
)

// Data contains the shared caches used by repositories.
type Data struct {
	cache    CacheClient
	local    *lru.Cache[string, model.Valuation]
	cacheTTL time.Duration
}

// NewData creates a new Data instance.
// A missing Redis client does not prevent startup; lookups fall through to MySQL.
func NewData(c *conf.Data, logger log.Logger, rdb *redis.Client, cache CacheClient) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	size := defaultLocalCacheSize
	ttl := defaultCacheTTL
	if c != nil && c.Cache != nil {
		if c.Cache.LocalSize > 0 {
			size = int(c.Cache.LocalSize)
		}
		if c.Cache.Ttl != nil && c.Cache.Ttl.AsDuration() > 0 {
			ttl = c.Cache.Ttl.AsDuration()
		}
	}

	local, err := lru.New[string, model.Valuation](size)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create local valuation cache: %w", err)
	}

	if rdb == nil {
		helper.Warn("Redis client is nil, shared valuation cache will be unavailable")
		cache = nil
	}

	d := &Data{
		cache:    cache,
		local:    local,
		cacheTTL: ttl,
	}

	cleanup := func() {
		helper.Infow("msg", "closing the data resources", "local_cache_entries", local.Len())
		local.Purge()
	}

	return d, cleanup, nil
}

// GetCache returns the shared cache, or nil when Redis is not configured.
func (d *Data) GetCache() CacheClient {
	return d.cache
}
