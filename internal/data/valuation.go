package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CarValuator/internal/model"
	pkglog "CarValuator/pkg/log"
	"CarValuator/pkg/metrics"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// Cache layers reported to the cache hit metric.
const (
	cacheLayerLocal = "local"
	cacheLayerRedis = "redis"
	cacheLayerMySQL = "mysql"
)

// ValuationRecord is the GORM model for the valuations table.
// The vrm primary key makes the first insert for a registration win. Its
// binary collation keeps lookups case-sensitive like the cache layers.
type ValuationRecord struct {
	VRM          string    `gorm:"primaryKey;column:vrm;type:varchar(7) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin"`
	LowestValue  int64     `gorm:"column:lowest_value;not null"`
	HighestValue int64     `gorm:"column:highest_value;not null"`
	ProviderName string    `gorm:"column:provider_name;type:varchar(32);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (ValuationRecord) TableName() string {
	return "valuations"
}

func (r *ValuationRecord) toModel() *model.Valuation {
	return &model.Valuation{
		VRM:          r.VRM,
		LowestValue:  r.LowestValue,
		HighestValue: r.HighestValue,
		ProviderName: r.ProviderName,
	}
}

// ValuationRepo implements biz.ValuationRepo.
//
// Reads go through the in-process LRU, then Redis, then MySQL, filling the
// faster layers on the way back. Valuations never change once written, so
// cached entries are never invalidated.
type ValuationRepo struct {
	db     *gorm.DB
	data   *Data
	logger *pkglog.LogHelper
}

// NewValuationRepo creates a ValuationRepo.
func NewValuationRepo(db *gorm.DB, d *Data, logger log.Logger) *ValuationRepo {
	return &ValuationRepo{
		db:     db,
		data:   d,
		logger: pkglog.NewLogHelper(logger),
	}
}

// FindByVRM returns the valuation for vrm. A missing row yields an error
// wrapping gorm.ErrRecordNotFound.
func (r *ValuationRepo) FindByVRM(ctx context.Context, vrm string) (*model.Valuation, error) {
	if v, ok := r.data.local.Get(vrm); ok {
		metrics.CacheHits.WithLabelValues(cacheLayerLocal).Inc()
		return &v, nil
	}

	if cache := r.data.GetCache(); cache != nil {
		var cached model.Valuation
		err := cache.Get(ctx, BuildCacheKey(CacheKeyValuation, vrm), &cached)
		switch {
		case err == nil:
			metrics.CacheHits.WithLabelValues(cacheLayerRedis).Inc()
			r.data.local.Add(vrm, cached)
			return &cached, nil
		case errors.Is(err, ErrCacheNotFound):
			r.logger.Cache("redis valuation miss", "vrm", vrm)
		default:
			r.logger.Warnw("msg", "redis valuation lookup failed, falling back to MySQL", "vrm", vrm, "error", err)
		}
	}

	var record ValuationRecord
	if err := r.db.WithContext(ctx).Where("vrm = ?", vrm).First(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to find valuation %s: %w", vrm, err)
	}
	metrics.CacheHits.WithLabelValues(cacheLayerMySQL).Inc()

	valuation := record.toModel()
	r.fillCaches(ctx, valuation)
	return valuation, nil
}

// CreateValuation inserts valuation. Duplicate key errors are returned
// unchanged so callers can classify them.
func (r *ValuationRepo) CreateValuation(ctx context.Context, valuation *model.Valuation) error {
	record := &ValuationRecord{
		VRM:          valuation.VRM,
		LowestValue:  valuation.LowestValue,
		HighestValue: valuation.HighestValue,
		ProviderName: valuation.ProviderName,
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert valuation %s: %w", record.VRM, err)
	}

	r.logger.Database("valuation inserted", "vrm", record.VRM, "provider_name", record.ProviderName)
	r.fillCaches(ctx, record.toModel())
	return nil
}

func (r *ValuationRepo) fillCaches(ctx context.Context, valuation *model.Valuation) {
	r.data.local.Add(valuation.VRM, *valuation)

	cache := r.data.GetCache()
	if cache == nil {
		return
	}
	if err := cache.Set(ctx, BuildCacheKey(CacheKeyValuation, valuation.VRM), valuation, r.data.cacheTTL); err != nil {
		r.logger.Warnw("msg", "failed to cache valuation in redis", "vrm", valuation.VRM, "error", err)
	}
}
