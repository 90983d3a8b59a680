package biz

import (
	"context"
	"time"

	"CarValuator/internal/model"
)

// ValuationRepo stores valuations keyed by VRM.
type ValuationRepo interface {
	// FindByVRM returns the stored valuation or an error matching
	// gorm.ErrRecordNotFound when none exists.
	FindByVRM(ctx context.Context, vrm string) (*model.Valuation, error)
	// CreateValuation inserts a new valuation. A concurrent insert of the same
	// VRM fails with a duplicate key error.
	CreateValuation(ctx context.Context, valuation *model.Valuation) error
}

// PrimaryProvider is the preferred valuation source. It takes mileage into account.
type PrimaryProvider interface {
	Name() string
	FetchValuation(ctx context.Context, vrm string, mileage int64) (*model.Valuation, error)
}

// SecondaryProvider is the fallback valuation source.
type SecondaryProvider interface {
	Name() string
	FetchValuation(ctx context.Context, vrm string) (*model.Valuation, error)
}

// ProviderLogRepo manages the retained provider call log.
type ProviderLogRepo interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
