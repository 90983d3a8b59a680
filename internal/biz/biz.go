// Package biz contains the valuation business rules: provider failover and
// the create-or-fetch valuation flow.
package biz

import (
	"CarValuator/internal/data"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewFailoverController,
	NewValuationUsecase,
	NewProviderLogRetentionTask,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(ValuationRepo), new(*data.ValuationRepo)),
	wire.Bind(new(PrimaryProvider), new(*data.SuperCarClient)),
	wire.Bind(new(SecondaryProvider), new(*data.PremiumCarClient)),
	wire.Bind(new(ProviderLogRepo), new(*data.ProviderLogRepo)),
	wire.Bind(new(FailoverObserver), new(*data.FailoverNotifier)),
)
