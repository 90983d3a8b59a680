// Package model holds domain types shared by the biz and data layers.
package model

import "time"

// Provider names as persisted with each valuation and provider log row.
const (
	ProviderSuperCar   = "SuperCar"
	ProviderPremiumCar = "PremiumCar"
)

// Valuation is the market value range of a vehicle, keyed by its VRM.
// It is created once per VRM and never updated afterwards.
type Valuation struct {
	VRM          string `json:"vrm"`
	LowestValue  int64  `json:"lowestValue"`
	HighestValue int64  `json:"highestValue"`
	ProviderName string `json:"providerName"`
}

// ProviderCall is the audit record of a single upstream provider request.
type ProviderCall struct {
	VRM          string
	ProviderName string
	RequestURL   string
	ResponseCode int    // 0 when no response was received
	ErrorMessage string // empty on success
	RequestTime  time.Time
	Duration     time.Duration
}

// Succeeded reports whether the call produced a valuation.
func (c *ProviderCall) Succeeded() bool {
	return c.ErrorMessage == ""
}
