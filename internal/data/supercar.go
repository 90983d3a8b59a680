package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"CarValuator/internal/conf"
	"CarValuator/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

type superCarResponse struct {
	Valuation struct {
		LowerValue *float64 `json:"lowerValue"`
		UpperValue *float64 `json:"upperValue"`
	} `json:"valuation"`
}

// SuperCarClient calls the SuperCar valuation API, the primary provider.
type SuperCarClient struct {
	*providerClient
	baseURL string
}

// NewSuperCarClient creates the SuperCar client from providers.super_car.
func NewSuperCarClient(c *conf.Providers, recorder ProviderCallRecorder, logger log.Logger) (*SuperCarClient, error) {
	var pc *conf.Provider
	if c != nil {
		pc = c.SuperCar
	}

	base, err := newProviderClient(model.ProviderSuperCar, pc, recorder, logger)
	if err != nil {
		return nil, err
	}

	return &SuperCarClient{
		providerClient: base,
		baseURL:        strings.TrimRight(pc.BaseUrl, "/"),
	}, nil
}

// FetchValuation requests GET {base}/valuations/{vrm}?mileage={mileage}.
func (c *SuperCarClient) FetchValuation(ctx context.Context, vrm string, mileage int64) (valuation *model.Valuation, err error) {
	call := c.begin(vrm, fmt.Sprintf("%s/valuations/%s?mileage=%d", c.baseURL, url.PathEscape(vrm), mileage))
	defer func() { c.finish(ctx, call, err) }()

	body, err := c.get(ctx, call, "application/json")
	if err != nil {
		return nil, err
	}

	var resp superCarResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.fail(call, fmt.Errorf("decode response: %w", err))
	}
	if resp.Valuation.LowerValue == nil || resp.Valuation.UpperValue == nil {
		return nil, c.fail(call, errors.New("response has no valuation range"))
	}

	return &model.Valuation{
		VRM:          vrm,
		LowestValue:  wholePounds(*resp.Valuation.LowerValue),
		HighestValue: wholePounds(*resp.Valuation.UpperValue),
		ProviderName: c.name,
	}, nil
}
