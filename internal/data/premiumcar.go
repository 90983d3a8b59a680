package data

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"CarValuator/internal/conf"
	"CarValuator/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/text/encoding/htmlindex"
)

type premiumCarResponse struct {
	XMLName            xml.Name `xml:"root"`
	PrivateSaleMinimum *string  `xml:"ValuationPrivateSaleMinimum"`
	PrivateSaleMaximum *string  `xml:"ValuationPrivateSaleMaximum"`
	DealershipMinimum  *string  `xml:"ValuationDealershipMinimum"`
	DealershipMaximum  *string  `xml:"ValuationDealershipMaximum"`
}

// PremiumCarClient calls the PremiumCar valuation API, the secondary provider.
// It does not take mileage into account.
type PremiumCarClient struct {
	*providerClient
	endpoint *url.URL
}

// NewPremiumCarClient creates the PremiumCar client from providers.premium_car.
func NewPremiumCarClient(c *conf.Providers, recorder ProviderCallRecorder, logger log.Logger) (*PremiumCarClient, error) {
	var pc *conf.Provider
	if c != nil {
		pc = c.PremiumCar
	}

	base, err := newProviderClient(model.ProviderPremiumCar, pc, recorder, logger)
	if err != nil {
		return nil, err
	}

	endpoint, err := url.Parse(pc.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid %s base URL: %w", model.ProviderPremiumCar, err)
	}

	return &PremiumCarClient{providerClient: base, endpoint: endpoint}, nil
}

// FetchValuation requests GET {base}?vrm={vrm} and reads the XML valuation.
// Private sale values are preferred; dealership values fill in when absent.
func (c *PremiumCarClient) FetchValuation(ctx context.Context, vrm string) (valuation *model.Valuation, err error) {
	call := c.begin(vrm, c.requestURL(vrm))
	defer func() { c.finish(ctx, call, err) }()

	body, err := c.get(ctx, call, "application/xml")
	if err != nil {
		return nil, err
	}

	var resp premiumCarResponse
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&resp); err != nil {
		return nil, c.fail(call, fmt.Errorf("decode response: %w", err))
	}

	lowest, err := pickAmount(resp.PrivateSaleMinimum, resp.DealershipMinimum)
	if err != nil {
		return nil, c.fail(call, fmt.Errorf("minimum value: %w", err))
	}
	highest, err := pickAmount(resp.PrivateSaleMaximum, resp.DealershipMaximum)
	if err != nil {
		return nil, c.fail(call, fmt.Errorf("maximum value: %w", err))
	}

	return &model.Valuation{
		VRM:          vrm,
		LowestValue:  lowest,
		HighestValue: highest,
		ProviderName: c.name,
	}, nil
}

func (c *PremiumCarClient) requestURL(vrm string) string {
	u := *c.endpoint
	q := u.Query()
	q.Set("vrm", vrm)
	u.RawQuery = q.Encode()
	return u.String()
}

// pickAmount parses preferred, or fallback when preferred is missing or empty.
func pickAmount(preferred, fallback *string) (int64, error) {
	for _, candidate := range []*string{preferred, fallback} {
		if candidate == nil {
			continue
		}
		raw := strings.TrimSpace(*candidate)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q", raw)
		}
		return wholePounds(v), nil
	}
	return 0, errors.New("not present in response")
}

// charsetReader decodes XML documents declaring a non UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
