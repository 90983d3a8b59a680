package data

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"CarValuator/internal/conf"
	"CarValuator/internal/model"
	"CarValuator/pkg/httpclient"
	pkglog "CarValuator/pkg/log"
	"CarValuator/pkg/metrics"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/time/rate"
)

const (
	defaultProviderTimeout = 5 * time.Second
	maxProviderBodyBytes   = 1 << 20
	userAgent              = "CarValuator/1.0"
)

// providerClient holds what the SuperCar and PremiumCar clients share:
// the HTTP client, the outbound rate limit and call recording.
type providerClient struct {
	name     string
	client   *http.Client
	limiter  *rate.Limiter
	recorder ProviderCallRecorder
	logger   *pkglog.LogHelper
}

func newProviderClient(name string, c *conf.Provider, recorder ProviderCallRecorder, logger log.Logger) (*providerClient, error) {
	if c == nil || c.BaseUrl == "" {
		return nil, fmt.Errorf("%s base URL is required", name)
	}

	timeout := defaultProviderTimeout
	if c.Timeout != nil && c.Timeout.AsDuration() > 0 {
		timeout = c.Timeout.AsDuration()
	}

	client, err := httpclient.New(httpclient.Options{ProxyURL: c.ProxyUrl, Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s HTTP client: %w", name, err)
	}

	var limiter *rate.Limiter
	if c.RateLimit > 0 {
		burst := int(c.Burst)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(c.RateLimit), burst)
	}

	return &providerClient{
		name:     name,
		client:   client,
		limiter:  limiter,
		recorder: recorder,
		logger:   pkglog.NewLogHelper(logger),
	}, nil
}

// Name returns the provider name stored with valuations and call records.
func (p *providerClient) Name() string {
	return p.name
}

func (p *providerClient) begin(vrm, requestURL string) *model.ProviderCall {
	return &model.ProviderCall{
		VRM:          vrm,
		ProviderName: p.name,
		RequestURL:   requestURL,
		RequestTime:  time.Now(),
	}
}

// finish completes call with the outcome of the whole fetch and records it.
// It runs exactly once per call, from a deferred function in the caller.
func (p *providerClient) finish(ctx context.Context, call *model.ProviderCall, err error) {
	call.Duration = time.Since(call.RequestTime)
	if err != nil {
		call.ErrorMessage = err.Error()
	}

	if p.recorder != nil {
		p.recorder.Record(ctx, call)
	}
	metrics.ObserveProviderCall(p.name, err == nil, call.Duration)
	p.logger.Provider(ctx, p.name, call.RequestURL, call.ResponseCode, call.Duration, err)
}

func (p *providerClient) fail(call *model.ProviderCall, err error) *model.ProviderError {
	return &model.ProviderError{
		Provider:   p.name,
		URL:        call.RequestURL,
		StatusCode: call.ResponseCode,
		Err:        err,
	}
}

// get performs the GET request for call and returns the body of a 2xx response.
func (p *providerClient) get(ctx context.Context, call *model.ProviderCall, accept string) ([]byte, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, p.fail(call, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, call.RequestURL, nil)
	if err != nil {
		return nil, p.fail(call, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)
	if requestID := pkglog.GetRequestID(ctx); requestID != "unknown" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, p.fail(call, err)
	}
	defer resp.Body.Close()

	call.ResponseCode = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBodyBytes))
	if err != nil {
		return nil, p.fail(call, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, p.fail(call, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	return body, nil
}

// wholePounds rounds a monetary amount to the nearest pound.
func wholePounds(v float64) int64 {
	return int64(math.Round(v))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
