package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"CarValuator/internal/biz"
	"CarValuator/internal/conf"
	"CarValuator/internal/model"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"
	"gorm.io/gorm"
)

var testLogger = log.NewStdLogger(io.Discard)

type memoryRepo struct {
	mu         sync.Mutex
	valuations map[string]*model.Valuation
	findErr    error
}

func (r *memoryRepo) FindByVRM(_ context.Context, vrm string) (*model.Valuation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	v, ok := r.valuations[vrm]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *memoryRepo) CreateValuation(_ context.Context, v *model.Valuation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.valuations[v.VRM] = v
	return nil
}

type stubPrimary struct {
	calls int
	err   error
}

func (p *stubPrimary) Name() string { return model.ProviderSuperCar }

func (p *stubPrimary) FetchValuation(_ context.Context, vrm string, mileage int64) (*model.Valuation, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &model.Valuation{VRM: vrm, LowestValue: 10000 - mileage/10, HighestValue: 12000, ProviderName: model.ProviderSuperCar}, nil
}

type stubSecondary struct {
	err error
}

func (p *stubSecondary) Name() string { return model.ProviderPremiumCar }

func (p *stubSecondary) FetchValuation(_ context.Context, vrm string) (*model.Valuation, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &model.Valuation{VRM: vrm, LowestValue: 9000, HighestValue: 11000, ProviderName: model.ProviderPremiumCar}, nil
}

type serviceFixture struct {
	svc       *ValuationService
	repo      *memoryRepo
	primary   *stubPrimary
	secondary *stubSecondary
	failover  *biz.FailoverController
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:      &memoryRepo{valuations: map[string]*model.Valuation{}},
		primary:   &stubPrimary{},
		secondary: &stubSecondary{},
	}
	f.failover = biz.NewFailoverController(&conf.Failover{
		WindowSize:       1,
		FailureThreshold: 0.5,
		Cooldown:         durationpb.New(time.Hour),
	}, nil, testLogger)
	uc := biz.NewValuationUsecase(f.repo, f.primary, f.secondary, f.failover, testLogger)
	f.svc = NewValuationService(uc, testLogger)
	return f
}

func mileage(v int64) *int64 { return &v }

func TestValuationService_CreateValuation(t *testing.T) {
	f := newServiceFixture()

	reply, err := f.svc.CreateValuation(context.Background(), &CreateValuationRequest{VRM: "AB12CDE", Mileage: mileage(10000)})
	require.NoError(t, err)
	assert.Equal(t, &ValuationReply{VRM: "AB12CDE", LowestValue: 9000, HighestValue: 12000, ProviderName: model.ProviderSuperCar}, reply)

	got, err := f.svc.GetValuation(context.Background(), &GetValuationRequest{VRM: "AB12CDE"})
	require.NoError(t, err)
	assert.Equal(t, reply, got)
}

func TestValuationService_Validation(t *testing.T) {
	tests := []struct {
		name       string
		req        *CreateValuationRequest
		wantReason string
		wantMsg    string
	}{
		{name: "empty vrm", req: &CreateValuationRequest{Mileage: mileage(1)}, wantReason: ReasonInvalidVRM, wantMsg: "vrm must be 7 characters or less"},
		{name: "vrm too long", req: &CreateValuationRequest{VRM: "12345678", Mileage: mileage(1)}, wantReason: ReasonInvalidVRM, wantMsg: "vrm must be 7 characters or less"},
		{name: "missing mileage", req: &CreateValuationRequest{VRM: "ABC123"}, wantReason: ReasonInvalidMileage, wantMsg: "mileage must be a non-negative number"},
		{name: "negative mileage", req: &CreateValuationRequest{VRM: "ABC123", Mileage: mileage(-1)}, wantReason: ReasonInvalidMileage, wantMsg: "mileage must be a non-negative number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()

			_, err := f.svc.CreateValuation(context.Background(), tt.req)
			se := kerrors.FromError(err)
			assert.Equal(t, int32(400), se.Code)
			assert.Equal(t, tt.wantReason, se.Reason)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, se.Message)
			}
			assert.Zero(t, f.primary.calls)
		})
	}

	f := newServiceFixture()
	_, err := f.svc.GetValuation(context.Background(), &GetValuationRequest{VRM: "12345678"})
	assert.True(t, kerrors.IsBadRequest(err))
}

func TestValuationService_ZeroMileage(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.CreateValuation(context.Background(), &CreateValuationRequest{VRM: "ABC123", Mileage: mileage(0)})
	assert.NoError(t, err)
}

func TestValuationService_ErrorMapping(t *testing.T) {
	providerDown := &model.ProviderError{Provider: model.ProviderPremiumCar, StatusCode: 500, Err: errors.New("boom")}

	t.Run("not found", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.svc.GetValuation(context.Background(), &GetValuationRequest{VRM: "NOEXIST"})
		se := kerrors.FromError(err)
		assert.Equal(t, int32(404), se.Code)
		assert.Equal(t, ReasonValuationNotFound, se.Reason)
		assert.Equal(t, "Valuation for VRM NOEXIST not found", se.Message)
	})

	t.Run("both providers down", func(t *testing.T) {
		f := newServiceFixture()
		f.primary.err = &model.ProviderError{Provider: model.ProviderSuperCar, StatusCode: 503, Err: errors.New("down")}
		f.secondary.err = providerDown

		_, err := f.svc.CreateValuation(context.Background(), &CreateValuationRequest{VRM: "AB12CDE", Mileage: mileage(1)})
		se := kerrors.FromError(err)
		assert.Equal(t, int32(503), se.Code)
		assert.Equal(t, ReasonServiceUnavailable, se.Reason)
		assert.Equal(t, "Service Unavailable: Unable to fetch valuation from both providers", se.Message)
		assert.NotContains(t, se.Message, "boom")
	})

	t.Run("secondary down while primary bypassed", func(t *testing.T) {
		f := newServiceFixture()
		f.failover.RecordFailure()
		f.secondary.err = providerDown

		_, err := f.svc.CreateValuation(context.Background(), &CreateValuationRequest{VRM: "AB12CDE", Mileage: mileage(1)})
		se := kerrors.FromError(err)
		assert.Equal(t, int32(502), se.Code)
		assert.Equal(t, ReasonProviderError, se.Reason)
		assert.Zero(t, f.primary.calls)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newServiceFixture()
		f.repo.findErr = errors.New("dial tcp 127.0.0.1:3306: connection refused")

		_, err := f.svc.GetValuation(context.Background(), &GetValuationRequest{VRM: "AB12CDE"})
		se := kerrors.FromError(err)
		assert.Equal(t, int32(500), se.Code)
		assert.Equal(t, ReasonInternal, se.Reason)
		assert.NotContains(t, se.Message, "3306")
	})
}

func newTestHTTPServer(t *testing.T, svc *ValuationService) *httptest.Server {
	t.Helper()
	srv := khttp.NewServer()
	RegisterValuationHTTPServer(srv, svc)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method, url, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestValuationHTTP_Routes(t *testing.T) {
	f := newServiceFixture()
	ts := newTestHTTPServer(t, f.svc)

	status, body := doRequest(t, http.MethodGet, ts.URL+"/valuations/ABC123", "")
	assert.Equal(t, 404, status)
	assert.Equal(t, "Valuation for VRM ABC123 not found", body["message"])

	status, body = doRequest(t, http.MethodPut, ts.URL+"/valuations/ABC123", `{"mileage": 50000}`)
	require.Equal(t, 200, status)
	assert.Equal(t, map[string]interface{}{
		"vrm":          "ABC123",
		"lowestValue":  float64(5000),
		"highestValue": float64(12000),
		"providerName": model.ProviderSuperCar,
	}, body)

	status, body = doRequest(t, http.MethodGet, ts.URL+"/valuations/ABC123", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, "ABC123", body["vrm"])
}

func TestValuationHTTP_BadRequests(t *testing.T) {
	f := newServiceFixture()
	ts := newTestHTTPServer(t, f.svc)

	status, body := doRequest(t, http.MethodGet, ts.URL+"/valuations/12345678", "")
	assert.Equal(t, 400, status)
	assert.Equal(t, "vrm must be 7 characters or less", body["message"])

	status, body = doRequest(t, http.MethodPut, ts.URL+"/valuations/ABC123", `{"mileage": null}`)
	assert.Equal(t, 400, status)
	assert.Equal(t, ReasonInvalidMileage, body["reason"])

	status, _ = doRequest(t, http.MethodPut, ts.URL+"/valuations/ABC123", `{"mileage": -1}`)
	assert.Equal(t, 400, status)
	assert.Zero(t, f.primary.calls)
}
