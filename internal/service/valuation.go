package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"unicode/utf8"

	"CarValuator/internal/biz"
	"CarValuator/internal/model"
	pkglog "CarValuator/pkg/log"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

const maxVRMLength = 7

// Error reasons returned in the kratos error body.
const (
	ReasonInvalidVRM         = "INVALID_VRM"
	ReasonInvalidMileage     = "INVALID_MILEAGE"
	ReasonValuationNotFound  = "VALUATION_NOT_FOUND"
	ReasonServiceUnavailable = "SERVICE_UNAVAILABLE"
	ReasonProviderError      = "PROVIDER_ERROR"
	ReasonInternal           = "INTERNAL_ERROR"
)

// GetValuationRequest is GET /valuations/{vrm}.
type GetValuationRequest struct {
	VRM string `json:"vrm"`
}

// CreateValuationRequest is PUT /valuations/{vrm} with a JSON body.
type CreateValuationRequest struct {
	VRM     string `json:"vrm"`
	Mileage *int64 `json:"mileage"`
}

// ValuationReply is the valuation returned by both endpoints.
type ValuationReply struct {
	VRM          string `json:"vrm"`
	LowestValue  int64  `json:"lowestValue"`
	HighestValue int64  `json:"highestValue"`
	ProviderName string `json:"providerName"`
}

// ValuationService serves the valuation endpoints.
type ValuationService struct {
	uc     *biz.ValuationUsecase
	logger *log.Helper
}

// NewValuationService creates a new ValuationService.
func NewValuationService(uc *biz.ValuationUsecase, logger log.Logger) *ValuationService {
	return &ValuationService{
		uc:     uc,
		logger: log.NewHelper(logger),
	}
}

// GetValuation returns the stored valuation for a VRM.
func (s *ValuationService) GetValuation(ctx context.Context, req *GetValuationRequest) (*ValuationReply, error) {
	if err := validateVRM(req.VRM); err != nil {
		return nil, err
	}
	pkglog.SetVRM(ctx, req.VRM)

	valuation, err := s.uc.GetValuation(ctx, req.VRM)
	if err != nil {
		return nil, s.toHTTPError(ctx, req.VRM, err)
	}
	return toReply(valuation), nil
}

// CreateValuation values a vehicle, or returns the stored valuation if there is one.
func (s *ValuationService) CreateValuation(ctx context.Context, req *CreateValuationRequest) (*ValuationReply, error) {
	if err := validateVRM(req.VRM); err != nil {
		return nil, err
	}
	if req.Mileage == nil || *req.Mileage < 0 {
		return nil, errors.BadRequest(ReasonInvalidMileage, "mileage must be a non-negative number")
	}
	pkglog.SetVRM(ctx, req.VRM)

	valuation, err := s.uc.CreateValuation(ctx, req.VRM, *req.Mileage)
	if err != nil {
		return nil, s.toHTTPError(ctx, req.VRM, err)
	}
	return toReply(valuation), nil
}

func validateVRM(vrm string) error {
	if n := utf8.RuneCountInString(vrm); n == 0 || n > maxVRMLength {
		return errors.BadRequest(ReasonInvalidVRM, "vrm must be 7 characters or less")
	}
	return nil
}

// toHTTPError maps use case errors to kratos errors. Causes are logged here
// and never sent to the caller.
func (s *ValuationService) toHTTPError(ctx context.Context, vrm string, err error) error {
	requestID := pkglog.GetRequestID(ctx)

	var providerErr *model.ProviderError
	switch {
	case stderrors.Is(err, biz.ErrValuationNotFound):
		return errors.NotFound(ReasonValuationNotFound, fmt.Sprintf("Valuation for VRM %s not found", vrm))
	case stderrors.Is(err, biz.ErrServiceUnavailable):
		s.logger.Errorw("msg", "valuation unavailable", "request_id", requestID, "vrm", vrm, "error", err)
		return errors.ServiceUnavailable(ReasonServiceUnavailable, "Service Unavailable: Unable to fetch valuation from both providers")
	case stderrors.As(err, &providerErr):
		s.logger.Errorw("msg", "valuation provider failed", "request_id", requestID, "vrm", vrm, "provider", providerErr.Provider, "error", err)
		return errors.New(502, ReasonProviderError, fmt.Sprintf("Valuation provider %s failed", providerErr.Provider))
	default:
		s.logger.Errorw("msg", "valuation request failed", "request_id", requestID, "vrm", vrm, "error", err)
		return errors.InternalServer(ReasonInternal, "Internal Server Error")
	}
}

func toReply(v *model.Valuation) *ValuationReply {
	return &ValuationReply{
		VRM:          v.VRM,
		LowestValue:  v.LowestValue,
		HighestValue: v.HighestValue,
		ProviderName: v.ProviderName,
	}
}
