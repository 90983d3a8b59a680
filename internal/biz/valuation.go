package biz

import (
	"context"
	"errors"
	"fmt"

	"CarValuator/internal/model"
	pkgerrors "CarValuator/pkg/errors"
	pkglog "CarValuator/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
)

var (
	// ErrServiceUnavailable means no provider could produce a valuation.
	ErrServiceUnavailable = errors.New("service unavailable: unable to fetch valuation from both providers")
	// ErrValuationNotFound means no valuation is stored for the VRM.
	ErrValuationNotFound = errors.New("valuation not found")
)

// ServiceUnavailableError carries both provider failures when the primary
// call and its secondary fallback fail within one request.
type ServiceUnavailableError struct {
	Primary   error
	Secondary error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%s: primary: %v; secondary: %v", ErrServiceUnavailable, e.Primary, e.Secondary)
}

// Unwrap lets errors.Is match ErrServiceUnavailable and either provider error.
func (e *ServiceUnavailableError) Unwrap() []error {
	return []error{ErrServiceUnavailable, e.Primary, e.Secondary}
}

// ValuationUsecase resolves valuations from storage or the upstream providers.
type ValuationUsecase struct {
	repo      ValuationRepo
	primary   PrimaryProvider
	secondary SecondaryProvider
	failover  *FailoverController
	logger    *pkglog.LogHelper
}

// NewValuationUsecase creates a ValuationUsecase.
func NewValuationUsecase(
	repo ValuationRepo,
	primary PrimaryProvider,
	secondary SecondaryProvider,
	failover *FailoverController,
	logger log.Logger,
) *ValuationUsecase {
	return &ValuationUsecase{
		repo:      repo,
		primary:   primary,
		secondary: secondary,
		failover:  failover,
		logger:    pkglog.NewLogHelper(logger),
	}
}

// CreateValuation returns the stored valuation for vrm, fetching and storing
// one first if none exists.
//
// While the failover controller is in normal mode the primary provider is
// tried first and its outcome recorded. A primary failure triggers exactly
// one secondary attempt, whose outcome is not recorded. In fallback mode only
// the secondary provider is called.
func (uc *ValuationUsecase) CreateValuation(ctx context.Context, vrm string, mileage int64) (*model.Valuation, error) {
	existing, err := uc.repo.FindByVRM(ctx, vrm)
	if err == nil {
		uc.logger.Infow("msg", "valuation already stored", "vrm", vrm, "provider_name", existing.ProviderName)
		return existing, nil
	}
	if !pkgerrors.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up valuation %s: %w", vrm, err)
	}

	var valuation *model.Valuation
	if uc.failover.ShouldBypass() {
		valuation, err = uc.fetchInFallback(ctx, vrm)
	} else {
		valuation, err = uc.fetchFromPrimary(ctx, vrm, mileage)
	}
	if err != nil {
		return nil, err
	}

	return uc.store(ctx, valuation)
}

// GetValuation returns the stored valuation for vrm.
func (uc *ValuationUsecase) GetValuation(ctx context.Context, vrm string) (*model.Valuation, error) {
	valuation, err := uc.repo.FindByVRM(ctx, vrm)
	if err != nil {
		if pkgerrors.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrValuationNotFound, vrm)
		}
		return nil, fmt.Errorf("failed to look up valuation %s: %w", vrm, err)
	}
	return valuation, nil
}

func (uc *ValuationUsecase) fetchFromPrimary(ctx context.Context, vrm string, mileage int64) (*model.Valuation, error) {
	valuation, primaryErr := uc.primary.FetchValuation(ctx, vrm, mileage)
	if primaryErr == nil {
		uc.failover.RecordSuccess()
		return valuation, nil
	}

	uc.failover.RecordFailure()
	window := uc.failover.Snapshot()
	uc.logger.Warnw("msg", "primary provider failed, trying secondary",
		"request_id", pkglog.GetRequestID(ctx),
		"vrm", vrm,
		"primary", uc.primary.Name(),
		"secondary", uc.secondary.Name(),
		"failure_rate", window.FailureRate,
		"window_len", window.WindowLen,
		"error", primaryErr)

	valuation, secondaryErr := uc.secondary.FetchValuation(ctx, vrm)
	if secondaryErr != nil {
		uc.logger.Errorw("msg", "both valuation providers failed",
			"request_id", pkglog.GetRequestID(ctx),
			"vrm", vrm,
			"primary_error", primaryErr,
			"secondary_error", secondaryErr)
		return nil, &ServiceUnavailableError{Primary: primaryErr, Secondary: secondaryErr}
	}

	return valuation, nil
}

func (uc *ValuationUsecase) fetchInFallback(ctx context.Context, vrm string) (*model.Valuation, error) {
	uc.logger.Debugw("msg", "primary provider bypassed", "vrm", vrm, "secondary", uc.secondary.Name())

	valuation, err := uc.secondary.FetchValuation(ctx, vrm)
	if err != nil {
		return nil, fmt.Errorf("%s valuation failed while primary is bypassed: %w", uc.secondary.Name(), err)
	}
	return valuation, nil
}

func (uc *ValuationUsecase) store(ctx context.Context, valuation *model.Valuation) (*model.Valuation, error) {
	if err := uc.repo.CreateValuation(ctx, valuation); err != nil {
		if pkgerrors.IsDuplicateKeyError(err) {
			uc.logger.Infow("msg", "valuation stored concurrently by another request", "vrm", valuation.VRM)
			return valuation, nil
		}
		return nil, fmt.Errorf("failed to store valuation %s: %w", valuation.VRM, err)
	}

	uc.logger.Success("valuation created",
		"request_id", pkglog.GetRequestID(ctx),
		"vrm", valuation.VRM,
		"provider_name", valuation.ProviderName,
		"lowest_value", valuation.LowestValue,
		"highest_value", valuation.HighestValue)

	return valuation, nil
}
