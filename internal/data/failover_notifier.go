package data

import (
	"CarValuator/internal/model"
	pkglog "CarValuator/pkg/log"
	"CarValuator/pkg/metrics"

	"github.com/go-kratos/kratos/v2/log"
)

// FailoverNotifier publishes failover transitions as log entries and metrics.
// It implements biz.FailoverObserver.
type FailoverNotifier struct {
	logger *pkglog.LogHelper
}

// NewFailoverNotifier creates a FailoverNotifier and resets the active gauge.
func NewFailoverNotifier(logger log.Logger) *FailoverNotifier {
	metrics.FailoverActive.Set(0)
	return &FailoverNotifier{logger: pkglog.NewLogHelper(logger)}
}

// FailoverEntered marks the primary provider as bypassed.
func (n *FailoverNotifier) FailoverEntered(event *model.FailoverEnteredEvent) {
	metrics.FailoverActive.Set(1)
	metrics.FailoverTransitions.WithLabelValues("fallback").Inc()

	n.logger.Failover("primary provider bypassed",
		"failure_rate", event.FailureRate,
		"window_size", event.WindowSize,
		"entered_at", event.EnteredAt)
}

// FailoverRecovered marks the primary provider as in use again.
func (n *FailoverNotifier) FailoverRecovered(event *model.FailoverRecoveredEvent) {
	metrics.FailoverActive.Set(0)
	metrics.FailoverTransitions.WithLabelValues("normal").Inc()

	n.logger.Failover("primary provider restored",
		"entered_at", event.EnteredAt,
		"recovered_at", event.RecoveredAt,
		"bypassed_seconds", event.Dwell().Seconds())
}
