package biz

import (
	"sync"
	"time"

	"CarValuator/internal/conf"
	"CarValuator/internal/model"

	"github.com/go-kratos/kratos/v2/log"
)

// Default failover settings, used when configuration leaves a field unset.
const (
	DefaultFailoverWindowSize       = 100
	DefaultFailoverFailureThreshold = 0.5
	DefaultFailoverCooldown         = 5 * time.Minute
)

// FailoverMode is the routing mode decided by the FailoverController.
type FailoverMode int

const (
	// FailoverModeNormal routes requests to the primary provider.
	FailoverModeNormal FailoverMode = iota
	// FailoverModeFallback bypasses the primary provider until the cooldown expires.
	FailoverModeFallback
)

// String returns the mode name used in logs and metrics.
func (m FailoverMode) String() string {
	if m == FailoverModeFallback {
		return "fallback"
	}
	return "normal"
}

// FailoverObserver is notified of failover transitions. Notifications are
// delivered one at a time in transition order, outside the state lock. An
// observer must not call back into the controller.
type FailoverObserver interface {
	FailoverEntered(event *model.FailoverEnteredEvent)
	FailoverRecovered(event *model.FailoverRecoveredEvent)
}

// FailoverConfig holds the controller parameters.
type FailoverConfig struct {
	WindowSize       int
	FailureThreshold float64
	Cooldown         time.Duration
}

// FailoverSnapshot is a point-in-time copy of the controller state.
type FailoverSnapshot struct {
	Mode        FailoverMode
	WindowLen   int
	Failures    int
	FailureRate float64
	EnteredAt   time.Time
}

// FailoverController decides whether the primary valuation provider should
// be bypassed, based on the failure rate of its most recent calls.
//
// The outcome window keeps the exact last WindowSize outcomes in a ring
// buffer. Every method takes the same mutex, so ShouldBypass observes and
// transitions the state as one step.
type FailoverController struct {
	mu sync.Mutex
	// notifyMu orders observer delivery. It is acquired while mu is still
	// held, so notifications follow the order of the transitions.
	notifyMu sync.Mutex

	outcomes []bool // ring buffer, true = success
	head     int    // index of the oldest outcome
	size     int
	failures int

	mode      FailoverMode
	enteredAt time.Time

	threshold float64
	cooldown  time.Duration
	now       func() time.Time

	observer FailoverObserver
	logger   *log.Helper
}

// NewFailoverController creates a controller from configuration.
// observer may be nil.
func NewFailoverController(c *conf.Failover, observer FailoverObserver, logger log.Logger) *FailoverController {
	cfg := FailoverConfig{}
	if c != nil {
		cfg.WindowSize = int(c.WindowSize)
		cfg.FailureThreshold = c.FailureThreshold
		if c.Cooldown != nil {
			cfg.Cooldown = c.Cooldown.AsDuration()
		}
	}
	return newFailoverController(cfg, time.Now, observer, logger)
}

func newFailoverController(cfg FailoverConfig, now func() time.Time, observer FailoverObserver, logger log.Logger) *FailoverController {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultFailoverWindowSize
	}
	if cfg.FailureThreshold <= 0 || cfg.FailureThreshold > 1 {
		cfg.FailureThreshold = DefaultFailoverFailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultFailoverCooldown
	}

	return &FailoverController{
		outcomes:  make([]bool, cfg.WindowSize),
		threshold: cfg.FailureThreshold,
		cooldown:  cfg.Cooldown,
		now:       now,
		observer:  observer,
		logger:    log.NewHelper(logger),
	}
}

// RecordSuccess appends a successful primary call to the window.
func (f *FailoverController) RecordSuccess() {
	f.record(true)
}

// RecordFailure appends a failed primary call to the window.
func (f *FailoverController) RecordFailure() {
	f.record(false)
}

func (f *FailoverController) record(success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	capacity := len(f.outcomes)
	if f.size == capacity {
		// Evict the oldest outcome.
		if !f.outcomes[f.head] {
			f.failures--
		}
		f.outcomes[f.head] = success
		f.head = (f.head + 1) % capacity
	} else {
		f.outcomes[(f.head+f.size)%capacity] = success
		f.size++
	}

	if !success {
		f.failures++
	}
}

// ShouldBypass reports whether the primary provider should be skipped.
//
// Every call may change state: an expired cooldown returns the controller to
// normal mode with an empty window, and a failure rate strictly above the
// threshold in normal mode enters fallback mode. Entering fallback keeps the
// window; only leaving it clears the window.
func (f *FailoverController) ShouldBypass() bool {
	var (
		entered   *model.FailoverEnteredEvent
		recovered *model.FailoverRecoveredEvent
	)

	f.mu.Lock()
	now := f.now()

	if f.mode == FailoverModeFallback && now.Sub(f.enteredAt) > f.cooldown {
		recovered = &model.FailoverRecoveredEvent{EnteredAt: f.enteredAt, RecoveredAt: now}
		f.mode = FailoverModeNormal
		f.enteredAt = time.Time{}
		f.clearLocked()
	}

	rate := f.failureRateLocked()
	if f.mode == FailoverModeNormal && rate > f.threshold {
		f.mode = FailoverModeFallback
		f.enteredAt = now
		entered = &model.FailoverEnteredEvent{FailureRate: rate, WindowSize: f.size, EnteredAt: now}
	}

	bypass := f.mode == FailoverModeFallback
	if recovered == nil && entered == nil {
		f.mu.Unlock()
		return bypass
	}

	f.notifyMu.Lock()
	f.mu.Unlock()
	defer f.notifyMu.Unlock()

	if recovered != nil {
		f.logger.Debugw("msg", "failover cooldown expired, window cleared")
		if f.observer != nil {
			f.observer.FailoverRecovered(recovered)
		}
	}
	if entered != nil {
		f.logger.Debugw("msg", "failover threshold exceeded",
			"failure_rate", entered.FailureRate,
			"threshold", f.threshold,
			"cooldown", f.cooldown.String())
		if f.observer != nil {
			f.observer.FailoverEntered(entered)
		}
	}

	return bypass
}

// Reset forces normal mode and clears the window.
func (f *FailoverController) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mode = FailoverModeNormal
	f.enteredAt = time.Time{}
	f.clearLocked()
}

// Snapshot returns a copy of the current state without evaluating transitions.
func (f *FailoverController) Snapshot() FailoverSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	return FailoverSnapshot{
		Mode:        f.mode,
		WindowLen:   f.size,
		Failures:    f.failures,
		FailureRate: f.failureRateLocked(),
		EnteredAt:   f.enteredAt,
	}
}

func (f *FailoverController) failureRateLocked() float64 {
	if f.size == 0 {
		return 0
	}
	return float64(f.failures) / float64(f.size)
}

func (f *FailoverController) clearLocked() {
	f.head = 0
	f.size = 0
	f.failures = 0
}
