package model

import "time"

// FailoverEnteredEvent is emitted when the primary provider starts being bypassed.
type FailoverEnteredEvent struct {
	FailureRate float64
	WindowSize  int
	EnteredAt   time.Time
}

// FailoverRecoveredEvent is emitted when the cooldown expires and the primary
// provider is tried again.
type FailoverRecoveredEvent struct {
	EnteredAt   time.Time
	RecoveredAt time.Time
}

// Dwell returns how long the primary provider was bypassed.
func (e *FailoverRecoveredEvent) Dwell() time.Duration {
	return e.RecoveredAt.Sub(e.EnteredAt)
}
