package model

import "fmt"

// ProviderError is a failed call to a single upstream valuation provider.
type ProviderError struct {
	Provider   string
	URL        string
	StatusCode int // 0 if no HTTP response was received
	Err        error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] request failed (status=%d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("[%s] request failed: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *ProviderError) Unwrap() error {
	return e.Err
}
