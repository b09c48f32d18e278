package portfolio

import (
	"fmt"
	"time"
)

// Error codes returned by the strategy manager.
const (
	ErrCapacityReached    = "CAPACITY_REACHED"
	ErrConstructionFailed = "CONSTRUCTION_FAILED"
	ErrStrategyNotFound   = "STRATEGY_NOT_FOUND"
	ErrInvalidAllocation  = "INVALID_ALLOCATION"
)

// ManagerError is a categorized error raised by portfolio operations.
type ManagerError struct {
	Code       string
	Message    string
	StrategyID uint32
	Timestamp  time.Time
	Underlying error
}

// Error implements the error interface.
func (e *ManagerError) Error() string {
	if e.StrategyID != 0 {
		return fmt.Sprintf("%s [strategy %d]: %s", e.Code, e.StrategyID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *ManagerError) Unwrap() error {
	return e.Underlying
}
