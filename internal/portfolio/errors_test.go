package portfolio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManagerError_Format(t *testing.T) {
	err := &ManagerError{
		Code:      ErrCapacityReached,
		Message:   "already running 5 of 5 strategies",
		Timestamp: time.Now(),
	}
	assert.Equal(t, "CAPACITY_REACHED: already running 5 of 5 strategies", err.Error())

	scoped := &ManagerError{
		Code:       ErrStrategyNotFound,
		Message:    "no allocation with that strategy id",
		StrategyID: 7,
		Timestamp:  time.Now(),
	}
	assert.Contains(t, scoped.Error(), "[strategy 7]")
}

func TestManagerError_Unwrap(t *testing.T) {
	inner := errors.New("bad type")
	err := &ManagerError{Code: ErrConstructionFailed, Message: "construction failed", Underlying: inner}

	assert.ErrorIs(t, err, inner)
}
