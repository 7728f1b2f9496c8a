package database

import (
	"errors"
	"fmt"
	"math"
)

// ErrNegativeStake is returned when a validator is constructed with a stake
// that is negative or not a number.
var ErrNegativeStake = errors.New("stake must be a non-negative number")

// Validator represents a participant eligible for stake-weighted selection.
type Validator struct {
	ID    string  `json:"id"`
	Stake float64 `json:"stake"`
}

// NewValidator constructs a validator with the specified stake.
func NewValidator(id string, stake float64) (Validator, error) {
	if id == "" {
		return Validator{}, errors.New("validator id is required")
	}

	if math.IsNaN(stake) || math.IsInf(stake, 0) || stake < 0 {
		return Validator{}, fmt.Errorf("%w: %v", ErrNegativeStake, stake)
	}

	return Validator{ID: id, Stake: stake}, nil
}

// Weight returns the validator's weight for block selection.
func (v Validator) Weight() float64 {
	return v.Stake
}

// String implements the fmt.Stringer interface for logging.
func (v Validator) String() string {
	return fmt.Sprintf("%s:%v", v.ID, v.Stake)
}
