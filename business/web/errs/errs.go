// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy/pos"
	"github.com/ardanlabs/ledger/foundation/blockchain/strategy/pow"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap returns the wrapped error.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// =============================================================================

// FromLedger wraps the errors a ledger operation returns for rejected input
// with the matching HTTP status. Anything else is returned as is and treated
// as an internal error.
func FromLedger(err error) error {
	switch {
	case errors.Is(err, ledger.ErrPayerMismatch),
		errors.Is(err, ledger.ErrInvalidSignature):
		return NewTrusted(err, http.StatusUnauthorized)

	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrNotSupported),
		errors.Is(err, pos.ErrNoValidators):
		return NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, pos.ErrUnknownValidator):
		return NewTrusted(err, http.StatusConflict)

	case errors.Is(err, pow.ErrMiningAborted),
		errors.Is(err, pow.ErrMiningExhausted):
		return NewTrusted(err, http.StatusServiceUnavailable)
	}

	return err
}
