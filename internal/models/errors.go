package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds is returned when a funding account cannot cover a
	// dispersal. It fails the whole call before any transfer is sent.
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrProjectNotFound = errors.New("project not found")
	ErrWalletNotFound  = errors.New("wallet not found")

	// ErrAlreadyLaunched guards against re-submitting a launch whose bundle
	// may already have landed.
	ErrAlreadyLaunched = errors.New("project already launched")
)

// NotReadyError reports a launch attempted outside the allowed lifecycle
// states.
type NotReadyError struct {
	Status string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("project not ready to launch (status: %s)", e.Status)
}

// PreconditionError reports a bundle composition missing required project
// fields.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "launch precondition failed: " + e.Reason
}

// SigningError names the bundle position that failed to decode or sign.
// A signing failure at any position aborts the whole pass.
type SigningError struct {
	Position int
	Err      error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign transaction %d: %v", e.Position, e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// Atomic submission failure kinds. RateLimited and NotConfirmed trigger the
// sequential fallback; Rejected is terminal.
const (
	AtomicRateLimited  = "rate_limited"
	AtomicNotConfirmed = "not_confirmed"
	AtomicRejected     = "rejected"
)

// AtomicSubmissionError classifies a failed bundle submission. BundleID is
// set when the block builder accepted the bundle before it went unconfirmed.
type AtomicSubmissionError struct {
	Kind     string
	BundleID string
	Err      error
}

func (e *AtomicSubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("atomic submission failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("atomic submission failed (%s)", e.Kind)
}

func (e *AtomicSubmissionError) Unwrap() error { return e.Err }

// Retriable reports whether the orchestrator should degrade to the
// sequential path.
func (e *AtomicSubmissionError) Retriable() bool {
	return e.Kind == AtomicRateLimited || e.Kind == AtomicNotConfirmed
}

// SequentialSubmissionError reports the first transaction that failed to
// confirm on the fallback path, with the signatures collected before it.
type SequentialSubmissionError struct {
	FailedIndex int
	Signatures  []string
	Err         error
}

func (e *SequentialSubmissionError) Error() string {
	return fmt.Sprintf("transaction %d failed to confirm: %v", e.FailedIndex, e.Err)
}

func (e *SequentialSubmissionError) Unwrap() error { return e.Err }
