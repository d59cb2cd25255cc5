package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidInput       = errors.New("invalid input")
	ErrQCNotApplicable    = errors.New("quality control not applicable")
	ErrQCAlreadySubmitted = errors.New("quality control already submitted")
	ErrNotDisputed        = errors.New("rental is not disputed")

	ErrQCRequired            = errors.New("transition requires quality control evidence")
	ErrIssueReportNotAllowed = errors.New("issues cannot be reported in the current status")
	ErrRentalNotFound        = errors.New("rental not found")
	ErrOutfitNotFound        = errors.New("outfit not found")
	ErrDatesUnavailable      = errors.New("requested dates are unavailable")
	ErrConcurrentUpdate      = errors.New("rental was modified concurrently")
	ErrRentalLocked          = errors.New("rental is locked by another operation")
	ErrUnauthorized          = errors.New("unauthorized")
)

// TransitionError describes a rejected move between two statuses.
type TransitionError struct {
	From RentalStatus
	To   RentalStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// InputError wraps ErrInvalidInput with the offending field.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}
