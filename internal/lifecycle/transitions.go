// Package lifecycle implements the rental state machine: the legal
// transition graph, quality-control windows, dispute handling, pricing and
// the side-effect intents each transition implies.
//
// Every operation is a pure computation over one rental and the injected
// clock. Nothing here performs I/O; callers persist the returned rental and
// execute the returned side effects together.
package lifecycle

import "closet-rental-backend/internal/domain"

var transitions = map[domain.RentalStatus][]domain.RentalStatus{
	domain.RentalStatusRequested:       {domain.RentalStatusPaid, domain.RentalStatusCancelled},
	domain.RentalStatusPaid:            {domain.RentalStatusAccepted, domain.RentalStatusRejected, domain.RentalStatusCancelled},
	domain.RentalStatusAccepted:        {domain.RentalStatusShipped, domain.RentalStatusCancelled},
	domain.RentalStatusShipped:         {domain.RentalStatusDelivered, domain.RentalStatusCancelled},
	domain.RentalStatusDelivered:       {domain.RentalStatusInUse, domain.RentalStatusDisputed, domain.RentalStatusCancelled},
	domain.RentalStatusInUse:           {domain.RentalStatusReturnShipped, domain.RentalStatusDisputed},
	domain.RentalStatusReturnShipped:   {domain.RentalStatusReturnDelivered},
	domain.RentalStatusReturnDelivered: {domain.RentalStatusCompleted, domain.RentalStatusDisputed},
	domain.RentalStatusDisputed:        {domain.RentalStatusCompleted, domain.RentalStatusCancelled},
	domain.RentalStatusRejected:        nil,
	domain.RentalStatusCancelled:       nil,
	domain.RentalStatusCompleted:       nil,
}

// IsValidTransition reports whether current may move to next.
func IsValidTransition(current, next domain.RentalStatus) bool {
	for _, s := range transitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// ApplyTransition returns next if the move is legal.
func ApplyTransition(current, next domain.RentalStatus) (domain.RentalStatus, error) {
	if !IsValidTransition(current, next) {
		return current, &domain.TransitionError{From: current, To: next}
	}
	return next, nil
}

// AllowedTransitions returns the statuses reachable from current in one step.
func AllowedTransitions(current domain.RentalStatus) []domain.RentalStatus {
	return append([]domain.RentalStatus(nil), transitions[current]...)
}

// RequiresQC reports whether moving from current to next may only happen
// through a quality-control submission (or its auto-approval), never through
// a plain status update.
func RequiresQC(current, next domain.RentalStatus) bool {
	switch current {
	case domain.RentalStatusDelivered:
		return next == domain.RentalStatusInUse || next == domain.RentalStatusDisputed
	case domain.RentalStatusReturnDelivered:
		return next == domain.RentalStatusCompleted || next == domain.RentalStatusDisputed
	}
	return false
}
