// Package notify delivers rental lifecycle events to people: the admin
// inbox for disputes and push messages for renters and curators.
package notify

import (
	"context"
	"errors"
	"time"

	"closet-rental-backend/internal/domain"
)

type EventKind string

const (
	EventStatusChanged   EventKind = "status_changed"
	EventQCOpened        EventKind = "qc_opened"
	EventDisputeRaised   EventKind = "dispute_raised"
	EventDisputeResolved EventKind = "dispute_resolved"
)

type Event struct {
	Kind         EventKind
	RentalID     string
	OutfitID     string
	CuratorID    string
	RenterUserID string
	From         domain.RentalStatus
	To           domain.RentalStatus
	Note         string
	QCDeadline   time.Time
}

// Notifier failures are reported to the caller but must never undo a
// persisted transition.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// EventsFor derives the events implied by a rental moving out of from.
func EventsFor(from domain.RentalStatus, r *domain.Rental) []Event {
	base := Event{
		RentalID:     r.ID,
		OutfitID:     r.OutfitID,
		CuratorID:    r.CuratorID,
		RenterUserID: r.RenterUserID,
		From:         from,
		To:           r.Status,
	}
	if last, ok := r.LastEntry(); ok {
		base.Note = last.Note
	}

	var events []Event
	switch {
	case r.Status == domain.RentalStatusDisputed && from != domain.RentalStatusDisputed:
		base.Kind = EventDisputeRaised
		if r.IssueReport != nil {
			base.Note = r.IssueReport.Category + ": " + r.IssueReport.Description
		}
	case from == domain.RentalStatusDisputed && r.Status != domain.RentalStatusDisputed:
		base.Kind = EventDisputeResolved
	default:
		base.Kind = EventStatusChanged
	}
	events = append(events, base)

	switch {
	case r.Status == domain.RentalStatusDelivered && r.DeliveryQC.IsPending():
		qc := base
		qc.Kind = EventQCOpened
		qc.QCDeadline = r.DeliveryQC.Deadline
		events = append(events, qc)
	case r.Status == domain.RentalStatusReturnDelivered && r.ReturnQC.IsPending():
		qc := base
		qc.Kind = EventQCOpened
		qc.QCDeadline = r.ReturnQC.Deadline
		events = append(events, qc)
	}
	return events
}

type noopNotifier struct{}

// NewNoop returns a Notifier that drops every event.
func NewNoop() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Notify(context.Context, Event) error { return nil }

type multiNotifier []Notifier

// NewMulti fans events out to every notifier, collecting all failures.
func NewMulti(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}

func (m multiNotifier) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
