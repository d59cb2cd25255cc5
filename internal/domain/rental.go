package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RentalStatus string

const (
	RentalStatusRequested       RentalStatus = "requested"
	RentalStatusPaid            RentalStatus = "paid"
	RentalStatusAccepted        RentalStatus = "accepted"
	RentalStatusRejected        RentalStatus = "rejected"
	RentalStatusShipped         RentalStatus = "shipped"
	RentalStatusDelivered       RentalStatus = "delivered"
	RentalStatusInUse           RentalStatus = "in_use"
	RentalStatusReturnShipped   RentalStatus = "return_shipped"
	RentalStatusReturnDelivered RentalStatus = "return_delivered"
	RentalStatusCompleted       RentalStatus = "completed"
	RentalStatusCancelled       RentalStatus = "cancelled"
	RentalStatusDisputed        RentalStatus = "disputed"
)

// AllRentalStatuses lists every status in lifecycle order.
var AllRentalStatuses = []RentalStatus{
	RentalStatusRequested,
	RentalStatusPaid,
	RentalStatusAccepted,
	RentalStatusRejected,
	RentalStatusShipped,
	RentalStatusDelivered,
	RentalStatusInUse,
	RentalStatusReturnShipped,
	RentalStatusReturnDelivered,
	RentalStatusCompleted,
	RentalStatusCancelled,
	RentalStatusDisputed,
}

// Valid reports whether s is a known rental status.
func (s RentalStatus) Valid() bool {
	_, ok := statusCatalog[s]
	return ok
}

// IsTerminal returns true if no transition can leave the status.
func (s RentalStatus) IsTerminal() bool {
	return statusCatalog[s].Terminal
}

func (s RentalStatus) String() string {
	return string(s)
}

// TimelineEntry is one append-only record of a status change.
type TimelineEntry struct {
	Status    RentalStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Note      string       `json:"note,omitempty"`
	Link      string       `json:"link,omitempty"`
}

// TimelineAnnotation is an administrative correction layered on top of a
// timeline entry. The entry itself is never rewritten.
type TimelineAnnotation struct {
	EntryIndex int       `json:"entry_index"`
	Note       string    `json:"note"`
	AuthorID   string    `json:"author_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// PaymentDetails is recorded once, when the external payment collaborator
// confirms the charge.
type PaymentDetails struct {
	PaymentID string          `json:"payment_id"`
	Provider  string          `json:"provider"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paid_at"`
}

type Rental struct {
	ID           string               `json:"id"`
	OutfitID     string               `json:"outfit_id"`
	CuratorID    string               `json:"curator_id"`
	RenterUserID string               `json:"renter_user_id"`
	StartDate    time.Time            `json:"start_date"`
	EndDate      time.Time            `json:"end_date"`
	Nights       int                  `json:"nights"`
	Status       RentalStatus         `json:"status"`
	Timeline     []TimelineEntry      `json:"timeline"`
	Annotations  []TimelineAnnotation `json:"annotations,omitempty"`

	// Price snapshot captured at creation time. Never recomputed.
	Pricing         PricingSnapshot `json:"pricing"`
	CuratorEarnings decimal.Decimal `json:"curator_earnings"`

	DeliveryQC  *DeliveryQC     `json:"delivery_qc,omitempty"`
	ReturnQC    *ReturnQC       `json:"return_qc,omitempty"`
	IssueReport *IssueReport    `json:"issue_report,omitempty"`
	Payment     *PaymentDetails `json:"payment,omitempty"`

	// Version is bumped on every persisted change; used for compare-and-swap.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LastEntry returns the most recent timeline entry, if any.
func (r *Rental) LastEntry() (TimelineEntry, bool) {
	if len(r.Timeline) == 0 {
		return TimelineEntry{}, false
	}
	return r.Timeline[len(r.Timeline)-1], true
}

// Clone returns a deep copy so the engine never mutates its input.
func (r *Rental) Clone() *Rental {
	c := *r
	c.Timeline = append([]TimelineEntry(nil), r.Timeline...)
	if r.Annotations != nil {
		c.Annotations = append([]TimelineAnnotation(nil), r.Annotations...)
	}
	if r.DeliveryQC != nil {
		qc := *r.DeliveryQC
		c.DeliveryQC = &qc
	}
	if r.ReturnQC != nil {
		qc := *r.ReturnQC
		c.ReturnQC = &qc
	}
	if r.IssueReport != nil {
		ir := *r.IssueReport
		ir.ImageURLs = append([]string(nil), r.IssueReport.ImageURLs...)
		c.IssueReport = &ir
	}
	if r.Payment != nil {
		p := *r.Payment
		c.Payment = &p
	}
	return &c
}
