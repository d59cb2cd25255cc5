package domain

import "time"

type QCStatus string

const (
	QCStatusPending       QCStatus = "pending"
	QCStatusApproved      QCStatus = "approved"
	QCStatusIssueReported QCStatus = "issue_reported"
	QCStatusAutoApproved  QCStatus = "auto_approved"
)

type DamageLevel string

const (
	DamageLevelNone  DamageLevel = "none"
	DamageLevelMinor DamageLevel = "minor"
	DamageLevelMajor DamageLevel = "major"
	DamageLevelTotal DamageLevel = "total"
)

// Valid reports whether d is a known damage level.
func (d DamageLevel) Valid() bool {
	switch d {
	case DamageLevelNone, DamageLevelMinor, DamageLevelMajor, DamageLevelTotal:
		return true
	}
	return false
}

// DeliveryQC is the renter's time-boxed inspection of the delivered outfit.
type DeliveryQC struct {
	Status           QCStatus   `json:"status"`
	Deadline         time.Time  `json:"deadline"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	ConditionOK      *bool      `json:"condition_ok,omitempty"`
	IssueDescription string     `json:"issue_description,omitempty"`
}

// IsPending returns true while the QC window is open for a decision.
func (qc *DeliveryQC) IsPending() bool {
	return qc != nil && qc.Status == QCStatusPending
}

// ReturnQC is the curator's time-boxed inspection of the returned outfit.
type ReturnQC struct {
	Status            QCStatus    `json:"status"`
	Deadline          time.Time   `json:"deadline"`
	SubmittedAt       *time.Time  `json:"submitted_at,omitempty"`
	ConditionOK       *bool       `json:"condition_ok,omitempty"`
	IssueDescription  string      `json:"issue_description,omitempty"`
	DamageLevel       DamageLevel `json:"damage_level,omitempty"`
	DepositRefunded   *bool       `json:"deposit_refunded,omitempty"`
	DepositRefundedAt *time.Time  `json:"deposit_refunded_at,omitempty"`
}

// IsPending returns true while the QC window is open for a decision.
func (qc *ReturnQC) IsPending() bool {
	return qc != nil && qc.Status == QCStatusPending
}

type DeliveryQCInput struct {
	ItemsReceived    bool   `json:"items_received"`
	ConditionOK      bool   `json:"condition_ok"`
	SizeOK           bool   `json:"size_ok"`
	IssueDescription string `json:"issue_description,omitempty"`
}

type ReturnQCInput struct {
	ConditionOK      bool        `json:"condition_ok"`
	DamageLevel      DamageLevel `json:"damage_level"`
	IssueDescription string      `json:"issue_description,omitempty"`
}
