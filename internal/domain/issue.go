package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReporterType string

const (
	ReporterTypeUser    ReporterType = "user"
	ReporterTypeCurator ReporterType = "curator"
)

// IssueReport is attached when a rental enters dispute through a report.
type IssueReport struct {
	ReporterID     string       `json:"reporter_id"`
	ReporterType   ReporterType `json:"reporter_type"`
	Category       string       `json:"category"`
	Description    string       `json:"description"`
	ImageURLs      []string     `json:"image_urls"`
	ReportedAt     time.Time    `json:"reported_at"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty"`
	ResolutionNote string       `json:"resolution_note,omitempty"`
}

type IssueReportInput struct {
	ReporterID   string
	ReporterType ReporterType
	Category     string
	Description  string
	ImageURLs    []string
}

// IssueResolution is an administrative decision closing a dispute.
type IssueResolution struct {
	NewStatus RentalStatus
	Note      string
	// CuratorEarnings optionally reduces the curator payout (damage
	// adjudication). Nil keeps the current value.
	CuratorEarnings *decimal.Decimal
}
