package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outfit is the listing projection the rental flow needs.
type Outfit struct {
	ID            string          `json:"id"`
	CuratorID     string          `json:"curator_id"`
	Title         string          `json:"title"`
	PerNightPrice decimal.Decimal `json:"per_night_price"`
	BlockedDates  []string        `json:"blocked_dates"`
	RentalsCount  int             `json:"rentals_count"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsBlocked reports whether any of the given date keys is already blocked.
func (o *Outfit) IsBlocked(dates []string) bool {
	blocked := make(map[string]struct{}, len(o.BlockedDates))
	for _, d := range o.BlockedDates {
		blocked[d] = struct{}{}
	}
	for _, d := range dates {
		if _, ok := blocked[d]; ok {
			return true
		}
	}
	return false
}

// ClosetStats holds a curator's running totals.
type ClosetStats struct {
	CuratorID    string          `json:"curator_id"`
	RentalsCount int             `json:"rentals_count"`
	Earnings     decimal.Decimal `json:"earnings"`
}
