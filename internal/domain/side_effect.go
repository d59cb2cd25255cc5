package domain

import "github.com/shopspring/decimal"

// SideEffect is an intent produced by a transition. The caller executes it
// in the same transaction that persists the rental.
type SideEffect interface {
	Kind() string
	sideEffect()
}

type BlockDates struct {
	OutfitID string
	Dates    []string
}

type UnblockDates struct {
	OutfitID string
	Dates    []string
}

type IncrementOutfitStats struct {
	OutfitID     string
	RentalsCount int
}

type IncrementClosetStats struct {
	CuratorID    string
	RentalsCount int
	Earnings     decimal.Decimal
}

func (BlockDates) Kind() string           { return "block_dates" }
func (UnblockDates) Kind() string         { return "unblock_dates" }
func (IncrementOutfitStats) Kind() string { return "increment_outfit_stats" }
func (IncrementClosetStats) Kind() string { return "increment_closet_stats" }

func (BlockDates) sideEffect()           {}
func (UnblockDates) sideEffect()         {}
func (IncrementOutfitStats) sideEffect() {}
func (IncrementClosetStats) sideEffect() {}
