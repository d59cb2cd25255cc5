package lifecycle

import (
	"github.com/shopspring/decimal"

	"closet-rental-backend/internal/domain"
)

// FeeSchedule holds the platform's flat charges.
type FeeSchedule struct {
	PlatformFeePerNight decimal.Decimal
	DeliveryFee         decimal.Decimal
	ReturnDeliveryFee   decimal.Decimal
}

// DefaultFees: 10 per night platform fee, 25 each way for delivery.
var DefaultFees = FeeSchedule{
	PlatformFeePerNight: decimal.NewFromInt(10),
	DeliveryFee:         decimal.NewFromInt(25),
	ReturnDeliveryFee:   decimal.NewFromInt(25),
}

// ComputePricing prices a rental with DefaultFees.
func ComputePricing(perNightPrice decimal.Decimal, nights int) (domain.PricingSnapshot, error) {
	return DefaultFees.Compute(perNightPrice, nights)
}

// Compute derives the full price breakdown. The security deposit is one
// flat night; the curator earns the rental fee.
func (f FeeSchedule) Compute(perNightPrice decimal.Decimal, nights int) (domain.PricingSnapshot, error) {
	if nights < 1 {
		return domain.PricingSnapshot{}, &domain.InputError{Field: "nights", Reason: "must be at least 1"}
	}
	if !perNightPrice.IsPositive() {
		return domain.PricingSnapshot{}, &domain.InputError{Field: "per_night_price", Reason: "must be greater than 0"}
	}

	n := decimal.NewFromInt(int64(nights))
	rentalFee := perNightPrice.Mul(n)
	deposit := perNightPrice
	platformFee := f.PlatformFeePerNight.Mul(n)
	total := rentalFee.
		Add(deposit).
		Add(platformFee).
		Add(f.DeliveryFee).
		Add(f.ReturnDeliveryFee)

	return domain.PricingSnapshot{
		PerNightPrice:     perNightPrice,
		Nights:            nights,
		RentalFee:         rentalFee,
		SecurityDeposit:   deposit,
		PlatformFee:       platformFee,
		DeliveryFee:       f.DeliveryFee,
		ReturnDeliveryFee: f.ReturnDeliveryFee,
		Total:             total,
		CuratorEarnings:   rentalFee,
	}, nil
}
