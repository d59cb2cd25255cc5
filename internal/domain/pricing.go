package domain

import "github.com/shopspring/decimal"

// PricingSnapshot is the immutable price breakdown captured when a rental is
// created.
type PricingSnapshot struct {
	PerNightPrice     decimal.Decimal `json:"per_night_price"`
	Nights            int             `json:"nights"`
	RentalFee         decimal.Decimal `json:"rental_fee"`
	SecurityDeposit   decimal.Decimal `json:"security_deposit"`
	PlatformFee       decimal.Decimal `json:"platform_fee"`
	DeliveryFee       decimal.Decimal `json:"delivery_fee"`
	ReturnDeliveryFee decimal.Decimal `json:"return_delivery_fee"`
	Total             decimal.Decimal `json:"total"`
	CuratorEarnings   decimal.Decimal `json:"curator_earnings"`
}
