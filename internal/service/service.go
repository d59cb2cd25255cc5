package service

import (
	"context"

	"github.com/shopspring/decimal"

	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/lifecycle"
)

// Paging limits for rental lists.
const (
	DefaultPageSize int32 = 20
	MaxPageSize     int32 = 100
)

type CreateRentalInput struct {
	OutfitID     string
	RenterUserID string
	StartDate    string // yyyy-mm-dd
	EndDate      string // yyyy-mm-dd
}

type RentalService interface {
	CreateRental(ctx context.Context, in CreateRentalInput) (*domain.Rental, error)
	GetRental(ctx context.Context, id string) (*domain.Rental, error)
	ListRentals(ctx context.Context, userID string, asCurator bool, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error)
	Quote(perNightPrice decimal.Decimal, nights int) (domain.PricingSnapshot, error)
	ClosetStats(ctx context.Context, curatorID string) (*domain.ClosetStats, error)

	UpdateStatus(ctx context.Context, id string, next domain.RentalStatus, opts lifecycle.TransitionOptions) (*domain.Rental, error)
	SubmitDeliveryQC(ctx context.Context, id string, in domain.DeliveryQCInput) (*domain.Rental, error)
	SubmitReturnQC(ctx context.Context, id string, in domain.ReturnQCInput) (*domain.Rental, error)
	ReportIssue(ctx context.Context, id string, in domain.IssueReportInput) (*domain.Rental, error)
	ResolveIssue(ctx context.Context, id string, res domain.IssueResolution) (*domain.Rental, error)
	Annotate(ctx context.Context, id string, entryIndex int, note, authorID string) (*domain.Rental, error)

	// AutoApproveQC closes an expired QC window on one rental.
	AutoApproveQC(ctx context.Context, id string) (*domain.Rental, error)
	// ListExpiredQC returns up to limit rentals whose QC window has lapsed.
	ListExpiredQC(ctx context.Context, limit int32) ([]domain.Rental, error)
}
