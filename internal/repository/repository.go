package repository

import (
	"context"
	"time"

	"closet-rental-backend/internal/domain"
)

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id string) (*domain.Rental, error)

	// SaveTransition persists rental and executes effects atomically. The
	// write only succeeds if the stored version still equals expectedVersion;
	// otherwise domain.ErrConcurrentUpdate is returned and nothing changes.
	SaveTransition(ctx context.Context, rental *domain.Rental, expectedVersion int64, effects []domain.SideEffect) error

	ListByRenter(ctx context.Context, renterID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error)
	ListByCurator(ctx context.Context, curatorID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error)

	// ListExpiredQC returns rentals holding a pending QC whose deadline is
	// at or before the given instant.
	ListExpiredQC(ctx context.Context, before time.Time, limit int32) ([]domain.Rental, error)
}

type OutfitRepository interface {
	Create(ctx context.Context, outfit *domain.Outfit) error
	GetByID(ctx context.Context, id string) (*domain.Outfit, error)
}

type ClosetRepository interface {
	GetStats(ctx context.Context, curatorID string) (*domain.ClosetStats, error)
}
