package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/notify"
)

type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, r *domain.Rental) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRentalRepo) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy so the service never mutates the fixture.
	return args.Get(0).(*domain.Rental).Clone(), args.Error(1)
}

func (m *MockRentalRepo) SaveTransition(ctx context.Context, r *domain.Rental, expectedVersion int64, effects []domain.SideEffect) error {
	args := m.Called(ctx, r, expectedVersion, effects)
	return args.Error(0)
}

func (m *MockRentalRepo) ListByRenter(ctx context.Context, renterID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	args := m.Called(ctx, renterID, status, page, pageSize)
	return args.Get(0).([]domain.Rental), args.Get(1).(int32), args.Error(2)
}

func (m *MockRentalRepo) ListByCurator(ctx context.Context, curatorID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	args := m.Called(ctx, curatorID, status, page, pageSize)
	return args.Get(0).([]domain.Rental), args.Get(1).(int32), args.Error(2)
}

func (m *MockRentalRepo) ListExpiredQC(ctx context.Context, before time.Time, limit int32) ([]domain.Rental, error) {
	args := m.Called(ctx, before, limit)
	return args.Get(0).([]domain.Rental), args.Error(1)
}

type MockOutfitRepo struct {
	mock.Mock
}

func (m *MockOutfitRepo) Create(ctx context.Context, o *domain.Outfit) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOutfitRepo) GetByID(ctx context.Context, id string) (*domain.Outfit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Outfit), args.Error(1)
}

type MockClosetRepo struct {
	mock.Mock
}

func (m *MockClosetRepo) GetStats(ctx context.Context, curatorID string) (*domain.ClosetStats, error) {
	args := m.Called(ctx, curatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClosetStats), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, ev notify.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
