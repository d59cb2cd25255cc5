package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"closet-rental-backend/internal/config"
	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/lifecycle"
	"closet-rental-backend/internal/service"
)

type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) CreateRental(ctx context.Context, in service.CreateRentalInput) (*domain.Rental, error) {
	panic("not used")
}

func (m *MockRentalService) GetRental(ctx context.Context, id string) (*domain.Rental, error) {
	panic("not used")
}

func (m *MockRentalService) ListRentals(ctx context.Context, userID string, asCurator bool, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	panic("not used")
}

func (m *MockRentalService) Quote(perNightPrice decimal.Decimal, nights int) (domain.PricingSnapshot, error) {
	panic("not used")
}

func (m *MockRentalService) ClosetStats(ctx context.Context, curatorID string) (*domain.ClosetStats, error) {
	panic("not used")
}

func (m *MockRentalService) UpdateStatus(ctx context.Context, id string, next domain.RentalStatus, opts lifecycle.TransitionOptions) (*domain.Rental, error) {
	panic("not used")
}

func (m *MockRentalService) SubmitDeliveryQC(ctx context.Context, id string, in domain.DeliveryQCInput) (*domain.Rental, error) {
	panic("not used")
}

func (m *MockRentalService) SubmitReturnQC(ctx context.Context, id string, in domain.ReturnQCInput) (*domain.Rental, error) {
	panic("not used")
}

func (m *MockRentalService) ReportIssue(ctx context.Context, id string, in domain.IssueReportInput) (*domain.Rental, error) {
	panic("not used")
}

func (m *MockRentalService) ResolveIssue(ctx context.Context, id string, res domain.IssueResolution) (*domain.Rental, error) {
	panic("not used")
}

func (m *MockRentalService) Annotate(ctx context.Context, id string, entryIndex int, note, authorID string) (*domain.Rental, error) {
	panic("not used")
}

func (m *MockRentalService) AutoApproveQC(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalService) ListExpiredQC(ctx context.Context, limit int32) ([]domain.Rental, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scheduler.AutoApproveQC = "0 * * * * *"
	cfg.Scheduler.QCSweepBatch = 50
	return cfg
}

func TestSweepExpiredQC(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockRentalService)
		jr := NewJobRunner(svc, testConfig())
		ctx := context.Background()

		svc.On("ListExpiredQC", ctx, int32(50)).Return([]domain.Rental{
			{ID: "r-1"}, {ID: "r-2"}, {ID: "r-3"}, {ID: "r-4"},
		}, nil)
		svc.On("AutoApproveQC", ctx, "r-1").Return(&domain.Rental{ID: "r-1", Status: domain.RentalStatusInUse}, nil)
		svc.On("AutoApproveQC", ctx, "r-2").Return(nil, fmt.Errorf("rental r-2: %w", domain.ErrQCNotApplicable))
		svc.On("AutoApproveQC", ctx, "r-3").Return(nil, fmt.Errorf("rental r-3: %w", domain.ErrRentalLocked))
		svc.On("AutoApproveQC", ctx, "r-4").Return(nil, errors.New("db down"))

		res := jr.SweepExpiredQC(ctx)

		assert.Equal(t, SweepResult{Found: 4, Approved: 1, Skipped: 2, Failed: 1}, res)
		svc.AssertExpectations(t)
	})

	t.Run("List Fails", func(t *testing.T) {
		svc := new(MockRentalService)
		jr := NewJobRunner(svc, testConfig())
		ctx := context.Background()

		svc.On("ListExpiredQC", ctx, int32(50)).Return(nil, errors.New("db down"))

		res := jr.SweepExpiredQC(ctx)

		assert.Equal(t, SweepResult{}, res)
		svc.AssertNotCalled(t, "AutoApproveQC", mock.Anything, mock.Anything)
	})
}

func TestAutoApproveExpiredQC_RecoversPanic(t *testing.T) {
	svc := new(MockRentalService)
	jr := NewJobRunner(svc, testConfig())

	svc.On("ListExpiredQC", mock.Anything, int32(50)).Return([]domain.Rental{{ID: "r-1"}}, nil)
	svc.On("AutoApproveQC", mock.Anything, "r-1").Run(func(mock.Arguments) {
		panic("boom")
	}).Return(nil, nil)

	assert.NotPanics(t, jr.AutoApproveExpiredQC)
}
