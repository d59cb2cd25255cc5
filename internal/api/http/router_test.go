package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/lifecycle"
	"closet-rental-backend/internal/security"
	"closet-rental-backend/internal/service"
)

type MockRentalService struct {
	mock.Mock
}

func (m *MockRentalService) rental(args mock.Arguments) (*domain.Rental, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalService) CreateRental(ctx context.Context, in service.CreateRentalInput) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, in))
}

func (m *MockRentalService) GetRental(ctx context.Context, id string) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, id))
}

func (m *MockRentalService) ListRentals(ctx context.Context, userID string, asCurator bool, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	args := m.Called(ctx, userID, asCurator, status, page, pageSize)
	return args.Get(0).([]domain.Rental), args.Get(1).(int32), args.Error(2)
}

func (m *MockRentalService) Quote(perNightPrice decimal.Decimal, nights int) (domain.PricingSnapshot, error) {
	args := m.Called(perNightPrice, nights)
	return args.Get(0).(domain.PricingSnapshot), args.Error(1)
}

func (m *MockRentalService) ClosetStats(ctx context.Context, curatorID string) (*domain.ClosetStats, error) {
	args := m.Called(ctx, curatorID)
	return args.Get(0).(*domain.ClosetStats), args.Error(1)
}

func (m *MockRentalService) UpdateStatus(ctx context.Context, id string, next domain.RentalStatus, opts lifecycle.TransitionOptions) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, id, next, opts))
}

func (m *MockRentalService) SubmitDeliveryQC(ctx context.Context, id string, in domain.DeliveryQCInput) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, id, in))
}

func (m *MockRentalService) SubmitReturnQC(ctx context.Context, id string, in domain.ReturnQCInput) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, id, in))
}

func (m *MockRentalService) ReportIssue(ctx context.Context, id string, in domain.IssueReportInput) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, id, in))
}

func (m *MockRentalService) ResolveIssue(ctx context.Context, id string, res domain.IssueResolution) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, id, res))
}

func (m *MockRentalService) Annotate(ctx context.Context, id string, entryIndex int, note, authorID string) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, id, entryIndex, note, authorID))
}

func (m *MockRentalService) AutoApproveQC(ctx context.Context, id string) (*domain.Rental, error) {
	return m.rental(m.Called(ctx, id))
}

func (m *MockRentalService) ListExpiredQC(ctx context.Context, limit int32) ([]domain.Rental, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Rental), args.Error(1)
}

const testSecret = "0123456789abcdef0123456789abcdef"

type apiFixture struct {
	svc    *MockRentalService
	tm     security.TokenManager
	router http.Handler
}

func newAPIFixture(t *testing.T, checks map[string]PingFunc) *apiFixture {
	t.Helper()
	svc := new(MockRentalService)
	tm := security.NewTokenManager(testSecret, "closet-auth", time.Hour)
	return &apiFixture{svc: svc, tm: tm, router: NewRouter(svc, tm, checks)}
}

func (f *apiFixture) token(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	token, err := f.tm.GenerateAccessToken(userID, roles)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func sampleRental() *domain.Rental {
	return &domain.Rental{
		ID:           "r-1",
		OutfitID:     "o-1",
		CuratorID:    "curator-1",
		RenterUserID: "renter-1",
		Status:       domain.RentalStatusPaid,
	}
}

func TestHealth(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newAPIFixture(t, map[string]PingFunc{
			"database": func(context.Context) error { return nil },
		})
		rec, resp := f.do(t, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
	})

	t.Run("Dependency Down", func(t *testing.T) {
		f := newAPIFixture(t, map[string]PingFunc{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		})
		rec, resp := f.do(t, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, resp.Success)
	})
}

func TestStatuses_Public(t *testing.T) {
	f := newAPIFixture(t, nil)
	rec, resp := f.do(t, http.MethodGet, "/api/v1/statuses", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data, len(domain.AllRentalStatuses))
}

func TestQuote(t *testing.T) {
	f := newAPIFixture(t, nil)
	snapshot, err := lifecycle.ComputePricing(decimal.NewFromInt(450), 3)
	require.NoError(t, err)
	f.svc.On("Quote", mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(450)) }), 3).Return(snapshot, nil)

	rec, _ := f.do(t, http.MethodPost, "/api/v1/pricing/quote", "", map[string]interface{}{"perNightPrice": "450", "nights": 3})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/pricing/quote", "", map[string]interface{}{"perNightPrice": "450", "nights": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth(t *testing.T) {
	f := newAPIFixture(t, nil)

	t.Run("Missing Token", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/api/v1/rentals/r-1", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Bad Token", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/api/v1/rentals/r-1", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Admin Route Without Role", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/resolution", f.token(t, "renter-1"),
			map[string]string{"status": "completed", "note": "ok"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		f.svc.AssertNotCalled(t, "ResolveIssue", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetRental(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.svc.On("GetRental", mock.Anything, "r-1").Return(sampleRental(), nil)
	f.svc.On("GetRental", mock.Anything, "missing").Return(nil, domain.ErrRentalNotFound)

	t.Run("Success", func(t *testing.T) {
		rec, resp := f.do(t, http.MethodGet, "/api/v1/rentals/r-1", f.token(t, "renter-1"), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
	})

	t.Run("Admin", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/api/v1/rentals/r-1", f.token(t, "ops", security.RoleAdmin), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Stranger", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/api/v1/rentals/r-1", f.token(t, "someone"), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Not Found", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/api/v1/rentals/missing", f.token(t, "renter-1"), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCreateRental(t *testing.T) {
	f := newAPIFixture(t, nil)

	t.Run("Success", func(t *testing.T) {
		in := service.CreateRentalInput{OutfitID: "o-1", RenterUserID: "renter-1", StartDate: "2026-05-10", EndDate: "2026-05-13"}
		f.svc.On("CreateRental", mock.Anything, in).Return(sampleRental(), nil).Once()

		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals", f.token(t, "renter-1"),
			map[string]string{"outfitId": "o-1", "startDate": "2026-05-10", "endDate": "2026-05-13"})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("Bad Date", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals", f.token(t, "renter-1"),
			map[string]string{"outfitId": "o-1", "startDate": "10/05/2026", "endDate": "2026-05-13"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Dates Taken", func(t *testing.T) {
		f.svc.On("CreateRental", mock.Anything, mock.Anything).Return(nil, domain.ErrDatesUnavailable).Once()
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals", f.token(t, "renter-1"),
			map[string]string{"outfitId": "o-1", "startDate": "2026-05-10", "endDate": "2026-05-13"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestUpdateStatus(t *testing.T) {
	f := newAPIFixture(t, nil)
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	f.svc.On("GetRental", mock.Anything, "r-1").Return(sampleRental(), nil)

	t.Run("Success", func(t *testing.T) {
		want := lifecycle.TransitionOptions{
			Note: "paid via card",
			Payment: &domain.PaymentDetails{
				PaymentID: "pay-1",
				Provider:  "stripe",
				Amount:    decimal.RequireFromString("1880"),
				PaidAt:    fixed,
			},
		}
		f.svc.On("UpdateStatus", mock.Anything, "r-1", domain.RentalStatusPaid, mock.MatchedBy(func(o lifecycle.TransitionOptions) bool {
			return o.Note == want.Note && o.Payment != nil &&
				o.Payment.PaymentID == "pay-1" && o.Payment.PaidAt.Equal(fixed) &&
				o.Payment.Amount.Equal(want.Payment.Amount)
		})).Return(sampleRental(), nil).Once()

		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/status", f.token(t, "renter-1"), map[string]interface{}{
			"status": "paid",
			"note":   "paid via card",
			"payment": map[string]interface{}{
				"paymentId": "pay-1", "provider": "stripe", "amount": "1880", "paidAt": fixed,
			},
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Invalid Transition", func(t *testing.T) {
		err := fmt.Errorf("update: %w", &domain.TransitionError{From: domain.RentalStatusPaid, To: domain.RentalStatusCompleted})
		f.svc.On("UpdateStatus", mock.Anything, "r-1", domain.RentalStatusCompleted, mock.Anything).Return(nil, err).Once()

		rec, resp := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/status", f.token(t, "curator-1"),
			map[string]string{"status": "completed"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, resp.Error, "cannot move from paid to completed")
	})

	t.Run("Unknown Field", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/status", f.token(t, "curator-1"),
			map[string]string{"status": "completed", "bogus": "x"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQCAndIssues_PartyChecks(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.svc.On("GetRental", mock.Anything, "r-1").Return(sampleRental(), nil)

	t.Run("Curator Cannot Submit Delivery QC", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/delivery-qc", f.token(t, "curator-1"),
			map[string]bool{"itemsReceived": true, "conditionOk": true, "sizeOk": true})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Renter Submits Delivery QC", func(t *testing.T) {
		in := domain.DeliveryQCInput{ItemsReceived: true, ConditionOK: true, SizeOK: true}
		f.svc.On("SubmitDeliveryQC", mock.Anything, "r-1", in).Return(sampleRental(), nil).Once()
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/delivery-qc", f.token(t, "renter-1"),
			map[string]bool{"itemsReceived": true, "conditionOk": true, "sizeOk": true})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("QC Not Open", func(t *testing.T) {
		in := domain.ReturnQCInput{ConditionOK: true, DamageLevel: domain.DamageLevelNone}
		f.svc.On("SubmitReturnQC", mock.Anything, "r-1", in).Return(nil, domain.ErrQCNotApplicable).Once()
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/return-qc", f.token(t, "curator-1"),
			map[string]interface{}{"conditionOk": true, "damageLevel": "none"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("Renter Cannot Report As Curator", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/issues", f.token(t, "renter-1"),
			map[string]interface{}{"reporterType": "curator", "category": "damage", "description": "torn"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Renter Reports", func(t *testing.T) {
		in := domain.IssueReportInput{
			ReporterID:   "renter-1",
			ReporterType: domain.ReporterTypeUser,
			Category:     "damage",
			Description:  "torn hem",
			ImageURLs:    []string{"https://cdn.example.com/1.jpg"},
		}
		f.svc.On("ReportIssue", mock.Anything, "r-1", in).Return(sampleRental(), nil).Once()
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/issues", f.token(t, "renter-1"),
			map[string]interface{}{
				"reporterType": "user", "category": "damage", "description": "torn hem",
				"imageUrls": []string{"https://cdn.example.com/1.jpg"},
			})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAdminRoutes(t *testing.T) {
	f := newAPIFixture(t, nil)
	admin := f.token(t, "ops-1", security.RoleAdmin)

	t.Run("Resolve", func(t *testing.T) {
		f.svc.On("ResolveIssue", mock.Anything, "r-1", mock.MatchedBy(func(res domain.IssueResolution) bool {
			return res.NewStatus == domain.RentalStatusCompleted &&
				res.Note == "partial refund" &&
				res.CuratorEarnings != nil && res.CuratorEarnings.Equal(decimal.NewFromInt(900))
		})).Return(sampleRental(), nil).Once()

		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/resolution", admin,
			map[string]interface{}{"status": "completed", "note": "partial refund", "curatorEarnings": "900"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Resolve Not Disputed", func(t *testing.T) {
		f.svc.On("ResolveIssue", mock.Anything, "r-2", mock.Anything).Return(nil, domain.ErrNotDisputed).Once()
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-2/resolution", admin,
			map[string]interface{}{"status": "completed", "note": "n/a"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Annotate", func(t *testing.T) {
		f.svc.On("Annotate", mock.Anything, "r-1", 0, "typo in note", "ops-1").Return(sampleRental(), nil).Once()
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/annotations", admin,
			map[string]interface{}{"entryIndex": 0, "note": "typo in note"})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("Annotate Missing Index", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodPost, "/api/v1/rentals/r-1/annotations", admin,
			map[string]interface{}{"note": "typo in note"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListAndStats(t *testing.T) {
	f := newAPIFixture(t, nil)

	t.Run("List As Curator", func(t *testing.T) {
		f.svc.On("ListRentals", mock.Anything, "curator-1", true, domain.RentalStatusDisputed, int32(2), int32(10)).
			Return([]domain.Rental{*sampleRental()}, int32(11), nil).Once()
		rec, resp := f.do(t, http.MethodGet, "/api/v1/rentals?role=curator&status=disputed&page=2&pageSize=10", f.token(t, "curator-1"), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		data := resp.Data.(map[string]interface{})
		assert.EqualValues(t, 11, data["total"])
		assert.EqualValues(t, 2, data["page"])
		assert.EqualValues(t, 10, data["pageSize"])
	})

	t.Run("List Default Paging", func(t *testing.T) {
		f.svc.On("ListRentals", mock.Anything, "renter-1", false, domain.RentalStatus(""), int32(1), int32(20)).
			Return([]domain.Rental{}, int32(0), nil).Once()
		rec, resp := f.do(t, http.MethodGet, "/api/v1/rentals", f.token(t, "renter-1"), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		data := resp.Data.(map[string]interface{})
		assert.EqualValues(t, 1, data["page"])
		assert.EqualValues(t, 20, data["pageSize"])
	})

	t.Run("Bad Role", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/api/v1/rentals?role=owner", f.token(t, "curator-1"), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Own Stats", func(t *testing.T) {
		f.svc.On("ClosetStats", mock.Anything, "curator-1").
			Return(&domain.ClosetStats{CuratorID: "curator-1", RentalsCount: 3, Earnings: decimal.NewFromInt(1350)}, nil).Once()
		rec, _ := f.do(t, http.MethodGet, "/api/v1/closets/curator-1/stats", f.token(t, "curator-1"), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Other Closet", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/api/v1/closets/curator-1/stats", f.token(t, "curator-2"), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&domain.InputError{Field: "note", Reason: "required"}, http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusForbidden},
		{domain.ErrOutfitNotFound, http.StatusNotFound},
		{domain.ErrConcurrentUpdate, http.StatusConflict},
		{fmt.Errorf("rental x: %w", domain.ErrRentalLocked), http.StatusConflict},
		{domain.ErrQCRequired, http.StatusConflict},
		{domain.ErrQCAlreadySubmitted, http.StatusConflict},
		{domain.ErrIssueReportNotAllowed, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}
