package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/lifecycle"
	"closet-rental-backend/internal/lock"
	"closet-rental-backend/internal/logger"
	"closet-rental-backend/internal/notify"
	"closet-rental-backend/internal/repository"
	"closet-rental-backend/internal/utils"
)

type rentalService struct {
	engine     *lifecycle.Engine
	rentalRepo repository.RentalRepository
	outfitRepo repository.OutfitRepository
	closetRepo repository.ClosetRepository
	locker     lock.Locker
	notifier   notify.Notifier
}

func NewRentalService(
	engine *lifecycle.Engine,
	rentalRepo repository.RentalRepository,
	outfitRepo repository.OutfitRepository,
	closetRepo repository.ClosetRepository,
	locker lock.Locker,
	notifier notify.Notifier,
) RentalService {
	if notifier == nil {
		notifier = notify.NewNoop()
	}
	return &rentalService{
		engine:     engine,
		rentalRepo: rentalRepo,
		outfitRepo: outfitRepo,
		closetRepo: closetRepo,
		locker:     locker,
		notifier:   notifier,
	}
}

func (s *rentalService) CreateRental(ctx context.Context, in CreateRentalInput) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.CreateRental", "outfitID", in.OutfitID, "renterID", in.RenterUserID)

	loc := s.engine.Location()
	start, err := utils.ParseDateKey(in.StartDate, loc)
	if err != nil {
		return nil, &domain.InputError{Field: "start_date", Reason: err.Error()}
	}
	end, err := utils.ParseDateKey(in.EndDate, loc)
	if err != nil {
		return nil, &domain.InputError{Field: "end_date", Reason: err.Error()}
	}

	outfit, err := s.outfitRepo.GetByID(ctx, in.OutfitID)
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err)
		return nil, err
	}
	if outfit.CuratorID == in.RenterUserID {
		return nil, &domain.InputError{Field: "renter_user_id", Reason: "curators cannot rent their own outfits"}
	}

	rental, err := s.engine.NewRental(lifecycle.NewRentalInput{
		ID:            uuid.NewString(),
		OutfitID:      outfit.ID,
		CuratorID:     outfit.CuratorID,
		RenterUserID:  in.RenterUserID,
		StartDate:     start,
		EndDate:       end,
		PerNightPrice: outfit.PerNightPrice,
	})
	if err != nil {
		return nil, err
	}

	if outfit.IsBlocked(s.engine.DatesToBlock(rental)) {
		return nil, fmt.Errorf("outfit %s from %s to %s: %w", outfit.ID, in.StartDate, in.EndDate, domain.ErrDatesUnavailable)
	}

	if err := s.rentalRepo.Create(ctx, rental); err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err)
		return nil, err
	}

	logger.Info("Rental requested", "rental_id", rental.ID, "outfit_id", outfit.ID, "nights", rental.Nights, "total", rental.Pricing.Total.String())
	s.publish(ctx, "", rental)
	logger.ExitMethod("rentalService.CreateRental", "rentalID", rental.ID)
	return rental, nil
}

func (s *rentalService) GetRental(ctx context.Context, id string) (*domain.Rental, error) {
	return s.rentalRepo.GetByID(ctx, id)
}

func (s *rentalService) ListRentals(ctx context.Context, userID string, asCurator bool, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	if status != "" && !status.Valid() {
		return nil, 0, &domain.InputError{Field: "status", Reason: fmt.Sprintf("unknown value %q", status)}
	}
	page, pageSize = NormalizePage(page, pageSize)
	if asCurator {
		return s.rentalRepo.ListByCurator(ctx, userID, status, page, pageSize)
	}
	return s.rentalRepo.ListByRenter(ctx, userID, status, page, pageSize)
}

// NormalizePage returns the paging values a list call actually uses.
func NormalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

func (s *rentalService) Quote(perNightPrice decimal.Decimal, nights int) (domain.PricingSnapshot, error) {
	return s.engine.Pricing(perNightPrice, nights)
}

func (s *rentalService) ClosetStats(ctx context.Context, curatorID string) (*domain.ClosetStats, error) {
	return s.closetRepo.GetStats(ctx, curatorID)
}

// UpdateStatus is the plain status-change entry point. Moves that must be
// backed by inspection evidence are refused here.
func (s *rentalService) UpdateStatus(ctx context.Context, id string, next domain.RentalStatus, opts lifecycle.TransitionOptions) (*domain.Rental, error) {
	return s.mutate(ctx, id, "UpdateStatus", func(r *domain.Rental) (*domain.Rental, []domain.SideEffect, error) {
		if lifecycle.RequiresQC(r.Status, next) {
			return nil, nil, fmt.Errorf("%s to %s: %w", r.Status, next, domain.ErrQCRequired)
		}
		res, err := s.engine.TransitionRental(r, next, opts)
		if err != nil {
			return nil, nil, err
		}
		return res.Rental, res.SideEffects, nil
	})
}

func (s *rentalService) SubmitDeliveryQC(ctx context.Context, id string, in domain.DeliveryQCInput) (*domain.Rental, error) {
	return s.mutate(ctx, id, "SubmitDeliveryQC", func(r *domain.Rental) (*domain.Rental, []domain.SideEffect, error) {
		res, err := s.engine.SubmitDeliveryQC(r, in)
		if err != nil {
			return nil, nil, err
		}
		return res.Rental, res.SideEffects, nil
	})
}

func (s *rentalService) SubmitReturnQC(ctx context.Context, id string, in domain.ReturnQCInput) (*domain.Rental, error) {
	return s.mutate(ctx, id, "SubmitReturnQC", func(r *domain.Rental) (*domain.Rental, []domain.SideEffect, error) {
		res, err := s.engine.SubmitReturnQC(r, in)
		if err != nil {
			return nil, nil, err
		}
		return res.Rental, res.SideEffects, nil
	})
}

func (s *rentalService) ReportIssue(ctx context.Context, id string, in domain.IssueReportInput) (*domain.Rental, error) {
	return s.mutate(ctx, id, "ReportIssue", func(r *domain.Rental) (*domain.Rental, []domain.SideEffect, error) {
		next, err := s.engine.ReportIssue(r, in)
		return next, nil, err
	})
}

func (s *rentalService) ResolveIssue(ctx context.Context, id string, res domain.IssueResolution) (*domain.Rental, error) {
	return s.mutate(ctx, id, "ResolveIssue", func(r *domain.Rental) (*domain.Rental, []domain.SideEffect, error) {
		out, err := s.engine.ResolveIssue(r, res)
		if err != nil {
			return nil, nil, err
		}
		return out.Rental, out.SideEffects, nil
	})
}

func (s *rentalService) Annotate(ctx context.Context, id string, entryIndex int, note, authorID string) (*domain.Rental, error) {
	return s.mutate(ctx, id, "Annotate", func(r *domain.Rental) (*domain.Rental, []domain.SideEffect, error) {
		next, err := s.engine.Annotate(r, entryIndex, note, authorID)
		return next, nil, err
	})
}

func (s *rentalService) AutoApproveQC(ctx context.Context, id string) (*domain.Rental, error) {
	return s.mutate(ctx, id, "AutoApproveQC", func(r *domain.Rental) (*domain.Rental, []domain.SideEffect, error) {
		res, err := s.engine.AutoApproveQC(r)
		if err != nil {
			return nil, nil, err
		}
		return res.Rental, res.SideEffects, nil
	})
}

func (s *rentalService) ListExpiredQC(ctx context.Context, limit int32) ([]domain.Rental, error) {
	return s.rentalRepo.ListExpiredQC(ctx, s.engine.Now(), limit)
}

type mutation func(r *domain.Rental) (*domain.Rental, []domain.SideEffect, error)

// mutate runs fn against the latest stored rental while holding the rental's
// lock, then persists the result and its side effects in one write.
func (s *rentalService) mutate(ctx context.Context, id, op string, fn mutation) (*domain.Rental, error) {
	method := "rentalService." + op
	logger.EnterMethod(method, "rentalID", id)

	unlock, err := s.locker.Lock(ctx, lock.RentalKey(id))
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			err = fmt.Errorf("rental %s: %w", id, domain.ErrRentalLocked)
		}
		logger.ExitMethodWithError(method, err)
		return nil, err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to release rental lock", "rental_id", id, "error", err)
		}
	}()

	current, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError(method, err)
		return nil, err
	}

	next, effects, err := fn(current)
	if err != nil {
		logger.ExitMethodWithError(method, err, "status", current.Status)
		return nil, err
	}

	if err := s.checkAvailability(ctx, effects); err != nil {
		logger.ExitMethodWithError(method, err, "status", current.Status)
		return nil, err
	}

	if err := s.rentalRepo.SaveTransition(ctx, next, current.Version, effects); err != nil {
		logger.ExitMethodWithError(method, err)
		return nil, err
	}

	if next.Status != current.Status {
		logger.WithRental(id).Info("Rental transitioned", "op", op, "from", current.Status, "to", next.Status, "side_effects", len(effects))
	}
	s.publish(ctx, current.Status, next)
	logger.ExitMethod(method, "rentalID", id, "status", next.Status)
	return next, nil
}

// checkAvailability refuses a write that would block dates another rental
// already holds. The store repeats the check inside the transaction.
func (s *rentalService) checkAvailability(ctx context.Context, effects []domain.SideEffect) error {
	for _, eff := range effects {
		block, ok := eff.(domain.BlockDates)
		if !ok {
			continue
		}
		outfit, err := s.outfitRepo.GetByID(ctx, block.OutfitID)
		if err != nil {
			return err
		}
		if outfit.IsBlocked(block.Dates) {
			return fmt.Errorf("outfit %s: %w", outfit.ID, domain.ErrDatesUnavailable)
		}
	}
	return nil
}

// publish sends notifications for a status change. Failures are logged only.
func (s *rentalService) publish(ctx context.Context, from domain.RentalStatus, r *domain.Rental) {
	if from == r.Status {
		return
	}
	for _, ev := range notify.EventsFor(from, r) {
		logger.ExternalServiceCall("notify", string(ev.Kind), "rental_id", r.ID)
		err := s.notifier.Notify(ctx, ev)
		logger.ExternalServiceResult("notify", string(ev.Kind), err, "rental_id", r.ID)
	}
}
