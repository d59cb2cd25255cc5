package jobs

import (
	"context"
	"errors"

	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/logger"
)

// SweepResult counts what one auto-approve pass did.
type SweepResult struct {
	Found    int
	Approved int
	Skipped  int
	Failed   int
}

// AutoApproveExpiredQC advances every rental whose QC window lapsed
// without a submission.
func (jr *JobRunner) AutoApproveExpiredQC() {
	jr.runWithRecovery("AutoApproveExpiredQC", func(ctx context.Context) {
		jr.SweepExpiredQC(ctx)
	})
}

// SweepExpiredQC runs a single batch. A rental that was handled by a
// concurrent QC submission or is locked is skipped and picked up next run.
func (jr *JobRunner) SweepExpiredQC(ctx context.Context) SweepResult {
	var res SweepResult

	batch := int32(jr.config.Scheduler.QCSweepBatch)
	rentals, err := jr.rentals.ListExpiredQC(ctx, batch)
	if err != nil {
		logger.Error("Failed to list expired QC windows", "error", err)
		return res
	}
	res.Found = len(rentals)

	for _, r := range rentals {
		updated, err := jr.rentals.AutoApproveQC(ctx, r.ID)
		switch {
		case err == nil:
			res.Approved++
			logger.Debug("QC auto-approved", "rental_id", r.ID, "status", updated.Status)
		case errors.Is(err, domain.ErrQCNotApplicable),
			errors.Is(err, domain.ErrRentalLocked),
			errors.Is(err, domain.ErrConcurrentUpdate):
			res.Skipped++
			logger.Debug("QC auto-approve skipped", "rental_id", r.ID, "reason", err)
		default:
			res.Failed++
			logger.Error("QC auto-approve failed", "rental_id", r.ID, "error", err)
		}
	}

	logger.Info("Expired QC sweep finished",
		"found", res.Found,
		"approved", res.Approved,
		"skipped", res.Skipped,
		"failed", res.Failed)
	return res
}
