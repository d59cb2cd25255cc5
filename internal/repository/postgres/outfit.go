package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/logger"
	"closet-rental-backend/internal/repository"
)

type outfitRepository struct {
	db *sql.DB
}

func NewOutfitRepository(db *sql.DB) repository.OutfitRepository {
	return &outfitRepository{db: db}
}

func (r *outfitRepository) Create(ctx context.Context, o *domain.Outfit) error {
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = time.Now()
	}
	query := `INSERT INTO outfits (id, curator_id, title, per_night_price, blocked_dates, rentals_count, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	logger.DatabaseCall("outfits.Create", query, "outfit_id", o.ID)
	_, err := r.db.ExecContext(ctx, query, o.ID, o.CuratorID, o.Title, o.PerNightPrice, pq.Array(o.BlockedDates), o.RentalsCount, o.UpdatedAt)
	logger.DatabaseResult("outfits.Create", 1, err, "outfit_id", o.ID)
	return err
}

func (r *outfitRepository) GetByID(ctx context.Context, id string) (*domain.Outfit, error) {
	o := &domain.Outfit{}
	query := `SELECT id, curator_id, title, per_night_price, blocked_dates, rentals_count, updated_at FROM outfits WHERE id = $1`
	logger.DatabaseCall("outfits.GetByID", query, "outfit_id", id)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&o.ID, &o.CuratorID, &o.Title, &o.PerNightPrice, pq.Array(&o.BlockedDates), &o.RentalsCount, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("outfits.GetByID", 0, nil, "outfit_id", id)
		return nil, domain.ErrOutfitNotFound
	}
	logger.DatabaseResult("outfits.GetByID", 1, err, "outfit_id", id)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// blockDates adds keys to the outfit's blocked set, keeping it sorted and
// free of duplicates. It refuses when any key is already held.
func blockDates(ctx context.Context, tx *sql.Tx, outfitID string, dates []string, now time.Time) error {
	query := `UPDATE outfits
	          SET blocked_dates = ARRAY(SELECT DISTINCT d FROM unnest(blocked_dates || $2::text[]) AS d ORDER BY d),
	              updated_at = $3
	          WHERE id = $1 AND NOT (blocked_dates && $2::text[])`
	err := execOne(ctx, tx, domain.ErrDatesUnavailable, query, outfitID, pq.Array(dates), now)
	if !errors.Is(err, domain.ErrDatesUnavailable) {
		return err
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM outfits WHERE id = $1)`, outfitID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrOutfitNotFound
	}
	return fmt.Errorf("outfit %s: %w", outfitID, domain.ErrDatesUnavailable)
}

func unblockDates(ctx context.Context, tx *sql.Tx, outfitID string, dates []string, now time.Time) error {
	query := `UPDATE outfits
	          SET blocked_dates = ARRAY(SELECT d FROM unnest(blocked_dates) AS d WHERE d <> ALL($2::text[]) ORDER BY d),
	              updated_at = $3
	          WHERE id = $1`
	return execOne(ctx, tx, domain.ErrOutfitNotFound, query, outfitID, pq.Array(dates), now)
}

func incrementOutfitStats(ctx context.Context, tx *sql.Tx, outfitID string, count int, now time.Time) error {
	query := `UPDATE outfits SET rentals_count = rentals_count + $2, updated_at = $3 WHERE id = $1`
	return execOne(ctx, tx, domain.ErrOutfitNotFound, query, outfitID, count, now)
}

// execOne runs an update that must touch exactly one row.
func execOne(ctx context.Context, tx *sql.Tx, notFound error, query string, args ...interface{}) error {
	logger.DatabaseCall("exec", query)
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("exec", 0, err)
		return err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("exec", rows, err)
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
