package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/repository"
)

type closetRepository struct {
	db *sql.DB
}

func NewClosetRepository(db *sql.DB) repository.ClosetRepository {
	return &closetRepository{db: db}
}

// GetStats returns zeroed stats for a curator with no completed rentals.
func (r *closetRepository) GetStats(ctx context.Context, curatorID string) (*domain.ClosetStats, error) {
	s := &domain.ClosetStats{CuratorID: curatorID}
	query := `SELECT rentals_count, earnings FROM closets WHERE curator_id = $1`
	err := r.db.QueryRowContext(ctx, query, curatorID).Scan(&s.RentalsCount, &s.Earnings)
	if errors.Is(err, sql.ErrNoRows) {
		s.Earnings = decimal.Zero
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func incrementClosetStats(ctx context.Context, tx *sql.Tx, e domain.IncrementClosetStats, now time.Time) error {
	query := `INSERT INTO closets (curator_id, rentals_count, earnings, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (curator_id) DO UPDATE
	          SET rentals_count = closets.rentals_count + EXCLUDED.rentals_count,
	              earnings = closets.earnings + EXCLUDED.earnings,
	              updated_at = EXCLUDED.updated_at`
	_, err := tx.ExecContext(ctx, query, e.CuratorID, e.RentalsCount, e.Earnings, now)
	return err
}
