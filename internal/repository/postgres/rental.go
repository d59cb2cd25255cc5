package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/logger"
	"closet-rental-backend/internal/repository"
)

const rentalColumns = `id, outfit_id, curator_id, renter_user_id, start_date, end_date, nights, status,
	timeline, annotations, pricing, curator_earnings, delivery_qc, return_qc, issue_report, payment,
	version, created_at, updated_at`

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	doc, err := encodeRental(rt)
	if err != nil {
		return err
	}
	if rt.Version == 0 {
		rt.Version = 1
	}
	query := `INSERT INTO rentals (` + rentalColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	logger.DatabaseCall("rentals.Create", query, "rental_id", rt.ID)
	_, err = r.db.ExecContext(ctx, query,
		rt.ID, rt.OutfitID, rt.CuratorID, rt.RenterUserID, rt.StartDate, rt.EndDate, rt.Nights, rt.Status,
		doc.timeline, doc.annotations, doc.pricing, rt.CuratorEarnings,
		doc.deliveryQC, doc.returnQC, doc.issueReport, doc.payment,
		rt.Version, rt.CreatedAt, rt.UpdatedAt)
	logger.DatabaseResult("rentals.Create", 1, err, "rental_id", rt.ID)
	return err
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	logger.DatabaseCall("rentals.GetByID", query, "rental_id", id)
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("rentals.GetByID", 0, nil, "rental_id", id)
		return nil, domain.ErrRentalNotFound
	}
	logger.DatabaseResult("rentals.GetByID", 1, err, "rental_id", id)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *rentalRepository) SaveTransition(ctx context.Context, rt *domain.Rental, expectedVersion int64, effects []domain.SideEffect) error {
	doc, err := encodeRental(rt)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE rentals
	          SET status = $1, timeline = $2, annotations = $3, curator_earnings = $4,
	              delivery_qc = $5, return_qc = $6, issue_report = $7, payment = $8,
	              version = version + 1, updated_at = $9
	          WHERE id = $10 AND version = $11`
	err = execOne(ctx, tx, domain.ErrConcurrentUpdate, query,
		rt.Status, doc.timeline, doc.annotations, rt.CuratorEarnings,
		doc.deliveryQC, doc.returnQC, doc.issueReport, doc.payment,
		rt.UpdatedAt, rt.ID, expectedVersion)
	if err != nil {
		return err
	}

	for _, effect := range effects {
		if err := applySideEffect(ctx, tx, effect, rt.UpdatedAt); err != nil {
			return fmt.Errorf("apply %s: %w", effect.Kind(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		logger.DatabaseResult("rentals.SaveTransition", 0, err, "rental_id", rt.ID)
		return err
	}
	logger.DatabaseResult("rentals.SaveTransition", 1, nil, "rental_id", rt.ID, "side_effects", len(effects))
	rt.Version = expectedVersion + 1
	return nil
}

func applySideEffect(ctx context.Context, tx *sql.Tx, effect domain.SideEffect, now time.Time) error {
	switch e := effect.(type) {
	case domain.BlockDates:
		return blockDates(ctx, tx, e.OutfitID, e.Dates, now)
	case domain.UnblockDates:
		return unblockDates(ctx, tx, e.OutfitID, e.Dates, now)
	case domain.IncrementOutfitStats:
		return incrementOutfitStats(ctx, tx, e.OutfitID, e.RentalsCount, now)
	case domain.IncrementClosetStats:
		return incrementClosetStats(ctx, tx, e, now)
	default:
		return fmt.Errorf("unknown side effect %T", effect)
	}
}

func (r *rentalRepository) ListByRenter(ctx context.Context, renterID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.list(ctx, "renter_user_id", renterID, status, page, pageSize)
}

func (r *rentalRepository) ListByCurator(ctx context.Context, curatorID string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.list(ctx, "curator_id", curatorID, status, page, pageSize)
}

func (r *rentalRepository) list(ctx context.Context, column, id string, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	offset := (page - 1) * pageSize
	where := ` FROM rentals WHERE ` + column + ` = $1`

	args := []interface{}{id}
	argIdx := 2
	if status != "" {
		where += " AND status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, "SELECT count(*)"+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + rentalColumns + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rentals, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return rentals, count, nil
}

func (r *rentalRepository) ListExpiredQC(ctx context.Context, before time.Time, limit int32) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals
	          WHERE (status = 'delivered' AND delivery_qc->>'status' = 'pending'
	                 AND (delivery_qc->>'deadline')::timestamptz <= $1)
	             OR (status = 'return_delivered' AND return_qc->>'status' = 'pending'
	                 AND (return_qc->>'deadline')::timestamptz <= $1)
	          ORDER BY updated_at
	          LIMIT $2`
	return r.query(ctx, query, before, limit)
}

func (r *rentalRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Rental, error) {
	logger.DatabaseCall("rentals.query", query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("rentals.query", 0, err)
		return nil, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			logger.DatabaseResult("rentals.query", int64(len(rentals)), err)
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	err = rows.Err()
	logger.DatabaseResult("rentals.query", int64(len(rentals)), err)
	return rentals, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRental(row rowScanner) (*domain.Rental, error) {
	rt := &domain.Rental{}
	var timeline, annotations, pricing, deliveryQC, returnQC, issueReport, payment []byte
	err := row.Scan(
		&rt.ID, &rt.OutfitID, &rt.CuratorID, &rt.RenterUserID, &rt.StartDate, &rt.EndDate, &rt.Nights, &rt.Status,
		&timeline, &annotations, &pricing, &rt.CuratorEarnings,
		&deliveryQC, &returnQC, &issueReport, &payment,
		&rt.Version, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(timeline, &rt.Timeline); err != nil {
		return nil, fmt.Errorf("decode timeline of rental %s: %w", rt.ID, err)
	}
	if err := json.Unmarshal(pricing, &rt.Pricing); err != nil {
		return nil, fmt.Errorf("decode pricing of rental %s: %w", rt.ID, err)
	}
	if len(annotations) > 0 {
		if err := json.Unmarshal(annotations, &rt.Annotations); err != nil {
			return nil, fmt.Errorf("decode annotations of rental %s: %w", rt.ID, err)
		}
	}
	if rt.DeliveryQC, err = decodeNullable[domain.DeliveryQC](deliveryQC); err != nil {
		return nil, fmt.Errorf("decode delivery_qc of rental %s: %w", rt.ID, err)
	}
	if rt.ReturnQC, err = decodeNullable[domain.ReturnQC](returnQC); err != nil {
		return nil, fmt.Errorf("decode return_qc of rental %s: %w", rt.ID, err)
	}
	if rt.IssueReport, err = decodeNullable[domain.IssueReport](issueReport); err != nil {
		return nil, fmt.Errorf("decode issue_report of rental %s: %w", rt.ID, err)
	}
	if rt.Payment, err = decodeNullable[domain.PaymentDetails](payment); err != nil {
		return nil, fmt.Errorf("decode payment of rental %s: %w", rt.ID, err)
	}
	return rt, nil
}

// rentalDocument holds the JSONB columns of a rental row. Nullable columns
// are nil interfaces so the driver writes NULL.
type rentalDocument struct {
	timeline    string
	annotations string
	pricing     string
	deliveryQC  interface{}
	returnQC    interface{}
	issueReport interface{}
	payment     interface{}
}

func encodeRental(rt *domain.Rental) (*rentalDocument, error) {
	var doc rentalDocument
	var err error

	timeline := rt.Timeline
	if timeline == nil {
		timeline = []domain.TimelineEntry{}
	}
	annotations := rt.Annotations
	if annotations == nil {
		annotations = []domain.TimelineAnnotation{}
	}
	if doc.timeline, err = encodeJSON(timeline); err != nil {
		return nil, err
	}
	if doc.annotations, err = encodeJSON(annotations); err != nil {
		return nil, err
	}
	if doc.pricing, err = encodeJSON(rt.Pricing); err != nil {
		return nil, err
	}
	if doc.deliveryQC, err = encodeNullable(rt.DeliveryQC); err != nil {
		return nil, err
	}
	if doc.returnQC, err = encodeNullable(rt.ReturnQC); err != nil {
		return nil, err
	}
	if doc.issueReport, err = encodeNullable(rt.IssueReport); err != nil {
		return nil, err
	}
	if doc.payment, err = encodeNullable(rt.Payment); err != nil {
		return nil, err
	}
	return &doc, nil
}

func encodeJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeNullable[T any](v *T) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	return encodeJSON(v)
}

func decodeNullable[T any](b []byte) (*T, error) {
	if len(b) == 0 {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(b, v); err != nil {
		return nil, err
	}
	return v, nil
}
