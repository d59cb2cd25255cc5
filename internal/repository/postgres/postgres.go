package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"closet-rental-backend/internal/repository"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
	repository.RentalRepository
	repository.OutfitRepository
	repository.ClosetRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:               db,
		RentalRepository: NewRentalRepository(db),
		OutfitRepository: NewOutfitRepository(db),
		ClosetRepository: NewClosetRepository(db),
	}
}

// Migrate creates the tables the service needs. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return tx.Commit()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
