// Package app wires the rental service and its backing resources from
// configuration. Both binaries share it.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"closet-rental-backend/internal/config"
	"closet-rental-backend/internal/lifecycle"
	"closet-rental-backend/internal/lock"
	"closet-rental-backend/internal/logger"
	"closet-rental-backend/internal/notify"
	"closet-rental-backend/internal/repository/postgres"
	"closet-rental-backend/internal/service"
)

type App struct {
	DB      *sql.DB
	Store   *postgres.Store
	Redis   *redis.Client // nil when running with process-local locks
	Rentals service.RentalService
}

// Build connects to the database and optional Redis, then assembles the
// rental service.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := postgres.NewStore(db)
	if err := store.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.Migrate {
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("Database schema applied")
	}

	a := &App{DB: db, Store: store}

	lockOpts := lock.Options{
		TTL:           time.Duration(cfg.Lock.TTLSeconds) * time.Second,
		Wait:          time.Duration(cfg.Lock.WaitMillis) * time.Millisecond,
		RetryInterval: time.Duration(cfg.Lock.RetryMillis) * time.Millisecond,
	}
	var locker lock.Locker
	if cfg.Redis.Addr != "" {
		client, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Redis = client
		locker = lock.NewRedisLocker(client, lockOpts)
		logger.Info("Using Redis rental locks", "addr", cfg.Redis.Addr)
	} else {
		locker = lock.NewMemoryLocker(lockOpts)
		logger.Warn("Redis not configured, rental locks are process-local")
	}

	notifier, err := buildNotifier(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		a.Close()
		return nil, err
	}
	engine := lifecycle.NewEngine(engineCfg, nil)

	a.Rentals = service.NewRentalService(
		engine,
		store.RentalRepository,
		store.OutfitRepository,
		store.ClosetRepository,
		locker,
		notifier,
	)
	return a, nil
}

func buildNotifier(ctx context.Context, cfg *config.Config) (notify.Notifier, error) {
	var notifiers []notify.Notifier

	if cfg.SendGrid.APIKey != "" {
		notifiers = append(notifiers, notify.NewEmailNotifier(
			cfg.SendGrid.APIKey,
			cfg.SendGrid.FromEmail,
			cfg.SendGrid.FromName,
			cfg.SendGrid.AdminEmail,
		))
		logger.Info("SendGrid dispute e-mails enabled", "admin_email", cfg.SendGrid.AdminEmail)
	}

	if cfg.Firebase.CredentialsFile != "" {
		push, err := notify.NewPushNotifier(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("init firebase messaging: %w", err)
		}
		notifiers = append(notifiers, push)
		logger.Info("Firebase push notifications enabled")
	}

	if len(notifiers) == 0 {
		logger.Info("No notification channels configured")
		return notify.NewNoop(), nil
	}
	return notify.NewMulti(notifiers...), nil
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", "error", err)
		}
	}
	if err := a.DB.Close(); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}
}
